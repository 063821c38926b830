package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=catalog
type Repository interface {
	ListItems(ctx context.Context, tenantID int64, filter ListFilter) ([]*Item, error)
	DeleteItem(ctx context.Context, tenantID, id int64) error
	BeginImport(ctx context.Context, tenantID int64, profession string) (ImportTx, error)
}

// ImportTx is a single import unit. Imports for the same tenant and
// profession are serialized.
type ImportTx interface {
	FindExisting(ctx context.Context, params []CreateParams) ([]*Item, error)
	CreateItems(ctx context.Context, items []*Item) error
	UpdatePrices(ctx context.Context, items []*Item) error
	Commit() error
	Rollback() error
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

type CreateParams struct {
	Description string
	Unit        string
	UnitPrice   decimal.Decimal
}

type ListFilter struct {
	Profession *string
}

type ImportResult struct {
	Created   []*Item
	Updated   []*Item
	Unchanged int
}

func (s *Service) List(ctx context.Context, tenantID int64, filter ListFilter) ([]*Item, error) {
	return s.repo.ListItems(ctx, tenantID, filter)
}

func (s *Service) Delete(ctx context.Context, tenantID, id int64) error {
	return s.repo.DeleteItem(ctx, tenantID, id)
}

// Import merges a parsed price list into the tenant's catalog for one
// profession. Lines matching an existing description and unit update its
// price; the rest are created. Repeated lines in the batch keep the last.
func (s *Service) Import(ctx context.Context, tenantID int64, profession string, params []CreateParams) (*ImportResult, error) {
	profession = strings.TrimSpace(profession)
	if profession == "" {
		return nil, ErrInvalidProfession
	}

	params = dedupe(params)
	if len(params) == 0 {
		return &ImportResult{}, nil
	}

	itx, err := s.repo.BeginImport(ctx, tenantID, profession)
	if err != nil {
		return nil, fmt.Errorf("begin import: %w", err)
	}
	defer itx.Rollback()

	existing, err := itx.FindExisting(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("find existing: %w", err)
	}

	lookup := make(map[key]*Item, len(existing))
	for _, it := range existing {
		lookup[it.key()] = it
	}

	result := &ImportResult{}

	for _, p := range params {
		k := key{Description: p.Description, Unit: p.Unit}

		if it, ok := lookup[k]; ok {
			if it.UnitPrice.Equal(p.UnitPrice) {
				result.Unchanged++
				continue
			}

			it.UnitPrice = p.UnitPrice
			result.Updated = append(result.Updated, it)

			continue
		}

		result.Created = append(result.Created, &Item{
			TenantID:    tenantID,
			Profession:  profession,
			Description: p.Description,
			Unit:        p.Unit,
			UnitPrice:   p.UnitPrice,
		})
	}

	if len(result.Created) > 0 {
		if err := itx.CreateItems(ctx, result.Created); err != nil {
			return nil, fmt.Errorf("create items: %w", err)
		}
	}

	if len(result.Updated) > 0 {
		if err := itx.UpdatePrices(ctx, result.Updated); err != nil {
			return nil, fmt.Errorf("update prices: %w", err)
		}
	}

	if err := itx.Commit(); err != nil {
		return nil, fmt.Errorf("commit import: %w", err)
	}

	return result, nil
}

// dedupe keeps the last occurrence of each description and unit, in the
// order of first appearance.
func dedupe(params []CreateParams) []CreateParams {
	idx := make(map[key]int, len(params))
	out := make([]CreateParams, 0, len(params))

	for _, p := range params {
		k := key{Description: p.Description, Unit: p.Unit}
		if i, ok := idx[k]; ok {
			out[i] = p
			continue
		}

		idx[k] = len(out)
		out = append(out, p)
	}

	return out
}
