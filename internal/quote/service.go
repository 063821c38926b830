package quote

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=quote
type Repository interface {
	CreateQuote(ctx context.Context, q *Quote) error
	GetQuote(ctx context.Context, tenantID, id int64) (*Quote, error)
	ListQuotes(ctx context.Context, tenantID int64, filter ListFilter) ([]*Quote, error)
	UpdateContent(ctx context.Context, q *Quote) error
	UpdateStatus(ctx context.Context, tenantID, id int64, status Status) error
	DeleteQuote(ctx context.Context, tenantID, id int64) error

	GetMetadata(ctx context.Context, tenantID, id int64) (Metadata, error)
	GetDocument(ctx context.Context, tenantID, id int64) (*Document, error)
}

// Invalidator drops every rendered artifact of a quote. It is called after
// each successful mutation, before the mutation returns.
type Invalidator interface {
	InvalidateAll(tenantID, documentID int64) int
}

type Service struct {
	repo        Repository
	invalidator Invalidator
}

func NewService(repo Repository, invalidator Invalidator) *Service {
	return &Service{repo: repo, invalidator: invalidator}
}

type ListFilter struct {
	Status   *Status
	ClientID *int64
}

type ItemParams struct {
	Description string
	Unit        string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
}

type CreateParams struct {
	TenantID   int64
	ClientID   int64
	Number     string
	IssueDate  time.Time
	ExpiryDate time.Time
	VATRate    decimal.Decimal
	Terms      *string
	Items      []ItemParams
}

// UpdateParams carries a partial content edit. Nil fields are left as is;
// a non-nil Items replaces every line.
type UpdateParams struct {
	ClientID   *int64
	IssueDate  *time.Time
	ExpiryDate *time.Time
	VATRate    *decimal.Decimal
	Terms      *string
	Items      []ItemParams
}

// transitions lists the statuses reachable from each status.
var transitions = map[Status][]Status{
	StatusDraft:    {StatusSent, StatusAccepted, StatusRejected},
	StatusSent:     {StatusDraft, StatusAccepted, StatusRejected, StatusExpired},
	StatusAccepted: {},
	StatusRejected: {StatusDraft},
	StatusExpired:  {StatusDraft},
}

// ParseID parses a path identifier. Non-numeric and non-positive values are
// rejected before any data access.
func ParseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidID, s)
	}

	return id, nil
}

func (s *Service) Create(ctx context.Context, params CreateParams) (*Quote, error) {
	q := &Quote{
		TenantID:   params.TenantID,
		ClientID:   params.ClientID,
		Number:     params.Number,
		Status:     StatusDraft,
		IssueDate:  params.IssueDate,
		ExpiryDate: params.ExpiryDate,
		VATRate:    params.VATRate,
		Terms:      params.Terms,
	}
	q.setItems(params.Items)

	if err := s.repo.CreateQuote(ctx, q); err != nil {
		return nil, err
	}

	return q, nil
}

func (s *Service) Get(ctx context.Context, tenantID, id int64) (*Quote, error) {
	return s.repo.GetQuote(ctx, tenantID, id)
}

func (s *Service) List(ctx context.Context, tenantID int64, filter ListFilter) ([]*Quote, error) {
	return s.repo.ListQuotes(ctx, tenantID, filter)
}

// UpdateContent applies a content edit and recomputes every derived amount.
// Accepted quotes are locked.
func (s *Service) UpdateContent(ctx context.Context, tenantID, id int64, params UpdateParams) (*Quote, error) {
	q, err := s.repo.GetQuote(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	if q.Status == StatusAccepted {
		return nil, fmt.Errorf("%w: accepted quotes cannot be edited", ErrInvalidStatus)
	}

	if params.ClientID != nil {
		q.ClientID = *params.ClientID
	}

	if params.IssueDate != nil {
		q.IssueDate = *params.IssueDate
	}

	if params.ExpiryDate != nil {
		q.ExpiryDate = *params.ExpiryDate
	}

	if params.Terms != nil {
		q.Terms = params.Terms
	}

	if params.VATRate != nil {
		q.VATRate = *params.VATRate
	}

	if params.Items != nil {
		q.setItems(params.Items)
	} else {
		q.recalculate()
	}

	if err := s.repo.UpdateContent(ctx, q); err != nil {
		return nil, err
	}

	s.invalidator.InvalidateAll(tenantID, id)

	return q, nil
}

func (s *Service) UpdateStatus(ctx context.Context, tenantID, id int64, status Status) error {
	q, err := s.repo.GetQuote(ctx, tenantID, id)
	if err != nil {
		return err
	}

	if !canTransition(q.Status, status) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidStatus, q.Status, status)
	}

	if err := s.repo.UpdateStatus(ctx, tenantID, id, status); err != nil {
		return err
	}

	s.invalidator.InvalidateAll(tenantID, id)

	return nil
}

func (s *Service) Delete(ctx context.Context, tenantID, id int64) error {
	if err := s.repo.DeleteQuote(ctx, tenantID, id); err != nil {
		return err
	}

	s.invalidator.InvalidateAll(tenantID, id)

	return nil
}

// Metadata reports whether the quote exists and when it last changed.
// A missing quote is not an error here; Exists is false.
func (s *Service) Metadata(ctx context.Context, tenantID, id int64) (Metadata, error) {
	md, err := s.repo.GetMetadata(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Metadata{Exists: false}, nil
		}

		return Metadata{}, err
	}

	return md, nil
}

func (s *Service) Document(ctx context.Context, tenantID, id int64) (*Document, error) {
	return s.repo.GetDocument(ctx, tenantID, id)
}

func canTransition(from, to Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}

	return false
}

var hundred = decimal.NewFromInt(100)

func (q *Quote) setItems(params []ItemParams) {
	q.Items = make([]Item, len(params))
	for i, p := range params {
		q.Items[i] = Item{
			Description: p.Description,
			Unit:        p.Unit,
			Quantity:    p.Quantity,
			UnitPrice:   p.UnitPrice,
			LineTotal:   p.Quantity.Mul(p.UnitPrice).Round(2),
		}
	}

	q.recalculate()
}

// recalculate derives subtotal, VAT and total from the current lines.
func (q *Quote) recalculate() {
	subtotal := decimal.Zero
	for _, it := range q.Items {
		subtotal = subtotal.Add(it.LineTotal)
	}

	q.Subtotal = subtotal
	q.VATAmount = subtotal.Mul(q.VATRate).Round(2)
	q.Total = q.Subtotal.Add(q.VATAmount)
}

// VATPercent is the rate as a whole percentage, for labels only.
func VATPercent(rate decimal.Decimal) int64 {
	return rate.Mul(hundred).Round(0).IntPart()
}
