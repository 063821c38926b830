package store

import (
	"context"
	"database/sql"
	"fmt"
	"hash/fnv"

	"github.com/inonalfa/Q-Builder-kiro-sub001/internal/catalog"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

const selectItemColumns = `id, tenant_id, profession, description, unit, unit_price, created_at`

func scanItem(s scanner) (*catalog.Item, error) {
	var it catalog.Item

	if err := s.Scan(&it.ID, &it.TenantID, &it.Profession, &it.Description, &it.Unit, &it.UnitPrice, &it.CreatedAt); err != nil {
		return nil, err
	}

	return &it, nil
}

func (s *Store) ListItems(ctx context.Context, tenantID int64, filter catalog.ListFilter) ([]*catalog.Item, error) {
	query := `SELECT ` + selectItemColumns + ` FROM catalog_items WHERE tenant_id = $1`
	args := []any{tenantID}

	if filter.Profession != nil {
		query += " AND profession = $2"

		args = append(args, *filter.Profession)
	}

	query += " ORDER BY profession ASC, description ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing catalog items: %w", err)
	}
	defer rows.Close()

	var items []*catalog.Item

	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning catalog item: %w", err)
		}

		items = append(items, it)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating catalog rows: %w", err)
	}

	return items, nil
}

func (s *Store) DeleteItem(ctx context.Context, tenantID, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM catalog_items WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	if err != nil {
		return fmt.Errorf("deleting catalog item: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting catalog item: %w", err)
	}

	if n == 0 {
		return catalog.ErrNotFound
	}

	return nil
}

// importLockKey derives the advisory lock that serializes imports of one
// tenant's profession list.
func importLockKey(tenantID int64, profession string) int64 {
	h := fnv.New64a()
	fmt.Fprintf(h, "%d", tenantID)
	h.Write([]byte{0})
	h.Write([]byte(profession))

	return int64(h.Sum64())
}

type importTx struct {
	tx         *sql.Tx
	tenantID   int64
	profession string
}

func (s *Store) BeginImport(ctx context.Context, tenantID int64, profession string) (catalog.ImportTx, error) {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning import tx: %w", err)
	}

	if _, err := dbTx.ExecContext(ctx, "SELECT pg_advisory_xact_lock($1)", importLockKey(tenantID, profession)); err != nil {
		dbTx.Rollback()
		return nil, fmt.Errorf("acquiring import lock: %w", err)
	}

	return &importTx{tx: dbTx, tenantID: tenantID, profession: profession}, nil
}

func (itx *importTx) Commit() error   { return itx.tx.Commit() }
func (itx *importTx) Rollback() error { return itx.tx.Rollback() }

// FindExisting returns the profession's items whose description matches one
// of params. The caller narrows further by unit.
func (itx *importTx) FindExisting(ctx context.Context, params []catalog.CreateParams) ([]*catalog.Item, error) {
	if len(params) == 0 {
		return nil, nil
	}

	descriptions := make([]string, 0, len(params))
	for _, p := range params {
		descriptions = append(descriptions, p.Description)
	}

	query := `SELECT ` + selectItemColumns + `
		FROM catalog_items
		WHERE tenant_id = $1 AND profession = $2 AND description = ANY($3)`

	rows, err := itx.tx.QueryContext(ctx, query, itx.tenantID, itx.profession, descriptions)
	if err != nil {
		return nil, fmt.Errorf("finding existing items: %w", err)
	}
	defer rows.Close()

	var items []*catalog.Item

	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning catalog item: %w", err)
		}

		items = append(items, it)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating catalog rows: %w", err)
	}

	return items, nil
}

func (itx *importTx) CreateItems(ctx context.Context, items []*catalog.Item) error {
	query := `
		INSERT INTO catalog_items (tenant_id, profession, description, unit, unit_price, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING id, created_at
	`

	for _, it := range items {
		err := itx.tx.QueryRowContext(ctx, query,
			itx.tenantID,
			itx.profession,
			it.Description,
			it.Unit,
			it.UnitPrice,
		).Scan(&it.ID, &it.CreatedAt)
		if err != nil {
			return fmt.Errorf("creating catalog item: %w", err)
		}
	}

	return nil
}

func (itx *importTx) UpdatePrices(ctx context.Context, items []*catalog.Item) error {
	query := `UPDATE catalog_items SET unit_price = $1 WHERE tenant_id = $2 AND id = $3`

	for _, it := range items {
		if _, err := itx.tx.ExecContext(ctx, query, it.UnitPrice, itx.tenantID, it.ID); err != nil {
			return fmt.Errorf("updating catalog item %d: %w", it.ID, err)
		}
	}

	return nil
}
