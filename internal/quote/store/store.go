package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/inonalfa/Q-Builder-kiro-sub001/internal/quote"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

const selectQuoteColumns = `
	q.id, q.tenant_id, q.client_id, q.number, q.status, q.issue_date, q.expiry_date,
	q.vat_rate, q.terms, q.subtotal, q.vat_amount, q.total, q.created_at, q.updated_at
`

// scanQuote reads a quote row. Expected column order matches selectQuoteColumns.
func scanQuote(s scanner) (*quote.Quote, error) {
	var q quote.Quote

	var status string

	var terms sql.NullString

	if err := s.Scan(
		&q.ID, &q.TenantID, &q.ClientID, &q.Number, &status, &q.IssueDate, &q.ExpiryDate,
		&q.VATRate, &terms, &q.Subtotal, &q.VATAmount, &q.Total, &q.CreatedAt, &q.UpdatedAt,
	); err != nil {
		return nil, err
	}

	q.Status = quote.Status(status)

	if terms.Valid {
		q.Terms = &terms.String
	}

	return &q, nil
}

func (s *Store) CreateQuote(ctx context.Context, q *quote.Quote) error {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer dbTx.Rollback()

	query := `
		INSERT INTO quotes (tenant_id, client_id, number, status, issue_date, expiry_date,
			vat_rate, terms, subtotal, vat_amount, total, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`

	err = dbTx.QueryRowContext(ctx, query,
		q.TenantID,
		q.ClientID,
		q.Number,
		q.Status,
		q.IssueDate,
		q.ExpiryDate,
		q.VATRate,
		q.Terms,
		q.Subtotal,
		q.VATAmount,
		q.Total,
	).Scan(&q.ID, &q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		return fmt.Errorf("creating quote: %w", err)
	}

	if err := insertItems(ctx, dbTx, q.ID, q.Items); err != nil {
		return err
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

func (s *Store) GetQuote(ctx context.Context, tenantID, id int64) (*quote.Quote, error) {
	query := `SELECT ` + selectQuoteColumns + `
		FROM quotes q
		WHERE q.tenant_id = $1 AND q.id = $2 AND q.deleted_at IS NULL`

	q, err := scanQuote(s.db.QueryRowContext(ctx, query, tenantID, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, quote.ErrNotFound
		}

		return nil, fmt.Errorf("getting quote: %w", err)
	}

	items, err := s.listItems(ctx, q.ID)
	if err != nil {
		return nil, err
	}

	q.Items = items

	return q, nil
}

func (s *Store) ListQuotes(ctx context.Context, tenantID int64, filter quote.ListFilter) ([]*quote.Quote, error) {
	query := `SELECT ` + selectQuoteColumns + `
		FROM quotes q
		WHERE q.tenant_id = $1 AND q.deleted_at IS NULL`

	args := []any{tenantID}

	argIdx := 2

	if filter.Status != nil {
		query += fmt.Sprintf(" AND q.status = $%d", argIdx)

		args = append(args, *filter.Status)
		argIdx++
	}

	if filter.ClientID != nil {
		query += fmt.Sprintf(" AND q.client_id = $%d", argIdx)

		args = append(args, *filter.ClientID)
	}

	query += " ORDER BY q.issue_date DESC, q.id DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing quotes: %w", err)
	}
	defer rows.Close()

	var quotes []*quote.Quote

	for rows.Next() {
		q, err := scanQuote(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning quote: %w", err)
		}

		quotes = append(quotes, q)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating quote rows: %w", err)
	}

	return quotes, nil
}

// UpdateContent rewrites the quote header and replaces its lines atomically.
func (s *Store) UpdateContent(ctx context.Context, q *quote.Quote) error {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer dbTx.Rollback()

	query := `
		UPDATE quotes
		SET client_id = $1, issue_date = $2, expiry_date = $3, vat_rate = $4, terms = $5,
			subtotal = $6, vat_amount = $7, total = $8, updated_at = NOW()
		WHERE tenant_id = $9 AND id = $10 AND deleted_at IS NULL
		RETURNING updated_at
	`

	err = dbTx.QueryRowContext(ctx, query,
		q.ClientID,
		q.IssueDate,
		q.ExpiryDate,
		q.VATRate,
		q.Terms,
		q.Subtotal,
		q.VATAmount,
		q.Total,
		q.TenantID,
		q.ID,
	).Scan(&q.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return quote.ErrNotFound
		}

		return fmt.Errorf("updating quote: %w", err)
	}

	if _, err := dbTx.ExecContext(ctx, `DELETE FROM quote_items WHERE quote_id = $1`, q.ID); err != nil {
		return fmt.Errorf("clearing quote items: %w", err)
	}

	if err := insertItems(ctx, dbTx, q.ID, q.Items); err != nil {
		return err
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

func (s *Store) UpdateStatus(ctx context.Context, tenantID, id int64, status quote.Status) error {
	query := `
		UPDATE quotes
		SET status = $1, updated_at = NOW()
		WHERE tenant_id = $2 AND id = $3 AND deleted_at IS NULL
	`

	return execOne(ctx, s.db, "updating status", query, status, tenantID, id)
}

func (s *Store) DeleteQuote(ctx context.Context, tenantID, id int64) error {
	query := `
		UPDATE quotes
		SET deleted_at = NOW(), updated_at = NOW()
		WHERE tenant_id = $1 AND id = $2 AND deleted_at IS NULL
	`

	return execOne(ctx, s.db, "deleting quote", query, tenantID, id)
}

func (s *Store) GetMetadata(ctx context.Context, tenantID, id int64) (quote.Metadata, error) {
	query := `
		SELECT updated_at, number
		FROM quotes
		WHERE tenant_id = $1 AND id = $2 AND deleted_at IS NULL
	`

	md := quote.Metadata{Exists: true}

	err := s.db.QueryRowContext(ctx, query, tenantID, id).Scan(&md.LastModified, &md.DisplayNumber)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return quote.Metadata{}, quote.ErrNotFound
		}

		return quote.Metadata{}, fmt.Errorf("getting quote metadata: %w", err)
	}

	return md, nil
}

// GetDocument loads the rendering snapshot: quote header joined with the
// business profile and client, then the lines in position order.
func (s *Store) GetDocument(ctx context.Context, tenantID, id int64) (*quote.Document, error) {
	query := `
		SELECT q.number, q.issue_date, q.expiry_date, q.subtotal, q.vat_rate, q.vat_amount, q.total, q.terms,
			b.name, b.address, b.phone, b.email, b.logo_path,
			c.name, c.contact_person, c.phone, c.email, c.address
		FROM quotes q
		JOIN businesses b ON b.tenant_id = q.tenant_id
		JOIN clients c ON c.id = q.client_id AND c.tenant_id = q.tenant_id
		WHERE q.tenant_id = $1 AND q.id = $2 AND q.deleted_at IS NULL
	`

	var doc quote.Document

	var terms, logoPath, contactPerson sql.NullString

	err := s.db.QueryRowContext(ctx, query, tenantID, id).Scan(
		&doc.QuoteNumber, &doc.IssueDate, &doc.ExpiryDate,
		&doc.Subtotal, &doc.VATRate, &doc.VATAmount, &doc.Total, &terms,
		&doc.Business.Name, &doc.Business.Address, &doc.Business.Phone, &doc.Business.Email, &logoPath,
		&doc.Client.Name, &contactPerson, &doc.Client.Phone, &doc.Client.Email, &doc.Client.Address,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, quote.ErrNotFound
		}

		return nil, fmt.Errorf("getting quote document: %w", err)
	}

	if terms.Valid {
		doc.Terms = &terms.String
	}

	doc.Business.LogoPath = logoPath.String
	doc.Client.ContactPerson = contactPerson.String

	items, err := s.listItems(ctx, id)
	if err != nil {
		return nil, err
	}

	doc.Items = items

	return &doc, nil
}

func (s *Store) listItems(ctx context.Context, quoteID int64) ([]quote.Item, error) {
	query := `
		SELECT description, unit, quantity, unit_price, line_total
		FROM quote_items
		WHERE quote_id = $1
		ORDER BY position ASC
	`

	rows, err := s.db.QueryContext(ctx, query, quoteID)
	if err != nil {
		return nil, fmt.Errorf("listing quote items: %w", err)
	}
	defer rows.Close()

	items := []quote.Item{}

	for rows.Next() {
		var it quote.Item
		if err := rows.Scan(&it.Description, &it.Unit, &it.Quantity, &it.UnitPrice, &it.LineTotal); err != nil {
			return nil, fmt.Errorf("scanning quote item: %w", err)
		}

		items = append(items, it)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating quote item rows: %w", err)
	}

	return items, nil
}

func insertItems(ctx context.Context, tx execer, quoteID int64, items []quote.Item) error {
	query := `
		INSERT INTO quote_items (quote_id, position, description, unit, quantity, unit_price, line_total)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	for i, it := range items {
		if _, err := tx.ExecContext(ctx, query,
			quoteID, i, it.Description, it.Unit, it.Quantity, it.UnitPrice, it.LineTotal,
		); err != nil {
			return fmt.Errorf("inserting quote item %d: %w", i, err)
		}
	}

	return nil
}

func execOne(ctx context.Context, db execer, op, query string, args ...any) error {
	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if n == 0 {
		return quote.ErrNotFound
	}

	return nil
}
