package view

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"

	"github.com/inonalfa/Q-Builder-kiro-sub001/internal/pdf"
)

const dbTimeout = 5 * time.Second

// FormatMoney formats an amount in shekels with two decimals.
func FormatMoney(d decimal.Decimal) string {
	return "₪" + d.StringFixed(2)
}

// FormatDate formats a time.Time into DD/MM/YYYY.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}

	return t.Format("02/01/2006")
}

// DbCtx returns a context with a standard timeout for database operations.
func DbCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), dbTimeout)
}

// savePDF renders a quote and writes it under dir, creating dir if needed.
func savePDF(ctx context.Context, svc *pdf.Service, tenantID, quoteID int64, dir string) (string, *pdf.Result, error) {
	res, err := svc.Render(ctx, tenantID, quoteID)
	if err != nil {
		return "", nil, err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", nil, fmt.Errorf("creating output dir: %w", err)
	}

	path := filepath.Join(dir, res.Filename)
	if err := os.WriteFile(path, res.Data, 0o644); err != nil {
		return "", nil, fmt.Errorf("writing pdf: %w", err)
	}

	return path, res, nil
}
