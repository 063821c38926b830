package export

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/inonalfa/Q-Builder-kiro-sub001/internal/pdf"
	"github.com/inonalfa/Q-Builder-kiro-sub001/internal/quote"
)

// Item represents a single exported quote with its local file path.
type Item struct {
	Quote    *quote.Quote
	FilePath string
}

// Service writes the PDFs of many quotes to a directory.
type Service struct {
	quotes   *quote.Service
	renderer *pdf.Service
}

func NewService(quoteService *quote.Service, renderer *pdf.Service) *Service {
	return &Service{
		quotes:   quoteService,
		renderer: renderer,
	}
}

// Export renders every quote matching the filter into outputDir. Quotes that
// disappear while the export runs are skipped.
func (s *Service) Export(ctx context.Context, tenantID int64, filter quote.ListFilter, outputDir string) ([]Item, error) {
	quotes, err := s.quotes.List(ctx, tenantID, filter)
	if err != nil {
		return nil, fmt.Errorf("listing quotes: %w", err)
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	items := make([]Item, 0, len(quotes))
	used := make(map[string]bool, len(quotes))

	for _, q := range quotes {
		res, err := s.renderer.Render(ctx, tenantID, q.ID)
		if err != nil {
			if errors.Is(err, pdf.ErrQuoteNotFound) {
				continue
			}

			return nil, fmt.Errorf("rendering quote %d: %w", q.ID, err)
		}

		path := filepath.Join(outputDir, uniqueName(used, res.Filename, q.ID))
		if err := os.WriteFile(path, res.Data, 0o644); err != nil {
			return nil, fmt.Errorf("writing quote %d: %w", q.ID, err)
		}

		items = append(items, Item{Quote: q, FilePath: path})
	}

	return items, nil
}

// uniqueName suffixes the quote id when another quote of the same export
// already took name. Distinct numbers can sanitize to the same file name.
func uniqueName(used map[string]bool, name string, quoteID int64) string {
	if used[name] {
		name = fmt.Sprintf("%s-%d%s", strings.TrimSuffix(name, ".pdf"), quoteID, ".pdf")
	}

	used[name] = true

	return name
}

// GenerateSummary lists the exported quotes one per line followed by the
// combined total.
func (s *Service) GenerateSummary(items []Item) string {
	var sb strings.Builder

	total := decimal.Zero

	for _, item := range items {
		q := item.Quote
		total = total.Add(q.Total)

		sb.WriteString(fmt.Sprintf("* %s | %s | %s | ₪%s | %s\n",
			q.IssueDate.Format("02/01/2006"), q.Number, q.Status, q.Total.StringFixed(2), filepath.Base(item.FilePath)))
	}

	sb.WriteString(fmt.Sprintf("\n%d quotes, total ₪%s\n", len(items), total.StringFixed(2)))

	return sb.String()
}
