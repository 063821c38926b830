package pdf

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/inonalfa/Q-Builder-kiro-sub001/internal/quote"
)

// A4 portrait in points.
const (
	pageWidth  = 595.28
	pageHeight = 841.89
	margin     = 50.0

	lineHeight = 18.0
	rowHeight  = 20.0

	// contentBottom is the lowest y a section may reach; the footer band
	// lives below it.
	contentBottom = pageHeight - margin - 25
)

const (
	defaultTitle  = "הצעת מחיר"
	defaultAuthor = "Q-Builder"

	defaultTerms = "הצעת המחיר בתוקף עד לתאריך הנקוב לעיל.\n" +
		"המחירים אינם כוללים מע\"מ אלא אם צוין אחרת.\n" +
		"תנאי תשלום: שוטף + 30 מיום הוצאת החשבונית.\n" +
		"ביצוע העבודה יחל לאחר קבלת הצעה חתומה ומקדמה בשיעור 30%.\n" +
		"כל שינוי בהיקף העבודה יתומחר בנפרד."
)

// Options configures fonts and document metadata. With an empty FontDir the
// composer falls back to the built-in Helvetica faces, which cannot draw
// Hebrew glyphs.
type Options struct {
	FontDir     string
	FontRegular string
	FontBold    string
	Title       string
	Author      string
}

// Composer lays out quote documents. It holds no per-document state and is
// safe for concurrent use.
type Composer struct {
	opts   Options
	logger *slog.Logger
}

func NewComposer(opts Options, logger *slog.Logger) *Composer {
	if opts.Title == "" {
		opts.Title = defaultTitle
	}

	if opts.Author == "" {
		opts.Author = defaultAuthor
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Composer{opts: opts, logger: logger}
}

// face selects the font family and how strings are encoded for it.
type face struct {
	family   string
	unicode  bool
	currency string
	encode   func(string) string
}

// Compose renders doc into a complete PDF. The same document always yields
// the same bytes.
func (c *Composer) Compose(ctx context.Context, doc *quote.Document) (out []byte, err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = newBuildError(CodeBuildFailed, "failed to build document", fmt.Errorf("panic: %v", r))
		}
	}()

	f := gofpdf.New("P", "pt", "A4", c.opts.FontDir)

	fc, err := c.loadFonts(f)
	if err != nil {
		return nil, err
	}

	c.setMetadata(f, doc)

	cv := &canvas{pdf: f, face: fc, doc: doc, logger: c.logger}
	cv.draw()

	if err := f.Error(); err != nil {
		return nil, newBuildError(CodeBuildFailed, "failed to build document", err)
	}

	var buf bytes.Buffer
	if err := f.Output(&buf); err != nil {
		return nil, newBuildError(CodeBuildFailed, "failed to write document", err)
	}

	return buf.Bytes(), nil
}

func (c *Composer) loadFonts(f *gofpdf.Fpdf) (face, error) {
	if c.opts.FontDir == "" {
		return face{
			family:   "Helvetica",
			currency: "NIS ",
			encode:   f.UnicodeTranslatorFromDescriptor(""),
		}, nil
	}

	const family = "Hebrew"

	f.AddUTF8Font(family, "", c.opts.FontRegular)
	f.AddUTF8Font(family, "B", c.opts.FontBold)

	if err := f.Error(); err != nil {
		return face{}, newBuildError(CodeFontLoad, "failed to load font", err)
	}

	return face{
		family:   family,
		unicode:  true,
		currency: "₪",
		encode:   func(s string) string { return s },
	}, nil
}

func (c *Composer) setMetadata(f *gofpdf.Fpdf, doc *quote.Document) {
	stamp := doc.IssueDate
	if stamp.IsZero() {
		stamp = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	}

	f.SetCatalogSort(true)
	f.SetCreationDate(stamp)
	f.SetModificationDate(stamp)
	f.SetTitle(c.opts.Title+" "+doc.QuoteNumber, true)
	f.SetAuthor(c.opts.Author, true)
	f.SetCreator(c.opts.Author, true)
	f.SetMargins(margin, margin, margin)
	f.SetAutoPageBreak(false, 0)
}
