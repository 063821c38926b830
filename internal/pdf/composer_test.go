package pdf_test

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inonalfa/Q-Builder-kiro-sub001/internal/pdf"
	"github.com/inonalfa/Q-Builder-kiro-sub001/internal/quote"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func sampleDocument() *quote.Document {
	return &quote.Document{
		QuoteNumber: "Q-2025-001",
		IssueDate:   time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC),
		ExpiryDate:  time.Date(2025, 4, 4, 0, 0, 0, 0, time.UTC),
		Business: quote.Business{
			Name:    "שיפוצים בע\"מ",
			Address: "הרצל 1, תל אביב",
			Phone:   "03-5551234",
			Email:   "office@example.co.il",
		},
		Client: quote.Client{
			Name:          "ישראל ישראלי",
			ContactPerson: "דנה",
			Phone:         "050-1234567",
			Address:       "רחוב הגפן 5, חיפה",
		},
		Items: []quote.Item{
			{Description: "A", Unit: "m", Quantity: dec("2"), UnitPrice: dec("100"), LineTotal: dec("200")},
			{Description: "B", Unit: "kg", Quantity: dec("1"), UnitPrice: dec("50"), LineTotal: dec("50")},
		},
		Subtotal:  dec("250"),
		VATRate:   dec("0.18"),
		VATAmount: dec("45"),
		Total:     dec("295"),
	}
}

func newComposer() *pdf.Composer {
	return pdf.NewComposer(pdf.Options{}, nil)
}

var pageCount = regexp.MustCompile(`/Count (\d+)`)

func pages(t *testing.T, data []byte) int {
	t.Helper()

	m := pageCount.FindSubmatch(data)
	require.NotNil(t, m, "page tree not found")

	n, err := strconv.Atoi(string(m[1]))
	require.NoError(t, err)

	return n
}

func TestComposer_Compose(t *testing.T) {
	type testCase struct {
		name      string
		mutate    func(d *quote.Document)
		wantPages int
	}

	tests := []testCase{
		{
			name:      "TwoItems",
			mutate:    func(*quote.Document) {},
			wantPages: 1,
		},
		{
			name:      "EmptyItems",
			mutate:    func(d *quote.Document) { d.Items = nil },
			wantPages: 1,
		},
		{
			name: "OptionalFieldsAbsent",
			mutate: func(d *quote.Document) {
				d.Terms = nil
				d.Client.ContactPerson = ""
				d.Business.LogoPath = ""
				d.Business.Email = ""
			},
			wantPages: 1,
		},
		{
			name: "ContactSameAsClient",
			mutate: func(d *quote.Document) {
				d.Client.ContactPerson = d.Client.Name
			},
			wantPages: 1,
		},
		{
			name: "CustomTerms",
			mutate: func(d *quote.Document) {
				d.Terms = new("תשלום מראש.\nאחריות לשנה.")
			},
			wantPages: 1,
		},
		{
			name: "LongDescriptionIsTruncated",
			mutate: func(d *quote.Document) {
				d.Items[0].Description = "עבודות ריצוף וחיפוי קירות כולל חומרים, פינוי פסולת וניקיון סופי של כל שטח העבודה"
			},
			wantPages: 1,
		},
		{
			name: "ManyItemsFlowOntoMorePages",
			mutate: func(d *quote.Document) {
				d.Items = nil
				for i := range 60 {
					d.Items = append(d.Items, quote.Item{
						Description: fmt.Sprintf("Item %d", i+1),
						Unit:        "unit",
						Quantity:    dec("1"),
						UnitPrice:   dec("10"),
						LineTotal:   dec("10"),
					})
				}
			},
			wantPages: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := sampleDocument()
			tt.mutate(doc)

			got, err := newComposer().Compose(context.Background(), doc)
			require.NoError(t, err)

			assert.True(t, bytes.HasPrefix(got, []byte("%PDF-")))
			assert.Equal(t, tt.wantPages, pages(t, got))
		})
	}
}

func TestComposer_Deterministic(t *testing.T) {
	c := newComposer()

	first, err := c.Compose(context.Background(), sampleDocument())
	require.NoError(t, err)

	second, err := c.Compose(context.Background(), sampleDocument())
	require.NoError(t, err)

	assert.NotEmpty(t, first)
	assert.Equal(t, first, second)
}

func TestComposer_UnicodeFonts(t *testing.T) {
	opts := pdf.UnicodeFontOptions(t)

	doc := sampleDocument()
	doc.Items = append(doc.Items, quote.Item{
		Description: strings.Repeat("פירוק ריצוף קיים כולל פינוי פסולת ", 5),
		Unit:        "מ\"ר",
		Quantity:    dec("12.5"),
		UnitPrice:   dec("1250.5"),
		LineTotal:   dec("15631.25"),
	})
	terms := "50% מקדמה, יתרה בסיום העבודה"
	doc.Terms = &terms

	first, err := pdf.NewComposer(opts, nil).Compose(context.Background(), doc)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(first, []byte("%PDF-")))

	second, err := pdf.NewComposer(opts, nil).Compose(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestComposer_FontLoadFailure(t *testing.T) {
	c := pdf.NewComposer(pdf.Options{
		FontDir:     t.TempDir(),
		FontRegular: "missing-regular.ttf",
		FontBold:    "missing-bold.ttf",
	}, nil)

	got, err := c.Compose(context.Background(), sampleDocument())
	require.Error(t, err)
	assert.Nil(t, got)

	var be *pdf.BuildError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, pdf.CodeFontLoad, be.Code)
	assert.True(t, pdf.IsFontError(err))
}

func TestComposer_Logo(t *testing.T) {
	dir := t.TempDir()

	validPath := filepath.Join(dir, "logo.png")
	writePNG(t, validPath, 60, 20)

	invalidPath := filepath.Join(dir, "broken.png")
	require.NoError(t, os.WriteFile(invalidPath, []byte("not an image"), 0o644))

	type testCase struct {
		name     string
		logoPath string
	}

	tests := []testCase{
		{name: "Valid", logoPath: validPath},
		{name: "Missing", logoPath: filepath.Join(dir, "nope.png")},
		{name: "Corrupt", logoPath: invalidPath},
		{name: "UnsupportedType", logoPath: filepath.Join(dir, "logo.bmp")},
	}

	plain, err := newComposer().Compose(context.Background(), sampleDocument())
	require.NoError(t, err)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := sampleDocument()
			doc.Business.LogoPath = tt.logoPath

			got, err := newComposer().Compose(context.Background(), doc)
			require.NoError(t, err)
			assert.NotEmpty(t, got)

			if tt.name == "Valid" {
				assert.Greater(t, len(got), len(plain))
			}
		})
	}
}

func TestComposer_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newComposer().Compose(ctx, sampleDocument())
	assert.ErrorIs(t, err, context.Canceled)
}

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := range w {
		for y := range h {
			img.Set(x, y, color.RGBA{R: 200, G: 30, B: 30, A: 255})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}
