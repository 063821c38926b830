package quote_test

import (
	"bytes"
	"context"
	"encoding/json"
	"maps"
	"net/http"
	"net/http/httptest"
	"slices"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/inonalfa/Q-Builder-kiro-sub001/internal/http/auth"
	quotehttp "github.com/inonalfa/Q-Builder-kiro-sub001/internal/http/quote"
	"github.com/inonalfa/Q-Builder-kiro-sub001/internal/pdf"
	"github.com/inonalfa/Q-Builder-kiro-sub001/internal/pdf/cache"
	"github.com/inonalfa/Q-Builder-kiro-sub001/internal/quote"
)

const tenantID = int64(1)

var modified = time.Date(2025, 3, 5, 10, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func document() *quote.Document {
	return &quote.Document{
		QuoteNumber: "Q-2025/001",
		IssueDate:   time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC),
		ExpiryDate:  time.Date(2025, 4, 4, 0, 0, 0, 0, time.UTC),
		Business:    quote.Business{Name: "Acme Renovations", Phone: "03-5551234"},
		Client:      quote.Client{Name: "Dana Levi"},
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

type fixture struct {
	repo   *quote.MockRepository
	store  *cache.Store
	router http.Handler
}

func newFixture(t *testing.T, opts pdf.Options) *fixture {
	t.Helper()

	ctrl := gomock.NewController(t)
	repo := quote.NewMockRepository(ctrl)
	store := cache.New(t.TempDir())

	svc := quote.NewService(repo, store)
	pdfSvc := pdf.NewService(svc, store, pdf.NewComposer(opts, nil), nil)

	router := chi.NewRouter()
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(auth.WithTenant(r.Context(), tenantID)))
		})
	})
	router.Route("/quotes", quotehttp.NewHandler(svc, pdfSvc).Routes)

	return &fixture{repo: repo, store: store, router: router}
}

func (f *fixture) do(method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()

	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))

	return body
}

func TestHandler_PDF(t *testing.T) {
	f := newFixture(t, pdf.Options{})

	md := quote.Metadata{Exists: true, LastModified: modified, DisplayNumber: "Q-2025/001"}
	f.repo.EXPECT().GetMetadata(gomock.Any(), tenantID, int64(5)).Return(md, nil).Times(2)
	f.repo.EXPECT().GetDocument(gomock.Any(), tenantID, int64(5)).Return(document(), nil).Times(1)

	first := f.do(http.MethodGet, "/quotes/5/pdf", "")
	require.Equal(t, http.StatusOK, first.Code)

	assert.Equal(t, "application/pdf", first.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="quote-Q-2025_001.pdf"`, first.Header().Get("Content-Disposition"))
	assert.Equal(t, "private, no-cache, no-store, must-revalidate", first.Header().Get("Cache-Control"))
	assert.Equal(t, strconv.Itoa(first.Body.Len()), first.Header().Get("Content-Length"))
	assert.True(t, bytes.HasPrefix(first.Body.Bytes(), []byte("%PDF-")))

	second := f.do(http.MethodGet, "/quotes/5/pdf", "")
	require.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, first.Body.Bytes(), second.Body.Bytes())
}

func TestHandler_PDFErrors(t *testing.T) {
	type testCase struct {
		name       string
		opts       func(t *testing.T) pdf.Options
		setupMock  func(repo *quote.MockRepository)
		wantStatus int
		wantCode   string
	}

	md := quote.Metadata{Exists: true, LastModified: modified, DisplayNumber: "Q-1"}

	tests := []testCase{
		{
			name: "NotFound",
			setupMock: func(repo *quote.MockRepository) {
				repo.EXPECT().GetMetadata(gomock.Any(), tenantID, int64(5)).Return(quote.Metadata{}, quote.ErrNotFound)
			},
			wantStatus: http.StatusNotFound,
			wantCode:   quotehttp.CodeQuoteNotFound,
		},
		{
			name: "DeletedBetweenReads",
			setupMock: func(repo *quote.MockRepository) {
				repo.EXPECT().GetMetadata(gomock.Any(), tenantID, int64(5)).Return(md, nil)
				repo.EXPECT().GetDocument(gomock.Any(), tenantID, int64(5)).Return(nil, quote.ErrNotFound)
			},
			wantStatus: http.StatusNotFound,
			wantCode:   quotehttp.CodeQuoteNotFound,
		},
		{
			name: "FontMissing",
			opts: func(t *testing.T) pdf.Options {
				return pdf.Options{FontDir: t.TempDir(), FontRegular: "missing.ttf", FontBold: "missing-bold.ttf"}
			},
			setupMock: func(repo *quote.MockRepository) {
				repo.EXPECT().GetMetadata(gomock.Any(), tenantID, int64(5)).Return(md, nil)
				repo.EXPECT().GetDocument(gomock.Any(), tenantID, int64(5)).Return(document(), nil)
			},
			wantStatus: http.StatusInternalServerError,
			wantCode:   quotehttp.CodeFontError,
		},
		{
			name: "BuildFailure",
			setupMock: func(repo *quote.MockRepository) {
				repo.EXPECT().GetMetadata(gomock.Any(), tenantID, int64(5)).Return(md, nil)
				repo.EXPECT().GetDocument(gomock.Any(), tenantID, int64(5)).Return(nil, nil)
			},
			wantStatus: http.StatusInternalServerError,
			wantCode:   quotehttp.CodeGeneration,
		},
		{
			name: "MetadataFailure",
			setupMock: func(repo *quote.MockRepository) {
				repo.EXPECT().GetMetadata(gomock.Any(), tenantID, int64(5)).Return(quote.Metadata{}, assert.AnError)
			},
			wantStatus: http.StatusInternalServerError,
			wantCode:   quotehttp.CodeGeneration,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := pdf.Options{}
			if tt.opts != nil {
				opts = tt.opts(t)
			}

			f := newFixture(t, opts)
			tt.setupMock(f.repo)

			rec := f.do(http.MethodGet, "/quotes/5/pdf", "")

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			// Causes stay in the log; the body carries only the code.
			body := decodeError(t, rec)
			assert.Equal(t, tt.wantCode, body["code"])
			assert.ElementsMatch(t, []string{"error", "code"}, slices.Collect(maps.Keys(body)))
			assert.NotContains(t, body["error"], "/")
			assert.Zero(t, f.store.Stats().FileCount)
		})
	}
}

func TestHandler_InvalidID(t *testing.T) {
	type testCase struct {
		name   string
		method string
		target string
	}

	tests := []testCase{
		{name: "PDFNonNumeric", method: http.MethodGet, target: "/quotes/abc/pdf"},
		{name: "PDFZero", method: http.MethodGet, target: "/quotes/0/pdf"},
		{name: "PDFNegative", method: http.MethodGet, target: "/quotes/-3/pdf"},
		{name: "Get", method: http.MethodGet, target: "/quotes/1.5"},
		{name: "Delete", method: http.MethodDelete, target: "/quotes/x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, pdf.Options{})

			rec := f.do(tt.method, tt.target, "")
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestHandler_Get(t *testing.T) {
	f := newFixture(t, pdf.Options{})

	f.repo.EXPECT().GetQuote(gomock.Any(), tenantID, int64(3)).Return(&quote.Quote{
		ID:     3,
		Number: "Q-3",
		Status: quote.StatusSent,
		Items:  []quote.Item{{Description: "A", Quantity: dec("1"), UnitPrice: dec("10"), LineTotal: dec("10")}},
		Total:  dec("11.8"),
	}, nil)
	f.repo.EXPECT().GetQuote(gomock.Any(), tenantID, int64(4)).Return(nil, quote.ErrNotFound)

	rec := f.do(http.MethodGet, "/quotes/3", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		ID     int64  `json:"id"`
		Number string `json:"number"`
		Status string `json:"status"`
		Total  string `json:"total"`
		Items  []struct {
			Description string `json:"description"`
		} `json:"items"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, int64(3), body.ID)
	assert.Equal(t, "sent", body.Status)
	assert.Equal(t, "11.8", body.Total)
	require.Len(t, body.Items, 1)

	assert.Equal(t, http.StatusNotFound, f.do(http.MethodGet, "/quotes/4", "").Code)
}

func TestHandler_ListFilters(t *testing.T) {
	f := newFixture(t, pdf.Options{})

	f.repo.EXPECT().
		ListQuotes(gomock.Any(), tenantID, quote.ListFilter{Status: new(quote.StatusDraft), ClientID: new(int64(9))}).
		Return([]*quote.Quote{{ID: 1}, {ID: 2}}, nil)

	rec := f.do(http.MethodGet, "/quotes?status=draft&client_id=9", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body []map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Len(t, body, 2)
}

func TestHandler_MutationsInvalidateCache(t *testing.T) {
	type testCase struct {
		name       string
		method     string
		target     string
		body       string
		setupMock  func(repo *quote.MockRepository)
		wantStatus int
		wantCached bool
	}

	tests := []testCase{
		{
			name:   "StatusChange",
			method: http.MethodPatch,
			target: "/quotes/5/status",
			body:   `{"status":"sent"}`,
			setupMock: func(repo *quote.MockRepository) {
				repo.EXPECT().GetQuote(gomock.Any(), tenantID, int64(5)).Return(&quote.Quote{ID: 5, Status: quote.StatusDraft}, nil)
				repo.EXPECT().UpdateStatus(gomock.Any(), tenantID, int64(5), quote.StatusSent).Return(nil)
			},
			wantStatus: http.StatusNoContent,
		},
		{
			name:   "InvalidTransition",
			method: http.MethodPatch,
			target: "/quotes/5/status",
			body:   `{"status":"draft"}`,
			setupMock: func(repo *quote.MockRepository) {
				repo.EXPECT().GetQuote(gomock.Any(), tenantID, int64(5)).Return(&quote.Quote{ID: 5, Status: quote.StatusAccepted}, nil)
			},
			wantStatus: http.StatusConflict,
			wantCached: true,
		},
		{
			name:   "ContentEdit",
			method: http.MethodPatch,
			target: "/quotes/5",
			body:   `{"items":[{"description":"A","unit":"m","quantity":"3","unit_price":"100"}]}`,
			setupMock: func(repo *quote.MockRepository) {
				repo.EXPECT().GetQuote(gomock.Any(), tenantID, int64(5)).
					Return(&quote.Quote{ID: 5, Status: quote.StatusDraft, VATRate: dec("0.18")}, nil)
				repo.EXPECT().UpdateContent(gomock.Any(), gomock.Any()).Return(nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:   "ContentEditLocked",
			method: http.MethodPatch,
			target: "/quotes/5",
			body:   `{"terms":"x"}`,
			setupMock: func(repo *quote.MockRepository) {
				repo.EXPECT().GetQuote(gomock.Any(), tenantID, int64(5)).Return(&quote.Quote{ID: 5, Status: quote.StatusAccepted}, nil)
			},
			wantStatus: http.StatusConflict,
			wantCached: true,
		},
		{
			name:   "Delete",
			method: http.MethodDelete,
			target: "/quotes/5",
			setupMock: func(repo *quote.MockRepository) {
				repo.EXPECT().DeleteQuote(gomock.Any(), tenantID, int64(5)).Return(nil)
			},
			wantStatus: http.StatusNoContent,
		},
		{
			name:   "DeleteMissing",
			method: http.MethodDelete,
			target: "/quotes/5",
			setupMock: func(repo *quote.MockRepository) {
				repo.EXPECT().DeleteQuote(gomock.Any(), tenantID, int64(5)).Return(quote.ErrNotFound)
			},
			wantStatus: http.StatusNotFound,
			wantCached: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, pdf.Options{})
			f.store.Put(tenantID, 5, modified, []byte("%PDF-1.3 cached"))
			tt.setupMock(f.repo)

			rec := f.do(tt.method, tt.target, tt.body)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantCached, f.store.IsCached(tenantID, 5, modified))
		})
	}
}

func TestHandler_ContentEditRecomputesTotals(t *testing.T) {
	f := newFixture(t, pdf.Options{})

	f.repo.EXPECT().GetQuote(gomock.Any(), tenantID, int64(5)).
		Return(&quote.Quote{ID: 5, Status: quote.StatusDraft, VATRate: dec("0.18")}, nil)
	f.repo.EXPECT().UpdateContent(gomock.Any(), gomock.Any()).Return(nil)

	rec := f.do(http.MethodPatch, "/quotes/5",
		`{"items":[{"description":"A","quantity":"2","unit_price":"100"},{"description":"B","quantity":"1","unit_price":"50"}]}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Subtotal  decimal.Decimal `json:"subtotal"`
		VATAmount decimal.Decimal `json:"vat_amount"`
		Total     decimal.Decimal `json:"total"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.True(t, dec("250").Equal(body.Subtotal))
	assert.True(t, dec("45").Equal(body.VATAmount))
	assert.True(t, dec("295").Equal(body.Total))
}

func TestHandler_MissingTenant(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := quote.NewMockRepository(ctrl)
	store := cache.New(t.TempDir())
	svc := quote.NewService(repo, store)

	router := chi.NewRouter()
	router.Route("/quotes", quotehttp.NewHandler(svc, pdf.NewService(svc, store, pdf.NewComposer(pdf.Options{}, nil), nil)).Routes)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/quotes/5/pdf", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandler_Create(t *testing.T) {
	f := newFixture(t, pdf.Options{})

	f.repo.EXPECT().CreateQuote(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, q *quote.Quote) error {
			assert.Equal(t, tenantID, q.TenantID)
			assert.Equal(t, quote.StatusDraft, q.Status)
			q.ID = 12

			return nil
		})

	rec := f.do(http.MethodPost, "/quotes", `{
		"client_id": 4,
		"number": "Q-12",
		"issue_date": "2025-03-05T00:00:00Z",
		"vat_rate": "0.18",
		"items": [{"description": "ריצוף", "unit": "מ\"ר", "quantity": "10", "unit_price": "180"}]
	}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var body struct {
		ID    int64           `json:"id"`
		Total decimal.Decimal `json:"total"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, int64(12), body.ID)
	assert.True(t, dec("2124").Equal(body.Total), "got %s", body.Total)
}

func TestHandler_ValidationErrors(t *testing.T) {
	type testCase struct {
		name    string
		method  string
		target  string
		body    string
		wantMsg string
	}

	tests := []testCase{
		{
			name:    "CreateMissingNumber",
			method:  http.MethodPost,
			target:  "/quotes",
			body:    `{"client_id":1,"issue_date":"2025-03-05T00:00:00Z"}`,
			wantMsg: "number is required",
		},
		{
			name:    "CreateBadClient",
			method:  http.MethodPost,
			target:  "/quotes",
			body:    `{"client_id":0,"number":"Q-1","issue_date":"2025-03-05T00:00:00Z"}`,
			wantMsg: "client_id must be greater than 0",
		},
		{
			name:    "CreateNumberTooLong",
			method:  http.MethodPost,
			target:  "/quotes",
			body:    `{"client_id":1,"number":"` + strings.Repeat("x", 51) + `","issue_date":"2025-03-05T00:00:00Z"}`,
			wantMsg: "number must be at most 50 characters",
		},
		{
			name:    "CreateItemWithoutDescription",
			method:  http.MethodPost,
			target:  "/quotes",
			body:    `{"client_id":1,"number":"Q-1","issue_date":"2025-03-05T00:00:00Z","items":[{"quantity":"1","unit_price":"5"}]}`,
			wantMsg: "items[0].description is required",
		},
		{
			name:    "UpdateItemWithoutDescription",
			method:  http.MethodPatch,
			target:  "/quotes/5",
			body:    `{"items":[{"description":""}]}`,
			wantMsg: "items[0].description is required",
		},
		{
			name:    "UnknownStatus",
			method:  http.MethodPatch,
			target:  "/quotes/5/status",
			body:    `{"status":"archived"}`,
			wantMsg: "status must be one of",
		},
		{
			name:    "MissingStatus",
			method:  http.MethodPatch,
			target:  "/quotes/5/status",
			body:    `{}`,
			wantMsg: "status is required",
		},
		{
			name:    "MalformedJSON",
			method:  http.MethodPost,
			target:  "/quotes",
			body:    `{"client_id":`,
			wantMsg: "unexpected EOF",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, pdf.Options{})

			rec := f.do(tt.method, tt.target, tt.body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantMsg)
		})
	}
}
