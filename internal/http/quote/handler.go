package quote

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/inonalfa/Q-Builder-kiro-sub001/internal/http/auth"
	"github.com/inonalfa/Q-Builder-kiro-sub001/internal/pdf"
	"github.com/inonalfa/Q-Builder-kiro-sub001/internal/quote"
)

const (
	CodeQuoteNotFound = "QUOTE_NOT_FOUND"
	CodeFontError     = "PDF_FONT_ERROR"
	CodeGeneration    = "PDF_GENERATION_FAILED"
)

type Handler struct {
	svc    *quote.Service
	pdfSvc *pdf.Service
}

func NewHandler(svc *quote.Service, pdfSvc *pdf.Service) *Handler {
	return &Handler{svc: svc, pdfSvc: pdfSvc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
	r.Get("/{id}/pdf", h.download)
	r.Delete("/{id}", h.delete)
	r.Patch("/{id}/status", h.updateStatus)
	r.Patch("/{id}", h.update)
}

// pathIDs resolves the tenant and the quote id. It writes the error response
// and returns false when either is unusable.
func pathIDs(w http.ResponseWriter, r *http.Request) (int64, int64, bool) {
	tenantID, ok := auth.TenantID(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return 0, 0, false
	}

	id, err := quote.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return 0, 0, false
	}

	return tenantID, id, true
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, quote.ErrNotFound):
		http.Error(w, "quote not found", http.StatusNotFound)
	case errors.Is(err, quote.ErrInvalidStatus):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		slog.Error("quote request failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

type itemRequest struct {
	Description string          `json:"description" validate:"required"`
	Unit        string          `json:"unit"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

func toItemParams(items []itemRequest) []quote.ItemParams {
	if items == nil {
		return nil
	}

	params := make([]quote.ItemParams, len(items))
	for i, it := range items {
		params[i] = quote.ItemParams(it)
	}

	return params
}

type createQuoteRequest struct {
	ClientID   int64           `json:"client_id" validate:"gt=0"`
	Number     string          `json:"number" validate:"required,max=50"`
	IssueDate  time.Time       `json:"issue_date" validate:"required"`
	ExpiryDate time.Time       `json:"expiry_date"`
	VATRate    decimal.Decimal `json:"vat_rate"`
	Terms      *string         `json:"terms,omitempty"`
	Items      []itemRequest   `json:"items" validate:"dive"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := auth.TenantID(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req createQuoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := validateRequest(req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	q, err := h.svc.Create(r.Context(), quote.CreateParams{
		TenantID:   tenantID,
		ClientID:   req.ClientID,
		Number:     req.Number,
		IssueDate:  req.IssueDate,
		ExpiryDate: req.ExpiryDate,
		VATRate:    req.VATRate,
		Terms:      req.Terms,
		Items:      toItemParams(req.Items),
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)

	if err := json.NewEncoder(w).Encode(toResponse(q)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := auth.TenantID(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	filter := quote.ListFilter{}

	if s := r.URL.Query().Get("status"); s != "" {
		filter.Status = new(quote.Status(s))
	}

	if s := r.URL.Query().Get("client_id"); s != "" {
		if id, err := strconv.ParseInt(s, 10, 64); err == nil {
			filter.ClientID = new(id)
		}
	}

	qs, err := h.svc.List(r.Context(), tenantID, filter)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(toResponseList(qs)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	tenantID, id, ok := pathIDs(w, r)
	if !ok {
		return
	}

	q, err := h.svc.Get(r.Context(), tenantID, id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(toResponse(q)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	tenantID, id, ok := pathIDs(w, r)
	if !ok {
		return
	}

	if err := h.svc.Delete(r.Context(), tenantID, id); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type updateQuoteRequest struct {
	ClientID   *int64           `json:"client_id,omitempty"`
	IssueDate  *time.Time       `json:"issue_date,omitempty"`
	ExpiryDate *time.Time       `json:"expiry_date,omitempty"`
	VATRate    *decimal.Decimal `json:"vat_rate,omitempty"`
	Terms      *string          `json:"terms,omitempty"`
	Items      []itemRequest    `json:"items,omitempty" validate:"omitempty,dive"`
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	tenantID, id, ok := pathIDs(w, r)
	if !ok {
		return
	}

	var req updateQuoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := validateRequest(req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	q, err := h.svc.UpdateContent(r.Context(), tenantID, id, quote.UpdateParams{
		ClientID:   req.ClientID,
		IssueDate:  req.IssueDate,
		ExpiryDate: req.ExpiryDate,
		VATRate:    req.VATRate,
		Terms:      req.Terms,
		Items:      toItemParams(req.Items),
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(toResponse(q)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

type updateStatusRequest struct {
	Status quote.Status `json:"status" validate:"required,oneof=draft sent accepted rejected expired"`
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	tenantID, id, ok := pathIDs(w, r)
	if !ok {
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := validateRequest(req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.svc.UpdateStatus(r.Context(), tenantID, id, req.Status); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) download(w http.ResponseWriter, r *http.Request) {
	tenantID, id, ok := pathIDs(w, r)
	if !ok {
		return
	}

	res, err := h.pdfSvc.Render(r.Context(), tenantID, id)
	if err != nil {
		writePDFError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+res.Filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(res.Data)))
	w.Header().Set("Cache-Control", "private, no-cache, no-store, must-revalidate")

	if _, err := w.Write(res.Data); err != nil {
		slog.Error("failed to write pdf", "quote_id", id, "error", err)
	}
}

func writePDFError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	resp := errorResponse{Error: "failed to generate PDF", Code: CodeGeneration}

	switch {
	case errors.Is(err, pdf.ErrQuoteNotFound):
		status = http.StatusNotFound
		resp = errorResponse{Error: "quote not found", Code: CodeQuoteNotFound}
	case pdf.IsFontError(err):
		slog.Error("pdf font load failed", "error", err)
		resp = errorResponse{Error: "failed to load PDF fonts", Code: CodeFontError}
	default:
		slog.Error("pdf request failed", "error", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
