package catalog

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/inonalfa/Q-Builder-kiro-sub001/internal/catalog"
	"github.com/inonalfa/Q-Builder-kiro-sub001/internal/http/auth"
	"github.com/inonalfa/Q-Builder-kiro-sub001/internal/importer"
	"github.com/inonalfa/Q-Builder-kiro-sub001/internal/quote"
)

type Handler struct {
	importSvc  *importer.Service
	catalogSvc *catalog.Service
}

func NewHandler(importSvc *importer.Service, catalogSvc *catalog.Service) *Handler {
	return &Handler{
		importSvc:  importSvc,
		catalogSvc: catalogSvc,
	}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/import", h.importPriceList)
	r.Delete("/{id}", h.delete)
}

type itemResponse struct {
	ID          int64           `json:"id"`
	Profession  string          `json:"profession"`
	Description string          `json:"description"`
	Unit        string          `json:"unit"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	CreatedAt   time.Time       `json:"created_at,omitzero"`
}

type importResponse struct {
	Created   int            `json:"created"`
	Updated   int            `json:"updated"`
	Unchanged int            `json:"unchanged"`
	Items     []itemResponse `json:"items"`
}

func (h *Handler) importPriceList(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := auth.TenantID(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	if err := r.ParseMultipartForm(10 << 20); err != nil {
		http.Error(w, "failed to parse form: "+err.Error(), http.StatusBadRequest)
		return
	}

	profession := r.FormValue("profession")
	if profession == "" {
		http.Error(w, "profession field is required", http.StatusBadRequest)
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "file field is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	params, err := h.importSvc.Import(importer.Format(r.FormValue("format")), file)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := h.catalogSvc.Import(r.Context(), tenantID, profession, params)
	if err != nil {
		if errors.Is(err, catalog.ErrInvalidProfession) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		slog.Error("catalog import failed", "tenant_id", tenantID, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)

		return
	}

	resp := importResponse{
		Created:   len(result.Created),
		Updated:   len(result.Updated),
		Unchanged: result.Unchanged,
		Items:     make([]itemResponse, 0, len(result.Created)+len(result.Updated)),
	}

	for _, it := range result.Created {
		resp.Items = append(resp.Items, toItemResponse(it))
	}

	for _, it := range result.Updated {
		resp.Items = append(resp.Items, toItemResponse(it))
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := auth.TenantID(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	filter := catalog.ListFilter{}

	if s := r.URL.Query().Get("profession"); s != "" {
		filter.Profession = new(s)
	}

	items, err := h.catalogSvc.List(r.Context(), tenantID, filter)
	if err != nil {
		slog.Error("catalog list failed", "tenant_id", tenantID, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)

		return
	}

	resp := make([]itemResponse, len(items))
	for i, it := range items {
		resp[i] = toItemResponse(it)
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := auth.TenantID(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	id, err := quote.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	if err := h.catalogSvc.Delete(r.Context(), tenantID, id); err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			http.Error(w, "catalog item not found", http.StatusNotFound)
			return
		}

		http.Error(w, "internal error", http.StatusInternalServerError)

		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func toItemResponse(it *catalog.Item) itemResponse {
	return itemResponse{
		ID:          it.ID,
		Profession:  it.Profession,
		Description: it.Description,
		Unit:        it.Unit,
		UnitPrice:   it.UnitPrice,
		CreatedAt:   it.CreatedAt,
	}
}
