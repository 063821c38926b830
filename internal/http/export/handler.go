package export

import (
	"archive/zip"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/inonalfa/Q-Builder-kiro-sub001/internal/export"
	"github.com/inonalfa/Q-Builder-kiro-sub001/internal/http/auth"
	"github.com/inonalfa/Q-Builder-kiro-sub001/internal/quote"
)

type Handler struct {
	svc *export.Service
}

func NewHandler(svc *export.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.metadata)
	r.Post("/download", h.download)
}

type exportRequest struct {
	Status   *quote.Status `json:"status,omitempty"`
	ClientID *int64        `json:"client_id,omitempty"`
}

type quoteResponse struct {
	ID       int64           `json:"id"`
	Number   string          `json:"number"`
	Status   quote.Status    `json:"status"`
	Total    decimal.Decimal `json:"total"`
	Filename string          `json:"filename"`
}

type exportMetadataResponse struct {
	Quotes  []quoteResponse `json:"quotes"`
	Summary string          `json:"summary"`
}

// run decodes the filter and exports into a temporary directory. The caller
// removes the directory. On failure the response has been written.
func (h *Handler) run(w http.ResponseWriter, r *http.Request) (string, []export.Item, bool) {
	tenantID, ok := auth.TenantID(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return "", nil, false
	}

	var req exportRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return "", nil, false
		}
	}

	tmpDir, err := os.MkdirTemp("", "qbuilder-export-*")
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return "", nil, false
	}

	filter := quote.ListFilter{Status: req.Status, ClientID: req.ClientID}

	items, err := h.svc.Export(r.Context(), tenantID, filter, tmpDir)
	if err != nil {
		os.RemoveAll(tmpDir)
		slog.Error("quote export failed", "tenant_id", tenantID, "error", err)
		http.Error(w, "failed to export quotes", http.StatusInternalServerError)

		return "", nil, false
	}

	return tmpDir, items, true
}

func (h *Handler) metadata(w http.ResponseWriter, r *http.Request) {
	tmpDir, items, ok := h.run(w, r)
	if !ok {
		return
	}
	defer os.RemoveAll(tmpDir)

	resp := exportMetadataResponse{
		Quotes:  make([]quoteResponse, 0, len(items)),
		Summary: h.svc.GenerateSummary(items),
	}

	for _, item := range items {
		resp.Quotes = append(resp.Quotes, quoteResponse{
			ID:       item.Quote.ID,
			Number:   item.Quote.Number,
			Status:   item.Quote.Status,
			Total:    item.Quote.Total,
			Filename: filepath.Base(item.FilePath),
		})
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) download(w http.ResponseWriter, r *http.Request) {
	tmpDir, items, ok := h.run(w, r)
	if !ok {
		return
	}
	defer os.RemoveAll(tmpDir)

	summary := h.svc.GenerateSummary(items)
	if err := os.WriteFile(filepath.Join(tmpDir, "summary.txt"), []byte(summary), 0o644); err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=\"quotes_%s.zip\"", time.Now().Format("20060102")))

	zipWriter := zip.NewWriter(w)
	defer zipWriter.Close()

	err := filepath.Walk(tmpDir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return err
		}

		relPath, _ := filepath.Rel(tmpDir, path)

		zf, err := zipWriter.Create(relPath)
		if err != nil {
			return err
		}

		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()

		_, err = io.Copy(zf, f)

		return err
	})
	if err != nil {
		slog.Error("failed to create zip", "error", err)
	}
}
