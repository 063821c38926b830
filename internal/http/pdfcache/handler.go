package pdfcache

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-chi/chi/v5"

	"github.com/inonalfa/Q-Builder-kiro-sub001/internal/pdf/cache"
)

type Handler struct {
	store *cache.Store
}

func NewHandler(store *cache.Store) *Handler {
	return &Handler{store: store}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/stats", h.stats)
	r.Post("/sweep", h.sweep)
}

type statsResponse struct {
	FileCount   int       `json:"file_count"`
	TotalBytes  int64     `json:"total_bytes"`
	TotalSize   string    `json:"total_size"`
	OldestMtime time.Time `json:"oldest_mtime,omitzero"`
}

type sweepResponse struct {
	Removed int `json:"removed"`
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	st := h.store.Stats()

	resp := statsResponse{
		FileCount:   st.FileCount,
		TotalBytes:  st.TotalBytes,
		TotalSize:   humanize.IBytes(uint64(st.TotalBytes)),
		OldestMtime: st.OldestMtime,
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) sweep(w http.ResponseWriter, r *http.Request) {
	removed := h.store.SweepExpired()
	slog.Info("pdf cache swept", "removed", removed)

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(sweepResponse{Removed: removed}); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
