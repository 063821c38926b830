package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/inonalfa/Q-Builder-kiro-sub001/internal/http/catalog"
	"github.com/inonalfa/Q-Builder-kiro-sub001/internal/http/export"
	"github.com/inonalfa/Q-Builder-kiro-sub001/internal/http/pdfcache"
	"github.com/inonalfa/Q-Builder-kiro-sub001/internal/http/quote"
)

type Options struct {
	AllowedOrigins []string
	// Authenticate guards every /api/v1 route. Nil leaves them open.
	Authenticate func(http.Handler) http.Handler
}

func New(
	opts Options,
	quotesV1 *quote.Handler,
	catalogV1 *catalog.Handler,
	pdfCacheV1 *pdfcache.Handler,
	exportV1 *export.Handler,
) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	router.Route("/api/v1", func(r chi.Router) {
		if opts.Authenticate != nil {
			r.Use(opts.Authenticate)
		}

		r.Route("/quotes", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			quotesV1.Routes(r)
		})

		r.Route("/catalog", catalogV1.Routes)

		r.Route("/pdf-cache", pdfCacheV1.Routes)

		r.Route("/export", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			exportV1.Routes(r)
		})
	})

	return router
}
