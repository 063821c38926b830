package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/inonalfa/Q-Builder-kiro-sub001/internal/catalog"
	catalogStore "github.com/inonalfa/Q-Builder-kiro-sub001/internal/catalog/store"
	"github.com/inonalfa/Q-Builder-kiro-sub001/internal/config"
	"github.com/inonalfa/Q-Builder-kiro-sub001/internal/database"
	"github.com/inonalfa/Q-Builder-kiro-sub001/internal/export"
	qbHttp "github.com/inonalfa/Q-Builder-kiro-sub001/internal/http"
	"github.com/inonalfa/Q-Builder-kiro-sub001/internal/http/auth"
	catalogHandler "github.com/inonalfa/Q-Builder-kiro-sub001/internal/http/catalog"
	exportHandler "github.com/inonalfa/Q-Builder-kiro-sub001/internal/http/export"
	pdfCacheHandler "github.com/inonalfa/Q-Builder-kiro-sub001/internal/http/pdfcache"
	quoteHandler "github.com/inonalfa/Q-Builder-kiro-sub001/internal/http/quote"
	"github.com/inonalfa/Q-Builder-kiro-sub001/internal/importer"
	"github.com/inonalfa/Q-Builder-kiro-sub001/internal/pdf"
	"github.com/inonalfa/Q-Builder-kiro-sub001/internal/pdf/cache"
	"github.com/inonalfa/Q-Builder-kiro-sub001/internal/quote"
	quoteStore "github.com/inonalfa/Q-Builder-kiro-sub001/internal/quote/store"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.New(ctx, cfg.ConnectionString())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := database.Migrate(ctx, db); err != nil {
		slog.Error("failed to migrate database", "error", err)
		os.Exit(1)
	}

	logger := slog.Default()

	pdfCache := cache.New(cfg.PDF.CacheDir, cache.WithRetention(cfg.PDF.Retention), cache.WithLogger(logger))
	sweeper := cache.NewSweeper(pdfCache, cfg.PDF.SweepInterval)
	sweeper.Start()
	defer sweeper.Stop()

	composer := pdf.NewComposer(pdf.Options{
		FontDir:     cfg.PDF.FontDir,
		FontRegular: cfg.PDF.FontRegular,
		FontBold:    cfg.PDF.FontBold,
		Author:      cfg.PDF.Author,
	}, logger)

	if cfg.PDF.FontDir == "" {
		slog.Warn("PDF_FONT_DIR not set, rendering with core fonts")
	}

	var (
		quoteService   = quote.NewService(quoteStore.New(db), pdfCache)
		pdfService     = pdf.NewService(quoteService, pdfCache, composer, logger)
		catalogService = catalog.NewService(catalogStore.New(db))
		importService  = importer.NewService()
		exportService  = export.NewService(quoteService, pdfService)
	)

	var (
		quoteH    = quoteHandler.NewHandler(quoteService, pdfService)
		catalogH  = catalogHandler.NewHandler(importService, catalogService)
		pdfCacheH = pdfCacheHandler.NewHandler(pdfCache)
		exportH   = exportHandler.NewHandler(exportService)
	)

	opts := qbHttp.Options{AllowedOrigins: cfg.CORS.AllowedOrigins}
	if cfg.Auth.JWTSecret != "" {
		opts.Authenticate = auth.NewVerifier(cfg.Auth.JWTSecret, cfg.Auth.Issuer).Middleware
	} else {
		opts.Authenticate = auth.Static(cfg.Auth.DevTenantID)
		slog.Warn("JWT_SECRET not set, serving every request as one tenant", "tenant_id", cfg.Auth.DevTenantID)
	}

	router := qbHttp.New(opts, quoteH, catalogH, pdfCacheH, exportH)

	port := fmt.Sprintf(":%d", cfg.App.Port)
	server := &http.Server{
		Addr:              port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown failed", "error", err)
		}
	}()

	slog.Info("starting server", "port", port)

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
