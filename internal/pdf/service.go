package pdf

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/inonalfa/Q-Builder-kiro-sub001/internal/quote"
)

//go:generate mockgen -source=service.go -destination=provider_mock.go -package=pdf
type Provider interface {
	// Metadata is the cheap lookup. A missing quote reports Exists false.
	Metadata(ctx context.Context, tenantID, quoteID int64) (quote.Metadata, error)
	// Document loads the full rendering snapshot.
	Document(ctx context.Context, tenantID, quoteID int64) (*quote.Document, error)
}

type Cache interface {
	Get(tenantID, documentID int64, lastModified time.Time) ([]byte, bool)
	Put(tenantID, documentID int64, lastModified time.Time, data []byte)
}

type Result struct {
	Filename string
	Data     []byte
	CacheHit bool
}

// Service serves quote documents through the cache, rendering on a miss.
type Service struct {
	provider Provider
	cache    Cache
	composer *Composer
	logger   *slog.Logger
}

func NewService(provider Provider, cache Cache, composer *Composer, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		provider: provider,
		cache:    cache,
		composer: composer,
		logger:   logger,
	}
}

// Render returns the document for a quote. The cache entry is written under
// the modification time read before rendering, so an edit that lands while
// the document is being built is picked up by the next request, not this one.
func (s *Service) Render(ctx context.Context, tenantID, quoteID int64) (*Result, error) {
	md, err := s.provider.Metadata(ctx, tenantID, quoteID)
	if err != nil {
		return nil, fmt.Errorf("getting quote metadata: %w", err)
	}

	if !md.Exists {
		return nil, ErrQuoteNotFound
	}

	name := Filename(md.DisplayNumber, quoteID)

	if data, ok := s.cache.Get(tenantID, quoteID, md.LastModified); ok {
		return &Result{Filename: name, Data: data, CacheHit: true}, nil
	}

	doc, err := s.provider.Document(ctx, tenantID, quoteID)
	if err != nil {
		if errors.Is(err, quote.ErrNotFound) {
			return nil, ErrQuoteNotFound
		}

		return nil, fmt.Errorf("getting quote document: %w", err)
	}

	data, err := s.composer.Compose(ctx, doc)
	if err != nil {
		s.logger.Error("failed to render quote", "tenant_id", tenantID, "quote_id", quoteID, "error", err)
		return nil, fmt.Errorf("rendering quote %d: %w", quoteID, err)
	}

	s.cache.Put(tenantID, quoteID, md.LastModified, data)

	return &Result{Filename: name, Data: data}, nil
}

// Filename builds the download name from the quote number, keeping only
// ASCII letters, digits, underscore and hyphen. Everything else becomes an
// underscore. A number with nothing usable falls back to the quote id.
func Filename(number string, quoteID int64) string {
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			return r
		default:
			return '_'
		}
	}, number)

	if strings.Trim(safe, "_") == "" {
		safe = fmt.Sprintf("%d", quoteID)
	}

	return "quote-" + safe + ".pdf"
}
