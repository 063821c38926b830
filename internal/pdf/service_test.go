package pdf_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/inonalfa/Q-Builder-kiro-sub001/internal/pdf"
	"github.com/inonalfa/Q-Builder-kiro-sub001/internal/pdf/cache"
	"github.com/inonalfa/Q-Builder-kiro-sub001/internal/quote"
)

var lastModified = time.Date(2025, 3, 6, 9, 15, 0, 0, time.UTC)

func metadata() quote.Metadata {
	return quote.Metadata{Exists: true, LastModified: lastModified, DisplayNumber: "Q-2025-001"}
}

func TestService_Render_MissPopulatesCache(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	provider := pdf.NewMockProvider(ctrl)
	store := cache.New(t.TempDir())

	provider.EXPECT().Metadata(gomock.Any(), int64(1), int64(7)).Return(metadata(), nil)
	provider.EXPECT().Document(gomock.Any(), int64(1), int64(7)).Return(sampleDocument(), nil)

	svc := pdf.NewService(provider, store, newComposer(), nil)

	got, err := svc.Render(context.Background(), 1, 7)
	require.NoError(t, err)

	assert.False(t, got.CacheHit)
	assert.Equal(t, "quote-Q-2025-001.pdf", got.Filename)
	assert.NotEmpty(t, got.Data)

	cached, ok := store.Get(1, 7, lastModified)
	require.True(t, ok)
	assert.Equal(t, got.Data, cached)
}

func TestService_Render_HitSkipsDocument(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	provider := pdf.NewMockProvider(ctrl)
	store := cache.New(t.TempDir())
	store.Put(1, 7, lastModified, []byte("%PDF-cached"))

	provider.EXPECT().Metadata(gomock.Any(), int64(1), int64(7)).Return(metadata(), nil)
	provider.EXPECT().Document(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	svc := pdf.NewService(provider, store, newComposer(), nil)

	got, err := svc.Render(context.Background(), 1, 7)
	require.NoError(t, err)

	assert.True(t, got.CacheHit)
	assert.Equal(t, []byte("%PDF-cached"), got.Data)
}

func TestService_Render_SecondRequestHits(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	provider := pdf.NewMockProvider(ctrl)

	provider.EXPECT().Metadata(gomock.Any(), int64(1), int64(7)).Return(metadata(), nil).Times(2)
	provider.EXPECT().Document(gomock.Any(), int64(1), int64(7)).Return(sampleDocument(), nil).Times(1)

	svc := pdf.NewService(provider, cache.New(t.TempDir()), newComposer(), nil)

	first, err := svc.Render(context.Background(), 1, 7)
	require.NoError(t, err)

	second, err := svc.Render(context.Background(), 1, 7)
	require.NoError(t, err)

	assert.False(t, first.CacheHit)
	assert.True(t, second.CacheHit)
	assert.Equal(t, first.Data, second.Data)
}

// The entry is keyed by the timestamp read before rendering. An edit that
// lands between the metadata and document reads is not reflected in the key.
func TestService_Render_UsesFirstReadTimestamp(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	provider := pdf.NewMockProvider(ctrl)
	store := pdf.NewMockCache(ctrl)

	gomock.InOrder(
		provider.EXPECT().Metadata(gomock.Any(), int64(1), int64(7)).Return(metadata(), nil),
		store.EXPECT().Get(int64(1), int64(7), lastModified).Return(nil, false),
		provider.EXPECT().Document(gomock.Any(), int64(1), int64(7)).Return(sampleDocument(), nil),
		store.EXPECT().Put(int64(1), int64(7), lastModified, gomock.Any()),
	)

	_, err := pdf.NewService(provider, store, newComposer(), nil).Render(context.Background(), 1, 7)
	require.NoError(t, err)
}

func TestService_Render_Errors(t *testing.T) {
	errDB := errors.New("db down")

	type testCase struct {
		name      string
		composer  *pdf.Composer
		setupMock func(p *pdf.MockProvider)
		check     func(t *testing.T, err error)
	}

	tests := []testCase{
		{
			name: "NotFound",
			setupMock: func(p *pdf.MockProvider) {
				p.EXPECT().Metadata(gomock.Any(), int64(1), int64(7)).Return(quote.Metadata{Exists: false}, nil)
			},
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, pdf.ErrQuoteNotFound)
			},
		},
		{
			name: "DeletedBetweenReads",
			setupMock: func(p *pdf.MockProvider) {
				p.EXPECT().Metadata(gomock.Any(), int64(1), int64(7)).Return(metadata(), nil)
				p.EXPECT().Document(gomock.Any(), int64(1), int64(7)).Return(nil, quote.ErrNotFound)
			},
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, pdf.ErrQuoteNotFound)
			},
		},
		{
			name: "MetadataError",
			setupMock: func(p *pdf.MockProvider) {
				p.EXPECT().Metadata(gomock.Any(), int64(1), int64(7)).Return(quote.Metadata{}, errDB)
			},
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, errDB)
				assert.False(t, pdf.IsBuildError(err))
			},
		},
		{
			name: "FontFailure",
			composer: pdf.NewComposer(pdf.Options{
				FontDir:     "/nonexistent",
				FontRegular: "a.ttf",
				FontBold:    "b.ttf",
			}, nil),
			setupMock: func(p *pdf.MockProvider) {
				p.EXPECT().Metadata(gomock.Any(), int64(1), int64(7)).Return(metadata(), nil)
				p.EXPECT().Document(gomock.Any(), int64(1), int64(7)).Return(sampleDocument(), nil)
			},
			check: func(t *testing.T, err error) {
				assert.True(t, pdf.IsFontError(err))
				assert.True(t, pdf.IsBuildError(err))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			provider := pdf.NewMockProvider(ctrl)
			tt.setupMock(provider)

			composer := tt.composer
			if composer == nil {
				composer = newComposer()
			}

			store := cache.New(t.TempDir())

			got, err := pdf.NewService(provider, store, composer, nil).Render(context.Background(), 1, 7)
			require.Error(t, err)
			assert.Nil(t, got)
			tt.check(t, err)

			assert.Equal(t, 0, store.Stats().FileCount)
		})
	}
}

func TestFilename(t *testing.T) {
	type testCase struct {
		name   string
		number string
		want   string
	}

	tests := []testCase{
		{name: "Plain", number: "Q-2025-001", want: "quote-Q-2025-001.pdf"},
		{name: "SlashesSpacesHebrew", number: "Q/2025 לקוח#1", want: "quote-Q_2025______1.pdf"},
		{name: "OnlyUnsafe", number: "לקוח", want: "quote-7.pdf"},
		{name: "Empty", number: "", want: "quote-7.pdf"},
	}

	safe := `^quote-[A-Za-z0-9_-]+\.pdf$`

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := pdf.Filename(tt.number, 7)

			assert.Equal(t, tt.want, got)
			assert.Regexp(t, safe, got)
		})
	}
}
