package main

import (
	"context"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"

	"github.com/inonalfa/Q-Builder-kiro-sub001/cmd/tui/internal/view"
	"github.com/inonalfa/Q-Builder-kiro-sub001/internal/catalog"
	catalogStore "github.com/inonalfa/Q-Builder-kiro-sub001/internal/catalog/store"
	"github.com/inonalfa/Q-Builder-kiro-sub001/internal/config"
	"github.com/inonalfa/Q-Builder-kiro-sub001/internal/database"
	"github.com/inonalfa/Q-Builder-kiro-sub001/internal/importer"
	"github.com/inonalfa/Q-Builder-kiro-sub001/internal/pdf"
	"github.com/inonalfa/Q-Builder-kiro-sub001/internal/pdf/cache"
	"github.com/inonalfa/Q-Builder-kiro-sub001/internal/quote"
	quoteStore "github.com/inonalfa/Q-Builder-kiro-sub001/internal/quote/store"
)

type model struct {
	quoteService   *quote.Service
	pdfService     *pdf.Service
	catalogService *catalog.Service
	importService  *importer.Service
	pdfCache       *cache.Store
	tenantID       int64

	currentView View

	quotesView view.QuotesModel
	renderView view.RenderModel
	importView view.ImportModel
	cacheView  view.CacheModel
}

type View int

const (
	ViewMenu   View = 0
	ViewQuotes View = 1
	ViewRender View = 2
	ViewImport View = 3
	ViewCache  View = 4
)

func initialModel() model {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	db, err := database.New(context.Background(), cfg.ConnectionString())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	pdfCache := cache.New(cfg.PDF.CacheDir, cache.WithRetention(cfg.PDF.Retention))
	composer := pdf.NewComposer(pdf.Options{
		FontDir:     cfg.PDF.FontDir,
		FontRegular: cfg.PDF.FontRegular,
		FontBold:    cfg.PDF.FontBold,
		Author:      cfg.PDF.Author,
	}, nil)

	quoteSvc := quote.NewService(quoteStore.New(db), pdfCache)
	pdfSvc := pdf.NewService(quoteSvc, pdfCache, composer, nil)
	catalogSvc := catalog.NewService(catalogStore.New(db))
	impSvc := importer.NewService()
	tenantID := cfg.Auth.DevTenantID

	return model{
		quoteService:   quoteSvc,
		pdfService:     pdfSvc,
		catalogService: catalogSvc,
		importService:  impSvc,
		pdfCache:       pdfCache,
		tenantID:       tenantID,
		currentView:    ViewMenu,
		quotesView:     view.NewQuotesModel(quoteSvc, pdfSvc, tenantID),
		renderView:     view.NewRenderModel(pdfSvc, tenantID),
		importView:     view.NewImportModel(catalogSvc, impSvc, tenantID),
		cacheView:      view.NewCacheModel(pdfCache),
	}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.currentView == ViewMenu {
			switch msg.String() {
			case "ctrl+c", "q":
				return m, tea.Quit
			case "1":
				m.currentView = ViewQuotes
				m.quotesView = view.NewQuotesModel(m.quoteService, m.pdfService, m.tenantID)

				return m, m.quotesView.Init()
			case "2":
				m.currentView = ViewRender
				m.renderView = view.NewRenderModel(m.pdfService, m.tenantID)

				return m, m.renderView.Init()
			case "3":
				m.currentView = ViewImport
				m.importView = view.NewImportModel(m.catalogService, m.importService, m.tenantID)

				return m, m.importView.Init()
			case "4":
				m.currentView = ViewCache
				m.cacheView = view.NewCacheModel(m.pdfCache)

				return m, m.cacheView.Init()
			}
		}
	case view.BackMsg:
		m.currentView = ViewMenu
		return m, nil
	}

	switch m.currentView {
	case ViewQuotes:
		var newModel tea.Model
		newModel, cmd = m.quotesView.Update(msg)
		m.quotesView = newModel.(view.QuotesModel)
	case ViewRender:
		var newModel tea.Model
		newModel, cmd = m.renderView.Update(msg)
		m.renderView = newModel.(view.RenderModel)
	case ViewImport:
		var newModel tea.Model
		newModel, cmd = m.importView.Update(msg)
		m.importView = newModel.(view.ImportModel)
	case ViewCache:
		var newModel tea.Model
		newModel, cmd = m.cacheView.Update(msg)
		m.cacheView = newModel.(view.CacheModel)
	}

	return m, cmd
}

func (m model) View() string {
	switch m.currentView {
	case ViewMenu:
		return lipgloss.NewStyle().Padding(2).Render(
			view.Menu("Q-Builder Console", m.quotesView, m.renderView, m.importView, m.cacheView),
		)
	case ViewQuotes:
		return m.quotesView.View()
	case ViewRender:
		return m.renderView.View()
	case ViewImport:
		return m.importView.View()
	case ViewCache:
		return m.cacheView.View()
	}

	return "Unknown View"
}

func main() {
	p := tea.NewProgram(initialModel())
	if _, err := p.Run(); err != nil {
		slog.Error("failed to run TUI", "error", err)
		os.Exit(1)
	}
}
