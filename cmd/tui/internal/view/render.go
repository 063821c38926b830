package view

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/inonalfa/Q-Builder-kiro-sub001/internal/pdf"
	"github.com/inonalfa/Q-Builder-kiro-sub001/internal/quote"
)

const renderTimeout = time.Minute

type renderState int

const (
	renderStateForm renderState = iota
	renderStateRendering
	renderStateResult
)

type renderInput struct {
	tenant  string
	quoteID string
	dir     string
}

type RenderModel struct {
	CommonModel
	pdfService *pdf.Service

	state   renderState
	form    *huh.Form
	spinner spinner.Model

	// Shared with the form across model copies.
	input *renderInput

	err    error
	result renderResultMsg
}

func NewRenderModel(svc *pdf.Service, tenantID int64) RenderModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	m := RenderModel{
		pdfService: svc,
		state:      renderStateForm,
		spinner:    s,
		input:      &renderInput{tenant: strconv.FormatInt(tenantID, 10), dir: "./quotes"},
	}
	m.form = m.buildForm()

	return m
}

func (m RenderModel) Title() string { return "Render Quote PDF" }

func (m RenderModel) ShortHelp() string {
	switch m.state {
	case renderStateResult:
		return "Esc: back to menu | Enter: render another"
	case renderStateRendering:
		return "Rendering..."
	}

	return "Esc: back | Enter: confirm"
}

func (m RenderModel) Init() tea.Cmd {
	return m.form.Init()
}

func (m RenderModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m.state {
	case renderStateForm:
		return m.updateForm(msg)
	case renderStateRendering:
		return m.updateRendering(msg)
	case renderStateResult:
		return m.updateResult(msg)
	}

	return m, nil
}

func (m RenderModel) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		if keyMsg.Type == tea.KeyEsc {
			return m, Back
		}
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	// Validated by the form.
	tenantID, _ := quote.ParseID(m.input.tenant)
	quoteID, _ := quote.ParseID(m.input.quoteID)

	m.state = renderStateRendering
	m.err = nil

	return m, tea.Batch(m.spinner.Tick, renderCmd(m.pdfService, tenantID, quoteID, m.input.dir))
}

func (m RenderModel) updateRendering(msg tea.Msg) (tea.Model, tea.Cmd) {
	if result, ok := msg.(renderResultMsg); ok {
		m.state = renderStateResult
		m.err = result.err
		m.result = result

		return m, nil
	}

	var cmd tea.Cmd
	m.spinner, cmd = m.spinner.Update(msg)

	return m, cmd
}

func (m RenderModel) updateResult(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.Type {
		case tea.KeyEsc:
			return m, Back
		case tea.KeyEnter:
			m.state = renderStateForm
			m.input.quoteID = ""
			m.form = m.buildForm()

			return m, m.form.Init()
		}
	}

	return m, nil
}

func validateID(s string) error {
	if _, err := quote.ParseID(s); err != nil {
		return fmt.Errorf("must be a positive number")
	}

	return nil
}

func (m RenderModel) buildForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("tenant").
				Title("Tenant ID").
				Value(&m.input.tenant).
				Validate(validateID),

			huh.NewInput().
				Key("quote").
				Title("Quote ID").
				Value(&m.input.quoteID).
				Validate(validateID),

			huh.NewInput().
				Key("dir").
				Title("Output Directory").
				Description("Directory will be created if it doesn't exist").
				Placeholder("./quotes").
				Value(&m.input.dir),
		),
	).WithWidth(50).WithShowHelp(false)
}

func (m RenderModel) View() string {
	switch m.state {
	case renderStateForm:
		return lipgloss.NewStyle().Padding(1).Render(m.form.View())

	case renderStateRendering:
		return lipgloss.NewStyle().Padding(1).Render(
			fmt.Sprintf("%s Rendering quote %s...", m.spinner.View(), m.input.quoteID),
		)

	case renderStateResult:
		return m.viewResult()
	}

	return ""
}

func (m RenderModel) viewResult() string {
	if m.err != nil {
		return lipgloss.NewStyle().Padding(1).Render(
			errorStyle.Render(fmt.Sprintf("Error: %v", m.err)) + "\n\n(Esc to go back)",
		)
	}

	source := "rendered"
	if m.result.cacheHit {
		source = "served from cache"
	}

	return lipgloss.NewStyle().Padding(1).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			successStyle.Bold(true).Render("PDF saved"),
			"",
			fmt.Sprintf("File:   %s", m.result.path),
			fmt.Sprintf("Size:   %s", humanize.IBytes(uint64(m.result.size))),
			fmt.Sprintf("Source: %s", source),
		),
	)
}

type renderResultMsg struct {
	path     string
	size     int
	cacheHit bool
	err      error
}

func renderCmd(svc *pdf.Service, tenantID, quoteID int64, dir string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), renderTimeout)
		defer cancel()

		path, res, err := savePDF(ctx, svc, tenantID, quoteID, dir)
		if err != nil {
			return renderResultMsg{err: err}
		}

		return renderResultMsg{path: path, size: len(res.Data), cacheHit: res.CacheHit}
	}
}
