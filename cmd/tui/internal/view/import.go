package view

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/filepicker"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/inonalfa/Q-Builder-kiro-sub001/internal/catalog"
	"github.com/inonalfa/Q-Builder-kiro-sub001/internal/importer"
)

const importTimeout = 2 * time.Minute

type importState int

const (
	importStateProfession importState = iota
	importStateFilePick
	importStateImporting
	importStateResult
)

// ImportModel loads a price list CSV into the tenant's catalog.
type ImportModel struct {
	CommonModel
	catalogService *catalog.Service
	importService  *importer.Service
	tenantID       int64

	state      importState
	form       *huh.Form
	filePicker filepicker.Model

	// Shared with the form across model copies.
	profession *string

	status string
	err    error
}

func NewImportModel(catalogSvc *catalog.Service, impSvc *importer.Service, tenantID int64) ImportModel {
	fp := filepicker.New()
	fp.CurrentDirectory, _ = os.Getwd()
	fp.AllowedTypes = []string{".csv", ".txt"}
	fp.ShowHidden = false
	fp.DirAllowed = false
	fp.FileAllowed = true
	fp.SetHeight(15)

	m := ImportModel{
		catalogService: catalogSvc,
		importService:  impSvc,
		tenantID:       tenantID,
		filePicker:     fp,
		profession:     new(""),
	}
	m.form = m.buildForm()

	return m
}

func (m ImportModel) Title() string { return "Import Price List" }

func (m ImportModel) ShortHelp() string {
	return "Esc: back | Enter: select"
}

func (m ImportModel) Init() tea.Cmd {
	return m.form.Init()
}

func (m ImportModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyEsc {
			return m.handleEsc()
		}

	case importResultMsg:
		m.state = importStateResult
		if msg.err != nil {
			m.err = msg.err
			m.status = fmt.Sprintf("Error: %v", msg.err)

			return m, nil
		}

		m.status = fmt.Sprintf("%s: %d created, %d updated, %d unchanged.",
			*m.profession, len(msg.result.Created), len(msg.result.Updated), msg.result.Unchanged)

		return m, nil
	}

	switch m.state {
	case importStateProfession:
		return m.updateForm(msg)
	case importStateFilePick:
		return m.updateFilePick(msg)
	}

	return m, nil
}

func (m ImportModel) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	m.state = importStateFilePick

	return m, m.filePicker.Init()
}

func (m ImportModel) updateFilePick(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	m.filePicker, cmd = m.filePicker.Update(msg)

	if didSelect, path := m.filePicker.DidSelectFile(msg); didSelect {
		m.state = importStateImporting
		m.status = fmt.Sprintf("Importing from %s...", path)

		return m, m.importCmd(path)
	}

	return m, cmd
}

func (m ImportModel) handleEsc() (tea.Model, tea.Cmd) {
	switch m.state {
	case importStateFilePick, importStateResult:
		m.state = importStateProfession
		m.err = nil
		m.status = ""
		m.form = m.buildForm()

		return m, m.form.Init()
	}

	return m, Back
}

func (m ImportModel) buildForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("profession").
				Title("Profession").
				Description("Catalog section the price list belongs to").
				Placeholder("אינסטלציה").
				Value(m.profession).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("profession cannot be empty")
					}

					return nil
				}),
		),
	).WithWidth(50).WithShowHelp(false)
}

func (m ImportModel) View() string {
	switch m.state {
	case importStateProfession:
		return lipgloss.NewStyle().Padding(1).Render(m.form.View())
	case importStateFilePick:
		return lipgloss.NewStyle().Padding(1).Render(
			fmt.Sprintf("Select price list for %s:\n\n%s", activeStyle(*m.profession), m.filePicker.View()),
		)
	case importStateImporting:
		return lipgloss.NewStyle().Padding(2).Render(m.status)
	case importStateResult:
		style := successStyle
		if m.err != nil {
			style = errorStyle
		}

		return lipgloss.NewStyle().Padding(2).Render(style.Render(m.status) + "\n\n(Esc to go back)")
	}

	return ""
}

// Messages

type importResultMsg struct {
	result *catalog.ImportResult
	err    error
}

func (m ImportModel) importCmd(path string) tea.Cmd {
	profession := *m.profession

	return func() tea.Msg {
		f, err := os.Open(path)
		if err != nil {
			return importResultMsg{err: err}
		}
		defer f.Close()

		params, err := m.importService.Import(importer.FormatPriceList, f)
		if err != nil {
			return importResultMsg{err: err}
		}

		ctx, cancel := context.WithTimeout(context.Background(), importTimeout)
		defer cancel()

		result, err := m.catalogService.Import(ctx, m.tenantID, profession, params)
		if err != nil {
			return importResultMsg{err: err}
		}

		return importResultMsg{result: result}
	}
}
