package view

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/inonalfa/Q-Builder-kiro-sub001/internal/pdf"
	"github.com/inonalfa/Q-Builder-kiro-sub001/internal/quote"
)

type quotesState int

const (
	quotesStateBrowse quotesState = iota
	quotesStateStatus
)

var statusFilters = []quote.Status{
	"",
	quote.StatusDraft,
	quote.StatusSent,
	quote.StatusAccepted,
	quote.StatusRejected,
	quote.StatusExpired,
}

// QuotesModel lists a tenant's quotes, changes their status and saves PDFs.
type QuotesModel struct {
	CommonModel
	quoteService *quote.Service
	pdfService   *pdf.Service
	tenantID     int64

	state  quotesState
	table  table.Model
	quotes []*quote.Quote
	form   *huh.Form

	statusFilterIdx int
	filter          quote.ListFilter

	loading bool
	err     error
	status  string

	// Form binding, shared across model copies.
	newStatus *quote.Status
}

func NewQuotesModel(quoteSvc *quote.Service, pdfSvc *pdf.Service, tenantID int64) QuotesModel {
	columns := []table.Column{
		{Title: "ID", Width: 6},
		{Title: "Number", Width: 16},
		{Title: "Status", Width: 10},
		{Title: "Issued", Width: 12},
		{Title: "Expires", Width: 12},
		{Title: "Total", Width: 14},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(15),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	return QuotesModel{
		quoteService: quoteSvc,
		pdfService:   pdfSvc,
		tenantID:     tenantID,
		table:        t,
		loading:      true,
		newStatus:    new(quote.StatusDraft),
	}
}

func (m QuotesModel) Title() string { return "Quotes" }

func (m QuotesModel) ShortHelp() string {
	if m.state == quotesStateStatus {
		return "Navigate form | Esc: cancel"
	}

	return "Esc: back | s: status filter | c: change status | p: save PDF | r: refresh"
}

func (m QuotesModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m QuotesModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadQuotesMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}

		m.quotes = msg.quotes
		m.refreshTable()

		return m, nil

	case quoteStatusMsg:
		m.status = "Status updated."
		if msg.err != nil {
			m.status = fmt.Sprintf("Error: %v", msg.err)
		}

		m.state = quotesStateBrowse
		m.form = nil
		m.table.Focus()

		return m, m.loadCmd()

	case renderResultMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("Error: %v", msg.err)
		} else {
			m.status = fmt.Sprintf("Saved %s", msg.path)
		}

		return m, nil

	case tea.WindowSizeMsg:
		m.table.SetHeight(msg.Height - 10)
		return m, nil
	}

	switch m.state {
	case quotesStateBrowse:
		return m.updateBrowse(msg)
	case quotesStateStatus:
		return m.updateStatusForm(msg)
	}

	return m, nil
}

func (m QuotesModel) selected() *quote.Quote {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.quotes) {
		return nil
	}

	return m.quotes[idx]
}

func (m QuotesModel) updateBrowse(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc":
			return m, Back
		case "r":
			m.loading = true
			return m, m.loadCmd()
		case "s":
			m.statusFilterIdx = (m.statusFilterIdx + 1) % len(statusFilters)
			m.applyFilter()

			return m, m.loadCmd()
		case "c":
			return m.enterStatusMode()
		case "p":
			q := m.selected()
			if q == nil {
				return m, nil
			}

			m.status = fmt.Sprintf("Rendering %s...", q.Number)

			return m, m.saveCmd(q.ID)
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m QuotesModel) enterStatusMode() (tea.Model, tea.Cmd) {
	q := m.selected()
	if q == nil {
		return m, nil
	}

	*m.newStatus = q.Status

	options := make([]huh.Option[quote.Status], 0, len(statusFilters)-1)
	for _, st := range statusFilters[1:] {
		options = append(options, huh.NewOption(string(st), st))
	}

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[quote.Status]().
				Key("status").
				Title("Status for " + q.Number).
				Options(options...).
				Value(m.newStatus),
		),
	).WithWidth(45).WithShowHelp(false)

	m.state = quotesStateStatus
	m.table.Blur()

	return m, m.form.Init()
}

func (m QuotesModel) updateStatusForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		if keyMsg.Type == tea.KeyEsc {
			m.state = quotesStateBrowse
			m.form = nil
			m.table.Focus()

			return m, nil
		}
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	return m, m.statusCmd()
}

func (m QuotesModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Loading quotes...")
	}

	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
	}

	label := "All"
	if st := statusFilters[m.statusFilterIdx]; st != "" {
		label = strings.ToUpper(string(st[:1])) + string(st[1:])
	}

	header := fmt.Sprintf("Filter: [s] Status: %s", activeStyle(label))

	tableView := lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		Render(m.table.View())

	content := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().PaddingBottom(1).Render(header),
		tableView,
	)

	if m.state == quotesStateStatus && m.form != nil {
		panel := lipgloss.NewStyle().
			Padding(1, 2).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Width(48).
			Render(m.form.View())

		content = lipgloss.JoinHorizontal(lipgloss.Top, content, panel)
	}

	if m.status != "" {
		content = lipgloss.NewStyle().Faint(true).Render(m.status) + "\n" + content
	}

	return lipgloss.NewStyle().Padding(1).Render(content)
}

func (m *QuotesModel) applyFilter() {
	m.filter.Status = nil
	if st := statusFilters[m.statusFilterIdx]; st != "" {
		m.filter.Status = new(st)
	}
}

func (m *QuotesModel) refreshTable() {
	rows := make([]table.Row, 0, len(m.quotes))
	for _, q := range m.quotes {
		rows = append(rows, table.Row{
			fmt.Sprintf("%d", q.ID),
			q.Number,
			string(q.Status),
			FormatDate(q.IssueDate),
			FormatDate(q.ExpiryDate),
			FormatMoney(q.Total),
		})
	}

	m.table.SetRows(rows)
}

// Messages

type loadQuotesMsg struct {
	quotes []*quote.Quote
	err    error
}

func (m QuotesModel) loadCmd() tea.Cmd {
	svc, tenantID, filter := m.quoteService, m.tenantID, m.filter

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		qs, err := svc.List(ctx, tenantID, filter)

		return loadQuotesMsg{quotes: qs, err: err}
	}
}

type quoteStatusMsg struct {
	err error
}

func (m QuotesModel) statusCmd() tea.Cmd {
	q := m.selected()
	if q == nil {
		return nil
	}

	svc, tenantID, id, status := m.quoteService, m.tenantID, q.ID, *m.newStatus

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		return quoteStatusMsg{err: svc.UpdateStatus(ctx, tenantID, id, status)}
	}
}

func (m QuotesModel) saveCmd(quoteID int64) tea.Cmd {
	return renderCmd(m.pdfService, m.tenantID, quoteID, "./quotes")
}
