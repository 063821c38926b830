package view

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/inonalfa/Q-Builder-kiro-sub001/internal/pdf/cache"
)

// CacheModel shows the PDF cache directory and lets the operator sweep it.
type CacheModel struct {
	CommonModel
	store *cache.Store

	stats  cache.Stats
	status string
}

func NewCacheModel(store *cache.Store) CacheModel {
	return CacheModel{store: store}
}

func (m CacheModel) Title() string { return "PDF Cache" }

func (m CacheModel) ShortHelp() string {
	return "Esc: back | s: sweep expired | r: refresh"
}

func (m CacheModel) Init() tea.Cmd {
	return m.statsCmd()
}

func (m CacheModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case cacheStatsMsg:
		m.stats = msg.stats
		return m, nil

	case cacheSweptMsg:
		m.status = fmt.Sprintf("Removed %d expired files.", msg.removed)
		return m, m.statsCmd()

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return m, Back
		case "r":
			m.status = ""
			return m, m.statsCmd()
		case "s":
			return m, m.sweepCmd()
		}
	}

	return m, nil
}

func (m CacheModel) View() string {
	oldest := "-"
	if !m.stats.OldestMtime.IsZero() {
		oldest = humanize.Time(m.stats.OldestMtime)
	}

	body := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().Bold(true).Render("PDF Cache"),
		"",
		fmt.Sprintf("Directory: %s", activeStyle(m.store.Dir())),
		fmt.Sprintf("Files:     %s", humanize.Comma(int64(m.stats.FileCount))),
		fmt.Sprintf("Size:      %s", humanize.IBytes(uint64(m.stats.TotalBytes))),
		fmt.Sprintf("Oldest:    %s", oldest),
	)

	if m.status != "" {
		body += "\n\n" + successStyle.Render(m.status)
	}

	return lipgloss.NewStyle().Padding(1).Render(body + "\n\n" + m.ShortHelp())
}

type cacheStatsMsg struct {
	stats cache.Stats
}

type cacheSweptMsg struct {
	removed int
}

func (m CacheModel) statsCmd() tea.Cmd {
	store := m.store

	return func() tea.Msg {
		return cacheStatsMsg{stats: store.Stats()}
	}
}

func (m CacheModel) sweepCmd() tea.Cmd {
	store := m.store

	return func() tea.Msg {
		return cacheSweptMsg{removed: store.SweepExpired()}
	}
}
