package view

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// Screen is a console page reachable from the main menu. Title labels its
// menu entry and ShortHelp lists the page's keys.
type Screen interface {
	tea.Model
	Title() string
	ShortHelp() string
}

// Menu lists the screens numbered from 1, in order, under heading.
func Menu(heading string, screens ...Screen) string {
	var sb strings.Builder

	sb.WriteString(heading + "\n\n")

	for i, s := range screens {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, s.Title())
	}

	sb.WriteString("\nq. Quit")

	return sb.String()
}
