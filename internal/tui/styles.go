package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/liftlog/internal/store"
)

// Color palette
var (
	colorPrimary   = lipgloss.Color("#E0AF68")
	colorSecondary = lipgloss.Color("#2EC4B6")
	colorMuted     = lipgloss.Color("#666666")
	colorSuccess   = lipgloss.Color("#9ECE6A")
	colorWarning   = lipgloss.Color("#F39C12")
	colorError     = lipgloss.Color("#F7768E")
	colorFg        = lipgloss.Color("#C0CAF5")
	colorSubtle    = lipgloss.Color("#414868")
	colorHighlight = lipgloss.Color("#7AA2F7")
)

var (
	activeTabStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary).
			Border(lipgloss.NormalBorder(), false, false, true, false).
			BorderForeground(colorPrimary).
			Padding(0, 2)

	inactiveTabStyle = lipgloss.NewStyle().
				Foreground(colorMuted).
				Padding(0, 2)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorSubtle).
			Padding(1, 2)

	activePanelStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(colorPrimary).
				Padding(1, 2)

	// Rest countdown
	restStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorSecondary)

	restPausedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorWarning)

	restOverStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorSuccess)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorFg)

	bigTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary)

	successStyle = lipgloss.NewStyle().
			Foreground(colorSuccess)

	warningStyle = lipgloss.NewStyle().
			Foreground(colorWarning)

	errorStyle = lipgloss.NewStyle().
			Foreground(colorError)

	mutedStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	highlightStyle = lipgloss.NewStyle().
			Foreground(colorHighlight)

	headerStyle = lipgloss.NewStyle().
			Padding(0, 1)

	footerStyle = lipgloss.NewStyle().
			Foreground(colorMuted).
			Padding(0, 1)

	selectedItemStyle = lipgloss.NewStyle().
				Foreground(colorPrimary).
				Bold(true)

	normalItemStyle = lipgloss.NewStyle().
			Foreground(colorFg)
)

// statusStyle colors a queue row by its status.
func statusStyle(s store.ExerciseStatus) lipgloss.Style {
	switch s {
	case store.StatusCompleted:
		return successStyle
	case store.StatusSkipped:
		return mutedStyle
	}
	return normalItemStyle
}

func statusMark(s store.ExerciseStatus) string {
	switch s {
	case store.StatusCompleted:
		return "✓"
	case store.StatusSkipped:
		return "–"
	}
	return "·"
}
