package tui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/planr/internal/store"
)

// Color palette
var (
	colorPrimary   = lipgloss.Color("#6C63FF")
	colorSecondary = lipgloss.Color("#2EC4B6")
	colorAccent    = lipgloss.Color("#FF6B6B")
	colorMuted     = lipgloss.Color("#666666")
	colorSuccess   = lipgloss.Color("#2ECC71")
	colorWarning   = lipgloss.Color("#F39C12")
	colorError     = lipgloss.Color("#E74C3C")
	colorFg        = lipgloss.Color("#C0CAF5")
	colorSubtle    = lipgloss.Color("#414868")
	colorHighlight = lipgloss.Color("#7AA2F7")
)

// Styles
var (
	// Tabs
	activeTabStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary).
			Border(lipgloss.NormalBorder(), false, false, true, false).
			BorderForeground(colorPrimary).
			Padding(0, 2)

	inactiveTabStyle = lipgloss.NewStyle().
				Foreground(colorMuted).
				Padding(0, 2)

	// Panels
	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorSubtle).
			Padding(1, 2)

	activePanelStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(colorPrimary).
				Padding(1, 2)

	// Text
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorFg)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	accentStyle = lipgloss.NewStyle().
			Foreground(colorAccent)

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

	// Header/footer
	headerStyle = lipgloss.NewStyle().
			Padding(0, 1)

	footerStyle = lipgloss.NewStyle().
			Foreground(colorMuted).
			Padding(0, 1)

	badgeStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorAccent)

	// List items
	selectedItemStyle = lipgloss.NewStyle().
				Foreground(colorPrimary).
				Bold(true)

	normalItemStyle = lipgloss.NewStyle().
			Foreground(colorFg)

	// Gantt
	todayStyle = lipgloss.NewStyle().
			Foreground(colorAccent).
			Bold(true)
)

func statusColor(s store.TaskStatus) lipgloss.Color {
	switch s {
	case store.StatusCompleted:
		return colorSuccess
	case store.StatusInProgress:
		return colorHighlight
	case store.StatusCancelled:
		return colorError
	}
	return colorMuted
}

func statusIcon(s store.TaskStatus) string {
	icon := "○"
	switch s {
	case store.StatusInProgress:
		icon = "◐"
	case store.StatusCompleted:
		icon = "●"
	case store.StatusCancelled:
		icon = "✕"
	}
	return lipgloss.NewStyle().Foreground(statusColor(s)).Render(icon)
}

func priorityColor(p store.Priority) lipgloss.Color {
	switch p {
	case store.PriorityHigh:
		return colorError
	case store.PriorityMedium:
		return colorWarning
	case store.PriorityLow:
		return colorSuccess
	}
	return colorMuted
}

func priorityLabel(p store.Priority) string {
	return lipgloss.NewStyle().Foreground(priorityColor(p)).Render(string(p))
}

func projectDot(color string) string {
	if color == "" {
		color = string(colorSecondary)
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render("●")
}
