package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sadopc/planr/internal/store"
)

// viewState represents the currently active view.
type viewState int

const (
	viewTasks viewState = iota
	viewProjects
	viewGantt
	viewNotifications
	viewReports
	viewSettings
	viewUsers
	viewRoles
)

var viewNames = []string{"Tasks", "Projects", "Gantt", "Inbox", "Reports", "Settings", "Users", "Roles"}

// --- Messages ---

type statusMsg struct {
	text    string
	isError bool
}

type exportDoneMsg struct {
	path string
}

// openGanttMsg switches to the Gantt view for one project.
type openGanttMsg struct {
	projectID string
}

// loggedInMsg is sent once the login form has established a session.
type loggedInMsg struct{}

// boardChangedMsg asks every view to reread the board.
type boardChangedMsg struct{}

// --- Helpers ---

const dateLayout = "2006-01-02"

// formatDate renders a calendar date. Calendar dates are stored at UTC
// midnight, so they are shown in UTC.
func formatDate(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.UTC().Format("Jan 02")
}

// parseDate reads an optional YYYY-MM-DD date as UTC midnight. Every day is
// then exactly 24h long, matching the Gantt day grid.
func parseDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(dateLayout, s, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("use %s", dateLayout)
	}
	return &t, nil
}

func validDate(s string) error {
	_, err := parseDate(s)
	return err
}

func splitTags(s string) []string {
	var tags []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}

func userNames(users []store.User, ids []string) string {
	var names []string
	for _, id := range ids {
		name := id
		for _, u := range users {
			if u.ID == id {
				name = u.Name
				break
			}
		}
		names = append(names, name)
	}
	return strings.Join(names, ", ")
}

func statusCmd(text string, isErr bool) tea.Cmd {
	return func() tea.Msg { return statusMsg{text: text, isError: isErr} }
}

func changedCmd() tea.Msg {
	return boardChangedMsg{}
}
