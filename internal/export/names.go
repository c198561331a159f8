package export

import (
	"strconv"
	"strings"
	"time"

	"github.com/sadopc/planr/internal/gantt"
	"github.com/sadopc/planr/internal/store"
)

// names resolves ids in a task view to display names.
type names struct {
	projects map[string]string
	users    map[string]string
}

func newNames(projects []store.Project, users []store.User) names {
	n := names{projects: make(map[string]string), users: make(map[string]string)}
	for _, p := range projects {
		n.projects[p.ID] = p.Name
	}
	for _, u := range users {
		n.users[u.ID] = u.Name
	}
	return n
}

// project returns "" for standalone tasks and "Unknown" for dangling ids.
func (n names) project(id string) string {
	if id == "" {
		return ""
	}
	if name, ok := n.projects[id]; ok {
		return name
	}
	return "Unknown"
}

// assignees falls back to the raw id for users that no longer exist.
func (n names) assignees(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if name, ok := n.users[id]; ok {
			out = append(out, name)
		} else {
			out = append(out, id)
		}
	}
	return out
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Local().Format(time.RFC3339)
}

// spanDays is the number of chart columns a dated task occupies, or 0 when
// either end is missing.
func spanDays(t store.Task) int {
	if t.StartDate == nil || t.EndDate == nil {
		return 0
	}
	return gantt.DaysBetween(*t.StartDate, *t.EndDate) + 1
}

func formatSpan(days int) string {
	if days == 0 {
		return ""
	}
	return strconv.Itoa(days)
}

func joinList(items []string) string {
	return strings.Join(items, "; ")
}
