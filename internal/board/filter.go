package board

import (
	"cmp"
	"slices"
	"strings"

	"github.com/sadopc/planr/internal/store"
)

// All disables a status, priority, assignee or project filter.
const All = "all"

type SortKey string

const (
	SortCreatedAt SortKey = "createdAt"
	SortDueDate   SortKey = "dueDate"
	SortPriority  SortKey = "priority"
)

type SortOrder string

const (
	Asc  SortOrder = "asc"
	Desc SortOrder = "desc"
)

// FilterState selects and orders a task view. It is never persisted.
//
// Status, Priority and AssignedTo match everything when set to All or left
// empty. Project is stricter: All matches everything while the empty string
// selects tasks that belong to no project.
type FilterState struct {
	Status     string
	Priority   string
	AssignedTo string
	Project    string
	Search     string
	SortBy     SortKey
	SortOrder  SortOrder
}

func DefaultFilters() FilterState {
	return FilterState{
		Status:     All,
		Priority:   All,
		AssignedTo: All,
		Project:    All,
		SortBy:     SortCreatedAt,
		SortOrder:  Desc,
	}
}

// ActiveCount reports how many filters narrow the view. Sorting is not
// counted.
func (f FilterState) ActiveCount() int {
	n := 0
	for _, v := range []string{f.Status, f.Priority, f.AssignedTo, f.Project} {
		if v != All && v != "" {
			n++
		}
	}
	if f.Project == "" {
		n++
	}
	if strings.TrimSpace(f.Search) != "" {
		n++
	}
	return n
}

func unset(v string) bool {
	return v == "" || v == All
}

// FilterTasks returns the tasks matching f in f's order. The input slice is
// never modified.
func FilterTasks(tasks []store.Task, f FilterState) []store.Task {
	search := strings.ToLower(strings.TrimSpace(f.Search))
	out := make([]store.Task, 0, len(tasks))
	for _, t := range tasks {
		if !unset(f.Status) && string(t.Status) != f.Status {
			continue
		}
		if !unset(f.Priority) && string(t.Priority) != f.Priority {
			continue
		}
		if !unset(f.AssignedTo) && !t.IsAssigned(f.AssignedTo) {
			continue
		}
		if f.Project != All && t.ProjectID != f.Project {
			continue
		}
		if search != "" && !matches(t, search) {
			continue
		}
		out = append(out, t.Clone())
	}

	desc := f.SortOrder == Desc
	slices.SortStableFunc(out, func(a, b store.Task) int {
		c := compareBy(f.SortBy, a, b, desc)
		if c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out
}

func matches(t store.Task, needle string) bool {
	if strings.Contains(strings.ToLower(t.Title), needle) ||
		strings.Contains(strings.ToLower(t.Description), needle) {
		return true
	}
	for _, tag := range t.Tags {
		if strings.Contains(strings.ToLower(tag), needle) {
			return true
		}
	}
	return false
}

// compareBy orders a and b by key, reversed when desc. Undated tasks sort
// after dated ones regardless of direction.
func compareBy(key SortKey, a, b store.Task, desc bool) int {
	var c int
	switch key {
	case SortPriority:
		c = cmp.Compare(a.Priority.Rank(), b.Priority.Rank())
	case SortDueDate:
		switch {
		case a.DueDate == nil && b.DueDate == nil:
			return 0
		case a.DueDate == nil:
			return 1
		case b.DueDate == nil:
			return -1
		}
		c = a.DueDate.Compare(*b.DueDate)
	default:
		c = a.CreatedAt.Compare(b.CreatedAt)
	}
	if desc {
		return -c
	}
	return c
}
