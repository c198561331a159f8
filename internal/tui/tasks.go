package tui

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/planr/internal/board"
	"github.com/sadopc/planr/internal/store"
)

// taskFields backs the task, comment, status and filter forms.
type taskFields struct {
	title       string
	description string
	priority    string
	project     string
	assignees   []string
	tags        string
	start       string
	end         string
	due         string
	comment     string
	status      string

	filterStatus   string
	filterPriority string
	filterAssignee string
	filterProject  string
	filterSearch   string
	filterSort     string
	filterOrder    string
}

type tasksModel struct {
	board  *board.Board
	kv     *store.Store
	width  int
	height int

	filters board.FilterState
	tasks   []store.Task
	cursor  int
	detail  bool

	formActive bool
	form       *huh.Form
	formType   string // "task", "comment", "status", "filter"
	fields     *taskFields
}

func newTasksModel(b *board.Board, kv *store.Store) tasksModel {
	m := tasksModel{
		board:   b,
		kv:      kv,
		filters: defaultFilters(kv),
		fields:  &taskFields{},
	}
	m.refresh()
	return m
}

// defaultFilters applies the stored default sort to board.DefaultFilters.
func defaultFilters(kv *store.Store) board.FilterState {
	f := board.DefaultFilters()
	if v, err := kv.GetSetting("default_sort"); err == nil {
		switch k := board.SortKey(v); k {
		case board.SortCreatedAt, board.SortDueDate, board.SortPriority:
			f.SortBy = k
		}
	}
	if v, err := kv.GetSetting("default_order"); err == nil {
		switch o := board.SortOrder(v); o {
		case board.Asc, board.Desc:
			f.SortOrder = o
		}
	}
	return f
}

func (m *tasksModel) setSize(w, h int) {
	m.width = w
	m.height = h
}

// refresh recomputes the filtered view from the board.
func (m *tasksModel) refresh() {
	m.tasks = m.board.Tasks.FilteredView(m.filters)
	if m.cursor >= len(m.tasks) {
		m.cursor = max(0, len(m.tasks)-1)
	}
	if len(m.tasks) == 0 {
		m.detail = false
	}
}

func (m tasksModel) selected() (store.Task, bool) {
	if m.cursor < len(m.tasks) {
		return m.tasks[m.cursor], true
	}
	return store.Task{}, false
}

func (m tasksModel) update(msg tea.Msg) (tasksModel, tea.Cmd) {
	if m.formActive && m.form != nil {
		return m.updateForm(msg)
	}

	switch msg := msg.(type) {
	case boardChangedMsg:
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		if m.detail {
			return m.updateDetail(msg)
		}
		return m.updateList(msg)
	}
	return m, nil
}

func (m tasksModel) updateList(msg tea.KeyMsg) (tasksModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, keys.Down):
		if m.cursor < len(m.tasks)-1 {
			m.cursor++
		}
	case key.Matches(msg, keys.Enter):
		if len(m.tasks) > 0 {
			m.detail = true
		}
	case key.Matches(msg, keys.New):
		return m.showTaskForm()
	case key.Matches(msg, keys.Filter):
		return m.showFilterForm()
	case key.Matches(msg, keys.Status):
		return m.showStatusForm()
	case key.Matches(msg, keys.Delete):
		return m.deleteSelected()
	case key.Matches(msg, keys.Back):
		if m.filters.ActiveCount() > 0 {
			m.filters = defaultFilters(m.kv)
			m.refresh()
			return m, statusCmd("Filters cleared", false)
		}
	}
	return m, nil
}

func (m tasksModel) updateDetail(msg tea.KeyMsg) (tasksModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Back):
		m.detail = false
	case key.Matches(msg, keys.Comment):
		return m.showCommentForm()
	case key.Matches(msg, keys.Status):
		return m.showStatusForm()
	case key.Matches(msg, keys.Delete):
		m.detail = false
		return m.deleteSelected()
	}
	return m, nil
}

func (m tasksModel) deleteSelected() (tasksModel, tea.Cmd) {
	t, ok := m.selected()
	if !ok {
		return m, nil
	}
	if err := m.board.Tasks.Delete(t.ID); err != nil {
		return m, statusCmd(fmt.Sprintf("Delete failed: %v", err), true)
	}
	m.refresh()
	return m, tea.Batch(statusCmd(fmt.Sprintf("Deleted %q", t.Title), false), changedCmd)
}

// --- Forms ---

func (m tasksModel) projectOptions(extra ...huh.Option[string]) []huh.Option[string] {
	opts := slices.Clone(extra)
	for _, p := range m.board.Projects.ScopedView(m.board.Users.Current()) {
		opts = append(opts, huh.NewOption(p.Name, p.ID))
	}
	return opts
}

func (m tasksModel) userOptions() []huh.Option[string] {
	var opts []huh.Option[string]
	for _, u := range m.board.Users.All() {
		opts = append(opts, huh.NewOption(u.Name, u.ID))
	}
	return opts
}

func (m tasksModel) showTaskForm() (tasksModel, tea.Cmd) {
	*m.fields = taskFields{priority: string(store.PriorityMedium)}
	if a := m.filters.AssignedTo; a != "" && a != board.All {
		m.fields.assignees = []string{a}
	}
	m.formType = "task"

	priorities := make([]huh.Option[string], len(store.Priorities))
	for i, p := range store.Priorities {
		priorities[i] = huh.NewOption(string(p), string(p))
	}

	f := m.fields
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Title").Value(&f.title).Validate(func(s string) error {
				if strings.TrimSpace(s) == "" {
					return fmt.Errorf("title is required")
				}
				return nil
			}),
			huh.NewText().Title("Description").Value(&f.description),
			huh.NewSelect[string]().Title("Priority").Options(priorities...).Value(&f.priority),
			huh.NewSelect[string]().Title("Project").
				Options(m.projectOptions(huh.NewOption("(none)", ""))...).
				Value(&f.project),
		),
		huh.NewGroup(
			huh.NewMultiSelect[string]().Title("Assignees").Options(m.userOptions()...).Value(&f.assignees),
			huh.NewInput().Title("Tags (comma-separated)").Value(&f.tags),
			huh.NewInput().Title("Start (YYYY-MM-DD)").Value(&f.start).Validate(validDate),
			huh.NewInput().Title("End (YYYY-MM-DD)").Value(&f.end).Validate(validDate),
			huh.NewInput().Title("Due (YYYY-MM-DD)").Value(&f.due).Validate(validDate),
		),
	).WithShowHelp(true).WithShowErrors(true)

	m.formActive = true
	return m, m.form.Init()
}

func (m tasksModel) showCommentForm() (tasksModel, tea.Cmd) {
	m.fields.comment = ""
	m.formType = "comment"
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewText().Title("Comment").Value(&m.fields.comment),
		),
	).WithShowHelp(true).WithShowErrors(true)
	m.formActive = true
	return m, m.form.Init()
}

func (m tasksModel) showStatusForm() (tasksModel, tea.Cmd) {
	t, ok := m.selected()
	if !ok {
		return m, nil
	}
	m.fields.status = string(t.Status)
	m.formType = "status"

	opts := make([]huh.Option[string], len(store.TaskStatuses))
	for i, s := range store.TaskStatuses {
		opts[i] = huh.NewOption(string(s), string(s))
	}
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().Title("Status of " + t.Title).Options(opts...).Value(&m.fields.status),
		),
	).WithShowHelp(true)
	m.formActive = true
	return m, m.form.Init()
}

func (m tasksModel) showFilterForm() (tasksModel, tea.Cmd) {
	f := m.fields
	f.filterStatus = orAll(m.filters.Status)
	f.filterPriority = orAll(m.filters.Priority)
	f.filterAssignee = orAll(m.filters.AssignedTo)
	f.filterProject = m.filters.Project
	f.filterSearch = m.filters.Search
	f.filterSort = string(m.filters.SortBy)
	f.filterOrder = string(m.filters.SortOrder)
	m.formType = "filter"

	statuses := []huh.Option[string]{huh.NewOption("All", board.All)}
	for _, s := range store.TaskStatuses {
		statuses = append(statuses, huh.NewOption(string(s), string(s)))
	}
	priorities := []huh.Option[string]{huh.NewOption("All", board.All)}
	for _, p := range store.Priorities {
		priorities = append(priorities, huh.NewOption(string(p), string(p)))
	}
	assignees := append([]huh.Option[string]{huh.NewOption("Anyone", board.All)}, m.userOptions()...)

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Search").Value(&f.filterSearch),
			huh.NewSelect[string]().Title("Status").Options(statuses...).Value(&f.filterStatus),
			huh.NewSelect[string]().Title("Priority").Options(priorities...).Value(&f.filterPriority),
			huh.NewSelect[string]().Title("Assignee").Options(assignees...).Value(&f.filterAssignee),
			huh.NewSelect[string]().Title("Project").
				Options(m.projectOptions(huh.NewOption("All", board.All), huh.NewOption("No project", ""))...).
				Value(&f.filterProject),
		).Title("Filter"),
		huh.NewGroup(
			huh.NewSelect[string]().Title("Sort by").Options(
				huh.NewOption("Created", string(board.SortCreatedAt)),
				huh.NewOption("Due date", string(board.SortDueDate)),
				huh.NewOption("Priority", string(board.SortPriority)),
			).Value(&f.filterSort),
			huh.NewSelect[string]().Title("Order").Options(
				huh.NewOption("Descending", string(board.Desc)),
				huh.NewOption("Ascending", string(board.Asc)),
			).Value(&f.filterOrder),
		).Title("Sort"),
	).WithShowHelp(true).WithShowErrors(true)

	m.formActive = true
	return m, m.form.Init()
}

func orAll(v string) string {
	if v == "" {
		return board.All
	}
	return v
}

func (m tasksModel) updateForm(msg tea.Msg) (tasksModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			m.formActive = false
			m.form = nil
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

	m.formActive = false
	var out tea.Cmd
	switch m.formType {
	case "task":
		out = m.createTask()
	case "comment":
		out = m.addComment()
	case "status":
		out = m.setStatus()
	case "filter":
		f := m.fields
		m.filters = board.FilterState{
			Status:     f.filterStatus,
			Priority:   f.filterPriority,
			AssignedTo: f.filterAssignee,
			Project:    f.filterProject,
			Search:     strings.TrimSpace(f.filterSearch),
			SortBy:     board.SortKey(f.filterSort),
			SortOrder:  board.SortOrder(f.filterOrder),
		}
		m.cursor = 0
	}
	m.refresh()
	return m, out
}

func (m tasksModel) createTask() tea.Cmd {
	f := m.fields
	// Dates were validated by the form.
	start, _ := parseDate(f.start)
	end, _ := parseDate(f.end)
	due, _ := parseDate(f.due)

	t, err := m.board.Tasks.Create(m.board.Users.Current(), board.TaskDraft{
		Title:       strings.TrimSpace(f.title),
		Description: f.description,
		Priority:    store.Priority(f.priority),
		AssignedTo:  f.assignees,
		Tags:        splitTags(f.tags),
		ProjectID:   f.project,
		StartDate:   start,
		EndDate:     end,
		DueDate:     due,
	})
	if err != nil {
		return statusCmd(fmt.Sprintf("Create failed: %v", err), true)
	}
	return tea.Batch(statusCmd(fmt.Sprintf("Created %q", t.Title), false), changedCmd)
}

func (m tasksModel) addComment() tea.Cmd {
	t, ok := m.selected()
	body := strings.TrimSpace(m.fields.comment)
	if !ok || body == "" {
		return nil
	}
	if _, err := m.board.Tasks.AddComment(t.ID, m.board.Users.Current().UserID(), body); err != nil {
		return statusCmd(fmt.Sprintf("Comment failed: %v", err), true)
	}
	return changedCmd
}

func (m tasksModel) setStatus() tea.Cmd {
	t, ok := m.selected()
	if !ok {
		return nil
	}
	status := store.TaskStatus(m.fields.status)
	if err := m.board.Tasks.SetStatus(m.board.Users.Current(), t.ID, status); err != nil {
		return statusCmd(fmt.Sprintf("Update failed: %v", err), true)
	}
	return tea.Batch(statusCmd(fmt.Sprintf("%q is now %s", t.Title, status), false), changedCmd)
}

// --- Rendering ---

func (m tasksModel) view() string {
	w := m.width - 4
	if m.formActive && m.form != nil {
		titles := map[string]string{
			"task": "New Task", "comment": "Add Comment", "status": "Change Status", "filter": "Filter Tasks",
		}
		content := lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render(titles[m.formType]), "", m.form.View())
		return panelStyle.Width(w).Render(content)
	}
	if m.detail {
		return m.renderDetail()
	}
	return m.renderList()
}

func (m tasksModel) projectName(id string) string {
	if id == "" {
		return ""
	}
	if p, ok := m.board.Projects.Get(id); ok {
		return p.Name
	}
	return "?"
}

func (m tasksModel) renderList() string {
	w := m.width - 4
	title := titleStyle.Render(fmt.Sprintf("Tasks (%d)", len(m.tasks)))
	if n := m.filters.ActiveCount(); n > 0 {
		title += "  " + badgeStyle.Render(fmt.Sprintf("%d filter(s)", n))
	}
	sort := mutedStyle.Render(fmt.Sprintf("sorted by %s %s", m.filters.SortBy, m.filters.SortOrder))

	if len(m.tasks) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			title+"  "+sort,
			"",
			mutedStyle.Render("No tasks match. Press n to create one or f to change filters."),
		)
		return panelStyle.Width(w).Render(content)
	}

	var rows []string
	rows = append(rows, title+"  "+sort, "")
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("    %-32s %-8s %-18s %-7s", "Title", "Priority", "Project", "Due")))

	visible := max(1, m.height-10)
	first := 0
	if m.cursor >= visible {
		first = m.cursor - visible + 1
	}
	for i := first; i < len(m.tasks) && i < first+visible; i++ {
		t := m.tasks[i]
		cursor := "  "
		style := normalItemStyle
		if i == m.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		row := fmt.Sprintf("%s%s %s %s %s %s",
			style.Render(cursor),
			statusIcon(t.Status),
			style.Render(fmt.Sprintf("%-32s", truncate(t.Title, 32))),
			lipgloss.NewStyle().Width(8).Render(priorityLabel(t.Priority)),
			mutedStyle.Render(fmt.Sprintf("%-18s", truncate(m.projectName(t.ProjectID), 18))),
			mutedStyle.Render(formatDate(t.DueDate)),
		)
		rows = append(rows, row)
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  n: new  enter: details  s: status  d: delete  f: filter  esc: clear filters"))
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (m tasksModel) renderDetail() string {
	w := m.width - 4
	t, ok := m.selected()
	if !ok {
		return panelStyle.Width(w).Render(mutedStyle.Render("Task not found"))
	}
	users := m.board.Users.All()

	rows := []string{
		statusIcon(t.Status) + " " + titleStyle.Render(t.Title),
		"",
	}
	if t.Description != "" {
		rows = append(rows, t.Description, "")
	}
	meta := []struct{ label, value string }{
		{"Status", string(t.Status)},
		{"Priority", priorityLabel(t.Priority)},
		{"Project", m.projectName(t.ProjectID)},
		{"Assignees", userNames(users, t.AssignedTo)},
		{"Tags", strings.Join(t.Tags, ", ")},
		{"Start", formatDate(t.StartDate)},
		{"End", formatDate(t.EndDate)},
		{"Due", formatDate(t.DueDate)},
		{"Created by", userNames(users, []string{t.CreatedBy})},
	}
	for _, f := range meta {
		rows = append(rows, fmt.Sprintf("  %s %s", mutedStyle.Width(12).Render(f.label), f.value))
	}

	rows = append(rows, "", subtitleStyle.Render("Comments"))
	comments := m.board.Tasks.CommentsFor(t.ID)
	if len(comments) == 0 {
		rows = append(rows, mutedStyle.Render("  No comments yet."))
	}
	for _, c := range comments {
		author := highlightStyle.Render(userNames(users, []string{c.UserID}))
		when := mutedStyle.Render(c.CreatedAt.Local().Format("Jan 02 15:04"))
		rows = append(rows, fmt.Sprintf("  %s %s", author, when), "    "+c.Content)
	}

	rows = append(rows, "", mutedStyle.Render("  c: comment  s: status  d: delete  esc: back"))
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
