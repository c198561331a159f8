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

var projectColors = []string{"#6C63FF", "#2EC4B6", "#FF6B6B", "#F39C12", "#2ECC71", "#E74C3C", "#9B59B6", "#3498DB"}

const noRole = "none"

type projectsModel struct {
	board  *board.Board
	width  int
	height int

	projects []store.Project
	cursor   int

	formActive bool
	form       *huh.Form
	formType   string // "project", "edit", "role"
	editID     string

	// Form field pointers (survive value copies)
	formName        *string
	formDescription *string
	formColor       *string
	formAssignees   *[]string
	formDue         *string
	formStatus      *string
	formUser        *string
	formRole        *string
}

func newProjectsModel(b *board.Board) projectsModel {
	name, desc, color, due, status, user, role := "", "", projectColors[0], "", string(store.ProjectActive), "", ""
	var assignees []string
	p := projectsModel{
		board:           b,
		formName:        &name,
		formDescription: &desc,
		formColor:       &color,
		formAssignees:   &assignees,
		formDue:         &due,
		formStatus:      &status,
		formUser:        &user,
		formRole:        &role,
	}
	p.refresh()
	return p
}

func (p *projectsModel) setSize(w, h int) {
	p.width = w
	p.height = h
}

func (p *projectsModel) refresh() {
	p.projects = p.board.Projects.ScopedView(p.board.Users.Current())
	if p.cursor >= len(p.projects) {
		p.cursor = max(0, len(p.projects)-1)
	}
}

func (p projectsModel) selected() (store.Project, bool) {
	if p.cursor < len(p.projects) {
		return p.projects[p.cursor], true
	}
	return store.Project{}, false
}

func (p projectsModel) update(msg tea.Msg) (projectsModel, tea.Cmd) {
	if p.formActive && p.form != nil {
		return p.updateForm(msg)
	}

	switch msg := msg.(type) {
	case boardChangedMsg:
		p.refresh()
		return p, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Up):
			if p.cursor > 0 {
				p.cursor--
			}
		case key.Matches(msg, keys.Down):
			if p.cursor < len(p.projects)-1 {
				p.cursor++
			}
		case key.Matches(msg, keys.Enter):
			if proj, ok := p.selected(); ok {
				return p, func() tea.Msg { return openGanttMsg{projectID: proj.ID} }
			}
		case key.Matches(msg, keys.New):
			return p.showNewProjectForm()
		case key.Matches(msg, keys.Edit):
			if proj, ok := p.selected(); ok {
				return p.showEditProjectForm(proj)
			}
		case key.Matches(msg, keys.Role):
			if _, ok := p.selected(); ok {
				return p.showRoleForm()
			}
		case key.Matches(msg, keys.Delete):
			if proj, ok := p.selected(); ok {
				if err := p.board.Projects.Delete(proj.ID); err != nil {
					return p, statusCmd(fmt.Sprintf("Delete failed: %v", err), true)
				}
				p.refresh()
				return p, tea.Batch(statusCmd(fmt.Sprintf("Deleted %q and its tasks", proj.Name), false), changedCmd)
			}
		}
	}
	return p, nil
}

func (p projectsModel) userOptions() []huh.Option[string] {
	var opts []huh.Option[string]
	for _, u := range p.board.Users.All() {
		opts = append(opts, huh.NewOption(u.Name, u.ID))
	}
	return opts
}

func (p projectsModel) showNewProjectForm() (projectsModel, tea.Cmd) {
	*p.formName = ""
	*p.formDescription = ""
	*p.formColor = projectColors[0]
	*p.formAssignees = nil
	*p.formDue = ""
	p.formType = "project"

	p.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Project Name").Value(p.formName),
			huh.NewText().Title("Description").Value(p.formDescription),
			huh.NewSelect[string]().Title("Color").Options(colorOptions("")...).Value(p.formColor),
			huh.NewMultiSelect[string]().Title("Members").Options(p.userOptions()...).Value(p.formAssignees),
			huh.NewInput().Title("Due (YYYY-MM-DD)").Value(p.formDue).Validate(validDate),
		),
	).WithShowHelp(true).WithShowErrors(true)

	p.formActive = true
	return p, p.form.Init()
}

func colorOptions(current string) []huh.Option[string] {
	var opts []huh.Option[string]
	if current != "" && !slices.Contains(projectColors, current) {
		opts = append(opts, huh.NewOption(fmt.Sprintf("● %s", current), current))
	}
	for _, c := range projectColors {
		opts = append(opts, huh.NewOption(fmt.Sprintf("● %s", c), c))
	}
	return opts
}

func (p projectsModel) showEditProjectForm(proj store.Project) (projectsModel, tea.Cmd) {
	p.editID = proj.ID
	*p.formName = proj.Name
	*p.formDescription = proj.Description
	*p.formColor = proj.Color
	*p.formAssignees = slices.Clone(proj.AssignedTo)
	*p.formStatus = string(proj.Status)
	*p.formDue = ""
	if proj.DueDate != nil {
		*p.formDue = proj.DueDate.UTC().Format(dateLayout)
	}
	p.formType = "edit"

	statuses := []huh.Option[string]{
		huh.NewOption("Active", string(store.ProjectActive)),
		huh.NewOption("Completed", string(store.ProjectCompleted)),
		huh.NewOption("Archived", string(store.ProjectArchived)),
	}

	p.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Project Name").Value(p.formName).Validate(required("name")),
			huh.NewText().Title("Description").Value(p.formDescription),
			huh.NewSelect[string]().Title("Status").Options(statuses...).Value(p.formStatus),
			huh.NewSelect[string]().Title("Color").Options(colorOptions(proj.Color)...).Value(p.formColor),
			huh.NewMultiSelect[string]().Title("Members").Options(p.userOptions()...).Value(p.formAssignees),
			huh.NewInput().Title("Due (YYYY-MM-DD)").Value(p.formDue).Validate(validDate),
		),
	).WithShowHelp(true).WithShowErrors(true)

	p.formActive = true
	return p, p.form.Init()
}

func (p projectsModel) showRoleForm() (projectsModel, tea.Cmd) {
	proj, _ := p.selected()
	users := p.userOptions()
	*p.formUser = ""
	if len(users) > 0 {
		*p.formUser = users[0].Value
	}
	*p.formRole = string(store.ProjectRoleDeveloper)
	p.formType = "role"

	roles := []huh.Option[string]{huh.NewOption("(remove role)", noRole)}
	for _, r := range store.ProjectRoleNames {
		roles = append(roles, huh.NewOption(string(r), string(r)))
	}

	p.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().Title("User").Options(users...).Value(p.formUser),
			huh.NewSelect[string]().Title("Role on " + proj.Name).Options(roles...).Value(p.formRole),
		),
	).WithShowHelp(true)

	p.formActive = true
	return p, p.form.Init()
}

func (p projectsModel) updateForm(msg tea.Msg) (projectsModel, tea.Cmd) {
	// Check for escape to cancel form
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			p.formActive = false
			p.form = nil
			return p, nil
		}
	}

	form, cmd := p.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		p.form = f
	}

	if p.form.State == huh.StateCompleted {
		p.formActive = false
		var out tea.Cmd
		switch p.formType {
		case "project":
			out = p.createProject()
		case "edit":
			out = p.updateProject()
		case "role":
			out = p.assignRole()
		}
		p.refresh()
		return p, out
	}

	return p, cmd
}

func (p projectsModel) createProject() tea.Cmd {
	name := strings.TrimSpace(*p.formName)
	if name == "" {
		return nil
	}
	due, _ := parseDate(*p.formDue)
	proj, err := p.board.Projects.Create(p.board.Users.Current(), board.ProjectDraft{
		Name:        name,
		Description: *p.formDescription,
		Color:       *p.formColor,
		AssignedTo:  *p.formAssignees,
		DueDate:     due,
	})
	if err != nil {
		return statusCmd(fmt.Sprintf("Create failed: %v", err), true)
	}
	return tea.Batch(statusCmd(fmt.Sprintf("Created %q", proj.Name), false), changedCmd)
}

func (p projectsModel) updateProject() tea.Cmd {
	proj, ok := p.board.Projects.Get(p.editID)
	if !ok {
		return statusCmd("Project no longer exists", true)
	}
	due, _ := parseDate(*p.formDue)
	proj.Name = strings.TrimSpace(*p.formName)
	proj.Description = *p.formDescription
	proj.Status = store.ProjectStatus(*p.formStatus)
	proj.Color = *p.formColor
	proj.AssignedTo = *p.formAssignees
	proj.DueDate = due
	if err := p.board.Projects.Update(proj); err != nil {
		return statusCmd(fmt.Sprintf("Update failed: %v", err), true)
	}
	return tea.Batch(statusCmd(fmt.Sprintf("Updated %q", proj.Name), false), changedCmd)
}

func (p projectsModel) assignRole() tea.Cmd {
	proj, ok := p.selected()
	if !ok || *p.formUser == "" {
		return nil
	}
	var err error
	if *p.formRole == noRole {
		err = p.board.Projects.RemoveRole(proj.ID, *p.formUser)
	} else {
		err = p.board.Projects.AssignRole(proj.ID, *p.formUser, store.ProjectRoleName(*p.formRole), p.board.Users.Current().UserID())
	}
	if err != nil {
		return statusCmd(fmt.Sprintf("Role change failed: %v", err), true)
	}
	return changedCmd
}

func (p projectsModel) view() string {
	if p.formActive && p.form != nil {
		title := titleStyle.Render("New Project")
		switch p.formType {
		case "edit":
			title = titleStyle.Render("Edit Project")
		case "role":
			title = titleStyle.Render("Assign Role")
		}
		formView := p.form.View()
		content := lipgloss.JoinVertical(lipgloss.Left, title, "", formView)
		return panelStyle.Width(p.width - 4).Render(content)
	}
	return p.renderProjectList()
}

func (p projectsModel) renderProjectList() string {
	w := p.width - 4
	title := titleStyle.Render("Projects")

	if len(p.projects) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			title,
			"",
			mutedStyle.Render("No projects visible to you. Press n to create one."),
		)
		return panelStyle.Width(w).Render(content)
	}

	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")

	header := mutedStyle.Render(fmt.Sprintf("    %-26s %-10s %7s %7s  %s", "Name", "Status", "Tasks", "Members", "Due"))
	rows = append(rows, header)

	for i, proj := range p.projects {
		cursor := "  "
		style := normalItemStyle
		if i == p.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		tasks := len(p.board.Tasks.ForProject(proj.ID))
		row := style.Render(cursor) + projectDot(proj.Color) + " " + style.Render(fmt.Sprintf("%-26s %-10s %7d %7d  %s",
			truncate(proj.Name, 26), proj.Status, tasks, len(proj.AssignedTo), formatDate(proj.DueDate)))
		rows = append(rows, row)
	}

	if proj, ok := p.selected(); ok {
		rows = append(rows, "", p.renderMembers(proj))
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  n: new  u: edit  a: assign role  d: delete  enter: gantt"))

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (p projectsModel) renderMembers(proj store.Project) string {
	users := p.board.Users.All()
	var rows []string
	if proj.Description != "" {
		rows = append(rows, "  "+subtitleStyle.Render(truncate(proj.Description, max(10, p.width-10))))
	}
	rows = append(rows, "  "+mutedStyle.Render("Owner: ")+userNames(users, []string{proj.CreatedBy}))
	for _, id := range proj.AssignedTo {
		role := mutedStyle.Render("member")
		if r, ok := board.RoleOf(proj, id); ok {
			role = highlightStyle.Render(string(r))
		}
		rows = append(rows, fmt.Sprintf("    %s %s", userNames(users, []string{id}), role))
	}
	return strings.Join(rows, "\n")
}
