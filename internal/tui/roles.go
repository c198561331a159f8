package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/planr/internal/board"
	"github.com/sadopc/planr/internal/store"
)

// rolesModel lists the named permission bundles. Only admins edit them.
type rolesModel struct {
	board  *board.Board
	width  int
	height int

	roles  []store.RoleDefinition
	cursor int

	formActive bool
	form       *huh.Form
	editID     string

	formName        *string
	formDescription *string
	formColor       *string
	formPermissions *string
}

func newRolesModel(b *board.Board) rolesModel {
	name, desc, color, perms := "", "", projectColors[0], ""
	r := rolesModel{
		board:           b,
		formName:        &name,
		formDescription: &desc,
		formColor:       &color,
		formPermissions: &perms,
	}
	r.refresh()
	return r
}

func (r *rolesModel) setSize(w, h int) {
	r.width = w
	r.height = h
}

func (r *rolesModel) refresh() {
	r.roles = r.board.Roles.All()
	if r.cursor >= len(r.roles) {
		r.cursor = max(0, len(r.roles)-1)
	}
}

func (r rolesModel) selected() (store.RoleDefinition, bool) {
	if r.cursor < len(r.roles) {
		return r.roles[r.cursor], true
	}
	return store.RoleDefinition{}, false
}

func (r rolesModel) update(msg tea.Msg) (rolesModel, tea.Cmd) {
	if r.formActive && r.form != nil {
		return r.updateForm(msg)
	}

	switch msg := msg.(type) {
	case boardChangedMsg:
		r.refresh()

	case tea.KeyMsg:
		admin := r.board.Users.Current().IsAdmin()
		switch {
		case key.Matches(msg, keys.Up):
			if r.cursor > 0 {
				r.cursor--
			}
		case key.Matches(msg, keys.Down):
			if r.cursor < len(r.roles)-1 {
				r.cursor++
			}
		case key.Matches(msg, keys.New):
			if !admin {
				return r, statusCmd("only admins can manage roles", true)
			}
			return r.showForm(store.RoleDefinition{Color: projectColors[0]})
		case key.Matches(msg, keys.Enter):
			if !admin {
				return r, statusCmd("only admins can manage roles", true)
			}
			if role, ok := r.selected(); ok {
				return r.showForm(role)
			}
		case key.Matches(msg, keys.Delete):
			if !admin {
				return r, statusCmd("only admins can manage roles", true)
			}
			if role, ok := r.selected(); ok {
				if err := r.board.Roles.Delete(role.ID); err != nil {
					return r, statusCmd(fmt.Sprintf("Delete failed: %v", err), true)
				}
				r.refresh()
				return r, tea.Batch(statusCmd(fmt.Sprintf("Deleted role %q", role.Name), false), changedCmd)
			}
		}
	}
	return r, nil
}

func (r rolesModel) showForm(role store.RoleDefinition) (rolesModel, tea.Cmd) {
	r.editID = role.ID
	*r.formName = role.Name
	*r.formDescription = role.Description
	*r.formColor = role.Color
	*r.formPermissions = strings.Join(role.Permissions, ", ")

	r.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Name").Value(r.formName).Validate(required("name")),
			huh.NewInput().Title("Description").Value(r.formDescription),
			huh.NewSelect[string]().Title("Color").Options(colorOptions(role.Color)...).Value(r.formColor),
			huh.NewInput().Title("Permissions (comma-separated)").Value(r.formPermissions),
		),
	).WithShowHelp(true).WithShowErrors(true)

	r.formActive = true
	return r, r.form.Init()
}

func (r rolesModel) updateForm(msg tea.Msg) (rolesModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			r.formActive = false
			r.form = nil
			return r, nil
		}
	}

	form, cmd := r.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		r.form = f
	}

	if r.form.State == huh.StateCompleted {
		r.formActive = false
		out := r.save()
		r.refresh()
		return r, out
	}
	return r, cmd
}

func (r rolesModel) save() tea.Cmd {
	name := strings.TrimSpace(*r.formName)
	perms := splitTags(*r.formPermissions)

	if r.editID == "" {
		role, err := r.board.Roles.Create(board.RoleDraft{
			Name:        name,
			Description: *r.formDescription,
			Color:       *r.formColor,
			Permissions: perms,
		})
		if err != nil {
			return statusCmd(fmt.Sprintf("Create failed: %v", err), true)
		}
		return tea.Batch(statusCmd(fmt.Sprintf("Created role %q", role.Name), false), changedCmd)
	}

	role, ok := r.board.Roles.Get(r.editID)
	if !ok {
		return statusCmd("Role no longer exists", true)
	}
	role.Name = name
	role.Description = *r.formDescription
	role.Color = *r.formColor
	role.Permissions = perms
	if err := r.board.Roles.Update(role); err != nil {
		return statusCmd(fmt.Sprintf("Update failed: %v", err), true)
	}
	return tea.Batch(statusCmd(fmt.Sprintf("Updated role %q", role.Name), false), changedCmd)
}

func (r rolesModel) view() string {
	w := r.width - 4

	if r.formActive && r.form != nil {
		title := "New Role"
		if r.editID != "" {
			title = "Edit Role"
		}
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render(title), "", r.form.View()),
		)
	}

	rows := []string{titleStyle.Render("Roles"), ""}
	if len(r.roles) == 0 {
		rows = append(rows, mutedStyle.Render("No roles defined."))
	}
	for i, role := range r.roles {
		cursor := "  "
		style := normalItemStyle
		if i == r.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(cursor)+projectDot(role.Color)+" "+style.Render(truncate(role.Name, 24)))
		if role.Description != "" {
			rows = append(rows, "      "+subtitleStyle.Render(truncate(role.Description, max(10, r.width-14))))
		}
		if len(role.Permissions) > 0 {
			rows = append(rows, "      "+mutedStyle.Render(strings.Join(role.Permissions, ", ")))
		}
	}

	rows = append(rows, "")
	if r.board.Users.Current().IsAdmin() {
		rows = append(rows, mutedStyle.Render("  n: new  enter: edit  d: delete"))
	} else {
		rows = append(rows, mutedStyle.Render("  Only admins can change roles."))
	}
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
