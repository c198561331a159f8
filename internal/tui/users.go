package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/planr/internal/board"
	"github.com/sadopc/planr/internal/store"
)

var errAdminOnly = errors.New("only admins can manage users")

type usersModel struct {
	board  *board.Board
	width  int
	height int

	users  []store.User
	cursor int

	formActive bool
	form       *huh.Form
	editID     string // empty when registering

	// Form field pointers (survive value copies)
	formName  *string
	formEmail *string
	formRole  *string
}

func newUsersModel(b *board.Board) usersModel {
	name, email, role := "", "", string(store.RoleUser)
	u := usersModel{
		board:     b,
		formName:  &name,
		formEmail: &email,
		formRole:  &role,
	}
	u.refresh()
	return u
}

func (u *usersModel) setSize(w, h int) {
	u.width = w
	u.height = h
}

func (u *usersModel) refresh() {
	u.users = u.board.Users.All()
	if u.cursor >= len(u.users) {
		u.cursor = max(0, len(u.users)-1)
	}
}

func (u usersModel) selected() (store.User, bool) {
	if u.cursor < len(u.users) {
		return u.users[u.cursor], true
	}
	return store.User{}, false
}

func (u usersModel) update(msg tea.Msg) (usersModel, tea.Cmd) {
	if u.formActive && u.form != nil {
		return u.updateForm(msg)
	}

	switch msg := msg.(type) {
	case boardChangedMsg:
		u.refresh()

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Up):
			if u.cursor > 0 {
				u.cursor--
			}
		case key.Matches(msg, keys.Down):
			if u.cursor < len(u.users)-1 {
				u.cursor++
			}
		case key.Matches(msg, keys.New):
			if !u.board.Users.Current().IsAdmin() {
				return u, statusCmd(errAdminOnly.Error(), true)
			}
			return u.showForm(store.User{Role: store.RoleUser})
		case key.Matches(msg, keys.Enter):
			if !u.board.Users.Current().IsAdmin() {
				return u, statusCmd(errAdminOnly.Error(), true)
			}
			if usr, ok := u.selected(); ok {
				return u.showForm(usr)
			}
		case key.Matches(msg, keys.Delete):
			return u.deleteSelected()
		}
	}
	return u, nil
}

func (u usersModel) deleteSelected() (usersModel, tea.Cmd) {
	usr, ok := u.selected()
	if !ok {
		return u, nil
	}
	sess := u.board.Users.Current()
	if !sess.IsAdmin() {
		return u, statusCmd(errAdminOnly.Error(), true)
	}
	if usr.ID == sess.UserID() {
		return u, statusCmd("You cannot delete your own account", true)
	}
	if err := u.board.Users.Delete(usr.ID); err != nil {
		return u, statusCmd(fmt.Sprintf("Delete failed: %v", err), true)
	}
	u.refresh()
	return u, tea.Batch(statusCmd(fmt.Sprintf("Deleted %s", usr.Name), false), changedCmd)
}

// showForm opens the register form, or the edit form when usr has an id.
func (u usersModel) showForm(usr store.User) (usersModel, tea.Cmd) {
	u.editID = usr.ID
	*u.formName = usr.Name
	*u.formEmail = usr.Email
	*u.formRole = string(usr.Role)

	u.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Name").Value(u.formName).Validate(required("name")),
			huh.NewInput().Title("Email").Value(u.formEmail).Validate(u.validEmail),
			huh.NewSelect[string]().Title("Role").
				Options(
					huh.NewOption("User", string(store.RoleUser)),
					huh.NewOption("Admin", string(store.RoleAdmin)),
				).Value(u.formRole),
		),
	).WithShowHelp(true).WithShowErrors(true)

	u.formActive = true
	return u, u.form.Init()
}

// validEmail rejects addresses without @ and addresses owned by another user.
func (u usersModel) validEmail(s string) error {
	s = strings.TrimSpace(s)
	if !strings.Contains(s, "@") {
		return errors.New("enter an email address")
	}
	if other, ok := u.board.Users.ByEmail(s); ok && other.ID != u.editID {
		return board.ErrDuplicateEmail
	}
	return nil
}

func required(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
}

func (u usersModel) updateForm(msg tea.Msg) (usersModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			u.formActive = false
			u.form = nil
			return u, nil
		}
	}

	form, cmd := u.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		u.form = f
	}

	if u.form.State == huh.StateCompleted {
		u.formActive = false
		out := u.save()
		u.refresh()
		return u, out
	}
	return u, cmd
}

func (u usersModel) save() tea.Cmd {
	name := strings.TrimSpace(*u.formName)
	email := strings.TrimSpace(*u.formEmail)
	role := store.UserRole(*u.formRole)

	if u.editID == "" {
		usr, err := u.board.Users.Register(board.UserDraft{Name: name, Email: email, Role: role})
		if err != nil {
			return statusCmd(fmt.Sprintf("Register failed: %v", err), true)
		}
		return tea.Batch(statusCmd(fmt.Sprintf("Registered %s", usr.Name), false), changedCmd)
	}

	usr, ok := u.board.Users.Get(u.editID)
	if !ok {
		return statusCmd("User no longer exists", true)
	}
	usr.Name = name
	usr.Email = email
	usr.Role = role
	if err := u.board.Users.Update(usr); err != nil {
		return statusCmd(fmt.Sprintf("Update failed: %v", err), true)
	}
	return tea.Batch(statusCmd(fmt.Sprintf("Updated %s", usr.Name), false), changedCmd)
}

func (u usersModel) view() string {
	w := u.width - 4

	if u.formActive && u.form != nil {
		title := "Register User"
		if u.editID != "" {
			title = "Edit User"
		}
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render(title), "", u.form.View()),
		)
	}

	rows := []string{titleStyle.Render(fmt.Sprintf("Users (%d)", len(u.users))), ""}
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("    %-22s %-28s %s", "Name", "Email", "Role")))

	current := u.board.Users.Current()
	for i, usr := range u.users {
		cursor := "  "
		style := normalItemStyle
		if i == u.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		role := mutedStyle.Render(string(usr.Role))
		if usr.Role == store.RoleAdmin {
			role = warningStyle.Render(string(usr.Role))
		}
		me := ""
		if usr.ID == current.UserID() {
			me = accentStyle.Render(" (you)")
		}
		rows = append(rows, style.Render(cursor)+style.Render(fmt.Sprintf("%-22s %-28s ",
			truncate(usr.Name, 22), truncate(usr.Email, 28)))+role+me)
	}

	rows = append(rows, "")
	if current.IsAdmin() {
		rows = append(rows, mutedStyle.Render("  n: register  enter: edit  d: delete"))
	} else {
		rows = append(rows, mutedStyle.Render("  Only admins can change users."))
	}
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
