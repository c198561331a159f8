package tui

import (
	"errors"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/planr/internal/board"
)

type loginModel struct {
	board  *board.Board
	width  int
	height int

	form *huh.Form
	err  string

	// Form field pointers (survive value copies)
	email    *string
	password *string
	name     *string
}

func newLoginModel(b *board.Board) loginModel {
	email, password, name := "", "", ""
	return loginModel{board: b, email: &email, password: &password, name: &name}
}

func (l *loginModel) setSize(w, h int) {
	l.width = w
	l.height = h
}

// reset builds a fresh form, keeping the last email.
func (l loginModel) reset() loginModel {
	*l.password = ""
	*l.name = ""
	l.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Email").Value(l.email).Validate(func(s string) error {
				if !strings.Contains(s, "@") {
					return errors.New("enter an email address")
				}
				return nil
			}),
			huh.NewInput().Title("Password").EchoMode(huh.EchoModePassword).Value(l.password),
			huh.NewInput().Title("Name").Description("Only for new accounts").Value(l.name),
		),
	).WithShowHelp(true).WithShowErrors(true)
	return l
}

func (l loginModel) Init() tea.Cmd {
	if l.form == nil {
		return nil
	}
	return l.form.Init()
}

func (l loginModel) update(msg tea.Msg) (loginModel, tea.Cmd) {
	if l.form == nil {
		l = l.reset()
		return l, l.Init()
	}

	form, cmd := l.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		l.form = f
	}

	switch l.form.State {
	case huh.StateCompleted:
		if err := l.signIn(); err != nil {
			l.err = err.Error()
			l = l.reset()
			return l, l.Init()
		}
		l.err = ""
		l.form = nil
		return l, func() tea.Msg { return loggedInMsg{} }
	case huh.StateAborted:
		return l, tea.Quit
	}
	return l, cmd
}

// signIn logs in, registering the email first when it is unknown and a
// name was given.
func (l loginModel) signIn() error {
	email := strings.TrimSpace(*l.email)
	_, err := l.board.Users.Login(email, *l.password)
	name := strings.TrimSpace(*l.name)
	if !errors.Is(err, board.ErrUnknownEmail) || name == "" {
		return err
	}
	if _, err := l.board.Users.Register(board.UserDraft{Name: name, Email: email}); err != nil {
		return err
	}
	_, err = l.board.Users.Login(email, *l.password)
	return err
}

func (l loginModel) view() string {
	title := titleStyle.Render("Sign in")
	hint := mutedStyle.Render("Any password works. Try alex@example.com, or give a name to register.")

	rows := []string{title, hint, ""}
	if l.form != nil {
		rows = append(rows, l.form.View())
	}
	if l.err != "" {
		rows = append(rows, "", errorStyle.Render(l.err))
	}

	w := min(l.width-4, 60)
	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}
