package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/planr/internal/board"
	"github.com/sadopc/planr/internal/export"
	"github.com/sadopc/planr/internal/store"
)

// App is the root Bubble Tea model.
type App struct {
	board  *board.Board
	store  *store.Store
	width  int
	height int

	activeView    viewState
	showHelp      bool
	exportPicking bool
	exportCursor  int

	login         loginModel
	tasks         tasksModel
	projects      projectsModel
	gantt         ganttModel
	notifications notificationsModel
	reports       reportsModel
	settings      settingsModel
	users         usersModel
	roles         rolesModel

	help   help.Model
	status string
}

func NewApp(b *board.Board, s *store.Store) App {
	h := help.New()
	h.ShowAll = false

	a := App{
		board:         b,
		store:         s,
		activeView:    viewTasks,
		login:         newLoginModel(b),
		tasks:         newTasksModel(b, s),
		projects:      newProjectsModel(b),
		gantt:         newGanttModel(b, s),
		notifications: newNotificationsModel(b),
		reports:       newReportsModel(b),
		settings:      newSettingsModel(s),
		users:         newUsersModel(b),
		roles:         newRolesModel(b),
		help:          h,
	}
	if !a.loggedIn() {
		a.login = a.login.reset()
	}
	return a
}

func (a App) Init() tea.Cmd {
	if !a.loggedIn() {
		return a.login.Init()
	}
	return nil
}

func (a App) loggedIn() bool {
	return a.board.Users.Current().Active()
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		contentHeight := a.height - 4 // header + footer
		a.login.setSize(a.width, contentHeight)
		a.tasks.setSize(a.width, contentHeight)
		a.projects.setSize(a.width, contentHeight)
		a.gantt.setSize(a.width, contentHeight)
		a.notifications.setSize(a.width, contentHeight)
		a.reports.setSize(a.width, contentHeight)
		a.settings.setSize(a.width, contentHeight)
		a.users.setSize(a.width, contentHeight)
		a.roles.setSize(a.width, contentHeight)
		return a, nil

	case loggedInMsg:
		a.activeView = viewTasks
		a.tasks.filters = defaultFilters(a.store)
		a.status = "Signed in as " + a.board.Users.Current().User.Name
		return a.broadcast(boardChangedMsg{})

	case boardChangedMsg:
		return a.broadcast(msg)

	case statusMsg:
		a.status = msg.text
		return a, nil

	case exportDoneMsg:
		a.status = "Exported to " + msg.path
		a.exportPicking = false
		return a, nil
	}

	if !a.loggedIn() {
		var cmd tea.Cmd
		a.login, cmd = a.login.update(msg)
		return a, cmd
	}

	switch msg := msg.(type) {
	case openGanttMsg:
		a.activeView = viewGantt
		a.gantt, _ = a.gantt.update(msg)
		return a, nil

	case tea.KeyMsg:
		// Export picker
		if a.exportPicking {
			return a.updateExportPicker(msg)
		}

		// If a child view is capturing input (e.g. form), delegate first.
		if a.isFormActive() {
			return a.updateActiveView(msg)
		}

		switch {
		case key.Matches(msg, keys.Export):
			a.exportPicking = true
			a.exportCursor = 0
			return a, nil
		case key.Matches(msg, keys.Quit):
			return a, tea.Quit
		case key.Matches(msg, keys.Logout):
			return a.logout()
		case key.Matches(msg, keys.Help):
			a.showHelp = !a.showHelp
			a.help.ShowAll = a.showHelp
			return a, nil
		case key.Matches(msg, keys.Tab1):
			a.activeView = viewTasks
			return a, nil
		case key.Matches(msg, keys.Tab2):
			a.activeView = viewProjects
			return a, nil
		case key.Matches(msg, keys.Tab3):
			a.activeView = viewGantt
			return a, nil
		case key.Matches(msg, keys.Tab4):
			a.activeView = viewNotifications
			return a, nil
		case key.Matches(msg, keys.Tab5):
			a.activeView = viewReports
			return a, nil
		case key.Matches(msg, keys.Tab6):
			a.activeView = viewSettings
			return a, nil
		case key.Matches(msg, keys.Tab7):
			a.activeView = viewUsers
			return a, nil
		case key.Matches(msg, keys.Tab8):
			a.activeView = viewRoles
			return a, nil
		case key.Matches(msg, keys.Tab):
			a.activeView = (a.activeView + 1) % viewState(len(viewNames))
			return a, nil
		}
	}

	return a.updateActiveView(msg)
}

// broadcast hands msg to every view so each rereads the board.
func (a App) broadcast(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd
	a.tasks, cmd = a.tasks.update(msg)
	cmds = append(cmds, cmd)
	a.projects, cmd = a.projects.update(msg)
	cmds = append(cmds, cmd)
	a.gantt, cmd = a.gantt.update(msg)
	cmds = append(cmds, cmd)
	a.notifications, cmd = a.notifications.update(msg)
	cmds = append(cmds, cmd)
	a.reports, cmd = a.reports.update(msg)
	cmds = append(cmds, cmd)
	a.users, cmd = a.users.update(msg)
	cmds = append(cmds, cmd)
	a.roles, cmd = a.roles.update(msg)
	cmds = append(cmds, cmd)
	a.settings.refresh()
	return a, tea.Batch(cmds...)
}

func (a App) logout() (tea.Model, tea.Cmd) {
	if err := a.board.Users.Logout(); err != nil {
		a.status = fmt.Sprintf("Logout failed: %v", err)
		return a, nil
	}
	a.status = ""
	a.exportPicking = false
	a.login = a.login.reset()
	m, cmd := a.broadcast(boardChangedMsg{})
	return m, tea.Batch(cmd, a.login.Init())
}

func (a App) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.activeView {
	case viewTasks:
		a.tasks, cmd = a.tasks.update(msg)
	case viewProjects:
		a.projects, cmd = a.projects.update(msg)
	case viewGantt:
		a.gantt, cmd = a.gantt.update(msg)
	case viewNotifications:
		a.notifications, cmd = a.notifications.update(msg)
	case viewReports:
		a.reports, cmd = a.reports.update(msg)
	case viewSettings:
		a.settings, cmd = a.settings.update(msg)
	case viewUsers:
		a.users, cmd = a.users.update(msg)
	case viewRoles:
		a.roles, cmd = a.roles.update(msg)
	}
	return a, cmd
}

func (a App) isFormActive() bool {
	switch a.activeView {
	case viewTasks:
		return a.tasks.formActive
	case viewProjects:
		return a.projects.formActive
	case viewSettings:
		return a.settings.formActive
	case viewUsers:
		return a.users.formActive
	case viewRoles:
		return a.roles.formActive
	}
	return false
}

func (a App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	header := a.renderHeader()
	footer := a.renderFooter()

	var content string
	switch {
	case !a.loggedIn():
		content = a.login.view()
	case a.activeView == viewTasks:
		content = a.tasks.view()
	case a.activeView == viewProjects:
		content = a.projects.view()
	case a.activeView == viewGantt:
		content = a.gantt.view()
	case a.activeView == viewNotifications:
		content = a.notifications.view()
	case a.activeView == viewReports:
		content = a.reports.view()
	case a.activeView == viewSettings:
		content = a.settings.view()
	case a.activeView == viewUsers:
		content = a.users.view()
	case a.activeView == viewRoles:
		content = a.roles.view()
	}

	// Calculate available height for content
	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := max(1, a.height-headerHeight-footerHeight)

	// Show export picker overlay
	if a.exportPicking {
		content = a.renderExportPicker()
	}

	content = lipgloss.NewStyle().
		Width(a.width).
		Height(contentHeight).
		Render(content)

	return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
}

func (a App) renderHeader() string {
	title := lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Render("planr")
	if !a.loggedIn() {
		return headerStyle.Render(title)
	}

	var tabs []string
	for i, name := range viewNames {
		if viewState(i) == viewNotifications {
			if n := a.notifications.unread(); n > 0 {
				name = fmt.Sprintf("%s (%d)", name, n)
			}
		}
		if viewState(i) == a.activeView {
			tabs = append(tabs, activeTabStyle.Render(name))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(name))
		}
	}

	tabRow := lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)

	gap := max(1, a.width-lipgloss.Width(title)-lipgloss.Width(tabRow)-4)
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return headerStyle.Render(
		lipgloss.JoinHorizontal(lipgloss.Bottom, title, spacer, tabRow),
	)
}

func (a App) renderFooter() string {
	helpView := a.help.View(keys)

	status := ""
	if a.status != "" {
		status = mutedStyle.Render(" " + a.status)
	}

	user := ""
	if sess := a.board.Users.Current(); sess.Active() {
		user = accentStyle.Render(" " + sess.User.Name)
		if sess.IsAdmin() {
			user += warningStyle.Render(" (admin)")
		}
	}

	left := footerStyle.Render(helpView)
	right := status + user

	gap := max(1, a.width-lipgloss.Width(left)-lipgloss.Width(right)-2)
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Bottom, left, spacer, right)
}

func (a App) renderExportPicker() string {
	title := titleStyle.Render("Export Format")
	formats := []string{"CSV", "JSON"}
	var rows []string
	rows = append(rows, title)
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("%d tasks in the current view", len(a.tasks.tasks))))
	rows = append(rows, "")
	for i, f := range formats {
		cursor := "  "
		style := normalItemStyle
		if i == a.exportCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(cursor+f))
	}
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  enter: export  esc: cancel"))

	w := a.width - 4
	return activePanelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (a App) updateExportPicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if a.exportCursor > 0 {
			a.exportCursor--
		}
	case key.Matches(msg, keys.Down):
		if a.exportCursor < 1 {
			a.exportCursor++
		}
	case key.Matches(msg, keys.Enter):
		a.exportPicking = false
		return a, a.doExport(a.exportCursor)
	case key.Matches(msg, keys.Back):
		a.exportPicking = false
	}
	return a, nil
}

// doExport writes the filtered task view. The slices are captured before
// the command runs so the board is never read off the update goroutine.
func (a App) doExport(format int) tea.Cmd {
	tasks := a.tasks.tasks
	projects := a.board.Projects.All()
	users := a.board.Users.All()

	return func() tea.Msg {
		home, _ := os.UserHomeDir()
		dateStr := time.Now().Format("2006-01-02")

		var path string
		if format == 0 {
			path = filepath.Join(home, fmt.Sprintf("planr-export-%s.csv", dateStr))
			if err := export.ToCSV(tasks, projects, users, path); err != nil {
				return statusMsg{text: fmt.Sprintf("CSV error: %v", err), isError: true}
			}
		} else {
			path = filepath.Join(home, fmt.Sprintf("planr-export-%s.json", dateStr))
			if err := export.ToJSON(tasks, projects, users, path); err != nil {
				return statusMsg{text: fmt.Sprintf("JSON error: %v", err), isError: true}
			}
		}

		return exportDoneMsg{path: path}
	}
}
