package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/planr/internal/board"
	"github.com/sadopc/planr/internal/store"
)

type notificationsModel struct {
	board  *board.Board
	width  int
	height int

	items  []store.Notification
	cursor int
}

func newNotificationsModel(b *board.Board) notificationsModel {
	n := notificationsModel{board: b}
	n.refresh()
	return n
}

func (n *notificationsModel) setSize(w, h int) {
	n.width = w
	n.height = h
}

func (n *notificationsModel) refresh() {
	n.items = n.board.Notifications.Active()
	if n.cursor >= len(n.items) {
		n.cursor = max(0, len(n.items)-1)
	}
}

func (n notificationsModel) unread() int {
	return n.board.Notifications.UnreadCount(n.board.Users.Current())
}

func (n notificationsModel) update(msg tea.Msg) (notificationsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case boardChangedMsg:
		n.refresh()
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Up):
			if n.cursor > 0 {
				n.cursor--
			}
		case key.Matches(msg, keys.Down):
			if n.cursor < len(n.items)-1 {
				n.cursor++
			}
		case key.Matches(msg, keys.Read), key.Matches(msg, keys.Enter):
			if n.cursor < len(n.items) && !n.items[n.cursor].Read {
				if err := n.board.Notifications.MarkRead(n.items[n.cursor].ID); err != nil {
					return n, statusCmd(fmt.Sprintf("Mark read failed: %v", err), true)
				}
				n.refresh()
				return n, changedCmd
			}
		}
	}
	return n, nil
}

func (n notificationsModel) view() string {
	w := n.width - 4
	title := titleStyle.Render("Inbox")
	if c := n.unread(); c > 0 {
		title += " " + badgeStyle.Render(fmt.Sprintf("(%d unread)", c))
	}

	if len(n.items) == 0 {
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
			title, "", mutedStyle.Render("Nothing here yet."),
		))
	}

	rows := []string{title, ""}
	visible := max(1, n.height-8)
	start := 0
	if n.cursor >= visible {
		start = n.cursor - visible + 1
	}
	end := min(len(n.items), start+visible)

	for i := start; i < end; i++ {
		item := n.items[i]
		cursor := "  "
		style := normalItemStyle
		if item.Read {
			style = mutedStyle
		}
		if i == n.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		dot := " "
		if !item.Read {
			dot = badgeStyle.Render("•")
		}
		when := mutedStyle.Render(item.CreatedAt.Local().Format("Jan 02 15:04"))
		rows = append(rows, fmt.Sprintf("%s%s %s  %s", style.Render(cursor), dot, when,
			style.Render(truncate(item.Message, max(10, w-24)))))
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  m/enter: mark read"))
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
