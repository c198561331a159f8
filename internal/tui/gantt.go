package tui

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/planr/internal/board"
	"github.com/sadopc/planr/internal/gantt"
	"github.com/sadopc/planr/internal/store"
)

const (
	ganttLabelWidth = 24
	// pixels per terminal cell when mapping a layout onto the grid
	ganttCellPixels = 8.0
)

type ganttModel struct {
	board  *board.Board
	kv     *store.Store
	width  int
	height int
	now    func() time.Time

	projectID string
	layout    gantt.Layout
	scroll    int // first visible day
}

func newGanttModel(b *board.Board, kv *store.Store) ganttModel {
	g := ganttModel{board: b, kv: kv, now: time.Now}
	g.refresh()
	return g
}

func (g *ganttModel) setSize(w, h int) {
	g.width = w
	g.height = h
}

func (g *ganttModel) options() gantt.Options {
	return gantt.Options{
		Now:         g.now(),
		ChartWidth:  float64(g.kv.GetSettingInt("gantt_chart_width", gantt.DefaultChartWidth)),
		MinDayWidth: float64(g.kv.GetSettingInt("gantt_min_day_width", gantt.DefaultMinDayWidth)),
	}
}

// refresh recomputes the layout, falling back to the first visible project
// when the current one is gone.
func (g *ganttModel) refresh() {
	projects := g.board.Projects.ScopedView(g.board.Users.Current())
	found := false
	for _, p := range projects {
		if p.ID == g.projectID {
			found = true
			break
		}
	}
	if !found {
		g.projectID = ""
		g.scroll = 0
		if len(projects) > 0 {
			g.projectID = projects[0].ID
		}
	}
	g.layout = gantt.Compute(gantt.Select(g.board.Tasks.All(), g.projectID), g.options())
	if g.scroll >= g.layout.TotalDays {
		g.scroll = max(0, g.layout.TotalDays-1)
	}
}

func (g *ganttModel) show(projectID string) {
	g.projectID = projectID
	g.scroll = 0
	g.refresh()
}

// step moves to the next or previous visible project.
func (g *ganttModel) step(delta int) {
	projects := g.board.Projects.ScopedView(g.board.Users.Current())
	if len(projects) == 0 {
		return
	}
	i := 0
	for j, p := range projects {
		if p.ID == g.projectID {
			i = j
		}
	}
	i = (i + delta + len(projects)) % len(projects)
	g.show(projects[i].ID)
}

func (g ganttModel) update(msg tea.Msg) (ganttModel, tea.Cmd) {
	switch msg := msg.(type) {
	case boardChangedMsg:
		g.refresh()
	case openGanttMsg:
		g.show(msg.projectID)
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Left):
			if g.scroll > 0 {
				g.scroll--
			}
		case key.Matches(msg, keys.Right):
			if g.scroll < g.layout.TotalDays-1 {
				g.scroll++
			}
		case key.Matches(msg, keys.Up):
			g.step(-1)
		case key.Matches(msg, keys.Down):
			g.step(1)
		}
	}
	return g, nil
}

// cellsPerDay is how many terminal columns one day occupies.
func (g ganttModel) cellsPerDay() int {
	return max(1, int(math.Round(g.layout.DayWidth/ganttCellPixels)))
}

func (g ganttModel) view() string {
	w := g.width - 4
	proj, ok := g.board.Projects.Get(g.projectID)
	if !ok {
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
			titleStyle.Render("Gantt"),
			"",
			mutedStyle.Render("No project selected. Open one from the Projects tab."),
		))
	}

	l := g.layout
	title := projectDot(proj.Color) + " " + titleStyle.Render(proj.Name)
	info := mutedStyle.Render(fmt.Sprintf("%d tasks • %d days timeline • %s to %s",
		len(l.Bars), l.TotalDays, l.MinDate.UTC().Format("Jan 02"), l.MaxDate.UTC().Format("Jan 02, 2006")))

	rows := []string{title + "  " + info, ""}
	area := max(10, w-ganttLabelWidth-6)
	rows = append(rows, strings.Repeat(" ", ganttLabelWidth+1)+g.renderHeader(area))

	if len(l.Bars) == 0 {
		rows = append(rows, "", mutedStyle.Render("  No tasks in this project."))
	}
	for _, b := range l.Bars {
		label := statusIcon(b.Task.Status) + " " + lipgloss.NewStyle().Width(ganttLabelWidth-2).
			Render(truncate(b.Task.Title, ganttLabelWidth-3))
		rows = append(rows, label+" "+g.renderBar(b, area))
	}

	rows = append(rows, "")
	legend := []string{}
	for _, s := range store.TaskStatuses {
		if s == store.StatusCancelled {
			continue
		}
		legend = append(legend, lipgloss.NewStyle().Foreground(statusColor(s)).Render("█")+" "+string(s))
	}
	if l.TodayVisible {
		legend = append(legend, todayStyle.Render("│")+" today")
	}
	rows = append(rows, "  "+strings.Join(legend, "  "))
	rows = append(rows, mutedStyle.Render("  ←/→: scroll  ↑/↓: switch project"))

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

// renderHeader labels day columns, skipping labels that would overlap.
func (g ganttModel) renderHeader(area int) string {
	cpd := g.cellsPerDay()
	line := []rune(strings.Repeat(" ", area))
	step := max(1, int(math.Ceil(6/float64(cpd))))
	days := g.layout.Days()
	for i := g.scroll; i < len(days); i++ {
		col := (i - g.scroll) * cpd
		if col >= area {
			break
		}
		if (i-g.scroll)%step != 0 {
			continue
		}
		label := []rune(days[i].UTC().Format("01/02"))
		for j, r := range label {
			if col+j < area {
				line[col+j] = r
			}
		}
	}
	return mutedStyle.Render(string(line))
}

func (g ganttModel) renderBar(b gantt.Bar, area int) string {
	cpd := g.cellsPerDay()
	cellPx := g.layout.DayWidth / float64(cpd)
	origin := g.scroll * cpd

	start := int(b.Left/cellPx) - origin
	end := start + max(1, int(math.Ceil(b.Width/cellPx)))

	today := -1
	if g.layout.TodayVisible {
		today = int(g.layout.TodayOffset/cellPx) - origin
	}

	barStyle := lipgloss.NewStyle().Foreground(statusColor(b.Task.Status))
	var sb strings.Builder
	for col := 0; col < area; col++ {
		switch {
		case col >= start && col < end:
			sb.WriteString(barStyle.Render("█"))
		case col == today:
			sb.WriteString(todayStyle.Render("│"))
		default:
			sb.WriteString(mutedStyle.Render("·"))
		}
	}
	return sb.String()
}
