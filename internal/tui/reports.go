package tui

import (
	"fmt"
	"strings"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/planr/internal/board"
	"github.com/sadopc/planr/internal/store"
)

type reportMode int

const (
	reportByProject reportMode = iota
	reportByAssignee
)

// reportRow counts tasks per status for one project or assignee.
type reportRow struct {
	label  string
	color  string
	counts map[store.TaskStatus]int
}

func (r reportRow) total() int {
	n := 0
	for _, c := range r.counts {
		n += c
	}
	return n
}

type reportsModel struct {
	board  *board.Board
	width  int
	height int

	mode reportMode
	rows []reportRow

	chart barchart.Model
}

func newReportsModel(b *board.Board) reportsModel {
	r := reportsModel{
		board: b,
		chart: barchart.New(60, 12),
	}
	r.refresh()
	return r
}

func (r *reportsModel) setSize(w, h int) {
	r.width = w
	r.height = h
	r.buildChart()
}

// refresh recounts the tasks of the projects visible to the current user.
func (r *reportsModel) refresh() {
	projects := r.board.Projects.ScopedView(r.board.Users.Current())
	visible := make(map[string]bool, len(projects))
	for _, p := range projects {
		visible[p.ID] = true
	}
	var tasks []store.Task
	for _, t := range r.board.Tasks.All() {
		if visible[t.ProjectID] {
			tasks = append(tasks, t)
		}
	}

	switch r.mode {
	case reportByAssignee:
		r.rows = countByAssignee(tasks, r.board.Users.All())
	default:
		r.rows = countByProject(tasks, projects)
	}
	r.buildChart()
}

func countByProject(tasks []store.Task, projects []store.Project) []reportRow {
	rows := make([]reportRow, 0, len(projects))
	index := make(map[string]int, len(projects))
	for _, p := range projects {
		index[p.ID] = len(rows)
		rows = append(rows, reportRow{label: p.Name, color: p.Color, counts: map[store.TaskStatus]int{}})
	}
	for _, t := range tasks {
		if i, ok := index[t.ProjectID]; ok {
			rows[i].counts[t.Status]++
		}
	}
	return rows
}

func countByAssignee(tasks []store.Task, users []store.User) []reportRow {
	var rows []reportRow
	for _, u := range users {
		row := reportRow{label: u.Name, counts: map[store.TaskStatus]int{}}
		for _, t := range tasks {
			if t.IsAssigned(u.ID) {
				row.counts[t.Status]++
			}
		}
		if row.total() > 0 {
			rows = append(rows, row)
		}
	}
	return rows
}

func (r reportsModel) update(msg tea.Msg) (reportsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case boardChangedMsg:
		r.refresh()
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Left), key.Matches(msg, keys.Right):
			if r.mode == reportByProject {
				r.mode = reportByAssignee
			} else {
				r.mode = reportByProject
			}
			r.refresh()
		}
	}
	return r, nil
}

func (r *reportsModel) buildChart() {
	chartWidth := max(20, r.width-8)
	chartHeight := 12
	if r.height > 30 {
		chartHeight = 16
	}

	r.chart = barchart.New(chartWidth, chartHeight)

	var bars []barchart.BarData
	for _, row := range r.rows {
		var values []barchart.BarValue
		for _, s := range store.TaskStatuses {
			if c := row.counts[s]; c > 0 {
				values = append(values, barchart.BarValue{
					Name:  string(s),
					Value: float64(c),
					Style: lipgloss.NewStyle().Foreground(statusColor(s)),
				})
			}
		}
		if len(values) == 0 {
			values = []barchart.BarValue{{Name: "", Value: 0, Style: lipgloss.NewStyle().Foreground(colorSubtle)}}
		}
		bars = append(bars, barchart.BarData{
			Label:  truncate(row.label, 10),
			Values: values,
		})
	}

	r.chart.PushAll(bars)
	r.chart.Draw()
}

func (r reportsModel) view() string {
	w := r.width - 4

	projectTab := inactiveTabStyle.Render("By project")
	assigneeTab := inactiveTabStyle.Render("By assignee")
	if r.mode == reportByProject {
		projectTab = activeTabStyle.Render("By project")
	} else {
		assigneeTab = activeTabStyle.Render("By assignee")
	}
	modeTabs := lipgloss.JoinHorizontal(lipgloss.Bottom, projectTab, assigneeTab)

	header := lipgloss.JoinHorizontal(lipgloss.Bottom, titleStyle.Render("Reports"), "  ", modeTabs)

	nav := mutedStyle.Render("  ←/→: switch mode")

	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			header, "", r.chart.View(), "", r.renderLegend(), "", r.renderSummaryTable(w), "", nav,
		),
	)
}

func (r reportsModel) renderSummaryTable(w int) string {
	if len(r.rows) == 0 {
		return mutedStyle.Render("  No tasks to report")
	}

	var rows []string
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %-22s %6s %8s %6s %6s %6s", "Name", "Todo", "Active", "Done", "Cxl", "Done%")))
	rows = append(rows, mutedStyle.Render("  "+strings.Repeat("─", max(0, min(w-6, 60)))))

	for _, row := range r.rows {
		done := row.counts[store.StatusCompleted]
		pct := 0
		if t := row.total(); t > 0 {
			pct = done * 100 / t
		}
		dot := " "
		if r.mode == reportByProject {
			dot = projectDot(row.color)
		}
		rows = append(rows, fmt.Sprintf("  %s %-20s %6d %8d %6d %6d %5d%%",
			dot, truncate(row.label, 20),
			row.counts[store.StatusTodo], row.counts[store.StatusInProgress], done,
			row.counts[store.StatusCancelled], pct,
		))
	}

	return strings.Join(rows, "\n")
}

func (r reportsModel) renderLegend() string {
	var items []string
	for _, s := range store.TaskStatuses {
		dot := lipgloss.NewStyle().Foreground(statusColor(s)).Render("█")
		items = append(items, fmt.Sprintf("%s %s", dot, s))
	}
	return "  " + strings.Join(items, "  ")
}
