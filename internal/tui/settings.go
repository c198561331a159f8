package tui

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/planr/internal/board"
	"github.com/sadopc/planr/internal/gantt"
	"github.com/sadopc/planr/internal/store"
)

type settingsModel struct {
	store  *store.Store
	width  int
	height int

	settings   []store.Setting
	formActive bool
	form       *huh.Form

	// Form values as pointers (survive value copies)
	chartWidth   *string
	minDayWidth  *string
	defaultSort  *string
	defaultOrder *string
}

func newSettingsModel(s *store.Store) settingsModel {
	cw, md, ds, do := "", "", "", ""
	m := settingsModel{
		store:        s,
		chartWidth:   &cw,
		minDayWidth:  &md,
		defaultSort:  &ds,
		defaultOrder: &do,
	}
	m.refresh()
	return m
}

func (s *settingsModel) setSize(w, h int) {
	s.width = w
	s.height = h
}

func (s *settingsModel) refresh() {
	settings, _ := s.store.GetAllSettings()
	s.settings = settings
}

func (s settingsModel) update(msg tea.Msg) (settingsModel, tea.Cmd) {
	if s.formActive && s.form != nil {
		return s.updateForm(msg)
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Enter), key.Matches(msg, keys.New):
			return s.showForm()
		}
	}
	return s, nil
}

func positiveInt(v string) error {
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return errors.New("enter a positive whole number")
	}
	return nil
}

func (s settingsModel) showForm() (settingsModel, tea.Cmd) {
	*s.chartWidth = s.getVal("gantt_chart_width", strconv.Itoa(gantt.DefaultChartWidth))
	*s.minDayWidth = s.getVal("gantt_min_day_width", strconv.Itoa(gantt.DefaultMinDayWidth))
	*s.defaultSort = s.getVal("default_sort", string(board.SortCreatedAt))
	*s.defaultOrder = s.getVal("default_order", string(board.Desc))

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Chart width (px)").Value(s.chartWidth).Validate(positiveInt),
			huh.NewInput().Title("Minimum day width (px)").Value(s.minDayWidth).Validate(positiveInt),
		).Title("Gantt"),
		huh.NewGroup(
			huh.NewSelect[string]().Title("Sort tasks by").
				Options(
					huh.NewOption("Created", string(board.SortCreatedAt)),
					huh.NewOption("Due date", string(board.SortDueDate)),
					huh.NewOption("Priority", string(board.SortPriority)),
				).Value(s.defaultSort),
			huh.NewSelect[string]().Title("Order").
				Options(
					huh.NewOption("Descending", string(board.Desc)),
					huh.NewOption("Ascending", string(board.Asc)),
				).Value(s.defaultOrder),
		).Title("Tasks"),
	).WithShowHelp(true).WithShowErrors(true)

	s.formActive = true
	return s, s.form.Init()
}

func (s settingsModel) updateForm(msg tea.Msg) (settingsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			s.formActive = false
			s.form = nil
			return s, nil
		}
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}

	if s.form.State == huh.StateCompleted {
		s.formActive = false
		if err := s.saveSettings(); err != nil {
			return s, statusCmd(fmt.Sprintf("Saving settings failed: %v", err), true)
		}
		s.refresh()
		return s, tea.Batch(statusCmd("Settings saved", false), changedCmd)
	}

	return s, cmd
}

func (s settingsModel) saveSettings() error {
	values := []store.Setting{
		{Key: "gantt_chart_width", Value: *s.chartWidth},
		{Key: "gantt_min_day_width", Value: *s.minDayWidth},
		{Key: "default_sort", Value: *s.defaultSort},
		{Key: "default_order", Value: *s.defaultOrder},
	}
	for _, v := range values {
		if err := s.store.SetSetting(v.Key, v.Value); err != nil {
			return err
		}
	}
	return nil
}

func (s settingsModel) getVal(k, fallback string) string {
	v, err := s.store.GetSetting(k)
	if err != nil {
		return fallback
	}
	return v
}

func (s settingsModel) view() string {
	w := s.width - 4

	if s.formActive && s.form != nil {
		title := titleStyle.Render("Settings")
		formView := s.form.View()
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", formView),
		)
	}

	title := titleStyle.Render("Settings")
	hint := mutedStyle.Render("Press enter to edit settings")

	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")

	for _, setting := range s.settings {
		label := lipgloss.NewStyle().Width(24).Render(setting.Key)
		value := highlightStyle.Render(formatSettingValue(setting.Key, setting.Value))
		rows = append(rows, fmt.Sprintf("  %s %s", label, value))
	}

	rows = append(rows, "")
	rows = append(rows, hint)

	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func formatSettingValue(k, v string) string {
	switch k {
	case "gantt_chart_width", "gantt_min_day_width":
		if n, err := strconv.Atoi(v); err == nil {
			return fmt.Sprintf("%d px", n)
		}
	case "default_sort":
		switch board.SortKey(v) {
		case board.SortCreatedAt:
			return "created"
		case board.SortDueDate:
			return "due date"
		case board.SortPriority:
			return "priority"
		}
	case "default_order":
		if board.SortOrder(v) == board.Asc {
			return "ascending"
		}
		return "descending"
	}
	return v
}
