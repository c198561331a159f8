// Package gantt lays out project tasks on a day-based timeline. It only
// computes positions; rendering is left to the caller.
package gantt

import (
	"math"
	"time"

	"github.com/sadopc/planr/internal/store"
)

const (
	DefaultChartWidth  = 800
	DefaultMinDayWidth = 40

	// Undated tasks span a week from their start. An empty chart shows a
	// month from now.
	defaultTaskDays = 7
	emptyWindowDays = 30
	day             = 24 * time.Hour
)

type Options struct {
	Now         time.Time
	ChartWidth  float64
	MinDayWidth float64
}

func (o Options) withDefaults() Options {
	if o.Now.IsZero() {
		o.Now = time.Now()
	}
	if o.ChartWidth <= 0 {
		o.ChartWidth = DefaultChartWidth
	}
	if o.MinDayWidth <= 0 {
		o.MinDayWidth = DefaultMinDayWidth
	}
	return o
}

// Bar positions one task. Left and Width are in the same units as
// Options.ChartWidth.
type Bar struct {
	Task         store.Task
	Start        time.Time
	End          time.Time
	OffsetDays   int
	DurationDays int
	Left         float64
	Width        float64
}

type Layout struct {
	MinDate   time.Time
	MaxDate   time.Time
	TotalDays int
	DayWidth  float64
	Width     float64
	Bars      []Bar

	TodayVisible bool
	TodayOffset  float64
}

// Days returns the date of every column, starting at MinDate.
func (l Layout) Days() []time.Time {
	days := make([]time.Time, 0, l.TotalDays)
	for i := 0; i < l.TotalDays; i++ {
		days = append(days, l.MinDate.AddDate(0, 0, i))
	}
	return days
}

// DaysBetween counts whole days between a and b, rounding partial days up.
// Order does not matter.
func DaysBetween(a, b time.Time) int {
	d := b.Sub(a)
	if d < 0 {
		d = -d
	}
	return int(math.Ceil(float64(d) / float64(day)))
}

// Select returns the tasks of one project that belong on a chart. Cancelled
// tasks are left out.
func Select(tasks []store.Task, projectID string) []store.Task {
	var out []store.Task
	for _, t := range tasks {
		if t.ProjectID == projectID && t.Status != store.StatusCancelled {
			out = append(out, t)
		}
	}
	return out
}

// Compute lays out tasks in input order. A task without a start begins at
// opts.Now; one without an end runs a week past its start.
func Compute(tasks []store.Task, opts Options) Layout {
	opts = opts.withDefaults()

	bars := make([]Bar, 0, len(tasks))
	var minDate, maxDate time.Time
	for i, t := range tasks {
		start := opts.Now
		if t.StartDate != nil {
			start = *t.StartDate
		}
		end := start.AddDate(0, 0, defaultTaskDays)
		if t.EndDate != nil {
			end = *t.EndDate
		}
		bars = append(bars, Bar{Task: t, Start: start, End: end})

		if i == 0 {
			minDate, maxDate = start, start
		}
		for _, d := range []time.Time{start, end} {
			if d.Before(minDate) {
				minDate = d
			}
			if d.After(maxDate) {
				maxDate = d
			}
		}
	}
	if len(tasks) == 0 {
		minDate = opts.Now
		maxDate = opts.Now.AddDate(0, 0, emptyWindowDays)
	}

	l := Layout{
		MinDate:   minDate,
		MaxDate:   maxDate,
		TotalDays: DaysBetween(minDate, maxDate) + 1,
	}
	l.DayWidth = math.Max(opts.MinDayWidth, opts.ChartWidth/float64(l.TotalDays))
	l.Width = float64(l.TotalDays) * l.DayWidth

	for i := range bars {
		b := &bars[i]
		b.OffsetDays = DaysBetween(minDate, b.Start)
		b.DurationDays = DaysBetween(b.Start, b.End) + 1
		b.Left = float64(b.OffsetDays) * l.DayWidth
		b.Width = math.Max(float64(b.DurationDays)*l.DayWidth, l.DayWidth/2)
	}
	l.Bars = bars

	if !opts.Now.Before(minDate) && !opts.Now.After(maxDate) {
		l.TodayVisible = true
		l.TodayOffset = float64(DaysBetween(minDate, opts.Now)) * l.DayWidth
	}
	return l
}
