package layout

import (
	"time"

	"github.com/hylla/gantry/internal/domain"
)

// DateRange returns the padded chart range covering every scheduled task.
func DateRange(tasks []domain.Task, mode domain.ViewMode, preSteps int) (time.Time, time.Time) {
	var minStart, maxEnd time.Time
	for i, task := range tasks {
		if i == 0 || task.Start.Before(minStart) {
			minStart = task.Start
		}
		if i == 0 || task.End.After(maxEnd) {
			maxEnd = task.End
		}
	}
	minStart = minStart.UTC()
	maxEnd = maxEnd.UTC()

	switch mode {
	case domain.ViewModeYear:
		start := startOfYear(minStart).AddDate(-preSteps, 0, 0)
		return start, startOfYear(maxEnd).AddDate(1, 0, 0)
	case domain.ViewModeMonth:
		start := startOfMonth(minStart).AddDate(0, -preSteps, 0)
		return start, startOfYear(maxEnd).AddDate(1, 0, 0)
	case domain.ViewModeWeek:
		start := startOfWeek(minStart).AddDate(0, 0, -7*preSteps)
		return start, startOfDay(maxEnd).AddDate(0, 1, 15)
	case domain.ViewModeQuarterDay:
		start := startOfDay(minStart).AddDate(0, 0, -preSteps)
		return start, startOfDay(maxEnd).Add(66 * time.Hour)
	case domain.ViewModeHalfDay:
		start := startOfDay(minStart).AddDate(0, 0, -preSteps)
		return start, startOfDay(maxEnd).Add(108 * time.Hour)
	case domain.ViewModeHour:
		start := minStart.Truncate(time.Hour).Add(-time.Duration(preSteps) * time.Hour)
		return start, startOfDay(maxEnd).AddDate(0, 0, 1)
	default:
		start := startOfDay(minStart).AddDate(0, 0, -preSteps)
		return start, startOfDay(maxEnd).AddDate(0, 0, 19)
	}
}

// SeedDates returns the start of every column in [start, end).
func SeedDates(start, end time.Time, mode domain.ViewMode) []time.Time {
	out := []time.Time{}
	for cur := start; cur.Before(end); cur = Step(cur, mode) {
		out = append(out, cur)
	}
	return out
}

// Step advances t by one column of mode.
func Step(t time.Time, mode domain.ViewMode) time.Time {
	switch mode {
	case domain.ViewModeYear:
		return t.AddDate(1, 0, 0)
	case domain.ViewModeMonth:
		return t.AddDate(0, 1, 0)
	case domain.ViewModeWeek:
		return t.AddDate(0, 0, 7)
	case domain.ViewModeHalfDay:
		return t.Add(12 * time.Hour)
	case domain.ViewModeQuarterDay:
		return t.Add(6 * time.Hour)
	case domain.ViewModeHour:
		return t.Add(time.Hour)
	default:
		return t.AddDate(0, 0, 1)
	}
}

// columnX interpolates t inside the column that contains it. Times before the
// first column clamp to 0 and times after the last column extrapolate.
func columnX(t time.Time, columns []time.Time, mode domain.ViewMode, width float64) float64 {
	if len(columns) == 0 {
		return 0
	}
	t = t.UTC()
	if t.Before(columns[0]) {
		return 0
	}
	idx := 0
	for i := len(columns) - 1; i >= 0; i-- {
		if !t.Before(columns[i]) {
			idx = i
			break
		}
	}
	colStart := columns[idx]
	colEnd := Step(colStart, mode)
	span := colEnd.Sub(colStart)
	if span <= 0 {
		return float64(idx) * width
	}
	frac := float64(t.Sub(colStart)) / float64(span)
	return float64(idx)*width + frac*width
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func startOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

func startOfYear(t time.Time) time.Time {
	return time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
}

// startOfWeek returns the Monday of t's week.
func startOfWeek(t time.Time) time.Time {
	day := startOfDay(t)
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}
