package domain

import (
	"slices"
	"strings"
)

// ViewMode is the time granularity of one chart column.
type ViewMode string

const (
	ViewModeHour       ViewMode = "hour"
	ViewModeQuarterDay ViewMode = "quarter_day"
	ViewModeHalfDay    ViewMode = "half_day"
	ViewModeDay        ViewMode = "day"
	ViewModeWeek       ViewMode = "week"
	ViewModeMonth      ViewMode = "month"
	ViewModeYear       ViewMode = "year"
)

var viewModes = []ViewMode{
	ViewModeHour,
	ViewModeQuarterDay,
	ViewModeHalfDay,
	ViewModeDay,
	ViewModeWeek,
	ViewModeMonth,
	ViewModeYear,
}

// ViewModes returns all view modes from finest to coarsest.
func ViewModes() []ViewMode {
	return slices.Clone(viewModes)
}

func ParseViewMode(raw string) (ViewMode, error) {
	v := strings.ToLower(strings.TrimSpace(raw))
	v = strings.NewReplacer("-", "_", " ", "_").Replace(v)
	if v == "" {
		return ViewModeDay, nil
	}
	mode := ViewMode(v)
	if !slices.Contains(viewModes, mode) {
		return "", ErrInvalidViewMode
	}
	return mode, nil
}

// Next returns the following coarser view mode, wrapping to the finest.
func (v ViewMode) Next() ViewMode {
	idx := slices.Index(viewModes, v)
	if idx < 0 {
		return ViewModeDay
	}
	return viewModes[(idx+1)%len(viewModes)]
}
