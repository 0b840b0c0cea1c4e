// Package layout turns scheduled tasks into bar geometry on a time axis.
package layout

import (
	"cmp"
	"slices"
	"time"

	"github.com/hylla/gantry/internal/domain"
)

// Options controls the chart geometry.
type Options struct {
	ViewMode    domain.ViewMode
	ColumnWidth float64
	// ColumnWidths overrides ColumnWidth for individual view modes.
	ColumnWidths map[domain.ViewMode]float64
	RowHeight    float64
	// BarFill is the bar height as a percentage of the row height.
	BarFill      float64
	HandleWidth  float64
	CornerRadius float64
	RightToLeft  bool
	// PreSteps is how many columns of padding precede the earliest task.
	PreSteps int
}

// DefaultOptions returns the stock geometry.
func DefaultOptions() Options {
	return Options{
		ViewMode:     domain.ViewModeDay,
		ColumnWidth:  60,
		RowHeight:    50,
		BarFill:      60,
		HandleWidth:  8,
		CornerRadius: 3,
		PreSteps:     1,
	}
}

func (o Options) normalized() Options {
	def := DefaultOptions()
	if o.ViewMode == "" {
		o.ViewMode = def.ViewMode
	}
	if o.ColumnWidth <= 0 {
		o.ColumnWidth = def.ColumnWidth
	}
	if w, ok := o.ColumnWidths[o.ViewMode]; ok && w > 0 {
		o.ColumnWidth = w
	}
	if o.RowHeight <= 0 {
		o.RowHeight = def.RowHeight
	}
	if o.BarFill <= 0 || o.BarFill > 100 {
		o.BarFill = def.BarFill
	}
	if o.HandleWidth < 0 {
		o.HandleWidth = def.HandleWidth
	}
	if o.CornerRadius < 0 {
		o.CornerRadius = def.CornerRadius
	}
	if o.PreSteps < 0 {
		o.PreSteps = 0
	}
	return o
}

// TaskHeight returns the bar height inside one row.
func (o Options) TaskHeight() float64 {
	o = o.normalized()
	return o.RowHeight * o.BarFill / 100
}

// Result is a laid out chart.
type Result struct {
	Bars        []domain.BarTask
	Columns     []time.Time
	Start       time.Time
	End         time.Time
	ViewMode    domain.ViewMode
	ColumnWidth float64
	RowHeight   float64
	TaskHeight  float64
	RightToLeft bool
	Width       float64
	Height      float64
}

// XFor returns the x coordinate of t on the chart axis.
func (r Result) XFor(t time.Time) float64 {
	x := columnX(t, r.Columns, r.ViewMode, r.ColumnWidth)
	if r.RightToLeft {
		return r.Width - x
	}
	return x
}

// Contains reports whether t falls inside the chart range.
func (r Result) Contains(t time.Time) bool {
	return !t.Before(r.Start) && t.Before(r.End)
}

// Compute lays out tasks. Rows are ordered by display order then start date.
// Children of collapsed project rows are skipped and unscheduled rows are
// dropped.
func Compute(tasks []domain.Task, opts Options) Result {
	opts = opts.normalized()
	taskHeight := opts.RowHeight * opts.BarFill / 100
	result := Result{
		ViewMode:    opts.ViewMode,
		ColumnWidth: opts.ColumnWidth,
		RowHeight:   opts.RowHeight,
		TaskHeight:  taskHeight,
		RightToLeft: opts.RightToLeft,
	}

	rows := visibleRows(tasks)
	if len(rows) == 0 {
		return result
	}
	result.Start, result.End = DateRange(rows, opts.ViewMode, opts.PreSteps)
	result.Columns = SeedDates(result.Start, result.End, opts.ViewMode)
	result.Width = float64(len(result.Columns)) * opts.ColumnWidth
	result.Height = float64(len(rows)) * opts.RowHeight

	children := map[string][]string{}
	for _, task := range rows {
		for _, dep := range task.Dependencies {
			children[dep] = append(children[dep], task.ID)
		}
	}

	result.Bars = make([]domain.BarTask, 0, len(rows))
	for i, task := range rows {
		bar := domain.BarTask{
			Task:         task,
			Index:        i,
			TypeInternal: domain.BarType(task.Type),
			Y:            float64(i)*opts.RowHeight + (opts.RowHeight-taskHeight)/2,
			Height:       taskHeight,
			CornerRadius: opts.CornerRadius,
			HandleWidth:  opts.HandleWidth,
			BarChildren:  children[task.ID],
		}
		if task.Type == domain.TaskTypeMilestone {
			x := result.XFor(task.Start)
			bar.X1 = x - taskHeight*0.5
			bar.X2 = x + taskHeight*0.5
		} else {
			bar.X1 = result.XFor(task.Start)
			bar.X2 = result.XFor(task.End)
			if opts.RightToLeft {
				bar.X1, bar.X2 = bar.X2, bar.X1
			}
			if task.Type == domain.TaskTypeTask && bar.X2-bar.X1 < opts.HandleWidth*2 {
				bar.TypeInternal = domain.BarTypeSmallTask
				bar.X2 = bar.X1 + opts.HandleWidth*2
			}
			bar.ProgressWidth = (bar.X2 - bar.X1) * task.Progress * 0.01
			bar.ProgressX = bar.X1
			if opts.RightToLeft {
				bar.ProgressX = bar.X2 - bar.ProgressWidth
			}
		}
		result.Bars = append(result.Bars, bar)
	}
	return result
}

// visibleRows sorts tasks, fills project spans from their children, hides the
// children of collapsed projects and drops rows that still lack a schedule.
func visibleRows(tasks []domain.Task) []domain.Task {
	sorted := slices.Clone(tasks)
	slices.SortStableFunc(sorted, func(a, b domain.Task) int {
		if c := cmp.Compare(a.DisplayOrder, b.DisplayOrder); c != 0 {
			return c
		}
		if c := a.Start.Compare(b.Start); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})

	byID := make(map[string]domain.Task, len(sorted))
	for _, task := range sorted {
		byID[task.ID] = task
	}
	for i, task := range sorted {
		if task.Type == domain.TaskTypeProject && !task.HasSchedule() {
			if start, end, ok := childSpan(task.ID, sorted); ok {
				sorted[i].Start, sorted[i].End = start, end
			}
		}
	}

	out := make([]domain.Task, 0, len(sorted))
	for _, task := range sorted {
		if !task.HasSchedule() || collapsedAncestor(task, byID) {
			continue
		}
		out = append(out, task)
	}
	return out
}

func childSpan(parentID string, tasks []domain.Task) (time.Time, time.Time, bool) {
	var start, end time.Time
	found := false
	for _, task := range tasks {
		if task.ParentID != parentID || !task.HasSchedule() {
			continue
		}
		if !found || task.Start.Before(start) {
			start = task.Start
		}
		if !found || task.End.After(end) {
			end = task.End
		}
		found = true
	}
	return start, end, found
}

func collapsedAncestor(task domain.Task, byID map[string]domain.Task) bool {
	seen := map[string]struct{}{task.ID: {}}
	for parentID := task.ParentID; parentID != ""; {
		if _, loop := seen[parentID]; loop {
			return false
		}
		seen[parentID] = struct{}{}
		parent, ok := byID[parentID]
		if !ok {
			return false
		}
		if parent.HideChildren {
			return true
		}
		parentID = parent.ParentID
	}
	return false
}
