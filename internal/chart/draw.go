package chart

import (
	"fmt"
	"time"

	"github.com/hylla/gantry/internal/domain"
	"github.com/hylla/gantry/internal/visual"
)

const arrowHead = 5

// Draw paints the frame: grid, calendar header, today highlight, dependency
// arrows, then one group per task.
func (f Frame) Draw(c visual.Canvas) {
	f.drawGrid(c)
	f.drawCalendar(c)
	f.drawToday(c)
	f.drawArrows(c)
	for _, item := range f.Items {
		f.DrawItem(c, item)
	}
}

// DrawItem paints one task: its variant visual plus the label node. The label
// is always emitted; hidden labels carry Hidden so hosts can still measure them.
func (f Frame) DrawItem(c visual.Canvas, item Item) {
	c.BeginGroup(visual.Group{ID: item.Bar.Task.ID, Class: "bar-wrapper"})
	f.selector.Render(c, visual.Item{
		Bar:                item.Bar,
		Selected:           item.Selected,
		DateChangeable:     f.cfg.DateChangeable && !item.Bar.Task.IsDisabled,
		ProgressChangeable: f.cfg.ProgressChangeable && !item.Bar.Task.IsDisabled,
		RightToLeft:        f.cfg.Layout.RightToLeft,
		Palette:            f.cfg.Palette,
	})
	c.Text(item.Label)
	c.EndGroup()
}

func (f Frame) drawGrid(c visual.Canvas) {
	palette := f.cfg.Palette
	c.BeginGroup(visual.Group{Class: "grid"})
	rowHeight := f.Layout.RowHeight
	for i := range f.Items {
		fill := palette.GridRow
		if i%2 == 1 {
			fill = palette.GridRowAlt
		}
		y := f.HeaderHeight + float64(i)*rowHeight
		c.Rect(visual.Rect{X: 0, Y: y, Width: f.Width, Height: rowHeight, Fill: fill, Class: "grid-row"})
		c.Line(visual.Line{
			Points:      []visual.Point{{X: 0, Y: y + rowHeight}, {X: f.Width, Y: y + rowHeight}},
			Stroke:      palette.GridLine,
			StrokeWidth: 1,
			Class:       "grid-row-line",
		})
	}
	for i := range f.Layout.Columns {
		x := float64(i) * f.Layout.ColumnWidth
		c.Line(visual.Line{
			Points:      []visual.Point{{X: x, Y: f.HeaderHeight}, {X: x, Y: f.Height}},
			Stroke:      palette.GridLine,
			StrokeWidth: 1,
			Class:       "grid-tick",
		})
	}
	c.EndGroup()
}

func (f Frame) drawCalendar(c visual.Canvas) {
	if f.HeaderHeight <= 0 || len(f.Layout.Columns) == 0 {
		return
	}
	palette := f.cfg.Palette
	c.BeginGroup(visual.Group{Class: "calendar"})
	c.Rect(visual.Rect{X: 0, Y: 0, Width: f.Width, Height: f.HeaderHeight, Fill: palette.Header, Class: "calendar-header"})

	width := f.Layout.ColumnWidth
	lastTop := ""
	for i, col := range f.Layout.Columns {
		x := f.columnLeft(i)
		top, bottom := HeaderLabels(f.Layout.ViewMode, col)
		c.Text(visual.Text{
			X:        x + width*0.5,
			Y:        f.HeaderHeight * 0.8,
			Content:  bottom,
			Anchor:   domain.AnchorMiddle,
			FontSize: f.cfg.FontSize,
			Fill:     palette.HeaderText,
			Class:    "calendar-bottom-text",
		})
		if top != "" && top != lastTop {
			c.Line(visual.Line{
				Points:      []visual.Point{{X: x, Y: 0}, {X: x, Y: f.HeaderHeight * 0.5}},
				Stroke:      palette.GridLine,
				StrokeWidth: 1,
				Class:       "calendar-top-tick",
			})
			c.Text(visual.Text{
				X:        x + 4,
				Y:        f.HeaderHeight * 0.4,
				Content:  top,
				Anchor:   domain.AnchorStart,
				FontSize: f.cfg.FontSize,
				Fill:     palette.HeaderText,
				Class:    "calendar-top-text",
			})
			lastTop = top
		}
	}
	c.EndGroup()
}

// columnLeft returns the left edge of column i, mirrored for right-to-left charts.
func (f Frame) columnLeft(i int) float64 {
	width := f.Layout.ColumnWidth
	if f.Layout.RightToLeft {
		return f.Width - float64(i+1)*width
	}
	return float64(i) * width
}

func (f Frame) drawToday(c visual.Canvas) {
	idx, ok := f.todayColumn()
	if !ok {
		return
	}
	c.Rect(visual.Rect{
		X:      f.columnLeft(idx),
		Y:      f.HeaderHeight,
		Width:  f.Layout.ColumnWidth,
		Height: f.Height - f.HeaderHeight,
		Fill:   f.cfg.Palette.Today,
		Class:  "today",
	})
}

func (f Frame) todayColumn() (int, bool) {
	if f.Now.IsZero() || !f.Layout.Contains(f.Now) {
		return 0, false
	}
	now := f.Now.UTC()
	for i := len(f.Layout.Columns) - 1; i >= 0; i-- {
		if !now.Before(f.Layout.Columns[i]) {
			return i, true
		}
	}
	return 0, false
}

func (f Frame) drawArrows(c visual.Canvas) {
	byID := make(map[string]domain.BarTask, len(f.Items))
	for _, item := range f.Items {
		byID[item.Bar.Task.ID] = item.Bar
	}
	c.BeginGroup(visual.Group{Class: "arrows"})
	for _, item := range f.Items {
		for _, childID := range item.Bar.BarChildren {
			child, ok := byID[childID]
			if !ok {
				continue
			}
			path, head := ArrowPath(item.Bar, child, f.Layout.RowHeight, f.Layout.TaskHeight, f.cfg.ArrowIndent, f.cfg.Layout.RightToLeft)
			c.Line(visual.Line{Points: path, Stroke: f.cfg.Palette.Arrow, StrokeWidth: 1.5, Class: "arrow"})
			c.Polygon(visual.Polygon{Points: head, Fill: f.cfg.Palette.Arrow, Class: "arrow-head"})
		}
	}
	c.EndGroup()
}

// ArrowPath routes a dependency arrow from the end of from to the start of to.
// It returns the polyline and the arrow head triangle.
func ArrowPath(from, to domain.BarTask, rowHeight, taskHeight, indent float64, rtl bool) ([]visual.Point, []visual.Point) {
	dir := 1.0
	if from.Index > to.Index {
		dir = -1
	}
	fromY := from.Y + taskHeight*0.5
	toY := to.Y + taskHeight*0.5

	if rtl {
		startX := from.X1
		path := []visual.Point{{X: startX, Y: fromY}, {X: startX - indent, Y: fromY}}
		path = append(path, visual.Point{X: startX - indent, Y: fromY + dir*rowHeight*0.5})
		if startX-indent*2 <= to.X2 {
			path = append(path, visual.Point{X: to.X2 + indent, Y: fromY + dir*rowHeight*0.5})
		}
		last := path[len(path)-1]
		path = append(path, visual.Point{X: last.X, Y: toY}, visual.Point{X: to.X2, Y: toY})
		head := []visual.Point{{X: to.X2, Y: toY}, {X: to.X2 + arrowHead, Y: toY - arrowHead}, {X: to.X2 + arrowHead, Y: toY + arrowHead}}
		return path, head
	}

	startX := from.X2
	path := []visual.Point{{X: startX, Y: fromY}, {X: startX + indent, Y: fromY}}
	path = append(path, visual.Point{X: startX + indent, Y: fromY + dir*rowHeight*0.5})
	if startX+indent*2 >= to.X1 {
		path = append(path, visual.Point{X: to.X1 - indent, Y: fromY + dir*rowHeight*0.5})
	}
	last := path[len(path)-1]
	path = append(path, visual.Point{X: last.X, Y: toY}, visual.Point{X: to.X1, Y: toY})
	head := []visual.Point{{X: to.X1, Y: toY}, {X: to.X1 - arrowHead, Y: toY - arrowHead}, {X: to.X1 - arrowHead, Y: toY + arrowHead}}
	return path, head
}

// HeaderLabels returns the upper and lower calendar captions for the column
// starting at t. The upper caption is drawn once per change.
func HeaderLabels(mode domain.ViewMode, t time.Time) (string, string) {
	switch mode {
	case domain.ViewModeYear:
		return "", t.Format("2006")
	case domain.ViewModeMonth:
		return t.Format("2006"), t.Format("January")
	case domain.ViewModeWeek:
		_, week := t.ISOWeek()
		return t.Format("January 2006"), fmt.Sprintf("W%02d", week)
	case domain.ViewModeHour, domain.ViewModeQuarterDay, domain.ViewModeHalfDay:
		return t.Format("Mon 2 January"), t.Format("15:04")
	default:
		return t.Format("January 2006"), t.Format("Mon, 2")
	}
}
