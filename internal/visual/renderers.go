package visual

import "math"

const (
	// projectTriangleWidth is the width of the end caps on project bars.
	projectTriangleWidth = 15
	progressHandleHalf   = 5
	progressHandleHeight = 8.66
)

func renderBar(c Canvas, item Item) {
	drawBarDisplay(c, item, item.Palette.Bar)
	bar := item.Bar
	if item.DateChangeable {
		handleHeight := bar.Height - 2
		c.Rect(Rect{
			X:      bar.X1 + 1,
			Y:      bar.Y + 1,
			Width:  bar.HandleWidth,
			Height: handleHeight,
			Radius: bar.CornerRadius,
			Fill:   item.Palette.Handle,
			Class:  "bar-handle",
		})
		c.Rect(Rect{
			X:      bar.X2 - bar.HandleWidth - 1,
			Y:      bar.Y + 1,
			Width:  bar.HandleWidth,
			Height: handleHeight,
			Radius: bar.CornerRadius,
			Fill:   item.Palette.Handle,
			Class:  "bar-handle",
		})
	}
	if item.ProgressChangeable {
		drawProgressHandle(c, item)
	}
}

// renderSmallBar draws a bar too narrow for date handles.
func renderSmallBar(c Canvas, item Item) {
	drawBarDisplay(c, item, item.Palette.Bar)
	if item.ProgressChangeable {
		drawProgressHandle(c, item)
	}
}

// renderMilestone draws a diamond centered on the bar span.
func renderMilestone(c Canvas, item Item) {
	bar := item.Bar
	cx := (bar.X1 + bar.X2) / 2
	half := bar.Height / 2
	c.Polygon(Polygon{
		Points: []Point{
			{X: cx, Y: bar.Y},
			{X: cx + half, Y: bar.Y + half},
			{X: cx, Y: bar.Y + bar.Height},
			{X: cx - half, Y: bar.Y + half},
		},
		Fill:  item.Palette.Milestone.BackgroundFor(item.Selected),
		Class: "milestone-background",
	})
}

func renderProject(c Canvas, item Item) {
	bar := item.Bar
	colors := item.Palette.Project
	fill := colors.BackgroundFor(item.Selected)
	width := math.Max(bar.X2-bar.X1, 0)
	c.Rect(Rect{X: bar.X1, Y: bar.Y, Width: width, Height: bar.Height, Radius: bar.CornerRadius, Fill: fill, Class: "project-background"})
	c.Rect(Rect{X: bar.ProgressX, Y: bar.Y, Width: bar.ProgressWidth, Height: bar.Height, Radius: bar.CornerRadius, Fill: colors.ProgressFor(item.Selected)})
	c.Rect(Rect{X: bar.X1, Y: bar.Y, Width: width, Height: bar.Height / 2, Radius: bar.CornerRadius, Fill: fill, Class: "project-top"})

	mid := bar.Y + bar.Height/2 - 1
	bottom := bar.Y + bar.Height
	c.Polygon(Polygon{
		Points: []Point{{X: bar.X1, Y: mid}, {X: bar.X1, Y: bottom}, {X: bar.X1 + projectTriangleWidth, Y: mid}},
		Fill:   fill,
		Class:  "project-top",
	})
	c.Polygon(Polygon{
		Points: []Point{{X: bar.X2, Y: mid}, {X: bar.X2, Y: bottom}, {X: bar.X2 - projectTriangleWidth, Y: mid}},
		Fill:   fill,
		Class:  "project-top",
	})
}

func drawBarDisplay(c Canvas, item Item, colors Colors) {
	bar := item.Bar
	c.Rect(Rect{
		X:      bar.X1,
		Y:      bar.Y,
		Width:  math.Max(bar.X2-bar.X1, 0),
		Height: bar.Height,
		Radius: bar.CornerRadius,
		Fill:   colors.BackgroundFor(item.Selected),
		Class:  "bar-background",
	})
	c.Rect(Rect{
		X:      bar.ProgressX,
		Y:      bar.Y,
		Width:  bar.ProgressWidth,
		Height: bar.Height,
		Radius: bar.CornerRadius,
		Fill:   colors.ProgressFor(item.Selected),
	})
}

// drawProgressHandle draws the triangle under the progress edge, which sits at
// the left end of the progress rect in right-to-left charts.
func drawProgressHandle(c Canvas, item Item) {
	bar := item.Bar
	x := bar.ProgressX + bar.ProgressWidth
	if item.RightToLeft {
		x = bar.ProgressX
	}
	bottom := bar.Y + bar.Height
	c.Polygon(Polygon{
		Points: []Point{
			{X: x - progressHandleHalf, Y: bottom},
			{X: x + progressHandleHalf, Y: bottom},
			{X: x, Y: bottom - progressHandleHeight},
		},
		Fill:  item.Palette.Handle,
		Class: "bar-handle",
	})
}
