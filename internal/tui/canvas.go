package tui

import (
	"math"
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/x/ansi"
	"github.com/hylla/gantry/internal/domain"
	"github.com/hylla/gantry/internal/visual"
)

// Default chart units covered by one terminal cell.
const (
	defaultCellWidth  = 6
	defaultCellHeight = 25
)

// cell is one rasterized terminal cell. A zero ch marks the trailing half of
// a wide rune.
type cell struct {
	ch rune
	fg string
	bg string
}

// cellCanvas rasterizes chart shapes onto a cols x rows grid of terminal cells
// starting at the chart offset (offX, offY), given in cells.
type cellCanvas struct {
	cols, rows int
	cellW      float64
	cellH      float64
	offX       int
	offY       int
	cells      [][]cell
	styles     map[[2]string]lipgloss.Style
}

func newCellCanvas(cols, rows int, cellW, cellH float64, offX, offY int) *cellCanvas {
	cols = max(cols, 0)
	rows = max(rows, 0)
	if cellW <= 0 {
		cellW = defaultCellWidth
	}
	if cellH <= 0 {
		cellH = defaultCellHeight
	}
	cells := make([][]cell, rows)
	for r := range cells {
		cells[r] = make([]cell, cols)
		for c := range cells[r] {
			cells[r][c] = cell{ch: ' '}
		}
	}
	return &cellCanvas{
		cols:   cols,
		rows:   rows,
		cellW:  cellW,
		cellH:  cellH,
		offX:   offX,
		offY:   offY,
		cells:  cells,
		styles: map[[2]string]lipgloss.Style{},
	}
}

func (c *cellCanvas) BeginGroup(visual.Group) {}
func (c *cellCanvas) EndGroup() {}

// Rect paints the background of every cell whose center lies inside r.
func (c *cellCanvas) Rect(r visual.Rect) {
	if r.Width <= 0 || r.Height <= 0 {
		return
	}
	bg := visual.BlendOverWhite(r.Fill)
	c0, c1 := c.span(r.X, r.X+r.Width, c.cellW)
	r0, r1 := c.span(r.Y, r.Y+r.Height, c.cellH)
	for row := r0; row < r1; row++ {
		for col := c0; col < c1; col++ {
			c.paint(col-c.offX, row-c.offY, bg)
		}
	}
}

// Polygon paints cells whose centers fall inside p. Shapes smaller than a
// cell still paint the cell under their centroid.
func (c *cellCanvas) Polygon(p visual.Polygon) {
	if len(p.Points) < 3 {
		return
	}
	bg := visual.BlendOverWhite(p.Fill)
	minX, minY, maxX, maxY := bounds(p.Points)
	c0 := int(math.Floor(minX / c.cellW))
	c1 := int(math.Ceil(maxX / c.cellW))
	r0 := int(math.Floor(minY / c.cellH))
	r1 := int(math.Ceil(maxY / c.cellH))
	painted := false
	for row := r0; row < r1; row++ {
		for col := c0; col < c1; col++ {
			cx := (float64(col) + 0.5) * c.cellW
			cy := (float64(row) + 0.5) * c.cellH
			if pointInPolygon(p.Points, cx, cy) {
				c.paint(col-c.offX, row-c.offY, bg)
				painted = true
			}
		}
	}
	if !painted {
		var sx, sy float64
		for _, pt := range p.Points {
			sx += pt.X
			sy += pt.Y
		}
		n := float64(len(p.Points))
		col := int(math.Floor(sx / n / c.cellW))
		row := int(math.Floor(sy / n / c.cellH))
		c.paint(col-c.offX, row-c.offY, bg)
	}
}

// Line draws box characters along each segment. Grid lines are skipped; the
// alternating row backgrounds already separate rows.
func (c *cellCanvas) Line(l visual.Line) {
	if strings.HasPrefix(l.Class, "grid") || len(l.Points) < 2 {
		return
	}
	fg := visual.BlendOverWhite(l.Stroke)
	for i := 1; i < len(l.Points); i++ {
		a, b := l.Points[i-1], l.Points[i]
		ch := '·'
		switch {
		case a.Y == b.Y:
			ch = '─'
		case a.X == b.X:
			ch = '│'
		}
		c.segment(a, b, ch, fg)
	}
}

// Text writes t starting at its anchor. Hidden labels are not drawn.
func (c *cellCanvas) Text(t visual.Text) {
	if t.Hidden || t.Content == "" {
		return
	}
	fg := visual.BlendOverWhite(t.Fill)
	width := float64(ansi.StringWidth(t.Content))
	start := t.X / c.cellW
	if t.Anchor == domain.AnchorMiddle {
		start -= width / 2
	}
	col := int(math.Round(start)) - c.offX
	row := int(math.Floor(t.Y/c.cellH)) - c.offY
	if row < 0 || row >= c.rows {
		return
	}
	for _, r := range t.Content {
		w := ansi.StringWidth(string(r))
		if w <= 0 {
			continue
		}
		if col >= 0 && col+w <= c.cols {
			c.cells[row][col].ch = r
			c.cells[row][col].fg = fg
			for extra := 1; extra < w; extra++ {
				c.cells[row][col+extra].ch = 0
				c.cells[row][col+extra].fg = fg
			}
		}
		col += w
	}
}

// span converts [from, to) in chart units to the covered cell range, by cell
// center.
func (c *cellCanvas) span(from, to, unit float64) (int, int) {
	lo := int(math.Ceil(from/unit - 0.5))
	hi := int(math.Ceil(to/unit - 0.5))
	if hi <= lo {
		hi = lo + 1
	}
	return lo, hi
}

func (c *cellCanvas) paint(col, row int, bg string) {
	if row < 0 || row >= c.rows || col < 0 || col >= c.cols {
		return
	}
	c.cells[row][col].bg = bg
}

func (c *cellCanvas) segment(a, b visual.Point, ch rune, fg string) {
	x0 := int(math.Floor(a.X/c.cellW)) - c.offX
	y0 := int(math.Floor(a.Y/c.cellH)) - c.offY
	x1 := int(math.Floor(b.X/c.cellW)) - c.offX
	y1 := int(math.Floor(b.Y/c.cellH)) - c.offY
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	e := dx + dy
	for {
		if y0 >= 0 && y0 < c.rows && x0 >= 0 && x0 < c.cols {
			target := &c.cells[y0][x0]
			if target.ch == ' ' || target.ch == '─' || target.ch == '│' || target.ch == '·' {
				target.ch = ch
				target.fg = fg
			}
		}
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

// String renders the grid with colors.
func (c *cellCanvas) String() string {
	lines := make([]string, 0, c.rows)
	for _, row := range c.cells {
		var b strings.Builder
		var run strings.Builder
		runKey := [2]string{}
		flush := func() {
			if run.Len() == 0 {
				return
			}
			b.WriteString(c.style(runKey).Render(run.String()))
			run.Reset()
		}
		for i, cl := range row {
			if cl.ch == 0 {
				continue
			}
			key := [2]string{cl.fg, cl.bg}
			if i == 0 || key != runKey {
				flush()
				runKey = key
			}
			run.WriteRune(cl.ch)
		}
		flush()
		lines = append(lines, b.String())
	}
	return strings.Join(lines, "\n")
}

// Plain renders the grid without colors.
func (c *cellCanvas) Plain() string {
	lines := make([]string, 0, c.rows)
	for _, row := range c.cells {
		var b strings.Builder
		for _, cl := range row {
			if cl.ch != 0 {
				b.WriteRune(cl.ch)
			}
		}
		lines = append(lines, strings.TrimRight(b.String(), " "))
	}
	return strings.Join(lines, "\n")
}

func (c *cellCanvas) style(key [2]string) lipgloss.Style {
	if s, ok := c.styles[key]; ok {
		return s
	}
	s := lipgloss.NewStyle()
	if key[0] != "" {
		s = s.Foreground(lipgloss.Color(key[0]))
	}
	if key[1] != "" {
		s = s.Background(lipgloss.Color(key[1]))
	}
	c.styles[key] = s
	return s
}

func bounds(points []visual.Point) (float64, float64, float64, float64) {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range points {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	return minX, minY, maxX, maxY
}

// pointInPolygon is the even-odd ray casting test.
func pointInPolygon(points []visual.Point, x, y float64) bool {
	inside := false
	j := len(points) - 1
	for i := range points {
		pi, pj := points[i], points[j]
		if (pi.Y > y) != (pj.Y > y) && x < (pj.X-pi.X)*(y-pi.Y)/(pj.Y-pi.Y)+pi.X {
			inside = !inside
		}
		j = i
	}
	return inside
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
