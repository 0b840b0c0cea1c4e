// Package svg renders chart frames as standalone SVG documents.
package svg

import (
	"fmt"
	"html"
	"io"
	"strconv"
	"strings"

	"github.com/hylla/gantry/internal/chart"
	"github.com/hylla/gantry/internal/visual"
)

// Canvas writes visual primitives as SVG elements.
type Canvas struct {
	b     strings.Builder
	depth int
}

// NewCanvas returns an empty canvas.
func NewCanvas() *Canvas {
	return &Canvas{}
}

// String returns the markup written so far.
func (c *Canvas) String() string {
	return c.b.String()
}

func (c *Canvas) indent() {
	c.b.WriteString(strings.Repeat("  ", c.depth+1))
}

// BeginGroup implements visual.Canvas.
func (c *Canvas) BeginGroup(g visual.Group) {
	c.indent()
	c.b.WriteString("<g")
	writeAttr(&c.b, "data-task-id", g.ID)
	writeAttr(&c.b, "class", g.Class)
	if g.ID != "" {
		c.b.WriteString(` tabindex="0"`)
	}
	c.b.WriteString(">\n")
	c.depth++
}

// EndGroup implements visual.Canvas.
func (c *Canvas) EndGroup() {
	if c.depth > 0 {
		c.depth--
	}
	c.indent()
	c.b.WriteString("</g>\n")
}

// Rect implements visual.Canvas.
func (c *Canvas) Rect(r visual.Rect) {
	c.indent()
	fmt.Fprintf(&c.b, `<rect x="%s" y="%s" width="%s" height="%s"`, num(r.X), num(r.Y), num(max(r.Width, 0)), num(max(r.Height, 0)))
	if r.Radius > 0 {
		fmt.Fprintf(&c.b, ` rx="%s" ry="%s"`, num(r.Radius), num(r.Radius))
	}
	writeAttr(&c.b, "fill", r.Fill)
	writeAttr(&c.b, "class", r.Class)
	c.b.WriteString("/>\n")
}

// Polygon implements visual.Canvas.
func (c *Canvas) Polygon(p visual.Polygon) {
	c.indent()
	fmt.Fprintf(&c.b, `<polygon points="%s"`, points(p.Points))
	writeAttr(&c.b, "fill", p.Fill)
	writeAttr(&c.b, "class", p.Class)
	c.b.WriteString("/>\n")
}

// Line implements visual.Canvas. Two points become a line, more a polyline.
func (c *Canvas) Line(l visual.Line) {
	if len(l.Points) < 2 {
		return
	}
	c.indent()
	if len(l.Points) == 2 {
		a, b := l.Points[0], l.Points[1]
		fmt.Fprintf(&c.b, `<line x1="%s" y1="%s" x2="%s" y2="%s"`, num(a.X), num(a.Y), num(b.X), num(b.Y))
	} else {
		fmt.Fprintf(&c.b, `<polyline points="%s" fill="none"`, points(l.Points))
	}
	writeAttr(&c.b, "stroke", l.Stroke)
	if l.StrokeWidth > 0 {
		writeAttr(&c.b, "stroke-width", num(l.StrokeWidth))
	}
	writeAttr(&c.b, "class", l.Class)
	c.b.WriteString("/>\n")
}

// Text implements visual.Canvas. Hidden text keeps its node with
// visibility="hidden".
func (c *Canvas) Text(t visual.Text) {
	c.indent()
	fmt.Fprintf(&c.b, `<text x="%s" y="%s"`, num(t.X), num(t.Y))
	writeAttr(&c.b, "text-anchor", string(t.Anchor))
	if t.FontSize > 0 {
		writeAttr(&c.b, "font-size", num(t.FontSize))
	}
	writeAttr(&c.b, "fill", t.Fill)
	writeAttr(&c.b, "class", t.Class)
	if t.Hidden {
		c.b.WriteString(` visibility="hidden"`)
	}
	c.b.WriteString(">")
	c.b.WriteString(html.EscapeString(t.Content))
	c.b.WriteString("</text>\n")
}

// Document renders frame as a complete SVG document.
func Document(frame chart.Frame) string {
	cfg := frame.Config()
	c := NewCanvas()
	fmt.Fprintf(&c.b, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%s" height="%s" viewBox="0 0 %s %s" font-family="%s" font-size="%s">
  <defs>
    <style>
.bar-label { dominant-baseline: central; font-weight: lighter; user-select: none; pointer-events: none; }
.bar-label-outside { font-weight: normal; }
.bar-wrapper { cursor: pointer; outline: none; }
.calendar-bottom-text, .calendar-top-text { dominant-baseline: central; user-select: none; }
    </style>
  </defs>
`, num(frame.Width), num(frame.Height), num(frame.Width), num(frame.Height), html.EscapeString(cfg.FontFamily), num(cfg.FontSize))
	frame.Draw(c)
	c.b.WriteString("</svg>\n")
	return c.String()
}

// Write renders frame to w.
func Write(w io.Writer, frame chart.Frame) error {
	_, err := io.WriteString(w, Document(frame))
	return err
}

func writeAttr(b *strings.Builder, name, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(b, ` %s="%s"`, name, html.EscapeString(value))
}

func points(pts []visual.Point) string {
	parts := make([]string, 0, len(pts))
	for _, p := range pts {
		parts = append(parts, num(p.X)+","+num(p.Y))
	}
	return strings.Join(parts, " ")
}

// num formats v with at most two decimals.
func num(v float64) string {
	s := strconv.FormatFloat(v, 'f', 2, 64)
	s = strings.TrimRight(s, "0")
	s = strings.TrimSuffix(s, ".")
	if s == "-0" {
		return "0"
	}
	return s
}
