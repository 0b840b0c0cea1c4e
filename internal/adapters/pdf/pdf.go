// Package pdf renders chart frames to PDF with go-pdf/fpdf.
package pdf

import (
	"fmt"
	"io"
	"math"

	"github.com/go-pdf/fpdf"

	"github.com/hylla/gantry/internal/chart"
	"github.com/hylla/gantry/internal/visual"
)

// DefaultFont is a core PDF font, so no font files are needed.
const DefaultFont = "Helvetica"

// baselineShift moves a text baseline so the glyphs are vertically centered
// on the requested y, matching dominant-baseline: central in SVG.
const baselineShift = 0.35

// Measurer reports string widths using fpdf core font metrics.
type Measurer struct {
	doc       *fpdf.Fpdf
	translate func(string) string
}

// NewMeasurer returns a measurer for family at size points.
func NewMeasurer(family string, size float64) *Measurer {
	if family == "" {
		family = DefaultFont
	}
	doc := fpdf.New("L", "pt", "A4", "")
	doc.SetFont(family, "", size)
	return &Measurer{doc: doc, translate: doc.UnicodeTranslatorFromDescriptor("")}
}

// Width implements measure.Measurer.
func (m *Measurer) Width(text string) float64 {
	return m.doc.GetStringWidth(m.translate(text))
}

// Canvas draws visual primitives onto an fpdf document.
type Canvas struct {
	doc       *fpdf.Fpdf
	translate func(string) string
	family    string
	depth     int
}

// NewCanvas starts a single page document of width by height points.
func NewCanvas(width, height float64, family string) *Canvas {
	if family == "" {
		family = DefaultFont
	}
	orientation := "L"
	if height > width {
		orientation = "P"
	}
	doc := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: orientation,
		UnitStr:        "pt",
		Size:           fpdf.SizeType{Wd: math.Max(width, 1), Ht: math.Max(height, 1)},
	})
	doc.SetMargins(0, 0, 0)
	doc.SetAutoPageBreak(false, 0)
	doc.SetCreator("gantry", true)
	doc.AddPage()
	doc.SetFont(family, "", 12)
	return &Canvas{doc: doc, translate: doc.UnicodeTranslatorFromDescriptor(""), family: family}
}

// Doc exposes the underlying document.
func (c *Canvas) Doc() *fpdf.Fpdf {
	return c.doc
}

// BeginGroup implements visual.Canvas. PDF has no grouping so only depth is kept.
func (c *Canvas) BeginGroup(visual.Group) { c.depth++ }

// EndGroup implements visual.Canvas.
func (c *Canvas) EndGroup() {
	if c.depth > 0 {
		c.depth--
	}
}

// Rect implements visual.Canvas.
func (c *Canvas) Rect(r visual.Rect) {
	if r.Width <= 0 || r.Height <= 0 {
		return
	}
	restore := c.fill(r.Fill)
	defer restore()
	radius := math.Min(r.Radius, math.Min(r.Width, r.Height)/2)
	if radius > 0 {
		c.doc.RoundedRect(r.X, r.Y, r.Width, r.Height, radius, "1234", "F")
		return
	}
	c.doc.Rect(r.X, r.Y, r.Width, r.Height, "F")
}

// Polygon implements visual.Canvas.
func (c *Canvas) Polygon(p visual.Polygon) {
	if len(p.Points) < 3 {
		return
	}
	restore := c.fill(p.Fill)
	defer restore()
	c.doc.Polygon(toPoints(p.Points), "F")
}

// Line implements visual.Canvas.
func (c *Canvas) Line(l visual.Line) {
	if len(l.Points) < 2 {
		return
	}
	rgb, alpha := visual.ParseColor(l.Stroke)
	c.doc.SetDrawColor(rgb[0], rgb[1], rgb[2])
	c.doc.SetAlpha(alpha, "Normal")
	width := l.StrokeWidth
	if width <= 0 {
		width = 1
	}
	c.doc.SetLineWidth(width)
	for i := 1; i < len(l.Points); i++ {
		a, b := l.Points[i-1], l.Points[i]
		c.doc.Line(a.X, a.Y, b.X, b.Y)
	}
	c.doc.SetAlpha(1, "Normal")
}

// Text implements visual.Canvas. Hidden labels are skipped: a PDF page has no
// live text to measure later.
func (c *Canvas) Text(t visual.Text) {
	if t.Hidden || t.Content == "" {
		return
	}
	size := t.FontSize
	if size <= 0 {
		size = 12
	}
	c.doc.SetFont(c.family, "", size)
	rgb, _ := visual.ParseColor(t.Fill)
	c.doc.SetTextColor(rgb[0], rgb[1], rgb[2])
	text := c.translate(t.Content)
	x := t.X
	if t.Anchor == "middle" {
		x -= c.doc.GetStringWidth(text) / 2
	}
	c.doc.Text(x, t.Y+size*baselineShift, text)
}

// Output writes the document and reports any accumulated drawing error.
func (c *Canvas) Output(w io.Writer) error {
	if err := c.doc.Error(); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	if err := c.doc.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

func (c *Canvas) fill(color string) func() {
	rgb, alpha := visual.ParseColor(color)
	c.doc.SetFillColor(rgb[0], rgb[1], rgb[2])
	if alpha >= 1 {
		return func() {}
	}
	c.doc.SetAlpha(alpha, "Normal")
	return func() { c.doc.SetAlpha(1, "Normal") }
}

// Write renders frame as a one page PDF sized to the chart.
func Write(w io.Writer, frame chart.Frame) error {
	c := NewCanvas(frame.Width, frame.Height, DefaultFont)
	frame.Draw(c)
	return c.Output(w)
}

func toPoints(pts []visual.Point) []fpdf.PointType {
	out := make([]fpdf.PointType, 0, len(pts))
	for _, p := range pts {
		out = append(out, fpdf.PointType{X: p.X, Y: p.Y})
	}
	return out
}
