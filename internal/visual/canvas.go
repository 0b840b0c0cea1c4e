// Package visual selects and draws the shape of a task bar.
package visual

import "github.com/hylla/gantry/internal/domain"

// Point is a canvas coordinate.
type Point struct {
	X float64
	Y float64
}

// Group wraps the shapes of one chart item.
type Group struct {
	ID    string
	Class string
}

// Rect is a filled, optionally rounded rectangle.
type Rect struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
	Radius float64
	Fill   string
	Class  string
}

// Polygon is a filled closed shape.
type Polygon struct {
	Points []Point
	Fill   string
	Class  string
}

// Line is a stroked segment or polyline.
type Line struct {
	Points      []Point
	Stroke      string
	StrokeWidth float64
	Class       string
}

// Text is a label node. Hidden text is still emitted so it can be measured.
type Text struct {
	X        float64
	Y        float64
	Content  string
	Anchor   domain.TextAnchor
	FontSize float64
	Fill     string
	Class    string
	Hidden   bool
}

// Canvas is a drawing surface. Implementations exist for SVG, PDF and the
// terminal.
type Canvas interface {
	BeginGroup(g Group)
	EndGroup()
	Rect(r Rect)
	Polygon(p Polygon)
	Line(l Line)
	Text(t Text)
}

// Op is one recorded canvas call.
type Op struct {
	Kind    string
	Group   Group
	Rect    Rect
	Polygon Polygon
	Line    Line
	Text    Text
}

// Recorder is a Canvas that keeps every call in order.
type Recorder struct {
	Ops []Op
}

func (r *Recorder) BeginGroup(g Group) { r.Ops = append(r.Ops, Op{Kind: "group", Group: g}) }
func (r *Recorder) EndGroup() { r.Ops = append(r.Ops, Op{Kind: "end"}) }
func (r *Recorder) Rect(v Rect) { r.Ops = append(r.Ops, Op{Kind: "rect", Rect: v}) }
func (r *Recorder) Polygon(v Polygon) { r.Ops = append(r.Ops, Op{Kind: "polygon", Polygon: v}) }
func (r *Recorder) Line(v Line) { r.Ops = append(r.Ops, Op{Kind: "line", Line: v}) }
func (r *Recorder) Text(v Text) { r.Ops = append(r.Ops, Op{Kind: "text", Text: v}) }

// Kinds returns the recorded op kinds, handy for asserting draw order.
func (r *Recorder) Kinds() []string {
	out := make([]string, 0, len(r.Ops))
	for _, op := range r.Ops {
		out = append(out, op.Kind)
	}
	return out
}

// Texts returns every recorded text node.
func (r *Recorder) Texts() []Text {
	out := []Text{}
	for _, op := range r.Ops {
		if op.Kind == "text" {
			out = append(out, op.Text)
		}
	}
	return out
}
