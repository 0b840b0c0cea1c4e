package domain

// BarType is the internal type tag used to pick a task's visual.
type BarType string

const (
	BarTypeDefault   BarType = "task"
	BarTypeMilestone BarType = "milestone"
	BarTypeProject   BarType = "project"
	BarTypeSmallTask BarType = "smalltask"
)

// BarSpan holds the pixel bounds of a bar. End >= Start for well-formed spans.
type BarSpan struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Width returns End - Start. It is negative for malformed spans.
func (s BarSpan) Width() float64 {
	return s.End - s.Start
}

// BarTask is a task with computed chart geometry.
type BarTask struct {
	Task          Task     `json:"task"`
	Index         int      `json:"index"`
	TypeInternal  BarType  `json:"type_internal"`
	X1            float64  `json:"x1"`
	X2            float64  `json:"x2"`
	Y             float64  `json:"y"`
	Height        float64  `json:"height"`
	ProgressX     float64  `json:"progress_x"`
	ProgressWidth float64  `json:"progress_width"`
	CornerRadius  float64  `json:"corner_radius"`
	HandleWidth   float64  `json:"handle_width"`
	BarChildren   []string `json:"bar_children,omitempty"`
}

// Span returns the horizontal extent of the bar.
func (b BarTask) Span() BarSpan {
	return BarSpan{Start: b.X1, End: b.X2}
}

// HasChildren reports whether any other bar depends on this one.
func (b BarTask) HasChildren() bool {
	return len(b.BarChildren) > 0
}

// Contains reports whether the point lies inside the bar rectangle.
func (b BarTask) Contains(x, y float64) bool {
	return x >= b.X1 && x <= b.X2 && y >= b.Y && y <= b.Y+b.Height
}
