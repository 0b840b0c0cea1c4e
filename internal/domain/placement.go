package domain

// LabelMeasurement is the rendered width of an untruncated label.
type LabelMeasurement struct {
	FullText      string  `json:"full_text"`
	MeasuredWidth float64 `json:"measured_width"`
}

// PlacementMode says where a task label is drawn relative to its bar.
type PlacementMode string

const (
	PlacementInside       PlacementMode = "inside"
	PlacementOutsideLeft  PlacementMode = "outside_left"
	PlacementOutsideRight PlacementMode = "outside_right"
	PlacementHidden       PlacementMode = "hidden"
)

// TextAnchor mirrors the SVG text-anchor values the renderers understand.
type TextAnchor string

const (
	AnchorMiddle TextAnchor = "middle"
	AnchorStart  TextAnchor = "start"
)

// PlacementDecision is the label layout for one bar. It is derived from its
// inputs on every change and never mutated in place.
type PlacementDecision struct {
	Mode      PlacementMode `json:"mode"`
	Text      string        `json:"text"`
	Truncated bool          `json:"truncated"`
	X         float64       `json:"x"`
	Anchor    TextAnchor    `json:"anchor"`
}

// Inside reports whether the label sits within the bar.
func (d PlacementDecision) Inside() bool {
	return d.Mode == PlacementInside
}

// Visible reports whether the label node should be painted. Hidden labels are
// still emitted so the host can keep measuring them.
func (d PlacementDecision) Visible() bool {
	return d.Mode != PlacementHidden
}
