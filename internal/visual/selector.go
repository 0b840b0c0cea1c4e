package visual

import "github.com/hylla/gantry/internal/domain"

// Variant is the visual shape a task is drawn with.
type Variant string

const (
	VariantBar       Variant = "bar"
	VariantSmallBar  Variant = "small_bar"
	VariantMilestone Variant = "milestone"
	VariantProject   Variant = "project"
)

// VariantFor maps a bar type tag to its variant. Unknown tags draw as a plain bar.
func VariantFor(t domain.BarType) Variant {
	switch t {
	case domain.BarTypeMilestone:
		return VariantMilestone
	case domain.BarTypeProject:
		return VariantProject
	case domain.BarTypeSmallTask:
		return VariantSmallBar
	default:
		return VariantBar
	}
}

// Item is everything a renderer needs to draw one task.
type Item struct {
	Bar                domain.BarTask
	Selected           bool
	DateChangeable     bool
	ProgressChangeable bool
	RightToLeft        bool
	Palette            Palette
}

// Renderer draws one variant.
type Renderer interface {
	Render(c Canvas, item Item)
}

// RendererFunc adapts a function into a Renderer.
type RendererFunc func(c Canvas, item Item)

// Render calls f.
func (f RendererFunc) Render(c Canvas, item Item) {
	f(c, item)
}

// Option customizes a Selector.
type Option func(*Selector)

// WithRenderer replaces the renderer used for v.
func WithRenderer(v Variant, r Renderer) Option {
	return func(s *Selector) {
		if r != nil {
			s.renderers[v] = r
		}
	}
}

// Selector dispatches bars to the renderer of their variant.
type Selector struct {
	renderers map[Variant]Renderer
}

// NewSelector returns a selector with the default renderers, overridden by opts.
func NewSelector(opts ...Option) *Selector {
	s := &Selector{
		renderers: map[Variant]Renderer{
			VariantBar:       RendererFunc(renderBar),
			VariantSmallBar:  RendererFunc(renderSmallBar),
			VariantMilestone: RendererFunc(renderMilestone),
			VariantProject:   RendererFunc(renderProject),
		},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Select returns the variant and renderer for bar.
func (s *Selector) Select(bar domain.BarTask) (Variant, Renderer) {
	v := VariantFor(bar.TypeInternal)
	return v, s.renderers[v]
}

// Render draws item with the renderer of its variant.
func (s *Selector) Render(c Canvas, item Item) Variant {
	v, r := s.Select(item.Bar)
	r.Render(c, item)
	return v
}
