// Package chart composes laid out bars, fitted labels and task visuals into a
// drawable Gantt frame.
package chart

import (
	"time"

	"github.com/hylla/gantry/internal/domain"
	"github.com/hylla/gantry/internal/label"
	"github.com/hylla/gantry/internal/layout"
	"github.com/hylla/gantry/internal/measure"
	"github.com/hylla/gantry/internal/visual"
)

// MaxMeasurePasses bounds the fit and re-measure loop of one build.
const MaxMeasurePasses = 3

// Config holds chart presentation settings.
type Config struct {
	Layout             layout.Options
	Label              label.Params
	Palette            visual.Palette
	FontSize           float64
	FontFamily         string
	HeaderHeight       float64
	ArrowIndent        float64
	HorizontalDisplay  bool
	DateChangeable     bool
	ProgressChangeable bool
}

// DefaultConfig returns the stock chart settings.
func DefaultConfig() Config {
	return Config{
		Layout:             layout.DefaultOptions(),
		Label:              label.DefaultParams(),
		Palette:            visual.DefaultPalette(),
		FontSize:           14,
		FontFamily:         "Arial, Roboto, sans-serif",
		HeaderHeight:       50,
		ArrowIndent:        20,
		DateChangeable:     true,
		ProgressChangeable: true,
	}
}

// Logger is the logging surface the chart reports through.
type Logger = label.Logger

// Option customizes a Chart.
type Option func(*Chart)

// WithSelector replaces the visual selector.
func WithSelector(s *visual.Selector) Option {
	return func(c *Chart) {
		if s != nil {
			c.selector = s
		}
	}
}

// WithLogger sets the chart logger.
func WithLogger(logger Logger) Option {
	return func(c *Chart) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Chart builds frames from tasks.
type Chart struct {
	cfg      Config
	selector *visual.Selector
	logger   Logger
	fitter   *label.Fitter
}

type nopLogger struct{}

func (nopLogger) Debug(interface{}, ...interface{}) {}

// New constructs a chart for cfg.
func New(cfg Config, opts ...Option) *Chart {
	def := DefaultConfig()
	if cfg.FontSize <= 0 {
		cfg.FontSize = def.FontSize
	}
	if cfg.FontFamily == "" {
		cfg.FontFamily = def.FontFamily
	}
	if cfg.HeaderHeight < 0 {
		cfg.HeaderHeight = def.HeaderHeight
	}
	if cfg.ArrowIndent < 0 {
		cfg.ArrowIndent = def.ArrowIndent
	}
	c := &Chart{cfg: cfg, selector: visual.NewSelector(), logger: nopLogger{}}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	c.fitter = label.NewFitter(cfg.Label, label.WithLogger(c.logger))
	return c
}

// Config returns the chart settings.
func (c *Chart) Config() Config {
	return c.cfg
}

// BuildOptions carries per build state.
type BuildOptions struct {
	// Measurer defaults to a font size estimate.
	Measurer measure.Measurer
	// Labeler keeps measurements across builds. A fresh one is used when nil.
	Labeler  *Labeler
	Selected string
	// Now positions the today highlight. Zero disables it.
	Now time.Time
}

// Item is one composed task row.
type Item struct {
	Bar      domain.BarTask
	Variant  visual.Variant
	Decision domain.PlacementDecision
	Label    visual.Text
	Selected bool
}

// Frame is a fully composed chart ready to draw.
type Frame struct {
	Layout       layout.Result
	Items        []Item
	HeaderHeight float64
	Width        float64
	Height       float64
	Now          time.Time
	Passes       int

	cfg      Config
	selector *visual.Selector
}

// Build lays out tasks and fits every label.
func (c *Chart) Build(tasks []domain.Task, opts BuildOptions) Frame {
	res := layout.Compute(tasks, c.cfg.Layout)
	for i := range res.Bars {
		res.Bars[i].Y += c.cfg.HeaderHeight
	}
	measurer := opts.Measurer
	if measurer == nil {
		measurer = measure.NewEstimate(c.cfg.FontSize)
	}
	labeler := opts.Labeler
	if labeler == nil {
		labeler = NewLabeler(measurer)
	}

	frame := Frame{
		Layout:       res,
		HeaderHeight: c.cfg.HeaderHeight,
		Width:        res.Width,
		Height:       res.Height + c.cfg.HeaderHeight,
		Now:          opts.Now,
		cfg:          c.cfg,
		selector:     c.selector,
	}

	var decisions []domain.PlacementDecision
	for pass := 1; pass <= MaxMeasurePasses; pass++ {
		next := c.fitAll(res.Bars, labeler)
		frame.Passes = pass
		stable := decisions != nil && equalDecisions(decisions, next)
		decisions = next
		if stable {
			break
		}
		for _, bar := range res.Bars {
			labeler.Record(bar.Task.ID, bar.Task.Name)
		}
	}

	keep := make(map[string]struct{}, len(res.Bars))
	frame.Items = make([]Item, 0, len(res.Bars))
	for i, bar := range res.Bars {
		keep[bar.Task.ID] = struct{}{}
		decision := domain.PlacementDecision{}
		if i < len(decisions) {
			decision = decisions[i]
		}
		frame.Items = append(frame.Items, Item{
			Bar:      bar,
			Variant:  visual.VariantFor(bar.TypeInternal),
			Decision: decision,
			Label:    c.labelNode(bar, decision, res.TaskHeight),
			Selected: bar.Task.ID == opts.Selected,
		})
	}
	labeler.Retain(keep)
	c.logger.Debug("chart built", "bars", len(frame.Items), "passes", frame.Passes, "view_mode", res.ViewMode)
	return frame
}

func (c *Chart) fitAll(bars []domain.BarTask, labeler *Labeler) []domain.PlacementDecision {
	out := make([]domain.PlacementDecision, 0, len(bars))
	for _, bar := range bars {
		out = append(out, c.fitter.Fit(label.Input{
			Span:              bar.Span(),
			Measurement:       labeler.Measurement(bar.Task.ID, bar.Task.Name),
			RightToLeft:       c.cfg.Layout.RightToLeft,
			HorizontalDisplay: c.cfg.HorizontalDisplay,
			HasChildren:       bar.HasChildren(),
			IndentUnit:        c.cfg.ArrowIndent,
		}))
	}
	return out
}

func (c *Chart) labelNode(bar domain.BarTask, d domain.PlacementDecision, taskHeight float64) visual.Text {
	class := "bar-label"
	fill := c.cfg.Palette.Label
	if !d.Inside() {
		class = "bar-label bar-label-outside"
		fill = c.cfg.Palette.LabelOutside
	}
	return visual.Text{
		X:        d.X,
		Y:        bar.Y + taskHeight*0.5,
		Content:  d.Text,
		Anchor:   d.Anchor,
		FontSize: c.cfg.FontSize,
		Fill:     fill,
		Class:    class,
		Hidden:   !d.Visible(),
	}
}

func equalDecisions(a, b []domain.PlacementDecision) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Bars returns the item geometry in chart coordinates, for hit testing.
func (f Frame) Bars() []domain.BarTask {
	out := make([]domain.BarTask, 0, len(f.Items))
	for _, item := range f.Items {
		out = append(out, item.Bar)
	}
	return out
}

// Item returns the composed row for a task id.
func (f Frame) Item(id string) (Item, bool) {
	for _, item := range f.Items {
		if item.Bar.Task.ID == id {
			return item, true
		}
	}
	return Item{}, false
}

// Config returns the settings the frame was built with.
func (f Frame) Config() Config {
	return f.cfg
}
