// Package label decides whether a task name fits inside its bar and, when it
// does not, how to shorten it or where to put it beside the bar.
package label

import (
	"errors"
	"math"

	"github.com/hylla/gantry/internal/domain"
)

// Params are the tuning constants of the fit heuristic. The defaults were
// tuned by eye for a 14px sans-serif font; they approximate glyph widths and
// are not derived from real font metrics.
type Params struct {
	// MinInsideWidth is the narrowest bar that may hold its label.
	MinInsideWidth float64 `json:"min_inside_width" toml:"min_inside_width"`
	// CharWidth is the assumed pixel width of one character.
	CharWidth float64 `json:"char_width" toml:"char_width"`
	// EllipsisReserve is the number of extra characters dropped to make room for Ellipsis.
	EllipsisReserve int `json:"ellipsis_reserve" toml:"ellipsis_reserve"`
	// MinShortenedLength is exclusive: shortened text must be longer than this.
	MinShortenedLength int    `json:"min_shortened_length" toml:"min_shortened_length"`
	Ellipsis           string `json:"ellipsis" toml:"ellipsis"`
	// OutsideGapRatio is the share of the indent unit kept between a bar and an outside label.
	OutsideGapRatio float64 `json:"outside_gap_ratio" toml:"outside_gap_ratio"`
}

// DefaultParams returns the stock heuristic constants.
func DefaultParams() Params {
	return Params{
		MinInsideWidth:     30,
		CharWidth:          6,
		EllipsisReserve:    3,
		MinShortenedLength: 5,
		Ellipsis:           "…",
		OutsideGapRatio:    0.2,
	}
}

// Validate reports parameter sets that would make the heuristic meaningless.
func (p Params) Validate() error {
	switch {
	case p.MinInsideWidth < 0:
		return errors.New("min_inside_width must be >= 0")
	case p.CharWidth <= 0:
		return errors.New("char_width must be > 0")
	case p.EllipsisReserve < 0:
		return errors.New("ellipsis_reserve must be >= 0")
	case p.MinShortenedLength < 0:
		return errors.New("min_shortened_length must be >= 0")
	case p.OutsideGapRatio < 0:
		return errors.New("outside_gap_ratio must be >= 0")
	}
	return nil
}

// Input is everything the fitter looks at for one bar.
type Input struct {
	Span              domain.BarSpan
	Measurement       domain.LabelMeasurement
	RightToLeft       bool
	HorizontalDisplay bool
	HasChildren       bool
	IndentUnit        float64
}

// Logger is the subset of charmbracelet/log the fitter reports through.
type Logger interface {
	Debug(msg interface{}, keyvals ...interface{})
}

type nopLogger struct{}

func (nopLogger) Debug(interface{}, ...interface{}) {}

// Option customizes a Fitter.
type Option func(*Fitter)

// WithLogger sets the logger used for caller contract violations.
func WithLogger(logger Logger) Option {
	return func(f *Fitter) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// Fitter computes placement decisions. It holds no per-task state.
type Fitter struct {
	params Params
	logger Logger
}

// NewFitter returns a fitter using params. Invalid params fall back to DefaultParams.
func NewFitter(params Params, opts ...Option) *Fitter {
	if params.Validate() != nil {
		params = DefaultParams()
	}
	f := &Fitter{params: params, logger: nopLogger{}}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	return f
}

// Params returns the constants this fitter was built with.
func (f *Fitter) Params() Params {
	return f.params
}

var defaultFitter = NewFitter(DefaultParams())

// Fit runs the heuristic with DefaultParams.
func Fit(in Input) domain.PlacementDecision {
	return defaultFitter.Fit(in)
}

// Fit returns the label placement for in.
func (f *Fitter) Fit(in Input) domain.PlacementDecision {
	barWidth := in.Span.Width()
	if barWidth < 0 || math.IsNaN(barWidth) {
		// Malformed span: keep the text for measurement but draw nothing.
		f.logger.Debug("label span has negative width", "start", in.Span.Start, "end", in.Span.End, "text", in.Measurement.FullText)
		return domain.PlacementDecision{
			Mode:   domain.PlacementHidden,
			Text:   in.Measurement.FullText,
			X:      in.Span.Start,
			Anchor: domain.AnchorStart,
		}
	}
	if barWidth >= f.params.MinInsideWidth {
		if decision, ok := f.fitInside(in, barWidth); ok {
			return decision
		}
	}

	decision := f.placeOutside(in)
	if in.HorizontalDisplay {
		decision.Mode = domain.PlacementHidden
	}
	return decision
}

// CharsToRemove returns how many trailing characters must go for a label of
// measuredWidth to fit barWidth, ellipsis reserve included. Zero means it fits.
// The result is capped at maxRemovable so huge or infinite widths stay in int range.
func (f *Fitter) CharsToRemove(measuredWidth, barWidth float64) int {
	if math.IsNaN(measuredWidth) || measuredWidth < 0 {
		measuredWidth = 0
	}
	overflow := math.Floor((measuredWidth - barWidth) / f.params.CharWidth)
	if math.IsNaN(overflow) || overflow < 1 {
		return 0
	}
	if overflow >= maxRemovable {
		return maxRemovable + f.params.EllipsisReserve
	}
	return int(overflow) + f.params.EllipsisReserve
}

// maxRemovable bounds CharsToRemove. No label handled here comes close to it.
const maxRemovable = 1 << 30

func (f *Fitter) fitInside(in Input, barWidth float64) (domain.PlacementDecision, bool) {
	inside := domain.PlacementDecision{
		Mode:   domain.PlacementInside,
		Text:   in.Measurement.FullText,
		X:      in.Span.Start + barWidth*0.5,
		Anchor: domain.AnchorMiddle,
	}
	remove := f.CharsToRemove(in.Measurement.MeasuredWidth, barWidth)
	if remove == 0 {
		return inside, true
	}
	shortened := dropTail(in.Measurement.FullText, remove)
	if runeLen(shortened) <= f.params.MinShortenedLength {
		return domain.PlacementDecision{}, false
	}
	inside.Text = shortened + f.params.Ellipsis
	inside.Truncated = true
	return inside, true
}

func (f *Fitter) placeOutside(in Input) domain.PlacementDecision {
	offset := in.IndentUnit * f.params.OutsideGapRatio
	if in.HasChildren {
		offset += in.IndentUnit
	}
	decision := domain.PlacementDecision{
		Mode:   domain.PlacementOutsideRight,
		Text:   in.Measurement.FullText,
		X:      in.Span.End + offset,
		Anchor: domain.AnchorStart,
	}
	if in.RightToLeft {
		decision.Mode = domain.PlacementOutsideLeft
		decision.X = in.Span.Start - in.Measurement.MeasuredWidth - offset
	}
	return decision
}

// dropTail removes the last n runes of s. Out-of-range n drops everything.
func dropTail(s string, n int) string {
	runes := []rune(s)
	if n < 0 || n >= len(runes) {
		return ""
	}
	return string(runes[:len(runes)-n])
}

func runeLen(s string) int {
	return len([]rune(s))
}
