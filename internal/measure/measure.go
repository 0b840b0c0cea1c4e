// Package measure provides text width collaborators for label fitting.
package measure

import (
	"math"
	"unicode/utf8"

	"github.com/charmbracelet/x/ansi"
)

// Measurer reports the rendered width of text in chart units.
type Measurer interface {
	Width(text string) float64
}

// MeasurerFunc adapts a function into a Measurer.
type MeasurerFunc func(text string) float64

// Width calls f.
func (f MeasurerFunc) Width(text string) float64 {
	return f(text)
}

// DefaultGlyphRatio is the average glyph width as a fraction of font size.
const DefaultGlyphRatio = 0.6

// Estimate approximates proportional text width from the font size. It is the
// measurer used when no real text layout is available, such as SVG output.
type Estimate struct {
	FontSize float64
	Ratio    float64
}

// NewEstimate returns an estimate for fontSize with the default glyph ratio.
func NewEstimate(fontSize float64) Estimate {
	return Estimate{FontSize: fontSize, Ratio: DefaultGlyphRatio}
}

// Width implements Measurer.
func (e Estimate) Width(text string) float64 {
	ratio := e.Ratio
	if ratio <= 0 {
		ratio = DefaultGlyphRatio
	}
	return float64(utf8.RuneCountInString(text)) * e.FontSize * ratio
}

// Cells measures terminal display width: ANSI sequences are ignored and wide
// runes count as two cells. The result is scaled by CellWidth so it can be
// compared against pixel-like bar spans.
type Cells struct {
	CellWidth float64
}

// Width implements Measurer.
func (c Cells) Width(text string) float64 {
	cell := c.CellWidth
	if cell <= 0 {
		cell = 1
	}
	return float64(ansi.StringWidth(text)) * cell
}

// Truncate cuts s to at most width cells, appending tail when it cuts.
func (c Cells) Truncate(s string, width float64, tail string) string {
	cell := c.CellWidth
	if cell <= 0 {
		cell = 1
	}
	return ansi.Truncate(s, int(math.Floor(width/cell)), tail)
}

// Fixed reports the same width for every text. Useful when the host already
// knows the width or for tests.
type Fixed float64

// Width implements Measurer.
func (f Fixed) Width(string) float64 {
	return float64(f)
}
