package chart

import (
	"sync"

	"github.com/hylla/gantry/internal/domain"
	"github.com/hylla/gantry/internal/measure"
)

// Labeler remembers the last measured label width per task so each fit can
// use the measurement taken after the previous render. A task seen for the
// first time reports a zero width.
type Labeler struct {
	mu       sync.Mutex
	measurer measure.Measurer
	last     map[string]domain.LabelMeasurement
}

// NewLabeler returns a labeler measuring with m.
func NewLabeler(m measure.Measurer) *Labeler {
	return &Labeler{measurer: m, last: map[string]domain.LabelMeasurement{}}
}

// Measurement returns the last measurement of text for id. A different text
// than last time counts as unmeasured.
func (l *Labeler) Measurement(id, text string) domain.LabelMeasurement {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.last[id]
	if !ok || m.FullText != text {
		return domain.LabelMeasurement{FullText: text}
	}
	return m
}

// Record measures the emitted label text for id and reports whether the
// stored width changed.
func (l *Labeler) Record(id, text string) bool {
	width := 0.0
	if l.measurer != nil {
		width = l.measurer.Width(text)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	prev, ok := l.last[id]
	next := domain.LabelMeasurement{FullText: text, MeasuredWidth: width}
	l.last[id] = next
	return !ok || prev != next
}

// Retain forgets every task not in ids.
func (l *Labeler) Retain(ids map[string]struct{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for id := range l.last {
		if _, ok := ids[id]; !ok {
			delete(l.last, id)
		}
	}
}

// Len reports how many tasks have a stored measurement.
func (l *Labeler) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.last)
}
