package event

import (
	"context"
	"errors"
	"time"

	"github.com/hylla/gantry/internal/domain"
)

// DefaultDoubleClickWindow is the longest gap between two clicks that still
// counts as a double click.
const DefaultDoubleClickWindow = 400 * time.Millisecond

// HitTest returns the bar drawn at (x, y). Later bars are drawn on top, so
// they win ties.
func HitTest(bars []domain.BarTask, x, y float64) (domain.BarTask, bool) {
	for i := len(bars) - 1; i >= 0; i-- {
		if bars[i].Contains(x, y) {
			return bars[i], true
		}
	}
	return domain.BarTask{}, false
}

// ClickTracker synthesizes double clicks for hosts that only report clicks.
type ClickTracker struct {
	Window time.Duration

	lastID string
	lastAt time.Time
}

// Register records a click on id at now and reports whether it completes a
// double click. A completed double click resets the tracker.
func (c *ClickTracker) Register(id string, now time.Time) bool {
	window := c.Window
	if window <= 0 {
		window = DefaultDoubleClickWindow
	}
	if id != "" && id == c.lastID && now.Sub(c.lastAt) <= window {
		c.lastID = ""
		c.lastAt = time.Time{}
		return true
	}
	c.lastID = id
	c.lastAt = now
	return false
}

// Tracker feeds coordinate based pointer input through a relay. It keeps the
// hovered task so enter and leave fire once per transition.
type Tracker struct {
	relay   *Relay
	clicks  ClickTracker
	now     func() time.Time
	hovered *domain.BarTask
}

// NewTracker constructs a tracker for relay.
func NewTracker(relay *Relay, window time.Duration) *Tracker {
	return &Tracker{relay: relay, clicks: ClickTracker{Window: window}, now: time.Now}
}

// Hovered returns the task currently under the pointer.
func (t *Tracker) Hovered() (domain.BarTask, bool) {
	if t.hovered == nil {
		return domain.BarTask{}, false
	}
	return *t.hovered, true
}

// Move reports pointer motion to (x, y).
func (t *Tracker) Move(ctx context.Context, bars []domain.BarTask, x, y float64) error {
	bar, hit := HitTest(bars, x, y)
	if t.hovered != nil && hit && t.hovered.Task.ID == bar.Task.ID {
		return nil
	}
	var errs []error
	if t.hovered != nil {
		errs = append(errs, t.relay.Pointer(ctx, SignalLeave, *t.hovered))
		t.hovered = nil
	}
	if hit {
		t.hovered = &bar
		errs = append(errs, t.relay.Pointer(ctx, SignalEnter, bar))
	}
	return errors.Join(errs...)
}

// Click reports a click at (x, y). A hit focuses the task, clicks it and,
// when it follows an earlier click closely enough, double clicks it.
func (t *Tracker) Click(ctx context.Context, bars []domain.BarTask, x, y float64) (domain.BarTask, bool, error) {
	bar, hit := HitTest(bars, x, y)
	if !hit {
		t.clicks.Register("", t.now())
		return domain.BarTask{}, false, nil
	}
	if err := t.relay.Pointer(ctx, SignalFocus, bar); err != nil {
		return bar, true, err
	}
	if err := t.relay.Pointer(ctx, SignalClick, bar); err != nil {
		return bar, true, err
	}
	if t.clicks.Register(bar.Task.ID, t.now()) {
		if err := t.relay.Pointer(ctx, SignalDoubleClick, bar); err != nil {
			return bar, true, err
		}
	}
	return bar, true, nil
}
