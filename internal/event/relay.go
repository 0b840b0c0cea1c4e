// Package event turns raw pointer and key signals on chart items into task
// actions and forwards them to an injected handler.
package event

import (
	"context"
	"fmt"
	"strings"

	"github.com/hylla/gantry/internal/domain"
)

// Handler receives the actions emitted by chart items.
type Handler interface {
	HandleAction(ctx context.Context, action domain.Action, bar domain.BarTask) error
}

// HandlerFunc adapts a function into a Handler.
type HandlerFunc func(ctx context.Context, action domain.Action, bar domain.BarTask) error

// HandleAction calls f.
func (f HandlerFunc) HandleAction(ctx context.Context, action domain.Action, bar domain.BarTask) error {
	return f(ctx, action, bar)
}

// Permissions gates the destructive actions a relay may forward.
type Permissions struct {
	Delete bool `json:"delete" toml:"delete"`
}

// Signal is a raw pointer or focus signal on a chart item.
type Signal string

const (
	SignalFocus       Signal = "focus"
	SignalEnter       Signal = "enter"
	SignalLeave       Signal = "leave"
	SignalClick       Signal = "click"
	SignalDoubleClick Signal = "dblclick"
)

var signalActions = map[Signal]domain.Action{
	SignalFocus:       domain.ActionSelect,
	SignalEnter:       domain.ActionMouseEnter,
	SignalLeave:       domain.ActionMouseLeave,
	SignalClick:       domain.ActionClick,
	SignalDoubleClick: domain.ActionDblClick,
}

// ParseSignal normalizes raw into a known signal.
func ParseSignal(raw string) (Signal, bool) {
	s := Signal(strings.ToLower(strings.TrimSpace(raw)))
	switch s {
	case "mouseenter":
		s = SignalEnter
	case "mouseleave":
		s = SignalLeave
	case "select":
		s = SignalFocus
	}
	_, ok := signalActions[s]
	return s, ok
}

// KeyDelete is the key name that requests deletion.
const KeyDelete = "delete"

// KeyResult reports what the relay did with a key signal.
type KeyResult struct {
	Forwarded       bool
	StopPropagation bool
}

// Relay maps signals to actions for one chart.
type Relay struct {
	handler     Handler
	permissions Permissions
}

// NewRelay constructs a relay forwarding to handler.
func NewRelay(handler Handler, permissions Permissions) *Relay {
	return &Relay{handler: handler, permissions: permissions}
}

// Permissions returns the relay's permission set.
func (r *Relay) Permissions() Permissions {
	return r.permissions
}

// Pointer forwards the action for sig. Unknown signals are ignored.
func (r *Relay) Pointer(ctx context.Context, sig Signal, bar domain.BarTask) error {
	action, ok := signalActions[sig]
	if !ok {
		return nil
	}
	return r.forward(ctx, action, bar)
}

// Key handles a key press on a chart item. Every key stops propagation; only
// delete is forwarded and only when deletion is permitted.
func (r *Relay) Key(ctx context.Context, key string, bar domain.BarTask) (KeyResult, error) {
	result := KeyResult{StopPropagation: true}
	if !strings.EqualFold(strings.TrimSpace(key), KeyDelete) || !r.permissions.Delete {
		return result, nil
	}
	if err := r.forward(ctx, domain.ActionDelete, bar); err != nil {
		return result, err
	}
	result.Forwarded = true
	return result, nil
}

func (r *Relay) forward(ctx context.Context, action domain.Action, bar domain.BarTask) error {
	if r.handler == nil {
		return nil
	}
	if err := r.handler.HandleAction(ctx, action, bar); err != nil {
		return fmt.Errorf("relay %s for task %q: %w", action, bar.Task.ID, err)
	}
	return nil
}
