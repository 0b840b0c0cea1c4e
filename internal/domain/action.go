package domain

import (
	"slices"
	"strings"
)

// Action is an intent token emitted by a chart item.
type Action string

const (
	ActionSelect     Action = "select"
	ActionMouseEnter Action = "mouseenter"
	ActionMouseLeave Action = "mouseleave"
	ActionClick      Action = "click"
	ActionDblClick   Action = "dblclick"
	ActionDelete     Action = "delete"
)

var validActions = []Action{
	ActionSelect,
	ActionMouseEnter,
	ActionMouseLeave,
	ActionClick,
	ActionDblClick,
	ActionDelete,
}

// Actions returns the closed action set in declaration order.
func Actions() []Action {
	return slices.Clone(validActions)
}

// ParseAction normalizes raw into one of the known actions.
func ParseAction(raw string) (Action, error) {
	a := Action(strings.ToLower(strings.TrimSpace(raw)))
	if !slices.Contains(validActions, a) {
		return "", ErrInvalidAction
	}
	return a, nil
}
