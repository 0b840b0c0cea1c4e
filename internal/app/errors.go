package app

import "errors"

// ErrNotFound and related errors describe lookup and dispatch failures.
var (
	ErrNotFound        = errors.New("not found")
	ErrTaskNotOnChart  = errors.New("task is not drawn on the chart")
	ErrUnknownSignal   = errors.New("unknown pointer signal")
	ErrInvalidSeedPlan = errors.New("invalid seed plan")
)
