package domain

import "errors"

var (
	ErrInvalidID         = errors.New("invalid id")
	ErrInvalidName       = errors.New("invalid name")
	ErrInvalidTaskType   = errors.New("invalid task type")
	ErrInvalidDateRange  = errors.New("invalid date range")
	ErrInvalidProgress   = errors.New("invalid progress")
	ErrInvalidDependency = errors.New("invalid dependency")
	ErrInvalidViewMode   = errors.New("invalid view mode")
	ErrInvalidAction     = errors.New("invalid action")
)
