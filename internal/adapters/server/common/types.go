// Package common provides transport-agnostic server contracts used by HTTP and MCP adapters.
package common

import (
	"context"
	"errors"
	"time"

	"github.com/hylla/gantry/internal/domain"
)

// FormatSVG and FormatPDF name the chart render formats.
const (
	FormatSVG = "svg"
	FormatPDF = "pdf"
)

// ErrInvalidRequest reports malformed transport input.
var ErrInvalidRequest = errors.New("invalid request")

// ErrNotFound reports missing transport-visible resources.
var ErrNotFound = errors.New("not found")

// ProjectSummary is the transport view of one project.
type ProjectSummary struct {
	ID          string     `json:"id"`
	Slug        string     `json:"slug"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	ArchivedAt  *time.Time `json:"archived_at,omitempty"`
}

// TaskSummary is the transport view of one task row.
type TaskSummary struct {
	ID           string     `json:"id"`
	ParentID     string     `json:"parent_id,omitempty"`
	Name         string     `json:"name"`
	Description  string     `json:"description,omitempty"`
	Type         string     `json:"type"`
	Start        *time.Time `json:"start,omitempty"`
	End          *time.Time `json:"end,omitempty"`
	Progress     float64    `json:"progress"`
	Dependencies []string   `json:"dependencies"`
	DisplayOrder int        `json:"display_order"`
	HideChildren bool       `json:"hide_children,omitempty"`
	IsDisabled   bool       `json:"is_disabled,omitempty"`
}

// ChartRequest selects a project chart and optional display overrides.
type ChartRequest struct {
	ProjectID         string
	ViewMode          string
	RightToLeft       *bool
	HorizontalDisplay *bool
}

// RenderedChart is an encoded chart document.
type RenderedChart struct {
	ContentType string
	Body        []byte
}

// FitLabelRequest asks for one label placement. MeasuredWidth is estimated
// from the configured font size when omitted.
type FitLabelRequest struct {
	Text              string   `json:"text"`
	Start             float64  `json:"start"`
	End               float64  `json:"end"`
	MeasuredWidth     *float64 `json:"measured_width,omitempty"`
	RightToLeft       bool     `json:"rtl,omitempty"`
	HorizontalDisplay bool     `json:"horizontal_display,omitempty"`
	HasChildren       bool     `json:"has_children,omitempty"`
	IndentUnit        float64  `json:"indent_unit,omitempty"`
}

// FitLabelResult is the placement decision plus the width it was based on.
type FitLabelResult struct {
	Decision      domain.PlacementDecision `json:"decision"`
	MeasuredWidth float64                  `json:"measured_width"`
}

// ActionRequest carries either {task_id, action} or {x, y, signal}.
type ActionRequest struct {
	ProjectID string   `json:"-"`
	TaskID    string   `json:"task_id,omitempty"`
	Action    string   `json:"action,omitempty"`
	X         *float64 `json:"x,omitempty"`
	Y         *float64 `json:"y,omitempty"`
	Signal    string   `json:"signal,omitempty"`
}

// ActionResult reports what a dispatched action did.
type ActionResult struct {
	Action    string `json:"action,omitempty"`
	TaskID    string `json:"task_id,omitempty"`
	Forwarded bool   `json:"forwarded"`
	Selected  string `json:"selected,omitempty"`
	Hovered   string `json:"hovered,omitempty"`
	Opened    string `json:"opened,omitempty"`
}

// ProjectService lists projects.
type ProjectService interface {
	ListProjects(context.Context, bool) ([]ProjectSummary, error)
}

// TaskService lists one project's tasks.
type TaskService interface {
	ListTasks(context.Context, string) ([]TaskSummary, error)
}

// ChartService renders project charts.
type ChartService interface {
	RenderChart(context.Context, ChartRequest, string) (RenderedChart, error)
}

// LabelService runs the label heuristic.
type LabelService interface {
	FitLabel(context.Context, FitLabelRequest) (FitLabelResult, error)
}

// ActionService dispatches chart item actions.
type ActionService interface {
	DispatchAction(context.Context, ActionRequest) (ActionResult, error)
}

// Service is the full surface the transports expose.
type Service interface {
	ProjectService
	TaskService
	ChartService
	LabelService
	ActionService
}
