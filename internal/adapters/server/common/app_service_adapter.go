package common

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hylla/gantry/internal/adapters/pdf"
	"github.com/hylla/gantry/internal/adapters/svg"
	"github.com/hylla/gantry/internal/app"
	"github.com/hylla/gantry/internal/domain"
	"github.com/hylla/gantry/internal/label"
	"github.com/hylla/gantry/internal/measure"
)

// AppServiceAdapter maps transport contracts onto app.Service.
type AppServiceAdapter struct {
	service *app.Service
}

// NewAppServiceAdapter builds one common adapter over an app.Service instance.
func NewAppServiceAdapter(service *app.Service) *AppServiceAdapter {
	return &AppServiceAdapter{service: service}
}

var _ Service = (*AppServiceAdapter)(nil)

// ListProjects lists projects.
func (a *AppServiceAdapter) ListProjects(ctx context.Context, includeArchived bool) ([]ProjectSummary, error) {
	if err := a.ready(); err != nil {
		return nil, err
	}
	projects, err := a.service.ListProjects(ctx, includeArchived)
	if err != nil {
		return nil, mapAppError("list projects", err)
	}
	out := make([]ProjectSummary, 0, len(projects))
	for _, p := range projects {
		out = append(out, ProjectSummary{
			ID:          p.ID,
			Slug:        p.Slug,
			Name:        p.Name,
			Description: p.Description,
			ArchivedAt:  p.ArchivedAt,
		})
	}
	return out, nil
}

// ListTasks lists one project's tasks in display order.
func (a *AppServiceAdapter) ListTasks(ctx context.Context, projectID string) ([]TaskSummary, error) {
	if err := a.ready(); err != nil {
		return nil, err
	}
	projectID = strings.TrimSpace(projectID)
	if projectID == "" {
		return nil, fmt.Errorf("project_id is required: %w", ErrInvalidRequest)
	}
	if _, err := a.service.GetProject(ctx, projectID); err != nil {
		return nil, mapAppError("list tasks", err)
	}
	tasks, err := a.service.ListTasks(ctx, projectID)
	if err != nil {
		return nil, mapAppError("list tasks", err)
	}
	out := make([]TaskSummary, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, taskSummaryFromDomain(t))
	}
	return out, nil
}

// RenderChart builds a project chart and encodes it as format.
func (a *AppServiceAdapter) RenderChart(ctx context.Context, in ChartRequest, format string) (RenderedChart, error) {
	if err := a.ready(); err != nil {
		return RenderedChart{}, err
	}
	projectID := strings.TrimSpace(in.ProjectID)
	if projectID == "" {
		return RenderedChart{}, fmt.Errorf("project_id is required: %w", ErrInvalidRequest)
	}
	opts := app.ChartOptions{
		RightToLeft:       in.RightToLeft,
		HorizontalDisplay: in.HorizontalDisplay,
	}
	if strings.TrimSpace(in.ViewMode) != "" {
		mode, err := domain.ParseViewMode(in.ViewMode)
		if err != nil {
			return RenderedChart{}, fmt.Errorf("view_mode %q: %w", in.ViewMode, errors.Join(ErrInvalidRequest, err))
		}
		opts.ViewMode = mode
	}

	var buf bytes.Buffer
	switch strings.ToLower(strings.TrimSpace(format)) {
	case FormatSVG, "":
		frame, err := a.service.BuildChart(ctx, projectID, opts)
		if err != nil {
			return RenderedChart{}, mapAppError("render chart", err)
		}
		if err := svg.Write(&buf, frame); err != nil {
			return RenderedChart{}, fmt.Errorf("render svg: %w", err)
		}
		return RenderedChart{ContentType: "image/svg+xml", Body: buf.Bytes()}, nil
	case FormatPDF:
		opts.Measurer = pdf.NewMeasurer("", a.service.ChartConfig().FontSize)
		frame, err := a.service.BuildChart(ctx, projectID, opts)
		if err != nil {
			return RenderedChart{}, mapAppError("render chart", err)
		}
		if err := pdf.Write(&buf, frame); err != nil {
			return RenderedChart{}, fmt.Errorf("render pdf: %w", err)
		}
		return RenderedChart{ContentType: "application/pdf", Body: buf.Bytes()}, nil
	default:
		return RenderedChart{}, fmt.Errorf("unsupported format %q: %w", format, ErrInvalidRequest)
	}
}

// FitLabel runs the label heuristic, estimating the text width when none is given.
func (a *AppServiceAdapter) FitLabel(_ context.Context, in FitLabelRequest) (FitLabelResult, error) {
	if err := a.ready(); err != nil {
		return FitLabelResult{}, err
	}
	measured := 0.0
	if in.MeasuredWidth != nil {
		if *in.MeasuredWidth < 0 {
			return FitLabelResult{}, fmt.Errorf("measured_width must be >= 0: %w", ErrInvalidRequest)
		}
		measured = *in.MeasuredWidth
	} else {
		measured = measure.NewEstimate(a.service.ChartConfig().FontSize).Width(in.Text)
	}
	decision := a.service.FitLabel(label.Input{
		Span:              domain.BarSpan{Start: in.Start, End: in.End},
		Measurement:       domain.LabelMeasurement{FullText: in.Text, MeasuredWidth: measured},
		RightToLeft:       in.RightToLeft,
		HorizontalDisplay: in.HorizontalDisplay,
		HasChildren:       in.HasChildren,
		IndentUnit:        in.IndentUnit,
	})
	return FitLabelResult{Decision: decision, MeasuredWidth: measured}, nil
}

// DispatchAction routes a task action or a pointer signal through the app relay.
func (a *AppServiceAdapter) DispatchAction(ctx context.Context, in ActionRequest) (ActionResult, error) {
	if err := a.ready(); err != nil {
		return ActionResult{}, err
	}
	projectID := strings.TrimSpace(in.ProjectID)
	if projectID == "" {
		return ActionResult{}, fmt.Errorf("project_id is required: %w", ErrInvalidRequest)
	}

	var (
		res app.ActionResult
		err error
	)
	switch {
	case strings.TrimSpace(in.Signal) != "":
		if in.X == nil || in.Y == nil {
			return ActionResult{}, fmt.Errorf("x and y are required with signal: %w", ErrInvalidRequest)
		}
		res, err = a.service.DispatchPointer(ctx, projectID, *in.X, *in.Y, in.Signal)
	case strings.TrimSpace(in.TaskID) != "":
		action, parseErr := domain.ParseAction(in.Action)
		if parseErr != nil {
			return ActionResult{}, fmt.Errorf("action %q: %w", in.Action, errors.Join(ErrInvalidRequest, parseErr))
		}
		res, err = a.service.DispatchAction(ctx, projectID, in.TaskID, action)
	default:
		return ActionResult{}, fmt.Errorf("task_id with action, or x/y with signal, is required: %w", ErrInvalidRequest)
	}
	if err != nil {
		return ActionResult{}, mapAppError("dispatch action", err)
	}
	return ActionResult{
		Action:    string(res.Action),
		TaskID:    res.TaskID,
		Forwarded: res.Forwarded,
		Selected:  res.View.Selected,
		Hovered:   res.View.Hovered,
		Opened:    res.View.Opened,
	}, nil
}

func (a *AppServiceAdapter) ready() error {
	if a == nil || a.service == nil {
		return fmt.Errorf("app service adapter is not configured: %w", ErrInvalidRequest)
	}
	return nil
}

func taskSummaryFromDomain(t domain.Task) TaskSummary {
	out := TaskSummary{
		ID:           t.ID,
		ParentID:     t.ParentID,
		Name:         t.Name,
		Description:  t.Description,
		Type:         string(t.Type),
		Progress:     t.Progress,
		Dependencies: append([]string{}, t.Dependencies...),
		DisplayOrder: t.DisplayOrder,
		HideChildren: t.HideChildren,
		IsDisabled:   t.IsDisabled,
	}
	if !t.Start.IsZero() {
		out.Start = timePtr(t.Start)
	}
	if !t.End.IsZero() {
		out.End = timePtr(t.End)
	}
	return out
}

func timePtr(t time.Time) *time.Time {
	ts := t.UTC()
	return &ts
}

// mapAppError maps app and domain errors onto transport errors.
func mapAppError(operation string, err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, app.ErrNotFound), errors.Is(err, app.ErrTaskNotOnChart):
		return fmt.Errorf("%s: %w", operation, errors.Join(ErrNotFound, err))
	case errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, domain.ErrInvalidName),
		errors.Is(err, domain.ErrInvalidTaskType),
		errors.Is(err, domain.ErrInvalidDateRange),
		errors.Is(err, domain.ErrInvalidProgress),
		errors.Is(err, domain.ErrInvalidDependency),
		errors.Is(err, domain.ErrInvalidViewMode),
		errors.Is(err, domain.ErrInvalidAction),
		errors.Is(err, app.ErrUnknownSignal),
		errors.Is(err, app.ErrInvalidSeedPlan):
		return fmt.Errorf("%s: %w", operation, errors.Join(ErrInvalidRequest, err))
	default:
		return fmt.Errorf("%s: %w", operation, err)
	}
}
