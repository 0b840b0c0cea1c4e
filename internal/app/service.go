package app

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/hylla/gantry/internal/chart"
	"github.com/hylla/gantry/internal/domain"
	"github.com/hylla/gantry/internal/event"
	"github.com/hylla/gantry/internal/label"
	"github.com/hylla/gantry/internal/measure"
)

// ServiceConfig holds configuration for service.
type ServiceConfig struct {
	Chart       chart.Config
	Permissions event.Permissions
	// DoubleClickWindow is handed to pointer trackers built by the service.
	DoubleClickWindow time.Duration
}

// IDGenerator returns unique identifiers for new entities.
type IDGenerator func() string

// Clock returns the current time.
type Clock func() time.Time

// ViewState is the interaction state of one project chart.
type ViewState struct {
	Selected string `json:"selected,omitempty"`
	Hovered  string `json:"hovered,omitempty"`
	Opened   string `json:"opened,omitempty"`
}

// Service coordinates storage, chart composition and item actions.
type Service struct {
	repo        Repository
	idGen       IDGenerator
	clock       Clock
	chart       *chart.Chart
	permissions event.Permissions
	dblWindow   time.Duration

	mu    sync.Mutex
	views map[string]ViewState
}

// NewService constructs a new value for this package.
func NewService(repo Repository, idGen IDGenerator, clock Clock, cfg ServiceConfig) *Service {
	if idGen == nil {
		idGen = func() string { return "" }
	}
	if clock == nil {
		clock = time.Now
	}
	if cfg.DoubleClickWindow <= 0 {
		cfg.DoubleClickWindow = event.DefaultDoubleClickWindow
	}
	if cfg.Chart.Layout.ViewMode == "" {
		cfg.Chart = chart.DefaultConfig()
	}

	return &Service{
		repo:        repo,
		idGen:       idGen,
		clock:       clock,
		chart:       chart.New(cfg.Chart, chart.WithLogger(log.Default())),
		permissions: cfg.Permissions,
		dblWindow:   cfg.DoubleClickWindow,
		views:       map[string]ViewState{},
	}
}

// EnsureDefaultProject returns the first active project, creating one when the store is empty.
func (s *Service) EnsureDefaultProject(ctx context.Context) (domain.Project, error) {
	projects, err := s.repo.ListProjects(ctx, false)
	if err != nil {
		return domain.Project{}, err
	}
	if len(projects) > 0 {
		return projects[0], nil
	}
	return s.CreateProject(ctx, "Roadmap", "")
}

// CreateProject creates a project.
func (s *Service) CreateProject(ctx context.Context, name, description string) (domain.Project, error) {
	project, err := domain.NewProject(s.idGen(), name, description, s.clock())
	if err != nil {
		return domain.Project{}, err
	}
	if err := s.repo.CreateProject(ctx, project); err != nil {
		return domain.Project{}, err
	}
	log.Debug("project created", "project_id", project.ID, "slug", project.Slug)
	return project, nil
}

// RenameProject renames a project and updates its description.
func (s *Service) RenameProject(ctx context.Context, projectID, name, description string) (domain.Project, error) {
	project, err := s.repo.GetProject(ctx, projectID)
	if err != nil {
		return domain.Project{}, err
	}
	now := s.clock()
	if err := project.Rename(name, now); err != nil {
		return domain.Project{}, err
	}
	project.UpdateDescription(description, now)
	if err := s.repo.UpdateProject(ctx, project); err != nil {
		return domain.Project{}, err
	}
	return project, nil
}

// ArchiveProject hides a project from default listings.
func (s *Service) ArchiveProject(ctx context.Context, projectID string) (domain.Project, error) {
	project, err := s.repo.GetProject(ctx, projectID)
	if err != nil {
		return domain.Project{}, err
	}
	project.Archive(s.clock())
	if err := s.repo.UpdateProject(ctx, project); err != nil {
		return domain.Project{}, err
	}
	return project, nil
}

// RestoreProject clears a project's archive marker.
func (s *Service) RestoreProject(ctx context.Context, projectID string) (domain.Project, error) {
	project, err := s.repo.GetProject(ctx, projectID)
	if err != nil {
		return domain.Project{}, err
	}
	project.Restore(s.clock())
	if err := s.repo.UpdateProject(ctx, project); err != nil {
		return domain.Project{}, err
	}
	return project, nil
}

// DeleteProject removes a project and its tasks.
func (s *Service) DeleteProject(ctx context.Context, projectID string) error {
	if err := s.repo.DeleteProject(ctx, projectID); err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.views, projectID)
	s.mu.Unlock()
	return nil
}

// GetProject loads one project.
func (s *Service) GetProject(ctx context.Context, projectID string) (domain.Project, error) {
	return s.repo.GetProject(ctx, projectID)
}

// ListProjects lists projects.
func (s *Service) ListProjects(ctx context.Context, includeArchived bool) ([]domain.Project, error) {
	return s.repo.ListProjects(ctx, includeArchived)
}

// CreateTaskInput holds input values for create task operations.
type CreateTaskInput struct {
	ProjectID    string
	ParentID     string
	Name         string
	Description  string
	Type         domain.TaskType
	Start        time.Time
	End          time.Time
	Progress     float64
	Dependencies []string
	HideChildren bool
	IsDisabled   bool
}

// UpdateTaskInput holds input values for update task operations.
type UpdateTaskInput struct {
	TaskID       string
	Name         string
	Description  string
	Progress     float64
	HideChildren bool
	IsDisabled   bool
}

// CreateTask appends a task to the end of its project's rows.
func (s *Service) CreateTask(ctx context.Context, in CreateTaskInput) (domain.Task, error) {
	if _, err := s.repo.GetProject(ctx, in.ProjectID); err != nil {
		return domain.Task{}, err
	}
	tasks, err := s.repo.ListTasks(ctx, in.ProjectID)
	if err != nil {
		return domain.Task{}, err
	}
	if err := checkReferences(tasks, strings.TrimSpace(in.ParentID), in.Dependencies); err != nil {
		return domain.Task{}, err
	}
	order := 0
	for _, t := range tasks {
		if t.DisplayOrder >= order {
			order = t.DisplayOrder + 1
		}
	}

	task, err := domain.NewTask(domain.TaskInput{
		ID:           s.idGen(),
		ProjectID:    in.ProjectID,
		ParentID:     in.ParentID,
		Name:         in.Name,
		Description:  in.Description,
		Type:         in.Type,
		Start:        in.Start,
		End:          in.End,
		Progress:     in.Progress,
		Dependencies: in.Dependencies,
		DisplayOrder: order,
		HideChildren: in.HideChildren,
		IsDisabled:   in.IsDisabled,
	}, s.clock())
	if err != nil {
		return domain.Task{}, err
	}

	if err := s.repo.CreateTask(ctx, task); err != nil {
		return domain.Task{}, err
	}
	return task, nil
}

// UpdateTask replaces the editable details of a task.
func (s *Service) UpdateTask(ctx context.Context, in UpdateTaskInput) (domain.Task, error) {
	task, err := s.repo.GetTask(ctx, in.TaskID)
	if err != nil {
		return domain.Task{}, err
	}
	if err := task.UpdateDetails(in.Name, in.Description, in.Progress, s.clock()); err != nil {
		return domain.Task{}, err
	}
	task.HideChildren = in.HideChildren
	task.IsDisabled = in.IsDisabled
	if err := s.repo.UpdateTask(ctx, task); err != nil {
		return domain.Task{}, err
	}
	return task, nil
}

// RescheduleTask moves a task to a new date range.
func (s *Service) RescheduleTask(ctx context.Context, taskID string, start, end time.Time) (domain.Task, error) {
	task, err := s.repo.GetTask(ctx, taskID)
	if err != nil {
		return domain.Task{}, err
	}
	if err := task.Reschedule(start, end, s.clock()); err != nil {
		return domain.Task{}, err
	}
	if err := s.repo.UpdateTask(ctx, task); err != nil {
		return domain.Task{}, err
	}
	return task, nil
}

// SetTaskDependencies replaces the tasks a task depends on.
func (s *Service) SetTaskDependencies(ctx context.Context, taskID string, deps []string) (domain.Task, error) {
	task, err := s.repo.GetTask(ctx, taskID)
	if err != nil {
		return domain.Task{}, err
	}
	tasks, err := s.repo.ListTasks(ctx, task.ProjectID)
	if err != nil {
		return domain.Task{}, err
	}
	if err := checkReferences(tasks, "", deps); err != nil {
		return domain.Task{}, err
	}
	if err := task.SetDependencies(deps, s.clock()); err != nil {
		return domain.Task{}, err
	}
	if err := s.repo.UpdateTask(ctx, task); err != nil {
		return domain.Task{}, err
	}
	return task, nil
}

// DeleteTask removes a task and forgets any interaction state pointing at it.
func (s *Service) DeleteTask(ctx context.Context, taskID string) error {
	task, err := s.repo.GetTask(ctx, taskID)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteTask(ctx, taskID); err != nil {
		return err
	}
	s.updateView(task.ProjectID, func(v *ViewState) {
		if v.Selected == taskID {
			v.Selected = ""
		}
		if v.Hovered == taskID {
			v.Hovered = ""
		}
		if v.Opened == taskID {
			v.Opened = ""
		}
	})
	log.Info("task deleted", "project_id", task.ProjectID, "task_id", taskID)
	return nil
}

// GetTask loads one task.
func (s *Service) GetTask(ctx context.Context, taskID string) (domain.Task, error) {
	return s.repo.GetTask(ctx, taskID)
}

// ListTasks lists a project's tasks in display order.
func (s *Service) ListTasks(ctx context.Context, projectID string) ([]domain.Task, error) {
	return s.repo.ListTasks(ctx, projectID)
}

// checkReferences rejects parent or dependency ids that are not in tasks.
func checkReferences(tasks []domain.Task, parentID string, deps []string) error {
	ids := make([]string, 0, len(tasks))
	for _, t := range tasks {
		ids = append(ids, t.ID)
	}
	if parentID != "" && !slices.Contains(ids, parentID) {
		return fmt.Errorf("parent %q: %w", parentID, ErrNotFound)
	}
	for _, dep := range deps {
		dep = strings.TrimSpace(dep)
		if dep != "" && !slices.Contains(ids, dep) {
			return fmt.Errorf("dependency %q: %w", dep, domain.ErrInvalidDependency)
		}
	}
	return nil
}

// ChartOptions tunes one chart build.
type ChartOptions struct {
	// ViewMode overrides the configured view mode when set.
	ViewMode domain.ViewMode
	// RightToLeft overrides the configured direction when set.
	RightToLeft *bool
	// HorizontalDisplay overrides the configured display mode when set.
	HorizontalDisplay *bool
	Measurer          measure.Measurer
	Labeler           *chart.Labeler
}

// ChartConfig returns the base chart settings.
func (s *Service) ChartConfig() chart.Config {
	return s.chart.Config()
}

// BuildChart composes the current chart frame of a project.
func (s *Service) BuildChart(ctx context.Context, projectID string, opts ChartOptions) (chart.Frame, error) {
	if _, err := s.repo.GetProject(ctx, projectID); err != nil {
		return chart.Frame{}, err
	}
	tasks, err := s.repo.ListTasks(ctx, projectID)
	if err != nil {
		return chart.Frame{}, err
	}
	c := s.chart
	if opts.ViewMode != "" || opts.RightToLeft != nil || opts.HorizontalDisplay != nil {
		cfg := s.chart.Config()
		if opts.ViewMode != "" {
			cfg.Layout.ViewMode = opts.ViewMode
		}
		if opts.RightToLeft != nil {
			cfg.Layout.RightToLeft = *opts.RightToLeft
		}
		if opts.HorizontalDisplay != nil {
			cfg.HorizontalDisplay = *opts.HorizontalDisplay
		}
		c = chart.New(cfg, chart.WithLogger(log.Default()))
	}
	return c.Build(tasks, chart.BuildOptions{
		Measurer: opts.Measurer,
		Labeler:  opts.Labeler,
		Selected: s.ViewState(projectID).Selected,
		Now:      s.clock(),
	}), nil
}

// FitLabel runs the label heuristic with the configured constants.
func (s *Service) FitLabel(in label.Input) domain.PlacementDecision {
	if in.IndentUnit == 0 {
		in.IndentUnit = s.chart.Config().ArrowIndent
	}
	return label.NewFitter(s.chart.Config().Label).Fit(in)
}

// ViewState returns the interaction state of a project chart.
func (s *Service) ViewState(projectID string) ViewState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.views[projectID]
}

func (s *Service) updateView(projectID string, fn func(*ViewState)) ViewState {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.views[projectID]
	fn(&v)
	s.views[projectID] = v
	return v
}

// Permissions returns the action permissions applied by relays.
func (s *Service) Permissions() event.Permissions {
	return s.permissions
}

// Relay returns an event relay that forwards to this service.
func (s *Service) Relay() *event.Relay {
	return event.NewRelay(s, s.permissions)
}

// Tracker returns a pointer tracker over a fresh relay.
func (s *Service) Tracker() *event.Tracker {
	return event.NewTracker(s.Relay(), s.dblWindow)
}

// HandleAction applies an item action. It satisfies event.Handler.
func (s *Service) HandleAction(ctx context.Context, action domain.Action, bar domain.BarTask) error {
	task := bar.Task
	switch action {
	case domain.ActionSelect, domain.ActionClick:
		s.updateView(task.ProjectID, func(v *ViewState) { v.Selected = task.ID })
	case domain.ActionMouseEnter:
		s.updateView(task.ProjectID, func(v *ViewState) { v.Hovered = task.ID })
	case domain.ActionMouseLeave:
		s.updateView(task.ProjectID, func(v *ViewState) {
			if v.Hovered == task.ID {
				v.Hovered = ""
			}
		})
	case domain.ActionDblClick:
		s.updateView(task.ProjectID, func(v *ViewState) {
			v.Selected = task.ID
			v.Opened = task.ID
		})
	case domain.ActionDelete:
		return s.DeleteTask(ctx, task.ID)
	default:
		return domain.ErrInvalidAction
	}
	log.Debug("task action", "action", action, "project_id", task.ProjectID, "task_id", task.ID)
	return nil
}

// CloseDetail clears the opened task of a project chart.
func (s *Service) CloseDetail(projectID string) ViewState {
	return s.updateView(projectID, func(v *ViewState) { v.Opened = "" })
}

// ActionResult reports the outcome of a dispatched action.
type ActionResult struct {
	Action    domain.Action `json:"action"`
	TaskID    string        `json:"task_id"`
	Forwarded bool          `json:"forwarded"`
	View      ViewState     `json:"view"`
}

// DispatchAction sends action for taskID through the event relay, so delete
// permissions apply exactly as they do for interactive input.
func (s *Service) DispatchAction(ctx context.Context, projectID, taskID string, action domain.Action) (ActionResult, error) {
	frame, err := s.BuildChart(ctx, projectID, ChartOptions{})
	if err != nil {
		return ActionResult{}, err
	}
	item, ok := frame.Item(strings.TrimSpace(taskID))
	if !ok {
		return ActionResult{}, fmt.Errorf("task %q: %w", taskID, ErrTaskNotOnChart)
	}
	relay := s.Relay()
	result := ActionResult{Action: action, TaskID: item.Bar.Task.ID}
	if action == domain.ActionDelete {
		res, err := relay.Key(ctx, event.KeyDelete, item.Bar)
		if err != nil {
			return ActionResult{}, err
		}
		result.Forwarded = res.Forwarded
	} else {
		sig, ok := signalFor(action)
		if !ok {
			return ActionResult{}, domain.ErrInvalidAction
		}
		if err := relay.Pointer(ctx, sig, item.Bar); err != nil {
			return ActionResult{}, err
		}
		result.Forwarded = true
	}
	result.View = s.ViewState(projectID)
	return result, nil
}

// DispatchPointer hit tests (x, y) on the current chart and relays signal to the bar found there.
func (s *Service) DispatchPointer(ctx context.Context, projectID string, x, y float64, signal string) (ActionResult, error) {
	sig, ok := event.ParseSignal(signal)
	if !ok {
		return ActionResult{}, fmt.Errorf("%q: %w", signal, ErrUnknownSignal)
	}
	frame, err := s.BuildChart(ctx, projectID, ChartOptions{})
	if err != nil {
		return ActionResult{}, err
	}
	bar, ok := event.HitTest(frame.Bars(), x, y)
	if !ok {
		return ActionResult{View: s.ViewState(projectID)}, nil
	}
	if err := s.Relay().Pointer(ctx, sig, bar); err != nil {
		return ActionResult{}, err
	}
	action, _ := actionFor(sig)
	return ActionResult{Action: action, TaskID: bar.Task.ID, Forwarded: true, View: s.ViewState(projectID)}, nil
}

func signalFor(action domain.Action) (event.Signal, bool) {
	switch action {
	case domain.ActionSelect:
		return event.SignalFocus, true
	case domain.ActionMouseEnter:
		return event.SignalEnter, true
	case domain.ActionMouseLeave:
		return event.SignalLeave, true
	case domain.ActionClick:
		return event.SignalClick, true
	case domain.ActionDblClick:
		return event.SignalDoubleClick, true
	}
	return "", false
}

func actionFor(sig event.Signal) (domain.Action, bool) {
	for _, action := range domain.Actions() {
		if s, ok := signalFor(action); ok && s == sig {
			return action, true
		}
	}
	return "", false
}

// IsNotFound reports whether err is a lookup miss.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
