package domain

import (
	"slices"
	"strings"
	"time"
)

// TaskType is the user-facing kind of a chart row.
type TaskType string

const (
	TaskTypeTask      TaskType = "task"
	TaskTypeMilestone TaskType = "milestone"
	TaskTypeProject   TaskType = "project"
)

var validTaskTypes = []TaskType{TaskTypeTask, TaskTypeMilestone, TaskTypeProject}

// ParseTaskType normalizes raw into a known task type. Empty input maps to TaskTypeTask.
func ParseTaskType(raw string) (TaskType, error) {
	t := TaskType(strings.ToLower(strings.TrimSpace(raw)))
	if t == "" {
		return TaskTypeTask, nil
	}
	if !slices.Contains(validTaskTypes, t) {
		return "", ErrInvalidTaskType
	}
	return t, nil
}

// Task is one scheduled row of a Gantt chart.
type Task struct {
	ID           string
	ProjectID    string
	ParentID     string
	Name         string
	Description  string
	Type         TaskType
	Start        time.Time
	End          time.Time
	Progress     float64
	Dependencies []string
	DisplayOrder int
	HideChildren bool
	IsDisabled   bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type TaskInput struct {
	ID           string
	ProjectID    string
	ParentID     string
	Name         string
	Description  string
	Type         TaskType
	Start        time.Time
	End          time.Time
	Progress     float64
	Dependencies []string
	DisplayOrder int
	HideChildren bool
	IsDisabled   bool
}

func NewTask(in TaskInput, now time.Time) (Task, error) {
	in.ID = strings.TrimSpace(in.ID)
	in.ProjectID = strings.TrimSpace(in.ProjectID)
	in.ParentID = strings.TrimSpace(in.ParentID)
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)

	if in.ID == "" || in.ProjectID == "" {
		return Task{}, ErrInvalidID
	}
	if in.ParentID == in.ID {
		return Task{}, ErrInvalidID
	}
	if in.Name == "" {
		return Task{}, ErrInvalidName
	}
	if in.Type == "" {
		in.Type = TaskTypeTask
	}
	if !slices.Contains(validTaskTypes, in.Type) {
		return Task{}, ErrInvalidTaskType
	}
	start, end, err := normalizeSchedule(in.Type, in.Start, in.End)
	if err != nil {
		return Task{}, err
	}
	if in.Progress < 0 || in.Progress > 100 {
		return Task{}, ErrInvalidProgress
	}
	deps, err := normalizeDependencies(in.ID, in.Dependencies)
	if err != nil {
		return Task{}, err
	}

	return Task{
		ID:           in.ID,
		ProjectID:    in.ProjectID,
		ParentID:     in.ParentID,
		Name:         in.Name,
		Description:  in.Description,
		Type:         in.Type,
		Start:        start,
		End:          end,
		Progress:     in.Progress,
		Dependencies: deps,
		DisplayOrder: in.DisplayOrder,
		HideChildren: in.HideChildren,
		IsDisabled:   in.IsDisabled,
		CreatedAt:    now.UTC(),
		UpdatedAt:    now.UTC(),
	}, nil
}

// Reschedule moves the task to a new date range.
func (t *Task) Reschedule(start, end time.Time, now time.Time) error {
	start, end, err := normalizeSchedule(t.Type, start, end)
	if err != nil {
		return err
	}
	t.Start = start
	t.End = end
	t.UpdatedAt = now.UTC()
	return nil
}

func (t *Task) UpdateDetails(name, description string, progress float64, now time.Time) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrInvalidName
	}
	if progress < 0 || progress > 100 {
		return ErrInvalidProgress
	}
	t.Name = name
	t.Description = strings.TrimSpace(description)
	t.Progress = progress
	t.UpdatedAt = now.UTC()
	return nil
}

func (t *Task) SetDependencies(deps []string, now time.Time) error {
	normalized, err := normalizeDependencies(t.ID, deps)
	if err != nil {
		return err
	}
	t.Dependencies = normalized
	t.UpdatedAt = now.UTC()
	return nil
}

// HasSchedule reports whether both ends of the date range are set.
func (t Task) HasSchedule() bool {
	return !t.Start.IsZero() && !t.End.IsZero()
}

// normalizeSchedule validates a date range. Project rows may omit both ends and
// inherit the span of their children at layout time; milestones collapse to Start.
func normalizeSchedule(kind TaskType, start, end time.Time) (time.Time, time.Time, error) {
	if start.IsZero() && end.IsZero() && kind == TaskTypeProject {
		return time.Time{}, time.Time{}, nil
	}
	if start.IsZero() {
		return time.Time{}, time.Time{}, ErrInvalidDateRange
	}
	start = start.UTC().Truncate(time.Second)
	if kind == TaskTypeMilestone && end.IsZero() {
		return start, start, nil
	}
	if end.IsZero() {
		return time.Time{}, time.Time{}, ErrInvalidDateRange
	}
	end = end.UTC().Truncate(time.Second)
	if end.Before(start) {
		return time.Time{}, time.Time{}, ErrInvalidDateRange
	}
	return start, end, nil
}

func normalizeDependencies(selfID string, deps []string) ([]string, error) {
	out := make([]string, 0, len(deps))
	seen := map[string]struct{}{}
	for _, raw := range deps {
		id := strings.TrimSpace(raw)
		if id == "" {
			continue
		}
		if id == selfID {
			return nil, ErrInvalidDependency
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	slices.Sort(out)
	return out, nil
}
