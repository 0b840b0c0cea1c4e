package app

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/hylla/gantry/internal/domain"
)

// SnapshotVersion identifies the snapshot JSON layout.
const SnapshotVersion = "gantry.snapshot.v1"

// Snapshot is a portable export of projects and tasks.
type Snapshot struct {
	Version    string            `json:"version"`
	ExportedAt time.Time         `json:"exported_at"`
	Projects   []SnapshotProject `json:"projects"`
	Tasks      []SnapshotTask    `json:"tasks"`
}

// SnapshotProject represents snapshot project data used by this package.
type SnapshotProject struct {
	ID          string     `json:"id"`
	Slug        string     `json:"slug"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	ArchivedAt  *time.Time `json:"archived_at,omitempty"`
}

// SnapshotTask represents snapshot task data used by this package.
type SnapshotTask struct {
	ID           string          `json:"id"`
	ProjectID    string          `json:"project_id"`
	ParentID     string          `json:"parent_id,omitempty"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	Type         domain.TaskType `json:"type"`
	Start        *time.Time      `json:"start,omitempty"`
	End          *time.Time      `json:"end,omitempty"`
	Progress     float64         `json:"progress"`
	Dependencies []string        `json:"dependencies"`
	DisplayOrder int             `json:"display_order"`
	HideChildren bool            `json:"hide_children,omitempty"`
	IsDisabled   bool            `json:"is_disabled,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// ExportSnapshot collects every project and its tasks.
func (s *Service) ExportSnapshot(ctx context.Context, includeArchived bool) (Snapshot, error) {
	projects, err := s.repo.ListProjects(ctx, includeArchived)
	if err != nil {
		return Snapshot{}, err
	}

	snap := Snapshot{
		Version:    SnapshotVersion,
		ExportedAt: s.clock().UTC(),
		Projects:   make([]SnapshotProject, 0, len(projects)),
		Tasks:      make([]SnapshotTask, 0),
	}
	for _, project := range projects {
		snap.Projects = append(snap.Projects, snapshotProjectFromDomain(project))

		tasks, listErr := s.repo.ListTasks(ctx, project.ID)
		if listErr != nil {
			return Snapshot{}, listErr
		}
		for _, task := range tasks {
			snap.Tasks = append(snap.Tasks, snapshotTaskFromDomain(task))
		}
	}

	snap.sort()
	return snap, nil
}

// ImportSnapshot upserts every project and task of snap.
func (s *Service) ImportSnapshot(ctx context.Context, snap Snapshot) error {
	if err := snap.Validate(); err != nil {
		return err
	}
	snap.sort()

	for _, project := range snap.Projects {
		if err := s.upsertProject(ctx, project.toDomain()); err != nil {
			return err
		}
	}
	for _, task := range snap.Tasks {
		dt := task.toDomain()
		if _, err := s.repo.GetTask(ctx, dt.ID); err == nil {
			if err := s.repo.UpdateTask(ctx, dt); err != nil {
				return err
			}
			continue
		} else if !errors.Is(err, ErrNotFound) {
			return err
		}
		if err := s.repo.CreateTask(ctx, dt); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks ids, references and schedules before anything is written.
func (s *Snapshot) Validate() error {
	if s.Version != "" && s.Version != SnapshotVersion {
		return fmt.Errorf("unsupported snapshot version: %q", s.Version)
	}

	projectIDs := map[string]struct{}{}
	for i, p := range s.Projects {
		if strings.TrimSpace(p.ID) == "" {
			return fmt.Errorf("projects[%d].id is required", i)
		}
		if strings.TrimSpace(p.Name) == "" {
			return fmt.Errorf("projects[%d].name is required", i)
		}
		if p.CreatedAt.IsZero() || p.UpdatedAt.IsZero() {
			return fmt.Errorf("projects[%d] timestamps are required", i)
		}
		if _, exists := projectIDs[p.ID]; exists {
			return fmt.Errorf("duplicate project id: %q", p.ID)
		}
		projectIDs[p.ID] = struct{}{}
	}

	taskProjects := map[string]string{}
	for i, t := range s.Tasks {
		if strings.TrimSpace(t.ID) == "" {
			return fmt.Errorf("tasks[%d].id is required", i)
		}
		if strings.TrimSpace(t.ProjectID) == "" {
			return fmt.Errorf("tasks[%d].project_id is required", i)
		}
		if strings.TrimSpace(t.Name) == "" {
			return fmt.Errorf("tasks[%d].name is required", i)
		}
		if t.Type == "" {
			t.Type = domain.TaskTypeTask
			s.Tasks[i].Type = t.Type
		}
		if _, err := domain.ParseTaskType(string(t.Type)); err != nil {
			return fmt.Errorf("tasks[%d].type must be task|milestone|project", i)
		}
		if t.Progress < 0 || t.Progress > 100 {
			return fmt.Errorf("tasks[%d].progress must be within 0..100", i)
		}
		if t.Start != nil && t.End != nil && t.End.Before(*t.Start) {
			return fmt.Errorf("tasks[%d].end must not precede start", i)
		}
		if (t.Start == nil || t.End == nil) && t.Type == domain.TaskTypeTask {
			return fmt.Errorf("tasks[%d] start and end are required", i)
		}
		if t.Start == nil && t.Type == domain.TaskTypeMilestone {
			return fmt.Errorf("tasks[%d].start is required for milestones", i)
		}
		if t.CreatedAt.IsZero() || t.UpdatedAt.IsZero() {
			return fmt.Errorf("tasks[%d] timestamps are required", i)
		}
		if _, ok := projectIDs[t.ProjectID]; !ok {
			return fmt.Errorf("tasks[%d] references unknown project_id %q", i, t.ProjectID)
		}
		if _, exists := taskProjects[t.ID]; exists {
			return fmt.Errorf("duplicate task id: %q", t.ID)
		}
		taskProjects[t.ID] = t.ProjectID
	}
	for i, t := range s.Tasks {
		if parentID := strings.TrimSpace(t.ParentID); parentID != "" {
			if parentID == t.ID {
				return fmt.Errorf("tasks[%d] cannot parent itself", i)
			}
			if project, ok := taskProjects[parentID]; !ok || project != t.ProjectID {
				return fmt.Errorf("tasks[%d] references unknown parent_id %q", i, parentID)
			}
		}
		for _, dep := range t.Dependencies {
			if dep == t.ID {
				return fmt.Errorf("tasks[%d] cannot depend on itself", i)
			}
			if project, ok := taskProjects[dep]; !ok || project != t.ProjectID {
				return fmt.Errorf("tasks[%d] references unknown dependency %q", i, dep)
			}
		}
	}
	return nil
}

func (s *Snapshot) sort() {
	sort.Slice(s.Projects, func(i, j int) bool {
		return s.Projects[i].ID < s.Projects[j].ID
	})
	sort.Slice(s.Tasks, func(i, j int) bool {
		a := s.Tasks[i]
		b := s.Tasks[j]
		if a.ProjectID == b.ProjectID {
			if a.DisplayOrder == b.DisplayOrder {
				return a.ID < b.ID
			}
			return a.DisplayOrder < b.DisplayOrder
		}
		return a.ProjectID < b.ProjectID
	})
}

func (s *Service) upsertProject(ctx context.Context, p domain.Project) error {
	if _, err := s.repo.GetProject(ctx, p.ID); err == nil {
		return s.repo.UpdateProject(ctx, p)
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}
	return s.repo.CreateProject(ctx, p)
}

func snapshotProjectFromDomain(p domain.Project) SnapshotProject {
	return SnapshotProject{
		ID:          p.ID,
		Slug:        p.Slug,
		Name:        p.Name,
		Description: p.Description,
		CreatedAt:   p.CreatedAt.UTC(),
		UpdatedAt:   p.UpdatedAt.UTC(),
		ArchivedAt:  copyTime(p.ArchivedAt),
	}
}

func (p SnapshotProject) toDomain() domain.Project {
	return domain.Project{
		ID:          strings.TrimSpace(p.ID),
		Slug:        strings.TrimSpace(p.Slug),
		Name:        strings.TrimSpace(p.Name),
		Description: strings.TrimSpace(p.Description),
		CreatedAt:   p.CreatedAt.UTC(),
		UpdatedAt:   p.UpdatedAt.UTC(),
		ArchivedAt:  copyTime(p.ArchivedAt),
	}
}

func snapshotTaskFromDomain(t domain.Task) SnapshotTask {
	out := SnapshotTask{
		ID:           t.ID,
		ProjectID:    t.ProjectID,
		ParentID:     t.ParentID,
		Name:         t.Name,
		Description:  t.Description,
		Type:         t.Type,
		Progress:     t.Progress,
		Dependencies: append([]string{}, t.Dependencies...),
		DisplayOrder: t.DisplayOrder,
		HideChildren: t.HideChildren,
		IsDisabled:   t.IsDisabled,
		CreatedAt:    t.CreatedAt.UTC(),
		UpdatedAt:    t.UpdatedAt.UTC(),
	}
	if !t.Start.IsZero() {
		out.Start = copyTime(&t.Start)
	}
	if !t.End.IsZero() {
		out.End = copyTime(&t.End)
	}
	return out
}

func (t SnapshotTask) toDomain() domain.Task {
	out := domain.Task{
		ID:           strings.TrimSpace(t.ID),
		ProjectID:    strings.TrimSpace(t.ProjectID),
		ParentID:     strings.TrimSpace(t.ParentID),
		Name:         strings.TrimSpace(t.Name),
		Description:  strings.TrimSpace(t.Description),
		Type:         t.Type,
		Progress:     t.Progress,
		Dependencies: append([]string{}, t.Dependencies...),
		DisplayOrder: t.DisplayOrder,
		HideChildren: t.HideChildren,
		IsDisabled:   t.IsDisabled,
		CreatedAt:    t.CreatedAt.UTC(),
		UpdatedAt:    t.UpdatedAt.UTC(),
	}
	if t.Start != nil {
		out.Start = t.Start.UTC()
	}
	if t.End != nil {
		out.End = t.End.UTC()
	}
	if out.Type == domain.TaskTypeMilestone && out.End.IsZero() {
		out.End = out.Start
	}
	return out
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	ts := t.UTC()
	return &ts
}
