package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/hylla/gantry/internal/domain"
	"gopkg.in/yaml.v3"
)

// SeedPlan is a hand-written YAML project plan.
type SeedPlan struct {
	Project SeedProject `yaml:"project"`
	Tasks   []SeedTask  `yaml:"tasks"`
}

// SeedProject names the project a plan creates.
type SeedProject struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

// SeedTask is one plan row. Key is local to the plan and is replaced by a generated id.
type SeedTask struct {
	Key          string   `yaml:"key"`
	Name         string   `yaml:"name"`
	Description  string   `yaml:"description"`
	Type         string   `yaml:"type"`
	Start        string   `yaml:"start"`
	End          string   `yaml:"end"`
	Progress     float64  `yaml:"progress"`
	Parent       string   `yaml:"parent"`
	DependsOn    []string `yaml:"depends_on"`
	HideChildren bool     `yaml:"hide_children"`
	Disabled     bool     `yaml:"disabled"`
}

// seedTimeLayouts are tried in order by ParseTime.
var seedTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseSeedPlan decodes a YAML plan, rejecting unknown fields.
func ParseSeedPlan(r io.Reader) (SeedPlan, error) {
	var plan SeedPlan
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&plan); err != nil {
		if errors.Is(err, io.EOF) {
			return SeedPlan{}, fmt.Errorf("%w: empty document", ErrInvalidSeedPlan)
		}
		return SeedPlan{}, fmt.Errorf("decode seed plan: %w", err)
	}
	return plan, nil
}

// ImportSeedPlan creates a project and all plan tasks. Nothing is written
// unless every task validates.
func (s *Service) ImportSeedPlan(ctx context.Context, plan SeedPlan) (domain.Project, []domain.Task, error) {
	now := s.clock()
	project, err := domain.NewProject(s.idGen(), plan.Project.Name, plan.Project.Description, now)
	if err != nil {
		return domain.Project{}, nil, fmt.Errorf("%w: project: %w", ErrInvalidSeedPlan, err)
	}

	ids := make(map[string]string, len(plan.Tasks))
	for i, row := range plan.Tasks {
		key := strings.TrimSpace(row.Key)
		if key == "" {
			key = fmt.Sprintf("#%d", i)
		}
		if _, dup := ids[key]; dup {
			return domain.Project{}, nil, fmt.Errorf("%w: tasks[%d] duplicate key %q", ErrInvalidSeedPlan, i, key)
		}
		ids[key] = s.idGen()
		plan.Tasks[i].Key = key
	}

	tasks := make([]domain.Task, 0, len(plan.Tasks))
	for i, row := range plan.Tasks {
		kind, err := domain.ParseTaskType(row.Type)
		if err != nil {
			return domain.Project{}, nil, fmt.Errorf("%w: tasks[%d]: %w", ErrInvalidSeedPlan, i, err)
		}
		start, err := ParseTime(row.Start)
		if err != nil {
			return domain.Project{}, nil, fmt.Errorf("%w: tasks[%d].start: %w", ErrInvalidSeedPlan, i, err)
		}
		end, err := ParseTime(row.End)
		if err != nil {
			return domain.Project{}, nil, fmt.Errorf("%w: tasks[%d].end: %w", ErrInvalidSeedPlan, i, err)
		}
		parentID := ""
		if parent := strings.TrimSpace(row.Parent); parent != "" {
			var ok bool
			if parentID, ok = ids[parent]; !ok {
				return domain.Project{}, nil, fmt.Errorf("%w: tasks[%d] unknown parent %q", ErrInvalidSeedPlan, i, parent)
			}
		}
		deps := make([]string, 0, len(row.DependsOn))
		for _, key := range row.DependsOn {
			id, ok := ids[strings.TrimSpace(key)]
			if !ok {
				return domain.Project{}, nil, fmt.Errorf("%w: tasks[%d] unknown dependency %q", ErrInvalidSeedPlan, i, key)
			}
			deps = append(deps, id)
		}
		task, err := domain.NewTask(domain.TaskInput{
			ID:           ids[row.Key],
			ProjectID:    project.ID,
			ParentID:     parentID,
			Name:         row.Name,
			Description:  row.Description,
			Type:         kind,
			Start:        start,
			End:          end,
			Progress:     row.Progress,
			Dependencies: deps,
			DisplayOrder: i,
			HideChildren: row.HideChildren,
			IsDisabled:   row.Disabled,
		}, now)
		if err != nil {
			return domain.Project{}, nil, fmt.Errorf("%w: tasks[%d] %q: %w", ErrInvalidSeedPlan, i, row.Key, err)
		}
		tasks = append(tasks, task)
	}

	if err := s.repo.CreateProject(ctx, project); err != nil {
		return domain.Project{}, nil, err
	}
	for _, task := range tasks {
		if err := s.repo.CreateTask(ctx, task); err != nil {
			return domain.Project{}, nil, err
		}
	}
	log.Info("seed plan imported", "project_id", project.ID, "tasks", len(tasks))
	return project, tasks, nil
}

// ParseTime accepts RFC3339, minute precision, or a bare date, always in UTC.
// Blank input is the zero time.
func ParseTime(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	for _, layout := range seedTimeLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q", raw)
}
