package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/hylla/gantry/internal/app"
	"github.com/hylla/gantry/internal/domain"
	_ "modernc.org/sqlite"
)

func openTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := Open(filepath.Join(t.TempDir(), "gantry.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() {
		_ = repo.Close()
	})
	return repo
}

func mustTask(t *testing.T, in domain.TaskInput, now time.Time) domain.Task {
	t.Helper()
	task, err := domain.NewTask(in, now)
	if err != nil {
		t.Fatalf("NewTask(%s) error = %v", in.ID, err)
	}
	return task
}

func TestRepository_ProjectTaskLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t)

	now := time.Date(2026, 2, 21, 12, 0, 0, 0, time.UTC)
	project, err := domain.NewProject("p1", "Example", "desc", now)
	if err != nil {
		t.Fatalf("NewProject() error = %v", err)
	}
	if err := repo.CreateProject(ctx, project); err != nil {
		t.Fatalf("CreateProject() error = %v", err)
	}

	loadedProject, err := repo.GetProject(ctx, project.ID)
	if err != nil {
		t.Fatalf("GetProject() error = %v", err)
	}
	if loadedProject.Name != "Example" || !loadedProject.CreatedAt.Equal(now) {
		t.Fatalf("unexpected project %#v", loadedProject)
	}

	group := mustTask(t, domain.TaskInput{ID: "g1", ProjectID: project.ID, Name: "Phase", Type: domain.TaskTypeProject, HideChildren: true}, now)
	task := mustTask(t, domain.TaskInput{
		ID:           "t1",
		ProjectID:    project.ID,
		ParentID:     group.ID,
		Name:         "Task title",
		Description:  "Task details",
		Start:        now,
		End:          now.Add(48 * time.Hour),
		Progress:     37.5,
		DisplayOrder: 1,
		IsDisabled:   true,
	}, now)
	ship := mustTask(t, domain.TaskInput{
		ID:           "m1",
		ProjectID:    project.ID,
		Name:         "Ship",
		Type:         domain.TaskTypeMilestone,
		Start:        now.Add(72 * time.Hour),
		Dependencies: []string{"t1"},
		DisplayOrder: 2,
	}, now)
	for _, tk := range []domain.Task{ship, task, group} {
		if err := repo.CreateTask(ctx, tk); err != nil {
			t.Fatalf("CreateTask(%s) error = %v", tk.ID, err)
		}
	}

	tasks, err := repo.ListTasks(ctx, project.ID)
	if err != nil {
		t.Fatalf("ListTasks() error = %v", err)
	}
	if got := []string{tasks[0].ID, tasks[1].ID, tasks[2].ID}; !slices.Equal(got, []string{"g1", "t1", "m1"}) {
		t.Fatalf("unexpected task order %#v", got)
	}
	if !tasks[0].HideChildren || tasks[0].HasSchedule() {
		t.Fatalf("unexpected group row %#v", tasks[0])
	}
	loaded := tasks[1]
	if loaded.ParentID != "g1" || loaded.Progress != 37.5 || !loaded.IsDisabled || loaded.Description != "Task details" {
		t.Fatalf("unexpected task %#v", loaded)
	}
	if !loaded.Start.Equal(now) || !loaded.End.Equal(now.Add(48*time.Hour)) {
		t.Fatalf("unexpected schedule %v..%v", loaded.Start, loaded.End)
	}
	if !slices.Equal(tasks[2].Dependencies, []string{"t1"}) {
		t.Fatalf("unexpected dependencies %#v", tasks[2].Dependencies)
	}
	if len(loaded.Dependencies) != 0 || loaded.Dependencies == nil {
		t.Fatalf("expected empty non-nil dependencies, got %#v", loaded.Dependencies)
	}

	if err := loaded.Reschedule(now.Add(time.Hour), now.Add(5*time.Hour), now.Add(time.Minute)); err != nil {
		t.Fatalf("Reschedule() error = %v", err)
	}
	if err := repo.UpdateTask(ctx, loaded); err != nil {
		t.Fatalf("UpdateTask() error = %v", err)
	}
	got, err := repo.GetTask(ctx, "t1")
	if err != nil {
		t.Fatalf("GetTask() error = %v", err)
	}
	if !got.End.Equal(now.Add(5 * time.Hour)) {
		t.Fatalf("expected updated end, got %v", got.End)
	}
}

func TestRepository_DeleteTaskPrunesReferences(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t)
	now := time.Date(2026, 2, 21, 12, 0, 0, 0, time.UTC)
	project, _ := domain.NewProject("p1", "Example", "", now)
	if err := repo.CreateProject(ctx, project); err != nil {
		t.Fatalf("CreateProject() error = %v", err)
	}
	tasks := []domain.Task{
		mustTask(t, domain.TaskInput{ID: "a", ProjectID: "p1", Name: "A", Start: now, End: now}, now),
		mustTask(t, domain.TaskInput{ID: "b", ProjectID: "p1", Name: "B", ParentID: "a", Start: now, End: now, Dependencies: []string{"a"}}, now),
		mustTask(t, domain.TaskInput{ID: "c", ProjectID: "p1", Name: "C", Start: now, End: now, Dependencies: []string{"a", "b"}}, now),
	}
	for _, tk := range tasks {
		if err := repo.CreateTask(ctx, tk); err != nil {
			t.Fatalf("CreateTask(%s) error = %v", tk.ID, err)
		}
	}

	if err := repo.DeleteTask(ctx, "a"); err != nil {
		t.Fatalf("DeleteTask() error = %v", err)
	}
	if _, err := repo.GetTask(ctx, "a"); !errors.Is(err, app.ErrNotFound) {
		t.Fatalf("expected deleted task to be gone, got %v", err)
	}
	b, _ := repo.GetTask(ctx, "b")
	c, _ := repo.GetTask(ctx, "c")
	if b.ParentID != "" || len(b.Dependencies) != 0 {
		t.Fatalf("expected b detached from a, got %#v", b)
	}
	if !slices.Equal(c.Dependencies, []string{"b"}) {
		t.Fatalf("unexpected c dependencies %#v", c.Dependencies)
	}
	if err := repo.DeleteTask(ctx, "a"); !errors.Is(err, app.ErrNotFound) {
		t.Fatalf("expected ErrNotFound deleting twice, got %v", err)
	}
}

func TestRepository_ProjectsArchiveAndDelete(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t)
	now := time.Date(2026, 2, 21, 12, 0, 0, 0, time.UTC)

	p1, _ := domain.NewProject("p1", "Alpha", "", now)
	p2, _ := domain.NewProject("p2", "Beta", "", now.Add(time.Minute))
	for _, p := range []domain.Project{p1, p2} {
		if err := repo.CreateProject(ctx, p); err != nil {
			t.Fatalf("CreateProject() error = %v", err)
		}
	}
	p2.Archive(now.Add(time.Hour))
	if err := repo.UpdateProject(ctx, p2); err != nil {
		t.Fatalf("UpdateProject() error = %v", err)
	}
	active, err := repo.ListProjects(ctx, false)
	if err != nil {
		t.Fatalf("ListProjects() error = %v", err)
	}
	if len(active) != 1 || active[0].ID != "p1" {
		t.Fatalf("unexpected active projects %#v", active)
	}
	all, _ := repo.ListProjects(ctx, true)
	if len(all) != 2 || all[1].ArchivedAt == nil {
		t.Fatalf("unexpected all projects %#v", all)
	}

	task := mustTask(t, domain.TaskInput{ID: "t1", ProjectID: "p1", Name: "A", Start: now, End: now}, now)
	if err := repo.CreateTask(ctx, task); err != nil {
		t.Fatalf("CreateTask() error = %v", err)
	}
	if err := repo.DeleteProject(ctx, "p1"); err != nil {
		t.Fatalf("DeleteProject() error = %v", err)
	}
	if _, err := repo.GetTask(ctx, "t1"); !errors.Is(err, app.ErrNotFound) {
		t.Fatalf("expected project tasks removed, got %v", err)
	}
	if err := repo.DeleteProject(ctx, "p1"); !errors.Is(err, app.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRepository_NotFoundCases(t *testing.T) {
	ctx := context.Background()
	repo, err := OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory() error = %v", err)
	}
	t.Cleanup(func() {
		_ = repo.Close()
	})

	if _, err := repo.GetProject(ctx, "missing"); !errors.Is(err, app.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := repo.GetTask(ctx, "missing"); !errors.Is(err, app.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := repo.UpdateProject(ctx, domain.Project{ID: "missing", Name: "x"}); !errors.Is(err, app.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := repo.UpdateTask(ctx, domain.Task{ID: "missing", Name: "x"}); !errors.Is(err, app.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	tasks, err := repo.ListTasks(ctx, "missing")
	if err != nil || len(tasks) != 0 {
		t.Fatalf("expected empty list, got %#v, %v", tasks, err)
	}
}

func TestRepository_MigratesLegacyTasksTable(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "legacy.db")
	db, err := sql.Open(driverName, dbPath)
	if err != nil {
		t.Fatalf("sql.Open() error = %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})
	_, err = db.ExecContext(ctx, `
		CREATE TABLE tasks (
			id TEXT PRIMARY KEY,
			project_id TEXT NOT NULL,
			parent_id TEXT NOT NULL DEFAULT '',
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			type TEXT NOT NULL DEFAULT 'task',
			start_at TEXT,
			end_at TEXT,
			progress REAL NOT NULL DEFAULT 0,
			dependencies_json TEXT NOT NULL DEFAULT '[]',
			display_order INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)
	`)
	if err != nil {
		t.Fatalf("create legacy table error = %v", err)
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO tasks(id, project_id, name, start_at, end_at, created_at, updated_at)
		VALUES ('old', 'p1', 'Legacy', '2026-01-01T00:00:00Z', '2026-01-02T00:00:00Z', '2026-01-01T00:00:00Z', '2026-01-01T00:00:00Z')
	`)
	if err != nil {
		t.Fatalf("insert legacy row error = %v", err)
	}

	repo, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open() on legacy db error = %v", err)
	}
	t.Cleanup(func() {
		_ = repo.Close()
	})
	task, err := repo.GetTask(ctx, "old")
	if err != nil {
		t.Fatalf("GetTask() error = %v", err)
	}
	if task.HideChildren || task.IsDisabled || task.Type != domain.TaskTypeTask {
		t.Fatalf("unexpected migrated task %#v", task)
	}

	// A second open must tolerate the columns already existing.
	again, err := Open(dbPath)
	if err != nil {
		t.Fatalf("second Open() error = %v", err)
	}
	_ = again.Close()
}

func TestRepositoryOpenValidation(t *testing.T) {
	if _, err := Open("   "); err == nil {
		t.Fatal("expected error for empty path")
	}
}
