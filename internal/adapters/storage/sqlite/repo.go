package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hylla/gantry/internal/app"
	"github.com/hylla/gantry/internal/domain"
	_ "modernc.org/sqlite"
)

// driverName is the modernc driver registration name.
const driverName = "sqlite"

// Repository stores projects and tasks in SQLite.
type Repository struct {
	db *sql.DB
}

// Open opens (and migrates) the database at path.
func Open(path string) (*Repository, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create sqlite dir: %w", err)
	}
	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	repo := &Repository{db: db}
	if err := repo.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

// OpenInMemory opens a private in-memory database.
func OpenInMemory() (*Repository, error) {
	db, err := sql.Open(driverName, "file::memory:")
	if err != nil {
		return nil, fmt.Errorf("open sqlite memory: %w", err)
	}
	// Every pooled connection would otherwise get its own empty database.
	db.SetMaxOpenConns(1)
	repo := &Repository{db: db}
	if err := repo.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

// Close closes the database.
func (r *Repository) Close() error {
	return r.db.Close()
}

func (r *Repository) migrate(ctx context.Context) error {
	stmts := []string{
		`PRAGMA foreign_keys = ON;`,
		`CREATE TABLE IF NOT EXISTS projects (
			id TEXT PRIMARY KEY,
			slug TEXT NOT NULL,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			archived_at TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS tasks (
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
			updated_at TEXT NOT NULL,
			FOREIGN KEY(project_id) REFERENCES projects(id) ON DELETE CASCADE
		);`,
	}
	for _, stmt := range stmts {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate sqlite: %w", err)
		}
	}
	taskAlterStatements := []string{
		`ALTER TABLE tasks ADD COLUMN hide_children INTEGER NOT NULL DEFAULT 0`,
		`ALTER TABLE tasks ADD COLUMN is_disabled INTEGER NOT NULL DEFAULT 0`,
	}
	for _, stmt := range taskAlterStatements {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil && !isDuplicateColumnErr(err) {
			return fmt.Errorf("migrate sqlite tasks: %w", err)
		}
	}
	if _, err := r.db.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_tasks_project_order ON tasks(project_id, display_order)`); err != nil {
		return fmt.Errorf("migrate sqlite task order index: %w", err)
	}
	return nil
}

// CreateProject inserts a project.
func (r *Repository) CreateProject(ctx context.Context, p domain.Project) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO projects(id, slug, name, description, created_at, updated_at, archived_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, p.ID, p.Slug, p.Name, p.Description, ts(p.CreatedAt), ts(p.UpdatedAt), nullableTS(p.ArchivedAt))
	return err
}

// UpdateProject replaces a stored project.
func (r *Repository) UpdateProject(ctx context.Context, p domain.Project) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE projects
		SET slug = ?, name = ?, description = ?, updated_at = ?, archived_at = ?
		WHERE id = ?
	`, p.Slug, p.Name, p.Description, ts(p.UpdatedAt), nullableTS(p.ArchivedAt), p.ID)
	if err != nil {
		return err
	}
	return translateNoRows(res)
}

// GetProject loads one project.
func (r *Repository) GetProject(ctx context.Context, id string) (domain.Project, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, slug, name, description, created_at, updated_at, archived_at
		FROM projects
		WHERE id = ?
	`, id)
	return scanProject(row)
}

// ListProjects lists projects in creation order.
func (r *Repository) ListProjects(ctx context.Context, includeArchived bool) ([]domain.Project, error) {
	query := `
		SELECT id, slug, name, description, created_at, updated_at, archived_at
		FROM projects
	`
	if !includeArchived {
		query += ` WHERE archived_at IS NULL`
	}
	query += ` ORDER BY created_at ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// DeleteProject removes a project and its tasks.
func (r *Repository) DeleteProject(ctx context.Context, id string) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	// foreign_keys is per connection, so cascade explicitly.
	if _, err = tx.ExecContext(ctx, `DELETE FROM tasks WHERE project_id = ?`, id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if err = translateNoRows(res); err != nil {
		return err
	}
	return tx.Commit()
}

// CreateTask inserts a task.
func (r *Repository) CreateTask(ctx context.Context, t domain.Task) error {
	deps, err := encodeDependencies(t.Dependencies)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO tasks(
			id, project_id, parent_id, name, description, type, start_at, end_at, progress,
			dependencies_json, display_order, hide_children, is_disabled, created_at, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		t.ID, t.ProjectID, t.ParentID, t.Name, t.Description, string(t.Type), optionalTS(t.Start), optionalTS(t.End), t.Progress,
		deps, t.DisplayOrder, boolInt(t.HideChildren), boolInt(t.IsDisabled), ts(t.CreatedAt), ts(t.UpdatedAt),
	)
	return err
}

// UpdateTask replaces a stored task.
func (r *Repository) UpdateTask(ctx context.Context, t domain.Task) error {
	deps, err := encodeDependencies(t.Dependencies)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE tasks
		SET parent_id = ?, name = ?, description = ?, type = ?, start_at = ?, end_at = ?, progress = ?,
			dependencies_json = ?, display_order = ?, hide_children = ?, is_disabled = ?, updated_at = ?
		WHERE id = ?
	`,
		t.ParentID, t.Name, t.Description, string(t.Type), optionalTS(t.Start), optionalTS(t.End), t.Progress,
		deps, t.DisplayOrder, boolInt(t.HideChildren), boolInt(t.IsDisabled), ts(t.UpdatedAt), t.ID,
	)
	if err != nil {
		return err
	}
	return translateNoRows(res)
}

// GetTask loads one task.
func (r *Repository) GetTask(ctx context.Context, id string) (domain.Task, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	return scanTask(row)
}

// ListTasks lists a project's tasks in display order.
func (r *Repository) ListTasks(ctx context.Context, projectID string) ([]domain.Task, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+taskColumns+`
		FROM tasks
		WHERE project_id = ?
		ORDER BY display_order ASC, start_at ASC, id ASC
	`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// DeleteTask removes a task and drops it from every dependency list in its project.
func (r *Repository) DeleteTask(ctx context.Context, id string) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	task, err := scanTask(tx.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id))
	if err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if err = translateNoRows(res); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `UPDATE tasks SET parent_id = '' WHERE project_id = ? AND parent_id = ?`, task.ProjectID, id); err != nil {
		return err
	}
	if err = pruneDependency(ctx, tx, task.ProjectID, id); err != nil {
		return err
	}
	return tx.Commit()
}

// pruneDependency removes id from the dependency lists of its project siblings.
func pruneDependency(ctx context.Context, tx *sql.Tx, projectID, id string) error {
	rows, err := tx.QueryContext(ctx, `SELECT id, dependencies_json FROM tasks WHERE project_id = ? AND dependencies_json LIKE ?`, projectID, `%"`+id+`"%`)
	if err != nil {
		return err
	}
	type update struct {
		id   string
		deps string
	}
	var updates []update
	for rows.Next() {
		var taskID, raw string
		if err := rows.Scan(&taskID, &raw); err != nil {
			_ = rows.Close()
			return err
		}
		deps, err := decodeDependencies(raw)
		if err != nil {
			_ = rows.Close()
			return err
		}
		kept := deps[:0]
		for _, dep := range deps {
			if dep != id {
				kept = append(kept, dep)
			}
		}
		encoded, err := encodeDependencies(kept)
		if err != nil {
			_ = rows.Close()
			return err
		}
		updates = append(updates, update{id: taskID, deps: encoded})
	}
	if err := rows.Close(); err != nil {
		return err
	}
	for _, u := range updates {
		if _, err := tx.ExecContext(ctx, `UPDATE tasks SET dependencies_json = ? WHERE id = ?`, u.deps, u.id); err != nil {
			return err
		}
	}
	return nil
}

const taskColumns = `id, project_id, parent_id, name, description, type, start_at, end_at, progress,
	dependencies_json, display_order, hide_children, is_disabled, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanProject(s scanner) (domain.Project, error) {
	var (
		p          domain.Project
		createdRaw string
		updatedRaw string
		archived   sql.NullString
	)
	if err := s.Scan(&p.ID, &p.Slug, &p.Name, &p.Description, &createdRaw, &updatedRaw, &archived); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Project{}, app.ErrNotFound
		}
		return domain.Project{}, err
	}
	p.CreatedAt = parseTS(createdRaw)
	p.UpdatedAt = parseTS(updatedRaw)
	p.ArchivedAt = parseNullTS(archived)
	return p, nil
}

func scanTask(s scanner) (domain.Task, error) {
	var (
		t            domain.Task
		kind         string
		startRaw     sql.NullString
		endRaw       sql.NullString
		depsRaw      string
		hideChildren int
		disabled     int
		createdRaw   string
		updatedRaw   string
	)
	if err := s.Scan(
		&t.ID, &t.ProjectID, &t.ParentID, &t.Name, &t.Description, &kind, &startRaw, &endRaw, &t.Progress,
		&depsRaw, &t.DisplayOrder, &hideChildren, &disabled, &createdRaw, &updatedRaw,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Task{}, app.ErrNotFound
		}
		return domain.Task{}, err
	}
	deps, err := decodeDependencies(depsRaw)
	if err != nil {
		return domain.Task{}, err
	}
	t.Type = domain.TaskType(kind)
	t.Dependencies = deps
	t.HideChildren = hideChildren != 0
	t.IsDisabled = disabled != 0
	if v := parseNullTS(startRaw); v != nil {
		t.Start = *v
	}
	if v := parseNullTS(endRaw); v != nil {
		t.End = *v
	}
	t.CreatedAt = parseTS(createdRaw)
	t.UpdatedAt = parseTS(updatedRaw)
	return t, nil
}

func encodeDependencies(deps []string) (string, error) {
	if deps == nil {
		deps = []string{}
	}
	raw, err := json.Marshal(deps)
	if err != nil {
		return "", fmt.Errorf("encode task dependencies: %w", err)
	}
	return string(raw), nil
}

func decodeDependencies(raw string) ([]string, error) {
	if strings.TrimSpace(raw) == "" {
		return []string{}, nil
	}
	deps := []string{}
	if err := json.Unmarshal([]byte(raw), &deps); err != nil {
		return nil, fmt.Errorf("decode task dependencies_json: %w", err)
	}
	return deps, nil
}

func translateNoRows(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return app.ErrNotFound
	}
	return nil
}

func boolInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

func ts(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// optionalTS stores zero times as NULL.
func optionalTS(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return ts(t)
}

func nullableTS(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTS(v string) time.Time {
	ts, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}
	}
	return ts.UTC()
}

func parseNullTS(v sql.NullString) *time.Time {
	if !v.Valid || strings.TrimSpace(v.String) == "" {
		return nil
	}
	ts := parseTS(v.String)
	return &ts
}

func isDuplicateColumnErr(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(strings.ToLower(err.Error()), "duplicate column name")
}
