package task

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgStore is a PostgreSQL-backed task store.
type PgStore struct {
	pool *pgxpool.Pool
}

// NewPgStore creates a PgStore.
func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

const taskColumns = `id, title, description, status, priority, owner, project_id, parent_id, depends_on, position, due_date, created_at, updated_at`

// EnsureTable creates the tasks table if it doesn't exist.
func (s *PgStore) EnsureTable(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS tasks (
			id          TEXT PRIMARY KEY,
			title       TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			status      TEXT NOT NULL DEFAULT 'pendente',
			priority    TEXT NOT NULL DEFAULT 'medium',
			owner       TEXT NOT NULL DEFAULT '',
			project_id  TEXT NOT NULL DEFAULT '',
			parent_id   TEXT NOT NULL DEFAULT '',
			depends_on  TEXT[] DEFAULT '{}',
			position    INTEGER NOT NULL DEFAULT 0,
			due_date    TIMESTAMPTZ,
			created_at  TIMESTAMPTZ DEFAULT NOW(),
			updated_at  TIMESTAMPTZ DEFAULT NOW()
		)`)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `CREATE INDEX IF NOT EXISTS idx_tasks_project_status ON tasks(project_id, status)`)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `CREATE INDEX IF NOT EXISTS idx_tasks_parent ON tasks(parent_id) WHERE parent_id != ''`)
	return err
}

// Create inserts a new task at the end of its project.
func (s *PgStore) Create(ctx context.Context, t *Task) (*Task, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var n int
	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM tasks WHERE project_id = $1`, t.ProjectID).Scan(&n); err != nil {
		return nil, fmt.Errorf("count scope %s: %w", t.ProjectID, err)
	}

	now := time.Now().Truncate(time.Microsecond)
	if err := prepare(t, uuid.Must(uuid.NewV7()).String(), now, n); err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO tasks (`+taskColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		t.ID, t.Title, t.Description, t.Status, t.Priority, t.Owner, t.ProjectID, t.ParentID, t.DependsOn, t.Position, t.DueDate, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit task: %w", err)
	}
	return t, nil
}

// Get retrieves a single task by ID.
func (s *PgStore) Get(ctx context.Context, id string) (*Task, error) {
	t, err := scanTask(s.pool.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("get task %s: %w", id, notFound(err))
	}
	return t, nil
}

// Update applies a partial update and returns the stored row.
func (s *PgStore) Update(ctx context.Context, id string, p Patch) (*Task, error) {
	if err := p.Validate(id); err != nil {
		return nil, err
	}
	// Build SET clause from the non-nil patch fields
	var setClauses []string
	var args []any
	set := func(col string, v any) {
		args = append(args, v)
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if p.Title != nil {
		set("title", strings.TrimSpace(*p.Title))
	}
	if p.Description != nil {
		set("description", *p.Description)
	}
	if p.Status != nil {
		set("status", *p.Status)
	}
	if p.Priority != nil {
		set("priority", *p.Priority)
	}
	if p.Owner != nil {
		set("owner", *p.Owner)
	}
	if p.ProjectID != nil {
		set("project_id", *p.ProjectID)
	}
	if p.ParentID != nil {
		set("parent_id", *p.ParentID)
	}
	if p.DependsOn != nil {
		set("depends_on", CleanDependencies(id, *p.DependsOn))
	}
	if p.Position != nil {
		set("position", *p.Position)
	}
	if p.ClearDueDate {
		set("due_date", nil)
	} else if p.DueDate != nil {
		set("due_date", *p.DueDate)
	}

	if !p.KeepUpdatedAt {
		set("updated_at", time.Now().Truncate(time.Microsecond))
	}
	if len(setClauses) == 0 {
		return s.Get(ctx, id)
	}

	args = append(args, id)
	query := fmt.Sprintf("UPDATE tasks SET %s WHERE id = $%d RETURNING %s", strings.Join(setClauses, ", "), len(args), taskColumns)

	t, err := scanTask(s.pool.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, fmt.Errorf("update task %s: %w", id, notFound(err))
	}
	return t, nil
}

// Delete removes a task. References to it elsewhere are left dangling.
func (s *PgStore) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete task %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete task %s: %w", id, ErrNotFound)
	}
	return nil
}

// List returns tasks matching f ordered by position then creation time.
func (s *PgStore) List(ctx context.Context, f ListFilter) ([]Task, error) {
	var where []string
	var args []any
	add := func(col string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if f.ProjectID != "" {
		add("project_id", f.ProjectID)
	}
	if f.Status != "" {
		add("status", f.Status)
	}
	if f.Owner != "" {
		add("owner", f.Owner)
	}

	query := `SELECT ` + taskColumns + ` FROM tasks`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY position ASC, created_at ASC"
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration: %w", err)
	}
	return tasks, nil
}

func scanTask(row pgx.Row) (*Task, error) {
	var t Task
	if err := row.Scan(&t.ID, &t.Title, &t.Description, &t.Status, &t.Priority, &t.Owner, &t.ProjectID, &t.ParentID, &t.DependsOn, &t.Position, &t.DueDate, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	if t.DependsOn == nil {
		t.DependsOn = []string{}
	}
	return &t, nil
}

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
