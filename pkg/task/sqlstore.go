package task

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// sqlTask is the gorm row for a task. Dependencies are stored as a JSON array.
type sqlTask struct {
	ID          string `gorm:"primaryKey"`
	Title       string `gorm:"not null"`
	Description string
	Status      string   `gorm:"index:idx_tasks_project_status,priority:2;default:pendente"`
	Priority    string   `gorm:"default:medium"`
	Owner       string   `gorm:"index"`
	ProjectID   string   `gorm:"index:idx_tasks_project_status,priority:1"`
	ParentID    string   `gorm:"index"`
	DependsOn   []string `gorm:"serializer:json"`
	Position    int      `gorm:"not null;default:0"`
	DueDate     *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time `gorm:"autoUpdateTime:false"`
}

func (sqlTask) TableName() string { return "tasks" }

func toRow(t *Task) sqlTask {
	return sqlTask{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Status:      string(t.Status),
		Priority:    string(t.Priority),
		Owner:       t.Owner,
		ProjectID:   t.ProjectID,
		ParentID:    t.ParentID,
		DependsOn:   t.DependsOn,
		Position:    t.Position,
		DueDate:     t.DueDate,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func (r sqlTask) task() Task {
	deps := r.DependsOn
	if deps == nil {
		deps = []string{}
	}
	return Task{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		Status:      Status(r.Status),
		Priority:    Priority(r.Priority),
		Owner:       r.Owner,
		ProjectID:   r.ProjectID,
		ParentID:    r.ParentID,
		DependsOn:   deps,
		Position:    r.Position,
		DueDate:     r.DueDate,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

// SQLiteStore is a gorm-backed task store for single-node deployments.
type SQLiteStore struct {
	db *gorm.DB
}

// NewSQLiteStore creates a SQLiteStore on an open gorm handle.
func NewSQLiteStore(db *gorm.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// EnsureTable migrates the tasks table.
func (s *SQLiteStore) EnsureTable(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&sqlTask{}); err != nil {
		return fmt.Errorf("migrate tasks: %w", err)
	}
	return nil
}

// Create inserts a new task at the end of its project.
func (s *SQLiteStore) Create(ctx context.Context, t *Task) (*Task, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&sqlTask{}).Where("project_id = ?", t.ProjectID).Count(&n).Error; err != nil {
			return fmt.Errorf("count scope %s: %w", t.ProjectID, err)
		}
		if err := prepare(t, uuid.Must(uuid.NewV7()).String(), time.Now().UTC(), int(n)); err != nil {
			return err
		}
		row := toRow(t)
		if err := tx.Create(&row).Error; err != nil {
			return fmt.Errorf("create task: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

// Get retrieves a single task by ID.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*Task, error) {
	row, err := s.find(s.db.WithContext(ctx), id)
	if err != nil {
		return nil, fmt.Errorf("get task %s: %w", id, err)
	}
	t := row.task()
	return &t, nil
}

// Update applies a partial update. The whole row is saved, so concurrent
// writers resolve last-writer-wins.
func (s *SQLiteStore) Update(ctx context.Context, id string, p Patch) (*Task, error) {
	if err := p.Validate(id); err != nil {
		return nil, err
	}
	var out Task
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := s.find(tx, id)
		if err != nil {
			return err
		}
		t := row.task()
		p.Apply(&t)
		if !p.KeepUpdatedAt {
			t.UpdatedAt = time.Now().UTC()
		}
		updated := toRow(&t)
		if err := tx.Save(&updated).Error; err != nil {
			return err
		}
		out = t
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("update task %s: %w", id, err)
	}
	return &out, nil
}

// Delete removes a task.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&sqlTask{})
	if res.Error != nil {
		return fmt.Errorf("delete task %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("delete task %s: %w", id, ErrNotFound)
	}
	return nil
}

// List returns tasks matching f ordered by position then creation time.
func (s *SQLiteStore) List(ctx context.Context, f ListFilter) ([]Task, error) {
	q := s.db.WithContext(ctx).Model(&sqlTask{})
	if f.ProjectID != "" {
		q = q.Where("project_id = ?", f.ProjectID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", string(f.Status))
	}
	if f.Owner != "" {
		q = q.Where("owner = ?", f.Owner)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}

	var rows []sqlTask
	if err := q.Order("position ASC, created_at ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	tasks := make([]Task, 0, len(rows))
	for _, r := range rows {
		tasks = append(tasks, r.task())
	}
	return tasks, nil
}

func (s *SQLiteStore) find(db *gorm.DB, id string) (sqlTask, error) {
	var row sqlTask
	err := db.Where("id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return row, ErrNotFound
	}
	return row, err
}
