package task

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemStore is an in-process task store. It backs the "memory" driver and
// tests; contents are lost on restart.
type MemStore struct {
	mu    sync.Mutex
	tasks map[string]*Task
	order []string // insertion order
	now   func() time.Time
}

// NewMemStore creates an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{tasks: make(map[string]*Task), now: time.Now}
}

// EnsureTable is a no-op.
func (s *MemStore) EnsureTable(context.Context) error { return nil }

// Create inserts a new task at the end of its project.
func (s *MemStore) Create(_ context.Context, t *Task) (*Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := prepare(t, uuid.Must(uuid.NewV7()).String(), s.now(), s.countLocked(t.ProjectID)); err != nil {
		return nil, err
	}
	cp := clone(t)
	s.tasks[t.ID] = &cp
	s.order = append(s.order, t.ID)
	return t, nil
}

// Put stores t verbatim, replacing any task with the same ID.
func (s *MemStore) Put(t Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[t.ID]; !ok {
		s.order = append(s.order, t.ID)
	}
	cp := clone(&t)
	s.tasks[t.ID] = &cp
}

// Get retrieves a single task by ID.
func (s *MemStore) Get(_ context.Context, id string) (*Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return nil, fmt.Errorf("get task %s: %w", id, ErrNotFound)
	}
	cp := clone(t)
	return &cp, nil
}

// Update applies a partial update.
func (s *MemStore) Update(_ context.Context, id string, p Patch) (*Task, error) {
	if err := p.Validate(id); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return nil, fmt.Errorf("update task %s: %w", id, ErrNotFound)
	}
	p.Apply(t)
	if !p.KeepUpdatedAt {
		t.UpdatedAt = s.now()
	}
	cp := clone(t)
	return &cp, nil
}

// Delete removes a task.
func (s *MemStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[id]; !ok {
		return fmt.Errorf("delete task %s: %w", id, ErrNotFound)
	}
	delete(s.tasks, id)
	s.order = slices.DeleteFunc(s.order, func(v string) bool { return v == id })
	return nil
}

// List returns tasks matching f ordered by position then insertion order.
func (s *MemStore) List(_ context.Context, f ListFilter) ([]Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Task
	for _, id := range s.order {
		t := s.tasks[id]
		if f.ProjectID != "" && t.ProjectID != f.ProjectID {
			continue
		}
		if f.Status != "" && t.Status != f.Status {
			continue
		}
		if f.Owner != "" && t.Owner != f.Owner {
			continue
		}
		out = append(out, clone(t))
	}
	slices.SortStableFunc(out, func(a, b Task) int { return a.Position - b.Position })
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (s *MemStore) countLocked(projectID string) int {
	n := 0
	for _, t := range s.tasks {
		if t.ProjectID == projectID {
			n++
		}
	}
	return n
}

func clone(t *Task) Task {
	cp := *t
	cp.DependsOn = slices.Clone(t.DependsOn)
	if cp.DependsOn == nil {
		cp.DependsOn = []string{}
	}
	if t.DueDate != nil {
		d := *t.DueDate
		cp.DueDate = &d
	}
	return cp
}
