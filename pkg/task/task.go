package task

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Status is a task's position in the board lifecycle.
type Status string

const (
	Pendente    Status = "pendente"
	EmAndamento Status = "em_andamento"
	Revisao     Status = "revisao"
	Concluida   Status = "concluida"
	Bloqueada   Status = "bloqueada"
	Cancelada   Status = "cancelada"
)

// Statuses lists every status in board column order.
var Statuses = []Status{Pendente, EmAndamento, Revisao, Concluida, Bloqueada, Cancelada}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}
	return false
}

// ParseStatus normalizes a user-supplied status string.
func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ToLower(strings.TrimSpace(raw)))
	if !s.Valid() {
		return "", fmt.Errorf("%w: unknown status %s", ErrInvalid, raw)
	}
	return s, nil
}

// Priority orders otherwise-equal tasks on the board.
type Priority string

const (
	Urgent Priority = "urgent"
	High   Priority = "high"
	Medium Priority = "medium"
	Low    Priority = "low"
)

// Priorities lists every priority from most to least urgent.
var Priorities = []Priority{Urgent, High, Medium, Low}

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool {
	switch p {
	case Urgent, High, Medium, Low:
		return true
	}
	return false
}

// ParsePriority normalizes a user-supplied priority string.
func ParsePriority(raw string) (Priority, error) {
	p := Priority(strings.ToLower(strings.TrimSpace(raw)))
	if !p.Valid() {
		return "", fmt.Errorf("%w: unknown priority %s", ErrInvalid, raw)
	}
	return p, nil
}

var (
	ErrNotFound = errors.New("task not found")
	ErrInvalid  = errors.New("invalid task")
)

// Task represents a unit of work on the board.
type Task struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      Status     `json:"status"`
	Priority    Priority   `json:"priority"`
	Owner       string     `json:"owner"`      // person reference, not validated
	ProjectID   string     `json:"project_id"` // external project
	ParentID    string     `json:"parent_id"`  // set on subtasks
	DependsOn   []string   `json:"depends_on"` // ids gating this task
	Position    int        `json:"position"`   // manual order within a status group
	DueDate     *time.Time `json:"due_date,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Patch is a partial update. Nil fields are left untouched.
type Patch struct {
	Title        *string    `json:"title,omitempty"`
	Description  *string    `json:"description,omitempty"`
	Status       *Status    `json:"status,omitempty"`
	Priority     *Priority  `json:"priority,omitempty"`
	Owner        *string    `json:"owner,omitempty"`
	ProjectID    *string    `json:"project_id,omitempty"`
	ParentID     *string    `json:"parent_id,omitempty"`
	DependsOn    *[]string  `json:"depends_on,omitempty"`
	Position     *int       `json:"position,omitempty"`
	DueDate      *time.Time `json:"due_date,omitempty"`
	ClearDueDate bool       `json:"clear_due_date,omitempty"`

	// KeepUpdatedAt leaves updated_at alone. Board position writes set it
	// so a drag never changes a task's recency rank.
	KeepUpdatedAt bool `json:"-"`
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Status == nil && p.Priority == nil &&
		p.Owner == nil && p.ProjectID == nil && p.ParentID == nil && p.DependsOn == nil &&
		p.Position == nil && p.DueDate == nil && !p.ClearDueDate
}

// Validate rejects patches that would break the data model.
func (p Patch) Validate(id string) error {
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalid)
	}
	if p.Status != nil && !p.Status.Valid() {
		return fmt.Errorf("%w: unknown status %s", ErrInvalid, string(*p.Status))
	}
	if p.Priority != nil && !p.Priority.Valid() {
		return fmt.Errorf("%w: unknown priority %s", ErrInvalid, string(*p.Priority))
	}
	if p.ParentID != nil && id != "" && *p.ParentID == id {
		return fmt.Errorf("%w: task cannot be its own parent", ErrInvalid)
	}
	return nil
}

// Apply copies the patch onto t.
func (p Patch) Apply(t *Task) {
	if p.Title != nil {
		t.Title = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.Owner != nil {
		t.Owner = *p.Owner
	}
	if p.ProjectID != nil {
		t.ProjectID = *p.ProjectID
	}
	if p.ParentID != nil {
		t.ParentID = *p.ParentID
	}
	if p.DependsOn != nil {
		t.DependsOn = CleanDependencies(t.ID, *p.DependsOn)
	}
	if p.Position != nil {
		t.Position = *p.Position
	}
	if p.ClearDueDate {
		t.DueDate = nil
	} else if p.DueDate != nil {
		d := *p.DueDate
		t.DueDate = &d
	}
}

// CleanDependencies drops blanks, duplicates and self-references while
// keeping the original order.
func CleanDependencies(id string, deps []string) []string {
	out := make([]string, 0, len(deps))
	seen := make(map[string]bool, len(deps))
	for _, d := range deps {
		d = strings.TrimSpace(d)
		if d == "" || d == id || seen[d] {
			continue
		}
		seen[d] = true
		out = append(out, d)
	}
	return out
}

// ListFilter narrows a store listing. Zero values mean "any".
type ListFilter struct {
	ProjectID string
	Status    Status
	Owner     string
	Limit     int
}

// Store is the contract for task persistence.
type Store interface {
	Create(ctx context.Context, t *Task) (*Task, error)
	Get(ctx context.Context, id string) (*Task, error)
	List(ctx context.Context, f ListFilter) ([]Task, error)
	Update(ctx context.Context, id string, p Patch) (*Task, error)
	Delete(ctx context.Context, id string) error
	EnsureTable(ctx context.Context) error
}

// prepare fills creation defaults. position is the caller's count of tasks
// already in the task's scope.
func prepare(t *Task, id string, now time.Time, position int) error {
	t.Title = strings.TrimSpace(t.Title)
	if t.Title == "" {
		return fmt.Errorf("%w: title is required", ErrInvalid)
	}
	if t.Priority == "" {
		t.Priority = Medium
	}
	if !t.Priority.Valid() {
		return fmt.Errorf("%w: unknown priority %s", ErrInvalid, string(t.Priority))
	}
	t.ID = id
	t.Status = Pendente
	t.Position = position
	t.DependsOn = CleanDependencies(id, t.DependsOn)
	t.CreatedAt = now
	t.UpdatedAt = now
	return nil
}
