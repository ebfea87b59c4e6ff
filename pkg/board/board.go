// Package board is the ordering engine behind the task board views.
//
// Every stage works on a caller-owned Context: the complete task set, the
// active filter and the clock. The forward pipeline is
//
//	Filter -> Expand (inclusion rule) -> Sort -> Reconcile -> List
//	Filter -> partition by status -> Sort per column -> Kanban
//
// and drag-and-drop flows back through ReorderLinear / MoveToColumn, which
// mutate Context.Tasks in place and return an Undo for rollback.
//
// Nothing here touches storage or caches derived state: blocked and overdue
// flags are recomputed from the task set on every call.
package board

import (
	"errors"
	"fmt"
	"time"

	"taskboard/pkg/task"
)

var (
	// ErrReference is returned when an id does not resolve to a task in the
	// working set. No mutation is made.
	ErrReference = errors.New("task reference not found")
	// ErrColumn is returned when a move targets a status with no column.
	ErrColumn = errors.New("status is not a board column")
)

// ReferenceError names the id that failed to resolve.
type ReferenceError struct {
	ID string
}

func (e *ReferenceError) Error() string {
	return fmt.Sprintf("task %s: %v", e.ID, ErrReference)
}

func (e *ReferenceError) Unwrap() error { return ErrReference }

// PersistenceError wraps a store failure that followed an optimistic
// mutation. The in-memory state has already been reverted when a caller
// sees it.
type PersistenceError struct {
	Op     string
	TaskID string
	Err    error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist %s %s: %v", e.Op, e.TaskID, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Context is the explicit state every pipeline stage reads.
type Context struct {
	// Tasks is the complete, unfiltered working set. Position Engine
	// operations mutate it in place.
	Tasks  []task.Task
	Filter Filter
	// Now is the reference time for overdue checks; zero means time.Now().
	Now time.Time
	// OwnerName resolves owner ids for display. Optional.
	OwnerName func(ownerID string) string
}

func (c *Context) now() time.Time {
	if c.Now.IsZero() {
		return time.Now()
	}
	return c.Now
}

func (c *Context) index(id string) int {
	for i := range c.Tasks {
		if c.Tasks[i].ID == id {
			return i
		}
	}
	return -1
}

// Find returns a copy of the task with the given id.
func (c *Context) Find(id string) (task.Task, error) {
	i := c.index(id)
	if i < 0 {
		return task.Task{}, &ReferenceError{ID: id}
	}
	return c.Tasks[i], nil
}

// DiagnosticKind classifies malformed-but-tolerated data.
type DiagnosticKind string

const (
	DanglingParent     DiagnosticKind = "dangling_parent"
	DanglingDependency DiagnosticKind = "dangling_dependency"
	SelfDependency     DiagnosticKind = "self_dependency"
)

// Diagnostic is a non-fatal warning about the working set.
type Diagnostic struct {
	Kind   DiagnosticKind `json:"kind"`
	TaskID string         `json:"task_id"`
	Ref    string         `json:"ref"`
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: task %s references %s", d.Kind, d.TaskID, d.Ref)
}

// Diagnose reports dangling parents, dangling dependencies and
// self-dependencies. The engine tolerates all three.
func Diagnose(tasks []task.Task) []Diagnostic {
	byID := indexByID(tasks)
	var out []Diagnostic
	for _, t := range tasks {
		if t.ParentID != "" {
			if _, ok := byID[t.ParentID]; !ok || t.ParentID == t.ID {
				out = append(out, Diagnostic{Kind: DanglingParent, TaskID: t.ID, Ref: t.ParentID})
			}
		}
		for _, dep := range t.DependsOn {
			if dep == t.ID {
				out = append(out, Diagnostic{Kind: SelfDependency, TaskID: t.ID, Ref: dep})
				continue
			}
			if _, ok := byID[dep]; !ok {
				out = append(out, Diagnostic{Kind: DanglingDependency, TaskID: t.ID, Ref: dep})
			}
		}
	}
	return out
}

// Diagnostics runs Diagnose over the working set.
func (c *Context) Diagnostics() []Diagnostic {
	return Diagnose(c.Tasks)
}

func indexByID(tasks []task.Task) map[string]*task.Task {
	m := make(map[string]*task.Task, len(tasks))
	for i := range tasks {
		m[tasks[i].ID] = &tasks[i]
	}
	return m
}
