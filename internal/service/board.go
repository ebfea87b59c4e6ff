// Package service owns the in-memory board and reconciles drag-and-drop
// mutations with the task store: apply optimistically, persist, and revert
// on failure.
package service

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"taskboard/pkg/activity"
	"taskboard/pkg/board"
	"taskboard/pkg/owner"
	"taskboard/pkg/task"
	"taskboard/pkg/workflow"
)

// ErrTransition is returned when a status change is not allowed by the
// transition table.
var ErrTransition = errors.New("status transition not allowed")

// Options tunes a Board.
type Options struct {
	// EnforceTransitions rejects moves the transition table disallows
	// before applying them. When false, moves are applied optimistically
	// and the table is consulted only after a failed write.
	EnforceTransitions bool
	Now                func() time.Time
}

// Board is the single logical owner of the in-memory task set.
type Board struct {
	tasks    task.Store
	owners   owner.Store
	activity activity.Store
	flow     workflow.Table
	log      *slog.Logger
	opts     Options

	mu     sync.Mutex
	loaded bool
	all    []task.Task
	names  map[string]string
}

// New creates a Board. owners and act may be nil.
func New(tasks task.Store, owners owner.Store, act activity.Store, flow workflow.Table, log *slog.Logger, opts Options) *Board {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Board{
		tasks:    tasks,
		owners:   owners,
		activity: act,
		flow:     flow,
		log:      log,
		opts:     opts,
	}
}

// Refresh re-fetches every task and owner from storage. Dependencies may
// cross projects, so the working set is never narrowed to one project.
func (b *Board) Refresh(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.refreshLocked(ctx)
}

func (b *Board) refreshLocked(ctx context.Context) error {
	all, err := b.tasks.List(ctx, task.ListFilter{})
	if err != nil {
		return fmt.Errorf("load tasks: %w", err)
	}
	names := map[string]string{}
	if b.owners != nil {
		if names, err = owner.Names(ctx, b.owners); err != nil {
			return fmt.Errorf("load owners: %w", err)
		}
	}
	b.all, b.names, b.loaded = all, names, true

	for _, d := range board.Diagnose(all) {
		b.log.Warn("malformed task data", "kind", d.Kind, "task_id", d.TaskID, "ref", d.Ref)
	}
	return nil
}

func (b *Board) ensureLoaded(ctx context.Context) error {
	if b.loaded {
		return nil
	}
	return b.refreshLocked(ctx)
}

// view builds a pipeline context over the live working set.
func (b *Board) view(f board.Filter) *board.Context {
	names := b.names
	return &board.Context{
		Tasks:  b.all,
		Filter: f,
		Now:    b.opts.Now(),
		OwnerName: func(id string) string {
			if n, ok := names[id]; ok {
				return n
			}
			return id
		},
	}
}

// List projects the board as a flat, hierarchy-aware list.
func (b *Board) List(ctx context.Context, f board.Filter) ([]board.Item, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	return b.view(f).List(), nil
}

// Kanban projects the board as status columns.
func (b *Board) Kanban(ctx context.Context, f board.Filter) ([]board.Column, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	return b.view(f).Kanban(b.flow), nil
}

// Diagnostics reports malformed references in the working set.
func (b *Board) Diagnostics(ctx context.Context) ([]board.Diagnostic, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	return board.Diagnose(b.all), nil
}

// BlockedInfo describes a task's dependency state.
type BlockedInfo struct {
	TaskID     string   `json:"task_id"`
	Blocked    bool     `json:"blocked"`
	Unresolved []string `json:"unresolved,omitempty"`
}

// Blocked evaluates one task against the complete working set.
func (b *Board) Blocked(ctx context.Context, id string) (BlockedInfo, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.ensureLoaded(ctx); err != nil {
		return BlockedInfo{}, err
	}
	t, err := b.view(board.Filter{}).Find(id)
	if err != nil {
		return BlockedInfo{}, err
	}
	info := BlockedInfo{TaskID: id, Blocked: board.IsBlocked(t, b.all)}
	if info.Blocked {
		info.Unresolved = board.DependencyNames(t, b.all)
	}
	return info, nil
}

// Reorder swaps the manual positions of two tasks and persists both.
func (b *Board) Reorder(ctx context.Context, actor, draggedID, targetID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.ensureLoaded(ctx); err != nil {
		return err
	}

	v := b.view(board.Filter{})
	u, err := v.ReorderLinear(draggedID, targetID)
	if err != nil {
		return err
	}
	if u.Empty() {
		return nil
	}
	if err := b.commit(ctx, v, u, actor); err != nil {
		return &board.PersistenceError{Op: u.Op, TaskID: draggedID, Err: err}
	}
	b.record(ctx, activity.TaskReordered, actor, draggedID, map[string]any{
		"target_id": targetID,
		"before":    u.Before,
		"after":     u.After,
	})
	return nil
}

// Move changes a task's column. f is the filter active in the caller's
// view; it decides where in the destination column the task lands.
func (b *Board) Move(ctx context.Context, actor, id string, to task.Status, f board.Filter) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.ensureLoaded(ctx); err != nil {
		return err
	}

	v := b.view(f)
	cur, err := v.Find(id)
	if err != nil {
		return err
	}
	from := cur.Status
	if b.opts.EnforceTransitions && !b.flow.CanTransition(from, to) {
		return fmt.Errorf("move %s %s -> %s: %w", id, from, to, ErrTransition)
	}

	u, err := v.MoveToColumn(id, to)
	if err != nil {
		return err
	}
	if u.Empty() {
		return nil
	}
	if err := b.commit(ctx, v, u, actor); err != nil {
		perr := &board.PersistenceError{Op: u.Op, TaskID: id, Err: err}
		if !b.flow.CanTransition(from, to) {
			return fmt.Errorf("move %s %s -> %s: %w: %w", id, from, to, ErrTransition, perr)
		}
		return perr
	}
	b.record(ctx, activity.TaskMoved, actor, id, map[string]any{
		"from":     string(from),
		"to":       string(to),
		"position": u.After[0].Position,
	})
	return nil
}

// commit persists every change in u. On failure the in-memory mutation is
// reverted and writes that already landed are rolled back best-effort.
func (b *Board) commit(ctx context.Context, v *board.Context, u board.Undo, actor string) error {
	var written []board.Change
	for _, ch := range u.After {
		updated, err := b.tasks.Update(ctx, ch.ID, ch.Patch())
		if err != nil {
			b.rollback(ctx, v, u, written, actor, err)
			return err
		}
		written = append(written, ch)
		b.replace(*updated)
	}
	// match the order the store lists in
	slices.SortStableFunc(b.all, func(x, y task.Task) int { return cmp.Compare(x.Position, y.Position) })
	return nil
}

func (b *Board) rollback(ctx context.Context, v *board.Context, u board.Undo, written []board.Change, actor string, cause error) {
	if err := v.Revert(u); err != nil {
		b.log.Warn("revert in-memory board", "op", u.Op, "error", err)
	}
	for _, ch := range written {
		for _, before := range u.Before {
			if before.ID != ch.ID {
				continue
			}
			if _, err := b.tasks.Update(ctx, before.ID, before.Patch()); err != nil {
				b.log.Error("undo partial write", "op", u.Op, "task_id", before.ID, "error", err)
			}
		}
	}
	b.log.Warn("board mutation reverted", "op", u.Op, "error", cause)
	taskID := ""
	if len(u.Before) > 0 {
		taskID = u.Before[0].ID
	}
	b.record(ctx, activity.TaskReverted, actor, taskID, map[string]any{
		"op":    u.Op,
		"error": cause.Error(),
	})
}

// replace swaps in the stored version of t so recency reflects the write.
func (b *Board) replace(t task.Task) {
	for i := range b.all {
		if b.all[i].ID == t.ID {
			b.all[i] = t
			return
		}
	}
	b.all = append(b.all, t)
}

// Create stores a new task at the end of its project.
func (b *Board) Create(ctx context.Context, actor string, t task.Task) (*task.Task, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	created, err := b.tasks.Create(ctx, &t)
	if err != nil {
		return nil, err
	}
	b.replace(*created)
	b.record(ctx, activity.TaskCreated, actor, created.ID, map[string]any{
		"title":      created.Title,
		"project_id": created.ProjectID,
	})
	return created, nil
}

// Get returns one task from the working set.
func (b *Board) Get(ctx context.Context, id string) (task.Task, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.ensureLoaded(ctx); err != nil {
		return task.Task{}, err
	}
	return b.view(board.Filter{}).Find(id)
}

// Update edits task fields. Positions change only through Reorder and Move.
func (b *Board) Update(ctx context.Context, actor, id string, p task.Patch) (*task.Task, error) {
	if p.Position != nil {
		return nil, fmt.Errorf("%w: position is managed by the board", task.ErrInvalid)
	}
	if p.IsEmpty() {
		return nil, fmt.Errorf("%w: empty patch", task.ErrInvalid)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	updated, err := b.tasks.Update(ctx, id, p)
	if err != nil {
		return nil, err
	}
	b.replace(*updated)
	b.record(ctx, activity.TaskUpdated, actor, id, map[string]any{"patch": p})
	return updated, nil
}

// Delete removes a task. References to it are left dangling.
func (b *Board) Delete(ctx context.Context, actor, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.ensureLoaded(ctx); err != nil {
		return err
	}
	if err := b.tasks.Delete(ctx, id); err != nil {
		return err
	}
	b.all = slices.DeleteFunc(b.all, func(t task.Task) bool { return t.ID == id })
	b.record(ctx, activity.TaskDeleted, actor, id, nil)
	return nil
}

// Overdue re-fetches the board and returns tasks past their due date,
// ignoring cancelada.
func (b *Board) Overdue(ctx context.Context) ([]task.Task, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.refreshLocked(ctx); err != nil {
		return nil, err
	}
	now := b.opts.Now()
	var out []task.Task
	for _, t := range b.all {
		if t.Status != task.Cancelada && board.IsOverdue(t, now) {
			out = append(out, t)
		}
	}
	board.Sort(out, now)
	return out, nil
}

// Record appends an activity entry on behalf of collaborators such as the
// overdue sweep.
func (b *Board) Record(ctx context.Context, entryType, actor, taskID string, content map[string]any) {
	b.record(ctx, entryType, actor, taskID, content)
}

func (b *Board) record(ctx context.Context, entryType, actor, taskID string, content map[string]any) {
	if b.activity == nil {
		return
	}
	if _, err := b.activity.Append(ctx, entryType, actor, taskID, content); err != nil {
		b.log.Warn("record activity", "type", entryType, "task_id", taskID, "error", err)
	}
}
