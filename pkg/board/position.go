package board

import (
	"fmt"

	"taskboard/pkg/task"
)

// Change is the position/status of one task at a point in time.
type Change struct {
	ID       string      `json:"id"`
	Status   task.Status `json:"status"`
	Position int         `json:"position"`
}

// Undo records what a Position Engine operation touched.
type Undo struct {
	Op     string   `json:"op"`
	Before []Change `json:"before"`
	After  []Change `json:"after"`
}

// Empty reports whether the operation changed nothing.
func (u Undo) Empty() bool { return len(u.After) == 0 }

// Patch returns the store patch that makes c durable. Recency is left as is.
func (c Change) Patch() task.Patch {
	st, pos := c.Status, c.Position
	return task.Patch{Status: &st, Position: &pos, KeepUpdatedAt: true}
}

func snapshot(t task.Task) Change {
	return Change{ID: t.ID, Status: t.Status, Position: t.Position}
}

// ReorderLinear swaps the positions of the dragged and target tasks. Other
// tasks are untouched. Swapping the same pair twice restores the original
// order.
func (c *Context) ReorderLinear(draggedID, targetID string) (Undo, error) {
	di := c.index(draggedID)
	if di < 0 {
		return Undo{}, &ReferenceError{ID: draggedID}
	}
	ti := c.index(targetID)
	if ti < 0 {
		return Undo{}, &ReferenceError{ID: targetID}
	}
	u := Undo{Op: "reorder"}
	if di == ti {
		return u, nil
	}

	d, t := &c.Tasks[di], &c.Tasks[ti]
	u.Before = []Change{snapshot(*d), snapshot(*t)}
	d.Position, t.Position = t.Position, d.Position
	u.After = []Change{snapshot(*d), snapshot(*t)}
	return u, nil
}

// MoveToColumn sets the dragged task's status and appends it to the end of
// the destination column, counting only the tasks visible under the active
// filter. The move is applied without consulting the transition table.
func (c *Context) MoveToColumn(draggedID string, to task.Status) (Undo, error) {
	if !to.Valid() || to == task.Cancelada {
		return Undo{}, fmt.Errorf("move to %q: %w", to, ErrColumn)
	}
	di := c.index(draggedID)
	if di < 0 {
		return Undo{}, &ReferenceError{ID: draggedID}
	}
	u := Undo{Op: "move"}
	d := &c.Tasks[di]
	if d.Status == to {
		return u, nil
	}

	n := 0
	for _, t := range Apply(c.Tasks, c.Filter) {
		if t.ID != draggedID && t.Status == to {
			n++
		}
	}

	u.Before = []Change{snapshot(*d)}
	d.Status = to
	d.Position = n
	u.After = []Change{snapshot(*d)}
	return u, nil
}

// Revert restores the state recorded in u.Before. Tasks that have since
// left the working set are skipped and reported as a ReferenceError.
func (c *Context) Revert(u Undo) error {
	var missing error
	for _, ch := range u.Before {
		i := c.index(ch.ID)
		if i < 0 {
			missing = &ReferenceError{ID: ch.ID}
			continue
		}
		c.Tasks[i].Status = ch.Status
		c.Tasks[i].Position = ch.Position
	}
	return missing
}
