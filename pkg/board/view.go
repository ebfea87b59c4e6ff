package board

import (
	"time"

	"taskboard/pkg/task"
)

// Item is one projected row: the task plus state derived for display.
type Item struct {
	task.Task
	Depth     int      `json:"depth"`
	Blocked   bool     `json:"blocked"`
	BlockedBy []string `json:"blocked_by,omitempty"`
	Overdue   bool     `json:"overdue"`
	OwnerName string   `json:"owner_name,omitempty"`
}

// Column is one kanban column.
type Column struct {
	Status task.Status `json:"status"`
	Label  string      `json:"label"`
	Color  string      `json:"color"`
	Items  []Item      `json:"items"`
}

// Labeler supplies display labels and colors for statuses.
type Labeler interface {
	LabelOf(s task.Status) string
	ColorOf(s task.Status) string
}

// Columns returns the kanban column statuses: every status except cancelada.
func Columns() []task.Status {
	out := make([]task.Status, 0, len(task.Statuses)-1)
	for _, s := range task.Statuses {
		if s != task.Cancelada {
			out = append(out, s)
		}
	}
	return out
}

// List projects the working set as a flat list. Filtered tasks are
// expanded with their hierarchy, sorted, then reconciled so subtasks sit
// directly under their parents.
func (c *Context) List() []Item {
	now := c.now()
	visible := Apply(c.Tasks, c.Filter)
	if c.Filter.Active() {
		visible = Expand(c.Tasks, visible)
	}
	Sort(visible, now)

	r := newResolver(c.Tasks)
	entries := reconcile(visible)
	items := make([]Item, 0, len(entries))
	for _, e := range entries {
		it := c.item(r, e.task, now)
		it.Depth = e.depth
		items = append(items, it)
	}
	return items
}

// Kanban projects the working set as status columns. Cancelada tasks are
// dropped. Each column is sorted on its own; parent/child adjacency is not
// kept across columns.
func (c *Context) Kanban(l Labeler) []Column {
	now := c.now()
	r := newResolver(c.Tasks)

	byStatus := make(map[task.Status][]task.Task)
	for _, t := range Apply(c.Tasks, c.Filter) {
		byStatus[t.Status] = append(byStatus[t.Status], t)
	}

	statuses := Columns()
	cols := make([]Column, 0, len(statuses))
	for _, s := range statuses {
		col := Column{Status: s, Label: string(s), Items: []Item{}}
		if l != nil {
			col.Label = l.LabelOf(s)
			col.Color = l.ColorOf(s)
		}
		tasks := byStatus[s]
		Sort(tasks, now)
		for _, t := range tasks {
			col.Items = append(col.Items, c.item(r, t, now))
		}
		cols = append(cols, col)
	}
	return cols
}

func (c *Context) item(r resolver, t task.Task, now time.Time) Item {
	it := Item{
		Task:    t,
		Blocked: r.blocked(t),
		Overdue: IsOverdue(t, now),
	}
	if it.Blocked {
		it.BlockedBy = r.names(t)
	}
	if t.Owner != "" && c.OwnerName != nil {
		it.OwnerName = c.OwnerName(t.Owner)
	}
	return it
}
