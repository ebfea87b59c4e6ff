// Package workflow holds the status transition table consulted when a
// kanban move implies a status change, plus display labels and colors.
package workflow

import "taskboard/pkg/task"

// Table decides which status changes are allowed.
type Table interface {
	CanTransition(from, to task.Status) bool
	LabelOf(s task.Status) string
	ColorOf(s task.Status) string
}

// StaticTable is a Table backed by fixed maps.
type StaticTable struct {
	next   map[task.Status][]task.Status
	labels map[task.Status]string
	colors map[task.Status]string
}

// Default returns the board's stock transition table.
func Default() *StaticTable {
	return &StaticTable{
		next: map[task.Status][]task.Status{
			task.Pendente:    {task.EmAndamento, task.Bloqueada, task.Cancelada},
			task.EmAndamento: {task.Revisao, task.Pendente, task.Bloqueada, task.Cancelada},
			task.Revisao:     {task.Concluida, task.EmAndamento, task.Cancelada},
			task.Concluida:   {task.EmAndamento}, // reopen
			task.Bloqueada:   {task.Pendente, task.EmAndamento, task.Cancelada},
			task.Cancelada:   {task.Pendente},
		},
		labels: map[task.Status]string{
			task.Pendente:    "Pendente",
			task.EmAndamento: "Em andamento",
			task.Revisao:     "Revisão",
			task.Concluida:   "Concluída",
			task.Bloqueada:   "Bloqueada",
			task.Cancelada:   "Cancelada",
		},
		colors: map[task.Status]string{
			task.Pendente:    "#9ca3af",
			task.EmAndamento: "#3b82f6",
			task.Revisao:     "#a855f7",
			task.Concluida:   "#22c55e",
			task.Bloqueada:   "#ef4444",
			task.Cancelada:   "#6b7280",
		},
	}
}

// CanTransition reports whether a task may move from one status to another.
// Staying in place is always allowed.
func (t *StaticTable) CanTransition(from, to task.Status) bool {
	if from == to {
		return to.Valid()
	}
	for _, s := range t.next[from] {
		if s == to {
			return true
		}
	}
	return false
}

// LabelOf returns the display label for s, or s itself when unknown.
func (t *StaticTable) LabelOf(s task.Status) string {
	if l, ok := t.labels[s]; ok {
		return l
	}
	return string(s)
}

// ColorOf returns the display color for s.
func (t *StaticTable) ColorOf(s task.Status) string {
	if c, ok := t.colors[s]; ok {
		return c
	}
	return "#000000"
}

// Allowed returns the statuses reachable from s in one step.
func (t *StaticTable) Allowed(s task.Status) []task.Status {
	return append([]task.Status(nil), t.next[s]...)
}
