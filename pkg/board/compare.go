package board

import (
	"cmp"
	"slices"
	"time"

	"taskboard/pkg/task"
)

// IsOverdue reports whether t has a due date in the past and is not
// concluida.
func IsOverdue(t task.Task, now time.Time) bool {
	return t.DueDate != nil && t.Status != task.Concluida && t.DueDate.Before(now)
}

// PriorityRank maps urgent..low to 0..3. Unknown priorities rank as medium.
func PriorityRank(p task.Priority) int {
	switch p {
	case task.Urgent:
		return 0
	case task.High:
		return 1
	case task.Low:
		return 3
	default:
		return 2
	}
}

func overdueRank(t task.Task, now time.Time) int {
	if IsOverdue(t, now) {
		return 0
	}
	return 1
}

// Compare orders overdue tasks first, then by priority, then most recently
// updated first. It returns -1, 0 or 1.
func Compare(a, b task.Task, now time.Time) int {
	if c := cmp.Compare(overdueRank(a, now), overdueRank(b, now)); c != 0 {
		return c
	}
	if c := cmp.Compare(PriorityRank(a.Priority), PriorityRank(b.Priority)); c != 0 {
		return c
	}
	return b.UpdatedAt.Compare(a.UpdatedAt)
}

// Sort orders tasks in place with Compare. Ties keep input order.
func Sort(tasks []task.Task, now time.Time) {
	slices.SortStableFunc(tasks, func(a, b task.Task) int {
		return Compare(a, b, now)
	})
}
