package board

import (
	"strings"

	"taskboard/pkg/task"
)

// Filter is a conjunction of optional criteria. Empty fields are inactive.
type Filter struct {
	Status    task.Status   `json:"status,omitempty"`
	Owner     string        `json:"owner,omitempty"`
	ProjectID string        `json:"project_id,omitempty"`
	Priority  task.Priority `json:"priority,omitempty"`
	// Search is a case-insensitive substring of title or description.
	Search string `json:"search,omitempty"`
}

// Active reports whether any criterion is set.
func (f Filter) Active() bool {
	return f.Status != "" || f.Owner != "" || f.ProjectID != "" || f.Priority != "" ||
		strings.TrimSpace(f.Search) != ""
}

// Matches reports whether t satisfies every active criterion.
func Matches(t task.Task, f Filter) bool {
	if f.Status != "" && !strings.EqualFold(string(t.Status), string(f.Status)) {
		return false
	}
	if f.Owner != "" && !strings.EqualFold(t.Owner, f.Owner) {
		return false
	}
	if f.ProjectID != "" && !strings.EqualFold(t.ProjectID, f.ProjectID) {
		return false
	}
	if f.Priority != "" && !strings.EqualFold(string(effectivePriority(t.Priority)), string(f.Priority)) {
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(f.Search)); q != "" {
		if !strings.Contains(strings.ToLower(t.Title), q) && !strings.Contains(strings.ToLower(t.Description), q) {
			return false
		}
	}
	return true
}

// Apply returns the tasks that match f, in input order.
func Apply(tasks []task.Task, f Filter) []task.Task {
	if !f.Active() {
		return append([]task.Task(nil), tasks...)
	}
	out := make([]task.Task, 0, len(tasks))
	for _, t := range tasks {
		if Matches(t, f) {
			out = append(out, t)
		}
	}
	return out
}

func effectivePriority(p task.Priority) task.Priority {
	if !p.Valid() {
		return task.Medium
	}
	return p
}
