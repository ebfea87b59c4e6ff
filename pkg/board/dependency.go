package board

import "taskboard/pkg/task"

// resolver answers dependency questions against one snapshot of the full
// task set. It is rebuilt per call; blocked state is never cached across
// mutations.
type resolver struct {
	byID map[string]*task.Task
}

func newResolver(all []task.Task) resolver {
	return resolver{byID: indexByID(all)}
}

// unresolved returns the dependencies of t that are not concluida, in
// depends_on order. Dangling ids count as unresolved; self-references are
// skipped.
func (r resolver) unresolved(t task.Task) []string {
	var out []string
	for _, dep := range t.DependsOn {
		if dep == t.ID {
			continue
		}
		d, ok := r.byID[dep]
		if !ok || d.Status != task.Concluida {
			out = append(out, dep)
		}
	}
	return out
}

func (r resolver) blocked(t task.Task) bool {
	for _, dep := range t.DependsOn {
		if dep == t.ID {
			continue
		}
		d, ok := r.byID[dep]
		if !ok || d.Status != task.Concluida {
			return true
		}
	}
	return false
}

func (r resolver) names(t task.Task) []string {
	ids := r.unresolved(t)
	if len(ids) == 0 {
		return nil
	}
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		if d, ok := r.byID[id]; ok && d.Title != "" {
			names = append(names, d.Title)
		} else {
			names = append(names, id)
		}
	}
	return names
}

// IsBlocked reports whether any direct dependency of t is unfinished or
// missing. all must be the complete task set, not a filtered view, or
// hidden blockers are missed. Only one hop is checked.
func IsBlocked(t task.Task, all []task.Task) bool {
	if len(t.DependsOn) == 0 {
		return false
	}
	return newResolver(all).blocked(t)
}

// DependencyNames returns display labels for the unresolved dependencies of
// t, falling back to the raw id for dangling references.
func DependencyNames(t task.Task, all []task.Task) []string {
	if len(t.DependsOn) == 0 {
		return nil
	}
	return newResolver(all).names(t)
}

// IsBlocked resolves id against the working set.
func (c *Context) IsBlocked(id string) (bool, error) {
	t, err := c.Find(id)
	if err != nil {
		return false, err
	}
	return IsBlocked(t, c.Tasks), nil
}
