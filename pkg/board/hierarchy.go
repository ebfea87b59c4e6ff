package board

import "taskboard/pkg/task"

type entry struct {
	task  task.Task
	depth int
}

// Reconcile reorders a filtered task list so every subtask follows its
// parent. Tasks whose parent is absent from the list are treated as roots.
// Roots and siblings keep their relative input order, so running Reconcile
// on its own output changes nothing.
func Reconcile(filtered []task.Task) []task.Task {
	entries := reconcile(filtered)
	out := make([]task.Task, len(entries))
	for i, e := range entries {
		out[i] = e.task
	}
	return out
}

func reconcile(filtered []task.Task) []entry {
	present := make(map[string]bool, len(filtered))
	for _, t := range filtered {
		present[t.ID] = true
	}

	var roots []task.Task
	children := make(map[string][]task.Task)
	for _, t := range filtered {
		if t.ParentID == "" || t.ParentID == t.ID || !present[t.ParentID] {
			roots = append(roots, t)
			continue
		}
		children[t.ParentID] = append(children[t.ParentID], t)
	}

	out := make([]entry, 0, len(filtered))
	emitted := make(map[string]bool, len(filtered))
	var emit func(t task.Task, depth int)
	emit = func(t task.Task, depth int) {
		if emitted[t.ID] {
			return
		}
		emitted[t.ID] = true
		out = append(out, entry{task: t, depth: depth})
		for _, c := range children[t.ID] {
			emit(c, depth+1)
		}
	}
	for _, r := range roots {
		emit(r, 0)
	}

	// Parent cycles leave tasks unreachable from any root; surface them as
	// roots instead of dropping them.
	if len(out) < len(filtered) {
		for _, t := range filtered {
			emit(t, 0)
		}
	}
	return out
}

// Expand applies the inclusion rule to a filtered subset of all: every
// matched subtask brings its parent along as context, and every matched
// parent brings its subtasks. The result keeps the order of all.
func Expand(all, matched []task.Task) []task.Task {
	keep := make(map[string]bool, len(matched))
	for _, t := range matched {
		keep[t.ID] = true
	}
	parents := make(map[string]bool)
	for _, t := range matched {
		if t.ParentID != "" {
			parents[t.ParentID] = true
		}
	}

	out := make([]task.Task, 0, len(matched))
	for _, t := range all {
		if keep[t.ID] || parents[t.ID] || (t.ParentID != "" && keep[t.ParentID]) {
			out = append(out, t)
		}
	}
	return out
}
