package cli

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"taskboard/internal/app"
	"taskboard/internal/config"
	"taskboard/pkg/activity"
	"taskboard/pkg/owner"
	"taskboard/pkg/task"
)

// testEnv runs commands against one set of in-memory stores so state
// survives between invocations.
func testEnv(t *testing.T) (*env, *task.MemStore) {
	t.Helper()
	t.Setenv("TASKBOARD_DRIVER", "memory")
	t.Setenv("LOG_LEVEL", "ERROR")
	tasks := task.NewMemStore()
	owners := owner.NewMemStore()
	act := activity.NewMemStore()
	e := &env{open: func(context.Context, config.Config, *slog.Logger) (*app.Stores, error) {
		return &app.Stores{Tasks: tasks, Owners: owners, Activity: act}, nil
	}}
	return e, tasks
}

func run(t *testing.T, e *env, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd(e)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func mustRun(t *testing.T, e *env, args ...string) string {
	t.Helper()
	out, err := run(t, e, args...)
	if err != nil {
		t.Fatalf("tb %s: %v\n%s", strings.Join(args, " "), err, out)
	}
	return out
}

func TestAddAndList(t *testing.T) {
	e, tasks := testEnv(t)
	mustRun(t, e, "add", "Write report", "--priority", "high", "--due", "2020-01-01")
	mustRun(t, e, "add", "Plan sprint")

	out := mustRun(t, e, "list")
	if !strings.Contains(out, "Write report") || !strings.Contains(out, "OVERDUE") {
		t.Fatalf("list output:\n%s", out)
	}
	if strings.Index(out, "Write report") > strings.Index(out, "Plan sprint") {
		t.Errorf("overdue task should sort first:\n%s", out)
	}

	all, _ := tasks.List(context.Background(), task.ListFilter{})
	if len(all) != 2 || all[1].Position != 1 {
		t.Fatalf("stored tasks = %+v", all)
	}
}

func TestListSubtaskIndent(t *testing.T) {
	e, tasks := testEnv(t)
	tasks.Put(task.Task{ID: "parent-1", Title: "Parent", Status: task.Pendente})
	tasks.Put(task.Task{ID: "child-1", Title: "Child", Status: task.Pendente, ParentID: "parent-1", Position: 1})

	out := mustRun(t, e, "list", "-q", "parent")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 || !strings.Contains(lines[1], "  Child") {
		t.Fatalf("list output:\n%s", out)
	}
}

func TestMoveAndKanban(t *testing.T) {
	e, tasks := testEnv(t)
	tasks.Put(task.Task{ID: "a", Title: "Alpha", Status: task.Pendente})

	out := mustRun(t, e, "move", "a", "em_andamento")
	if !strings.Contains(out, "Em andamento") {
		t.Fatalf("move output: %s", out)
	}
	out = mustRun(t, e, "kanban")
	if !strings.Contains(out, "== Em andamento (1) ==") {
		t.Fatalf("kanban output:\n%s", out)
	}
	if strings.Contains(out, "Cancelada") {
		t.Errorf("cancelada column shown:\n%s", out)
	}

	if _, err := run(t, e, "move", "a", "cancelada"); err == nil {
		t.Fatal("move to cancelada should fail")
	}
}

func TestReorder(t *testing.T) {
	e, tasks := testEnv(t)
	tasks.Put(task.Task{ID: "a", Title: "A", Status: task.Pendente, Position: 0})
	tasks.Put(task.Task{ID: "b", Title: "B", Status: task.Pendente, Position: 1})
	mustRun(t, e, "reorder", "a", "b")

	a, _ := tasks.Get(context.Background(), "a")
	if a.Position != 1 {
		t.Fatalf("position = %d", a.Position)
	}
}

func TestBlocked(t *testing.T) {
	e, tasks := testEnv(t)
	tasks.Put(task.Task{ID: "a", Title: "A", DependsOn: []string{"b", "ghost"}})
	tasks.Put(task.Task{ID: "b", Title: "Blocker", Status: task.Revisao})

	out := mustRun(t, e, "blocked", "a")
	if !strings.Contains(out, "Blocker") || !strings.Contains(out, "ghost") {
		t.Fatalf("blocked output:\n%s", out)
	}
	out = mustRun(t, e, "doctor")
	if !strings.Contains(out, "ghost") {
		t.Fatalf("doctor output:\n%s", out)
	}
}

func TestUpdateOnlyChangedFlags(t *testing.T) {
	e, tasks := testEnv(t)
	tasks.Put(task.Task{ID: "a", Title: "A", Description: "keep me", Status: task.Pendente, Priority: task.Low})
	mustRun(t, e, "update", "a", "--priority", "urgent")

	a, _ := tasks.Get(context.Background(), "a")
	if a.Priority != task.Urgent || a.Description != "keep me" || a.Title != "A" {
		t.Fatalf("task = %+v", a)
	}
	if _, err := run(t, e, "update", "a"); err == nil {
		t.Fatal("empty update should fail")
	}
}

func TestActivityAndVerify(t *testing.T) {
	e, _ := testEnv(t)
	mustRun(t, e, "add", "One")
	mustRun(t, e, "--actor", "ana", "add", "Two")

	out := mustRun(t, e, "activity")
	if strings.Count(out, activity.TaskCreated) != 2 || !strings.Contains(out, "ana") {
		t.Fatalf("activity output:\n%s", out)
	}
	if out := mustRun(t, e, "verify"); !strings.Contains(out, "Chain OK (2 entries)") {
		t.Fatalf("verify output: %s", out)
	}
}

func TestOwnerAdd(t *testing.T) {
	e, _ := testEnv(t)
	out := mustRun(t, e, "--json", "owner", "add", "Ana", "--email", "ana@example.com")
	if !strings.Contains(out, `"name": "Ana"`) {
		t.Fatalf("owner add output: %s", out)
	}
}

func TestParseDue(t *testing.T) {
	if _, err := parseDue("2026-03-01"); err != nil {
		t.Error(err)
	}
	if _, err := parseDue("2026-03-01T10:00:00Z"); err != nil {
		t.Error(err)
	}
	if _, err := parseDue("next week"); err == nil {
		t.Error("expected error")
	}
}
