package workflow

import (
	"testing"

	"taskboard/pkg/task"
)

func TestDefaultTransitions(t *testing.T) {
	tbl := Default()
	cases := []struct {
		from, to task.Status
		want     bool
	}{
		{task.Pendente, task.EmAndamento, true},
		{task.Pendente, task.Concluida, false},
		{task.Revisao, task.Concluida, true},
		{task.Concluida, task.EmAndamento, true},
		{task.Concluida, task.Pendente, false},
		{task.Bloqueada, task.Bloqueada, true},
		{task.Status("bogus"), task.Status("bogus"), false},
	}
	for _, tc := range cases {
		if got := tbl.CanTransition(tc.from, tc.to); got != tc.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestLabels(t *testing.T) {
	tbl := Default()
	if got := tbl.LabelOf(task.EmAndamento); got != "Em andamento" {
		t.Errorf("label = %q", got)
	}
	if got := tbl.LabelOf("custom"); got != "custom" {
		t.Errorf("unknown label should fall back to raw status, got %q", got)
	}
	if tbl.ColorOf(task.Concluida) == "" {
		t.Error("missing color")
	}
}
