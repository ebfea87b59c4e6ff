package board

import (
	"slices"
	"testing"
	"time"

	"taskboard/pkg/task"
)

var now = time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)

func ids(tasks []task.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.ID
	}
	return out
}

func itemIDs(items []Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func at(d time.Duration) *time.Time {
	t := now.Add(d)
	return &t
}

func TestIsBlocked(t *testing.T) {
	all := []task.Task{
		{ID: "1", Status: task.Pendente, DependsOn: []string{"2"}},
		{ID: "2", Status: task.EmAndamento, Title: "Second"},
		{ID: "3", Status: task.Concluida},
		{ID: "4", DependsOn: []string{"3"}},
		{ID: "5", DependsOn: []string{"gone"}},
		{ID: "6", DependsOn: []string{"6"}},
		{ID: "7"},
		{ID: "8", DependsOn: []string{"3", "2"}},
		{ID: "9", DependsOn: []string{"2"}, Status: task.Concluida},
	}
	cases := []struct {
		id   string
		want bool
	}{
		{"1", true},
		{"4", false},
		{"5", true},  // dangling dependency cannot be verified
		{"6", false}, // self-reference ignored
		{"7", false},
		{"8", true},
		{"9", true},
	}
	for _, tc := range cases {
		c := &Context{Tasks: all}
		got, err := c.IsBlocked(tc.id)
		if err != nil {
			t.Fatal(err)
		}
		if got != tc.want {
			t.Errorf("IsBlocked(%s) = %v, want %v", tc.id, got, tc.want)
		}
	}
}

func TestIsBlockedIgnoresFilter(t *testing.T) {
	all := []task.Task{
		{ID: "1", Title: "Render pass", DependsOn: []string{"2"}},
		{ID: "2", Title: "Hidden blocker", Status: task.Pendente},
	}
	c := &Context{Tasks: all, Filter: Filter{Search: "render"}, Now: now}
	items := c.List()
	if len(items) != 1 || !items[0].Blocked {
		t.Fatalf("blocker hidden by filter must still block: %+v", items)
	}
	if !slices.Equal(items[0].BlockedBy, []string{"Hidden blocker"}) {
		t.Errorf("BlockedBy = %v", items[0].BlockedBy)
	}
}

func TestBlockedClearsWhenDependencyCompletes(t *testing.T) {
	all := []task.Task{
		{ID: "1", Status: task.Pendente, DependsOn: []string{"2"}},
		{ID: "2", Status: task.EmAndamento},
	}
	if !IsBlocked(all[0], all) {
		t.Fatal("expected blocked")
	}
	all[1].Status = task.Concluida
	if IsBlocked(all[0], all) {
		t.Fatal("expected unblocked after dependency concluida")
	}
}

func TestOneHopOnly(t *testing.T) {
	all := []task.Task{
		{ID: "a", DependsOn: []string{"b"}},
		{ID: "b", Status: task.Concluida, DependsOn: []string{"c"}},
		{ID: "c", Status: task.Pendente},
	}
	if IsBlocked(all[0], all) {
		t.Fatal("transitive dependencies must not block")
	}
}

func TestDependencyNames(t *testing.T) {
	all := []task.Task{
		{ID: "1", DependsOn: []string{"2", "3", "missing"}},
		{ID: "2", Title: "Design", Status: task.Revisao},
		{ID: "3", Title: "Done", Status: task.Concluida},
	}
	got := DependencyNames(all[0], all)
	want := []string{"Design", "missing"}
	if !slices.Equal(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	if DependencyNames(all[1], all) != nil {
		t.Error("no dependencies should give nil")
	}
}

func TestDiagnose(t *testing.T) {
	all := []task.Task{
		{ID: "1", ParentID: "ghost"},
		{ID: "2", DependsOn: []string{"2", "nope"}},
	}
	got := Diagnose(all)
	want := []Diagnostic{
		{Kind: DanglingParent, TaskID: "1", Ref: "ghost"},
		{Kind: SelfDependency, TaskID: "2", Ref: "2"},
		{Kind: DanglingDependency, TaskID: "2", Ref: "nope"},
	}
	if !slices.Equal(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestMatches(t *testing.T) {
	tk := task.Task{
		ID: "1", Title: "Render Pass", Status: task.EmAndamento, Owner: "ana",
		ProjectID: "p1", Priority: task.High,
	}
	cases := []struct {
		name string
		f    Filter
		want bool
	}{
		{"empty", Filter{}, true},
		{"status", Filter{Status: task.EmAndamento}, true},
		{"status miss", Filter{Status: task.Pendente}, false},
		{"owner case", Filter{Owner: "ANA"}, true},
		{"project", Filter{ProjectID: "p2"}, false},
		{"priority", Filter{Priority: task.High}, true},
		{"search title", Filter{Search: "render"}, true},
		{"search miss", Filter{Search: "deploy"}, false},
		{"conjunction", Filter{Owner: "ana", Priority: task.Low}, false},
		{"blank search", Filter{Search: "   "}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Matches(tk, tc.f); got != tc.want {
				t.Errorf("Matches = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestMatchesMissingFields(t *testing.T) {
	tk := task.Task{ID: "1"}
	if Matches(tk, Filter{Search: "x"}) {
		t.Error("empty title and description should not match")
	}
	if !Matches(tk, Filter{Priority: task.Medium}) {
		t.Error("missing priority counts as medium")
	}
	withDesc := task.Task{ID: "2", Title: "Title", Description: "mentions DEPLOY"}
	if !Matches(withDesc, Filter{Search: "deploy"}) {
		t.Error("search should cover description")
	}
}
