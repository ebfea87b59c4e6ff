package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"taskboard/internal/service"
	"taskboard/pkg/activity"
	"taskboard/pkg/board"
	"taskboard/pkg/owner"
	"taskboard/pkg/task"
	"taskboard/pkg/workflow"
)

func newTestServer(t *testing.T, apiKey string, tasks ...task.Task) (*Server, *task.MemStore, *activity.Bus) {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	mem := task.NewMemStore()
	for _, tk := range tasks {
		mem.Put(tk)
	}
	bus := activity.NewBus(activity.NewMemStore())
	flow := workflow.Default()
	b := service.New(mem, owner.NewMemStore(), bus, flow, log, service.Options{})
	return New(b, bus, flow, log, Options{Actor: "test", APIKey: apiKey}), mem, bus
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		rd = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, rd)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	s, _, _ := newTestServer(t, "secret")
	rec := do(t, s, http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("missing request id")
	}
}

func TestBearerAuth(t *testing.T) {
	s, _, _ := newTestServer(t, "secret")
	if rec := do(t, s, http.MethodGet, "/api/tasks", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated status = %d", rec.Code)
	}
	req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
	req.Header.Set("Authorization", "Bearer secret")
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("authenticated status = %d", rec.Code)
	}
}

func TestCreateAndList(t *testing.T) {
	s, _, _ := newTestServer(t, "")
	rec := do(t, s, http.MethodPost, "/api/tasks", map[string]any{
		"title":    "Ship release",
		"priority": "high",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", rec.Code, rec.Body)
	}
	var created task.Task
	json.Unmarshal(rec.Body.Bytes(), &created)
	if created.Status != task.Pendente || created.ID == "" {
		t.Fatalf("created = %+v", created)
	}

	rec = do(t, s, http.MethodPost, "/api/tasks", map[string]any{"title": "  "})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("blank title status = %d", rec.Code)
	}

	rec = do(t, s, http.MethodGet, "/api/board/list?q=ship", nil)
	var items []board.Item
	json.Unmarshal(rec.Body.Bytes(), &items)
	if len(items) != 1 || items[0].ID != created.ID {
		t.Fatalf("list = %+v", items)
	}
}

func TestListRejectsBadFilter(t *testing.T) {
	s, _, _ := newTestServer(t, "")
	if rec := do(t, s, http.MethodGet, "/api/board/list?status=archived", nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestKanbanAndMove(t *testing.T) {
	s, mem, _ := newTestServer(t, "",
		task.Task{ID: "a", Title: "A", Status: task.Pendente},
		task.Task{ID: "b", Title: "B", Status: task.EmAndamento},
	)
	rec := do(t, s, http.MethodPost, "/api/board/move", map[string]string{"task_id": "a", "status": "em_andamento"})
	if rec.Code != http.StatusOK {
		t.Fatalf("move status = %d: %s", rec.Code, rec.Body)
	}
	var cols []board.Column
	json.Unmarshal(rec.Body.Bytes(), &cols)
	if len(cols) != 5 || len(cols[1].Items) != 2 {
		t.Fatalf("columns = %+v", cols)
	}
	stored, _ := mem.Get(context.Background(), "a")
	if stored.Status != task.EmAndamento || stored.Position != 1 {
		t.Fatalf("stored = %+v", stored)
	}

	rec = do(t, s, http.MethodPost, "/api/board/move", map[string]string{"task_id": "a", "status": "cancelada"})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("cancelada move status = %d", rec.Code)
	}
	rec = do(t, s, http.MethodPost, "/api/board/move", map[string]string{"task_id": "nope", "status": "revisao"})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown task status = %d", rec.Code)
	}
}

func TestErrorStatus(t *testing.T) {
	perr := &board.PersistenceError{Op: "move", TaskID: "a", Err: task.ErrNotFound}
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"invalid", fmt.Errorf("create: %w", task.ErrInvalid), http.StatusBadRequest},
		{"not found", task.ErrNotFound, http.StatusNotFound},
		{"column", board.ErrColumn, http.StatusUnprocessableEntity},
		{"transition", service.ErrTransition, http.StatusConflict},
		{"write lost a row", perr, http.StatusBadGateway},
		{"transition over failed write", fmt.Errorf("move: %w: %w", service.ErrTransition, perr), http.StatusConflict},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := errorStatus(tc.err); got != tc.want {
				t.Errorf("errorStatus(%v) = %d, want %d", tc.err, got, tc.want)
			}
		})
	}
}

func TestMoveOfVanishedTaskIsBadGateway(t *testing.T) {
	s, mem, _ := newTestServer(t, "",
		task.Task{ID: "a", Title: "A", Status: task.Pendente},
	)
	if rec := do(t, s, http.MethodGet, "/api/board/list", nil); rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	if err := mem.Delete(context.Background(), "a"); err != nil {
		t.Fatal(err)
	}
	rec := do(t, s, http.MethodPost, "/api/board/move", map[string]string{"task_id": "a", "status": "em_andamento"})
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
}

func TestReorder(t *testing.T) {
	s, mem, _ := newTestServer(t, "",
		task.Task{ID: "a", Title: "A", Status: task.Pendente, Position: 0},
		task.Task{ID: "b", Title: "B", Status: task.Pendente, Position: 1},
	)
	rec := do(t, s, http.MethodPost, "/api/board/reorder", map[string]string{"dragged_id": "a", "target_id": "b"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	a, _ := mem.Get(context.Background(), "a")
	if a.Position != 1 {
		t.Fatalf("position = %d", a.Position)
	}
	if rec := do(t, s, http.MethodPost, "/api/board/reorder", map[string]string{"dragged_id": "a"}); rec.Code != http.StatusBadRequest {
		t.Fatalf("missing target status = %d", rec.Code)
	}
}

func TestBlockedEndpoint(t *testing.T) {
	s, _, _ := newTestServer(t, "",
		task.Task{ID: "a", Title: "A", DependsOn: []string{"b"}},
		task.Task{ID: "b", Title: "Blocker", Status: task.Pendente},
	)
	rec := do(t, s, http.MethodGet, "/api/tasks/a/blocked", nil)
	var info service.BlockedInfo
	json.Unmarshal(rec.Body.Bytes(), &info)
	if !info.Blocked || len(info.Unresolved) != 1 || info.Unresolved[0] != "Blocker" {
		t.Fatalf("info = %+v", info)
	}
}

func TestUpdateAndDelete(t *testing.T) {
	s, _, _ := newTestServer(t, "", task.Task{ID: "a", Title: "A", Status: task.Pendente})
	rec := do(t, s, http.MethodPatch, "/api/tasks/a", map[string]any{"title": "Renamed"})
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d: %s", rec.Code, rec.Body)
	}
	rec = do(t, s, http.MethodPatch, "/api/tasks/a", map[string]any{"position": 4})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("position patch status = %d", rec.Code)
	}
	if rec := do(t, s, http.MethodDelete, "/api/tasks/a", nil); rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}
	if rec := do(t, s, http.MethodGet, "/api/tasks/a", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("get after delete status = %d", rec.Code)
	}
}

func TestStatuses(t *testing.T) {
	s, _, _ := newTestServer(t, "")
	rec := do(t, s, http.MethodGet, "/api/statuses", nil)
	var out []statusInfo
	json.Unmarshal(rec.Body.Bytes(), &out)
	if len(out) != len(task.Statuses) {
		t.Fatalf("got %d statuses", len(out))
	}
	for _, st := range out {
		if st.Status == task.Cancelada && st.Column {
			t.Error("cancelada must not be a column")
		}
	}
}

func TestActivityFeedAndVerify(t *testing.T) {
	s, _, _ := newTestServer(t, "")
	do(t, s, http.MethodPost, "/api/tasks", map[string]any{"title": "One"})
	do(t, s, http.MethodPost, "/api/tasks", map[string]any{"title": "Two"})

	rec := do(t, s, http.MethodGet, "/api/activity?limit=10", nil)
	var entries []activity.Entry
	json.Unmarshal(rec.Body.Bytes(), &entries)
	if len(entries) != 2 {
		t.Fatalf("entries = %d", len(entries))
	}
	rec = do(t, s, http.MethodGet, "/api/activity/verify", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"valid":true`) {
		t.Fatalf("verify = %d %s", rec.Code, rec.Body)
	}
}

func TestActivityStream(t *testing.T) {
	s, _, bus := newTestServer(t, "")
	srv := httptest.NewServer(s)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/activity/stream", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content type = %q", ct)
	}

	for bus.Subscribers() == 0 {
		time.Sleep(5 * time.Millisecond)
	}
	if _, err := bus.Append(ctx, activity.TaskMoved, "test", "a", nil); err != nil {
		t.Fatal(err)
	}

	buf := make([]byte, 4096)
	var got strings.Builder
	for !strings.Contains(got.String(), "\n\n") {
		n, err := resp.Body.Read(buf)
		if err != nil {
			t.Fatal(err)
		}
		got.Write(buf[:n])
	}
	if !strings.Contains(got.String(), "event: task.moved") {
		t.Fatalf("stream = %q", got.String())
	}
}
