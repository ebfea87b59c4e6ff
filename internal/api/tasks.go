package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"taskboard/pkg/task"
)

// handleTaskList returns bare tasks in list-view order.
func (s *Server) handleTaskList(w http.ResponseWriter, r *http.Request) {
	f, err := s.filter(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	items, err := s.board.List(r.Context(), f)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	tasks := make([]task.Task, 0, len(items))
	for _, it := range items {
		tasks = append(tasks, it.Task)
	}
	if limit := queryInt(r, "limit", 0); limit > 0 && len(tasks) > limit {
		tasks = tasks[:limit]
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (s *Server) handleTaskGet(w http.ResponseWriter, r *http.Request) {
	t, err := s.board.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleTaskCreate(w http.ResponseWriter, r *http.Request) {
	var t task.Task
	if err := decode(r, &t); err != nil {
		s.fail(w, r, err)
		return
	}
	if t.ProjectID == "" {
		t.ProjectID = s.opts.Project
	}
	created, err := s.board.Create(r.Context(), s.actor(r), t)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleTaskUpdate(w http.ResponseWriter, r *http.Request) {
	var p task.Patch
	if err := decode(r, &p); err != nil {
		s.fail(w, r, err)
		return
	}
	t, err := s.board.Update(r.Context(), s.actor(r), chi.URLParam(r, "id"), p)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleTaskDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.board.Delete(r.Context(), s.actor(r), chi.URLParam(r, "id")); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleTaskBlocked(w http.ResponseWriter, r *http.Request) {
	info, err := s.board.Blocked(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) handleTaskActivity(w http.ResponseWriter, r *http.Request) {
	entries, err := s.activity.ByTask(r.Context(), chi.URLParam(r, "id"), queryInt(r, "limit", 50))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
