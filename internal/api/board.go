package api

import (
	"fmt"
	"net/http"

	"taskboard/pkg/board"
	"taskboard/pkg/task"
)

func (s *Server) handleBoardList(w http.ResponseWriter, r *http.Request) {
	f, err := s.filter(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeList(w, r, f)
}

func (s *Server) writeList(w http.ResponseWriter, r *http.Request, f board.Filter) {
	items, err := s.board.List(r.Context(), f)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleBoardKanban(w http.ResponseWriter, r *http.Request) {
	f, err := s.filter(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeKanban(w, r, f)
}

func (s *Server) writeKanban(w http.ResponseWriter, r *http.Request, f board.Filter) {
	cols, err := s.board.Kanban(r.Context(), f)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cols)
}

func (s *Server) handleBoardDiagnostics(w http.ResponseWriter, r *http.Request) {
	diags, err := s.board.Diagnostics(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	out := make([]string, 0, len(diags))
	for _, d := range diags {
		out = append(out, d.String())
	}
	writeJSON(w, http.StatusOK, out)
}

// handleBoardReorder swaps two tasks and answers with the re-projected list.
func (s *Server) handleBoardReorder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DraggedID string `json:"dragged_id"`
		TargetID  string `json:"target_id"`
	}
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if req.DraggedID == "" || req.TargetID == "" {
		s.fail(w, r, fmt.Errorf("%w: dragged_id and target_id are required", task.ErrInvalid))
		return
	}
	f, err := s.filter(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.board.Reorder(r.Context(), s.actor(r), req.DraggedID, req.TargetID); err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeList(w, r, f)
}

// handleBoardMove drops a task on a kanban column and answers with the
// re-projected board. The query filter decides the landing position.
func (s *Server) handleBoardMove(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TaskID string `json:"task_id"`
		Status string `json:"status"`
	}
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if req.TaskID == "" {
		s.fail(w, r, fmt.Errorf("%w: task_id is required", task.ErrInvalid))
		return
	}
	f, err := s.filter(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.board.Move(r.Context(), s.actor(r), req.TaskID, task.Status(req.Status), f); err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeKanban(w, r, f)
}

func (s *Server) handleBoardRefresh(w http.ResponseWriter, r *http.Request) {
	if err := s.board.Refresh(r.Context()); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type statusInfo struct {
	Status task.Status   `json:"status"`
	Label  string        `json:"label"`
	Color  string        `json:"color"`
	Column bool          `json:"column"`
	Next   []task.Status `json:"next"`
}

// handleStatuses describes every status and where it may move.
func (s *Server) handleStatuses(w http.ResponseWriter, r *http.Request) {
	out := make([]statusInfo, 0, len(task.Statuses))
	for _, st := range task.Statuses {
		info := statusInfo{
			Status: st,
			Label:  s.flow.LabelOf(st),
			Color:  s.flow.ColorOf(st),
			Column: st != task.Cancelada,
			Next:   []task.Status{},
		}
		for _, to := range task.Statuses {
			if to != st && s.flow.CanTransition(st, to) {
				info.Next = append(info.Next, to)
			}
		}
		out = append(out, info)
	}
	writeJSON(w, http.StatusOK, out)
}
