// Package api exposes the board over HTTP.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"taskboard/internal/service"
	"taskboard/pkg/activity"
	"taskboard/pkg/board"
	"taskboard/pkg/task"
	"taskboard/pkg/workflow"
)

// Options configures a Server.
type Options struct {
	Project string // default project filter, may be empty
	Actor   string // actor recorded when a request names none
	APIKey  string // bearer token; empty disables auth
}

// Server is the HTTP API server.
type Server struct {
	board    *service.Board
	activity activity.Store
	flow     workflow.Table
	log      *slog.Logger
	opts     Options
	router   chi.Router
}

// New creates a new Server. If act is an *activity.Bus the activity stream
// endpoint is enabled.
func New(b *service.Board, act activity.Store, flow workflow.Table, log *slog.Logger, opts Options) *Server {
	if opts.Actor == "" {
		opts.Actor = "api"
	}
	s := &Server{
		board:    b,
		activity: act,
		flow:     flow,
		log:      log,
		opts:     opts,
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(CORS)
	r.Use(RequestID)
	r.Use(Logger(s.log))
	r.Use(Recovery(s.log))

	r.Get("/health", s.handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(BearerAuth(s.opts.APIKey))

		r.Route("/api/tasks", func(r chi.Router) {
			r.Get("/", s.handleTaskList)
			r.Post("/", s.handleTaskCreate)
			r.Get("/{id}", s.handleTaskGet)
			r.Patch("/{id}", s.handleTaskUpdate)
			r.Delete("/{id}", s.handleTaskDelete)
			r.Get("/{id}/blocked", s.handleTaskBlocked)
			r.Get("/{id}/activity", s.handleTaskActivity)
		})

		r.Route("/api/board", func(r chi.Router) {
			r.Get("/list", s.handleBoardList)
			r.Get("/kanban", s.handleBoardKanban)
			r.Get("/diagnostics", s.handleBoardDiagnostics)
			r.Post("/reorder", s.handleBoardReorder)
			r.Post("/move", s.handleBoardMove)
			r.Post("/refresh", s.handleBoardRefresh)
		})

		r.Route("/api/activity", func(r chi.Router) {
			r.Get("/", s.handleActivityList)
			r.Get("/stream", s.handleActivityStream)
			r.Get("/verify", s.handleActivityVerify)
		})

		r.Get("/api/statuses", s.handleStatuses)
	})
	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// actor names who is making the request.
func (s *Server) actor(r *http.Request) string {
	if a := r.Header.Get("X-Actor"); a != "" {
		return a
	}
	return s.opts.Actor
}

// filter reads the board filter from the query string.
func (s *Server) filter(r *http.Request) (board.Filter, error) {
	q := r.URL.Query()
	f := board.Filter{
		Owner:     q.Get("owner"),
		ProjectID: q.Get("project"),
		Search:    q.Get("q"),
	}
	if f.ProjectID == "" {
		f.ProjectID = s.opts.Project
	}
	if v := q.Get("status"); v != "" {
		st, err := task.ParseStatus(v)
		if err != nil {
			return f, err
		}
		f.Status = st
	}
	if v := q.Get("priority"); v != "" {
		p, err := task.ParsePriority(v)
		if err != nil {
			return f, err
		}
		f.Priority = p
	}
	return f, nil
}

// errorStatus maps domain errors onto HTTP status codes.
func errorStatus(err error) int {
	var perr *board.PersistenceError
	// A failed store write may wrap a lookup error; it is still a 502.
	switch {
	case errors.Is(err, service.ErrTransition):
		return http.StatusConflict
	case errors.As(err, &perr):
		return http.StatusBadGateway
	case errors.Is(err, task.ErrInvalid):
		return http.StatusBadRequest
	case errors.Is(err, task.ErrNotFound), errors.Is(err, board.ErrReference):
		return http.StatusNotFound
	case errors.Is(err, board.ErrColumn):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := errorStatus(err)
	if status >= http.StatusInternalServerError {
		s.log.Error("request failed", "path", r.URL.Path, "error", err)
	}
	writeError(w, status, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("write json", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return &badRequest{msg: "invalid JSON: " + err.Error()}
	}
	return nil
}

type badRequest struct{ msg string }

func (e *badRequest) Error() string { return e.msg }
func (e *badRequest) Unwrap() error { return task.ErrInvalid }

func queryInt(r *http.Request, key string, defaultVal int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return n
}
