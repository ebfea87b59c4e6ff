package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"taskboard/pkg/activity"
)

func (s *Server) handleActivityList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	limit := queryInt(r, "limit", 50)

	var (
		entries []activity.Entry
		err     error
	)
	if after := r.URL.Query().Get("after"); after != "" {
		entries, err = s.activity.Since(ctx, after, limit)
	} else {
		entries, err = s.activity.Recent(ctx, limit)
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleActivityVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	n, err := s.activity.Count(ctx)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.activity.VerifyChain(ctx); err != nil {
		writeJSON(w, http.StatusConflict, map[string]any{"valid": false, "entries": n, "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"valid": true, "entries": n})
}

// handleActivityStream pushes new entries as server-sent events.
func (s *Server) handleActivityStream(w http.ResponseWriter, r *http.Request) {
	bus, ok := s.activity.(*activity.Bus)
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "activity stream not enabled")
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ctx := r.Context()
	entries := bus.Subscribe(ctx)
	keepalive := time.NewTicker(15 * time.Second)
	defer keepalive.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-entries:
			if !ok {
				return
			}
			data, err := json.Marshal(e)
			if err != nil {
				s.log.Warn("encode activity entry", "id", e.ID, "error", err)
				continue
			}
			fmt.Fprintf(w, "id: %s\nevent: %s\ndata: %s\n\n", e.ID, e.Type, data)
			flusher.Flush()
		case <-keepalive.C:
			fmt.Fprint(w, ": keepalive\n\n")
			flusher.Flush()
		}
	}
}
