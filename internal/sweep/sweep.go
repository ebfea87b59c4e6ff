// Package sweep periodically flags overdue tasks in the activity log.
package sweep

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"taskboard/pkg/activity"
	"taskboard/pkg/task"
)

// Source is the slice of the board service the sweeper needs.
type Source interface {
	Overdue(ctx context.Context) ([]task.Task, error)
	Record(ctx context.Context, entryType, actor, taskID string, content map[string]any)
}

// Sweeper records a task.overdue entry the first time each task is seen
// past its due date. Moving the due date re-arms the task.
type Sweeper struct {
	src   Source
	log   *slog.Logger
	actor string
	cron  *cron.Cron

	mu      sync.Mutex
	flagged map[string]time.Time // task id -> due date when flagged
}

// New creates a Sweeper. Call Schedule then Start to run it periodically.
func New(src Source, log *slog.Logger, actor string) *Sweeper {
	return &Sweeper{
		src:     src,
		log:     log,
		actor:   actor,
		cron:    cron.New(),
		flagged: make(map[string]time.Time),
	}
}

// Schedule registers the sweep to run every interval.
func (s *Sweeper) Schedule(interval time.Duration) (cron.EntryID, error) {
	if interval <= 0 {
		return 0, fmt.Errorf("overdue interval must be positive")
	}
	seconds := int(interval.Seconds())
	if seconds <= 0 {
		seconds = 1
	}
	return s.cron.AddFunc(fmt.Sprintf("@every %ds", seconds), func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if _, err := s.Sweep(ctx); err != nil {
			s.log.Error("overdue sweep", "error", err)
		}
	})
}

func (s *Sweeper) Start() {
	s.cron.Start()
}

// Stop halts the schedule and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	<-s.cron.Stop().Done()
}

// Sweep runs one pass and returns how many tasks were newly flagged.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	overdue, err := s.src.Overdue(ctx)
	if err != nil {
		return 0, fmt.Errorf("list overdue: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current := make(map[string]bool, len(overdue))
	n := 0
	for _, t := range overdue {
		current[t.ID] = true
		due := *t.DueDate
		if prev, ok := s.flagged[t.ID]; ok && prev.Equal(due) {
			continue
		}
		s.flagged[t.ID] = due
		s.src.Record(ctx, activity.TaskOverdue, s.actor, t.ID, map[string]any{
			"title":    t.Title,
			"due_date": due.Format(time.RFC3339),
			"status":   string(t.Status),
		})
		n++
	}
	// tasks that are no longer overdue can be flagged again later
	for id := range s.flagged {
		if !current[id] {
			delete(s.flagged, id)
		}
	}
	if n > 0 {
		s.log.Info("overdue tasks flagged", "count", n)
	}
	return n, nil
}
