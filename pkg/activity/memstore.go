package activity

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemStore keeps the activity chain in memory. Used by the sqlite and
// memory drivers and by tests.
type MemStore struct {
	mu      sync.Mutex
	entries []Entry
}

// NewMemStore creates an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{}
}

func (s *MemStore) EnsureTable(context.Context) error { return nil }

func (s *MemStore) Append(_ context.Context, entryType, actor, taskID string, content map[string]any) (*Entry, error) {
	content, contentJSON, err := normalize(content)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prevHash := ""
	if n := len(s.entries); n > 0 {
		prevHash = s.entries[n-1].Hash
	}
	id := uuid.Must(uuid.NewV7()).String()
	now := time.Now().Truncate(time.Microsecond)
	e := Entry{
		ID:        id,
		Type:      entryType,
		Timestamp: now,
		Actor:     actor,
		TaskID:    taskID,
		Content:   content,
		Hash:      computeHash(prevHash, id, entryType, actor, taskID, now, contentJSON),
		PrevHash:  prevHash,
	}
	s.entries = append(s.entries, e)
	return &e, nil
}

func (s *MemStore) Recent(_ context.Context, limit int) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Entry
	for i := len(s.entries) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.entries[i])
	}
	return out, nil
}

func (s *MemStore) ByTask(_ context.Context, taskID string, limit int) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Entry
	for i := len(s.entries) - 1; i >= 0 && len(out) < limit; i-- {
		if s.entries[i].TaskID == taskID {
			out = append(out, s.entries[i])
		}
	}
	return out, nil
}

func (s *MemStore) Since(_ context.Context, afterID string, limit int) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, e := range s.entries {
		if e.ID == afterID {
			rest := s.entries[i+1:]
			if len(rest) > limit {
				rest = rest[:limit]
			}
			return append([]Entry(nil), rest...), nil
		}
	}
	return nil, nil
}

func (s *MemStore) Count(context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries), nil
}

func (s *MemStore) VerifyChain(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return verify(s.entries, nil)
}
