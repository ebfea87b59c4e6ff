// Package activity is the board's append-only audit trail. Every entry is
// hash-chained to its predecessor so tampering shows up in VerifyChain.
package activity

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"time"
)

// Entry types recorded by the board.
const (
	TaskCreated   = "task.created"
	TaskUpdated   = "task.updated"
	TaskDeleted   = "task.deleted"
	TaskReordered = "task.reordered"
	TaskMoved     = "task.moved"
	TaskReverted  = "task.reverted"
	TaskOverdue   = "task.overdue"
)

// Entry is one recorded board mutation.
type Entry struct {
	ID        string         `json:"id"`        // UUID v7 (time-ordered)
	Type      string         `json:"type"`      // e.g. "task.moved"
	Timestamp time.Time      `json:"timestamp"` // when it was recorded
	Actor     string         `json:"actor"`     // who caused it
	TaskID    string         `json:"task_id"`
	Content   map[string]any `json:"content"`
	Hash      string         `json:"hash"`      // SHA-256 of canonical form
	PrevHash  string         `json:"prev_hash"` // hash chain link
}

// Store is the contract for activity persistence.
type Store interface {
	Append(ctx context.Context, entryType, actor, taskID string, content map[string]any) (*Entry, error)
	Recent(ctx context.Context, limit int) ([]Entry, error)
	ByTask(ctx context.Context, taskID string, limit int) ([]Entry, error)
	Since(ctx context.Context, afterID string, limit int) ([]Entry, error)
	Count(ctx context.Context) (int, error)
	VerifyChain(ctx context.Context) error
	EnsureTable(ctx context.Context) error
}

// computeHash computes a SHA-256 hash for chain integrity.
func computeHash(prevHash, id, entryType, actor, taskID string, timestamp time.Time, contentJSON []byte) string {
	data := fmt.Sprintf("%s|%s|%s|%s|%s|%d|%s", prevHash, id, entryType, actor, taskID, timestamp.UnixNano(), string(contentJSON))
	h := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", h)
}

// normalize reduces content to plain JSON values so the bytes hashed at
// append time match what a JSONB column gives back.
func normalize(content map[string]any) (map[string]any, []byte, error) {
	if content == nil {
		return map[string]any{}, []byte("{}"), nil
	}
	raw, err := json.Marshal(content)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal content: %w", err)
	}
	plain := map[string]any{}
	if err := json.Unmarshal(raw, &plain); err != nil {
		return nil, nil, fmt.Errorf("normalize content: %w", err)
	}
	if raw, err = json.Marshal(plain); err != nil {
		return nil, nil, fmt.Errorf("marshal content: %w", err)
	}
	return plain, raw, nil
}
