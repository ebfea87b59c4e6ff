package activity

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgStore is a PostgreSQL-backed activity Store with hash-chained integrity.
type PgStore struct {
	pool *pgxpool.Pool
}

// NewPgStore creates a PgStore.
func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

const entryColumns = `id, type, timestamp, actor, task_id, content, hash, prev_hash`

// EnsureTable creates the activity table if it doesn't exist.
func (s *PgStore) EnsureTable(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS activity (
			id        TEXT PRIMARY KEY,
			type      TEXT NOT NULL,
			timestamp TIMESTAMPTZ NOT NULL,
			actor     TEXT NOT NULL DEFAULT '',
			task_id   TEXT NOT NULL DEFAULT '',
			content   JSONB NOT NULL DEFAULT '{}',
			hash      TEXT NOT NULL,
			prev_hash TEXT NOT NULL DEFAULT ''
		)`)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `CREATE INDEX IF NOT EXISTS idx_activity_timestamp_id ON activity(timestamp, id)`)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `CREATE INDEX IF NOT EXISTS idx_activity_task ON activity(task_id) WHERE task_id != ''`)
	return err
}

// Append records a new entry, extending the hash chain.
func (s *PgStore) Append(ctx context.Context, entryType, actor, taskID string, content map[string]any) (*Entry, error) {
	content, contentJSON, err := normalize(content)
	if err != nil {
		return nil, err
	}

	now := time.Now().Truncate(time.Microsecond)
	id := uuid.Must(uuid.NewV7()).String()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var prevHash string
	err = tx.QueryRow(ctx, `SELECT hash FROM activity ORDER BY timestamp DESC, id DESC LIMIT 1 FOR UPDATE`).Scan(&prevHash)
	if err != nil {
		prevHash = ""
	}

	e := &Entry{
		ID:        id,
		Type:      entryType,
		Timestamp: now,
		Actor:     actor,
		TaskID:    taskID,
		Content:   content,
		Hash:      computeHash(prevHash, id, entryType, actor, taskID, now, contentJSON),
		PrevHash:  prevHash,
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO activity (`+entryColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6::jsonb, $7, $8)`,
		e.ID, e.Type, e.Timestamp, e.Actor, e.TaskID, string(contentJSON), e.Hash, e.PrevHash)
	if err != nil {
		return nil, fmt.Errorf("insert activity: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit activity: %w", err)
	}
	return e, nil
}

// Recent returns the most recent entries in reverse chronological order.
func (s *PgStore) Recent(ctx context.Context, limit int) ([]Entry, error) {
	return s.scanMany(ctx, `SELECT `+entryColumns+` FROM activity ORDER BY timestamp DESC, id DESC LIMIT $1`, limit)
}

// ByTask returns a task's entries, newest first.
func (s *PgStore) ByTask(ctx context.Context, taskID string, limit int) ([]Entry, error) {
	return s.scanMany(ctx, `SELECT `+entryColumns+` FROM activity WHERE task_id = $1 ORDER BY timestamp DESC, id DESC LIMIT $2`, taskID, limit)
}

// Since returns entries recorded after the given ID, for polling/SSE.
func (s *PgStore) Since(ctx context.Context, afterID string, limit int) ([]Entry, error) {
	return s.scanMany(ctx, `
		SELECT `+entryColumns+` FROM activity
		WHERE (timestamp, id) > (SELECT timestamp, id FROM activity WHERE id = $1)
		ORDER BY timestamp ASC, id ASC LIMIT $2`, afterID, limit)
}

// Count returns the total number of entries.
func (s *PgStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM activity`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count activity: %w", err)
	}
	return n, nil
}

// VerifyChain walks the entire chain chronologically and verifies hash integrity.
func (s *PgStore) VerifyChain(ctx context.Context) error {
	rows, err := s.pool.Query(ctx, `SELECT `+entryColumns+` FROM activity ORDER BY timestamp ASC, id ASC`)
	if err != nil {
		return fmt.Errorf("verify chain query: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	var raws [][]byte
	for rows.Next() {
		e, raw, err := scanEntry(rows)
		if err != nil {
			return fmt.Errorf("verify chain scan row %d: %w", len(entries), err)
		}
		entries = append(entries, e)
		raws = append(raws, raw)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("verify chain rows: %w", err)
	}
	return verify(entries, raws)
}

func (s *PgStore) scanMany(ctx context.Context, query string, args ...any) ([]Entry, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, _, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration: %w", err)
	}
	return entries, nil
}

func scanEntry(row pgx.Row) (Entry, []byte, error) {
	var e Entry
	var contentJSON []byte
	if err := row.Scan(&e.ID, &e.Type, &e.Timestamp, &e.Actor, &e.TaskID, &contentJSON, &e.Hash, &e.PrevHash); err != nil {
		return Entry{}, nil, err
	}
	if err := json.Unmarshal(contentJSON, &e.Content); err != nil {
		return Entry{}, nil, fmt.Errorf("unmarshal content: %w", err)
	}
	return e, contentJSON, nil
}

// verify checks links and hashes in chronological order. JSONB may reorder
// keys, so a hash is accepted against either the re-marshalled content or
// the raw stored bytes.
func verify(entries []Entry, raws [][]byte) error {
	prevHash := ""
	for i, e := range entries {
		if e.PrevHash != prevHash {
			return fmt.Errorf("entry %d (%s): prev_hash mismatch: got %s, want %s", i, e.ID, e.PrevHash, prevHash)
		}
		remarshal, _ := json.Marshal(e.Content)
		expected := computeHash(prevHash, e.ID, e.Type, e.Actor, e.TaskID, e.Timestamp, remarshal)
		if e.Hash != expected {
			var raw []byte
			if i < len(raws) {
				raw = raws[i]
			}
			if e.Hash != computeHash(prevHash, e.ID, e.Type, e.Actor, e.TaskID, e.Timestamp, raw) {
				return fmt.Errorf("entry %d (%s): hash mismatch", i, e.ID)
			}
		}
		prevHash = e.Hash
	}
	return nil
}
