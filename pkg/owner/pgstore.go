package owner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgStore is a PostgreSQL-backed owner directory.
type PgStore struct {
	pool *pgxpool.Pool
}

// NewPgStore creates a PgStore.
func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

// EnsureTable creates the owners table if it doesn't exist.
func (s *PgStore) EnsureTable(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS owners (
			id         TEXT PRIMARY KEY,
			name       TEXT NOT NULL,
			email      TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `CREATE UNIQUE INDEX IF NOT EXISTS owners_email_idx ON owners(email) WHERE email IS NOT NULL`)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `CREATE INDEX IF NOT EXISTS owners_name_idx ON owners(name)`)
	return err
}

// Register creates or returns an existing owner.
func (s *PgStore) Register(ctx context.Context, name, email string) (*Owner, error) {
	if email != "" {
		o, err := s.scanOne(ctx, `SELECT id, name, email, created_at FROM owners WHERE email = $1`, email)
		if err == nil {
			return o, nil
		}
	}

	o, err := s.scanOne(ctx, `SELECT id, name, email, created_at FROM owners WHERE name = $1 ORDER BY created_at ASC LIMIT 1`, name)
	if err == nil {
		return o, nil
	}

	id := uuid.Must(uuid.NewV7()).String()
	now := time.Now().Truncate(time.Microsecond)
	_, err = s.pool.Exec(ctx, `
		INSERT INTO owners (id, name, email, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT DO NOTHING`,
		id, name, nilIfEmpty(email), now)
	if err != nil {
		return nil, fmt.Errorf("register owner %s: %w", name, err)
	}

	// Re-fetch: a concurrent insert may have won the email index
	o, err = s.scanOne(ctx, `SELECT id, name, email, created_at FROM owners WHERE id = $1 OR (email IS NOT NULL AND email = $2) ORDER BY created_at ASC LIMIT 1`, id, email)
	if err != nil {
		return nil, fmt.Errorf("register owner %s: re-fetch failed: %w", name, err)
	}
	return o, nil
}

// Get returns an owner by ID.
func (s *PgStore) Get(ctx context.Context, id string) (*Owner, error) {
	o, err := s.scanOne(ctx, `SELECT id, name, email, created_at FROM owners WHERE id = $1`, id)
	if errors.Is(err, pgx.ErrNoRows) {
		err = ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get owner %s: %w", id, err)
	}
	return o, nil
}

// NameOf returns the owner's name, or ownerID when it cannot be resolved.
func (s *PgStore) NameOf(ctx context.Context, ownerID string) string {
	o, err := s.Get(ctx, ownerID)
	if err != nil {
		return ownerID
	}
	return o.Name
}

// List returns all owners.
func (s *PgStore) List(ctx context.Context) ([]Owner, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, name, email, created_at FROM owners ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("list owners: %w", err)
	}
	defer rows.Close()

	var owners []Owner
	for rows.Next() {
		var o Owner
		var email *string
		if err := rows.Scan(&o.ID, &o.Name, &email, &o.CreatedAt); err != nil {
			return nil, err
		}
		if email != nil {
			o.Email = *email
		}
		owners = append(owners, o)
	}
	return owners, rows.Err()
}

func (s *PgStore) scanOne(ctx context.Context, query string, args ...any) (*Owner, error) {
	var o Owner
	var email *string
	err := s.pool.QueryRow(ctx, query, args...).Scan(&o.ID, &o.Name, &email, &o.CreatedAt)
	if err != nil {
		return nil, err
	}
	if email != nil {
		o.Email = *email
	}
	return &o, nil
}

func nilIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
