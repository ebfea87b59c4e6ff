package owner

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("owner not found")

// Owner is a person tasks can be assigned to. Tasks reference owners by ID
// without referential integrity.
type Owner struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// Directory resolves owner ids to display names. Unknown ids resolve to
// themselves.
type Directory interface {
	NameOf(ctx context.Context, ownerID string) string
}

// Store is the contract for owner persistence.
type Store interface {
	Directory

	// Register creates or returns an existing owner. Idempotent:
	// matches on email, then name.
	Register(ctx context.Context, name, email string) (*Owner, error)

	// Get returns an owner by ID.
	Get(ctx context.Context, id string) (*Owner, error)

	// List returns all owners.
	List(ctx context.Context) ([]Owner, error)

	// EnsureTable creates the owners table if it doesn't exist.
	EnsureTable(ctx context.Context) error
}

// Names loads every owner into an id -> name map for bulk display.
func Names(ctx context.Context, s Store) (map[string]string, error) {
	owners, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	m := make(map[string]string, len(owners))
	for _, o := range owners {
		m[o.ID] = o.Name
	}
	return m, nil
}
