package owner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemStore is an in-process owner directory.
type MemStore struct {
	mu     sync.Mutex
	owners []Owner
}

// NewMemStore creates an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{}
}

func (s *MemStore) EnsureTable(context.Context) error { return nil }

func (s *MemStore) Register(_ context.Context, name, email string) (*Owner, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.owners {
		if (email != "" && o.Email == email) || o.Name == name {
			cp := o
			return &cp, nil
		}
	}
	o := Owner{ID: uuid.Must(uuid.NewV7()).String(), Name: name, Email: email, CreatedAt: time.Now()}
	s.owners = append(s.owners, o)
	return &o, nil
}

func (s *MemStore) Get(_ context.Context, id string) (*Owner, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.owners {
		if o.ID == id {
			cp := o
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("get owner %s: %w", id, ErrNotFound)
}

func (s *MemStore) NameOf(ctx context.Context, ownerID string) string {
	o, err := s.Get(ctx, ownerID)
	if err != nil {
		return ownerID
	}
	return o.Name
}

func (s *MemStore) List(context.Context) ([]Owner, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Owner(nil), s.owners...), nil
}
