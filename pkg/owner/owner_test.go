package owner

import (
	"context"
	"errors"
	"testing"
)

func TestMemStoreRegisterIdempotent(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()

	a, err := s.Register(ctx, "Ana", "ana@example.com")
	if err != nil {
		t.Fatal(err)
	}
	b, _ := s.Register(ctx, "Ana Souza", "ana@example.com")
	if a.ID != b.ID {
		t.Fatalf("same email registered twice: %s != %s", a.ID, b.ID)
	}
	c, _ := s.Register(ctx, "Ana", "")
	if c.ID != a.ID {
		t.Fatalf("same name registered twice")
	}

	list, _ := s.List(ctx)
	if len(list) != 1 {
		t.Fatalf("List = %d owners", len(list))
	}
}

func TestNameOfFallsBackToID(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()
	o, _ := s.Register(ctx, "Bruno", "")

	if got := s.NameOf(ctx, o.ID); got != "Bruno" {
		t.Errorf("NameOf = %q", got)
	}
	if got := s.NameOf(ctx, "raw-id"); got != "raw-id" {
		t.Errorf("unknown owner should resolve to its id, got %q", got)
	}
	if _, err := s.Get(ctx, "raw-id"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	names, err := Names(ctx, s)
	if err != nil || names[o.ID] != "Bruno" {
		t.Fatalf("Names = %v, %v", names, err)
	}
}
