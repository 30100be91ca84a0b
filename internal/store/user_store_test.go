package store

import (
	"testing"

	"app/internal/model"
)

func TestUserStoreSetAndClear(t *testing.T) {
	s := NewUserStore()
	if s.Current() != nil {
		t.Fatal("expected empty store")
	}

	s.Set(&model.User{ID: "u1", Name: "Ada"})
	got := s.Current()
	if got == nil || got.ID != "u1" {
		t.Fatalf("current = %+v, want user u1", got)
	}

	// Mutating the returned copy must not touch the store.
	got.Name = "changed"
	if s.Current().Name != "Ada" {
		t.Fatal("Current leaked internal state")
	}

	s.Clear()
	if s.Current() != nil {
		t.Fatal("expected nil after Clear")
	}
}
