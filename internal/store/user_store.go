package store

import (
	"sync"

	"app/internal/model"
)

// UserStore mirrors the signed-in user's profile for the UI.
type UserStore struct {
	mu      sync.Mutex
	user    *model.User
	changes *notifier
}

func NewUserStore() *UserStore {
	return &UserStore{changes: newNotifier()}
}

// Set replaces the cached profile.
func (s *UserStore) Set(user *model.User) {
	s.mu.Lock()
	s.user = user
	s.mu.Unlock()
	s.changes.notify()
}

// Clear drops the cached profile on sign-out.
func (s *UserStore) Clear() {
	s.Set(nil)
}

// Current returns a copy of the cached profile, or nil when signed out.
func (s *UserStore) Current() *model.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// Subscribe reports profile changes for reactive rendering.
func (s *UserStore) Subscribe() (<-chan struct{}, func()) {
	return s.changes.Subscribe()
}
