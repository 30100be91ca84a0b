package authgate

import "sync"

// authState is the multi-fire event source behind OnAuthStateResolved. It
// tracks whether the initial resolution happened so late subscribers still
// get exactly one immediate callback with the current snapshot.
type authState struct {
	mu        sync.Mutex
	resolved  bool
	current   *Account
	nextID    int
	listeners map[int]func(*Account)
}

func newAuthState() *authState {
	return &authState{listeners: map[int]func(*Account){}}
}

func (s *authState) snapshot() *Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// resolve records the new state and notifies every listener. Callbacks run
// outside the lock so a listener may unsubscribe from within itself.
func (s *authState) resolve(acc *Account) {
	s.mu.Lock()
	s.resolved = true
	s.current = acc
	fns := make([]func(*Account), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(acc)
	}
}

// subscribe registers fn and returns an idempotent unsubscribe. If the state
// is already resolved, fn fires asynchronously with the snapshot.
func (s *authState) subscribe(fn func(*Account)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	resolved, current := s.resolved, s.current
	s.mu.Unlock()

	if resolved {
		go fn(current)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}
