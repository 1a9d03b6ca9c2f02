package session

import (
	"sync"
)

// Store owns the one SessionState for the process. All reads and writes go
// through the store's mutex; callers only ever see copies, so a concurrent
// Snapshot can never observe a half-applied mutation.
type Store struct {
	mu    sync.Mutex
	state SessionState
}

func NewStore() *Store {
	return &Store{
		state: SessionState{Status: Idle},
	}
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() *SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Mutate applies fn to the state under the lock and returns the resulting
// snapshot. fn must not block; the lock is never held across script launches
// or file I/O.
func (s *Store) Mutate(fn func(*SessionState)) *SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.state)
	return s.state.Clone()
}

// TryMutate is Mutate with an abort path: if fn returns false the state is
// left untouched and ok is false. The check and the mutation happen under a
// single lock acquisition, so no concurrent caller can interleave between
// them. fn must not modify the state on the abort path.
func (s *Store) TryMutate(fn func(*SessionState) bool) (snap *SessionState, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ok = fn(&s.state)
	return s.state.Clone(), ok
}

// SetError records an error annotation without touching the lifecycle
// status. Used for failures noticed outside a transition, like the asset
// file going missing on disk or a mapped script not being found.
func (s *Store) SetError(msg string) *SessionState {
	return s.Mutate(func(st *SessionState) {
		st.Error = msg
	})
}
