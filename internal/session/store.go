// Package session provides a transient, in-memory, per-user store for
// short-lived workflow state. The only current use is the diary
// delete-selection workflow: stage entry ids, confirm, delete. Entries
// expire after a TTL so abandoned selections do not accumulate. Nothing
// here survives a restart; that is the contract.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

type entry struct {
	ids     []uuid.UUID
	expires time.Time
}

// Store is a TTL-bounded map of user id -> staged diary entry ids.
// Safe for concurrent use.
type Store struct {
	mu      sync.Mutex
	entries map[uuid.UUID]entry
	ttl     time.Duration
	now     func() time.Time
}

func NewStore(ttl time.Duration) *Store {
	return &Store{
		entries: make(map[uuid.UUID]entry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Put replaces the user's staged selection.
func (s *Store) Put(userID uuid.UUID, ids []uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[userID] = entry{ids: ids, expires: s.now().Add(s.ttl)}
}

// Get returns the user's staged selection, or nil if none exists or it
// has expired.
func (s *Store) Get(userID uuid.UUID) []uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[userID]
	if !ok {
		return nil
	}
	if s.now().After(e.expires) {
		delete(s.entries, userID)
		return nil
	}
	return e.ids
}

// Pop returns and clears the user's staged selection.
func (s *Store) Pop(userID uuid.UUID) []uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[userID]
	if !ok {
		return nil
	}
	delete(s.entries, userID)
	if s.now().After(e.expires) {
		return nil
	}
	return e.ids
}

// Clear drops the user's staged selection if present.
func (s *Store) Clear(userID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, userID)
}
