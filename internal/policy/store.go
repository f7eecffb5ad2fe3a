package policy

import (
	"errors"
	"sync"
)

// ErrNilSnapshot indicates an attempt to publish an empty snapshot.
var ErrNilSnapshot = errors.New("policy snapshot must not be nil")

// Store publishes the current policy snapshot to concurrent readers.
type Store struct {
	mu      sync.RWMutex
	current *Snapshot
}

// NewStore initialises a store with the provided snapshot.
func NewStore(initial *Snapshot) (*Store, error) {
	if initial == nil {
		return nil, ErrNilSnapshot
	}
	return &Store{current: initial}, nil
}

// Current returns the snapshot in effect. Callers must treat it as read-only.
func (s *Store) Current() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.current
}

// Swap publishes next and returns the snapshot it replaced.
func (s *Store) Swap(next *Snapshot) (*Snapshot, error) {
	if next == nil {
		return nil, ErrNilSnapshot
	}

	s.mu.Lock()
	prev := s.current
	s.current = next
	s.mu.Unlock()

	return prev, nil
}
