package norms

import "sync/atomic"

// Store publishes the current snapshot. Readers never block writers.
type Store struct {
	current atomic.Pointer[Snapshot]
}

// NewStore creates a store holding initial, or an empty snapshot if nil
func NewStore(initial *Snapshot) *Store {
	s := &Store{}
	if initial == nil {
		initial = Empty()
	}
	s.current.Store(initial)
	return s
}

// Current returns the snapshot in effect
func (s *Store) Current() *Snapshot {
	return s.current.Load()
}

// Swap installs next and returns the previous snapshot. A nil next is ignored.
func (s *Store) Swap(next *Snapshot) *Snapshot {
	if next == nil {
		return s.Current()
	}
	return s.current.Swap(next)
}
