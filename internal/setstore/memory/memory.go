// Package memory is the single-instance set store. It is not shared across
// processes and exists for single-node deployments and tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Store keeps every set in a process-local map.
type Store struct {
	mu     sync.RWMutex
	sets   map[string]map[string]struct{}
	leases map[string]time.Time
	now    func() time.Time
}

// New creates an empty in-memory set store.
func New() *Store {
	return &Store{
		sets:   make(map[string]map[string]struct{}),
		leases: make(map[string]time.Time),
		now:    time.Now,
	}
}

// AddToSet inserts member, creating the set lazily.
func (s *Store) AddToSet(_ context.Context, key, member string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, ok := s.sets[key]
	if !ok {
		set = make(map[string]struct{})
		s.sets[key] = set
	}
	if _, exists := set[member]; exists {
		return false, nil
	}
	set[member] = struct{}{}
	return true, nil
}

// RemoveFromSet deletes member and drops the set once it is empty.
func (s *Store) RemoveFromSet(_ context.Context, key, member string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, ok := s.sets[key]
	if !ok {
		return false, nil
	}
	if _, exists := set[member]; !exists {
		return false, nil
	}
	delete(set, member)
	if len(set) == 0 {
		delete(s.sets, key)
	}
	return true, nil
}

// MembersOf returns a sorted snapshot of the set.
func (s *Store) MembersOf(_ context.Context, key string) ([]string, error) {
	s.mu.RLock()
	set := s.sets[key]
	members := make([]string, 0, len(set))
	for m := range set {
		members = append(members, m)
	}
	s.mu.RUnlock()

	sort.Strings(members)
	return members, nil
}

// Cardinality returns the number of members at key.
func (s *Store) Cardinality(_ context.Context, key string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sets[key]), nil
}

// Renew extends the lease at key to ttl from now.
func (s *Store) Renew(_ context.Context, key string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.leases[key] = s.now().Add(ttl)
	return nil
}

// Held reports whether the lease at key is still running. Expired leases are dropped.
func (s *Store) Held(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	until, ok := s.leases[key]
	if !ok {
		return false, nil
	}
	if !s.now().Before(until) {
		delete(s.leases, key)
		return false, nil
	}
	return true, nil
}

// Keys reports how many sets currently exist. Used by tests to check that
// empty sets are not left behind.
func (s *Store) Keys() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sets)
}

// Close is a no-op.
func (s *Store) Close() error {
	return nil
}
