// Package ratelimit provides per-key cooldown limiters for slow mode.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Memory is a single-instance cooldown limiter.
type Memory struct {
	mu   sync.Mutex
	next map[string]time.Time
	now  func() time.Time
}

// NewMemory creates an in-process limiter.
func NewMemory() *Memory {
	return &Memory{
		next: make(map[string]time.Time),
		now:  time.Now,
	}
}

// Allow reports whether key may act now. An allowed call starts a new
// cooldown of interval for key.
func (m *Memory) Allow(_ context.Context, key string, interval time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if until, ok := m.next[key]; ok && now.Before(until) {
		return false, nil
	}
	m.next[key] = now.Add(interval)

	// Keep the map from growing without bound.
	if len(m.next) > 4096 {
		for k, until := range m.next {
			if !now.Before(until) {
				delete(m.next, k)
			}
		}
	}
	return true, nil
}
