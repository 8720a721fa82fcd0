package presence

import (
	"context"
	"strings"
	"time"

	"github.com/vovakirdan/wirechat-presence/internal/setstore"
)

var errUnavailable = setstore.ErrUnavailable

// failingStore wraps a store and fails writes to keys containing failOn.
type failingStore struct {
	setstore.Store
	failOn  string
	failAll bool
}

func (f *failingStore) fails(key string) bool {
	return f.failAll || (f.failOn != "" && strings.Contains(key, f.failOn))
}

func (f *failingStore) AddToSet(ctx context.Context, key, member string) (bool, error) {
	if f.fails(key) {
		return false, errUnavailable
	}
	return f.Store.AddToSet(ctx, key, member)
}

func (f *failingStore) RemoveFromSet(ctx context.Context, key, member string) (bool, error) {
	if f.fails(key) {
		return false, errUnavailable
	}
	return f.Store.RemoveFromSet(ctx, key, member)
}

func (f *failingStore) MembersOf(ctx context.Context, key string) ([]string, error) {
	if f.failAll {
		return nil, errUnavailable
	}
	return f.Store.MembersOf(ctx, key)
}

func (f *failingStore) Cardinality(ctx context.Context, key string) (int, error) {
	if f.failAll {
		return 0, errUnavailable
	}
	return f.Store.Cardinality(ctx, key)
}

// slowStore adds a fixed delay to every call, like a network round trip.
type slowStore struct {
	setstore.Store
	delay time.Duration
}

func (s *slowStore) AddToSet(ctx context.Context, key, member string) (bool, error) {
	time.Sleep(s.delay)
	return s.Store.AddToSet(ctx, key, member)
}

func (s *slowStore) Cardinality(ctx context.Context, key string) (int, error) {
	time.Sleep(s.delay)
	return s.Store.Cardinality(ctx, key)
}

func (f *failingStore) Held(ctx context.Context, key string) (bool, error) {
	if f.fails(key) {
		return false, errUnavailable
	}
	return f.Store.Held(ctx, key)
}
