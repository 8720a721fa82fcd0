// Package setstore defines the key/set storage contract shared by the presence
// directory and the membership registry.
package setstore

import (
	"context"
	"errors"
	"time"
)

// ErrUnavailable is returned when the backing store cannot be reached.
// Callers treat it as non-fatal and degrade to "likely offline".
var ErrUnavailable = errors.New("storage unavailable")

// Store is a set-of-strings keyed store with expiring leases. All operations
// are idempotent.
type Store interface {
	// AddToSet inserts member into the set at key. Reports whether the set changed.
	AddToSet(ctx context.Context, key, member string) (bool, error)

	// RemoveFromSet deletes member from the set at key. Reports whether the set changed.
	RemoveFromSet(ctx context.Context, key, member string) (bool, error)

	// MembersOf returns the members of the set at key, sorted ascending.
	// A missing key is an empty set.
	MembersOf(ctx context.Context, key string) ([]string, error)

	// Cardinality returns the size of the set at key.
	Cardinality(ctx context.Context, key string) (int, error)

	// Renew holds key for ttl from now, creating it when missing.
	Renew(ctx context.Context, key string, ttl time.Duration) error

	// Held reports whether key was renewed and has not expired since.
	Held(ctx context.Context, key string) (bool, error)

	// Close releases backend resources.
	Close() error
}
