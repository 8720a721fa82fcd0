package presence

import (
	"context"
	"fmt"
	"time"

	"github.com/vovakirdan/wirechat-presence/internal/setstore"
)

// Instances tracks which server processes are alive. Each instance renews a
// lease; connection ids owned by an instance whose lease lapsed are stale.
type Instances struct {
	sets setstore.Store
	ttl  time.Duration
}

// NewInstances builds an instance tracker whose leases last ttl.
func NewInstances(sets setstore.Store, ttl time.Duration) *Instances {
	return &Instances{sets: sets, ttl: ttl}
}

// Beat renews the lease of instance.
func (i *Instances) Beat(ctx context.Context, instance string) error {
	if err := i.sets.Renew(ctx, instanceKey(instance), i.ttl); err != nil {
		return fmt.Errorf("heartbeat %s: %w", instance, err)
	}
	return nil
}

// Alive reports whether instance holds a running lease. Connections without
// an instance prefix are never considered stale.
func (i *Instances) Alive(ctx context.Context, instance string) (bool, error) {
	if instance == "" {
		return true, nil
	}
	held, err := i.sets.Held(ctx, instanceKey(instance))
	if err != nil {
		return false, fmt.Errorf("liveness of %s: %w", instance, err)
	}
	return held, nil
}
