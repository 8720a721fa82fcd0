package presence

import (
	"context"
	"fmt"

	"github.com/samber/lo"

	"github.com/vovakirdan/wirechat-presence/internal/setstore"
)

// Directory maps an identity to the set of live connections representing it.
// An identity is online iff that set is non-empty.
type Directory struct {
	sets setstore.Store
}

// NewDirectory builds an identity directory on the given set store.
func NewDirectory(sets setstore.Store) *Directory {
	return &Directory{sets: sets}
}

// Attach registers conn for id. Attaching the same connection twice is a no-op.
func (d *Directory) Attach(ctx context.Context, id Identity, conn ConnID) error {
	if _, err := d.sets.AddToSet(ctx, connsKey(id), string(conn)); err != nil {
		return fmt.Errorf("attach %s: %w", id, err)
	}
	return nil
}

// Detach removes conn and reports whether id has no connections left.
func (d *Directory) Detach(ctx context.Context, id Identity, conn ConnID) (bool, error) {
	if _, err := d.sets.RemoveFromSet(ctx, connsKey(id), string(conn)); err != nil {
		return false, fmt.Errorf("detach %s: %w", id, err)
	}
	n, err := d.sets.Cardinality(ctx, connsKey(id))
	if err != nil {
		return false, fmt.Errorf("count connections of %s: %w", id, err)
	}
	return n == 0, nil
}

// ConnectionsOf returns the live connections of id, sorted. The first entry is
// the representative connection used when delivering to other identities.
func (d *Directory) ConnectionsOf(ctx context.Context, id Identity) ([]ConnID, error) {
	members, err := d.sets.MembersOf(ctx, connsKey(id))
	if err != nil {
		return nil, fmt.Errorf("connections of %s: %w", id, err)
	}
	return lo.Map(members, func(m string, _ int) ConnID { return ConnID(m) }), nil
}

// IsOnline reports whether id has at least one live connection.
func (d *Directory) IsOnline(ctx context.Context, id Identity) (bool, error) {
	n, err := d.sets.Cardinality(ctx, connsKey(id))
	if err != nil {
		return false, fmt.Errorf("online %s: %w", id, err)
	}
	return n > 0, nil
}

// Prune removes the connections of id for which stale returns true and
// returns the removed ones.
func (d *Directory) Prune(ctx context.Context, id Identity, stale func(ConnID) bool) ([]ConnID, error) {
	conns, err := d.ConnectionsOf(ctx, id)
	if err != nil {
		return nil, err
	}
	var pruned []ConnID
	for _, c := range conns {
		if !stale(c) {
			continue
		}
		if _, err := d.sets.RemoveFromSet(ctx, connsKey(id), string(c)); err != nil {
			return pruned, fmt.Errorf("prune %s of %s: %w", c, id, err)
		}
		pruned = append(pruned, c)
	}
	return pruned, nil
}
