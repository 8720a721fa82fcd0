package presence

import (
	"context"
	"errors"
	"fmt"

	"github.com/samber/lo"

	"github.com/vovakirdan/wirechat-presence/internal/setstore"
)

// Registry maps rooms to the identities present in them and back.
//
// Join and Leave are two independent set mutations (roster, then reverse
// index). There is no cross-key atomicity: a store failure between them can
// leave an identity in a roster without the room in its reverse index, or the
// other way round. The next join/leave cycle or Reconcile repairs it.
type Registry struct {
	sets setstore.Store
}

// NewRegistry builds a membership registry on the given set store.
func NewRegistry(sets setstore.Store) *Registry {
	return &Registry{sets: sets}
}

// Join adds id to the room roster and the room to id's reverse index.
func (r *Registry) Join(ctx context.Context, room RoomKey, id Identity) (bool, error) {
	added, err := r.sets.AddToSet(ctx, rosterKey(room), string(id))
	if err != nil {
		return false, fmt.Errorf("join %s roster: %w", room, err)
	}
	if _, err := r.sets.AddToSet(ctx, roomsKey(id), string(room)); err != nil {
		return !added, fmt.Errorf("join %s reverse index: %w", room, err)
	}
	return !added, nil
}

// Leave removes id from the roster and the room from id's reverse index.
// The returned flag reflects the roster.
func (r *Registry) Leave(ctx context.Context, room RoomKey, id Identity) (bool, error) {
	removed, err := r.sets.RemoveFromSet(ctx, rosterKey(room), string(id))
	if err != nil {
		return false, fmt.Errorf("leave %s roster: %w", room, err)
	}
	if _, err := r.sets.RemoveFromSet(ctx, roomsKey(id), string(room)); err != nil {
		return removed, fmt.Errorf("leave %s reverse index: %w", room, err)
	}
	return removed, nil
}

// Roster returns the identities present in room.
func (r *Registry) Roster(ctx context.Context, room RoomKey) ([]Identity, error) {
	members, err := r.sets.MembersOf(ctx, rosterKey(room))
	if err != nil {
		return nil, fmt.Errorf("roster %s: %w", room, err)
	}
	return lo.Map(members, func(m string, _ int) Identity { return Identity(m) }), nil
}

// OnlineCount is the cardinality of the roster.
func (r *Registry) OnlineCount(ctx context.Context, room RoomKey) (int, error) {
	n, err := r.sets.Cardinality(ctx, rosterKey(room))
	if err != nil {
		return 0, fmt.Errorf("online count %s: %w", room, err)
	}
	return n, nil
}

// IsPresent reports whether id is on the room roster.
func (r *Registry) IsPresent(ctx context.Context, room RoomKey, id Identity) (bool, error) {
	roster, err := r.Roster(ctx, room)
	if err != nil {
		return false, err
	}
	return lo.Contains(roster, id), nil
}

// RoomsOf returns the rooms id currently occupies.
func (r *Registry) RoomsOf(ctx context.Context, id Identity) ([]RoomKey, error) {
	members, err := r.sets.MembersOf(ctx, roomsKey(id))
	if err != nil {
		return nil, fmt.Errorf("rooms of %s: %w", id, err)
	}
	return lo.Map(members, func(m string, _ int) RoomKey { return RoomKey(m) }), nil
}

// AttachConn records that conn of id joined room. Whether the identity is new
// to the room is decided by Join, whose roster add is a single atomic step.
func (r *Registry) AttachConn(ctx context.Context, room RoomKey, id Identity, conn ConnID) error {
	if _, err := r.sets.AddToSet(ctx, roomConnsKey(room, id), string(conn)); err != nil {
		return fmt.Errorf("attach %s to %s: %w", conn, room, err)
	}
	return nil
}

// DetachConn removes conn of id from room. Reports whether that was the
// identity's last connection inside the room.
func (r *Registry) DetachConn(ctx context.Context, room RoomKey, id Identity, conn ConnID) (bool, error) {
	key := roomConnsKey(room, id)
	removed, err := r.sets.RemoveFromSet(ctx, key, string(conn))
	if err != nil {
		return false, fmt.Errorf("detach %s from %s: %w", conn, room, err)
	}
	n, err := r.sets.Cardinality(ctx, key)
	if err != nil {
		return false, fmt.Errorf("count %s connections in %s: %w", id, room, err)
	}
	return removed && n == 0, nil
}

// ConnsIn returns the connections of id that joined room.
func (r *Registry) ConnsIn(ctx context.Context, room RoomKey, id Identity) ([]ConnID, error) {
	members, err := r.sets.MembersOf(ctx, roomConnsKey(room, id))
	if err != nil {
		return nil, fmt.Errorf("connections of %s in %s: %w", id, room, err)
	}
	return lo.Map(members, func(m string, _ int) ConnID { return ConnID(m) }), nil
}

// PruneConns drops the connections of id in room for which stale returns
// true, and returns the dropped ones.
func (r *Registry) PruneConns(ctx context.Context, room RoomKey, id Identity, stale func(ConnID) bool) ([]ConnID, error) {
	conns, err := r.ConnsIn(ctx, room, id)
	if err != nil {
		return nil, err
	}
	var pruned []ConnID
	for _, c := range conns {
		if !stale(c) {
			continue
		}
		if _, err := r.sets.RemoveFromSet(ctx, roomConnsKey(room, id), string(c)); err != nil {
			return pruned, fmt.Errorf("prune %s from %s: %w", c, room, err)
		}
		pruned = append(pruned, c)
	}
	return pruned, nil
}

// ClearRooms empties id's reverse index and its per-room connection sets.
func (r *Registry) ClearRooms(ctx context.Context, id Identity) error {
	rooms, err := r.RoomsOf(ctx, id)
	if err != nil {
		return err
	}
	var errs []error
	for _, room := range rooms {
		if _, err := r.sets.RemoveFromSet(ctx, roomsKey(id), string(room)); err != nil {
			errs = append(errs, err)
		}
		if err := r.dropRoomConns(ctx, room, id); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (r *Registry) dropRoomConns(ctx context.Context, room RoomKey, id Identity) error {
	key := roomConnsKey(room, id)
	conns, err := r.sets.MembersOf(ctx, key)
	if err != nil {
		return err
	}
	for _, c := range conns {
		if _, err := r.sets.RemoveFromSet(ctx, key, c); err != nil {
			return err
		}
	}
	return nil
}

// Reconcile repairs one room: roster entries for which present reports false
// are dropped, and missing reverse-index entries are restored. Returns the number
// of entries fixed.
func (r *Registry) Reconcile(ctx context.Context, room RoomKey, present func(context.Context, Identity) (bool, error)) (int, error) {
	roster, err := r.Roster(ctx, room)
	if err != nil {
		return 0, err
	}

	healed := 0
	for _, id := range roster {
		ok, err := present(ctx, id)
		if err != nil {
			return healed, err
		}
		if !ok {
			if _, err := r.Leave(ctx, room, id); err != nil {
				return healed, err
			}
			if err := r.dropRoomConns(ctx, room, id); err != nil {
				return healed, err
			}
			healed++
			continue
		}
		added, err := r.sets.AddToSet(ctx, roomsKey(id), string(room))
		if err != nil {
			return healed, fmt.Errorf("restore reverse index of %s: %w", id, err)
		}
		if added {
			healed++
		}
	}
	return healed, nil
}
