package core

import (
	"context"
	"time"

	"github.com/vovakirdan/wirechat-presence/internal/presence"
	"github.com/vovakirdan/wirechat-presence/internal/utils"
)

// Heartbeat renews this instance's lease. Other instances treat connections
// of an instance without a lease as stale.
func (h *Hub) Heartbeat(ctx context.Context) error {
	if h.instance == "" {
		return nil
	}
	return h.instances.Beat(ctx, h.instance)
}

// Sweep repairs the presence state of every known room and returns the number
// of entries fixed. Connections owned by instances whose lease lapsed are
// removed from the directory and the rooms; roster entries left without a
// connection in the room are then dropped.
func (h *Hub) Sweep(ctx context.Context) (int, error) {
	rooms, err := h.rooms.ListRoomKeys(ctx)
	if err != nil {
		return 0, err
	}

	stale := h.staleConns(ctx)
	checked := make(map[presence.Identity]bool)

	total := 0
	for _, room := range rooms {
		healed := h.pruneRoom(ctx, room, stale, checked)
		n, err := h.registry.Reconcile(ctx, room, func(ctx context.Context, id presence.Identity) (bool, error) {
			conns, err := h.registry.ConnsIn(ctx, room, id)
			return len(conns) > 0, err
		})
		healed += n
		total += healed
		if err != nil {
			h.log.Warn().Err(err).Str("room", room.String()).Msg("reconcile room")
			continue
		}
		if healed > 0 {
			h.broadcastPresence(ctx, room)
		}
	}
	return total, nil
}

// staleConns returns a predicate reporting connections whose instance has no
// running lease. Liveness is looked up once per instance; a failed lookup
// keeps the connection.
func (h *Hub) staleConns(ctx context.Context) func(presence.ConnID) bool {
	alive := make(map[string]bool)
	return func(conn presence.ConnID) bool {
		instance := utils.InstanceOf(conn)
		if instance == "" || instance == h.instance {
			return false
		}
		ok, seen := alive[instance]
		if !seen {
			var err error
			ok, err = h.instances.Alive(ctx, instance)
			if err != nil {
				h.log.Warn().Err(err).Str("instance", instance).Msg("instance liveness unknown")
				ok = true
			}
			alive[instance] = ok
		}
		return !ok
	}
}

// pruneRoom drops stale connections of every roster member from the room and,
// once per identity, from the directory.
func (h *Hub) pruneRoom(ctx context.Context, room presence.RoomKey, stale func(presence.ConnID) bool, checked map[presence.Identity]bool) int {
	roster, err := h.registry.Roster(ctx, room)
	if err != nil {
		h.log.Warn().Err(err).Str("room", room.String()).Msg("prune: roster unavailable")
		return 0
	}

	healed := 0
	for _, id := range roster {
		if !checked[id] {
			checked[id] = true
			pruned, err := h.directory.Prune(ctx, id, stale)
			if err != nil {
				h.log.Warn().Err(err).Str("identity", id.String()).Msg("prune directory")
			}
			healed += len(pruned)
		}
		pruned, err := h.registry.PruneConns(ctx, room, id, stale)
		if err != nil {
			h.log.Warn().Err(err).Str("room", room.String()).Str("identity", id.String()).Msg("prune room connections")
		}
		healed += len(pruned)
		for _, c := range pruned {
			h.log.Info().Str("room", room.String()).Str("conn_id", string(c)).Msg("dropped connection of dead instance")
		}
	}
	return healed
}

// Run keeps this instance's lease alive and sweeps on every tick until ctx
// is cancelled.
func (h *Hub) Run(ctx context.Context) error {
	if err := h.Heartbeat(ctx); err != nil {
		h.log.Warn().Err(err).Msg("instance heartbeat")
	}

	beat := time.NewTicker(h.opts.InstanceTTL / 3)
	defer beat.Stop()
	sweep := time.NewTicker(h.opts.SweepInterval)
	defer sweep.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-beat.C:
			if err := h.Heartbeat(ctx); err != nil {
				h.log.Warn().Err(err).Msg("instance heartbeat")
			}
		case <-sweep.C:
			n, err := h.Sweep(ctx)
			if err != nil {
				h.log.Warn().Err(err).Msg("presence sweep")
				continue
			}
			if n > 0 {
				h.log.Info().Int("healed", n).Msg("presence sweep repaired entries")
			}
		}
	}
}
