package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/samber/lo"

	"github.com/vovakirdan/wirechat-presence/internal/presence"
	"github.com/vovakirdan/wirechat-presence/internal/store"
)

const (
	noticeJoined = "A user joined"
	noticeLeft   = "A user left"
)

// Connect registers a new connection and announces it in the identity directory.
// Directory failures are logged; the connection keeps working.
func (h *Hub) Connect(ctx context.Context, client *Client) {
	h.conns.Register(client)
	if err := h.directory.Attach(ctx, client.Identity, client.ID); err != nil {
		h.log.Warn().Err(err).Str("conn_id", string(client.ID)).Str("identity", client.Identity.String()).Msg("attach connection")
	}
	h.log.Debug().Str("conn_id", string(client.ID)).Str("identity", client.Identity.String()).Msg("connection registered")
}

// Disconnect tears a connection down. Rooms where it was the identity's last
// connection are left; when the identity went offline every room it occupied
// is left and its reverse index is cleared. Durable membership is kept so
// later messages queue as pending.
func (h *Hub) Disconnect(ctx context.Context, client *Client) {
	h.conns.Unregister(client.ID)
	id := client.Identity

	rooms, err := h.registry.RoomsOf(ctx, id)
	if err != nil {
		h.log.Warn().Err(err).Str("identity", id.String()).Msg("rooms unavailable on disconnect")
	}

	offline, err := h.directory.Detach(ctx, id, client.ID)
	if err != nil {
		h.log.Warn().Err(err).Str("identity", id.String()).Msg("detach failed, assuming offline")
		offline = true
	}

	for _, room := range rooms {
		last, err := h.registry.DetachConn(ctx, room, id, client.ID)
		if err != nil {
			h.log.Warn().Err(err).Str("room", room.String()).Msg("detach room connection")
		}
		if last || offline {
			h.leavePresence(ctx, room, id)
		}
	}

	if offline {
		if err := h.registry.ClearRooms(ctx, id); err != nil {
			h.log.Warn().Err(err).Str("identity", id.String()).Msg("clear reverse index")
		}
	}
	h.log.Debug().Str("conn_id", string(client.ID)).Str("identity", id.String()).Bool("offline", offline).Msg("connection closed")
}

// Join makes the connection present in room. When the identity was not on the
// roster yet the room is notified; the atomic roster add decides this, so
// concurrent joins from several tabs announce it exactly once. Pending messages and recent
// history are then replayed to the connection, even on a repeated join.
func (h *Hub) Join(ctx context.Context, client *Client, room presence.RoomKey) error {
	id := client.Identity
	if _, err := h.resolveRoom(ctx, room); err != nil {
		return err
	}

	banned, err := h.rooms.IsBanned(ctx, room, id)
	if err != nil {
		return fmt.Errorf("%w: check ban: %v", ErrPersistence, err)
	}
	if banned {
		return ErrBanned
	}

	if err := h.directory.Attach(ctx, id, client.ID); err != nil {
		h.log.Warn().Err(err).Str("identity", id.String()).Msg("attach connection")
	}
	// Room connection before roster entry: Sweep drops roster entries without one.
	if err := h.registry.AttachConn(ctx, room, id, client.ID); err != nil {
		h.log.Warn().Err(err).Str("room", room.String()).Str("identity", id.String()).Msg("attach room connection")
	}
	wasMember, err := h.registry.Join(ctx, room, id)
	if err != nil {
		h.log.Warn().Err(err).Str("room", room.String()).Str("identity", id.String()).Msg("registry join")
	}
	first := !wasMember
	if err := h.rooms.AddMember(ctx, room, id); err != nil {
		h.log.Error().Err(err).Str("room", room.String()).Str("identity", id.String()).Msg("record membership")
	}

	if first {
		h.broadcast(ctx, room, noticeEvent(room, noticeJoined), id)
		h.broadcastPresence(ctx, room)
	}

	stats, err := h.pipeline.Replay(ctx, room, id, client.ID)
	if err != nil {
		h.log.Warn().Err(err).Str("room", room.String()).Str("conn_id", string(client.ID)).Msg("replay interrupted")
	}
	h.log.Debug().
		Str("room", room.String()).
		Str("identity", id.String()).
		Bool("first", first).
		Int("pending", stats.Pending).
		Int("history", stats.History).
		Msg("joined room")

	h.push(ctx, client.ID, &Event{Kind: EventJoinAcknowledged, Room: room, Identity: id})
	return nil
}

// Leave removes the connection from room. The identity leaves the room once
// its last connection there is gone.
func (h *Hub) Leave(ctx context.Context, client *Client, room presence.RoomKey) error {
	id := client.Identity
	conns, err := h.registry.ConnsIn(ctx, room, id)
	if err != nil {
		return err
	}
	if !lo.Contains(conns, client.ID) {
		return ErrNotAMember
	}

	last, err := h.registry.DetachConn(ctx, room, id, client.ID)
	if err != nil {
		return err
	}
	if !last {
		return nil
	}

	if err := h.rooms.RemoveMember(ctx, room, id); err != nil {
		h.log.Error().Err(err).Str("room", room.String()).Str("identity", id.String()).Msg("drop membership")
	}
	h.leavePresence(ctx, room, id)
	return nil
}

// leavePresence takes id off the roster and tells the room when it was there.
func (h *Hub) leavePresence(ctx context.Context, room presence.RoomKey, id presence.Identity) {
	wasMember, err := h.registry.Leave(ctx, room, id)
	if err != nil {
		h.log.Warn().Err(err).Str("room", room.String()).Str("identity", id.String()).Msg("registry leave")
	}
	if !wasMember {
		return
	}
	h.broadcast(ctx, room, noticeEvent(room, noticeLeft), id)
	h.broadcastPresence(ctx, room)
}

// resolveRoom asks the room directory for room, creating it when allowed.
func (h *Hub) resolveRoom(ctx context.Context, key presence.RoomKey) (*store.Room, error) {
	var (
		room    *store.Room
		created bool
		err     error
	)
	if h.opts.AutoCreateRooms {
		room, created, err = h.rooms.GetOrCreateRoom(ctx, key)
	} else {
		room, err = h.rooms.GetRoom(ctx, key)
	}
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, fmt.Errorf("%w: resolve room: %v", ErrPersistence, err)
	}
	if !room.Active {
		return nil, ErrRoomNotFound
	}
	if created {
		h.log.Info().Str("room", key.String()).Str("name", room.DisplayName).Msg("room created")
	}
	return room, nil
}
