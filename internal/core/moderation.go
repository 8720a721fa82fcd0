package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/vovakirdan/wirechat-presence/internal/presence"
	"github.com/vovakirdan/wirechat-presence/internal/store"
)

const (
	noticeDeletedByModerator = "Deleted by moderator"
	noticeBanned             = "User banned"
	noticeYouWereBanned      = "You were banned from this room"
	noticeReportFiled        = "Report submitted"
)

// requireRole checks that client holds at least min.
func (h *Hub) requireRole(ctx context.Context, client *Client, min store.Role) error {
	if h.auth == nil {
		return ErrUnauthorized
	}
	role, err := h.auth.RoleOf(ctx, client.Identity)
	if err != nil {
		return fmt.Errorf("%w: role lookup: %v", ErrUnauthorized, err)
	}
	if !role.AtLeast(min) {
		return ErrUnauthorized
	}
	return nil
}

// DeleteMessage removes a message from room. The author may delete their own
// message; anyone else needs the moderator role. The roster and the
// requester's connections get a retraction, and when a moderator removed
// someone else's message every connection of the author is told directly.
func (h *Hub) DeleteMessage(ctx context.Context, client *Client, room presence.RoomKey, id int64) error {
	msg, err := h.messages.GetMessage(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrMessageNotFound
		}
		return fmt.Errorf("%w: load message: %v", ErrPersistence, err)
	}
	if msg.Room != room {
		return ErrMessageNotFound
	}

	own := msg.Sender == client.Identity
	if !own {
		if err := h.requireRole(ctx, client, store.RoleModerator); err != nil {
			return err
		}
	}

	if err := h.messages.DeleteMessage(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrMessageNotFound
		}
		return fmt.Errorf("%w: delete message: %v", ErrPersistence, err)
	}

	deleted := &Event{Kind: EventMessageDeleted, Room: room, MessageID: id}
	reached := h.broadcast(ctx, room, deleted, "")
	h.pushToIdentity(ctx, client.Identity, deleted, reached)

	if !own {
		h.pushToIdentity(ctx, msg.Sender, &Event{
			Kind:      EventMessageDeletedForSender,
			Room:      room,
			MessageID: id,
			Text:      noticeDeletedByModerator,
		}, nil)
	}

	h.log.Info().
		Str("room", room.String()).
		Int64("message_id", id).
		Str("identity", client.Identity.String()).
		Bool("own", own).
		Msg("message deleted")
	return nil
}

// BanMember bans target from room, removes it from the roster and durable
// membership, and tells both the room and the target.
func (h *Hub) BanMember(ctx context.Context, client *Client, room presence.RoomKey, target presence.Identity) error {
	if err := h.requireRole(ctx, client, store.RoleModerator); err != nil {
		return err
	}
	if target == "" || target == client.Identity {
		return ErrBadRequest
	}
	if _, err := h.resolveRoom(ctx, room); err != nil {
		return err
	}

	if err := h.rooms.BanIdentity(ctx, room, target, client.Identity); err != nil {
		return fmt.Errorf("%w: ban: %v", ErrPersistence, err)
	}
	if err := h.rooms.RemoveMember(ctx, room, target); err != nil {
		h.log.Error().Err(err).Str("room", room.String()).Str("identity", target.String()).Msg("drop membership of banned identity")
	}

	conns, err := h.registry.ConnsIn(ctx, room, target)
	if err != nil {
		h.log.Warn().Err(err).Str("identity", target.String()).Msg("connections of banned identity")
	}
	for _, c := range conns {
		if _, err := h.registry.DetachConn(ctx, room, target, c); err != nil {
			h.log.Warn().Err(err).Str("conn_id", string(c)).Msg("detach banned connection")
		}
	}
	if _, err := h.registry.Leave(ctx, room, target); err != nil {
		h.log.Warn().Err(err).Str("identity", target.String()).Msg("registry leave of banned identity")
	}

	h.broadcast(ctx, room, noticeEvent(room, noticeBanned), "")
	h.pushToIdentity(ctx, target, noticeEvent(room, noticeYouWereBanned), nil)
	h.broadcastPresence(ctx, room)

	h.log.Info().Str("room", room.String()).Str("identity", target.String()).Str("by", client.Identity.String()).Msg("identity banned")
	return nil
}

// ToggleSlowMode flips slow mode of room and returns the new state.
func (h *Hub) ToggleSlowMode(ctx context.Context, client *Client, room presence.RoomKey) (bool, error) {
	if err := h.requireRole(ctx, client, store.RoleModerator); err != nil {
		return false, err
	}
	enabled, err := h.rooms.ToggleSlowMode(ctx, room)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, ErrRoomNotFound
		}
		return false, fmt.Errorf("%w: toggle slow mode: %v", ErrPersistence, err)
	}

	h.broadcast(ctx, room, &Event{Kind: EventSlowModeChanged, Room: room, Enabled: enabled}, "")
	state := "disabled"
	if enabled {
		state = "enabled"
	}
	h.push(ctx, client.ID, noticeEvent(room, "Slow mode "+state))

	h.log.Info().Str("room", room.String()).Bool("enabled", enabled).Msg("slow mode toggled")
	return enabled, nil
}

// PurgeHistory deletes room messages inside the history window.
func (h *Hub) PurgeHistory(ctx context.Context, client *Client, room presence.RoomKey) error {
	if err := h.requireRole(ctx, client, store.RoleModerator); err != nil {
		return err
	}
	n, err := h.messages.PurgeRoom(ctx, room, h.now().Add(-h.opts.HistoryWindow))
	if err != nil {
		return fmt.Errorf("%w: purge: %v", ErrPersistence, err)
	}

	h.broadcast(ctx, room, &Event{Kind: EventHistoryCleared, Room: room}, "")
	h.push(ctx, client.ID, noticeEvent(room, fmt.Sprintf("Cleared %d messages", n)))

	h.log.Info().Str("room", room.String()).Int64("purged", n).Msg("history purged")
	return nil
}

// ReportMessage files a moderation report. Only present members may report.
func (h *Hub) ReportMessage(ctx context.Context, client *Client, room presence.RoomKey, id int64) error {
	present, err := h.registry.IsPresent(ctx, room, client.Identity)
	if err != nil {
		return err
	}
	if !present {
		return ErrNotAMember
	}

	msg, err := h.messages.GetMessage(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrMessageNotFound
		}
		return fmt.Errorf("%w: load message: %v", ErrPersistence, err)
	}
	if msg.Room != room {
		return ErrMessageNotFound
	}

	report := &store.Report{Room: room, MessageID: id, ReportedBy: client.Identity, CreatedAt: h.now()}
	if err := h.reports.CreateReport(ctx, report); err != nil {
		return fmt.Errorf("%w: create report: %v", ErrPersistence, err)
	}
	h.push(ctx, client.ID, noticeEvent(room, noticeReportFiled))

	h.log.Info().Str("room", room.String()).Int64("message_id", id).Int64("report_id", report.ID).Msg("message reported")
	return nil
}
