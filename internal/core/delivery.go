package core

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/vovakirdan/wirechat-presence/internal/presence"
	"github.com/vovakirdan/wirechat-presence/internal/store"
)

// Pipeline persists chat messages, fans them out and replays them on join.
type Pipeline struct {
	registry *presence.Registry
	messages store.MessageStore
	rooms    RoomDirectory
	pusher   Pusher
	limiter  SlowModeLimiter
	opts     Options
	log      *zerolog.Logger
	now      func() time.Time
}

// ReplayStats counts what a replay pushed.
type ReplayStats struct {
	Pending int
	History int
}

type delivery struct {
	identity presence.Identity
	conn     presence.ConnID
}

// Send persists body as a message from sender and pushes it to the room.
// A whitespace-only body is a no-op and returns (nil, nil).
//
// Each other online member receives the message on its first connection in the
// room; members without a live connection get it queued as pending. The sender
// is always delivered and gets the echo on origin.
func (p *Pipeline) Send(ctx context.Context, room presence.RoomKey, sender presence.Identity, label string, origin presence.ConnID, body string) (*store.Message, error) {
	if strings.TrimSpace(body) == "" {
		return nil, nil
	}

	meta, err := p.rooms.GetRoom(ctx, room)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, fmt.Errorf("%w: load room: %v", ErrPersistence, err)
	}
	if !meta.Active {
		return nil, ErrRoomNotFound
	}

	degraded := false
	roster, err := p.registry.Roster(ctx, room)
	if err != nil {
		if !errors.Is(err, ErrStorageUnavailable) {
			return nil, err
		}
		p.log.Warn().Err(err).Str("room", room.String()).Msg("roster unavailable, queueing for everyone")
		degraded = true
	}
	members, err := p.rooms.ListMembers(ctx, room)
	if err != nil {
		return nil, fmt.Errorf("%w: list members: %v", ErrPersistence, err)
	}

	if degraded {
		if !lo.Contains(members, sender) {
			return nil, ErrNotAMember
		}
	} else if !lo.Contains(roster, sender) {
		return nil, ErrNotAMember
	}

	if meta.SlowMode && p.limiter != nil {
		ok, err := p.limiter.Allow(ctx, string(sender)+"@"+string(room), p.opts.SlowModeInterval)
		if err != nil {
			p.log.Warn().Err(err).Str("room", room.String()).Msg("slow mode limiter unavailable")
		} else if !ok {
			return nil, ErrSlowMode
		}
	}

	others := lo.Without(lo.Union(roster, members), sender)
	slices.Sort(others)

	var (
		deliveries []delivery
		pending    []presence.Identity
	)
	for _, id := range others {
		if degraded || !lo.Contains(roster, id) {
			pending = append(pending, id)
			continue
		}
		conns, err := p.registry.ConnsIn(ctx, room, id)
		if err != nil || len(conns) == 0 {
			if err != nil {
				p.log.Warn().Err(err).Str("identity", id.String()).Msg("lookup connections, assuming offline")
			}
			pending = append(pending, id)
			continue
		}
		deliveries = append(deliveries, delivery{identity: id, conn: conns[0]})
	}

	now := p.now()
	msg := &store.Message{
		Room:        room,
		Kind:        room.Kind(),
		Sender:      sender,
		SenderLabel: label,
		Body:        body,
		SentAt:      now,
		ExpiresAt:   now.Add(p.opts.MessageTTL),
		DeliveredTo: append([]presence.Identity{sender}, lo.Map(deliveries, func(d delivery, _ int) presence.Identity { return d.identity })...),
		PendingFor:  pending,
	}
	if err := p.messages.SaveMessage(ctx, msg); err != nil {
		p.log.Error().Err(err).Str("room", room.String()).Str("identity", sender.String()).Msg("persist message")
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	ev := messageEvent(msg, false)
	if origin != "" {
		if err := p.pusher.Push(ctx, origin, ev); err != nil {
			p.log.Warn().Err(err).Str("conn_id", string(origin)).Int64("message_id", msg.ID).Msg("echo to sender failed")
		}
	}

	failed := p.fanOut(ctx, msg, ev, deliveries)
	if len(failed) > 0 {
		msg.DeliveredTo = lo.Without(msg.DeliveredTo, failed...)
		msg.PendingFor = append(msg.PendingFor, failed...)
	}
	return msg, nil
}

// fanOut pushes ev to each delivery concurrently. Recipients whose push failed
// are flipped back to pending and returned.
func (p *Pipeline) fanOut(ctx context.Context, msg *store.Message, ev *Event, deliveries []delivery) []presence.Identity {
	var (
		mu     sync.Mutex
		failed []presence.Identity
	)
	var g errgroup.Group
	g.SetLimit(p.opts.PushConcurrency)
	for _, d := range deliveries {
		g.Go(func() error {
			err := p.pusher.Push(ctx, d.conn, ev)
			if err == nil {
				return nil
			}
			p.log.Warn().Err(err).
				Str("identity", d.identity.String()).
				Str("conn_id", string(d.conn)).
				Int64("message_id", msg.ID).
				Msg("push failed, queueing as pending")
			if err := p.messages.MarkPending(ctx, msg.ID, d.identity); err != nil {
				p.log.Error().Err(err).Int64("message_id", msg.ID).Msg("mark pending")
			}
			mu.Lock()
			failed = append(failed, d.identity)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return failed
}

// Replay pushes the messages pending for id, then recent room history, to conn.
//
// Pending messages are marked delivered one by one after a successful push;
// the first push failure stops the replay and leaves the rest pending. History
// skips what was already replayed and anything older than the newest replayed
// message, so conn sees a stream ordered by send time.
func (p *Pipeline) Replay(ctx context.Context, room presence.RoomKey, id presence.Identity, conn presence.ConnID) (ReplayStats, error) {
	var stats ReplayStats
	now := p.now()

	pending, err := p.messages.PendingMessages(ctx, room, id, now)
	if err != nil {
		return stats, fmt.Errorf("%w: pending messages: %v", ErrPersistence, err)
	}

	seen := make(map[int64]struct{}, len(pending))
	var cursor time.Time
	for _, m := range pending {
		if err := p.pusher.Push(ctx, conn, messageEvent(m, true)); err != nil {
			return stats, fmt.Errorf("replay message %d: %w", m.ID, err)
		}
		if err := p.messages.MarkDelivered(ctx, m.ID, id); err != nil {
			p.log.Warn().Err(err).Int64("message_id", m.ID).Str("identity", id.String()).Msg("mark delivered")
		}
		seen[m.ID] = struct{}{}
		cursor = m.SentAt
		stats.Pending++
	}

	history, err := p.messages.RoomHistory(ctx, room, now.Add(-p.opts.HistoryWindow), p.opts.HistoryLimit, now)
	if err != nil {
		return stats, fmt.Errorf("%w: room history: %v", ErrPersistence, err)
	}
	for _, m := range history {
		if _, ok := seen[m.ID]; ok || m.SentAt.Before(cursor) {
			continue
		}
		if err := p.pusher.Push(ctx, conn, messageEvent(m, true)); err != nil {
			return stats, fmt.Errorf("replay message %d: %w", m.ID, err)
		}
		stats.History++
	}
	return stats, nil
}
