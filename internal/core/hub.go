package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-presence/internal/presence"
	"github.com/vovakirdan/wirechat-presence/internal/setstore"
	"github.com/vovakirdan/wirechat-presence/internal/store"
)

// Deps are the collaborators a Hub is built from.
type Deps struct {
	Sets     setstore.Store
	Messages store.MessageStore
	Rooms    RoomDirectory
	Reports  store.ReportStore
	Auth     Authorizer
	Screen   ContentScreen
	Limiter  SlowModeLimiter
	// Pusher routes events to connections. Defaults to the hub's local registry.
	Pusher Pusher
	// Instance names this process. Connection ids carry it as their prefix.
	Instance string
	Log      *zerolog.Logger
}

// Hub coordinates presence, delivery and moderation for all rooms.
// It holds no cross-request lock: every method may be called concurrently
// from independent connection handlers.
type Hub struct {
	conns     *Connections
	directory *presence.Directory
	registry  *presence.Registry
	instances *presence.Instances
	instance  string
	pipeline  *Pipeline
	pusher    Pusher
	rooms     RoomDirectory
	messages  store.MessageStore
	reports   store.ReportStore
	auth      Authorizer
	screen    ContentScreen
	opts      Options
	log       *zerolog.Logger
	now       func() time.Time
}

// NewHub creates a new chat hub instance.
func NewHub(deps Deps, opts Options) *Hub {
	opts = opts.withDefaults()
	logger := deps.Log
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	conns := NewConnections(opts.PushTimeout)
	pusher := deps.Pusher
	if pusher == nil {
		pusher = conns
	}

	h := &Hub{
		conns:     conns,
		directory: presence.NewDirectory(deps.Sets),
		registry:  presence.NewRegistry(deps.Sets),
		instances: presence.NewInstances(deps.Sets, opts.InstanceTTL),
		instance:  deps.Instance,
		pusher:    pusher,
		rooms:     deps.Rooms,
		messages:  deps.Messages,
		reports:   deps.Reports,
		auth:      deps.Auth,
		screen:    deps.Screen,
		opts:      opts,
		log:       logger,
		now:       time.Now,
	}
	h.pipeline = &Pipeline{
		registry: h.registry,
		messages: deps.Messages,
		rooms:    deps.Rooms,
		pusher:   pusher,
		limiter:  deps.Limiter,
		opts:     opts,
		log:      logger,
		now:      func() time.Time { return h.now() },
	}
	return h
}

// Connections exposes the local connection registry.
func (h *Hub) Connections() *Connections {
	return h.conns
}

// Pipeline exposes the delivery pipeline.
func (h *Hub) Pipeline() *Pipeline {
	return h.pipeline
}

// SetPusher replaces the event router. Must be called before serving traffic.
func (h *Hub) SetPusher(p Pusher) {
	h.pusher = p
	h.pipeline.pusher = p
}

// Handle dispatches one inbound command. Errors are reported to the
// initiating connection only, as a system notice carrying an error code.
func (h *Hub) Handle(ctx context.Context, client *Client, cmd *Command) {
	if err := h.handle(ctx, client, cmd); err != nil {
		h.notifyError(ctx, client, cmd.Room, err)
	}
}

func (h *Hub) handle(ctx context.Context, client *Client, cmd *Command) error {
	switch cmd.Kind {
	case CommandJoinRoom:
		return h.Join(ctx, client, cmd.Room)
	case CommandLeaveRoom:
		return h.Leave(ctx, client, cmd.Room)
	case CommandSendRoomMessage:
		if h.screen != nil {
			if v := h.screen.Screen(ctx, cmd.Text); !v.Allowed {
				return fmt.Errorf("%w: %s", ErrRejected, v.Reason)
			}
		}
		_, err := h.pipeline.Send(ctx, cmd.Room, client.Identity, client.Label, client.ID, cmd.Text)
		return err
	case CommandDeleteMessage:
		return h.DeleteMessage(ctx, client, cmd.Room, cmd.MessageID)
	case CommandBanMember:
		return h.BanMember(ctx, client, cmd.Room, cmd.Target)
	case CommandToggleSlowMode:
		_, err := h.ToggleSlowMode(ctx, client, cmd.Room)
		return err
	case CommandPurgeHistory:
		return h.PurgeHistory(ctx, client, cmd.Room)
	case CommandReportMessage:
		return h.ReportMessage(ctx, client, cmd.Room, cmd.MessageID)
	default:
		return ErrBadRequest
	}
}

func (h *Hub) notifyError(ctx context.Context, client *Client, room presence.RoomKey, err error) {
	ce := ToCoreError(err)
	level := zerolog.WarnLevel
	switch {
	case errors.Is(err, ErrUnauthorized), errors.Is(err, ErrNotAMember), errors.Is(err, ErrSlowMode), errors.Is(err, ErrRejected):
		level = zerolog.DebugLevel
	case errors.Is(err, ErrPersistence), ce.Code == ErrCodeInternal:
		level = zerolog.ErrorLevel
	}
	h.log.WithLevel(level).Err(err).
		Str("conn_id", string(client.ID)).
		Str("identity", client.Identity.String()).
		Str("room", room.String()).
		Str("code", ce.Code).
		Msg("command rejected")

	h.push(ctx, client.ID, errorEvent(room, ce))
}

// push delivers to one connection and logs failures.
func (h *Hub) push(ctx context.Context, conn presence.ConnID, ev *Event) {
	if err := h.pusher.Push(ctx, conn, ev); err != nil {
		h.log.Warn().Err(err).Str("conn_id", string(conn)).Str("event", ev.Kind.String()).Msg("push failed")
	}
}

// broadcast pushes ev to every in-room connection of every roster member
// except skip, and returns the connections reached.
func (h *Hub) broadcast(ctx context.Context, room presence.RoomKey, ev *Event, skip presence.Identity) map[presence.ConnID]struct{} {
	reached := make(map[presence.ConnID]struct{})
	roster, err := h.registry.Roster(ctx, room)
	if err != nil {
		h.log.Warn().Err(err).Str("room", room.String()).Msg("broadcast: roster unavailable")
		return reached
	}
	for _, id := range roster {
		if id == skip {
			continue
		}
		conns, err := h.registry.ConnsIn(ctx, room, id)
		if err != nil {
			h.log.Warn().Err(err).Str("identity", id.String()).Msg("broadcast: connections unavailable")
			continue
		}
		for _, c := range conns {
			h.push(ctx, c, ev)
			reached[c] = struct{}{}
		}
	}
	return reached
}

// pushToIdentity pushes ev to every live connection of id, skipping those already reached.
func (h *Hub) pushToIdentity(ctx context.Context, id presence.Identity, ev *Event, reached map[presence.ConnID]struct{}) {
	conns, err := h.directory.ConnectionsOf(ctx, id)
	if err != nil {
		h.log.Warn().Err(err).Str("identity", id.String()).Msg("connections unavailable")
		return
	}
	for _, c := range conns {
		if _, ok := reached[c]; ok {
			continue
		}
		h.push(ctx, c, ev)
	}
}

// broadcastPresence sends the current online count and roster to the room.
func (h *Hub) broadcastPresence(ctx context.Context, room presence.RoomKey) {
	roster, err := h.registry.Roster(ctx, room)
	if err != nil {
		h.log.Warn().Err(err).Str("room", room.String()).Msg("presence broadcast skipped")
		return
	}
	h.broadcast(ctx, room, onlineCountEvent(room, len(roster)), "")
	h.broadcast(ctx, room, rosterEvent(room, roster), "")
}

// Presence returns the online count and roster of a room.
func (h *Hub) Presence(ctx context.Context, room presence.RoomKey) (int, []presence.Identity, error) {
	n, err := h.registry.OnlineCount(ctx, room)
	if err != nil {
		return 0, nil, err
	}
	roster, err := h.registry.Roster(ctx, room)
	if err != nil {
		return 0, nil, err
	}
	return n, roster, nil
}
