// Package relay routes pushes to connections held by other server instances
// over Redis pub/sub.
package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-presence/internal/core"
	"github.com/vovakirdan/wirechat-presence/internal/presence"
	"github.com/vovakirdan/wirechat-presence/internal/utils"
)

const channelPrefix = "wirechat:push:"

var _ core.Pusher = (*Relay)(nil)

type envelope struct {
	Conn  presence.ConnID `json:"conn"`
	Event *core.Event     `json:"event"`
}

// Relay delivers locally owned connections directly and forwards the rest to
// the owning instance.
type Relay struct {
	client   *redis.Client
	instance string
	local    core.Pusher
	log      *zerolog.Logger
}

// New creates a relay for instance. local receives pushes for this instance's
// connections, both direct and forwarded.
func New(client *redis.Client, instance string, local core.Pusher, log *zerolog.Logger) *Relay {
	if log == nil {
		nop := zerolog.Nop()
		log = &nop
	}
	return &Relay{client: client, instance: instance, local: local, log: log}
}

// Channel returns the pub/sub channel an instance listens on.
func Channel(instance string) string {
	return channelPrefix + instance
}

// Push implements core.Pusher. A forwarded push succeeds once published;
// delivery failures on the remote side are logged there.
func (r *Relay) Push(ctx context.Context, conn presence.ConnID, ev *core.Event) error {
	owner := utils.InstanceOf(conn)
	if owner == "" || owner == r.instance {
		return r.local.Push(ctx, conn, ev)
	}

	payload, err := json.Marshal(envelope{Conn: conn, Event: ev})
	if err != nil {
		return fmt.Errorf("encode relayed event: %w", err)
	}
	receivers, err := r.client.Publish(ctx, Channel(owner), payload).Result()
	if err != nil {
		return fmt.Errorf("relay to %s: %w", owner, err)
	}
	if receivers == 0 {
		// Nobody owns the instance any more; the connection is gone with it.
		return core.ErrConnectionGone
	}
	return nil
}

// Run forwards events published for this instance until ctx is cancelled.
func (r *Relay) Run(ctx context.Context) error {
	backoff := 100 * time.Millisecond
	for {
		err := r.listen(ctx)
		if ctx.Err() != nil {
			return nil
		}
		r.log.Warn().Err(err).Dur("retry_in", backoff).Msg("relay subscription lost")
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, 5*time.Second)
	}
}

// listen holds one subscription until it fails or ctx ends.
func (r *Relay) listen(ctx context.Context) error {
	sub := r.client.Subscribe(ctx, Channel(r.instance))
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", Channel(r.instance), err)
	}
	r.log.Info().Str("instance", r.instance).Msg("relay subscribed")

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return errors.New("subscription closed")
			}
			r.deliver(ctx, msg.Payload)
		}
	}
}

func (r *Relay) deliver(ctx context.Context, payload string) {
	var env envelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil || env.Event == nil {
		r.log.Warn().Err(err).Msg("drop malformed relayed event")
		return
	}
	if err := r.local.Push(ctx, env.Conn, env.Event); err != nil {
		r.log.Warn().Err(err).Str("conn_id", string(env.Conn)).Str("event", env.Event.Kind.String()).Msg("relayed push failed")
	}
}
