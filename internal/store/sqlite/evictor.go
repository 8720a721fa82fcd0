package sqlite

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-presence/internal/store"
)

// Evictor periodically removes messages past their retention window.
type Evictor struct {
	messages store.MessageStore
	interval time.Duration
	log      *zerolog.Logger
	now      func() time.Time
}

// NewEvictor builds an evictor that runs every interval.
func NewEvictor(messages store.MessageStore, interval time.Duration, log *zerolog.Logger) *Evictor {
	if log == nil {
		nop := zerolog.Nop()
		log = &nop
	}
	return &Evictor{
		messages: messages,
		interval: interval,
		log:      log,
		now:      time.Now,
	}
}

// Run evicts on every tick until ctx is cancelled.
func (e *Evictor) Run(ctx context.Context) error {
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := e.EvictOnce(ctx); err != nil {
				e.log.Error().Err(err).Msg("evict expired messages")
			}
		}
	}
}

// EvictOnce deletes every expired message and returns how many were removed.
func (e *Evictor) EvictOnce(ctx context.Context) (int64, error) {
	n, err := e.messages.DeleteExpired(ctx, e.now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		e.log.Debug().Int64("evicted", n).Msg("expired messages evicted")
	}
	return n, nil
}
