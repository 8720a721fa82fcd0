package app

import (
	"context"
	"errors"
	"fmt"
	stdhttp "net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/vovakirdan/wirechat-presence/internal/auth"
	"github.com/vovakirdan/wirechat-presence/internal/config"
	"github.com/vovakirdan/wirechat-presence/internal/core"
	"github.com/vovakirdan/wirechat-presence/internal/moderation"
	"github.com/vovakirdan/wirechat-presence/internal/presence"
	"github.com/vovakirdan/wirechat-presence/internal/ratelimit"
	"github.com/vovakirdan/wirechat-presence/internal/relay"
	"github.com/vovakirdan/wirechat-presence/internal/setstore"
	"github.com/vovakirdan/wirechat-presence/internal/setstore/memory"
	"github.com/vovakirdan/wirechat-presence/internal/setstore/redisstore"
	"github.com/vovakirdan/wirechat-presence/internal/store/sqlite"
	transporthttp "github.com/vovakirdan/wirechat-presence/internal/transport/http"
	"github.com/vovakirdan/wirechat-presence/internal/utils"
)

// App wires together storage, the hub and the transport layer.
type App struct {
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	hub             *core.Hub
	store           *sqlite.SQLiteStore
	sets            setstore.Store
	evictor         *sqlite.Evictor
	relay           *relay.Relay
	shared          bool
	instance        string
	log             *zerolog.Logger
}

// New constructs the application with provided configuration.
func New(cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	st, err := sqlite.New(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}
	logger.Info().Str("db_path", cfg.Storage.DatabasePath).Msg("database initialized")

	screen, err := moderation.NewScreen(cfg.Chat.BlockedTerms)
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("build content screen: %w", err)
	}

	a := &App{
		shutdownTimeout: cfg.ShutdownTimeout,
		store:           st,
		instance:        utils.NewInstanceID(),
		log:             logger,
	}

	var (
		limiter core.SlowModeLimiter
		client  *redis.Client
	)
	switch cfg.Storage.Backend {
	case config.BackendRedis:
		rs := redisstore.New(redisstore.Config{
			Addr:     cfg.Storage.Redis.Addr,
			Password: cfg.Storage.Redis.Password,
			DB:       cfg.Storage.Redis.DB,
			Prefix:   cfg.Storage.Redis.Prefix,
		})
		pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := rs.Ping(pingCtx); err != nil {
			// Presence degrades until Redis comes back; the server still starts.
			logger.Warn().Err(err).Str("addr", cfg.Storage.Redis.Addr).Msg("redis unreachable at startup")
		}
		cancel()
		client = rs.Client()
		a.sets = rs
		a.shared = true
		limiter = ratelimit.NewRedis(client, cfg.Storage.Redis.Prefix+"slow:")
	default:
		a.sets = memory.New()
		limiter = ratelimit.NewMemory()
	}

	a.hub = core.NewHub(core.Deps{
		Sets:     a.sets,
		Messages: st,
		Rooms:    st,
		Reports:  st,
		Auth:     auth.NewRoles(st),
		Screen:   screen,
		Limiter:  limiter,
		Instance: a.instance,
		Log:      logger,
	}, chatOptions(cfg.Chat))

	if client != nil {
		a.relay = relay.New(client, a.instance, a.hub.Connections(), logger)
		a.hub.SetPusher(a.relay)
	}

	a.evictor = sqlite.NewEvictor(st, cfg.Chat.EvictInterval, logger)

	authService := auth.NewService(&auth.JWTConfig{
		Secret:   []byte(cfg.JWT.Secret),
		Issuer:   cfg.JWT.Issuer,
		Audience: cfg.JWT.Audience,
	}, cfg.Chat.AllowAnonymous)

	a.server = transporthttp.NewServer(a.hub, authService, cfg, logger, func() presence.ConnID {
		return utils.NewConnID(a.instance)
	})

	logger.Info().Str("instance", a.instance).Str("backend", cfg.Storage.Backend).Msg("app initialized")
	return a, nil
}

func chatOptions(c config.ChatConfig) core.Options {
	return core.Options{
		HistoryWindow:    c.HistoryWindow,
		HistoryLimit:     c.HistoryLimit,
		MessageTTL:       c.MessageTTL,
		SlowModeInterval: c.SlowModeInterval,
		AutoCreateRooms:  c.AutoCreateRooms,
		SweepInterval:    c.SweepInterval,
		InstanceTTL:      c.InstanceTTL,
		PushTimeout:      c.PushTimeout,
		PushConcurrency:  c.PushConcurrency,
	}
}

// Run starts the HTTP server and the background loops, and blocks until ctx
// is cancelled or one of them fails.
func (a *App) Run(ctx context.Context) error {
	defer a.cleanup()

	if err := a.hub.Heartbeat(ctx); err != nil {
		a.log.Warn().Err(err).Msg("initial instance heartbeat")
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { return ignoreCanceled(a.hub.Run(gctx)) })
	g.Go(func() error { return ignoreCanceled(a.evictor.Run(gctx)) })
	if a.relay != nil {
		g.Go(func() error { return ignoreCanceled(a.relay.Run(gctx)) })
	}

	g.Go(func() error {
		a.log.Info().Str("addr", a.server.Addr).Msg("http server listening")
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		a.log.Info().Msg("shutting down http server")
		return a.server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// SweepReport summarizes one maintenance pass.
type SweepReport struct {
	// PresenceSwept is false when presence lives only inside the serving
	// process (memory backend) and could not be reached.
	PresenceSwept bool
	Healed        int
	Evicted       int64
}

// SweepOnce reconciles shared presence and evicts expired messages a single
// time. With the memory backend only eviction runs.
func (a *App) SweepOnce(ctx context.Context) (SweepReport, error) {
	defer a.cleanup()

	var report SweepReport
	if a.shared {
		healed, err := a.hub.Sweep(ctx)
		if err != nil {
			return report, fmt.Errorf("sweep presence: %w", err)
		}
		report.PresenceSwept = true
		report.Healed = healed
	} else {
		a.log.Warn().Msg("memory backend: presence is private to the serving process, only evicting messages")
	}

	evicted, err := a.evictor.EvictOnce(ctx)
	if err != nil {
		return report, fmt.Errorf("evict messages: %w", err)
	}
	report.Evicted = evicted
	return report, nil
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// cleanup closes database and other resources.
func (a *App) cleanup() {
	if a.sets != nil {
		if err := a.sets.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close set store")
		}
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close store")
		} else {
			a.log.Info().Msg("store closed")
		}
	}
}
