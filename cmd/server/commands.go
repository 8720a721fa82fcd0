package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/wirechat-presence/internal/app"
	"github.com/vovakirdan/wirechat-presence/internal/config"
	"github.com/vovakirdan/wirechat-presence/internal/log"
)

// rootOptions holds flags shared by every command.
type rootOptions struct {
	ConfigPath string
	Overrides  config.Config
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "wirechat",
		Short: "Real-time presence and message delivery for city chat rooms",
		Long: `wirechat serves general and community rooms over WebSocket.

Configuration is read from config.yaml (created with defaults when missing),
then WIRECHAT_* environment variables, then command-line flags.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.ConfigPath, "config", "", "path to config file")
	flags.StringVar(&opts.Overrides.LogLevel, "log-level", "", "log level (debug|info|warn|error)")
	flags.StringVar(&opts.Overrides.LogFormat, "log-format", "", "log output (console|json)")
	flags.StringVar(&opts.Overrides.Storage.Backend, "backend", "", "presence backend (memory|redis)")
	flags.StringVar(&opts.Overrides.Storage.DatabasePath, "db", "", "path to SQLite database")
	flags.StringVar(&opts.Overrides.Storage.Redis.Addr, "redis-addr", "", "Redis address")

	cmd.AddCommand(newServeCommand(opts))
	cmd.AddCommand(newSweepCommand(opts))

	return cmd
}

func newServeCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the chat server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			logger := log.New(cfg.LogLevel, cfg.LogFormat)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			application, err := app.New(&cfg, logger)
			if err != nil {
				return err
			}

			logger.Info().Str("addr", cfg.Addr).Msg("starting wirechat server")
			if err := application.Run(ctx); err != nil {
				return fmt.Errorf("server exited: %w", err)
			}
			logger.Info().Msg("server stopped")
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.Overrides.Addr, "addr", "", "HTTP listen address")
	cmd.Flags().DurationVar(&opts.Overrides.ShutdownTimeout, "shutdown-timeout", 0, "graceful shutdown timeout")

	return cmd
}

func newSweepCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Reconcile presence and evict expired messages once",
		Long: `Run one maintenance pass and exit: stale presence entries left by
crashed instances are repaired and expired messages are deleted.

Presence is only reconciled with the redis backend. The memory backend keeps
presence inside the serving process, so there the pass only evicts messages.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			logger := log.New(cfg.LogLevel, cfg.LogFormat)

			application, err := app.New(&cfg, logger)
			if err != nil {
				return err
			}

			report, err := application.SweepOnce(context.WithoutCancel(cmd.Context()))
			if err != nil {
				return err
			}
			logger.Info().
				Bool("presence_swept", report.PresenceSwept).
				Int("healed", report.Healed).
				Int64("evicted", report.Evicted).
				Msg("sweep finished")
			return nil
		},
	}
}

// load resolves the configuration and applies flag overrides on top.
func (o *rootOptions) load() (config.Config, error) {
	bootstrap := log.New(o.Overrides.LogLevel, o.Overrides.LogFormat)
	cfg, path, err := config.Load(bootstrap, o.ConfigPath)
	if err != nil {
		return cfg, err
	}
	cfg.UpdateFrom(o.Overrides)
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid flags: %w", err)
	}
	bootstrap.Debug().Str("path", path).Msg("config loaded")
	return cfg, nil
}
