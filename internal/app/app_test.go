package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/wirechat-presence/internal/config"
	"github.com/vovakirdan/wirechat-presence/internal/presence"
	"github.com/vovakirdan/wirechat-presence/internal/store"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Addr = "127.0.0.1:0"
	cfg.Storage.DatabasePath = filepath.Join(t.TempDir(), "chat.db")
	cfg.ShutdownTimeout = time.Second
	return &cfg
}

func TestSweepOnceWithMemoryBackendOnlyEvicts(t *testing.T) {
	logger := zerolog.Nop()
	a, err := New(testConfig(t), &logger)
	require.NoError(t, err)
	require.Nil(t, a.relay)

	sent := time.Now().Add(-48 * time.Hour)
	require.NoError(t, a.store.SaveMessage(context.Background(), &store.Message{
		Room:      "general:pune",
		Kind:      presence.RoomGeneral,
		Sender:    "u:42",
		Body:      "old",
		SentAt:    sent,
		ExpiresAt: sent.Add(24 * time.Hour),
	}))

	report, err := a.SweepOnce(context.Background())
	require.NoError(t, err)
	require.False(t, report.PresenceSwept, "memory presence lives in the serving process")
	require.Zero(t, report.Healed)
	require.EqualValues(t, 1, report.Evicted)
}

func TestRunStopsOnCancel(t *testing.T) {
	logger := zerolog.Nop()
	a, err := New(testConfig(t), &logger)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("app did not stop")
	}
}

func TestBuildsWithBlockedTerms(t *testing.T) {
	cfg := testConfig(t)
	cfg.Chat.BlockedTerms = []string{"spam"}
	logger := zerolog.Nop()
	a, err := New(cfg, &logger)
	require.NoError(t, err)
	t.Cleanup(a.cleanup)
}

func TestSweepOnceWithRedisBackendReconciles(t *testing.T) {
	cfg := testConfig(t)
	cfg.Storage.Backend = config.BackendRedis
	cfg.Storage.Redis.Addr = "localhost:6379"
	cfg.Storage.Redis.Prefix = "wirechat-test:" + time.Now().Format("150405.000000") + ":"

	client := redis.NewClient(&redis.Options{Addr: cfg.Storage.Redis.Addr})
	defer client.Close()
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("Redis not available at %s: %v", cfg.Storage.Redis.Addr, err)
	}

	logger := zerolog.Nop()
	a, err := New(cfg, &logger)
	require.NoError(t, err)
	require.NotNil(t, a.relay)

	report, err := a.SweepOnce(context.Background())
	require.NoError(t, err)
	require.True(t, report.PresenceSwept)
}
