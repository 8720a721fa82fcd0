package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestMemoryCooldown(t *testing.T) {
	ctx := context.Background()
	clock := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)

	m := NewMemory()
	m.now = func() time.Time { return clock }

	ok, err := m.Allow(ctx, "u:1@general:pune", 10*time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	ok, _ = m.Allow(ctx, "u:1@general:pune", 10*time.Second)
	require.False(t, ok, "second call inside the interval")

	ok, _ = m.Allow(ctx, "u:2@general:pune", 10*time.Second)
	require.True(t, ok, "keys are independent")

	clock = clock.Add(10 * time.Second)
	ok, _ = m.Allow(ctx, "u:1@general:pune", 10*time.Second)
	require.True(t, ok, "cooldown elapsed")
}

func TestRedisCooldown(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
	defer client.Close()

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skip("Redis not available, skipping integration test")
	}

	prefix := "wirechat-test:slow:" + time.Now().Format("150405.000000") + ":"
	defer client.Del(ctx, prefix+"k")

	r := NewRedis(client, prefix)

	ok, err := r.Allow(ctx, "k", time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = r.Allow(ctx, "k", time.Second)
	require.NoError(t, err)
	require.False(t, ok)

	ttl, err := client.PTTL(ctx, prefix+"k").Result()
	require.NoError(t, err)
	require.Greater(t, ttl, time.Duration(0))
}
