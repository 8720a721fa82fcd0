package redisstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/wirechat-presence/internal/setstore"
)

// Requires Redis on localhost:6379; skipped otherwise.
const testRedisAddr = "localhost:6379"

func setupTestStore(t *testing.T) *Store {
	t.Helper()

	client := redis.NewClient(&redis.Options{Addr: testRedisAddr})
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		t.Skipf("Redis not available at %s: %v", testRedisAddr, err)
	}

	prefix := "wirechat-test:" + time.Now().Format("150405.000000") + ":"
	t.Cleanup(func() {
		keys, _ := client.Keys(ctx, prefix+"*").Result()
		if len(keys) > 0 {
			client.Del(ctx, keys...)
		}
		_ = client.Close()
	})
	return NewFromClient(client, prefix)
}

func TestRedisSetSemantics(t *testing.T) {
	req := require.New(t)
	s := setupTestStore(t)
	ctx := context.Background()

	added, err := s.AddToSet(ctx, "room", "u:2")
	req.NoError(err)
	req.True(added)
	added, err = s.AddToSet(ctx, "room", "u:1")
	req.NoError(err)
	req.True(added)
	added, err = s.AddToSet(ctx, "room", "u:1")
	req.NoError(err)
	req.False(added)

	members, err := s.MembersOf(ctx, "room")
	req.NoError(err)
	req.Equal([]string{"u:1", "u:2"}, members)

	n, err := s.Cardinality(ctx, "room")
	req.NoError(err)
	req.Equal(2, n)

	removed, err := s.RemoveFromSet(ctx, "room", "u:1")
	req.NoError(err)
	req.True(removed)
	removed, err = s.RemoveFromSet(ctx, "room", "u:1")
	req.NoError(err)
	req.False(removed)
}

func TestUnreachableRedisIsUnavailable(t *testing.T) {
	s := New(Config{Addr: "127.0.0.1:1"})
	defer s.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err := s.AddToSet(ctx, "k", "m")
	require.Error(t, err)
	require.True(t, errors.Is(err, setstore.ErrUnavailable))

	_, err = s.MembersOf(ctx, "k")
	require.ErrorIs(t, err, setstore.ErrUnavailable)
}

func TestRedisLeaseExpires(t *testing.T) {
	req := require.New(t)
	s := setupTestStore(t)
	ctx := context.Background()

	held, err := s.Held(ctx, "instance:a")
	req.NoError(err)
	req.False(held)

	req.NoError(s.Renew(ctx, "instance:a", 100*time.Millisecond))
	held, err = s.Held(ctx, "instance:a")
	req.NoError(err)
	req.True(held)

	req.Eventually(func() bool {
		held, err := s.Held(ctx, "instance:a")
		return err == nil && !held
	}, 2*time.Second, 20*time.Millisecond)
}
