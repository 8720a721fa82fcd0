package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis is a cooldown limiter shared by every instance using the same Redis.
type Redis struct {
	client *redis.Client
	prefix string
}

// NewRedis creates a limiter storing cooldown keys under prefix.
func NewRedis(client *redis.Client, prefix string) *Redis {
	return &Redis{client: client, prefix: prefix}
}

// Allow sets the cooldown key only when it is absent, so exactly one caller
// wins per interval across instances.
func (r *Redis) Allow(ctx context.Context, key string, interval time.Duration) (bool, error) {
	ok, err := r.client.SetNX(ctx, r.prefix+key, 1, interval).Result()
	if err != nil {
		return false, fmt.Errorf("slow mode cooldown %s: %w", key, err)
	}
	return ok, nil
}
