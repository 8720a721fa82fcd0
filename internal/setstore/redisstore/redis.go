// Package redisstore is the shared set store used when several server
// instances must see the same presence state.
package redisstore

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vovakirdan/wirechat-presence/internal/setstore"
)

// Config holds connection settings for the shared store.
type Config struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// Store implements setstore.Store on Redis sets.
type Store struct {
	client *redis.Client
	prefix string
}

// New connects to Redis. The connection is lazy; use Ping to check reachability.
func New(cfg Config) *Store {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return NewFromClient(client, cfg.Prefix)
}

// NewFromClient wraps an existing client, sharing it with other components.
func NewFromClient(client *redis.Client, prefix string) *Store {
	return &Store{client: client, prefix: prefix}
}

// AddToSet runs SADD.
func (s *Store) AddToSet(ctx context.Context, key, member string) (bool, error) {
	n, err := s.client.SAdd(ctx, s.prefix+key, member).Result()
	if err != nil {
		return false, unavailable("sadd", key, err)
	}
	return n > 0, nil
}

// RemoveFromSet runs SREM. Redis drops the key once the set is empty.
func (s *Store) RemoveFromSet(ctx context.Context, key, member string) (bool, error) {
	n, err := s.client.SRem(ctx, s.prefix+key, member).Result()
	if err != nil {
		return false, unavailable("srem", key, err)
	}
	return n > 0, nil
}

// MembersOf runs SMEMBERS and sorts the reply.
func (s *Store) MembersOf(ctx context.Context, key string) ([]string, error) {
	members, err := s.client.SMembers(ctx, s.prefix+key).Result()
	if err != nil {
		return nil, unavailable("smembers", key, err)
	}
	sort.Strings(members)
	return members, nil
}

// Cardinality runs SCARD.
func (s *Store) Cardinality(ctx context.Context, key string) (int, error) {
	n, err := s.client.SCard(ctx, s.prefix+key).Result()
	if err != nil {
		return 0, unavailable("scard", key, err)
	}
	return int(n), nil
}

// Renew runs SET with PX so the key expires unless renewed again.
func (s *Store) Renew(ctx context.Context, key string, ttl time.Duration) error {
	if err := s.client.Set(ctx, s.prefix+key, 1, ttl).Err(); err != nil {
		return unavailable("set", key, err)
	}
	return nil
}

// Held runs EXISTS.
func (s *Store) Held(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Exists(ctx, s.prefix+key).Result()
	if err != nil {
		return false, unavailable("exists", key, err)
	}
	return n > 0, nil
}

// Ping checks if the Redis connection is healthy.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: ping: %v", setstore.ErrUnavailable, err)
	}
	return nil
}

// Client returns the underlying Redis client.
func (s *Store) Client() *redis.Client {
	return s.client
}

// Close closes the Redis client connection.
func (s *Store) Close() error {
	return s.client.Close()
}

func unavailable(op, key string, err error) error {
	return fmt.Errorf("%w: %s %s: %v", setstore.ErrUnavailable, op, key, err)
}
