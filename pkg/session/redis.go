package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// defaultSessionTTL bounds a server-held session identifier's lifetime the
// same way browser session storage bounds a client-held one.
const defaultSessionTTL = 24 * time.Hour

// Redis is a KV backed by Redis, for deployments that hold session
// identifiers server-side (thin clients, multi-node storefronts).
type Redis struct {
	client *redis.Client
}

// NewRedis creates a Redis-backed KV.
func NewRedis(addr, password string, db int) *Redis {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &Redis{client: rdb}
}

func (r *Redis) Get(ctx context.Context, key string) (string, error) {
	val, err := r.client.Get(ctx, r.namespaced(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("session redis get: %w", err)
	}
	return val, nil
}

func (r *Redis) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	if err := r.client.Set(ctx, r.namespaced(key), value, ttl).Err(); err != nil {
		return fmt.Errorf("session redis set: %w", err)
	}
	return nil
}

func (r *Redis) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.namespaced(key)).Err(); err != nil {
		return fmt.Errorf("session redis delete: %w", err)
	}
	return nil
}

func (r *Redis) namespaced(key string) string {
	return "capture:" + key
}
