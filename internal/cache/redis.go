// Package cache provides the Redis-backed byte cache used in front of slow
// lookup services.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrMiss is returned by Get when the key is absent.
var ErrMiss = errors.New("cache: key not found")

// Redis implements a prefixed key/value cache on a go-redis client.
type Redis struct {
	client redis.Cmdable
	prefix string
}

// NewRedis wraps client. Every key is stored under prefix.
func NewRedis(client redis.Cmdable, prefix string) (*Redis, error) {
	if client == nil {
		return nil, errors.New("cache: redis client must not be nil")
	}
	return &Redis{client: client, prefix: prefix}, nil
}

// Get retrieves a value.
func (r *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("cache: get %q: %w", key, err)
	}
	return val, nil
}

// Set stores a value with expiration. A zero ttl keeps the key forever.
func (r *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := r.client.Set(ctx, r.prefix+key, value, ttl).Err(); err != nil {
		return fmt.Errorf("cache: set %q: %w", key, err)
	}
	return nil
}

// Ping checks connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("cache: ping: %w", err)
	}
	return nil
}
