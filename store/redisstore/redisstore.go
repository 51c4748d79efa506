// Package redisstore provides a Redis-backed credential store for
// deployments where session state must be shared across hosts (kiosk
// fleets, server-rendered frontends).
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store is a Redis-based credential store.
type Store struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// New creates a Redis-backed store with the default "zamani:" key prefix
// and no expiry.
func New(client redis.UniversalClient) *Store {
	return NewWithPrefix(client, "zamani:")
}

// NewWithPrefix creates a Redis-backed store with a custom key prefix.
func NewWithPrefix(client redis.UniversalClient, prefix string) *Store {
	return &Store{client: client, prefix: prefix}
}

// WithTTL returns a copy of the store whose entries expire after ttl.
// A zero ttl means entries never expire.
func (s *Store) WithTTL(ttl time.Duration) *Store {
	clone := *s
	clone.ttl = ttl
	return &clone
}

func (s *Store) Save(ctx context.Context, key, value string) error {
	if key == "" {
		return errors.New("redisstore: key cannot be empty")
	}
	if err := s.client.Set(ctx, s.prefix+key, value, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (s *Store) Load(ctx context.Context, key string) (string, bool, error) {
	if key == "" {
		return "", false, nil
	}
	value, err := s.client.Get(ctx, s.prefix+key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("redis get: %w", err)
	}
	return value, true, nil
}

func (s *Store) Clear(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}
