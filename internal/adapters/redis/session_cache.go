package redis

// Package redis provides Redis-based adapters for the tractify client.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tractify/tractify-go/internal/ports"
)

// SessionCache persists the last-known session snapshot in Redis so a
// restarted client can show identity hints while the provider restore runs.
// Snapshots never carry tokens.
type SessionCache struct {
	client redis.UniversalClient
	key    string
	ttl    time.Duration
}

const (
	defaultKey = "tractify:session"
	defaultTTL = 24 * time.Hour
)

// NewSessionCache creates a Redis-backed session cache.
func NewSessionCache(client redis.UniversalClient) *SessionCache {
	return &SessionCache{client: client, key: defaultKey, ttl: defaultTTL}
}

// NewSessionCacheWithKey creates a session cache under a custom key. Used
// when several client instances share one Redis.
func NewSessionCacheWithKey(client redis.UniversalClient, key string, ttl time.Duration) *SessionCache {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &SessionCache{client: client, key: key, ttl: ttl}
}

func (c *SessionCache) Save(ctx context.Context, snap ports.Snapshot) error {
	if snap.IdentityID == "" {
		return errors.New("snapshot identity ID cannot be empty")
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	return c.client.Set(ctx, c.key, data, c.ttl).Err()
}

func (c *SessionCache) Load(ctx context.Context) (ports.Snapshot, error) {
	data, err := c.client.Get(ctx, c.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ports.Snapshot{}, ErrNoSnapshot
		}
		return ports.Snapshot{}, fmt.Errorf("redis get: %w", err)
	}

	var snap ports.Snapshot
	if unmarshalErr := json.Unmarshal([]byte(data), &snap); unmarshalErr != nil {
		return ports.Snapshot{}, fmt.Errorf("unmarshal snapshot: %w", unmarshalErr)
	}
	return snap, nil
}

func (c *SessionCache) Clear(ctx context.Context) error {
	return c.client.Del(ctx, c.key).Err()
}

// ErrNoSnapshot is returned when no snapshot is stored.
type noSnapshotError struct{}

func (noSnapshotError) Error() string { return "no session snapshot" }

var ErrNoSnapshot error = noSnapshotError{}
