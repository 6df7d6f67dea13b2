package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/julianstephens/hemma/internal/constants"
	"github.com/julianstephens/hemma/internal/models"
)

// Cache keeps merged snapshots for downloads. Entries are replaced after
// every upload and dropped on reset.
type Cache interface {
	Get(ctx context.Context, userID string) (models.SyncPayload, bool, error)
	Set(ctx context.Context, userID string, payload models.SyncPayload) error
	Invalidate(ctx context.Context, userID string) error
	Close() error
}

type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(ctx context.Context, redisURL string, ttl time.Duration) (*RedisCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return &RedisCache{client: client, ttl: ttl}, nil
}

func (c *RedisCache) key(userID string) string {
	return constants.CacheKeyPrefix + userID
}

func (c *RedisCache) Get(ctx context.Context, userID string) (models.SyncPayload, bool, error) {
	data, err := c.client.Get(ctx, c.key(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.SyncPayload{}, false, nil
	}
	if err != nil {
		return models.SyncPayload{}, false, fmt.Errorf("failed to read cache: %w", err)
	}

	var p models.SyncPayload
	if err := json.Unmarshal(data, &p); err != nil {
		// treat as a miss, the next upload overwrites it
		return models.SyncPayload{}, false, nil
	}
	return p, true, nil
}

func (c *RedisCache) Set(ctx context.Context, userID string, payload models.SyncPayload) error {
	data, err := json.Marshal(payload.Normalize())
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	if err := c.client.Set(ctx, c.key(userID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write cache: %w", err)
	}
	return nil
}

func (c *RedisCache) Invalidate(ctx context.Context, userID string) error {
	if err := c.client.Del(ctx, c.key(userID)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate cache: %w", err)
	}
	return nil
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

// NoopCache is used when REDIS_URL is unset.
type NoopCache struct{}

func (NoopCache) Get(context.Context, string) (models.SyncPayload, bool, error) {
	return models.SyncPayload{}, false, nil
}
func (NoopCache) Set(context.Context, string, models.SyncPayload) error { return nil }
func (NoopCache) Invalidate(context.Context, string) error { return nil }
func (NoopCache) Close() error { return nil }
