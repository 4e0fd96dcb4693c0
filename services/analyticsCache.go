package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// AnalyticsCache stores aggregation results for a short time.
//
// Resolve pins a logical key to the entry that is current right now. Get and
// Set take that resolved entry, so a value loaded before an Invalidate is
// written where no later read will look.
type AnalyticsCache interface {
	Resolve(ctx context.Context, key string) (string, error)
	// Get decodes the cached value for entry into dst and reports a hit.
	Get(ctx context.Context, entry string, dst interface{}) (bool, error)
	Set(ctx context.Context, entry string, v interface{}) error
	CacheInvalidator
}

// NopAnalyticsCache never hits.
type NopAnalyticsCache struct{}

func (NopAnalyticsCache) Resolve(_ context.Context, key string) (string, error) { return key, nil }
func (NopAnalyticsCache) Get(context.Context, string, interface{}) (bool, error) { return false, nil }
func (NopAnalyticsCache) Set(context.Context, string, interface{}) error         { return nil }
func (NopAnalyticsCache) Invalidate(context.Context) error                       { return nil }

// DefaultCachePrefix namespaces analytics keys in Redis.
const DefaultCachePrefix = "hrcases:analytics"

// RedisAnalyticsCache keeps JSON results under a generation counter. A write
// bumps the generation so every older entry becomes unreachable at once and
// simply ages out with its TTL.
type RedisAnalyticsCache struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

func NewRedisAnalyticsCache(client *redis.Client, ttl time.Duration, prefix string) *RedisAnalyticsCache {
	if prefix == "" {
		prefix = DefaultCachePrefix
	}
	return &RedisAnalyticsCache{client: client, ttl: ttl, prefix: prefix}
}

func (c *RedisAnalyticsCache) generationKey() string {
	return c.prefix + ":gen"
}

func (c *RedisAnalyticsCache) generation(ctx context.Context) (int64, error) {
	gen, err := c.client.Get(ctx, c.generationKey()).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

// Resolve binds key to the current generation.
func (c *RedisAnalyticsCache) Resolve(ctx context.Context, key string) (string, error) {
	gen, err := c.generation(ctx)
	if err != nil {
		return "", fmt.Errorf("redis error reading cache generation: %w", err)
	}
	return fmt.Sprintf("%s:%d:%s", c.prefix, gen, key), nil
}

func (c *RedisAnalyticsCache) Get(ctx context.Context, entry string, dst interface{}) (bool, error) {
	payload, err := c.client.Get(ctx, entry).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis error reading cache: %w", err)
	}
	if err := json.Unmarshal(payload, dst); err != nil {
		return false, fmt.Errorf("failed to decode cached analytics: %w", err)
	}
	return true, nil
}

func (c *RedisAnalyticsCache) Set(ctx context.Context, entry string, v interface{}) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode analytics: %w", err)
	}
	if err := c.client.Set(ctx, entry, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis error writing cache: %w", err)
	}
	return nil
}

func (c *RedisAnalyticsCache) Invalidate(ctx context.Context) error {
	if err := c.client.Incr(ctx, c.generationKey()).Err(); err != nil {
		return fmt.Errorf("redis error bumping cache generation: %w", err)
	}
	return nil
}
