package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"hrcases-be/models"

	"github.com/redis/go-redis/v9"
)

// DefaultOutboxKey is the Redis list holding journal entries awaiting replay.
const DefaultOutboxKey = "hrcases:journal:pending"

// RedisHistoryOutbox keeps pending journal entries in a Redis list. New
// entries go on the head; the oldest entry is at the tail.
type RedisHistoryOutbox struct {
	client *redis.Client
	key    string
}

func NewRedisHistoryOutbox(client *redis.Client, key string) *RedisHistoryOutbox {
	if key == "" {
		key = DefaultOutboxKey
	}
	return &RedisHistoryOutbox{client: client, key: key}
}

func (o *RedisHistoryOutbox) Push(ctx context.Context, e models.StatusHistoryEntry) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal history entry: %w", err)
	}
	if err := o.client.LPush(ctx, o.key, payload).Err(); err != nil {
		return fmt.Errorf("%w: outbox push: %w", ErrTransient, err)
	}
	return nil
}

func (o *RedisHistoryOutbox) Pop(ctx context.Context) (*models.StatusHistoryEntry, error) {
	payload, err := o.client.RPop(ctx, o.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: outbox pop: %w", ErrTransient, err)
	}

	var e models.StatusHistoryEntry
	if err := json.Unmarshal(payload, &e); err != nil {
		return nil, fmt.Errorf("failed to decode history entry: %w", err)
	}
	return &e, nil
}

func (o *RedisHistoryOutbox) Requeue(ctx context.Context, e models.StatusHistoryEntry) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal history entry: %w", err)
	}
	if err := o.client.RPush(ctx, o.key, payload).Err(); err != nil {
		return fmt.Errorf("%w: outbox requeue: %w", ErrTransient, err)
	}
	return nil
}

func (o *RedisHistoryOutbox) Len(ctx context.Context) (int64, error) {
	n, err := o.client.LLen(ctx, o.key).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: outbox len: %w", ErrTransient, err)
	}
	return n, nil
}
