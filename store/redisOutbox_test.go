package store

import (
	"context"
	"testing"
	"time"

	"hrcases-be/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newRedisOutbox(t *testing.T) (*RedisHistoryOutbox, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisHistoryOutbox(client, ""), mr
}

func TestRedisOutboxRoundTrip(t *testing.T) {
	ctx := context.Background()
	o, mr := newRedisOutbox(t)

	changed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	first := models.StatusHistoryEntry{ID: primitive.NewObjectID(), CaseID: "HR-1", OldStatus: "open", NewStatus: "closed", ChangedAt: changed}
	second := models.StatusHistoryEntry{ID: primitive.NewObjectID(), CaseID: "HR-2", OldStatus: "open", NewStatus: "closed", ChangedAt: changed}
	require.NoError(t, o.Push(ctx, first))
	require.NoError(t, o.Push(ctx, second))
	assert.True(t, mr.Exists(DefaultOutboxKey))

	n, err := o.Len(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	got, err := o.Pop(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, first.ID, got.ID)
	assert.True(t, got.ChangedAt.Equal(changed))

	require.NoError(t, o.Requeue(ctx, *got))
	got, err = o.Pop(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)

	got, err = o.Pop(ctx)
	require.NoError(t, err)
	assert.Equal(t, second.ID, got.ID)

	got, err = o.Pop(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisOutboxUnavailableIsTransient(t *testing.T) {
	o, mr := newRedisOutbox(t)
	mr.Close()

	err := o.Push(context.Background(), models.StatusHistoryEntry{CaseID: "HR-1"})
	assert.ErrorIs(t, err, ErrTransient)
}
