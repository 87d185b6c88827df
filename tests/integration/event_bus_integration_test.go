//go:build integration

package integration

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/cinetrail/backend/internal/adapters/events"
	"github.com/cinetrail/backend/internal/domain/entities"
	"github.com/cinetrail/backend/internal/domain/providers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisEventBusFanoutIntegration(t *testing.T) {
	if os.Getenv("TEST_REDIS_HOST") == "" {
		t.Skip("Skipping integration test: TEST_REDIS_HOST not set")
	}

	redisClient := newTestRedisClient(t)
	defer redisClient.Close()

	eventBus := events.NewRedisEventBus(redisClient)
	defer eventBus.Close()

	channel := providers.EventChannelHistoryUpdates
	ctx1, cancel1 := context.WithCancel(context.Background())
	ctx2, cancel2 := context.WithCancel(context.Background())
	defer cancel1()
	defer cancel2()

	sub1, err := eventBus.Subscribe(ctx1, channel)
	require.NoError(t, err)
	sub2, err := eventBus.Subscribe(ctx2, channel)
	require.NoError(t, err)
	time.Sleep(50 * time.Millisecond)

	change := entities.NewHistoryChange("user-redis-1", entities.HistoryChangeCleared)

	err = eventBus.Publish(context.Background(), channel, change)
	require.NoError(t, err)

	received1 := waitForHistoryChange(t, sub1)
	received2 := waitForHistoryChange(t, sub2)

	assert.Equal(t, change.ID, received1.ID)
	assert.Equal(t, change.ID, received2.ID)
}

func TestRedisEventBusIdentityChannelIntegration(t *testing.T) {
	if os.Getenv("TEST_REDIS_HOST") == "" {
		t.Skip("Skipping integration test: TEST_REDIS_HOST not set")
	}

	redisClient := newTestRedisClient(t)
	defer redisClient.Close()

	eventBus := events.NewRedisEventBus(redisClient)
	defer eventBus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub, err := eventBus.Subscribe(ctx, providers.GetIdentityChannel("user-redis-2"))
	require.NoError(t, err)
	time.Sleep(50 * time.Millisecond)

	change := entities.NewHistoryChange("user-redis-2", entities.HistoryChangeHydrated)
	err = eventBus.Publish(context.Background(), providers.GetIdentityChannel("user-redis-2"), change)
	require.NoError(t, err)

	received := waitForHistoryChange(t, sub)
	assert.Equal(t, change.ID, received.ID)
	assert.Equal(t, entities.HistoryChangeHydrated, received.Kind)
}

func waitForHistoryChange(t *testing.T, ch <-chan *entities.HistoryChange) *entities.HistoryChange {
	t.Helper()
	select {
	case change := <-ch:
		require.NotNil(t, change)
		return change
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for history change")
		return nil
	}
}
