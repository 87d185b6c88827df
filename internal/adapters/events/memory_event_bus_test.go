package events

import (
	"context"
	"testing"
	"time"

	"github.com/cinetrail/backend/internal/domain/entities"
	"github.com/cinetrail/backend/internal/domain/providers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receiveChange(t *testing.T, ch <-chan *entities.HistoryChange) *entities.HistoryChange {
	t.Helper()
	select {
	case change := <-ch:
		return change
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for change notification")
		return nil
	}
}

func TestMemoryEventBus_PublishReachesSubscriber(t *testing.T) {
	bus := NewMemoryEventBus()
	defer bus.Close()

	ch, err := bus.Subscribe(context.Background(), providers.EventChannelHistoryUpdates)
	require.NoError(t, err)

	published := entities.NewHistoryChange("user-1", entities.HistoryChangeCleared)
	require.NoError(t, bus.Publish(context.Background(), providers.EventChannelHistoryUpdates, published))

	received := receiveChange(t, ch)
	assert.Equal(t, published.ID, received.ID)
	assert.Equal(t, entities.HistoryChangeCleared, received.Kind)
}

func TestMemoryEventBus_ChannelsAreIsolated(t *testing.T) {
	bus := NewMemoryEventBus()
	defer bus.Close()

	ch, err := bus.Subscribe(context.Background(), providers.GetIdentityChannel("user-1"))
	require.NoError(t, err)

	change := entities.NewHistoryChange("user-2", entities.HistoryChangeHydrated)
	require.NoError(t, bus.Publish(context.Background(), providers.GetIdentityChannel("user-2"), change))

	select {
	case unexpected := <-ch:
		t.Fatalf("received change %v on a different identity's channel", unexpected)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestMemoryEventBus_MultipleSubscribers(t *testing.T) {
	bus := NewMemoryEventBus()
	defer bus.Close()

	first, err := bus.Subscribe(context.Background(), providers.EventChannelHistoryUpdates)
	require.NoError(t, err)
	second, err := bus.Subscribe(context.Background(), providers.EventChannelHistoryUpdates)
	require.NoError(t, err)

	change := entities.NewHistoryChange("", entities.HistoryChangeCleared)
	require.NoError(t, bus.Publish(context.Background(), providers.EventChannelHistoryUpdates, change))

	assert.Equal(t, change.ID, receiveChange(t, first).ID)
	assert.Equal(t, change.ID, receiveChange(t, second).ID)
}

func TestMemoryEventBus_ContextCancelRemovesSubscriber(t *testing.T) {
	bus := NewMemoryEventBus()
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	ch, err := bus.Subscribe(ctx, providers.EventChannelHistoryUpdates)
	require.NoError(t, err)

	cancel()

	// The subscriber channel is closed once the removal goroutine runs.
	assert.Eventually(t, func() bool {
		select {
		case _, open := <-ch:
			return !open
		default:
			return false
		}
	}, time.Second, 10*time.Millisecond)
}

func TestMemoryEventBus_PublishAfterCloseIsNoop(t *testing.T) {
	bus := NewMemoryEventBus()
	require.NoError(t, bus.Close())

	change := entities.NewHistoryChange("", entities.HistoryChangeCleared)
	assert.NoError(t, bus.Publish(context.Background(), providers.EventChannelHistoryUpdates, change))
	assert.NoError(t, bus.Close())
}
