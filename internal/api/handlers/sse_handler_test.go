package handlers_test

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cinetrail/backend/internal/adapters/events"
	"github.com/cinetrail/backend/internal/api/handlers"
	"github.com/cinetrail/backend/internal/domain/entities"
	"github.com/cinetrail/backend/internal/domain/providers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSSEHandler_StreamHistoryUpdates(t *testing.T) {
	eventBus := events.NewMemoryEventBus()
	defer eventBus.Close()
	handler := handlers.NewSSEHandler(eventBus)

	t.Run("should establish SSE connection", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		req := httptest.NewRequest("GET", "/api/stream/history", nil)
		req = req.WithContext(ctx)
		w := httptest.NewRecorder()

		done := make(chan struct{})
		go func() {
			handler.StreamHistoryUpdates(w, req)
			close(done)
		}()

		// Wait a bit for connection to establish
		time.Sleep(100 * time.Millisecond)

		cancel()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("handler did not exit after cancel")
		}

		result := w.Result()
		assert.Equal(t, "text/event-stream", result.Header.Get("Content-Type"))
		assert.Equal(t, "no-cache", result.Header.Get("Cache-Control"))
		assert.Contains(t, w.Body.String(), "event: connected")
	})

	t.Run("should forward change notifications", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		req := httptest.NewRequest("GET", "/api/stream/history", nil)
		req = req.WithContext(ctx)
		w := httptest.NewRecorder()

		done := make(chan struct{})
		go func() {
			handler.StreamHistoryUpdates(w, req)
			close(done)
		}()

		// Wait for the subscription before publishing
		time.Sleep(100 * time.Millisecond)

		change := entities.NewHistoryChange("", entities.HistoryChangeCleared)
		require.NoError(t, eventBus.Publish(context.Background(), providers.EventChannelHistoryUpdates, change))

		// Wait for the notification to be written
		time.Sleep(200 * time.Millisecond)

		cancel()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("handler did not exit after cancel")
		}

		assert.Contains(t, w.Body.String(), "event: cleared")
		assert.Contains(t, w.Body.String(), change.ID)
	})

	t.Run("should scope stream to the identity header", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		req := httptest.NewRequest("GET", "/api/stream/history", nil)
		req.Header.Set("X-Identity-ID", "user-sse-1")
		req = req.WithContext(ctx)
		w := httptest.NewRecorder()

		done := make(chan struct{})
		go func() {
			handler.StreamHistoryUpdates(w, req)
			close(done)
		}()

		time.Sleep(100 * time.Millisecond)

		// A change on another identity's channel must not reach this stream.
		other := entities.NewHistoryChange("user-sse-2", entities.HistoryChangeHydrated)
		require.NoError(t, eventBus.Publish(context.Background(), providers.GetIdentityChannel("user-sse-2"), other))

		mine := entities.NewHistoryChange("user-sse-1", entities.HistoryChangeHydrated)
		require.NoError(t, eventBus.Publish(context.Background(), providers.GetIdentityChannel("user-sse-1"), mine))

		time.Sleep(200 * time.Millisecond)

		cancel()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("handler did not exit after cancel")
		}

		assert.Contains(t, w.Body.String(), mine.ID)
		assert.NotContains(t, w.Body.String(), other.ID)
	})
}
