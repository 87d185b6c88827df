package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/cinetrail/backend/internal/domain/entities"
	"github.com/cinetrail/backend/internal/domain/providers"
)

// SSEHandler streams ledger change notifications so other open views can
// re-read history state when it is cleared or hydrated elsewhere.
type SSEHandler struct {
	eventBus providers.EventBus
	clients  map[string]map[chan *entities.HistoryChange]bool // channel -> clients
	mu       sync.RWMutex
}

// NewSSEHandler creates a new SSE handler
func NewSSEHandler(eventBus providers.EventBus) *SSEHandler {
	return &SSEHandler{
		eventBus: eventBus,
		clients:  make(map[string]map[chan *entities.HistoryChange]bool),
	}
}

// StreamHistoryUpdates handles SSE connections for ledger change
// notifications. With an X-Identity-ID header the stream is scoped to that
// identity; otherwise it carries all history changes.
// GET /api/stream/history
func (h *SSEHandler) StreamHistoryUpdates(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		respondWithError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	// Set headers for SSE
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	channel := providers.EventChannelHistoryUpdates
	identityID := r.Header.Get(identityHeader)
	if identityID != "" {
		channel = providers.GetIdentityChannel(identityID)
	}

	// Create client channel
	clientChan := make(chan *entities.HistoryChange, 10)

	// Register client
	h.registerClient(channel, clientChan)
	defer h.unregisterClient(channel, clientChan)

	// Subscribe to change notifications
	eventChan, err := h.eventBus.Subscribe(r.Context(), channel)
	if err != nil {
		log.Printf("Failed to subscribe to channel %s: %v", channel, err)
		return
	}

	// Send initial connection event
	h.sendEvent(w, "connected", map[string]interface{}{
		"channel":   channel,
		"timestamp": time.Now(),
	})

	// Flush to send the initial event
	flusher.Flush()

	// Start forwarding notifications
	go h.forwardChanges(r.Context(), eventChan, clientChan)

	// Keep connection alive and send notifications
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			log.Printf("Client disconnected from history stream: %s", channel)
			return
		case <-ticker.C:
			// Send heartbeat
			h.sendEvent(w, "heartbeat", map[string]interface{}{
				"timestamp": time.Now(),
			})
			flusher.Flush()
		case change := <-clientChan:
			if change == nil {
				continue
			}
			// Payload-less by design: clients re-read /api/history
			h.sendEvent(w, string(change.Kind), change)
			flusher.Flush()
		}
	}
}

// forwardChanges forwards notifications from the event bus to a client channel
func (h *SSEHandler) forwardChanges(ctx context.Context, eventChan <-chan *entities.HistoryChange, clientChan chan<- *entities.HistoryChange) {
	for {
		select {
		case <-ctx.Done():
			return
		case change, ok := <-eventChan:
			if !ok {
				return
			}
			select {
			case clientChan <- change:
			default:
				// Client channel full, skip notification
			}
		}
	}
}

// registerClient registers a client channel for a given bus channel
func (h *SSEHandler) registerClient(channel string, clientChan chan *entities.HistoryChange) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[channel] == nil {
		h.clients[channel] = make(map[chan *entities.HistoryChange]bool)
	}
	h.clients[channel][clientChan] = true
}

// unregisterClient removes a client channel
func (h *SSEHandler) unregisterClient(channel string, clientChan chan *entities.HistoryChange) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, ok := h.clients[channel]; ok {
		delete(clients, clientChan)
		if len(clients) == 0 {
			delete(h.clients, channel)
		}
	}
}

// sendEvent writes a single SSE event to the response
func (h *SSEHandler) sendEvent(w http.ResponseWriter, eventType string, data interface{}) {
	payload, err := json.Marshal(data)
	if err != nil {
		log.Printf("Failed to marshal SSE event: %v", err)
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", eventType, payload)
}

// GetClientCount returns the number of connected SSE clients
func (h *SSEHandler) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	count := 0
	for _, clients := range h.clients {
		count += len(clients)
	}
	return count
}
