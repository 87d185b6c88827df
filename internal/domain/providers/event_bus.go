package providers

import (
	"context"

	"github.com/cinetrail/backend/internal/domain/entities"
)

// EventBus defines the interface for publishing and subscribing to
// history-change notifications. Subscriptions are explicit: a view that wants
// to react to ledger changes subscribes and re-reads state on delivery.
type EventBus interface {
	// Publish publishes a change notification to all subscribers
	Publish(ctx context.Context, channel string, change *entities.HistoryChange) error

	// Subscribe subscribes to change notifications on a channel
	Subscribe(ctx context.Context, channel string) (<-chan *entities.HistoryChange, error)

	// Unsubscribe unsubscribes from a channel
	Unsubscribe(ctx context.Context, channel string) error

	// Close closes the event bus and all subscriptions
	Close() error
}

// EventChannel constants for ledger change notifications
const (
	// EventChannelHistoryUpdates is the channel for all history changes
	EventChannelHistoryUpdates = "history:updates"

	// EventChannelIdentityPrefix is the prefix for per-identity channels
	EventChannelIdentityPrefix = "history:"
)

// GetIdentityChannel returns the channel name for a specific identity
func GetIdentityChannel(identityID string) string {
	return EventChannelIdentityPrefix + identityID
}
