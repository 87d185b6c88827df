package repositories

import (
	"context"

	"github.com/cinetrail/backend/internal/domain/entities"
)

// HistoryMirrorRepository is the remote row-store that mirrors the local
// ledger per identity. It is a durability backstop only: writes are
// best-effort and the local ledger stays authoritative for a running session.
type HistoryMirrorRepository interface {
	// Insert mirrors a single event for the identity.
	Insert(ctx context.Context, identityID string, event *entities.HistoryEvent) error

	// ListByIdentity returns all mirrored events for the identity ordered by
	// timestamp ascending.
	ListByIdentity(ctx context.Context, identityID string) ([]entities.HistoryEvent, error)

	// DeleteAll removes every mirrored event for the identity.
	DeleteAll(ctx context.Context, identityID string) error
}
