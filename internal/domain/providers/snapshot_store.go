package providers

import (
	"github.com/cinetrail/backend/internal/domain/entities"
)

// SnapshotStore is the local, single-blob persistence for the ledger: one
// serialized HistoryState per scope key. Implementations must degrade
// gracefully — a missing key, malformed blob, or unavailable store yields a
// well-formed empty state on load, and load/save never return an error to
// the ledger's callers beyond what the service chooses to swallow.
type SnapshotStore interface {
	// Load returns the persisted state for the scope, or an empty state when
	// nothing usable is stored.
	Load(scope string) (*entities.HistoryState, error)

	// Save persists the state for the scope, replacing any previous blob.
	Save(scope string, state *entities.HistoryState) error

	// Clear removes the persisted blob for the scope.
	Clear(scope string) error
}
