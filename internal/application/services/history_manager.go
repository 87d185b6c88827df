package services

import (
	"sync"

	"github.com/cinetrail/backend/internal/domain/providers"
	"github.com/cinetrail/backend/internal/domain/repositories"
)

// HistoryManager hands out one ledger per identity. Anonymous requests share
// the local-scope ledger.
type HistoryManager struct {
	mu      sync.Mutex
	store   providers.SnapshotStore
	mirror  repositories.HistoryMirrorRepository
	bus     providers.EventBus
	ledgers map[string]*HistoryService
}

// NewHistoryManager creates a new history manager
func NewHistoryManager(store providers.SnapshotStore, mirror repositories.HistoryMirrorRepository, bus providers.EventBus) *HistoryManager {
	return &HistoryManager{
		store:   store,
		mirror:  mirror,
		bus:     bus,
		ledgers: make(map[string]*HistoryService),
	}
}

// For returns the ledger for the given identity, creating it on first use.
func (m *HistoryManager) For(identityID string) *HistoryService {
	key := identityID
	if key == "" {
		key = LocalScope
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if ledger, ok := m.ledgers[key]; ok {
		return ledger
	}
	ledger := NewHistoryService(m.store, m.mirror, m.bus, identityID)
	m.ledgers[key] = ledger
	return ledger
}
