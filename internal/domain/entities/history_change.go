package entities

import (
	"crypto/rand"
	"encoding/hex"
	"time"
)

// HistoryChangeKind represents the kind of ledger change being broadcast
type HistoryChangeKind string

const (
	HistoryChangeCleared  HistoryChangeKind = "cleared"
	HistoryChangeHydrated HistoryChangeKind = "hydrated"
)

// HistoryChange is the payload-less change notification published after a
// full-history clear or a hydration. Observers re-read the ledger; the
// notification itself carries no state.
type HistoryChange struct {
	ID         string            `json:"id"`
	IdentityID string            `json:"identity_id,omitempty"`
	Kind       HistoryChangeKind `json:"kind"`
	Timestamp  time.Time         `json:"timestamp"`
}

// NewHistoryChange creates a new history change notification
func NewHistoryChange(identityID string, kind HistoryChangeKind) *HistoryChange {
	return &HistoryChange{
		ID:         generateEventID(),
		IdentityID: identityID,
		Kind:       kind,
		Timestamp:  time.Now(),
	}
}

// generateEventID generates a unique event ID
func generateEventID() string {
	return time.Now().Format("20060102150405") + "-" + randomString(8)
}

// randomString generates a random string of specified length
func randomString(length int) string {
	bytes := make([]byte, length/2+1)
	if _, err := rand.Read(bytes); err != nil {
		// Fallback to timestamp-based if crypto/rand fails
		return time.Now().Format("150405.000")
	}
	return hex.EncodeToString(bytes)[:length]
}
