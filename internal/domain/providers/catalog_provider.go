package providers

import (
	"context"

	"github.com/cinetrail/backend/internal/domain/entities"
)

// CatalogProvider defines the interface for the external movie-metadata
// source. The ranking core only consumes candidate snapshots; it never
// fetches or caches catalog data itself.
type CatalogProvider interface {
	// Trending returns a page of currently trending candidates.
	Trending(ctx context.Context, limit int) ([]entities.Candidate, error)

	// GetByIDs returns candidates for the given catalog ids, skipping unknown ids.
	GetByIDs(ctx context.Context, ids []int) ([]entities.Candidate, error)
}
