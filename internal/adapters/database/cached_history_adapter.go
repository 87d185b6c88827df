package database

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/cinetrail/backend/internal/domain/entities"
	"github.com/cinetrail/backend/internal/domain/providers"
	"github.com/cinetrail/backend/internal/domain/repositories"
)

// CachedHistoryMirrorAdapter wraps the mirror with read caching. Hydration
// is the only read path, so the cache just cushions repeated hydrations
// across views; writes invalidate the identity's entry.
type CachedHistoryMirrorAdapter struct {
	adapter repositories.HistoryMirrorRepository
	cache   providers.CacheProvider
}

// NewCachedHistoryMirrorAdapter creates a new cached history mirror adapter
func NewCachedHistoryMirrorAdapter(adapter repositories.HistoryMirrorRepository, cache providers.CacheProvider) repositories.HistoryMirrorRepository {
	return &CachedHistoryMirrorAdapter{
		adapter: adapter,
		cache:   cache,
	}
}

// mirrorListTTL is short: the mirror is a durability backstop, not a source
// of truth, and stale reads only delay cross-device reconciliation.
const mirrorListTTL = 60

func mirrorCacheKey(identityID string) string {
	return fmt.Sprintf("history:mirror:%s", identityID)
}

// Insert mirrors the event and invalidates the identity's cached listing.
func (a *CachedHistoryMirrorAdapter) Insert(ctx context.Context, identityID string, event *entities.HistoryEvent) error {
	if err := a.adapter.Insert(ctx, identityID, event); err != nil {
		return err
	}
	a.invalidate(ctx, identityID)
	return nil
}

// ListByIdentity returns mirrored events, from cache when possible.
func (a *CachedHistoryMirrorAdapter) ListByIdentity(ctx context.Context, identityID string) ([]entities.HistoryEvent, error) {
	cacheKey := mirrorCacheKey(identityID)

	if cached, err := a.cache.Get(ctx, cacheKey); err == nil {
		var events []entities.HistoryEvent
		if err := json.Unmarshal(cached, &events); err == nil {
			return events, nil
		}
		log.Printf("Failed to unmarshal cached history for %s", identityID)
	}

	events, err := a.adapter.ListByIdentity(ctx, identityID)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(events); err == nil {
		if err := a.cache.Set(ctx, cacheKey, data, mirrorListTTL); err != nil {
			log.Printf("Failed to cache history for %s: %v", identityID, err)
		}
	}

	return events, nil
}

// DeleteAll clears the mirror and the cached listing.
func (a *CachedHistoryMirrorAdapter) DeleteAll(ctx context.Context, identityID string) error {
	if err := a.adapter.DeleteAll(ctx, identityID); err != nil {
		return err
	}
	a.invalidate(ctx, identityID)
	return nil
}

func (a *CachedHistoryMirrorAdapter) invalidate(ctx context.Context, identityID string) {
	if err := a.cache.Delete(ctx, mirrorCacheKey(identityID)); err != nil {
		log.Printf("Failed to invalidate cached history for %s: %v", identityID, err)
	}
}
