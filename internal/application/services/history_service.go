package services

import (
	"context"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/cinetrail/backend/internal/domain/entities"
	"github.com/cinetrail/backend/internal/domain/providers"
	"github.com/cinetrail/backend/internal/domain/repositories"
)

const mirrorWriteTimeout = 5 * time.Second

// LocalScope is the snapshot scope used for anonymous sessions.
const LocalScope = "local"

// HistoryService is the interaction ledger: an append-only event log bounded
// to the most recent 500 entries, with aggregates derived from it. Local
// state is authoritative; the remote mirror is a best-effort durability
// backstop written in the background.
type HistoryService struct {
	mu       sync.Mutex
	store    providers.SnapshotStore
	mirror   repositories.HistoryMirrorRepository
	bus      providers.EventBus
	identity string
	scope    string
	state    *entities.HistoryState

	now func() time.Time
}

// NewHistoryService creates a ledger for one identity. mirror and bus may be
// nil; identityID may be empty for anonymous sessions, in which case the
// mirror is never touched and snapshots persist under the local scope.
func NewHistoryService(store providers.SnapshotStore, mirror repositories.HistoryMirrorRepository, bus providers.EventBus, identityID string) *HistoryService {
	scope := identityID
	if scope == "" {
		scope = LocalScope
	}

	s := &HistoryService{
		store:    store,
		mirror:   mirror,
		bus:      bus,
		identity: identityID,
		scope:    scope,
		now:      time.Now,
	}

	state, err := store.Load(scope)
	if err != nil || state == nil {
		if err != nil {
			log.Printf("Warning: failed to load history snapshot for %s: %v", scope, err)
		}
		state = entities.NewHistoryState()
	}
	state.Normalize()
	// A tampered or legacy snapshot must not desync the aggregates.
	rebuildAggregates(state)
	s.state = state

	return s
}

// LogMovieOpen records the user opening a movie's detail view.
func (s *HistoryService) LogMovieOpen(movieID int, title string, genres []int) {
	s.appendEvent(entities.HistoryEvent{
		Type:    entities.EventMovieOpen,
		MovieID: &movieID,
		Title:   title,
		Genres:  copyGenres(genres),
	})
}

// LogTrailerPlay records a trailer playback.
func (s *HistoryService) LogTrailerPlay(movieID int, title string, genres []int) {
	s.appendEvent(entities.HistoryEvent{
		Type:    entities.EventTrailerPlay,
		MovieID: &movieID,
		Title:   title,
		Genres:  copyGenres(genres),
	})
}

// LogExternalSearch records the user following an external search link.
// movieID is optional.
func (s *HistoryService) LogExternalSearch(title string, movieID *int) {
	var id *int
	if movieID != nil {
		v := *movieID
		id = &v
	}
	s.appendEvent(entities.HistoryEvent{
		Type:    entities.EventExternalSearch,
		MovieID: id,
		Title:   title,
	})
}

// LogQuery records a search query. Queries that are empty after trimming are
// ignored.
func (s *HistoryService) LogQuery(query string) {
	if entities.NormalizeQuery(query) == "" {
		return
	}
	s.appendEvent(entities.HistoryEvent{
		Type:  entities.EventQuery,
		Query: query,
	})
}

func (s *HistoryService) appendEvent(event entities.HistoryEvent) {
	event.Timestamp = s.now().UnixMilli()

	s.mu.Lock()
	s.state.Events = append(s.state.Events, event)
	if overflow := len(s.state.Events) - entities.MaxHistoryEvents; overflow > 0 {
		s.state.Events = append([]entities.HistoryEvent{}, s.state.Events[overflow:]...)
	}
	rebuildAggregates(s.state)
	s.persistLocked()
	s.mu.Unlock()

	s.mirrorEvent(event)
}

// mirrorEvent writes the event to the remote mirror in the background. The
// caller never waits on it and never observes a failure.
func (s *HistoryService) mirrorEvent(event entities.HistoryEvent) {
	if s.mirror == nil || s.identity == "" {
		return
	}
	go func() {
		// Fresh context: the request that triggered the log call may already
		// be done by the time this runs.
		ctx, cancel := context.WithTimeout(context.Background(), mirrorWriteTimeout)
		defer cancel()

		if err := s.mirror.Insert(ctx, s.identity, &event); err != nil {
			log.Printf("Warning: failed to mirror history event: %v", err)
		}
	}()
}

// Read returns a snapshot of the current ledger state. The returned value is
// a copy; callers may not mutate the ledger through it.
func (s *HistoryService) Read() *entities.HistoryState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneState(s.state)
}

// DeleteEventAt removes the event at the given position in insertion order.
// Out-of-range indexes are a silent no-op.
func (s *HistoryService) DeleteEventAt(index int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.state.Events) {
		return
	}
	s.state.Events = append(s.state.Events[:index:index], s.state.Events[index+1:]...)
	rebuildAggregates(s.state)
	s.persistLocked()
}

// DeleteEventsWhere removes every event matching the predicate and returns
// how many were removed.
func (s *HistoryService) DeleteEventsWhere(predicate func(entities.HistoryEvent) bool) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.state.Events[:0:0]
	for _, ev := range s.state.Events {
		if !predicate(ev) {
			kept = append(kept, ev)
		}
	}
	removed := len(s.state.Events) - len(kept)
	if removed == 0 {
		return 0
	}
	s.state.Events = kept
	rebuildAggregates(s.state)
	s.persistLocked()
	return removed
}

// ClearAll empties the ledger, deletes the remote mirror rows for the
// identity in the background, and notifies subscribers.
func (s *HistoryService) ClearAll(ctx context.Context) {
	s.mu.Lock()
	s.state = entities.NewHistoryState()
	if err := s.store.Clear(s.scope); err != nil {
		log.Printf("Warning: failed to clear history snapshot for %s: %v", s.scope, err)
	}
	s.mu.Unlock()

	if s.mirror != nil && s.identity != "" {
		go func() {
			bgCtx, cancel := context.WithTimeout(context.Background(), mirrorWriteTimeout)
			defer cancel()
			if err := s.mirror.DeleteAll(bgCtx, s.identity); err != nil {
				log.Printf("Warning: failed to clear mirrored history: %v", err)
			}
		}()
	}

	s.publishChange(ctx, entities.HistoryChangeCleared)
}

// Hydrate replaces the local event log with the identity's remotely mirrored
// events (ordered by timestamp ascending) and rebuilds the aggregates. A
// fetch failure leaves local state unchanged. Hydrating twice against the
// same remote data yields identical local state.
func (s *HistoryService) Hydrate(ctx context.Context) *entities.HistoryState {
	if s.mirror == nil || s.identity == "" {
		return s.Read()
	}

	events, err := s.mirror.ListByIdentity(ctx, s.identity)
	if err != nil {
		log.Printf("Warning: failed to hydrate history for %s: %v", s.identity, err)
		return s.Read()
	}

	s.mu.Lock()
	s.state = entities.NewHistoryState()
	s.state.Events = append(s.state.Events, events...)
	if overflow := len(s.state.Events) - entities.MaxHistoryEvents; overflow > 0 {
		s.state.Events = append([]entities.HistoryEvent{}, s.state.Events[overflow:]...)
	}
	rebuildAggregates(s.state)
	s.persistLocked()
	snapshot := cloneState(s.state)
	s.mu.Unlock()

	s.publishChange(ctx, entities.HistoryChangeHydrated)
	return snapshot
}

// TopGenres returns genre ids ordered by descending frequency across all
// events that carry genres. Ties order by ascending genre id. When no event
// carries genre data the caller-supplied fallback is returned.
func (s *HistoryService) TopGenres(fallback []int) []int {
	s.mu.Lock()
	defer s.mu.Unlock()

	counts := map[int]int{}
	for _, ev := range s.state.Events {
		for _, g := range ev.Genres {
			counts[g]++
		}
	}
	if len(counts) == 0 {
		return fallback
	}

	genres := make([]int, 0, len(counts))
	for g := range counts {
		genres = append(genres, g)
	}
	sort.Slice(genres, func(i, j int) bool {
		if counts[genres[i]] != counts[genres[j]] {
			return counts[genres[i]] > counts[genres[j]]
		}
		return genres[i] < genres[j]
	})
	return genres
}

func (s *HistoryService) publishChange(ctx context.Context, kind entities.HistoryChangeKind) {
	if s.bus == nil {
		return
	}
	change := entities.NewHistoryChange(s.identity, kind)
	if err := s.bus.Publish(ctx, providers.EventChannelHistoryUpdates, change); err != nil {
		log.Printf("Warning: failed to publish history change: %v", err)
	}
	if s.identity != "" {
		if err := s.bus.Publish(ctx, providers.GetIdentityChannel(s.identity), change); err != nil {
			log.Printf("Warning: failed to publish history change: %v", err)
		}
	}
}

func (s *HistoryService) persistLocked() {
	if err := s.store.Save(s.scope, s.state); err != nil {
		log.Printf("Warning: failed to persist history snapshot for %s: %v", s.scope, err)
	}
}

// rebuildAggregates recomputes every derived aggregate from the event log.
// It is the only code path that touches the aggregates, so the incremental
// and full-rebuild flavors cannot drift apart.
func rebuildAggregates(state *entities.HistoryState) {
	seen := map[string]int64{}
	queryCounts := map[string]int{}
	externalSearches := 0

	for _, ev := range state.Events {
		if ev.MovieID != nil {
			key := entities.MovieKey(*ev.MovieID)
			if last, ok := seen[key]; !ok || ev.Timestamp >= last {
				seen[key] = ev.Timestamp
			}
		}
		switch ev.Type {
		case entities.EventQuery:
			if q := entities.NormalizeQuery(ev.Query); q != "" {
				queryCounts[q]++
			}
		case entities.EventExternalSearch:
			externalSearches++
		}
	}

	state.SeenMovies = seen
	state.QueryCounts = queryCounts
	state.ExternalSearches = externalSearches
}

func cloneState(state *entities.HistoryState) *entities.HistoryState {
	clone := &entities.HistoryState{
		Events:           make([]entities.HistoryEvent, len(state.Events)),
		SeenMovies:       make(map[string]int64, len(state.SeenMovies)),
		QueryCounts:      make(map[string]int, len(state.QueryCounts)),
		ExternalSearches: state.ExternalSearches,
	}
	for i, ev := range state.Events {
		clone.Events[i] = ev
		if ev.MovieID != nil {
			id := *ev.MovieID
			clone.Events[i].MovieID = &id
		}
		clone.Events[i].Genres = copyGenres(ev.Genres)
	}
	for k, v := range state.SeenMovies {
		clone.SeenMovies[k] = v
	}
	for k, v := range state.QueryCounts {
		clone.QueryCounts[k] = v
	}
	return clone
}

func copyGenres(genres []int) []int {
	if genres == nil {
		return nil
	}
	return append([]int(nil), genres...)
}
