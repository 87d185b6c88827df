package entities

import (
	"strconv"
	"strings"
)

// EventType identifies the kind of interaction a HistoryEvent records.
type EventType string

const (
	EventMovieOpen      EventType = "movie_open"
	EventTrailerPlay    EventType = "trailer_play"
	EventExternalSearch EventType = "external_search"
	EventQuery          EventType = "query"
)

// HistoryEvent is a single recorded user interaction. Only the fields relevant
// to Type are populated; the rest stay at their zero value.
type HistoryEvent struct {
	Type      EventType `json:"type" db:"event_type"`
	Timestamp int64     `json:"ts" db:"ts"`
	MovieID   *int      `json:"movieId,omitempty" db:"movie_id"`
	Title     string    `json:"title,omitempty" db:"title"`
	Genres    []int     `json:"genres,omitempty" db:"genres"`
	Query     string    `json:"query,omitempty" db:"query"`
}

// MaxHistoryEvents bounds the event log. On overflow the oldest events are
// dropped first.
const MaxHistoryEvents = 500

// HistoryState is the ledger's persisted shape: the event log plus aggregates
// derived from it. The aggregates are a pure projection of Events and must be
// reconstructible from Events alone.
type HistoryState struct {
	Events           []HistoryEvent   `json:"events"`
	SeenMovies       map[string]int64 `json:"seenMovieIds"`
	QueryCounts      map[string]int   `json:"queryCounts"`
	ExternalSearches int              `json:"externalSearchCount"`
}

// NewHistoryState returns an empty, well-formed ledger state.
func NewHistoryState() *HistoryState {
	return &HistoryState{
		Events:      []HistoryEvent{},
		SeenMovies:  map[string]int64{},
		QueryCounts: map[string]int{},
	}
}

// Normalize coerces missing collections to empty ones so that state decoded
// from a partial or legacy snapshot is always safe to use.
func (s *HistoryState) Normalize() {
	if s.Events == nil {
		s.Events = []HistoryEvent{}
	}
	if s.SeenMovies == nil {
		s.SeenMovies = map[string]int64{}
	}
	if s.QueryCounts == nil {
		s.QueryCounts = map[string]int{}
	}
}

// MovieKey is the SeenMovies map key for a movie id.
func MovieKey(movieID int) string {
	return strconv.Itoa(movieID)
}

// NormalizeQuery is the aggregation key for query events: trimmed and
// lower-cased, so "Inception " and "inception" count together.
func NormalizeQuery(q string) string {
	return strings.ToLower(strings.TrimSpace(q))
}
