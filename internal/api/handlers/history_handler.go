package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/cinetrail/backend/internal/application/services"
	"github.com/cinetrail/backend/internal/domain/entities"
)

// identityHeader carries the authenticated identity id. Authentication
// itself is owned by the hosted platform; the backend only scopes state by
// whatever identity the gateway forwards.
const identityHeader = "X-Identity-ID"

// HistoryHandler exposes the interaction ledger over HTTP.
type HistoryHandler struct {
	manager *services.HistoryManager
}

// NewHistoryHandler creates a new history handler
func NewHistoryHandler(manager *services.HistoryManager) *HistoryHandler {
	return &HistoryHandler{manager: manager}
}

type logEventRequest struct {
	Type    string `json:"type"`
	MovieID *int   `json:"movieId,omitempty"`
	Title   string `json:"title,omitempty"`
	Genres  []int  `json:"genres,omitempty"`
	Query   string `json:"query,omitempty"`
}

// LogEvent handles POST /api/history/events
func (h *HistoryHandler) LogEvent(w http.ResponseWriter, r *http.Request) {
	var payload logEventRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	ledger := h.ledger(r)

	switch entities.EventType(payload.Type) {
	case entities.EventMovieOpen:
		if payload.MovieID == nil {
			respondWithError(w, http.StatusBadRequest, "movieId is required for movie_open")
			return
		}
		ledger.LogMovieOpen(*payload.MovieID, payload.Title, payload.Genres)
	case entities.EventTrailerPlay:
		if payload.MovieID == nil {
			respondWithError(w, http.StatusBadRequest, "movieId is required for trailer_play")
			return
		}
		ledger.LogTrailerPlay(*payload.MovieID, payload.Title, payload.Genres)
	case entities.EventExternalSearch:
		ledger.LogExternalSearch(payload.Title, payload.MovieID)
	case entities.EventQuery:
		// Empty queries are a silent no-op in the ledger itself.
		ledger.LogQuery(payload.Query)
	default:
		respondWithError(w, http.StatusBadRequest, "unknown event type")
		return
	}

	respondWithJSON(w, http.StatusCreated, map[string]string{
		"status": "recorded",
	})
}

// GetHistory handles GET /api/history
func (h *HistoryHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, h.ledger(r).Read())
}

// DeleteEventAt handles DELETE /api/history/events/{index}
func (h *HistoryHandler) DeleteEventAt(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid event index")
		return
	}

	// Out-of-range indexes are a silent no-op, mirroring the ledger contract.
	h.ledger(r).DeleteEventAt(index)
	w.WriteHeader(http.StatusNoContent)
}

// DeleteEvents handles DELETE /api/history/events with optional filters.
// Supported query parameters: type, movieId, query. With no filters every
// event matches.
func (h *HistoryHandler) DeleteEvents(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()

	eventType := params.Get("type")
	queryText := entities.NormalizeQuery(params.Get("query"))
	var movieID *int
	if raw := params.Get("movieId"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "invalid movieId filter")
			return
		}
		movieID = &id
	}

	removed := h.ledger(r).DeleteEventsWhere(func(ev entities.HistoryEvent) bool {
		if eventType != "" && string(ev.Type) != eventType {
			return false
		}
		if movieID != nil && (ev.MovieID == nil || *ev.MovieID != *movieID) {
			return false
		}
		if queryText != "" && entities.NormalizeQuery(ev.Query) != queryText {
			return false
		}
		return true
	})

	respondWithJSON(w, http.StatusOK, map[string]int{
		"removed": removed,
	})
}

// ClearHistory handles DELETE /api/history
func (h *HistoryHandler) ClearHistory(w http.ResponseWriter, r *http.Request) {
	h.ledger(r).ClearAll(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

// Hydrate handles POST /api/history/hydrate
func (h *HistoryHandler) Hydrate(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, h.ledger(r).Hydrate(r.Context()))
}

// TopGenres handles GET /api/history/top-genres?fallback=28,12
func (h *HistoryHandler) TopGenres(w http.ResponseWriter, r *http.Request) {
	var fallback []int
	if raw := r.URL.Query().Get("fallback"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			id, err := strconv.Atoi(strings.TrimSpace(part))
			if err != nil {
				respondWithError(w, http.StatusBadRequest, "invalid fallback genre list")
				return
			}
			fallback = append(fallback, id)
		}
	}

	genres := h.ledger(r).TopGenres(fallback)
	if genres == nil {
		genres = []int{}
	}
	respondWithJSON(w, http.StatusOK, map[string][]int{
		"genres": genres,
	})
}

func (h *HistoryHandler) ledger(r *http.Request) *services.HistoryService {
	return h.manager.For(r.Header.Get(identityHeader))
}

// Helper functions
func respondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}

func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	respondWithJSON(w, statusCode, map[string]string{
		"error": message,
	})
}
