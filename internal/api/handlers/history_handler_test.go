package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cinetrail/backend/internal/api/handlers"
	"github.com/cinetrail/backend/internal/application/services"
	"github.com/cinetrail/backend/internal/domain/entities"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStore struct {
	snapshots map[string]*entities.HistoryState
}

func newMemoryStore() *memoryStore {
	return &memoryStore{snapshots: map[string]*entities.HistoryState{}}
}

func (m *memoryStore) Load(scope string) (*entities.HistoryState, error) {
	if state, ok := m.snapshots[scope]; ok {
		return state, nil
	}
	return entities.NewHistoryState(), nil
}

func (m *memoryStore) Save(scope string, state *entities.HistoryState) error {
	m.snapshots[scope] = state
	return nil
}

func (m *memoryStore) Clear(scope string) error {
	delete(m.snapshots, scope)
	return nil
}

func newHistoryHandler() *handlers.HistoryHandler {
	manager := services.NewHistoryManager(newMemoryStore(), nil, nil)
	return handlers.NewHistoryHandler(manager)
}

func postEvent(t *testing.T, handler *handlers.HistoryHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("POST", "/api/history/events", strings.NewReader(body))
	w := httptest.NewRecorder()
	handler.LogEvent(w, req)
	return w
}

func TestHistoryHandler_LogEvent_MovieOpen(t *testing.T) {
	handler := newHistoryHandler()

	w := postEvent(t, handler, `{"type":"movie_open","movieId":42,"title":"The Answer","genres":[28,878]}`)
	assert.Equal(t, http.StatusCreated, w.Code)

	req := httptest.NewRequest("GET", "/api/history", nil)
	w = httptest.NewRecorder()
	handler.GetHistory(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var state entities.HistoryState
	require.NoError(t, json.NewDecoder(w.Body).Decode(&state))
	require.Len(t, state.Events, 1)
	assert.Equal(t, entities.EventMovieOpen, state.Events[0].Type)
	assert.Contains(t, state.SeenMovies, "42")
}

func TestHistoryHandler_LogEvent_RejectsUnknownType(t *testing.T) {
	handler := newHistoryHandler()

	w := postEvent(t, handler, `{"type":"added_to_watchlist","movieId":42}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHistoryHandler_LogEvent_MovieOpenRequiresMovieID(t *testing.T) {
	handler := newHistoryHandler()

	w := postEvent(t, handler, `{"type":"movie_open","title":"No ID"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHistoryHandler_LogEvent_EmptyQueryIsAccepted(t *testing.T) {
	handler := newHistoryHandler()

	// The ledger drops it silently; the API does not error.
	w := postEvent(t, handler, `{"type":"query","query":"   "}`)
	assert.Equal(t, http.StatusCreated, w.Code)

	req := httptest.NewRequest("GET", "/api/history", nil)
	rec := httptest.NewRecorder()
	handler.GetHistory(rec, req)

	var state entities.HistoryState
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&state))
	assert.Empty(t, state.Events)
}

func TestHistoryHandler_IdentityScopesState(t *testing.T) {
	handler := newHistoryHandler()

	req := httptest.NewRequest("POST", "/api/history/events", strings.NewReader(`{"type":"query","query":"dune"}`))
	req.Header.Set("X-Identity-ID", "user-1")
	w := httptest.NewRecorder()
	handler.LogEvent(w, req)
	require.Equal(t, http.StatusCreated, w.Code)

	// Anonymous view sees nothing.
	req = httptest.NewRequest("GET", "/api/history", nil)
	w = httptest.NewRecorder()
	handler.GetHistory(w, req)
	var state entities.HistoryState
	require.NoError(t, json.NewDecoder(w.Body).Decode(&state))
	assert.Empty(t, state.Events)

	// The identity's view has the event.
	req = httptest.NewRequest("GET", "/api/history", nil)
	req.Header.Set("X-Identity-ID", "user-1")
	w = httptest.NewRecorder()
	handler.GetHistory(w, req)
	require.NoError(t, json.NewDecoder(w.Body).Decode(&state))
	assert.Len(t, state.Events, 1)
}

func TestHistoryHandler_DeleteEventAt(t *testing.T) {
	handler := newHistoryHandler()
	postEvent(t, handler, `{"type":"movie_open","movieId":42,"title":"The Answer"}`)

	req := httptest.NewRequest("DELETE", "/api/history/events/0", nil)
	req.SetPathValue("index", "0")
	w := httptest.NewRecorder()
	handler.DeleteEventAt(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestHistoryHandler_DeleteEventAt_InvalidIndex(t *testing.T) {
	handler := newHistoryHandler()

	req := httptest.NewRequest("DELETE", "/api/history/events/abc", nil)
	req.SetPathValue("index", "abc")
	w := httptest.NewRecorder()
	handler.DeleteEventAt(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHistoryHandler_DeleteEvents_FiltersByType(t *testing.T) {
	handler := newHistoryHandler()
	postEvent(t, handler, `{"type":"query","query":"dune"}`)
	postEvent(t, handler, `{"type":"query","query":"matrix"}`)
	postEvent(t, handler, `{"type":"movie_open","movieId":1,"title":"One"}`)

	req := httptest.NewRequest("DELETE", "/api/history/events?type=query", nil)
	w := httptest.NewRecorder()
	handler.DeleteEvents(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var response map[string]int
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, 2, response["removed"])
}

func TestHistoryHandler_ClearHistory(t *testing.T) {
	handler := newHistoryHandler()
	postEvent(t, handler, `{"type":"query","query":"dune"}`)

	req := httptest.NewRequest("DELETE", "/api/history", nil)
	w := httptest.NewRecorder()
	handler.ClearHistory(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)

	req = httptest.NewRequest("GET", "/api/history", nil)
	w = httptest.NewRecorder()
	handler.GetHistory(w, req)
	var state entities.HistoryState
	require.NoError(t, json.NewDecoder(w.Body).Decode(&state))
	assert.Empty(t, state.Events)
}

func TestHistoryHandler_TopGenres_Fallback(t *testing.T) {
	handler := newHistoryHandler()

	req := httptest.NewRequest("GET", "/api/history/top-genres?fallback=28,12", nil)
	w := httptest.NewRecorder()
	handler.TopGenres(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var response map[string][]int
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, []int{28, 12}, response["genres"])
}

func TestHistoryHandler_TopGenres_FromHistory(t *testing.T) {
	handler := newHistoryHandler()
	postEvent(t, handler, `{"type":"movie_open","movieId":1,"title":"One","genres":[28,12]}`)
	postEvent(t, handler, `{"type":"movie_open","movieId":2,"title":"Two","genres":[28]}`)

	req := httptest.NewRequest("GET", "/api/history/top-genres", nil)
	w := httptest.NewRecorder()
	handler.TopGenres(w, req)

	var response map[string][]int
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, []int{28, 12}, response["genres"])
}
