package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cinetrail/backend/internal/adapters/providers/catalog"
	"github.com/cinetrail/backend/internal/api/handlers"
	"github.com/cinetrail/backend/internal/application/services"
	"github.com/cinetrail/backend/internal/domain/entities"
	"github.com/cinetrail/backend/internal/domain/providers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rankResponse struct {
	Results []entities.RankedCandidate `json:"results"`
	Count   int                        `json:"count"`
}

func newRankingHandler(provider providers.CatalogProvider) (*handlers.RankingHandler, *services.HistoryManager) {
	manager := services.NewHistoryManager(newMemoryStore(), nil, nil)
	return handlers.NewRankingHandler(services.NewRankingService(), manager, provider), manager
}

func postRank(t *testing.T, handler *handlers.RankingHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("POST", "/api/rank", strings.NewReader(body))
	w := httptest.NewRecorder()
	handler.Rank(w, req)
	return w
}

func TestRankingHandler_RanksProvidedCandidates(t *testing.T) {
	handler, _ := newRankingHandler(nil)

	w := postRank(t, handler, `{"candidates":[
		{"id":1,"title":"Low","genre_ids":[28],"vote_average":3.0,"popularity":5},
		{"id":2,"title":"High","genre_ids":[18],"vote_average":9.0,"popularity":500}
	]}`)

	assert.Equal(t, http.StatusOK, w.Code)
	var response rankResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	require.Equal(t, 2, response.Count)
	assert.Equal(t, 2, response.Results[0].Candidate.ID)
	assert.Greater(t, response.Results[0].Score, response.Results[1].Score)
}

func TestRankingHandler_EmptyCandidatesUsesTrending(t *testing.T) {
	handler, _ := newRankingHandler(catalog.NewMockCatalogProvider())

	w := postRank(t, handler, `{"candidates":[]}`)

	assert.Equal(t, http.StatusOK, w.Code)
	var response rankResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Greater(t, response.Count, 0)
}

func TestRankingHandler_EmptyCandidatesWithoutCatalog(t *testing.T) {
	handler, _ := newRankingHandler(nil)

	w := postRank(t, handler, `{"candidates":[]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRankingHandler_InvalidPayload(t *testing.T) {
	handler, _ := newRankingHandler(nil)

	w := postRank(t, handler, `{"candidates":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRankingHandler_SeenMoviesRankLower(t *testing.T) {
	handler, manager := newRankingHandler(nil)
	manager.For("user-1").LogMovieOpen(1, "Seen", []int{28})

	body := `{"candidates":[
		{"id":1,"title":"Seen","genre_ids":[18],"vote_average":7.0,"popularity":50},
		{"id":2,"title":"Fresh","genre_ids":[35],"vote_average":7.0,"popularity":50}
	]}`
	req := httptest.NewRequest("POST", "/api/rank", strings.NewReader(body))
	req.Header.Set("X-Identity-ID", "user-1")
	w := httptest.NewRecorder()
	handler.Rank(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var response rankResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	require.Equal(t, 2, response.Count)
	assert.Equal(t, 2, response.Results[0].Candidate.ID)
	assert.Equal(t, 1, response.Results[1].Candidate.ID)
}
