package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/cinetrail/backend/internal/application/services"
	"github.com/cinetrail/backend/internal/domain/entities"
	"github.com/cinetrail/backend/internal/domain/providers"
)

const defaultTrendingLimit = 20

// RankingHandler exposes candidate ranking over HTTP. Callers normally POST
// the candidate page they already fetched from the catalog; with no
// candidates the handler ranks a trending page from the catalog provider.
type RankingHandler struct {
	ranker  *services.RankingService
	manager *services.HistoryManager
	catalog providers.CatalogProvider
}

// NewRankingHandler creates a new ranking handler
func NewRankingHandler(ranker *services.RankingService, manager *services.HistoryManager, catalog providers.CatalogProvider) *RankingHandler {
	return &RankingHandler{
		ranker:  ranker,
		manager: manager,
		catalog: catalog,
	}
}

type rankRequest struct {
	Candidates []entities.Candidate `json:"candidates"`
	Limit      int                  `json:"limit,omitempty"`
}

// Rank handles POST /api/rank
func (h *RankingHandler) Rank(w http.ResponseWriter, r *http.Request) {
	var payload rankRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	candidates := payload.Candidates
	if len(candidates) == 0 {
		if h.catalog == nil {
			respondWithError(w, http.StatusBadRequest, "candidates are required")
			return
		}
		limit := payload.Limit
		if limit <= 0 {
			limit = defaultTrendingLimit
		}
		fetched, err := h.catalog.Trending(r.Context(), limit)
		if err != nil {
			respondWithError(w, http.StatusBadGateway, "failed to fetch trending candidates")
			return
		}
		candidates = fetched
	}

	history := h.manager.For(r.Header.Get(identityHeader)).Read()
	ranked := h.ranker.Rank(candidates, history)
	if ranked == nil {
		ranked = []entities.RankedCandidate{}
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"results": ranked,
		"count":   len(ranked),
	})
}
