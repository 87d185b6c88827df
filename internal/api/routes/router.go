package routes

import (
	"net/http"

	"github.com/cinetrail/backend/internal/api/handlers"
	"github.com/cinetrail/backend/internal/api/middleware"
	"github.com/cinetrail/backend/internal/infrastructure/observability"
)

// Router holds all route handlers

type Router struct {
	mux *http.ServeMux

	historyHandler *handlers.HistoryHandler

	rankingHandler *handlers.RankingHandler

	sseHandler *handlers.SSEHandler

	metrics *observability.Metrics
}

// NewRouter creates a new router

func NewRouter(

	historyHandler *handlers.HistoryHandler,

	rankingHandler *handlers.RankingHandler,

	sseHandler *handlers.SSEHandler,

	metrics *observability.Metrics,

) *Router {

	return &Router{

		mux: http.NewServeMux(),

		historyHandler: historyHandler,

		rankingHandler: rankingHandler,

		sseHandler: sseHandler,

		metrics: metrics,
	}

}

// SetupRoutes configures all application routes

func (r *Router) SetupRoutes() http.Handler {

	// Health check endpoint

	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {

		w.WriteHeader(http.StatusOK)

		if _, err := w.Write([]byte("OK")); err != nil {
			return
		}

	})

	// History ledger endpoints

	r.mux.HandleFunc("GET /api/history", r.historyHandler.GetHistory)

	r.mux.HandleFunc("DELETE /api/history", r.historyHandler.ClearHistory)

	r.mux.HandleFunc("POST /api/history/events", r.historyHandler.LogEvent)

	r.mux.HandleFunc("DELETE /api/history/events", r.historyHandler.DeleteEvents)

	r.mux.HandleFunc("DELETE /api/history/events/{index}", r.historyHandler.DeleteEventAt)

	r.mux.HandleFunc("POST /api/history/hydrate", r.historyHandler.Hydrate)

	r.mux.HandleFunc("GET /api/history/top-genres", r.historyHandler.TopGenres)

	// Ranking endpoint

	r.mux.HandleFunc("POST /api/rank", r.rankingHandler.Rank)

	// Change notification stream
	if r.sseHandler != nil {
		r.mux.HandleFunc("GET /api/stream/history", r.sseHandler.StreamHistoryUpdates)
	}

	// Apply middleware in reverse order (last middleware wraps first)

	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)

	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)

	// CORS wraps everything so headers are set on every response
	handler = middleware.CORSMiddleware(handler)

	return handler
}
