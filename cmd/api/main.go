package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cinetrail/backend/internal/adapters/cache"
	"github.com/cinetrail/backend/internal/adapters/database"
	"github.com/cinetrail/backend/internal/adapters/events"
	"github.com/cinetrail/backend/internal/adapters/localstore"
	"github.com/cinetrail/backend/internal/adapters/providers/catalog"
	"github.com/cinetrail/backend/internal/api/handlers"
	"github.com/cinetrail/backend/internal/api/routes"
	"github.com/cinetrail/backend/internal/application/services"
	"github.com/cinetrail/backend/internal/domain/providers"
	"github.com/cinetrail/backend/internal/domain/repositories"
	"github.com/cinetrail/backend/internal/infrastructure/clients/postgres"
	"github.com/cinetrail/backend/internal/infrastructure/clients/redis"
	"github.com/cinetrail/backend/internal/infrastructure/observability"
	"github.com/cinetrail/backend/pkg/config"
)

func main() {

	// Load configuration

	cfg, err := config.Load()

	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	observability.InitLogger(cfg.OTEL.ServiceName, os.Getenv("APP_ENV"))

	// Set up context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry if enabled
	var shutdown func(context.Context) error
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err = observability.Setup(
			ctx,
			cfg.OTEL.ServiceName,
			cfg.OTEL.ServiceVersion,
			cfg.OTEL.Endpoint,
		)
		if err != nil {
			log.Printf("Warning: Failed to set up OpenTelemetry: %v", err)
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					log.Printf("Error shutting down OpenTelemetry: %v", err)
				}
			}()
			log.Println("OpenTelemetry initialized successfully")
		}
	}

	// Initialize metrics
	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatalf("Failed to initialize metrics: %v", err)
	}

	// Initialize the local snapshot store; the ledger cannot run without it
	snapshotStore, err := localstore.NewFileStore(cfg.History.SnapshotDir)
	if err != nil {
		log.Fatalf("Failed to initialize snapshot store: %v", err)
	}

	// Initialize database client for the remote mirror. The mirror is a
	// best-effort backstop, so a missing database is a warning, not a fatal.
	var mirror repositories.HistoryMirrorRepository
	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Printf("Warning: Failed to initialize PostgreSQL client: %v", err)
		log.Println("⚠ History mirror disabled (PostgreSQL unavailable)")
	} else {
		defer pgClient.Close()
		mirror = database.NewHistoryMirrorAdapter(pgClient)
		log.Println("PostgreSQL client initialized successfully")
	}

	// Initialize Redis client
	var cacheProvider providers.CacheProvider
	var eventBus providers.EventBus
	redisClient, err := redis.NewClient(&cfg.Redis)
	if err != nil {
		log.Printf("Warning: Failed to initialize Redis client: %v", err)
		// Fall back to in-process notifications only
		eventBus = events.NewMemoryEventBus()
		log.Println("⚠ Change notifications limited to this process (Redis unavailable)")
	} else {
		defer redisClient.Close()
		cacheProvider = cache.NewRedisAdapter(redisClient)
		eventBus = events.NewRedisEventBus(redisClient)
		log.Println("Redis client initialized successfully")
	}
	defer eventBus.Close()

	// Wrap the mirror with read caching when both are available
	if mirror != nil && cacheProvider != nil {
		mirror = database.NewCachedHistoryMirrorAdapter(mirror, cacheProvider)
		log.Println("✓ History mirror wrapped with caching layer")
	}

	// Initialize services
	historyManager := services.NewHistoryManager(snapshotStore, mirror, eventBus)
	rankingService := services.NewRankingService()
	catalogProvider := catalog.NewMockCatalogProvider()

	// Initialize handlers
	historyHandler := handlers.NewHistoryHandler(historyManager)
	rankingHandler := handlers.NewRankingHandler(rankingService, historyManager, catalogProvider)
	sseHandler := handlers.NewSSEHandler(eventBus)

	// Set up routes
	router := routes.NewRouter(historyHandler, rankingHandler, sseHandler, metrics)
	handler := router.SetupRoutes()

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Server starting on %s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
