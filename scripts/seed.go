package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/cinetrail/backend/internal/adapters/database"
	"github.com/cinetrail/backend/internal/domain/entities"
	"github.com/cinetrail/backend/internal/infrastructure/clients/postgres"
	"github.com/cinetrail/backend/pkg/config"
)

// Seeds the remote mirror with a plausible browsing session for a demo
// identity, so hydration and ranking can be exercised against a fresh
// database.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer pgClient.Close()

	ctx := context.Background()

	if os.Getenv("RESET_DB") == "true" {
		log.Println("RESET_DB=true detected, truncating tables before seeding")
		if _, err := pgClient.DB().ExecContext(ctx, `TRUNCATE TABLE history_events`); err != nil {
			log.Fatalf("Failed to reset tables: %v", err)
		}
	}

	identity := os.Getenv("SEED_IDENTITY_ID")
	if identity == "" {
		identity = "demo-user"
	}

	mirror := database.NewHistoryMirrorAdapter(pgClient)

	movieID := func(id int) *int { return &id }
	base := time.Now().Add(-72 * time.Hour)

	events := []entities.HistoryEvent{
		{Type: entities.EventQuery, Query: "space movies"},
		{Type: entities.EventMovieOpen, MovieID: movieID(157336), Title: "Interstellar", Genres: []int{12, 18, 878}},
		{Type: entities.EventTrailerPlay, MovieID: movieID(157336), Title: "Interstellar", Genres: []int{12, 18, 878}},
		{Type: entities.EventQuery, Query: "christopher nolan"},
		{Type: entities.EventMovieOpen, MovieID: movieID(27205), Title: "Inception", Genres: []int{28, 878, 12}},
		{Type: entities.EventExternalSearch, Title: "Inception", MovieID: movieID(27205)},
		{Type: entities.EventQuery, Query: "space movies"},
		{Type: entities.EventMovieOpen, MovieID: movieID(438631), Title: "Dune", Genres: []int{878, 12}},
		{Type: entities.EventTrailerPlay, MovieID: movieID(438631), Title: "Dune", Genres: []int{878, 12}},
		{Type: entities.EventQuery, Query: "korean thriller"},
		{Type: entities.EventMovieOpen, MovieID: movieID(496243), Title: "Parasite", Genres: []int{35, 53, 18}},
	}

	for i := range events {
		events[i].Timestamp = base.Add(time.Duration(i) * 10 * time.Minute).UnixMilli()
		if err := mirror.Insert(ctx, identity, &events[i]); err != nil {
			log.Printf("Failed to seed history event %d: %v", i, err)
		}
	}

	log.Printf("Seeding completed: %d history events for identity %s", len(events), identity)
}
