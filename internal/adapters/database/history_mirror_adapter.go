package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/cinetrail/backend/internal/domain/entities"
	"github.com/cinetrail/backend/internal/domain/repositories"
	"github.com/cinetrail/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/cinetrail/backend/pkg/errors"
)

// HistoryMirrorAdapter implements HistoryMirrorRepository against the hosted
// Postgres row-store. Each row is one mirrored ledger event for an identity.
type HistoryMirrorAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewHistoryMirrorAdapter creates a new history mirror adapter
func NewHistoryMirrorAdapter(client *postgres.Client) repositories.HistoryMirrorRepository {
	return &HistoryMirrorAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Insert mirrors a single event for the identity.
func (a *HistoryMirrorAdapter) Insert(ctx context.Context, identityID string, event *entities.HistoryEvent) error {
	var movieID sql.NullInt64
	if event.MovieID != nil {
		movieID = sql.NullInt64{Int64: int64(*event.MovieID), Valid: true}
	}

	record := goqu.Record{
		"id":          uuid.New().String(),
		"identity_id": identityID,
		"event_type":  string(event.Type),
		"ts":          event.Timestamp,
		"movie_id":    movieID,
		"title":       sql.NullString{String: event.Title, Valid: event.Title != ""},
		"genres":      pq.Array(event.Genres),
		"query":       sql.NullString{String: event.Query, Valid: event.Query != ""},
		"created_at":  time.Now(),
	}

	query, args, err := a.db.Insert("history_events").Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to mirror history event", err)
	}

	return nil
}

// ListByIdentity returns all mirrored events for the identity ordered by
// timestamp ascending.
func (a *HistoryMirrorAdapter) ListByIdentity(ctx context.Context, identityID string) ([]entities.HistoryEvent, error) {
	query, args, err := a.db.Select(
		"event_type", "ts", "movie_id", "title", "genres", "query",
	).From("history_events").
		Where(goqu.Ex{"identity_id": identityID}).
		Order(goqu.I("ts").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list mirrored history events", err)
	}
	defer rows.Close()

	var events []entities.HistoryEvent
	for rows.Next() {
		var (
			event   entities.HistoryEvent
			movieID sql.NullInt64
			title   sql.NullString
			genres  pq.Int64Array
			q       sql.NullString
		)
		if err := rows.Scan(&event.Type, &event.Timestamp, &movieID, &title, &genres, &q); err != nil {
			return nil, apperrors.NewInternalError("failed to scan history event", err)
		}
		if movieID.Valid {
			id := int(movieID.Int64)
			event.MovieID = &id
		}
		event.Title = title.String
		event.Query = q.String
		if len(genres) > 0 {
			event.Genres = make([]int, len(genres))
			for i, g := range genres {
				event.Genres[i] = int(g)
			}
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to read mirrored history events", err)
	}

	return events, nil
}

// DeleteAll removes every mirrored event for the identity.
func (a *HistoryMirrorAdapter) DeleteAll(ctx context.Context, identityID string) error {
	query, args, err := a.db.Delete("history_events").
		Where(goqu.Ex{"identity_id": identityID}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build delete query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to delete mirrored history", err)
	}

	return nil
}
