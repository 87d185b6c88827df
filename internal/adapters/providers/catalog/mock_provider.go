package catalog

import (
	"context"

	"github.com/cinetrail/backend/internal/domain/entities"
	"github.com/cinetrail/backend/internal/domain/providers"
)

// MockCatalogProvider implements a mock catalog provider for testing and
// local development. The real catalog lives behind an external metadata API
// owned by the SPA; the ranking core only needs candidate snapshots.
type MockCatalogProvider struct{}

// NewMockCatalogProvider creates a new mock catalog provider
func NewMockCatalogProvider() providers.CatalogProvider {
	return &MockCatalogProvider{}
}

var mockCandidates = []entities.Candidate{
	{ID: 27205, Title: "Inception", GenreIDs: []int{28, 878, 12}, VoteAverage: 8.4, Popularity: 151.5},
	{ID: 157336, Title: "Interstellar", GenreIDs: []int{12, 18, 878}, VoteAverage: 8.4, Popularity: 140.2},
	{ID: 155, Title: "The Dark Knight", GenreIDs: []int{18, 28, 80}, VoteAverage: 8.5, Popularity: 123.1},
	{ID: 603, Title: "The Matrix", GenreIDs: []int{28, 878}, VoteAverage: 8.2, Popularity: 104.6},
	{ID: 680, Title: "Pulp Fiction", GenreIDs: []int{53, 80}, VoteAverage: 8.5, Popularity: 78.4},
	{ID: 13, Title: "Forrest Gump", GenreIDs: []int{35, 18, 10749}, VoteAverage: 8.5, Popularity: 92.7},
	{ID: 129, Title: "Spirited Away", GenreIDs: []int{16, 10751, 14}, VoteAverage: 8.5, Popularity: 88.9},
	{ID: 496243, Title: "Parasite", GenreIDs: []int{35, 53, 18}, VoteAverage: 8.5, Popularity: 96.3},
	{ID: 438631, Title: "Dune", GenreIDs: []int{878, 12}, VoteAverage: 7.8, Popularity: 133.0},
	{ID: 872585, Title: "Oppenheimer", GenreIDs: []int{18, 36}, VoteAverage: 8.1, Popularity: 129.8},
}

// Trending returns a page of currently trending candidates (mock implementation)
func (m *MockCatalogProvider) Trending(ctx context.Context, limit int) ([]entities.Candidate, error) {
	if limit <= 0 || limit > len(mockCandidates) {
		limit = len(mockCandidates)
	}
	out := make([]entities.Candidate, limit)
	copy(out, mockCandidates[:limit])
	return out, nil
}

// GetByIDs returns candidates for the given catalog ids, skipping unknown ids
func (m *MockCatalogProvider) GetByIDs(ctx context.Context, ids []int) ([]entities.Candidate, error) {
	byID := make(map[int]entities.Candidate, len(mockCandidates))
	for _, c := range mockCandidates {
		byID[c.ID] = c
	}

	var out []entities.Candidate
	for _, id := range ids {
		if c, ok := byID[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}
