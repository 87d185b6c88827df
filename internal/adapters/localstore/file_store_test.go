package localstore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cinetrail/backend/internal/domain/entities"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *FileStore {
	t.Helper()
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func TestFileStore_LoadMissingScopeReturnsEmptyState(t *testing.T) {
	store := newTestStore(t)

	state, err := store.Load("nobody")

	assert.NoError(t, err)
	require.NotNil(t, state)
	assert.Empty(t, state.Events)
	assert.NotNil(t, state.SeenMovies)
	assert.NotNil(t, state.QueryCounts)
}

func TestFileStore_SaveLoadRoundTrip(t *testing.T) {
	store := newTestStore(t)

	movie := 42
	state := entities.NewHistoryState()
	state.Events = append(state.Events, entities.HistoryEvent{
		Type:      entities.EventMovieOpen,
		Timestamp: 1000,
		MovieID:   &movie,
		Title:     "The Answer",
		Genres:    []int{28, 878},
	})
	state.SeenMovies["42"] = 1000

	require.NoError(t, store.Save("user-1", state))

	loaded, err := store.Load("user-1")
	require.NoError(t, err)
	assert.Equal(t, state, loaded)
}

func TestFileStore_MalformedSnapshotDegradesToEmpty(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "user-1.json"), []byte("{not json"), 0o644))

	state, err := store.Load("user-1")
	assert.NoError(t, err)
	assert.Empty(t, state.Events)
}

func TestFileStore_PartialSnapshotIsNormalized(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)

	// A legacy blob with only events and no aggregate maps.
	blob := []byte(`{"events":[{"type":"query","ts":1,"query":"dune"}]}`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "user-1.json"), blob, 0o644))

	state, err := store.Load("user-1")
	require.NoError(t, err)
	assert.Len(t, state.Events, 1)
	assert.NotNil(t, state.SeenMovies)
	assert.NotNil(t, state.QueryCounts)
}

func TestFileStore_Clear(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Save("user-1", entities.NewHistoryState()))

	assert.NoError(t, store.Clear("user-1"))
	// Clearing an already-missing scope is fine too.
	assert.NoError(t, store.Clear("user-1"))

	state, err := store.Load("user-1")
	assert.NoError(t, err)
	assert.Empty(t, state.Events)
}

func TestFileStore_ScopeNamesCannotEscapeDirectory(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)

	require.NoError(t, store.Save("../evil", entities.NewHistoryState()))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
