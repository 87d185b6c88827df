package localstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/cinetrail/backend/internal/domain/entities"
	"github.com/cinetrail/backend/internal/domain/providers"
)

// FileStore persists one HistoryState JSON blob per scope under a directory.
// It is the Go rendition of the browser's single local-storage key: a
// missing file, malformed JSON, or an unreadable directory all degrade to an
// empty, well-formed state.
type FileStore struct {
	dir string
}

// NewFileStore creates a file-backed snapshot store rooted at dir.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create snapshot directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Load returns the persisted state for the scope. Anything unusable on disk
// yields an empty state rather than an error.
func (f *FileStore) Load(scope string) (*entities.HistoryState, error) {
	data, err := os.ReadFile(f.path(scope))
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Printf("Warning: failed to read history snapshot %s: %v", scope, err)
		}
		return entities.NewHistoryState(), nil
	}

	state := entities.NewHistoryState()
	if err := json.Unmarshal(data, state); err != nil {
		log.Printf("Warning: discarding malformed history snapshot %s: %v", scope, err)
		return entities.NewHistoryState(), nil
	}
	state.Normalize()
	return state, nil
}

// Save persists the state for the scope. The write goes through a temp file
// and a rename so a crash mid-write cannot leave a truncated blob behind.
func (f *FileStore) Save(scope string, state *entities.HistoryState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode history snapshot: %w", err)
	}

	tmp, err := os.CreateTemp(f.dir, scopeFileName(scope)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create snapshot temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close snapshot temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path(scope)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to replace snapshot: %w", err)
	}
	return nil
}

// Clear removes the persisted blob for the scope.
func (f *FileStore) Clear(scope string) error {
	err := os.Remove(f.path(scope))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove snapshot: %w", err)
	}
	return nil
}

func (f *FileStore) path(scope string) string {
	return filepath.Join(f.dir, scopeFileName(scope)+".json")
}

// scopeFileName keeps identity ids from escaping the snapshot directory.
func scopeFileName(scope string) string {
	replacer := strings.NewReplacer("/", "_", "\\", "_", "..", "_")
	name := replacer.Replace(scope)
	if name == "" {
		name = "local"
	}
	return name
}

var _ providers.SnapshotStore = (*FileStore)(nil)
