package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoad_HistoryConfig(t *testing.T) {
	// Setup environment variables
	os.Setenv("HISTORY_SNAPSHOT_DIR", "/var/lib/cinetrail/history")
	defer os.Unsetenv("HISTORY_SNAPSHOT_DIR")

	// Load config
	cfg, err := Load()
	assert.NoError(t, err)

	// Verify history config
	assert.Equal(t, "/var/lib/cinetrail/history", cfg.History.SnapshotDir)
}

func TestLoad_Defaults(t *testing.T) {
	// Ensure env vars are cleared
	os.Unsetenv("HISTORY_SNAPSHOT_DIR")
	os.Unsetenv("DB_NAME")

	cfg, err := Load()
	assert.NoError(t, err)

	// Verify defaults
	assert.Equal(t, "data/history", cfg.History.SnapshotDir)
	assert.Equal(t, "cinetrail", cfg.Database.Database)
	assert.Equal(t, 8080, cfg.Server.Port)
}
