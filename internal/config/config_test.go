package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "data/raw", cfg.Paths.RawDir)
	assert.Equal(t, "data/processed", cfg.Paths.ProcessedDir)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("TRAVEL_PATHS_RAW_DIR", "/srv/travel/raw")
	t.Setenv("TRAVEL_LOGGING_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/srv/travel/raw", cfg.Paths.RawDir)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoad_InvalidLevelRejected(t *testing.T) {
	t.Setenv("TRAVEL_LOGGING_LEVEL", "loud")

	_, err := Load()
	assert.Error(t, err)
}

func TestPathsConfig_DerivedPaths(t *testing.T) {
	p := PathsConfig{RawDir: "raw", ProcessedDir: "out"}

	assert.Equal(t, filepath.Join("out", "by-month"), p.ByMonthDir())
	assert.Equal(t, filepath.Join("out", "roster_index.json"), p.RosterIndexFile())
	assert.Equal(t, filepath.Join("out", "travel-data.json"), p.DatasetFile())
	assert.Equal(t, filepath.Join("out", ".processed.json"), p.ProcessedMetaFile())
}
