package config

// Test Plan:
// - Default() returns a valid configuration
// - Load() uses defaults when no config file exists
// - Load() reads .xindex/config.yml when present and merges with defaults
// - Environment variables override both the config file and defaults
// - Load() rejects malformed YAML
// - Validate() rejects each out-of-range field individually
// - Validate() accumulates multiple errors into one message

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	t.Parallel()
	cfg := Default()
	require.NoError(t, Validate(cfg))
	assert.Equal(t, 10, cfg.Search.TopK)
	assert.Equal(t, 50, cfg.Search.TopKCap)
	assert.Equal(t, 0.25, cfg.Search.ScoreThreshold)
	assert.Equal(t, DefaultWatchExtensions, cfg.Watch.Extensions)
}

func TestLoadUsesDefaultsWhenNoConfigFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	cfg, err := NewLoader(dir).Load()
	require.NoError(t, err)

	assert.Equal(t, Default().Search.TopK, cfg.Search.TopK)
	assert.Equal(t, Default().Chunking.MaxTokens, cfg.Chunking.MaxTokens)
	assert.Equal(t, filepath.Join(dir, ".xindex", "index.db"), cfg.Storage.DBPath)
}

func TestLoadMergesConfigFileWithDefaults(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	xindexDir := filepath.Join(dir, ".xindex")
	require.NoError(t, os.MkdirAll(xindexDir, 0o755))

	content := `
search:
  top_k: 5
  score_threshold: 0.4
`
	require.NoError(t, os.WriteFile(filepath.Join(xindexDir, "config.yml"), []byte(content), 0o644))

	cfg, err := NewLoader(dir).Load()
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Search.TopK)
	assert.Equal(t, 0.4, cfg.Search.ScoreThreshold)
	// untouched fields still come from defaults
	assert.Equal(t, Default().Chunking.MaxTokens, cfg.Chunking.MaxTokens)
}

func TestEnvironmentVariablesOverrideConfigFile(t *testing.T) {
	dir := t.TempDir()
	xindexDir := filepath.Join(dir, ".xindex")
	require.NoError(t, os.MkdirAll(xindexDir, 0o755))
	content := "search:\n  top_k: 5\n"
	require.NoError(t, os.WriteFile(filepath.Join(xindexDir, "config.yml"), []byte(content), 0o644))

	t.Setenv("XINDEX_SEARCH_TOP_K", "7")

	cfg, err := NewLoader(dir).Load()
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Search.TopK)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	xindexDir := filepath.Join(dir, ".xindex")
	require.NoError(t, os.MkdirAll(xindexDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(xindexDir, "config.yml"), []byte("search: [unclosed"), 0o644))

	_, err := NewLoader(dir).Load()
	assert.Error(t, err)
}

func TestValidateRejectsOutOfRangeFields(t *testing.T) {
	t.Parallel()

	base := func() *Config { return Default() }

	cfg := base()
	cfg.Embedding.Dimensions = 0
	assert.ErrorIs(t, Validate(cfg), ErrInvalidDimensions)

	cfg = base()
	cfg.Chunking.MaxTokens = -1
	assert.ErrorIs(t, Validate(cfg), ErrInvalidMaxTokens)

	cfg = base()
	cfg.Watch.Extensions = nil
	assert.ErrorIs(t, Validate(cfg), ErrEmptyExtensions)

	cfg = base()
	cfg.Search.TopK = 0
	assert.ErrorIs(t, Validate(cfg), ErrInvalidTopK)

	cfg = base()
	cfg.Search.TopK = 100
	cfg.Search.TopKCap = 50
	assert.ErrorIs(t, Validate(cfg), ErrInvalidTopK)

	cfg = base()
	cfg.Search.ScoreThreshold = 1.5
	assert.ErrorIs(t, Validate(cfg), ErrInvalidThreshold)
}

func TestValidateAccumulatesMultipleErrors(t *testing.T) {
	t.Parallel()
	cfg := Default()
	cfg.Embedding.Dimensions = 0
	cfg.Chunking.MaxTokens = 0

	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}
