package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "brieflex.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[host]
base_url = "http://inference.local:11434"
model = "mistral"
pull_missing = true

[invoke]
timeout_ms = 5000

[chunk]
threshold = 2000

[output]
language = "German"
`), 0o644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "http://inference.local:11434", cfg.Host.BaseURL)
	assert.Equal(t, "mistral", cfg.Host.Model)
	assert.True(t, cfg.Host.PullMissing)
	assert.Equal(t, 5*time.Second, cfg.Invoke.Timeout())
	assert.Equal(t, 2000, cfg.Chunk.Threshold)
	assert.Equal(t, "German", cfg.Output.Language)

	// Unset sections keep their defaults.
	assert.Equal(t, "localhost:8743", cfg.Server.Addr)
	assert.Equal(t, DefaultHistoryKeep, cfg.History.Keep)
}

func TestLoadFromFileMissing(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.toml"))
	require.Error(t, err)
}

func TestDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.toml")
	require.NoError(t, os.WriteFile(path, []byte(""), 0o644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:11434", cfg.Host.BaseURL)
	assert.Equal(t, DefaultInvokeTimeoutMS, cfg.Invoke.TimeoutMS)
	assert.Equal(t, DefaultChunkThreshold, cfg.Chunk.Threshold)
	assert.False(t, cfg.Host.PullMissing)
	assert.Empty(t, cfg.Host.DetectorModel, "detector family is disabled by default")
}

func TestLoadIsCached(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	first, err := Load()
	require.NoError(t, err)
	second, err := Load()
	require.NoError(t, err)
	assert.Same(t, first, second)
}
