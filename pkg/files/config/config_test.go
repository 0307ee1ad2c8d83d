package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jamesainslie/tfiles/pkg/files/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", "")
	return home
}

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		isolate(t)

		cfg, err := config.Load()
		require.NoError(t, err)

		assert.Equal(t, "info", cfg.Logging.Level)
		assert.True(t, cfg.State.Enabled)
		assert.Equal(t, config.StatePath(), cfg.State.Path)
		assert.False(t, cfg.Navigator.Watch)
		assert.Equal(t, config.DefaultFormat, cfg.Output.Format)

		size, err := cfg.MaxTorrentBytes()
		require.NoError(t, err)
		assert.Equal(t, int64(10*1024*1024), size)
	})

	t.Run("from file", func(t *testing.T) {
		home := isolate(t)
		dir := filepath.Join(home, ".config", "tfiles")
		require.NoError(t, os.MkdirAll(dir, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(`
logging:
  level: debug
  components:
    tree: warn
state:
  enabled: false
  path: ~/state
torrent:
  max_size: 1MB
output:
  format: json
`), 0o644))

		cfg, err := config.Load()
		require.NoError(t, err)

		assert.Equal(t, "debug", cfg.Logging.Level)
		assert.Equal(t, "warn", cfg.Logging.Components["tree"])
		assert.False(t, cfg.State.Enabled)
		assert.Equal(t, filepath.Join(home, "state"), cfg.State.Path)
		assert.Equal(t, "json", cfg.Output.Format)

		size, err := cfg.MaxTorrentBytes()
		require.NoError(t, err)
		assert.Equal(t, int64(1000*1000), size)
	})

	t.Run("environment overrides", func(t *testing.T) {
		isolate(t)
		t.Setenv("TFILES_OUTPUT_FORMAT", "yaml")

		cfg, err := config.Load()
		require.NoError(t, err)
		assert.Equal(t, "yaml", cfg.Output.Format)
	})

	t.Run("invalid sizes", func(t *testing.T) {
		isolate(t)
		t.Setenv("TFILES_TORRENT_MAX_SIZE", "lots")

		cfg, err := config.Load()
		require.NoError(t, err)
		_, err = cfg.MaxTorrentBytes()
		assert.Error(t, err)
	})
}

func TestWriteDefault(t *testing.T) {
	home := isolate(t)

	path, err := config.WriteDefault()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".config", "tfiles", "config.yaml"), path)

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, config.DefaultFormat, cfg.Output.Format)

	require.NoError(t, os.WriteFile(path, []byte("output:\n  format: plain\n"), 0o644))
	_, err = config.WriteDefault()
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "plain")
}

func TestExpandPath(t *testing.T) {
	home := isolate(t)

	got, err := config.ExpandPath("~/x")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "x"), got)

	got, err = config.ExpandPath("/abs")
	require.NoError(t, err)
	assert.Equal(t, "/abs", got)
}
