package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8990", cfg.Client.ServerURL)
	assert.Equal(t, 1000, cfg.View.BufferCap)
	assert.Equal(t, 200, cfg.View.TableCap)
	assert.Equal(t, 5*time.Second, cfg.StatsInterval())
	assert.Equal(t, 10*time.Second, cfg.CoverageInterval())
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout())
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
client:
  server_url: "http://example.com:9000"
  app_id: 7
view:
  stats_interval_seconds: 15
devserver:
  listen_addr: ":9001"
  expected_events:
    - Login
    - Logout
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	// Overridden values.
	assert.Equal(t, "http://example.com:9000", cfg.Client.ServerURL)
	assert.Equal(t, 7, cfg.Client.AppID)
	assert.Equal(t, 15*time.Second, cfg.StatsInterval())
	assert.Equal(t, ":9001", cfg.DevServer.ListenAddr)
	assert.Equal(t, []string{"Login", "Logout"}, cfg.DevServer.ExpectedEvents)

	// Untouched values keep their defaults.
	assert.Equal(t, 50, cfg.Client.PageSize)
	assert.Equal(t, 1000, cfg.View.BufferCap)
	assert.Equal(t, 10*time.Second, cfg.CoverageInterval())
}

func TestLoadAppliesFloors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
client:
  page_size: 0
  request_timeout_seconds: -1
view:
  buffer_cap: 0
  table_cap: -5
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 50, cfg.Client.PageSize)
	assert.Equal(t, 30, cfg.Client.RequestTimeout)
	assert.Equal(t, 1000, cfg.View.BufferCap)
	assert.Equal(t, 200, cfg.View.TableCap)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("client: [not a map"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnsureDirectories(t *testing.T) {
	tmp := t.TempDir()
	cfg := Default()
	cfg.Client.DownloadDir = filepath.Join(tmp, "downloads")
	cfg.DevServer.DatabasePath = filepath.Join(tmp, "data", "hookview.db")

	require.NoError(t, cfg.EnsureDirectories())

	for _, dir := range []string{cfg.Client.DownloadDir, filepath.Join(tmp, "data")} {
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}
