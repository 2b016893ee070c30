package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "divvy.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.REST.Addr)
	assert.Equal(t, 15*time.Second, cfg.REST.ReadTimeout)
	assert.Equal(t, StorageMemory, cfg.Storage.Backend)
	assert.Equal(t, "divvy:", cfg.Storage.Redis.Prefix)
	assert.Equal(t, 5*time.Second, cfg.Storage.Redis.OpTimeout)
	assert.Equal(t, RunnerExec, cfg.Simulation.Runner)
	assert.Equal(t, []string{"dummy"}, cfg.Datasets.Preload)
	assert.Equal(t, 4, cfg.Workers.Count)
	assert.Equal(t, 1.0, cfg.Workers.CreditsPerSecond)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
rest:
  addr: ":9000"
storage:
  backend: redis
  redis:
    addr: redis:6379
    db: 2
datasets:
  block_size: 1000
  preload: [dummy, test_chembl]
workers:
  count: 8
  credits_per_second: 0.25
  heartbeat_interval: 2s
logging:
  format: text
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.REST.Addr)
	assert.Equal(t, StorageRedis, cfg.Storage.Backend)
	assert.Equal(t, "redis:6379", cfg.Storage.Redis.Addr)
	assert.Equal(t, 2, cfg.Storage.Redis.DB)
	assert.Equal(t, 1000, cfg.Datasets.BlockSize)
	assert.Equal(t, []string{"dummy", "test_chembl"}, cfg.Datasets.Preload)
	assert.Equal(t, 8, cfg.Workers.Count)
	assert.Equal(t, 0.25, cfg.Workers.CreditsPerSecond)
	assert.Equal(t, 2*time.Second, cfg.Workers.HeartbeatInterval)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, 60*time.Second, cfg.REST.IdleTimeout, "unset keys keep their defaults")
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("DIVVY_STORAGE_BACKEND", "redis")
	t.Setenv("DIVVY_WORKERS_COUNT", "2")
	t.Setenv("DIVVY_REPORTS_DIR", "/var/divvy/reports")

	cfg, err := Load(writeConfig(t, "workers:\n  count: 8\n"))
	require.NoError(t, err)

	assert.Equal(t, StorageRedis, cfg.Storage.Backend)
	assert.Equal(t, 2, cfg.Workers.Count)
	assert.Equal(t, "/var/divvy/reports", cfg.Reports.Dir)
}

func TestLoad_Invalid(t *testing.T) {
	path := writeConfig(t, `
storage:
  backend: postgres
simulation:
  runner: podman
datasets:
  block_size: 0
workers:
  heartbeat_interval: 1m
`)

	_, err := Load(path)
	require.Error(t, err)
	for _, want := range []string{"storage.backend", "simulation.runner", "datasets.block_size", "workers.heartbeat_interval"} {
		assert.ErrorContains(t, err, want)
	}
}
