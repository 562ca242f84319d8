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

	path := filepath.Join(t.TempDir(), "pqdag.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
backend_url: http://backend:8080
request_timeout: 10m
strict_schemas: true
progress_delays: [1s, 2s, 4s]
query:
  master_ip: 10.0.0.5
  plan_number: 2
cluster:
  bound_dataset: watdiv100k
  sync_schedule: "@every 1m"
catalog:
  redis_url: redis://localhost:6379/0
  cache_ttl: 1m
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://backend:8080", cfg.BackendURL)
	assert.Equal(t, 10*time.Minute, cfg.RequestTimeout)
	assert.True(t, cfg.StrictSchemas)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}, cfg.ProgressDelays)
	assert.Equal(t, "10.0.0.5", cfg.Query.MasterIP)
	assert.Equal(t, 2, cfg.Query.PlanNumber)
	assert.Equal(t, "watdiv100k", cfg.Cluster.BoundDataset)
	assert.Equal(t, "@every 1m", cfg.Cluster.SyncSchedule)
	assert.Equal(t, "redis://localhost:6379/0", cfg.Catalog.RedisURL)
	assert.Equal(t, time.Minute, cfg.Catalog.CacheTTL)
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "backend_url: https://pqdag.example.org\n"))
	require.NoError(t, err)

	assert.Equal(t, "https://pqdag.example.org", cfg.BackendURL)
	assert.Equal(t, "192.168.165.27", cfg.Query.MasterIP)
	assert.Equal(t, Default().ProgressDelays, cfg.ProgressDelays)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	_, err = Load(writeConfig(t, "backend_url: [unclosed"))
	require.Error(t, err)

	_, err = Load(writeConfig(t, "backend_url: ftp://backend\n"))
	require.ErrorIs(t, err, ErrInvalidConfig)

	_, err = Load(writeConfig(t, "progress_delays: [0s]\n"))
	require.ErrorIs(t, err, ErrInvalidConfig)

	_, err = Load(writeConfig(t, "query:\n  plan_number: -1\n"))
	require.ErrorIs(t, err, ErrInvalidConfig)
}
