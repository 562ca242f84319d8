package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dukex/pqdag-console/pkg/config"
	"github.com/dukex/pqdag-console/pkg/console"
	"github.com/dukex/pqdag-console/pkg/gateway/gatewaytest"
	"github.com/dukex/pqdag-console/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"
)

func get(t *testing.T, api *API, path string) (int, string) {
	t.Helper()

	resp, err := api.App().Test(httptest.NewRequest(http.MethodGet, path, nil))
	require.NoError(t, err)

	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp.StatusCode, string(body)
}

func TestAPI_HealthAndRoot(t *testing.T) {
	c := console.New(&gatewaytest.Fake{}, slog.Default(), console.Config{})
	api := NewAPI(slog.Default(), c, prometheus.NewRegistry())

	status, body := get(t, api, "/")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "PQDAG Console API", body)

	status, _ = get(t, api, "/livez")
	assert.Equal(t, http.StatusOK, status)

	status, _ = get(t, api, "/readyz")
	assert.Equal(t, http.StatusOK, status)

	status, body = get(t, api, "/cluster")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "\"state\":\"unknown\"")
}

func TestAPI_Metrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := metrics.New(registry)
	m.ObserveGateway("StartCluster", 20*time.Millisecond, nil)

	c := console.New(&gatewaytest.Fake{}, slog.Default(), console.Config{})
	api := NewAPI(slog.Default(), c, registry)

	status, body := get(t, api, "/metrics")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "pqdag_gateway_requests_total")
	assert.Contains(t, body, "StartCluster")
}

func runWithConfigFlags(t *testing.T, args ...string) (config.Config, error) {
	t.Helper()

	var (
		cfg    config.Config
		cfgErr error
	)

	command := &cli.Command{
		Name:  "test",
		Flags: configFlags(),
		Action: func(_ context.Context, command *cli.Command) error {
			cfg, cfgErr = loadConfig(command)

			return nil
		},
	}

	require.NoError(t, command.Run(context.Background(), append([]string{"test"}, args...)))

	return cfg, cfgErr
}

func TestLoadConfig_FlagsOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "console.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
backend_url: http://backend:8080
cluster:
  bound_dataset: watdiv100k
  sync_schedule: "@every 5m"
`), 0o600))

	cfg, err := runWithConfigFlags(t, "--config", path, "--sync-schedule", "@every 1m")
	require.NoError(t, err)
	assert.Equal(t, "http://backend:8080", cfg.BackendURL)
	assert.Equal(t, "watdiv100k", cfg.Cluster.BoundDataset)
	assert.Equal(t, "@every 1m", cfg.Cluster.SyncSchedule)

	cfg, err = runWithConfigFlags(t, "--config", path, "--backend-url", "http://other:9000", "--strict-schemas")
	require.NoError(t, err)
	assert.Equal(t, "http://other:9000", cfg.BackendURL)
	assert.True(t, cfg.StrictSchemas)
}

func TestLoadConfig_InvalidBackend(t *testing.T) {
	_, err := runWithConfigFlags(t, "--backend-url", "ftp://backend")
	require.ErrorIs(t, err, config.ErrInvalidConfig)
}
