package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("WARN"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("info"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer

	logger := New(&buf, "info", "json").With("module", "cluster_controller")
	logger.Debug("hidden")
	logger.Info("Cluster started", "dataset", "watdiv100k")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "Cluster started", line["msg"])
	assert.Equal(t, "cluster_controller", line["module"])
	assert.Equal(t, "watdiv100k", line["dataset"])
}

func TestNew_Text(t *testing.T) {
	var buf bytes.Buffer

	New(&buf, "debug", "text").Debug("estimator advanced", "phase", 1)
	assert.Contains(t, buf.String(), "msg=\"estimator advanced\"")
	assert.Contains(t, buf.String(), "phase=1")
}
