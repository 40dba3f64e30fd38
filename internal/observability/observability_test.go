package observability

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		raw      string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{" DEBUG ", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, ParseLevel(tt.raw), tt.raw)
	}
}

func TestNewLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "info", "json")

	logger.Debug("hidden")
	logger.Info("snapshot loaded", "incidents", 3)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "snapshot loaded", line["msg"])
	assert.Equal(t, "incident-data-service", line["service"])
	assert.InDelta(t, 3, line["incidents"], 0)
}

func TestNewLogger_Text(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "debug", "text")

	logger.Debug("row skipped", "index", 4)

	assert.Contains(t, buf.String(), "msg=\"row skipped\"")
	assert.Contains(t, buf.String(), "index=4")
}

func TestNewMetricsForTesting_IsolatedRegistries(t *testing.T) {
	a := NewMetricsForTesting()
	b := NewMetricsForTesting()

	a.Reloads.WithLabelValues("success").Inc()

	assert.InDelta(t, 1, testutil.ToFloat64(a.Reloads.WithLabelValues("success")), 0)
	assert.InDelta(t, 0, testutil.ToFloat64(b.Reloads.WithLabelValues("success")), 0)

	reg := prometheus.NewRegistry()
	require.NoError(t, reg.Register(a.Reloads))
	require.NoError(t, prometheus.NewRegistry().Register(b.Reloads))
}
