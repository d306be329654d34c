package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var fields map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &fields))
	return fields
}

func TestNewLogger_JSONFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LogConfig{Level: "info", Format: "json", Output: &buf, ServiceName: "kb-test"})

	logger.WithOperation("resolve").WithStage("exact").Info().
		Str("query", "hello").
		Int("hits", 2).
		Err(errors.New("boom")).
		Msg("Stage finished")

	fields := decodeLine(t, &buf)
	assert.Equal(t, "kb-test", fields["service"])
	assert.Equal(t, "resolve", fields["operation"])
	assert.Equal(t, "exact", fields["stage"])
	assert.Equal(t, "hello", fields["query"])
	assert.Equal(t, float64(2), fields["hits"])
	assert.Equal(t, "boom", fields["error"])
	assert.Equal(t, "Stage finished", fields["message"])
}

func TestNewLogger_LevelFilter(t *testing.T) {
	tests := []struct {
		level   string
		debug   bool
		warning bool
	}{
		{"debug", true, true},
		{"info", false, true},
		{"warn", false, true},
		{"error", false, false},
		{"off", false, false},
		{"bogus", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewLogger(LogConfig{Level: tt.level, Output: &buf})

			logger.Debug().Msg("debug line")
			assert.Equal(t, tt.debug, strings.Contains(buf.String(), "debug line"))

			logger.Warn().Msg("warn line")
			assert.Equal(t, tt.warning, strings.Contains(buf.String(), "warn line"))
		})
	}
}

func TestLogger_WithContextAddsTraceID(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LogConfig{Output: &buf})

	ctx := ContextWithTraceID(context.Background(), "trace-123")
	logger.WithContext(ctx).Info().Msg("traced")
	assert.Equal(t, "trace-123", decodeLine(t, &buf)["trace_id"])

	assert.Same(t, logger, logger.WithContext(context.Background()))
	assert.Empty(t, TraceIDFromContext(context.Background()))
}

func TestNopLogger_Discards(t *testing.T) {
	assert.NotPanics(t, func() {
		NopLogger().Error().Str("k", "v").Msg("ignored")
	})
}

func TestMetrics_ObserveResolution(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.ObserveResolution("exact", "faq", 2*time.Millisecond)
	m.ObserveResolution("exact", "faq", time.Millisecond)
	m.ObserveResolution("fallback", "category_guide", time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.resolutions.WithLabelValues("faq")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.stageHits.WithLabelValues("fallback")))

	count, err := testutil.GatherAndCount(reg, "kbresolver_resolve_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() { m.ObserveResolution("exact", "faq", time.Millisecond) })
}
