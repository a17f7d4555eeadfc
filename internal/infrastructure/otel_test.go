package infrastructure

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeyyy09/clinical-flow/internal/config"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestOTelConfiguration tests different exporter combinations
func TestOTelConfiguration(t *testing.T) {
	tests := []struct {
		name          string
		cfg           config.TelemetryConfig
		wantTracerSDK bool
		wantRegistry  bool
	}{
		{
			name:          "stdout tracing and prometheus metrics",
			cfg:           config.TelemetryConfig{TraceExporter: "stdout", MetricExporter: "prometheus", SampleRatio: 1, Environment: "test"},
			wantTracerSDK: true,
			wantRegistry:  true,
		},
		{
			name:         "tracing disabled",
			cfg:          config.TelemetryConfig{TraceExporter: "none", MetricExporter: "prometheus", Environment: "test"},
			wantRegistry: true,
		},
		{
			name:          "metrics disabled",
			cfg:           config.TelemetryConfig{TraceExporter: "stdout", MetricExporter: "none", SampleRatio: 1, Environment: "test"},
			wantTracerSDK: true,
		},
		{
			name: "everything disabled",
			cfg:  config.TelemetryConfig{TraceExporter: "none", MetricExporter: "none"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			providers, err := InitializeOTel(tt.cfg, quietLogger())
			require.NoError(t, err)
			require.NotNil(t, providers)

			// no-op fallbacks keep these usable regardless of exporter
			assert.NotNil(t, providers.Tracer)
			assert.NotNil(t, providers.Meter)

			assert.Equal(t, tt.wantTracerSDK, providers.TracerProvider != nil)
			assert.Equal(t, tt.wantRegistry, providers.Registry != nil)

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			assert.NoError(t, providers.Shutdown(ctx))
		})
	}
}

func TestOTelUnsupportedExporter(t *testing.T) {
	_, err := InitializeOTel(config.TelemetryConfig{TraceExporter: "otlp"}, quietLogger())
	assert.Error(t, err)

	_, err = InitializeOTel(config.TelemetryConfig{MetricExporter: "statsd"}, quietLogger())
	assert.Error(t, err)
}

func TestPipelineMetricsTextfile(t *testing.T) {
	providers, err := InitializeOTel(config.TelemetryConfig{TraceExporter: "none", MetricExporter: "prometheus"}, quietLogger())
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())

	metrics, err := NewPipelineMetrics(providers.Meter)
	require.NoError(t, err)

	ctx := context.Background()
	metrics.RecordFile(ctx, "missing_page", "ingested", 50, 120*time.Millisecond)
	metrics.RecordFile(ctx, "unknown", "skipped", 0, time.Millisecond)
	metrics.RecordScore(ctx, "study_health")

	path := filepath.Join(t.TempDir(), "clinicalflow.prom")
	require.NoError(t, providers.WriteMetrics(path))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(content)

	assert.Contains(t, text, "ingest_files")
	assert.Contains(t, text, "ingest_records")
	assert.Contains(t, text, "ingest_file_duration")
	assert.Contains(t, text, "score_computations")
	assert.Contains(t, text, `kind="missing_page"`)
	assert.Contains(t, text, `status="skipped"`)
}

func TestWriteMetricsDisabled(t *testing.T) {
	providers, err := InitializeOTel(config.TelemetryConfig{MetricExporter: "none"}, quietLogger())
	require.NoError(t, err)

	err = providers.WriteMetrics(filepath.Join(t.TempDir(), "x.prom"))
	assert.Error(t, err)
}

func TestPipelineMetricsNilSafe(t *testing.T) {
	var metrics *PipelineMetrics
	assert.NotPanics(t, func() {
		metrics.RecordFile(context.Background(), "safety_event", "failed", 0, time.Second)
		metrics.RecordScore(context.Background(), "dqi")
	})
}

func TestTraceCorrelation(t *testing.T) {
	providers, err := InitializeOTel(config.TelemetryConfig{TraceExporter: "stdout", MetricExporter: "none", SampleRatio: 1}, quietLogger())
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())

	ctx, span := providers.Tracer.Start(context.Background(), "ingest.file")
	defer span.End()

	assert.True(t, span.SpanContext().IsValid())

	assert.NotPanics(t, func() {
		RecordError(ctx, errors.New("corrupt workbook"))
	})
}
