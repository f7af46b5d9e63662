package infrastructure

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"baselinebuilder/internal/config"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func TestInitializeOTel(t *testing.T) {
	tests := []struct {
		name        string
		cfg         config.TelemetryConfig
		wantErr     bool
		wantMetrics bool
		wantTracing bool
	}{
		{
			name:        "metrics only",
			cfg:         config.TelemetryConfig{ServiceName: "test", TraceExporter: "none", EnableMetrics: true},
			wantMetrics: true,
		},
		{
			name:        "stdout tracing",
			cfg:         config.TelemetryConfig{ServiceName: "test", TraceExporter: "stdout"},
			wantTracing: true,
		},
		{
			name: "everything off",
			cfg:  config.TelemetryConfig{ServiceName: "test", TraceExporter: "none"},
		},
		{
			name:    "unknown trace exporter",
			cfg:     config.TelemetryConfig{ServiceName: "test", TraceExporter: "jaeger"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			providers, err := InitializeOTel(tt.cfg, quietLogger())
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			defer func() { _ = providers.Shutdown(context.Background()) }()

			assert.NotNil(t, providers.Tracer)
			assert.NotNil(t, providers.Meter)
			assert.Equal(t, tt.wantMetrics, providers.PrometheusHTTP != nil)
			assert.Equal(t, tt.wantTracing, providers.TracerProvider != nil)
		})
	}
}

func TestPrometheusEndpointExposesBusinessMetrics(t *testing.T) {
	providers, err := InitializeOTel(config.TelemetryConfig{
		ServiceName:   "test",
		TraceExporter: "none",
		EnableMetrics: true,
	}, quietLogger())
	require.NoError(t, err)
	defer func() { _ = providers.Shutdown(context.Background()) }()

	metrics, err := CreateBusinessMetrics(providers.Meter)
	require.NoError(t, err)

	ctx := context.Background()
	RecordPipelineMetrics(ctx, metrics, "preview", 15*time.Millisecond, nil)
	RecordPipelineMetrics(ctx, metrics, "preview", 5*time.Millisecond, errors.New("boom"))
	metrics.SeasonCacheHits.Add(ctx, 1)

	rec := httptest.NewRecorder()
	providers.PrometheusHTTP.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "baseline_pipeline_runs_total")
	assert.Contains(t, body, "baseline_pipeline_errors_total")
	assert.Contains(t, body, "season_cache_hits_total")
}

func TestNoopBusinessMetrics(t *testing.T) {
	m := NoopBusinessMetrics()
	require.NotNil(t, m)

	assert.NotPanics(t, func() {
		RecordPipelineMetrics(context.Background(), m, "build", time.Second, errors.New("x"))
		RecordPipelineMetrics(context.Background(), nil, "build", time.Second, nil)
		RecordError(context.Background(), errors.New("no span"))
	})
}
