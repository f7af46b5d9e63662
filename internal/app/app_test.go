package app

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"baselinebuilder/internal/config"
	"baselinebuilder/internal/seasons"
	"baselinebuilder/internal/shared/testutil"
)

// newTestConfig returns defaults pointed at a local season file with the
// network-facing limits relaxed.
func newTestConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Server.Port = 0
	cfg.Seasons.File = testutil.WriteFile(t, "seasons.csv", testutil.SeasonsCSV)
	cfg.Security.RateLimit.Enabled = false
	cfg.Telemetry.TraceExporter = "none"
	return cfg
}

func newTestApp(t *testing.T, cfg *config.Config) *Application {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	app, err := New(cfg, logger)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = app.OTelProviders.Shutdown(context.Background())
	})
	return app
}

func uploadRequest(t *testing.T, path string, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile(config.FormFieldFile, "rates.csv")
	require.NoError(t, err)
	_, err = io.WriteString(part, testutil.RatesCSV)
	require.NoError(t, err)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestNew(t *testing.T) {
	t.Run("wires services", func(t *testing.T) {
		app := newTestApp(t, newTestConfig(t))

		assert.NotNil(t, app.Router)
		assert.NotNil(t, app.Server)
		assert.NotNil(t, app.BaselineService)
		assert.NotNil(t, app.HealthService)
		assert.True(t, strings.HasPrefix(app.Loader.SourceID(), "file:"))
		assert.Equal(t, ":0", app.Addr())
	})

	t.Run("no season source", func(t *testing.T) {
		cfg := newTestConfig(t)
		cfg.Seasons.File = ""
		logger, _ := testutil.NewTestLogger(t)

		_, err := New(cfg, logger)
		require.Error(t, err)
		assert.ErrorIs(t, err, seasons.ErrNoSource)
	})
}

func TestApplication_Routes(t *testing.T) {
	app := newTestApp(t, newTestConfig(t))

	tests := []struct {
		name       string
		request    func(t *testing.T) *http.Request
		wantStatus int
		check      func(t *testing.T, rec *httptest.ResponseRecorder)
	}{
		{
			name:       "health",
			request:    func(*testing.T) *http.Request { return httptest.NewRequest(http.MethodGet, "/api/health", nil) },
			wantStatus: http.StatusOK,
		},
		{
			name:       "readiness loads seasons",
			request:    func(*testing.T) *http.Request { return httptest.NewRequest(http.MethodGet, "/api/health/ready", nil) },
			wantStatus: http.StatusOK,
			check: func(t *testing.T, rec *httptest.ResponseRecorder) {
				assert.Contains(t, rec.Body.String(), `"ready"`)
			},
		},
		{
			name:       "seasons",
			request:    func(*testing.T) *http.Request { return httptest.NewRequest(http.MethodGet, "/api/seasons", nil) },
			wantStatus: http.StatusOK,
			check: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var body struct {
					Seasons []map[string]interface{} `json:"seasons"`
				}
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
				require.Len(t, body.Seasons, 2)
				assert.Equal(t, "Winter", body.Seasons[0]["season"])
			},
		},
		{
			name: "units",
			request: func(t *testing.T) *http.Request {
				return uploadRequest(t, "/api/baseline/units", nil)
			},
			wantStatus: http.StatusOK,
			check: func(t *testing.T, rec *httptest.ResponseRecorder) {
				assert.JSONEq(t, `{"units":["U1","U2"]}`, rec.Body.String())
			},
		},
		{
			name: "preview",
			request: func(t *testing.T) *http.Request {
				return uploadRequest(t, "/api/baseline/preview", map[string]string{"unit": "U1"})
			},
			wantStatus: http.StatusOK,
			check: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var body struct {
					Baseline struct {
						Rows []struct {
							Season     string  `json:"season"`
							DailyRate  float64 `json:"daily_rate"`
							WeeklyRate float64 `json:"weekly_rate"`
						} `json:"rows"`
					} `json:"baseline"`
				}
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
				require.Len(t, body.Baseline.Rows, 2)
				assert.Equal(t, "Winter", body.Baseline.Rows[0].Season)
				assert.Equal(t, 150.0, body.Baseline.Rows[0].DailyRate)
				assert.Equal(t, 1050.0, body.Baseline.Rows[0].WeeklyRate)
				assert.Equal(t, 300.0, body.Baseline.Rows[1].DailyRate)
			},
		},
		{
			name: "download csv",
			request: func(t *testing.T) *http.Request {
				return uploadRequest(t, "/api/baseline/download", map[string]string{"unit": "U1", "discount": "10"})
			},
			wantStatus: http.StatusOK,
			check: func(t *testing.T, rec *httptest.ResponseRecorder) {
				assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
				assert.Contains(t, rec.Header().Get("Content-Disposition"), "U1_10_")
				assert.Contains(t, rec.Body.String(), "Season,Start_Date,End_Date,Daily_Rate,Weekly_Rate")
				assert.Contains(t, rec.Body.String(), "Winter,2024-01-01,2024-03-31,165.0,1155.0")
			},
		},
		{
			name: "unknown unit",
			request: func(t *testing.T) *http.Request {
				return uploadRequest(t, "/api/baseline/preview", map[string]string{"unit": "U9"})
			},
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "unknown route",
			request:    func(*testing.T) *http.Request { return httptest.NewRequest(http.MethodGet, "/api/nope", nil) },
			wantStatus: http.StatusNotFound,
			check: func(t *testing.T, rec *httptest.ResponseRecorder) {
				assert.Contains(t, rec.Body.String(), `"status":404`)
			},
		},
		{
			name:       "metrics",
			request:    func(*testing.T) *http.Request { return httptest.NewRequest(http.MethodGet, "/metrics", nil) },
			wantStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			app.Router.ServeHTTP(rec, tt.request(t))

			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
			assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
			if tt.check != nil {
				tt.check(t, rec)
			}
		})
	}
}

func TestApplication_RateLimit(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.Security.RateLimit.Enabled = true
	cfg.Security.RateLimit.RPS = 1
	cfg.Security.RateLimit.Burst = 1
	app := newTestApp(t, cfg)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		app.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, http.StatusOK, codes[0])
	assert.Contains(t, codes[1:], http.StatusTooManyRequests)
}

func TestApplication_StartStop(t *testing.T) {
	app := newTestApp(t, newTestConfig(t))
	app.Server.Addr = "127.0.0.1:0"

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, app.Start(ctx, cancel))

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get("http://" + app.Addr() + "/api/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, app.Stop(context.Background()))

	_, err = client.Get("http://" + app.Addr() + "/api/health")
	assert.Error(t, err)
}

func TestApplication_StartAddressInUse(t *testing.T) {
	first := newTestApp(t, newTestConfig(t))
	first.Server.Addr = "127.0.0.1:0"
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, first.Start(ctx, cancel))
	defer first.Stop(context.Background())

	second := newTestApp(t, newTestConfig(t))
	second.Server.Addr = first.Addr()
	assert.Error(t, second.Start(ctx, cancel))
}
