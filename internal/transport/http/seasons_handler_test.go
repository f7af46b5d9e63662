package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"baselinebuilder/internal/dataprocessing"
	apierrors "baselinebuilder/internal/errors"
	"baselinebuilder/internal/seasons"
	"baselinebuilder/internal/services"
	"baselinebuilder/internal/shared/testutil"
)

func newSeasonsRouter(t *testing.T, svc BaselineServiceInterface) http.Handler {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	h := NewSeasonsHandler(svc, apierrors.NewErrorHandler(logger, false), logger)
	r := chi.NewRouter()
	r.Mount("/api/seasons", h.Routes())
	return r
}

func TestSeasonsHandler(t *testing.T) {
	result := &services.SeasonsResult{
		Source:    "file:/srv/seasons.csv",
		FetchedAt: time.Date(2024, 5, 6, 9, 0, 0, 0, time.UTC),
		Seasons:   testutil.WinterSummer(t),
	}
	invalid := fmt.Errorf("%w: %w", seasons.ErrInvalidSeasonTable,
		&dataprocessing.ParseError{Row: 3, Column: "Season", Err: dataprocessing.ErrDuplicateSeason})

	tests := []struct {
		name       string
		method     string
		path       string
		setupMock  func(*MockBaselineService)
		wantStatus int
		wantType   string
	}{
		{
			name:   "list",
			method: http.MethodGet,
			path:   "/api/seasons",
			setupMock: func(m *MockBaselineService) {
				m.On("Seasons").Return(result, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:   "refresh",
			method: http.MethodPost,
			path:   "/api/seasons/refresh",
			setupMock: func(m *MockBaselineService) {
				m.On("RefreshSeasons").Return(result, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:   "source unreachable",
			method: http.MethodGet,
			path:   "/api/seasons",
			setupMock: func(m *MockBaselineService) {
				m.On("Seasons").Return(nil, &seasons.FetchError{SourceID: "sheets:x/Seasons", Err: assert.AnError})
			},
			wantStatus: http.StatusBadGateway,
			wantType:   apierrors.TypeSeasonSourceDown,
		},
		{
			name:   "invalid season table",
			method: http.MethodPost,
			path:   "/api/seasons/refresh",
			setupMock: func(m *MockBaselineService) {
				m.On("RefreshSeasons").Return(nil, invalid)
			},
			wantStatus: http.StatusBadGateway,
			wantType:   apierrors.TypeSeasonTableInvalid,
		},
		{
			name:   "timeout",
			method: http.MethodGet,
			path:   "/api/seasons",
			setupMock: func(m *MockBaselineService) {
				m.On("Seasons").Return(nil, &seasons.FetchError{SourceID: "sheets:x/Seasons", Err: context.DeadlineExceeded})
			},
			wantStatus: http.StatusGatewayTimeout,
			wantType:   apierrors.TypeTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockBaselineService)
			tt.setupMock(svc)

			rec := httptest.NewRecorder()
			newSeasonsRouter(t, svc).ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))

			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			if tt.wantType != "" {
				assert.Equal(t, tt.wantType, body["type"])
			} else {
				assert.Equal(t, "file:/srv/seasons.csv", body["source"])
				assert.Len(t, body["seasons"], 2)
				first := body["seasons"].([]interface{})[0].(map[string]interface{})
				assert.Equal(t, "2024-01-01", first["start_date"])
			}
			svc.AssertExpectations(t)
		})
	}
}

// MockHealthService is a mock implementation of HealthServiceInterface
type MockHealthService struct {
	mock.Mock
}

func (m *MockHealthService) HealthCheck(ctx context.Context) services.HealthStatus {
	return m.Called().Get(0).(services.HealthStatus)
}

func (m *MockHealthService) ReadinessCheck(ctx context.Context) services.HealthStatus {
	return m.Called().Get(0).(services.HealthStatus)
}

func TestHealthHandler(t *testing.T) {
	tests := []struct {
		name       string
		status     string
		wantStatus int
	}{
		{"ready", "ready", http.StatusOK},
		{"not ready", "not_ready", http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, _ := testutil.NewTestLogger(t)
			svc := new(MockHealthService)
			svc.On("ReadinessCheck").Return(services.HealthStatus{Status: tt.status})
			svc.On("HealthCheck").Return(services.HealthStatus{Status: "ok"})
			h := NewHealthHandler(svc, logger)

			rec := httptest.NewRecorder()
			h.ReadinessCheck(rec, httptest.NewRequest(http.MethodGet, "/api/health/ready", nil))
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.status)

			rec = httptest.NewRecorder()
			h.HealthCheck(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
			assert.Equal(t, http.StatusOK, rec.Code)
		})
	}
}
