package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"baselinebuilder/internal/baseline"
	"baselinebuilder/internal/config"
	"baselinebuilder/internal/dataprocessing"
	apierrors "baselinebuilder/internal/errors"
	"baselinebuilder/internal/middleware"
	"baselinebuilder/internal/seasons"
	"baselinebuilder/internal/services"
	"baselinebuilder/internal/shared/testutil"
	api "baselinebuilder/pkg/contracts/api/v1"
	"baselinebuilder/pkg/contracts/domain"
)

// MockBaselineService is a mock implementation of BaselineServiceInterface
type MockBaselineService struct {
	mock.Mock
}

func (m *MockBaselineService) Units(ctx context.Context, upload services.Upload) ([]string, error) {
	args := m.Called(upload.Name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockBaselineService) Preview(ctx context.Context, req services.BaselineRequest) (*services.PreviewResult, error) {
	args := m.Called(req.Unit, req.DiscountPercent)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.PreviewResult), args.Error(1)
}

func (m *MockBaselineService) Download(ctx context.Context, req services.BaselineRequest, format domain.ExportFormat) (*services.Download, error) {
	args := m.Called(req.Unit, req.DiscountPercent, format)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.Download), args.Error(1)
}

func (m *MockBaselineService) Seasons(ctx context.Context) (*services.SeasonsResult, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.SeasonsResult), args.Error(1)
}

func (m *MockBaselineService) RefreshSeasons(ctx context.Context) (*services.SeasonsResult, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.SeasonsResult), args.Error(1)
}

func newBaselineRouter(t *testing.T, svc BaselineServiceInterface, maxUpload int64) http.Handler {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	eh := apierrors.NewErrorHandler(logger, false)
	h := NewBaselineHandler(svc, config.ServerConfig{MaxUploadBytes: maxUpload}, middleware.NewValidator(logger), eh, logger)

	r := chi.NewRouter()
	r.Mount("/api/baseline", h.Routes())
	return r
}

// multipartRequest builds a POST with an optional file part and form fields.
func multipartRequest(t *testing.T, path, filename, content string, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if filename != "" {
		part, err := mw.CreateFormFile(config.FormFieldFile, filename)
		require.NoError(t, err)
		_, err = io.WriteString(part, content)
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func problem(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func TestBaselineHandler_Units(t *testing.T) {
	svc := new(MockBaselineService)
	svc.On("Units", "rates.csv").Return([]string{"U1", "U2"}, nil)
	router := newBaselineRouter(t, svc, 1<<20)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, multipartRequest(t, "/api/baseline/units", "rates.csv", testutil.RatesCSV, nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	var body api.UnitsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, []string{"U1", "U2"}, body.Units)
	svc.AssertExpectations(t)
}

func TestBaselineHandler_Preview(t *testing.T) {
	preview := &services.PreviewResult{
		Units: []string{"U1"},
		Baseline: &domain.Baseline{
			UnitCode:        "U1",
			DiscountPercent: 10,
			Rows:            []domain.SeasonAggregate{{Season: "Winter", DailyRate: 165, WeeklyRate: 1155, Nights: 2}},
			Filename:        "U1_10_2024-05-06.csv",
		},
	}

	tests := []struct {
		name       string
		fields     map[string]string
		filename   string
		setupMock  func(*MockBaselineService)
		wantStatus int
		wantType   string
		check      func(t *testing.T, body map[string]interface{})
	}{
		{
			name:     "unit and discount",
			fields:   map[string]string{"unit": " U1 ", "discount": "10"},
			filename: "rates.csv",
			setupMock: func(m *MockBaselineService) {
				m.On("Preview", "U1", 10).Return(preview, nil)
			},
			wantStatus: http.StatusOK,
			check: func(t *testing.T, body map[string]interface{}) {
				b := body["baseline"].(map[string]interface{})
				assert.Equal(t, "U1_10_2024-05-06.csv", b["filename"])
				assert.Len(t, b["rows"], 1)
			},
		},
		{
			name:     "no unit is an empty state",
			fields:   map[string]string{},
			filename: "rates.csv",
			setupMock: func(m *MockBaselineService) {
				m.On("Preview", "", 0).Return(&services.PreviewResult{Units: []string{"U1", "U2"}}, nil)
			},
			wantStatus: http.StatusOK,
			check: func(t *testing.T, body map[string]interface{}) {
				assert.NotContains(t, body, "baseline")
				assert.Len(t, body["units"], 2)
			},
		},
		{
			name:       "discount out of range",
			fields:     map[string]string{"unit": "U1", "discount": "150"},
			filename:   "rates.csv",
			setupMock:  func(m *MockBaselineService) {},
			wantStatus: http.StatusBadRequest,
			wantType:   apierrors.TypeValidation,
		},
		{
			name:       "discount not an integer",
			fields:     map[string]string{"unit": "U1", "discount": "12.5"},
			filename:   "rates.csv",
			setupMock:  func(m *MockBaselineService) {},
			wantStatus: http.StatusBadRequest,
			wantType:   apierrors.TypeValidation,
			check: func(t *testing.T, body map[string]interface{}) {
				details := body["details"].(map[string]interface{})
				assert.Equal(t, "discount", details["field"])
			},
		},
		{
			name:       "missing file",
			fields:     map[string]string{"unit": "U1"},
			setupMock:  func(m *MockBaselineService) {},
			wantStatus: http.StatusBadRequest,
			wantType:   apierrors.TypeValidation,
		},
		{
			name:     "unit not in file",
			fields:   map[string]string{"unit": "U9"},
			filename: "rates.csv",
			setupMock: func(m *MockBaselineService) {
				m.On("Preview", "U9", 0).Return(nil, fmt.Errorf("%w: %q", services.ErrUnitNotFound, "U9"))
			},
			wantStatus: http.StatusNotFound,
			wantType:   apierrors.TypeUnitNotFound,
			check: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, apierrors.CodeUnitNotFound, body["error_code"])
			},
		},
		{
			name:     "malformed rate file",
			fields:   map[string]string{"unit": "U1"},
			filename: "rates.csv",
			setupMock: func(m *MockBaselineService) {
				m.On("Preview", "U1", 0).Return(nil, &dataprocessing.ParseError{Row: 2, Column: "2024-02-01", Value: "ten", Err: dataprocessing.ErrInvalidRate})
			},
			wantStatus: http.StatusUnprocessableEntity,
			wantType:   apierrors.TypeRateFileInvalid,
			check: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, float64(2), body["row"])
			},
		},
		{
			name:     "season source down",
			fields:   map[string]string{"unit": "U1"},
			filename: "rates.csv",
			setupMock: func(m *MockBaselineService) {
				m.On("Preview", "U1", 0).Return(nil, &seasons.FetchError{SourceID: "sheets:x/Seasons", Err: assert.AnError})
			},
			wantStatus: http.StatusBadGateway,
			wantType:   apierrors.TypeSeasonSourceDown,
		},
		{
			name:     "discount rejected by the service",
			fields:   map[string]string{"unit": "U1", "discount": "-100"},
			filename: "rates.csv",
			setupMock: func(m *MockBaselineService) {
				m.On("Preview", "U1", -100).Return(nil, baseline.ErrDiscountOutOfRange)
			},
			wantStatus: http.StatusBadRequest,
			wantType:   apierrors.TypeValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockBaselineService)
			tt.setupMock(svc)
			router := newBaselineRouter(t, svc, 1<<20)

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, multipartRequest(t, "/api/baseline/preview", tt.filename, testutil.RatesCSV, tt.fields))

			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			body := problem(t, rec)
			if tt.wantType != "" {
				assert.Equal(t, tt.wantType, body["type"])
			}
			if tt.check != nil {
				tt.check(t, body)
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestBaselineHandler_Download(t *testing.T) {
	svc := new(MockBaselineService)
	svc.On("Download", "U1", -10, domain.ExportFormatXLSX).Return(&services.Download{
		Filename:    "U1_-10_2024-05-06.xlsx",
		ContentType: domain.ExportFormatXLSX.ContentType(),
		Data:        []byte("PK-data"),
	}, nil)
	router := newBaselineRouter(t, svc, 1<<20)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, multipartRequest(t, "/api/baseline/download", "rates.xlsx", "binary",
		map[string]string{"unit": "U1", "discount": "-10", "format": "XLSX"}))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.ExportFormatXLSX.ContentType(), rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename=U1_-10_2024-05-06.xlsx`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "7", rec.Header().Get("Content-Length"))
	assert.Equal(t, "PK-data", rec.Body.String())
	svc.AssertExpectations(t)
}

func TestBaselineHandler_DownloadValidation(t *testing.T) {
	tests := []struct {
		name      string
		fields    map[string]string
		wantField string
	}{
		{"unit required", map[string]string{"discount": "5"}, "unit"},
		{"bad format", map[string]string{"unit": "U1", "format": "pdf"}, "format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockBaselineService)
			router := newBaselineRouter(t, svc, 1<<20)

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, multipartRequest(t, "/api/baseline/download", "rates.csv", testutil.RatesCSV, tt.fields))

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			details := problem(t, rec)["details"].(map[string]interface{})
			assert.Equal(t, tt.wantField, details["field"])
			svc.AssertNotCalled(t, "Download", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestBaselineHandler_UploadLimits(t *testing.T) {
	svc := new(MockBaselineService)
	router := newBaselineRouter(t, svc, 64)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, multipartRequest(t, "/api/baseline/units", "rates.csv", strings.Repeat("x", 256), nil))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, apierrors.TypePayloadTooLarge, problem(t, rec)["type"])

	// Unknown length still hits the limit while reading.
	req := multipartRequest(t, "/api/baseline/units", "rates.csv", strings.Repeat("x", 256), nil)
	req.ContentLength = -1
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

	svc.AssertNotCalled(t, "Units", mock.Anything)
}

func TestBaselineHandler_RequiresMultipart(t *testing.T) {
	svc := new(MockBaselineService)
	router := newBaselineRouter(t, svc, 1<<20)

	req := httptest.NewRequest(http.MethodPost, "/api/baseline/units", strings.NewReader(`{"unit":"U1"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
	assert.Equal(t, apierrors.TypeRateFileUnsupported, problem(t, rec)["type"])
}
