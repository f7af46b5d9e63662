package http

import (
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"baselinebuilder/internal/baseline"
	"baselinebuilder/internal/config"
	apierrors "baselinebuilder/internal/errors"
	"baselinebuilder/internal/exporter"
	"baselinebuilder/internal/middleware"
	"baselinebuilder/internal/services"
	api "baselinebuilder/pkg/contracts/api/v1"
	"baselinebuilder/pkg/contracts/domain"
)

// multipartMemory is how much of a multipart form is kept in memory before
// spilling to temp files.
const multipartMemory = 8 << 20

// BaselineHandler handles rate file uploads with RFC 7807 compliance
type BaselineHandler struct {
	service      BaselineServiceInterface
	validator    *middleware.Validator
	errorHandler *apierrors.ErrorHandler
	logger       *slog.Logger
	maxUpload    int64
}

// NewBaselineHandler creates a new baseline handler
func NewBaselineHandler(service BaselineServiceInterface, cfg config.ServerConfig, validator *middleware.Validator, errorHandler *apierrors.ErrorHandler, logger *slog.Logger) *BaselineHandler {
	return &BaselineHandler{
		service:      service,
		validator:    validator,
		errorHandler: errorHandler,
		logger:       logger.With(slog.String("component", "baseline_handler")),
		maxUpload:    cfg.MaxUploadBytes,
	}
}

// Routes returns the baseline routes
func (h *BaselineHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.ContentTypeValidator(h.errorHandler, "multipart/form-data"))

	r.Post("/units", h.Units)
	r.Post("/preview", h.Preview)
	r.Post("/download", h.Download)

	return r
}

// Units handles POST /api/baseline/units
func (h *BaselineHandler) Units(w http.ResponseWriter, r *http.Request) {
	upload, cleanup, err := h.readUpload(w, r)
	if err != nil {
		h.fail(w, r, err, "")
		return
	}
	defer cleanup()

	units, err := h.service.Units(r.Context(), upload)
	if err != nil {
		h.fail(w, r, err, "")
		return
	}
	render.JSON(w, r, api.UnitsResponse{Units: units})
}

// Preview handles POST /api/baseline/preview
func (h *BaselineHandler) Preview(w http.ResponseWriter, r *http.Request) {
	upload, cleanup, err := h.readUpload(w, r)
	if err != nil {
		h.fail(w, r, err, "")
		return
	}
	defer cleanup()

	var form api.PreviewRequest
	if err := h.decodeForm(r, &form.Unit, &form.Discount); err != nil {
		h.fail(w, r, err, "")
		return
	}
	if err := h.validator.ValidateStruct(form); err != nil {
		h.fail(w, r, err, form.Unit)
		return
	}

	result, err := h.service.Preview(r.Context(), services.BaselineRequest{
		Upload:          upload,
		Unit:            form.Unit,
		DiscountPercent: form.Discount,
	})
	if err != nil {
		h.fail(w, r, err, form.Unit)
		return
	}
	render.JSON(w, r, result)
}

// Download handles POST /api/baseline/download
func (h *BaselineHandler) Download(w http.ResponseWriter, r *http.Request) {
	upload, cleanup, err := h.readUpload(w, r)
	if err != nil {
		h.fail(w, r, err, "")
		return
	}
	defer cleanup()

	var form api.DownloadRequest
	if err := h.decodeForm(r, &form.Unit, &form.Discount); err != nil {
		h.fail(w, r, err, "")
		return
	}
	form.Format = strings.ToLower(strings.TrimSpace(r.FormValue(config.FormFieldFormat)))
	if err := h.validator.ValidateStruct(form); err != nil {
		h.fail(w, r, err, form.Unit)
		return
	}

	dl, err := h.service.Download(r.Context(), services.BaselineRequest{
		Upload:          upload,
		Unit:            form.Unit,
		DiscountPercent: form.Discount,
	}, domain.ExportFormat(form.Format))
	if err != nil {
		h.fail(w, r, err, form.Unit)
		return
	}

	w.Header().Set("Content-Type", dl.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": dl.Filename}))
	w.Header().Set("Content-Length", strconv.Itoa(len(dl.Data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(dl.Data); err != nil {
		h.logger.WarnContext(r.Context(), "download write failed",
			slog.String("filename", dl.Filename),
			slog.String("error", err.Error()))
	}
}

// readUpload enforces the upload limit and opens the "file" part. The
// returned cleanup closes the part and removes multipart temp files.
func (h *BaselineHandler) readUpload(w http.ResponseWriter, r *http.Request) (services.Upload, func(), error) {
	if h.maxUpload > 0 {
		if r.ContentLength > h.maxUpload {
			return services.Upload{}, nil, apierrors.PayloadTooLarge(h.maxUpload)
		}
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	}

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return services.Upload{}, nil, apierrors.PayloadTooLarge(h.maxUpload)
		}
		return services.Upload{}, nil, apierrors.InvalidRequestWithError(err)
	}

	file, header, err := r.FormFile(config.FormFieldFile)
	if err != nil {
		r.MultipartForm.RemoveAll()
		if errors.Is(err, http.ErrMissingFile) {
			return services.Upload{}, nil, apierrors.ErrMissingFile
		}
		return services.Upload{}, nil, apierrors.InvalidRequestWithError(err)
	}

	cleanup := func() {
		file.Close()
		r.MultipartForm.RemoveAll()
	}
	return services.Upload{Name: header.Filename, Size: header.Size, Body: file}, cleanup, nil
}

// decodeForm reads the unit and discount fields. A missing discount is 0.
func (h *BaselineHandler) decodeForm(r *http.Request, unit *string, discount *int) error {
	*unit = strings.TrimSpace(r.FormValue(config.FormFieldUnit))

	raw := strings.TrimSpace(r.FormValue(config.FormFieldDiscount))
	if raw == "" {
		*discount = 0
		return nil
	}
	d, err := strconv.Atoi(raw)
	if err != nil {
		return apierrors.ErrValidation(config.FormFieldDiscount,
			fmt.Sprintf("discount must be an integer percent, got %q", raw))
	}
	*discount = d
	return nil
}

// fail maps service sentinels to API errors and hands off to the error handler.
func (h *BaselineHandler) fail(w http.ResponseWriter, r *http.Request, err error, unit string) {
	switch {
	case errors.Is(err, services.ErrUnitNotFound):
		err = apierrors.UnitNotFound(unit)
	case errors.Is(err, services.ErrNoUnitSelected):
		err = apierrors.ErrValidation(config.FormFieldUnit, "unit is required")
	case errors.Is(err, services.ErrMissingUpload):
		err = apierrors.ErrMissingFile
	case errors.Is(err, baseline.ErrDiscountOutOfRange):
		err = apierrors.ErrValidation(config.FormFieldDiscount, err.Error())
	case errors.Is(err, exporter.ErrUnsupportedFormat):
		err = apierrors.ErrValidation(config.FormFieldFormat, "format must be one of: csv, xlsx")
	}
	h.errorHandler.HandleError(w, r, err)
}
