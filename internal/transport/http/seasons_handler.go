package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "baselinebuilder/internal/errors"
)

// SeasonsHandler exposes the season table in use.
type SeasonsHandler struct {
	service      BaselineServiceInterface
	errorHandler *apierrors.ErrorHandler
	logger       *slog.Logger
}

// NewSeasonsHandler creates a new seasons handler
func NewSeasonsHandler(service BaselineServiceInterface, errorHandler *apierrors.ErrorHandler, logger *slog.Logger) *SeasonsHandler {
	return &SeasonsHandler{
		service:      service,
		errorHandler: errorHandler,
		logger:       logger.With(slog.String("component", "seasons_handler")),
	}
}

// Routes returns the season routes
func (h *SeasonsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Post("/refresh", h.Refresh)
	return r
}

// List handles GET /api/seasons
func (h *SeasonsHandler) List(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.Seasons(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, result)
}

// Refresh handles POST /api/seasons/refresh
func (h *SeasonsHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.RefreshSeasons(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	h.logger.InfoContext(r.Context(), "season table refresh requested",
		slog.String("source", result.Source))
	render.JSON(w, r, result)
}
