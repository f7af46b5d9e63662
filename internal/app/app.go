package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"baselinebuilder/internal/config"
	apierrors "baselinebuilder/internal/errors"
	"baselinebuilder/internal/exporter"
	"baselinebuilder/internal/infrastructure"
	customMiddleware "baselinebuilder/internal/middleware"
	"baselinebuilder/internal/seasons"
	"baselinebuilder/internal/services"
	handlers "baselinebuilder/internal/transport/http"
	"baselinebuilder/pkg/contracts"
	"baselinebuilder/pkg/contracts/domain"
)

// Application represents the main application container
type Application struct {
	Config          *config.Config
	Router          *chi.Mux
	Server          *http.Server
	Logger          *slog.Logger
	OTelProviders   *infrastructure.OTelProviders
	Metrics         *infrastructure.BusinessMetrics
	Loader          *seasons.Loader
	BaselineService *services.BaselineService
	HealthService   *services.HealthService
	ErrorHandler    *apierrors.ErrorHandler

	listener net.Listener
}

// NewApplication loads configuration from the default locations and the
// environment, then builds the application.
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return New(cfg, logger)
}

// New wires every component from an explicit configuration and logger.
func New(cfg *config.Config, logger *slog.Logger) (*Application, error) {
	logger.Info("Application starting",
		slog.String("name", config.AppName),
		slog.String("version", config.AppVersion),
		slog.String("build_time", contracts.BuildTime),
		slog.String("git_commit", contracts.GitCommit))

	otelProviders, err := infrastructure.InitializeOTel(cfg.Telemetry, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	metrics, err := infrastructure.CreateBusinessMetrics(otelProviders.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create business metrics: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Logger:        logger,
		OTelProviders: otelProviders,
		Metrics:       metrics,
		ErrorHandler:  apierrors.NewErrorHandler(logger, cfg.Logging.Development),
	}

	if err := app.initializeServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.setupRouter()
	app.createServer()

	return app, nil
}

// initializeServices builds the season loader and the services on top of it.
func (a *Application) initializeServices() error {
	// The sheets client keeps this context for token refreshes, so it must outlive startup.
	source, err := seasons.NewSource(context.Background(), a.Config.Sheets, a.Config.Seasons)
	if err != nil {
		return fmt.Errorf("failed to create season source: %w", err)
	}

	a.Loader = seasons.NewLoader(source,
		seasons.NewCache(a.Config.Sheets.CacheTTL, nil),
		a.Logger,
		seasons.WithMetrics(a.Metrics),
		seasons.WithTracer(a.OTelProviders.Tracer),
		seasons.WithFetchTimeout(a.Config.Sheets.FetchTimeout),
	)

	a.BaselineService = services.NewBaselineService(a.Loader,
		exporter.New(a.Config.Export, a.Logger),
		a.Logger,
		services.WithBusinessMetrics(a.Metrics),
		services.WithServiceTracer(a.OTelProviders.Tracer),
		services.WithDefaultFormat(domain.ExportFormat(a.Config.Export.DefaultFormat)),
	)

	a.HealthService = services.NewHealthService(config.AppVersion, a.Loader, a.Logger)

	a.Logger.Info("Services initialized",
		slog.String("season_source", a.Loader.SourceID()),
		slog.Duration("cache_ttl", a.Config.Sheets.CacheTTL))
	return nil
}

// setupRouter configures the HTTP router with all routes
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	// RequestID → RealIP → Logger → Recoverer → OTel → headers → CORS → rate limit → Timeout
	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)
	r.Use(customMiddleware.StructuredLogger(a.Logger))
	r.Use(apierrors.RecoveryMiddleware(a.ErrorHandler))
	r.Use(customMiddleware.NewOTelMiddleware(a.OTelProviders.Tracer, a.Metrics, a.Logger).Handler)
	r.Use(customMiddleware.SecurityHeaders)

	if a.Config.Security.EnableCORS {
		r.Use(customMiddleware.CORS(customMiddleware.CORSFromSecurity(a.Config.Security, a.Logger)))
	}

	if a.Config.Security.RateLimit.Enabled {
		r.Use(customMiddleware.NewRateLimiter(
			a.Config.Security.RateLimit.RPS,
			a.Config.Security.RateLimit.Burst,
			a.Logger,
			a.ErrorHandler,
		).Handler)
	}

	r.NotFound(a.ErrorHandler.NotFound)
	r.MethodNotAllowed(a.ErrorHandler.MethodNotAllowed)

	a.setupAPIRoutes(r)

	// Prometheus scrapes outside the request timeout
	if a.OTelProviders.PrometheusHTTP != nil {
		r.Handle("/metrics", a.OTelProviders.PrometheusHTTP)
	}

	a.Router = r
}

// setupAPIRoutes configures API endpoints
func (a *Application) setupAPIRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Use(customMiddleware.Timeout(a.Config.Server.RequestTimeout, a.Logger))

		healthHandler := handlers.NewHealthHandler(a.HealthService, a.Logger)
		r.Get("/health", healthHandler.HealthCheck)
		r.Get("/health/ready", healthHandler.ReadinessCheck)

		validator := customMiddleware.NewValidator(a.Logger)
		baselineHandler := handlers.NewBaselineHandler(a.BaselineService, a.Config.Server, validator, a.ErrorHandler, a.Logger)
		r.Mount("/baseline", baselineHandler.Routes())

		seasonsHandler := handlers.NewSeasonsHandler(a.BaselineService, a.ErrorHandler, a.Logger)
		r.Mount("/seasons", seasonsHandler.Routes())
	})
}

func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
		ErrorLog:       slog.NewLogLogger(a.Logger.Handler(), slog.LevelError),
	}
}

// Addr returns the address the server is listening on, or the configured
// address before Start.
func (a *Application) Addr() string {
	if a.listener != nil {
		return a.listener.Addr().String()
	}
	return a.Server.Addr
}

// Start binds the listener and serves in the background. A serve failure
// after startup cancels ctx through cancel.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	ln, err := net.Listen("tcp", a.Server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", a.Server.Addr, err)
	}
	a.listener = ln

	go func() {
		if err := a.Server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	go a.warmSeasons(ctx)

	a.Logger.InfoContext(ctx, "Application started successfully",
		slog.String("address", ln.Addr().String()),
		slog.String("season_source", a.Loader.SourceID()))
	return nil
}

// warmSeasons fills the season cache so the first request does not pay for
// the fetch. Failure is only logged; requests retry the fetch.
func (a *Application) warmSeasons(ctx context.Context) {
	table, err := a.Loader.Load(ctx)
	if err != nil {
		a.Logger.WarnContext(ctx, "Season table warm-up failed",
			slog.String("source", a.Loader.SourceID()),
			slog.String("error", err.Error()))
		return
	}
	a.Logger.InfoContext(ctx, "Season table loaded",
		slog.String("source", table.SourceID),
		slog.Int("seasons", len(table.Seasons)))
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
		}
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return nil
}

// Run runs the application until interrupted or the server fails.
func (a *Application) Run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := a.Start(ctx, cancel); err != nil {
		return err
	}

	<-ctx.Done()
	a.Logger.Info("Received shutdown signal")

	// ctx is already done; give shutdown its own deadline.
	return a.Stop(context.Background())
}
