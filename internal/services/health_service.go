package services

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"baselinebuilder/internal/infrastructure"
	"baselinebuilder/pkg/contracts"
)

// HealthService provides health check functionality
type HealthService struct {
	version   string
	loader    SeasonLoader
	startTime time.Time
	logger    *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                   `json:"status"`
	Timestamp time.Time                `json:"timestamp"`
	Version   string                   `json:"version"`
	Build     *contracts.VersionInfo   `json:"build,omitempty"`
	Runtime   map[string]interface{}   `json:"runtime,omitempty"`
	Services  map[string]ServiceHealth `json:"services,omitempty"`
}

// Ready reports whether every dependency is ready.
func (h HealthStatus) Ready() bool {
	return h.Status == "ready"
}

// ServiceHealth represents individual service health
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Source  string `json:"source,omitempty"`
}

// NewHealthService creates a new health service
func NewHealthService(version string, loader SeasonLoader, logger *slog.Logger) *HealthService {
	logger = infrastructure.WithComponent(logger, "health_service")
	logger.Info("HealthService initialized", slog.String("version", version))

	return &HealthService{
		version:   version,
		loader:    loader,
		startTime: time.Now(),
		logger:    logger,
	}
}

// HealthCheck returns overall health status
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	build := contracts.GetVersionInfo()
	return HealthStatus{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   hs.version,
		Build:     &build,
		Runtime: map[string]interface{}{
			"uptime":     time.Since(hs.startTime).Seconds(),
			"go_version": runtime.Version(),
			"goroutines": runtime.NumGoroutine(),
		},
	}
}

// ReadinessCheck reports ready when the season table can be loaded. A
// fresh cached copy counts, so probes do not hammer the season source.
func (hs *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "ready",
		Timestamp: time.Now(),
		Version:   hs.version,
		Services:  map[string]ServiceHealth{"seasons": hs.checkSeasons(ctx)},
	}

	for name, svc := range status.Services {
		if svc.Status != "ready" {
			status.Status = "not_ready"
			hs.logger.WarnContext(ctx, "readiness check failed",
				slog.String("service", name),
				slog.String("message", svc.Message))
		}
	}
	return status
}

func (hs *HealthService) checkSeasons(ctx context.Context) ServiceHealth {
	if hs.loader == nil {
		return ServiceHealth{Status: "not_ready", Message: "season loader not initialized"}
	}

	table, err := hs.loader.Load(ctx)
	if err != nil {
		return ServiceHealth{
			Status:  "not_ready",
			Message: fmt.Sprintf("season table unavailable: %v", err),
			Source:  hs.loader.SourceID(),
		}
	}
	return ServiceHealth{
		Status:  "ready",
		Message: fmt.Sprintf("%d seasons loaded", len(table.Seasons)),
		Source:  table.SourceID,
	}
}
