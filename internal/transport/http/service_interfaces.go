package http

import (
	"context"

	"baselinebuilder/internal/services"
	"baselinebuilder/pkg/contracts/domain"
)

// BaselineServiceInterface defines the interface for baseline operations
type BaselineServiceInterface interface {
	Units(ctx context.Context, upload services.Upload) ([]string, error)
	Preview(ctx context.Context, req services.BaselineRequest) (*services.PreviewResult, error)
	Download(ctx context.Context, req services.BaselineRequest, format domain.ExportFormat) (*services.Download, error)
	Seasons(ctx context.Context) (*services.SeasonsResult, error)
	RefreshSeasons(ctx context.Context) (*services.SeasonsResult, error)
}

// HealthServiceInterface defines the interface for health probes
type HealthServiceInterface interface {
	HealthCheck(ctx context.Context) services.HealthStatus
	ReadinessCheck(ctx context.Context) services.HealthStatus
}
