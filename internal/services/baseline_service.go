package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"baselinebuilder/internal/baseline"
	"baselinebuilder/internal/dataprocessing"
	"baselinebuilder/internal/exporter"
	"baselinebuilder/internal/infrastructure"
	"baselinebuilder/internal/seasons"
	"baselinebuilder/pkg/contracts/domain"
)

// SeasonLoader supplies the current season table.
type SeasonLoader interface {
	Load(ctx context.Context) (*domain.SeasonTable, error)
	Refresh(ctx context.Context) (*domain.SeasonTable, error)
	FetchedAt() (time.Time, bool)
	SourceID() string
	Stats() seasons.CacheStats
}

// Upload is a rate export received from a client.
type Upload struct {
	Name string
	Size int64
	Body io.Reader
}

// BaselineRequest is one interaction: a rate file, a unit and a discount.
type BaselineRequest struct {
	Upload          Upload
	Unit            string
	DiscountPercent int
}

// PreviewResult is the unit list plus, when a unit was selected, its baseline.
type PreviewResult struct {
	Units    []string         `json:"units"`
	Baseline *domain.Baseline `json:"baseline,omitempty"`
}

// Download is a rendered baseline file.
type Download struct {
	Filename    string
	ContentType string
	Data        []byte
	Baseline    *domain.Baseline
}

// SeasonsResult describes the season table currently in use.
type SeasonsResult struct {
	Source    string             `json:"source"`
	FetchedAt time.Time          `json:"fetched_at"`
	Seasons   []domain.Season    `json:"seasons"`
	Overlaps  []baseline.Overlap `json:"overlaps,omitempty"`
	Cache     seasons.CacheStats `json:"cache"`
}

// BaselineService runs the season-assignment and aggregation pipeline for
// each interaction. It holds no per-request state.
type BaselineService struct {
	loader        SeasonLoader
	exporter      *exporter.Exporter
	parseOptions  dataprocessing.ParseOptions
	defaultFormat domain.ExportFormat
	metrics       *infrastructure.BusinessMetrics
	tracer        trace.Tracer
	logger        *slog.Logger
	now           func() time.Time
}

// BaselineOption configures a BaselineService.
type BaselineOption func(*BaselineService)

// WithBusinessMetrics records pipeline runs on m.
func WithBusinessMetrics(m *infrastructure.BusinessMetrics) BaselineOption {
	return func(s *BaselineService) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithServiceTracer sets the tracer used for pipeline spans.
func WithServiceTracer(t trace.Tracer) BaselineOption {
	return func(s *BaselineService) {
		if t != nil {
			s.tracer = t
		}
	}
}

// WithDefaultFormat sets the format used when a download names none.
func WithDefaultFormat(f domain.ExportFormat) BaselineOption {
	return func(s *BaselineService) { s.defaultFormat = f }
}

// WithNow replaces the clock used for filenames and timestamps.
func WithNow(now func() time.Time) BaselineOption {
	return func(s *BaselineService) { s.now = now }
}

// NewBaselineService creates a new baseline service
func NewBaselineService(loader SeasonLoader, exp *exporter.Exporter, logger *slog.Logger, opts ...BaselineOption) *BaselineService {
	logger = infrastructure.WithComponent(logger, "baseline_service")
	parseOptions := dataprocessing.DefaultOptions()
	parseOptions.Logger = logger

	s := &BaselineService{
		loader:        loader,
		exporter:      exp,
		parseOptions:  parseOptions,
		defaultFormat: domain.ExportFormatCSV,
		metrics:       infrastructure.NoopBusinessMetrics(),
		tracer:        otel.Tracer(infrastructure.MeterName),
		logger:        logger,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Units parses the upload and returns its unit codes in sorted order.
func (s *BaselineService) Units(ctx context.Context, upload Upload) ([]string, error) {
	rates, err := s.parse(ctx, upload)
	if err != nil {
		return nil, err
	}
	return rates.Units, nil
}

// Preview returns the unit list and, when req names a unit, its baseline.
// Without a unit the pipeline does not run and no season fetch happens.
func (s *BaselineService) Preview(ctx context.Context, req BaselineRequest) (*PreviewResult, error) {
	if strings.TrimSpace(req.Unit) == "" {
		units, err := s.Units(ctx, req.Upload)
		if err != nil {
			return nil, err
		}
		return &PreviewResult{Units: units}, nil
	}

	b, rates, err := s.run(ctx, "preview", req)
	if err != nil {
		return nil, err
	}
	return &PreviewResult{Units: rates.Units, Baseline: b}, nil
}

// Build computes the baseline for req.
func (s *BaselineService) Build(ctx context.Context, req BaselineRequest) (*domain.Baseline, error) {
	if strings.TrimSpace(req.Unit) == "" {
		return nil, ErrNoUnitSelected
	}
	b, _, err := s.run(ctx, "build", req)
	return b, err
}

// Download computes the baseline for req and renders it in format. An
// empty format means the configured default.
func (s *BaselineService) Download(ctx context.Context, req BaselineRequest, format domain.ExportFormat) (*Download, error) {
	if format == "" {
		format = s.defaultFormat
	}
	if !format.Valid() {
		return nil, fmt.Errorf("%w: %q", exporter.ErrUnsupportedFormat, format)
	}
	if strings.TrimSpace(req.Unit) == "" {
		return nil, ErrNoUnitSelected
	}

	b, _, err := s.run(ctx, "download", req)
	if err != nil {
		return nil, err
	}
	b.Filename = exporter.Filename(b, format)

	var buf bytes.Buffer
	if err := s.exporter.Write(&buf, b, format); err != nil {
		return nil, fmt.Errorf("render %s: %w", format, err)
	}

	return &Download{
		Filename:    b.Filename,
		ContentType: format.ContentType(),
		Data:        buf.Bytes(),
		Baseline:    b,
	}, nil
}

// Seasons returns the season table in use, loading it if the cached copy
// is missing or stale.
func (s *BaselineService) Seasons(ctx context.Context) (*SeasonsResult, error) {
	table, err := s.loader.Load(ctx)
	if err != nil {
		return nil, err
	}
	return s.seasonsResult(table), nil
}

// RefreshSeasons refetches the season table regardless of freshness.
func (s *BaselineService) RefreshSeasons(ctx context.Context) (*SeasonsResult, error) {
	table, err := s.loader.Refresh(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "season table refreshed",
		slog.String("source", table.SourceID),
		slog.Int("seasons", len(table.Seasons)))
	return s.seasonsResult(table), nil
}

func (s *BaselineService) seasonsResult(table *domain.SeasonTable) *SeasonsResult {
	fetchedAt, _ := s.loader.FetchedAt()
	return &SeasonsResult{
		Source:    table.SourceID,
		FetchedAt: fetchedAt,
		Seasons:   table.Seasons,
		Overlaps:  baseline.FindOverlaps(table.Seasons),
		Cache:     s.loader.Stats(),
	}
}

// run loads the season table and parses the upload concurrently, then
// aggregates. Both inputs must succeed.
func (s *BaselineService) run(ctx context.Context, operation string, req BaselineRequest) (_ *domain.Baseline, _ *domain.RateTable, err error) {
	start := time.Now()
	unit := strings.TrimSpace(req.Unit)

	ctx, span := s.tracer.Start(ctx, "baseline."+operation,
		trace.WithAttributes(
			attribute.String("baseline.unit", unit),
			attribute.Int("baseline.discount_percent", req.DiscountPercent),
		))
	defer func() {
		if err != nil {
			infrastructure.RecordError(ctx, err)
		}
		span.End()
		infrastructure.RecordPipelineMetrics(ctx, s.metrics, operation, time.Since(start), err)
	}()

	if err := baseline.ValidateDiscount(req.DiscountPercent); err != nil {
		return nil, nil, err
	}

	var (
		seasonTable *domain.SeasonTable
		rates       *domain.RateTable
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		t, err := s.loader.Load(gctx)
		seasonTable = t
		return err
	})
	g.Go(func() error {
		r, err := s.parse(gctx, req.Upload)
		rates = r
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	if !rates.HasUnit(unit) {
		return nil, rates, fmt.Errorf("%w: %q", ErrUnitNotFound, unit)
	}

	_, aggSpan := s.tracer.Start(ctx, "baseline.aggregate")
	b := baseline.Build(unit, req.DiscountPercent, rates.ForUnit(unit), seasonTable.Seasons, s.now())
	aggSpan.SetAttributes(attribute.Int("baseline.rows", len(b.Rows)))
	aggSpan.End()

	s.logger.InfoContext(ctx, "baseline computed",
		slog.String("operation", operation),
		slog.String("unit", unit),
		slog.Int("discount_percent", req.DiscountPercent),
		slog.Int("seasons", len(seasonTable.Seasons)),
		slog.Int("rows", len(b.Rows)),
		slog.Duration("duration", time.Since(start)))

	return b, rates, nil
}

func (s *BaselineService) parse(ctx context.Context, upload Upload) (*domain.RateTable, error) {
	if upload.Body == nil {
		return nil, ErrMissingUpload
	}

	ctx, span := s.tracer.Start(ctx, "baseline.parse",
		trace.WithAttributes(
			attribute.String("upload.name", upload.Name),
			attribute.Int64("upload.size", upload.Size),
		))
	defer span.End()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.metrics.UploadBytes.Add(ctx, upload.Size)

	table, err := dataprocessing.ReadUpload(upload.Name, upload.Body)
	if err != nil {
		infrastructure.RecordError(ctx, err)
		return nil, err
	}
	rates, err := dataprocessing.ParseRateTable(table, s.parseOptions)
	if err != nil {
		infrastructure.RecordError(ctx, err)
		return nil, err
	}

	s.logger.DebugContext(ctx, "rate file parsed",
		slog.String("name", upload.Name),
		slog.Int("units", len(rates.Units)),
		slog.Int("rows", len(rates.Rows)))
	return rates, nil
}
