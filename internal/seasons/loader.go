package seasons

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"baselinebuilder/internal/baseline"
	"baselinebuilder/internal/dataprocessing"
	"baselinebuilder/internal/infrastructure"
	"baselinebuilder/pkg/contracts/domain"
)

var (
	// ErrInvalidSeasonTable wraps a ParseError raised while reading the season table.
	ErrInvalidSeasonTable = errors.New("invalid season table")
	// ErrNoSource is returned when neither a sheet nor a season file is configured.
	ErrNoSource = errors.New("no season source configured")
)

// DefaultFetchTimeout bounds a fetch when no WithFetchTimeout is given.
const DefaultFetchTimeout = 30 * time.Second

// FetchError reports that the season source could not be read.
type FetchError struct {
	SourceID string
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch season table from %s: %v", e.SourceID, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Loader serves the season table from Cache and fetches it from Source when the
// cached copy is missing or stale. Concurrent misses share one fetch.
type Loader struct {
	source       Source
	cache        *Cache
	logger       *slog.Logger
	metrics      *infrastructure.BusinessMetrics
	tracer       trace.Tracer
	fetchTimeout time.Duration
	group        singleflight.Group
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithMetrics records cache and fetch metrics.
func WithMetrics(m *infrastructure.BusinessMetrics) LoaderOption {
	return func(l *Loader) {
		if m != nil {
			l.metrics = m
		}
	}
}

// WithTracer sets the tracer used for fetch spans.
func WithTracer(t trace.Tracer) LoaderOption {
	return func(l *Loader) { l.tracer = t }
}

// WithFetchTimeout bounds a single fetch. Zero keeps DefaultFetchTimeout.
func WithFetchTimeout(d time.Duration) LoaderOption {
	return func(l *Loader) {
		if d > 0 {
			l.fetchTimeout = d
		}
	}
}

// NewLoader creates a loader over source. A nil cache gets a DefaultTTL cache.
func NewLoader(source Source, cache *Cache, logger *slog.Logger, opts ...LoaderOption) *Loader {
	if cache == nil {
		cache = NewCache(DefaultTTL, nil)
	}
	if logger == nil {
		logger = slog.Default()
	}
	l := &Loader{
		source:  source,
		cache:   cache,
		logger:  logger.With(slog.String("component", "season_loader")),
		metrics:      infrastructure.NoopBusinessMetrics(),
		tracer:       otel.Tracer(infrastructure.MeterName),
		fetchTimeout: DefaultFetchTimeout,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// SourceID identifies the underlying source.
func (l *Loader) SourceID() string {
	return l.source.ID()
}

// Load returns the season table, fetching it when the cached copy is not fresh.
// Failures are never cached and never fall back to a stale copy.
//
// The fetch is shared by every concurrent caller, so it runs detached from
// ctx and is bounded by the fetch timeout alone. A caller whose ctx ends
// stops waiting without cancelling the fetch for the others.
func (l *Loader) Load(ctx context.Context) (*domain.SeasonTable, error) {
	key := l.source.ID()
	attrs := metric.WithAttributes(attribute.String("source", key))

	if table, ok := l.cache.Get(key); ok {
		l.metrics.SeasonCacheHits.Add(ctx, 1, attrs)
		return table, nil
	}
	l.metrics.SeasonCacheMisses.Add(ctx, 1, attrs)

	fetchCtx := context.WithoutCancel(ctx)
	ch := l.group.DoChan(key, func() (interface{}, error) {
		// A caller that missed just before another fetch finished finds it here.
		if table, ok := l.cache.peek(key); ok {
			return table, nil
		}
		return l.fetch(fetchCtx, key)
	})

	select {
	case <-ctx.Done():
		return nil, &FetchError{SourceID: key, Err: ctx.Err()}
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			l.logger.DebugContext(ctx, "season fetch shared with concurrent caller")
		}
		return res.Val.(*domain.SeasonTable), nil
	}
}

// Refresh drops the cached table and loads it again.
func (l *Loader) Refresh(ctx context.Context) (*domain.SeasonTable, error) {
	l.Invalidate()
	return l.Load(ctx)
}

// Invalidate drops the cached table for this loader's source.
func (l *Loader) Invalidate() {
	l.cache.Invalidate(l.source.ID())
}

// FetchedAt reports when the cached table was fetched.
func (l *Loader) FetchedAt() (time.Time, bool) {
	return l.cache.FetchedAt(l.source.ID())
}

// Stats exposes the cache statistics.
func (l *Loader) Stats() CacheStats {
	return l.cache.Stats()
}

func (l *Loader) fetch(ctx context.Context, key string) (*domain.SeasonTable, error) {
	ctx, span := l.tracer.Start(ctx, "seasons.fetch", trace.WithAttributes(attribute.String("season.source", key)))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, l.fetchTimeout)
	defer cancel()

	start := time.Now()
	raw, err := l.source.Fetch(ctx)
	l.metrics.SeasonFetchDuration.Record(ctx, time.Since(start).Seconds(),
		metric.WithAttributes(attribute.String("source", key)))

	if err != nil {
		var pe *dataprocessing.ParseError
		if errors.As(err, &pe) {
			err = fmt.Errorf("%w: %w", ErrInvalidSeasonTable, err)
		} else {
			err = &FetchError{SourceID: key, Err: err}
		}
		return nil, l.fail(ctx, key, err)
	}

	table, err := dataprocessing.ParseSeasonTable(raw, key)
	if err != nil {
		return nil, l.fail(ctx, key, fmt.Errorf("%w: %w", ErrInvalidSeasonTable, err))
	}

	for _, s := range table.Seasons {
		if s.Inverted() {
			l.logger.WarnContext(ctx, "season ends before it starts, it matches no date",
				slog.String("season", s.Name),
				slog.String("start_date", s.StartDate.String()),
				slog.String("end_date", s.EndDate.String()))
		}
	}
	for _, o := range baseline.FindOverlaps(table.Seasons) {
		l.logger.WarnContext(ctx, "season intervals overlap, earlier season wins",
			slog.String("first", o.First),
			slog.String("second", o.Second))
	}
	if len(table.Seasons) == 0 {
		l.logger.WarnContext(ctx, "season table is empty", slog.String("source", key))
	}

	l.cache.Put(key, table)
	span.SetAttributes(attribute.Int("season.count", len(table.Seasons)))
	l.logger.InfoContext(ctx, "season table loaded",
		slog.String("source", key),
		slog.Int("seasons", len(table.Seasons)),
		slog.Duration("duration", time.Since(start)))

	return table, nil
}

func (l *Loader) fail(ctx context.Context, key string, err error) error {
	l.metrics.SeasonFetchErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("source", key)))
	infrastructure.RecordError(ctx, err)
	l.logger.ErrorContext(ctx, "season table load failed",
		slog.String("source", key),
		slog.String("error", err.Error()))
	return err
}
