// Package service provides the core business service that implements
// the dependencies required by the HTTP API and the console report.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/okian/covidboard/internal/adapters/repository"
	"github.com/okian/covidboard/internal/adapters/source"
	"github.com/okian/covidboard/internal/config"
	"github.com/okian/covidboard/internal/domain/model"
	"github.com/okian/covidboard/internal/domain/ranking"
	"github.com/okian/covidboard/internal/domain/resolve"
	"github.com/okian/covidboard/internal/domain/summary"
	"github.com/okian/covidboard/internal/domain/timeslice"
	"github.com/okian/covidboard/pkg/logger"
	"github.com/okian/covidboard/pkg/metrics"
)

// SnapshotSource loads the country snapshot.
type SnapshotSource interface {
	Load(ctx context.Context) (*model.Dataset, error)
}

// TimelineSource loads the global timeline.
type TimelineSource interface {
	Load(ctx context.Context) (model.Timeline, error)
}

// Service implements the API dependencies for the dashboard.
type Service struct {
	mu sync.RWMutex

	cfg *config.Config

	// Sources and the cache keys they are stored under.
	snapshot    SnapshotSource
	snapshotKey string
	timeline    TimelineSource
	timelineKey string

	datasets  *repository.Cache[*model.Dataset]
	timelines *repository.Cache[model.Timeline]

	// State
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithConfig sets the configuration used to build default sources.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		if cfg != nil {
			s.cfg = cfg
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithSnapshotSource replaces the snapshot source; key identifies it in the cache.
func WithSnapshotSource(key string, src SnapshotSource) Option {
	return func(s *Service) {
		if src != nil && key != "" {
			s.snapshot, s.snapshotKey = src, key
		}
	}
}

// WithTimelineSource replaces the timeline source; key identifies it in the cache.
func WithTimelineSource(key string, src TimelineSource) Option {
	return func(s *Service) {
		if src != nil && key != "" {
			s.timeline, s.timelineKey = src, key
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		cfg:    config.New(),
		logger: nil, // Will be replaced when service starts
	}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start builds the sources and caches and warms both sources concurrently.
// A snapshot failure aborts start; a timeline failure falls back to the
// placeholder series.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return nil
	}

	// Initialize logger if not already set
	if s.logger == nil {
		s.logger = logger.Get()
	}
	s.logger = s.logger.Named("service")

	if s.snapshot == nil {
		s.snapshot = source.NewCSVFile(s.cfg.DataPath, s.logger)
		s.snapshotKey = repository.FileKey(s.cfg.DataPath)
	}
	if s.timeline == nil {
		s.timeline = source.NewHistorical(s.cfg.HistoryURL, s.cfg.HistoryDays,
			source.WithTimeout(s.cfg.HistoryTimeout()),
			source.WithHistoricalLogger(s.logger),
		)
		s.timelineKey = repository.HistoryKey(s.cfg.HistoryURL, s.cfg.HistoryDays)
	}

	s.datasets = repository.NewCache[*model.Dataset](ctx, repository.WithName("datasets"))
	s.timelines = repository.NewCache[model.Timeline](ctx, repository.WithName("timelines"))
	s.started = true
	s.mu.Unlock()

	s.logger.Info(ctx, "starting dashboard service",
		logger.String("snapshot", s.snapshotKey),
		logger.String("timeline", s.timelineKey))

	if err := s.warm(ctx); err != nil {
		s.Stop()
		return err
	}

	s.logger.Info(ctx, "dashboard service started")
	return nil
}

// warm loads the snapshot and the timeline in parallel.
func (s *Service) warm(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, err := s.Dataset(gctx)
		return err
	})
	g.Go(func() error {
		_, err := s.Timeline(gctx)
		return err
	})
	return g.Wait()
}

// Stop releases the caches.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	_ = s.datasets.Close()
	_ = s.timelines.Close()
	s.started = false
	if s.logger != nil {
		s.logger.Info(context.Background(), "dashboard service stopped")
	}
}

func (s *Service) caches() (*repository.Cache[*model.Dataset], *repository.Cache[model.Timeline], error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, nil, ErrNotStarted
	}
	return s.datasets, s.timelines, nil
}

// Dataset returns the cached snapshot, loading it on first use.
func (s *Service) Dataset(ctx context.Context) (*model.Dataset, error) {
	datasets, _, err := s.caches()
	if err != nil {
		return nil, err
	}
	d, _, err := datasets.GetOrLoad(ctx, s.snapshotKey, s.snapshot.Load)
	if err != nil {
		metrics.RecordErrorByComponent("service", "snapshot_load")
		return nil, fmt.Errorf("%w: %w", ErrSnapshotUnavailable, err)
	}
	return d, nil
}

// Timeline returns the cached global timeline. When the live source fails
// the synthetic placeholder is cached in its place, tagged as such.
func (s *Service) Timeline(ctx context.Context) (model.Timeline, error) {
	_, timelines, err := s.caches()
	if err != nil {
		return model.Timeline{}, err
	}
	tl, _, err := timelines.GetOrLoad(ctx, s.timelineKey, s.loadTimeline)
	return tl, err
}

func (s *Service) loadTimeline(ctx context.Context) (model.Timeline, error) {
	tl, err := s.timeline.Load(ctx)
	if err == nil {
		return tl, nil
	}

	start, perr := s.cfg.PlaceholderStartDate()
	if perr != nil {
		start = source.DefaultPlaceholderStart
	}
	ph := source.SyntheticTimeline(start, s.cfg.PlaceholderDays,
		source.DefaultPlaceholderMaxCases, source.DefaultPlaceholderMaxDeaths)

	metrics.RecordPlaceholderSubstitution()
	s.logger.Warn(ctx, "timeline unavailable, using placeholder data",
		logger.String("source", s.timelineKey),
		logger.Int("points", ph.Len()),
		logger.Error(err))
	return ph, nil
}

// TopN ranks the snapshot by field and returns the first n rows.
func (s *Service) TopN(ctx context.Context, field model.Field, dir ranking.Direction, n int) (ranking.RankedView, error) {
	d, err := s.Dataset(ctx)
	if err != nil {
		return ranking.RankedView{}, err
	}
	v, err := ranking.Rank(d, field, dir, n)
	if err != nil {
		metrics.RecordErrorByComponent("ranking", errorType(err))
		return ranking.RankedView{}, err
	}
	metrics.RecordRankingQuery(field.String(), string(dir))
	return v, nil
}

// Resolve finds the entity best matching name.
func (s *Service) Resolve(ctx context.Context, name string) (resolve.Match, error) {
	d, err := s.Dataset(ctx)
	if err != nil {
		return resolve.Match{}, err
	}
	m, err := resolve.Resolve(d, name)
	if err != nil {
		metrics.RecordResolveOutcome("not_found")
		return resolve.Match{}, err
	}
	metrics.RecordResolveOutcome(string(m.Kind))
	if m.Ambiguous() {
		s.logger.Debug(ctx, "ambiguous entity name",
			logger.String("query", name),
			logger.Strings("candidates", m.Candidates),
			logger.String("chosen", m.Record.EntityName))
	}
	return m, nil
}

// TimeSlices ranks the snapshot descending by rankField and builds a
// before/after pair for each of the first n rows.
func (s *Service) TimeSlices(ctx context.Context, rankField model.Field, n int, spec timeslice.Spec) ([]timeslice.Pair, error) {
	v, err := s.TopN(ctx, rankField, ranking.Largest, n)
	if err != nil {
		return nil, err
	}
	return timeslice.BuildView(v, spec)
}

// Summary aggregates field over the snapshot. An empty field only counts.
func (s *Service) Summary(ctx context.Context, field model.Field) (summary.Summary, error) {
	d, err := s.Dataset(ctx)
	if err != nil {
		return summary.Summary{}, err
	}
	return summary.Summarize(d, field)
}

// Regions sums field per region group.
func (s *Service) Regions(ctx context.Context, field model.Field) ([]summary.Group, error) {
	d, err := s.Dataset(ctx)
	if err != nil {
		return nil, err
	}
	return summary.ByRegion(d, field)
}

// Reload drops every cached source and loads them again.
func (s *Service) Reload(ctx context.Context) error {
	datasets, timelines, err := s.caches()
	if err != nil {
		return err
	}
	n := datasets.InvalidateAll() + timelines.InvalidateAll()
	s.logger.Info(ctx, "cache invalidated", logger.Int("entries", n))
	return s.warm(ctx)
}

// GetStats returns service statistics for monitoring.
// It reads only what is already cached and never triggers a load.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":     s.started,
		"snapshotKey": s.snapshotKey,
		"timelineKey": s.timelineKey,
	}
	if !s.started {
		return stats
	}

	stats["cachedKeys"] = append(s.datasets.Keys(), s.timelines.Keys()...)
	if e, err := s.datasets.Peek(s.snapshotKey); err == nil {
		stats["datasetId"] = e.Value.ID().String()
		stats["records"] = e.Value.Len()
		stats["provenance"] = string(e.Value.Provenance())
		stats["loadedAt"] = e.LoadedAt
	}
	if e, err := s.timelines.Peek(s.timelineKey); err == nil {
		stats["timelinePoints"] = e.Value.Len()
		stats["timelineProvenance"] = string(e.Value.Provenance)
	}
	return stats
}

func errorType(err error) string {
	switch {
	case errors.Is(err, ranking.ErrUnknownField):
		return "unknown_field"
	case errors.Is(err, ranking.ErrInvalidLimit):
		return "invalid_limit"
	case errors.Is(err, ranking.ErrInvalidDirection):
		return "invalid_direction"
	default:
		return "internal"
	}
}
