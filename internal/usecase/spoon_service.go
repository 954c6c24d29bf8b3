package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/riskibarqy/bingo-stats/internal/domain/gains"
	"github.com/riskibarqy/bingo-stats/internal/domain/spoon"
	"github.com/riskibarqy/bingo-stats/internal/platform/logging"
)

type SourceMode string

const (
	SourceAuto     SourceMode = "auto"
	SourceSnapshot SourceMode = "snapshot"
	SourceLive     SourceMode = "live"

	defaultOverviewWorkers = 4
)

func ParseSourceMode(raw string) (SourceMode, error) {
	switch mode := SourceMode(strings.ToLower(strings.TrimSpace(raw))); mode {
	case SourceAuto, SourceSnapshot, SourceLive:
		return mode, nil
	case "":
		return SourceAuto, nil
	default:
		return "", fmt.Errorf("%w: source must be one of auto, snapshot, live", ErrInvalidInput)
	}
}

// SpoonSources holds one gains source per selectable mode. Auto is usually a
// snapshot-first source that falls back to live.
type SpoonSources struct {
	Auto     gains.Source
	Snapshot gains.Source
	Live     gains.Source
}

type SpoonQuery struct {
	Category string
	Source   SourceMode
	// Metrics overrides the category's configured metrics when set.
	Metrics []string
	// Start and End override the configured event window when set.
	Start time.Time
	End   time.Time
}

// SpoonOverview is every category's view computed from one shared bundle.
type SpoonOverview struct {
	Views []spoon.View
	Range gains.DateRange
	Notes []string
}

type categoryPointsProvider interface {
	CategoryPoints(ctx context.Context, category string) (CategoryAggregate, error)
}

type SpoonService struct {
	points      categoryPointsProvider
	engine      *SpoonEngine
	sources     SpoonSources
	defaultMode SourceMode
	workers     int
	logger      *logging.Logger
}

func NewSpoonService(
	points categoryPointsProvider,
	engine *SpoonEngine,
	sources SpoonSources,
	defaultMode SourceMode,
	workers int,
	logger *logging.Logger,
) *SpoonService {
	if defaultMode == "" {
		defaultMode = SourceAuto
	}
	if workers <= 0 {
		workers = defaultOverviewWorkers
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &SpoonService{
		points:      points,
		engine:      engine,
		sources:     sources,
		defaultMode: defaultMode,
		workers:     workers,
		logger:      logger,
	}
}

// CategoryMetrics lists every configured category with its metrics.
func (s *SpoonService) CategoryMetrics() map[string][]string {
	cat := s.engine.Catalog()
	out := make(map[string][]string)
	for _, name := range cat.Categories() {
		metrics, _ := cat.CategoryMetrics(name)
		out[name] = metrics
	}
	return out
}

// Aliases returns the configured event-log name to RSN overrides.
func (s *SpoonService) Aliases() map[string]string {
	return s.engine.Catalog().Aliases().Entries()
}

func (s *SpoonService) CategoryView(ctx context.Context, q SpoonQuery) (spoon.View, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SpoonService.CategoryView")
	defer span.End()

	cat := s.engine.Catalog()
	category, ok := cat.CanonicalCategory(q.Category)
	if !ok {
		return spoon.View{}, fmt.Errorf("%w: category=%s", ErrNotFound, q.Category)
	}
	metrics := q.Metrics
	if len(metrics) == 0 {
		metrics, _ = cat.CategoryMetrics(category)
	}

	source, err := s.sourceFor(q.Source)
	if err != nil {
		return spoon.View{}, err
	}
	req, err := s.buildRequest(q.Start, q.End, s.supportedOnly(metrics))
	if err != nil {
		return spoon.View{}, err
	}

	bundle, notes := source.LoadBundle(ctx, req)
	agg, err := s.points.CategoryPoints(ctx, category)
	if err != nil {
		return spoon.View{}, fmt.Errorf("category points: %w", err)
	}

	view := s.engine.BuildSpoonIndex(agg.PointsByPlayer, metrics, bundle)
	view.Category = category
	view.Notes = append(append([]string{}, notes...), view.Notes...)
	return view, nil
}

// Overview loads a single bundle covering every category and builds the views on a worker pool.
func (s *SpoonService) Overview(ctx context.Context, mode SourceMode) (SpoonOverview, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SpoonService.Overview")
	defer span.End()

	cat := s.engine.Catalog()
	categories := cat.Categories()
	union := make([]string, 0)
	metricsByCategory := make([][]string, len(categories))
	for i, name := range categories {
		metrics, _ := cat.CategoryMetrics(name)
		metricsByCategory[i] = metrics
		union = append(union, metrics...)
	}

	source, err := s.sourceFor(mode)
	if err != nil {
		return SpoonOverview{}, err
	}
	req, err := s.buildRequest(time.Time{}, time.Time{}, s.supportedOnly(union))
	if err != nil {
		return SpoonOverview{}, err
	}
	bundle, notes := source.LoadBundle(ctx, req)

	pool, err := ants.NewPool(s.workers)
	if err != nil {
		return SpoonOverview{}, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	views := make([]spoon.View, len(categories))
	var (
		workers  sync.WaitGroup
		errMu    sync.Mutex
		firstErr error
	)
	for i, name := range categories {
		i, name := i, name
		workers.Add(1)
		if err := pool.Submit(func() {
			defer workers.Done()

			agg, err := s.points.CategoryPoints(ctx, name)
			if err != nil {
				errMu.Lock()
				if firstErr == nil {
					firstErr = fmt.Errorf("category points %s: %w", name, err)
				}
				errMu.Unlock()
				return
			}
			view := s.engine.BuildSpoonIndex(agg.PointsByPlayer, metricsByCategory[i], bundle)
			view.Category = name
			views[i] = view
		}); err != nil {
			workers.Done()
			workers.Wait()
			return SpoonOverview{}, fmt.Errorf("submit task to worker pool: %w", err)
		}
	}
	workers.Wait()

	if firstErr != nil {
		return SpoonOverview{}, firstErr
	}
	s.logger.DebugContext(ctx, "spoon overview built",
		"categories", len(categories),
		"metrics", len(bundle.Gains),
		"notes", len(notes),
	)
	return SpoonOverview{Views: views, Range: bundle.Range, Notes: notes}, nil
}

func (s *SpoonService) sourceFor(mode SourceMode) (gains.Source, error) {
	if mode == "" {
		mode = s.defaultMode
	}
	var source gains.Source
	switch mode {
	case SourceAuto:
		source = s.sources.Auto
	case SourceSnapshot:
		source = s.sources.Snapshot
	case SourceLive:
		source = s.sources.Live
	default:
		return nil, fmt.Errorf("%w: unknown source %q", ErrInvalidInput, mode)
	}
	if source == nil {
		return nil, fmt.Errorf("%w: %s source is not configured", ErrDependencyUnavailable, mode)
	}
	return source, nil
}

func (s *SpoonService) buildRequest(start, end time.Time, metrics []string) (gains.Request, error) {
	cat := s.engine.Catalog()
	defaultStart, defaultEnd := cat.EventWindow()
	if start.IsZero() {
		start = defaultStart
	}
	if end.IsZero() {
		end = defaultEnd
	}
	if !start.IsZero() && !end.IsZero() && end.Before(start) {
		return gains.Request{}, fmt.Errorf("%w: end must not be before start", ErrInvalidInput)
	}
	return gains.Request{
		GroupID:   cat.GroupID(),
		StartDate: start,
		EndDate:   end,
		Metrics:   metrics,
	}, nil
}

func (s *SpoonService) supportedOnly(metrics []string) []string {
	cat := s.engine.Catalog()
	out := make([]string, 0, len(metrics))
	for _, m := range metrics {
		if cat.IsSupported(strings.TrimSpace(m)) {
			out = append(out, strings.TrimSpace(m))
		}
	}
	return out
}
