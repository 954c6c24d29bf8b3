package bundlesource

import (
	"context"

	"github.com/riskibarqy/bingo-stats/internal/domain/gains"
	"github.com/riskibarqy/bingo-stats/internal/platform/id"
	"github.com/riskibarqy/bingo-stats/internal/platform/logging"
	"github.com/riskibarqy/bingo-stats/internal/platform/metrics"
)

// BundleFetcher performs an uncached multi-metric fetch.
type BundleFetcher interface {
	FetchBundle(ctx context.Context, req gains.Request) (gains.Bundle, []string)
}

type idGenerator interface {
	NewID() (string, error)
}

// LiveSource serves bundles from WOM behind a TTL cache. Concurrent misses for the
// same key each fetch; the last one to finish owns the entry.
type LiveSource struct {
	next    BundleFetcher
	cache   BundleCache
	ids     idGenerator
	metrics *metrics.Recorder
	logger  *logging.Logger
}

func NewLiveSource(next BundleFetcher, cache BundleCache, recorder *metrics.Recorder, logger *logging.Logger) *LiveSource {
	if logger == nil {
		logger = logging.Default()
	}
	return &LiveSource{
		next:    next,
		cache:   cache,
		ids:     id.NewRandomGenerator("fetch"),
		metrics: recorder,
		logger:  logger,
	}
}

func (s *LiveSource) LoadBundle(ctx context.Context, req gains.Request) (gains.Bundle, []string) {
	key := req.CacheKey()
	cached, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.WarnContext(ctx, "bundle cache read failed, fetching live", "error", err)
	}
	if ok {
		s.metrics.IncBundleCache(true)
		out := cached.Clone()
		return out, append([]string{}, out.Errors...)
	}
	s.metrics.IncBundleCache(false)

	bundle, notes := s.next.FetchBundle(ctx, req)
	if fetchID, err := s.ids.NewID(); err == nil {
		bundle.FetchID = fetchID
	}

	if len(bundle.Gains) == 0 {
		s.logger.WarnContext(ctx, "live bundle has no metrics, not caching",
			"group_id", req.GroupID,
			"notes", len(notes),
		)
		return bundle, notes
	}

	if err := s.cache.Set(ctx, key, bundle.Clone()); err != nil {
		s.logger.WarnContext(ctx, "bundle cache write failed", "error", err)
		return bundle, notes
	}
	s.logger.DebugContext(ctx, "live bundle cached",
		"fetch_id", bundle.FetchID,
		"metrics", len(bundle.Gains),
		"ttl", s.cache.TTL().String(),
	)
	return bundle, notes
}

// Invalidate drops every cached bundle and returns how many entries were removed.
func (s *LiveSource) Invalidate(ctx context.Context) int {
	removed, err := s.cache.Clear(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "bundle cache clear failed", "error", err)
	}
	return removed
}
