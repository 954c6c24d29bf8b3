package bundlesource

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/riskibarqy/bingo-stats/internal/domain/gains"
	basecache "github.com/riskibarqy/bingo-stats/internal/platform/cache"
	"github.com/riskibarqy/bingo-stats/internal/platform/logging"
	"github.com/riskibarqy/bingo-stats/internal/platform/metrics"
)

type countingFetcher struct {
	calls atomic.Int32
	fn    func(req gains.Request) (gains.Bundle, []string)
}

func (f *countingFetcher) FetchBundle(_ context.Context, req gains.Request) (gains.Bundle, []string) {
	f.calls.Add(1)
	return f.fn(req)
}

var (
	reqStart = time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	reqEnd   = time.Date(2026, 1, 24, 0, 0, 0, 0, time.UTC)
)

func testRequest(metrics ...string) gains.Request {
	return gains.Request{GroupID: 42, StartDate: reqStart, EndDate: reqEnd, Metrics: metrics}
}

func TestLiveSource_CachesSuccessfulBundle(t *testing.T) {
	t.Parallel()

	fetcher := &countingFetcher{fn: func(req gains.Request) (gains.Bundle, []string) {
		b := gains.NewBundle(req)
		b.Gains["vorkath"] = gains.Row{"bean": 3}
		b.Errors = []string{"metric zulrah: boom"}
		return b, []string{"metric zulrah: boom"}
	}}
	now := time.Date(2026, 1, 20, 0, 0, 0, 0, time.UTC)
	store := basecache.NewStore(6 * time.Hour).WithClock(func() time.Time { return now })
	recorder := metrics.New()
	source := NewLiveSource(fetcher, NewMemoryCache(store), recorder, logging.NewNop())

	first, notes := source.LoadBundle(context.Background(), testRequest("zulrah", "vorkath"))
	if first.Gains["vorkath"]["bean"] != 3 || len(notes) != 1 {
		t.Fatalf("unexpected first load: %+v notes=%v", first, notes)
	}
	if first.FetchID == "" {
		t.Fatalf("expected fetch id to be assigned")
	}

	first.Gains["vorkath"]["bean"] = 1000

	second, notes := source.LoadBundle(context.Background(), testRequest("vorkath", "zulrah"))
	if fetcher.calls.Load() != 1 {
		t.Fatalf("expected cache hit, fetch calls=%d", fetcher.calls.Load())
	}
	if second.Gains["vorkath"]["bean"] != 3 {
		t.Fatalf("cached bundle was mutated through a caller copy: %v", second.Gains)
	}
	if second.FetchID != first.FetchID || len(notes) != 1 {
		t.Fatalf("unexpected cached result: %+v notes=%v", second, notes)
	}
	body := scrapeMetrics(t, recorder)
	if !strings.Contains(body, `bingo_stats_bundle_cache_lookups_total{result="hit"} 1`) {
		t.Fatalf("expected one cache hit in metrics:\n%s", body)
	}
}

func TestLiveSource_ExpiresAfterTTL(t *testing.T) {
	t.Parallel()

	fetcher := &countingFetcher{fn: func(req gains.Request) (gains.Bundle, []string) {
		b := gains.NewBundle(req)
		b.Gains["vorkath"] = gains.Row{"bean": 1}
		return b, nil
	}}
	now := time.Date(2026, 1, 20, 0, 0, 0, 0, time.UTC)
	store := basecache.NewStore(6 * time.Hour).WithClock(func() time.Time { return now })
	source := NewLiveSource(fetcher, NewMemoryCache(store), nil, logging.NewNop())

	source.LoadBundle(context.Background(), testRequest("vorkath"))
	now = now.Add(6*time.Hour + time.Second)
	source.LoadBundle(context.Background(), testRequest("vorkath"))

	if fetcher.calls.Load() != 2 {
		t.Fatalf("expected refetch after ttl, calls=%d", fetcher.calls.Load())
	}
}

func TestLiveSource_DoesNotCacheTotalFailure(t *testing.T) {
	t.Parallel()

	fetcher := &countingFetcher{fn: func(req gains.Request) (gains.Bundle, []string) {
		return gains.NewBundle(req), []string{"metric vorkath: rate limited"}
	}}
	source := NewLiveSource(fetcher, NewMemoryCache(basecache.NewStore(time.Hour)), nil, logging.NewNop())

	_, notes := source.LoadBundle(context.Background(), testRequest("vorkath"))
	if len(notes) != 1 {
		t.Fatalf("unexpected notes: %v", notes)
	}
	source.LoadBundle(context.Background(), testRequest("vorkath"))
	if fetcher.calls.Load() != 2 {
		t.Fatalf("empty bundle must not be cached, calls=%d", fetcher.calls.Load())
	}
}

func TestLiveSource_InvalidatePurgesEntries(t *testing.T) {
	t.Parallel()

	fetcher := &countingFetcher{fn: func(req gains.Request) (gains.Bundle, []string) {
		b := gains.NewBundle(req)
		b.Gains["vorkath"] = gains.Row{"bean": 1}
		return b, nil
	}}
	source := NewLiveSource(fetcher, NewMemoryCache(basecache.NewStore(time.Hour)), nil, logging.NewNop())

	source.LoadBundle(context.Background(), testRequest("vorkath"))
	if removed := source.Invalidate(context.Background()); removed != 1 {
		t.Fatalf("expected one purged entry, got %d", removed)
	}
	source.LoadBundle(context.Background(), testRequest("vorkath"))
	if fetcher.calls.Load() != 2 {
		t.Fatalf("expected refetch after invalidate, calls=%d", fetcher.calls.Load())
	}
}

func scrapeMetrics(t *testing.T, recorder *metrics.Recorder) string {
	t.Helper()
	rec := httptest.NewRecorder()
	recorder.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics status=%d", rec.Code)
	}
	return rec.Body.String()
}
