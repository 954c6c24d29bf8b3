package bundlesource

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/riskibarqy/bingo-stats/internal/domain/gains"
	"github.com/riskibarqy/bingo-stats/internal/platform/logging"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestRedisCache_RoundTrip(t *testing.T) {
	_, rdb := newTestRedis(t)
	cache := NewRedisCache(rdb, "", time.Hour)
	ctx := context.Background()

	req := testRequest("vorkath")
	bundle := gains.NewBundle(req)
	bundle.Gains["vorkath"] = gains.Row{"bean": 4, "iron thrage": 2}
	bundle.Errors = []string{"metric zulrah: boom"}
	bundle.FetchID = "fetch_abc"

	if err := cache.Set(ctx, req.CacheKey(), bundle); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, ok, err := cache.Get(ctx, req.CacheKey())
	if err != nil || !ok {
		t.Fatalf("Get ok=%v err=%v", ok, err)
	}
	if got.GroupID != 42 || got.FetchID != "fetch_abc" || got.Gains["vorkath"]["bean"] != 4 {
		t.Fatalf("unexpected bundle: %+v", got)
	}
	if !got.Range.Start.Equal(reqStart) || !got.Range.End.Equal(reqEnd) {
		t.Fatalf("range not preserved: %+v", got.Range)
	}
	if len(got.Errors) != 1 {
		t.Fatalf("errors not preserved: %v", got.Errors)
	}
}

func TestRedisCache_MissAndExpiry(t *testing.T) {
	mr, rdb := newTestRedis(t)
	cache := NewRedisCache(rdb, "test:", time.Minute)
	ctx := context.Background()

	if _, ok, err := cache.Get(ctx, "absent"); ok || err != nil {
		t.Fatalf("expected clean miss, ok=%v err=%v", ok, err)
	}

	bundle := gains.NewBundle(testRequest("vorkath"))
	bundle.Gains["vorkath"] = gains.Row{"bean": 1}
	if err := cache.Set(ctx, "k", bundle); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if !mr.Exists("test:k") {
		t.Fatalf("expected prefixed key in redis")
	}

	mr.FastForward(time.Minute + time.Second)
	if _, ok, _ := cache.Get(ctx, "k"); ok {
		t.Fatalf("expected entry to expire")
	}
}

func TestRedisCache_ClearOnlyTouchesPrefix(t *testing.T) {
	mr, rdb := newTestRedis(t)
	cache := NewRedisCache(rdb, "test:", time.Hour)
	ctx := context.Background()

	if err := mr.Set("other:key", "keep"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	bundle := gains.NewBundle(testRequest("vorkath"))
	bundle.Gains["vorkath"] = gains.Row{"bean": 1}
	for _, key := range []string{"a", "b"} {
		if err := cache.Set(ctx, key, bundle); err != nil {
			t.Fatalf("Set %s: %v", key, err)
		}
	}

	removed, err := cache.Clear(ctx)
	if err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if removed != 2 {
		t.Fatalf("removed=%d, want 2", removed)
	}
	if !mr.Exists("other:key") {
		t.Fatalf("foreign key was deleted")
	}
}

func TestLiveSource_WithRedisCache(t *testing.T) {
	_, rdb := newTestRedis(t)
	fetcher := &countingFetcher{fn: func(req gains.Request) (gains.Bundle, []string) {
		b := gains.NewBundle(req)
		b.Gains["vorkath"] = gains.Row{"bean": 3}
		return b, nil
	}}
	source := NewLiveSource(fetcher, NewRedisCache(rdb, "", time.Hour), nil, logging.NewNop())
	ctx := context.Background()

	first, _ := source.LoadBundle(ctx, testRequest("vorkath"))
	second, _ := source.LoadBundle(ctx, testRequest("vorkath"))
	if fetcher.calls.Load() != 1 {
		t.Fatalf("expected redis hit, calls=%d", fetcher.calls.Load())
	}
	if second.FetchID != first.FetchID || second.Gains["vorkath"]["bean"] != 3 {
		t.Fatalf("unexpected cached bundle: %+v", second)
	}

	if removed := source.Invalidate(ctx); removed != 1 {
		t.Fatalf("expected one invalidated entry, got %d", removed)
	}
	source.LoadBundle(ctx, testRequest("vorkath"))
	if fetcher.calls.Load() != 2 {
		t.Fatalf("expected refetch after invalidate, calls=%d", fetcher.calls.Load())
	}
}

func TestLiveSource_RedisDownFallsThrough(t *testing.T) {
	mr, rdb := newTestRedis(t)
	fetcher := &countingFetcher{fn: func(req gains.Request) (gains.Bundle, []string) {
		b := gains.NewBundle(req)
		b.Gains["vorkath"] = gains.Row{"bean": 3}
		return b, nil
	}}
	source := NewLiveSource(fetcher, NewRedisCache(rdb, "", time.Hour), nil, logging.NewNop())
	mr.Close()

	bundle, _ := source.LoadBundle(context.Background(), testRequest("vorkath"))
	if bundle.Gains["vorkath"]["bean"] != 3 {
		t.Fatalf("expected live data when redis is down: %+v", bundle)
	}
}
