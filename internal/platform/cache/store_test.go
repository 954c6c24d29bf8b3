package cache

import (
	"context"
	"testing"
	"time"
)

func TestStore_ExpiresEntriesAfterTTL(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC)
	store := NewStore(6 * time.Hour).WithClock(func() time.Time { return now })
	ctx := context.Background()

	store.Set(ctx, "bundle", "value")
	if v, ok := store.Get(ctx, "bundle"); !ok || v.(string) != "value" {
		t.Fatalf("expected cached value, got %v (ok=%t)", v, ok)
	}

	now = now.Add(6*time.Hour - time.Second)
	if _, ok := store.Get(ctx, "bundle"); !ok {
		t.Fatalf("entry should still be valid just before TTL")
	}

	now = now.Add(time.Second)
	if _, ok := store.Get(ctx, "bundle"); ok {
		t.Fatalf("entry should expire at TTL")
	}
	if store.Len() != 0 {
		t.Fatalf("expired entry should be evicted on read")
	}
}

func TestStore_SetReplacesEntry(t *testing.T) {
	t.Parallel()

	store := NewStore(time.Minute)
	ctx := context.Background()

	store.Set(ctx, "k", 1)
	store.Set(ctx, "k", 2)
	v, ok := store.Get(ctx, "k")
	if !ok || v.(int) != 2 {
		t.Fatalf("expected last writer to win, got %v", v)
	}
}

func TestStore_EmptyKeyIsIgnored(t *testing.T) {
	t.Parallel()

	store := NewStore(time.Minute)
	store.Set(context.Background(), "", "x")
	if store.Len() != 0 {
		t.Fatalf("empty key should not be stored")
	}
}

func TestStore_ClearRemovesFreshEntries(t *testing.T) {
	t.Parallel()

	store := NewStore(time.Hour)
	ctx := context.Background()
	store.Set(ctx, "a", 1)
	store.Set(ctx, "b", 2)

	if removed := store.Clear(ctx); removed != 2 {
		t.Fatalf("removed=%d, want 2", removed)
	}
	if store.Len() != 0 {
		t.Fatalf("expected empty store after clear, len=%d", store.Len())
	}
}
