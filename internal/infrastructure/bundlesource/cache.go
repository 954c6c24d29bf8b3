package bundlesource

import (
	"context"
	"time"

	"github.com/riskibarqy/bingo-stats/internal/domain/gains"
	basecache "github.com/riskibarqy/bingo-stats/internal/platform/cache"
)

// BundleCache stores live bundles by request cache key.
type BundleCache interface {
	Get(ctx context.Context, key string) (gains.Bundle, bool, error)
	Set(ctx context.Context, key string, bundle gains.Bundle) error
	Clear(ctx context.Context) (int, error)
	TTL() time.Duration
}

// MemoryCache keeps bundles in process memory.
type MemoryCache struct {
	store *basecache.Store
}

func NewMemoryCache(store *basecache.Store) *MemoryCache {
	return &MemoryCache{store: store}
}

func (c *MemoryCache) Get(ctx context.Context, key string) (gains.Bundle, bool, error) {
	v, ok := c.store.Get(ctx, key)
	if !ok {
		return gains.Bundle{}, false, nil
	}
	bundle, ok := v.(gains.Bundle)
	return bundle, ok, nil
}

func (c *MemoryCache) Set(ctx context.Context, key string, bundle gains.Bundle) error {
	c.store.Set(ctx, key, bundle)
	return nil
}

func (c *MemoryCache) Clear(ctx context.Context) (int, error) {
	return c.store.Clear(ctx), nil
}

func (c *MemoryCache) TTL() time.Duration {
	return c.store.TTL()
}
