package bundlesource

import (
	"context"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cockroachdb/errors"
	"github.com/redis/go-redis/v9"

	"github.com/riskibarqy/bingo-stats/internal/domain/gains"
)

const (
	DefaultRedisKeyPrefix = "bingo-stats:bundle:"
	redisScanCount        = 100
)

type cachedBundle struct {
	GroupID int64                `json:"groupId"`
	Start   time.Time            `json:"start"`
	End     time.Time            `json:"end"`
	Gains   map[string]gains.Row `json:"gains"`
	Errors  []string             `json:"errors,omitempty"`
	FetchID string               `json:"fetchId"`
}

// RedisCache shares live bundles between API replicas. Entries expire server side.
type RedisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisCache(client *redis.Client, prefix string, ttl time.Duration) *RedisCache {
	if prefix == "" {
		prefix = DefaultRedisKeyPrefix
	}
	return &RedisCache{client: client, prefix: prefix, ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context, key string) (gains.Bundle, bool, error) {
	raw, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return gains.Bundle{}, false, nil
	}
	if err != nil {
		return gains.Bundle{}, false, errors.Wrap(err, "redis get bundle")
	}

	var cached cachedBundle
	if err := sonic.Unmarshal(raw, &cached); err != nil {
		return gains.Bundle{}, false, errors.Wrap(err, "decode cached bundle")
	}
	if cached.Gains == nil {
		cached.Gains = make(map[string]gains.Row)
	}
	return gains.Bundle{
		GroupID: cached.GroupID,
		Range:   gains.DateRange{Start: cached.Start, End: cached.End},
		Gains:   cached.Gains,
		Errors:  cached.Errors,
		FetchID: cached.FetchID,
	}, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, bundle gains.Bundle) error {
	raw, err := sonic.Marshal(cachedBundle{
		GroupID: bundle.GroupID,
		Start:   bundle.Range.Start,
		End:     bundle.Range.End,
		Gains:   bundle.Gains,
		Errors:  bundle.Errors,
		FetchID: bundle.FetchID,
	})
	if err != nil {
		return errors.Wrap(err, "encode bundle")
	}
	if err := c.client.Set(ctx, c.prefix+key, raw, c.ttl).Err(); err != nil {
		return errors.Wrap(err, "redis set bundle")
	}
	return nil
}

// Clear deletes every key under the cache prefix.
func (c *RedisCache) Clear(ctx context.Context) (int, error) {
	var keys []string
	iter := c.client.Scan(ctx, 0, c.prefix+"*", redisScanCount).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return 0, errors.Wrap(err, "redis scan bundles")
	}
	if len(keys) == 0 {
		return 0, nil
	}
	removed, err := c.client.Del(ctx, keys...).Result()
	if err != nil {
		return 0, errors.Wrap(err, "redis delete bundles")
	}
	return int(removed), nil
}

func (c *RedisCache) TTL() time.Duration {
	return c.ttl
}
