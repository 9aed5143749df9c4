// Package reportcache caches rendered reports in Redis. Keys carry the
// ledger revision, so a committed mutation or another process never serves
// a stale report.
package reportcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const keyPrefix = "bukubesar:report"

// Key identifies one report of one ledger revision.
type Key struct {
	Period   string
	Revision string
	Report   string
}

func (k Key) String() string {
	return fmt.Sprintf("%s:%s:%s:%s", keyPrefix, k.Period, k.Revision, k.Report)
}

// Cache is safe for concurrent use. A nil Cache, or one without a client,
// builds every report directly.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	group  singleflight.Group
	logger *slog.Logger
}

// New wraps client. ttl bounds how long superseded versions linger.
func New(client *redis.Client, ttl time.Duration, logger *slog.Logger) *Cache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{client: client, ttl: ttl, logger: logger}
}

func (c *Cache) enabled() bool {
	return c != nil && c.client != nil
}

// Get decodes the cached value of key into dst and reports whether it was
// found.
func (c *Cache) Get(ctx context.Context, key Key, dst any) (bool, error) {
	if !c.enabled() {
		return false, nil
	}
	raw, err := c.client.Get(ctx, key.String()).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("reportcache: get %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("reportcache: decode %s: %w", key, err)
	}
	return true, nil
}

// Set stores v under key.
func (c *Cache) Set(ctx context.Context, key Key, v any) error {
	if !c.enabled() {
		return nil
	}
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("reportcache: encode %s: %w", key, err)
	}
	if err := c.client.Set(ctx, key.String(), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("reportcache: set %s: %w", key, err)
	}
	return nil
}

// GetOrBuild returns the cached report or builds, stores and returns it.
// Concurrent misses on the same key share one build. Cache failures are
// logged and never fail the request.
func GetOrBuild[T any](ctx context.Context, c *Cache, key Key, build func(context.Context) (T, error)) (T, error) {
	if !c.enabled() {
		return build(ctx)
	}
	var cached T
	hit, err := c.Get(ctx, key, &cached)
	if err != nil {
		c.logger.Warn("report cache read", slog.String("key", key.String()), slog.Any("error", err))
	}
	if hit {
		recordHit(key.Report)
		return cached, nil
	}
	recordMiss(key.Report)

	ch := c.group.DoChan(key.String(), func() (any, error) {
		started := time.Now()
		v, err := build(ctx)
		if err != nil {
			return v, err
		}
		observeBuild(key.Report, time.Since(started))
		if err := c.Set(ctx, key, v); err != nil {
			c.logger.Warn("report cache write", slog.String("key", key.String()), slog.Any("error", err))
		}
		return v, nil
	})
	select {
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			var zero T
			return zero, res.Err
		}
		return res.Val.(T), nil
	}
}
