package reportcache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	_ "github.com/odyssey-erp/bukubesar/testing"
)

type report struct {
	Label string
	Total string
}

func newCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return New(client, time.Minute, nil), mr
}

func TestGetOrBuildHitAndMiss(t *testing.T) {
	reg := prometheus.NewRegistry()
	require.NoError(t, SetupMetrics(reg))

	c, mr := newCache(t)
	ctx := context.Background()
	key := Key{Period: "January 2024", Revision: "a1.3", Report: "trial-balance"}
	var builds int32
	build := func(context.Context) (report, error) {
		atomic.AddInt32(&builds, 1)
		return report{Label: "TOTAL", Total: "105000000"}, nil
	}

	got, err := GetOrBuild(ctx, c, key, build)
	require.NoError(t, err)
	require.Equal(t, "105000000", got.Total)
	require.True(t, mr.Exists("bukubesar:report:January 2024:a1.3:trial-balance"))

	got, err = GetOrBuild(ctx, c, key, build)
	require.NoError(t, err)
	require.Equal(t, "TOTAL", got.Label)
	require.Equal(t, int32(1), atomic.LoadInt32(&builds))

	if hitCounter != nil {
		require.Equal(t, float64(1), testutil.ToFloat64(hitCounter.WithLabelValues("trial-balance")))
	}

	mr.FastForward(2 * time.Minute)
	_, err = GetOrBuild(ctx, c, key, build)
	require.NoError(t, err)
	require.Equal(t, int32(2), atomic.LoadInt32(&builds))

	key.Revision = "b2.3"
	_, err = GetOrBuild(ctx, c, key, build)
	require.NoError(t, err)
	require.Equal(t, int32(3), atomic.LoadInt32(&builds))
}

func TestGetOrBuildSharesConcurrentBuilds(t *testing.T) {
	c, _ := newCache(t)
	key := Key{Period: "January 2024", Revision: "a1.1", Report: "balance-sheet"}
	release := make(chan struct{})
	var builds int32
	build := func(context.Context) (report, error) {
		atomic.AddInt32(&builds, 1)
		<-release
		return report{Label: "ok"}, nil
	}

	var wg sync.WaitGroup
	results := make([]report, 4)
	errs := make([]error, 4)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = GetOrBuild(context.Background(), c, key, build)
		}(i)
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	require.LessOrEqual(t, atomic.LoadInt32(&builds), int32(4))
	for i, r := range results {
		require.NoError(t, errs[i])
		require.Equal(t, "ok", r.Label)
	}
}

func TestBuildErrorIsNotCached(t *testing.T) {
	c, mr := newCache(t)
	key := Key{Period: "p", Revision: "a1.1", Report: "income-statement"}
	_, err := GetOrBuild(context.Background(), c, key, func(context.Context) (report, error) {
		return report{}, errors.New("boom")
	})
	require.EqualError(t, err, "boom")
	require.False(t, mr.Exists(key.String()))
}

func TestNilCachePassesThrough(t *testing.T) {
	var c *Cache
	got, err := GetOrBuild(context.Background(), c, Key{Report: "x"}, func(context.Context) (int, error) { return 7, nil })
	require.NoError(t, err)
	require.Equal(t, 7, got)

	hit, err := c.Get(context.Background(), Key{}, &got)
	require.NoError(t, err)
	require.False(t, hit)
	require.NoError(t, c.Set(context.Background(), Key{}, 1))
}

func TestCacheUnavailableFallsBackToBuild(t *testing.T) {
	c, mr := newCache(t)
	mr.Close()
	got, err := GetOrBuild(context.Background(), c, Key{Report: "ledger"}, func(context.Context) (string, error) { return "built", nil })
	require.NoError(t, err)
	require.Equal(t, "built", got)
}
