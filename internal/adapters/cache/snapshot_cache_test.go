package cache

import (
	"context"
	"errors"
	"market-delivery-service/internal/domain"
	"market-delivery-service/internal/platform/obs"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	calls   atomic.Int32
	markets []domain.Market
	err     error
}

func (f *fakeRepo) ListMarkets(context.Context) ([]domain.Market, error) {
	f.calls.Add(1)
	return f.markets, f.err
}

func sampleMarkets() []domain.Market {
	center := domain.Coordinates{Lat: -6.1599, Lon: 39.1925}
	return []domain.Market{{
		ID: 1, Name: "Darajani", Location: center, Active: true,
		DefaultFee: decimal.NewNullDecimal(decimal.NewFromInt(1000)),
		Zones: []domain.Zone{
			{
				ID: 10, Name: "core", Kind: domain.ZoneStandard, Active: true,
				Shape: domain.RadiusShape(center, 5),
				Fee:   domain.FeeRule{BaseFee: decimal.NewFromInt(500), RatePerKm: decimal.NewFromInt(150)},
			},
			{
				ID: 11, Name: "broken", Kind: domain.ZoneFixed, Active: true,
				Shape: domain.RadiusShape(center, 9),
			},
		},
	}}
}

func newTestMetrics(t *testing.T) *obs.Metrics {
	t.Helper()
	m, err := obs.NewMetrics(prometheus.NewRegistry())
	require.NoError(t, err)
	return m
}

func TestMemorySnapshotCacheTTL(t *testing.T) {
	repo := &fakeRepo{markets: sampleMarkets()}
	metrics := newTestMetrics(t)
	c := NewMemorySnapshotCache(repo, time.Minute, metrics)

	now := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	s1, err := c.Snapshot(ctx)
	require.NoError(t, err)
	s2, err := c.Snapshot(ctx)
	require.NoError(t, err)
	assert.Same(t, s1, s2)
	assert.Equal(t, int32(1), repo.calls.Load())

	now = now.Add(time.Minute)
	s3, err := c.Snapshot(ctx)
	require.NoError(t, err)
	assert.NotSame(t, s1, s3)
	assert.Equal(t, int32(2), repo.calls.Load())

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.CacheLookups.WithLabelValues("snapshot_memory", "hit")))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.CacheLookups.WithLabelValues("snapshot_memory", "miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ConfigIssues))
}

func TestMemorySnapshotCacheInvalidate(t *testing.T) {
	repo := &fakeRepo{markets: sampleMarkets()}
	c := NewMemorySnapshotCache(repo, time.Hour, nil)
	ctx := context.Background()

	_, err := c.Snapshot(ctx)
	require.NoError(t, err)
	require.NoError(t, c.Invalidate(ctx))
	_, err = c.Snapshot(ctx)
	require.NoError(t, err)

	assert.Equal(t, int32(2), repo.calls.Load())
}

func TestMemorySnapshotCacheConcurrentLoadsOnce(t *testing.T) {
	repo := &fakeRepo{markets: sampleMarkets()}
	c := NewMemorySnapshotCache(repo, time.Hour, nil)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Snapshot(context.Background())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), repo.calls.Load())
}

func TestMemorySnapshotCacheRepoError(t *testing.T) {
	repo := &fakeRepo{err: errors.New("db down")}
	c := NewMemorySnapshotCache(repo, time.Hour, nil)

	_, err := c.Snapshot(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")
}

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestRedisSnapshotCacheReadThrough(t *testing.T) {
	mr, client := newRedis(t)
	repo := &fakeRepo{markets: sampleMarkets()}
	metrics := newTestMetrics(t)
	c := NewRedisSnapshotCache(client, repo, "", 30*time.Second, metrics)
	ctx := context.Background()

	snap, err := c.Snapshot(ctx)
	require.NoError(t, err)
	m, err := snap.Market(1)
	require.NoError(t, err)
	require.Len(t, m.Zones, 1)
	assert.Len(t, snap.Issues(), 1)

	assert.True(t, mr.Exists(DefaultSnapshotKey))
	assert.Equal(t, 30*time.Second, mr.TTL(DefaultSnapshotKey))

	again, err := c.Snapshot(ctx)
	require.NoError(t, err)
	assert.Same(t, snap, again)
	assert.Equal(t, int32(1), repo.calls.Load())

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.CacheLookups.WithLabelValues("snapshot_redis", "hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.CacheLookups.WithLabelValues("snapshot_redis", "miss")))

	mr.FastForward(31 * time.Second)
	_, err = c.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(2), repo.calls.Load())
}

func TestRedisSnapshotCacheSharedAcrossInstances(t *testing.T) {
	_, client := newRedis(t)
	repo := &fakeRepo{markets: sampleMarkets()}
	ctx := context.Background()

	a := NewRedisSnapshotCache(client, repo, "k", time.Minute, nil)
	b := NewRedisSnapshotCache(client, repo, "k", time.Minute, nil)

	_, err := a.Snapshot(ctx)
	require.NoError(t, err)
	snap, err := b.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(1), repo.calls.Load())

	m, err := snap.Market(1)
	require.NoError(t, err)
	assert.True(t, m.DefaultFee.Decimal.Equal(decimal.NewFromInt(1000)))

	require.NoError(t, b.Invalidate(ctx))
	_, err = a.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(2), repo.calls.Load())
}

func TestRedisSnapshotCacheCorruptPayload(t *testing.T) {
	mr, client := newRedis(t)
	repo := &fakeRepo{markets: sampleMarkets()}
	c := NewRedisSnapshotCache(client, repo, "k", time.Minute, nil)

	require.NoError(t, mr.Set("k", "{not json"))

	snap, err := c.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Len(t, snap.ActiveMarkets(), 1)
	assert.Equal(t, int32(1), repo.calls.Load())
}

func TestRedisSnapshotCacheRedisDown(t *testing.T) {
	mr, client := newRedis(t)
	repo := &fakeRepo{markets: sampleMarkets()}
	c := NewRedisSnapshotCache(client, repo, "k", time.Minute, nil)
	mr.Close()

	snap, err := c.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Len(t, snap.ActiveMarkets(), 1)
}
