package cache

import (
	"context"
	"errors"
	"fmt"
	"market-delivery-service/internal/domain"
	"market-delivery-service/internal/platform/obs"
	"market-delivery-service/internal/ports"
	"sync"
	"time"
)

// In-process read-through cache of the configuration snapshot.
// Concurrent misses share one repository load.
type MemorySnapshotCache struct {
	repo    ports.MarketRepository
	ttl     time.Duration
	metrics *obs.Metrics
	now     func() time.Time

	mu       sync.Mutex
	snap     *domain.Snapshot
	loadedAt time.Time
}

func NewMemorySnapshotCache(repo ports.MarketRepository, ttl time.Duration, metrics *obs.Metrics) *MemorySnapshotCache {
	return &MemorySnapshotCache{repo: repo, ttl: ttl, metrics: metrics, now: time.Now}
}

func (c *MemorySnapshotCache) Snapshot(ctx context.Context) (_ *domain.Snapshot, err error) {
	if c.repo == nil {
		return nil, errors.New("memory snapshot cache: repository is nil")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.snap != nil && c.now().Sub(c.loadedAt) < c.ttl {
		c.metrics.RecordCacheLookup("snapshot_memory", true)
		return c.snap, nil
	}
	c.metrics.RecordCacheLookup("snapshot_memory", false)

	defer obs.Time(ctx, "snapshot.memory.reload")(&err)

	markets, err := c.repo.ListMarkets(ctx)
	if err != nil {
		return nil, fmt.Errorf("memory snapshot cache: load markets: %w", err)
	}

	c.snap = buildSnapshot(ctx, markets, c.metrics)
	c.loadedAt = c.now()
	return c.snap, nil
}

func (c *MemorySnapshotCache) Invalidate(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snap = nil
	return nil
}
