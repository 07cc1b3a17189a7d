package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"market-delivery-service/internal/domain"
	"market-delivery-service/internal/platform/obs"
	"market-delivery-service/internal/ports"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const DefaultSnapshotKey = "market-delivery:snapshot:v1"

// Redis-backed read-through cache of market configuration, shared by every
// service instance. The market list is stored as JSON with a TTL; Invalidate
// deletes the key so all instances reload on their next call.
//
// Redis failures degrade to reading the repository directly.
type RedisSnapshotCache struct {
	client  redis.Cmdable
	repo    ports.MarketRepository
	key     string
	ttl     time.Duration
	metrics *obs.Metrics

	// Reuse the parsed snapshot while the cached payload is unchanged.
	mu      sync.Mutex
	lastRaw []byte
	last    *domain.Snapshot
}

func NewRedisSnapshotCache(
	client redis.Cmdable,
	repo ports.MarketRepository,
	key string,
	ttl time.Duration,
	metrics *obs.Metrics,
) *RedisSnapshotCache {
	if key == "" {
		key = DefaultSnapshotKey
	}
	return &RedisSnapshotCache{client: client, repo: repo, key: key, ttl: ttl, metrics: metrics}
}

func (c *RedisSnapshotCache) Snapshot(ctx context.Context) (_ *domain.Snapshot, err error) {
	defer obs.Time(ctx, "snapshot.redis.Snapshot")(&err)

	if c.client == nil || c.repo == nil {
		return nil, errors.New("redis snapshot cache: client or repository is nil")
	}

	raw, err := c.client.Get(ctx, c.key).Bytes()
	switch {
	case err == nil:
		if snap, ok := c.fromPayload(ctx, raw); ok {
			c.metrics.RecordCacheLookup("snapshot_redis", true)
			return snap, nil
		}
	case errors.Is(err, redis.Nil):
	default:
		slog.WarnContext(ctx, "redis snapshot read failed, loading from repository",
			"req_id", obs.RequestID(ctx), "key", c.key, "err", err)
	}
	c.metrics.RecordCacheLookup("snapshot_redis", false)

	markets, err := c.repo.ListMarkets(ctx)
	if err != nil {
		return nil, fmt.Errorf("redis snapshot cache: load markets: %w", err)
	}

	payload, err := json.Marshal(markets)
	if err != nil {
		return nil, fmt.Errorf("redis snapshot cache: encode markets: %w", err)
	}
	if err := c.client.Set(ctx, c.key, payload, c.ttl).Err(); err != nil {
		slog.WarnContext(ctx, "redis snapshot write failed",
			"req_id", obs.RequestID(ctx), "key", c.key, "err", err)
	}

	return c.remember(ctx, payload, markets), nil
}

func (c *RedisSnapshotCache) fromPayload(ctx context.Context, raw []byte) (*domain.Snapshot, bool) {
	c.mu.Lock()
	if c.last != nil && bytes.Equal(raw, c.lastRaw) {
		snap := c.last
		c.mu.Unlock()
		return snap, true
	}
	c.mu.Unlock()

	var markets []domain.Market
	if err := json.Unmarshal(raw, &markets); err != nil {
		slog.WarnContext(ctx, "discarding unreadable redis snapshot",
			"req_id", obs.RequestID(ctx), "key", c.key, "err", err)
		return nil, false
	}
	return c.remember(ctx, raw, markets), true
}

func (c *RedisSnapshotCache) remember(ctx context.Context, raw []byte, markets []domain.Market) *domain.Snapshot {
	snap := buildSnapshot(ctx, markets, c.metrics)

	c.mu.Lock()
	c.lastRaw = raw
	c.last = snap
	c.mu.Unlock()
	return snap
}

func (c *RedisSnapshotCache) Invalidate(ctx context.Context) error {
	c.mu.Lock()
	c.lastRaw, c.last = nil, nil
	c.mu.Unlock()

	if err := c.client.Del(ctx, c.key).Err(); err != nil {
		return fmt.Errorf("redis snapshot cache: delete %q: %w", c.key, err)
	}
	return nil
}
