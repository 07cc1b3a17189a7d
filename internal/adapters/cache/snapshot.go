package cache

import (
	"context"
	"log/slog"
	"market-delivery-service/internal/domain"
	"market-delivery-service/internal/platform/obs"
)

// buildSnapshot validates markets into a snapshot and reports what was
// excluded.
func buildSnapshot(ctx context.Context, markets []domain.Market, metrics *obs.Metrics) *domain.Snapshot {
	snap := domain.NewSnapshot(markets)

	issues := snap.Issues()
	for _, is := range issues {
		slog.WarnContext(ctx, "configuration excluded from snapshot",
			"req_id", obs.RequestID(ctx),
			"market_id", is.MarketID,
			"zone_id", is.ZoneID,
			"err", is.Err,
		)
	}
	metrics.SetSnapshotStats(len(snap.ActiveMarkets()), len(issues))
	return snap
}
