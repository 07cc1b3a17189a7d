package ports

import (
	"context"
	"market-delivery-service/internal/domain"
)

// Supplies the current configuration snapshot. Implementations may cache, but
// cached entries must be time-bounded and droppable through Invalidate.
type SnapshotSource interface {
	Snapshot(ctx context.Context) (*domain.Snapshot, error)
	// Drop any cached configuration so the next Snapshot call reloads it.
	Invalidate(ctx context.Context) error
}
