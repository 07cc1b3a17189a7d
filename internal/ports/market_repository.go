package ports

import (
	"context"
	"market-delivery-service/internal/domain"
)

// Port: a boundary for reading market and zone configuration from storage.
type MarketRepository interface {
	// Retrieve every market with its zones, ordered by market id.
	ListMarkets(ctx context.Context) ([]domain.Market, error)
}
