package services

import "market-delivery-service/internal/domain"

// Find the zone of market that covers point.
//
// Active zones are scanned in precedence order (ascending priority, then
// ascending id) so overlapping zones always resolve to the same winner.
// The returned distance is measured from the winning zone's own center, or
// from the market location when no zone matches.
func ResolveZone(market *domain.Market, point domain.Coordinates) (*domain.Zone, float64) {
	for _, z := range market.ActiveZones() {
		if z.Contains(point) {
			return z, domain.Distance(z.Center(), point)
		}
	}
	return nil, domain.Distance(market.Location, point)
}
