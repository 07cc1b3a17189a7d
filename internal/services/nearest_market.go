package services

import "market-delivery-service/internal/domain"

// Distances closer than this are treated as equal when ranking markets.
const distanceTieEpsilonKm = 1e-6

// Return the active market closest to point and its distance in km.
// Equal distances (within 1e-6 km) resolve to the lower market id.
// ok is false when markets holds no active market.
func NearestMarket(point domain.Coordinates, markets []*domain.Market) (best *domain.Market, distanceKm float64, ok bool) {
	for _, m := range markets {
		if m == nil || !m.Active {
			continue
		}
		d := domain.Distance(m.Location, point)

		switch {
		case best == nil, d < distanceKm-distanceTieEpsilonKm:
			best, distanceKm = m, d
		// Tie-breaker ensures deterministic ordering when distances are equal.
		case d <= distanceKm+distanceTieEpsilonKm && m.ID < best.ID:
			best, distanceKm = m, d
		}
	}
	return best, distanceKm, best != nil
}
