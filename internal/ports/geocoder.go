package ports

import (
	"context"
	"errors"
	"market-delivery-service/internal/domain"
)

// ErrAddressNotFound is returned when an address cannot be resolved.
var ErrAddressNotFound = errors.New("address not found")

// Contract for turning a free-form address into coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (domain.Coordinates, error)
}

// Persistent address -> coordinates cache used by geocoders.
type GeocodeCache interface {
	GetMany(ctx context.Context, addrs []string) (map[string]domain.Coordinates, error)
	PutMany(ctx context.Context, coords map[string]domain.Coordinates) error
}
