package handlers

import (
	"context"
	"errors"
	"fmt"
	"market-delivery-service/internal/domain"
	"market-delivery-service/internal/ports"
	"strings"
)

var errLocationRequired = errors.New("latitude and longitude, or address, are required")

// resolvePoint turns request coordinates or an address into a validated point.
// Coordinates win when both are given.
func resolvePoint(
	ctx context.Context,
	geocoder ports.Geocoder,
	lat, lon *float64,
	address string,
) (domain.Coordinates, error) {
	switch {
	case lat != nil && lon != nil:
		return domain.NewCoordinates(*lat, *lon)
	case lat != nil || lon != nil:
		return domain.Coordinates{}, fmt.Errorf("%w: latitude and longitude must be given together", domain.ErrInvalidCoordinate)
	case strings.TrimSpace(address) == "":
		return domain.Coordinates{}, errLocationRequired
	case geocoder == nil:
		return domain.Coordinates{}, errGeocodingDisabled
	}

	return geocoder.Geocode(ctx, address)
}

var errGeocodingDisabled = errors.New("address lookup is not configured; send latitude and longitude")
