package domain

import "errors"

// Error kinds returned by the delivery core. Callers match them with errors.Is;
// adapters and services wrap them with context.
var (
	ErrInvalidCoordinate       = errors.New("invalid coordinate")
	ErrMarketNotFound          = errors.New("market not found")
	ErrNoMarketsAvailable      = errors.New("no markets available")
	ErrUnavailableZone         = errors.New("delivery unavailable for this location")
	ErrInvalidFeeConfiguration = errors.New("invalid fee configuration")
	ErrInvalidZoneShape        = errors.New("invalid zone shape")
	ErrInvalidOrderTotal       = errors.New("invalid order total")
)
