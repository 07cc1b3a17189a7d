package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

type ZoneKind string

// Pricing strategy of a delivery zone.
const (
	ZoneStandard    ZoneKind = "standard"
	ZoneFixed       ZoneKind = "fixed"
	ZoneFree        ZoneKind = "free"
	ZoneSurcharge   ZoneKind = "surcharge"
	ZoneUnavailable ZoneKind = "unavailable"
)

func (k ZoneKind) Valid() bool {
	switch k {
	case ZoneStandard, ZoneFixed, ZoneFree, ZoneSurcharge, ZoneUnavailable:
		return true
	}
	return false
}

type ShapeType string

const (
	ShapeRadius  ShapeType = "radius"
	ShapePolygon ShapeType = "polygon"
)

// Containment shape of a zone. Radius shapes use Center and RadiusKm; polygon
// shapes use Ring and, when Center is unset, the ring's vertex centroid as the
// reference point for distance.
type Shape struct {
	Type     ShapeType     `json:"type"`
	Center   Coordinates   `json:"center"`
	RadiusKm float64       `json:"radius_km,omitempty"`
	Ring     []Coordinates `json:"ring,omitempty"`
}

func RadiusShape(center Coordinates, radiusKm float64) Shape {
	return Shape{Type: ShapeRadius, Center: center, RadiusKm: radiusKm}
}

// PolygonShape builds a polygon shape whose reference point is the vertex centroid.
func PolygonShape(ring []Coordinates) Shape {
	return Shape{Type: ShapePolygon, Center: ringCentroid(ring), Ring: ring}
}

// Contains reports whether p falls inside the shape. Boundaries are inclusive
// for both shape types.
func (s Shape) Contains(p Coordinates) bool {
	switch s.Type {
	case ShapeRadius:
		return Distance(s.Center, p) <= s.RadiusKm
	case ShapePolygon:
		return pointInRing(p, s.Ring)
	default:
		return false
	}
}

func (s Shape) Validate() error {
	switch s.Type {
	case ShapeRadius:
		if err := s.Center.Validate(); err != nil {
			return fmt.Errorf("%w: center: %v", ErrInvalidZoneShape, err)
		}
		if s.RadiusKm <= 0 {
			return fmt.Errorf("%w: radius must be positive, got %v", ErrInvalidZoneShape, s.RadiusKm)
		}
	case ShapePolygon:
		if len(s.Ring) < 3 {
			return fmt.Errorf("%w: polygon needs at least 3 vertices, got %d", ErrInvalidZoneShape, len(s.Ring))
		}
		for i, v := range s.Ring {
			if err := v.Validate(); err != nil {
				return fmt.Errorf("%w: vertex %d: %v", ErrInvalidZoneShape, i, err)
			}
		}
		if err := s.Center.Validate(); err != nil {
			return fmt.Errorf("%w: center: %v", ErrInvalidZoneShape, err)
		}
	default:
		return fmt.Errorf("%w: unknown shape type %q", ErrInvalidZoneShape, s.Type)
	}
	return nil
}

// A distance band: once the delivery distance reaches ThresholdKm, the band's
// Fee replaces the computed amount.
type FeeBand struct {
	ThresholdKm float64         `json:"threshold_km"`
	Fee         decimal.Decimal `json:"fee"`
}

// Pricing parameters attached to a zone.
type FeeRule struct {
	BaseFee               decimal.Decimal     `json:"base_fee"`
	RatePerKm             decimal.Decimal     `json:"rate_per_km"`
	MinFee                decimal.NullDecimal `json:"min_fee"`
	MaxFee                decimal.NullDecimal `json:"max_fee"`
	FreeDeliveryThreshold decimal.NullDecimal `json:"free_delivery_threshold"`
	Bands                 []FeeBand           `json:"bands,omitempty"`
	FixedFee              decimal.NullDecimal `json:"fixed_fee"`
	SurchargePercent      decimal.Decimal     `json:"surcharge_percent"`
}

var maxSurchargePercent = decimal.NewFromInt(200)

// Validate checks the rule's invariants for a zone of the given kind.
func (r FeeRule) Validate(kind ZoneKind) error {
	if r.BaseFee.IsNegative() {
		return fmt.Errorf("%w: base_fee %s is negative", ErrInvalidFeeConfiguration, r.BaseFee)
	}
	if r.RatePerKm.IsNegative() {
		return fmt.Errorf("%w: rate_per_km %s is negative", ErrInvalidFeeConfiguration, r.RatePerKm)
	}
	optional := []struct {
		name  string
		value decimal.NullDecimal
	}{
		{"min_fee", r.MinFee},
		{"max_fee", r.MaxFee},
		{"free_delivery_threshold", r.FreeDeliveryThreshold},
		{"fixed_fee", r.FixedFee},
	}
	for _, o := range optional {
		if o.value.Valid && o.value.Decimal.IsNegative() {
			return fmt.Errorf("%w: %s %s is negative", ErrInvalidFeeConfiguration, o.name, o.value.Decimal)
		}
	}
	if r.MinFee.Valid && r.MaxFee.Valid && r.MinFee.Decimal.GreaterThan(r.MaxFee.Decimal) {
		return fmt.Errorf(
			"%w: min_fee %s exceeds max_fee %s",
			ErrInvalidFeeConfiguration, r.MinFee.Decimal, r.MaxFee.Decimal,
		)
	}

	seen := make(map[float64]struct{}, len(r.Bands))
	for i, b := range r.Bands {
		if b.ThresholdKm < 0 {
			return fmt.Errorf("%w: band %d threshold %v is negative", ErrInvalidFeeConfiguration, i, b.ThresholdKm)
		}
		if b.Fee.IsNegative() {
			return fmt.Errorf("%w: band %d fee %s is negative", ErrInvalidFeeConfiguration, i, b.Fee)
		}
		if _, ok := seen[b.ThresholdKm]; ok {
			return fmt.Errorf("%w: duplicate band threshold %v", ErrInvalidFeeConfiguration, b.ThresholdKm)
		}
		seen[b.ThresholdKm] = struct{}{}
	}

	switch kind {
	case ZoneFixed:
		if !r.FixedFee.Valid {
			return fmt.Errorf("%w: fixed zones require fixed_fee", ErrInvalidFeeConfiguration)
		}
	case ZoneSurcharge:
		if !r.SurchargePercent.IsPositive() || r.SurchargePercent.GreaterThan(maxSurchargePercent) {
			return fmt.Errorf(
				"%w: surcharge_percent %s outside (0, 200]",
				ErrInvalidFeeConfiguration, r.SurchargePercent,
			)
		}
	}

	return nil
}

// A geographic sub-region of a market's service area with its own fee rule.
// Lower Priority values win when zones overlap; ID breaks remaining ties.
type Zone struct {
	ID               int64    `json:"id"`
	MarketID         int64    `json:"market_id"`
	Name             string   `json:"name"`
	Kind             ZoneKind `json:"kind"`
	Priority         int      `json:"priority"`
	Active           bool     `json:"active"`
	Shape            Shape    `json:"shape"`
	Fee              FeeRule  `json:"fee"`
	EstimatedMinutes int      `json:"estimated_minutes,omitempty"`
}

func (z *Zone) Contains(p Coordinates) bool { return z.Shape.Contains(p) }

// Center is the reference point used for zone-local distance.
func (z *Zone) Center() Coordinates { return z.Shape.Center }

// Validate checks the zone's identity, shape, and fee rule.
func (z *Zone) Validate() error {
	if strings.TrimSpace(z.Name) == "" {
		return fmt.Errorf("zone %d: name must not be empty", z.ID)
	}
	if !z.Kind.Valid() {
		return fmt.Errorf("zone %d: %w: unknown kind %q", z.ID, ErrInvalidFeeConfiguration, z.Kind)
	}
	if err := z.Shape.Validate(); err != nil {
		return fmt.Errorf("zone %d: %w", z.ID, err)
	}
	if err := z.Fee.Validate(z.Kind); err != nil {
		return fmt.Errorf("zone %d: %w", z.ID, err)
	}
	return nil
}

// Less orders zones by resolution precedence.
func (z *Zone) Less(other *Zone) bool {
	return compareZones(z, other) < 0
}
