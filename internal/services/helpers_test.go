package services

import (
	"market-delivery-service/internal/domain"
	"math"

	"github.com/shopspring/decimal"
)

var stoneTown = domain.Coordinates{Lat: -6.1599, Lon: 39.1925}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func nullDec(s string) decimal.NullDecimal { return decimal.NewNullDecimal(dec(s)) }

// northOf returns the point km kilometers due north of c.
func northOf(c domain.Coordinates, km float64) domain.Coordinates {
	return domain.Coordinates{Lat: c.Lat + km/domain.EarthRadiusKm*(180/math.Pi), Lon: c.Lon}
}

func radiusZone(id int64, priority int, center domain.Coordinates, km float64, rule domain.FeeRule) domain.Zone {
	return domain.Zone{
		ID:       id,
		Name:     "zone",
		Kind:     domain.ZoneStandard,
		Priority: priority,
		Active:   true,
		Shape:    domain.RadiusShape(center, km),
		Fee:      rule,
	}
}
