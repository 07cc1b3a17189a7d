package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistanceSymmetric(t *testing.T) {
	points := []Coordinates{
		{Lat: -6.1599, Lon: 39.1925},
		{Lat: -6.8161, Lon: 39.2803},
		{Lat: 51.5074, Lon: -0.1278},
		{Lat: -33.8688, Lon: 151.2093},
		{Lat: 89.9, Lon: 0},
		{Lat: 0, Lon: -179.99},
	}

	for _, a := range points {
		for _, b := range points {
			ab := Distance(a, b)
			assert.InDeltaf(t, ab, Distance(b, a), 1e-9*math.Max(1, ab), "Distance(%v, %v)", a, b)
		}
	}
}

func TestDistanceZero(t *testing.T) {
	p := Coordinates{Lat: -6.1599, Lon: 39.1925}
	assert.Zero(t, Distance(p, p))
}

func TestDistanceAntipodal(t *testing.T) {
	d := Distance(Coordinates{Lat: 0, Lon: 0}, Coordinates{Lat: 0, Lon: 180})
	require.False(t, math.IsNaN(d) || math.IsInf(d, 0), "antipodal distance is not finite: %v", d)
	assert.InDelta(t, math.Pi*EarthRadiusKm, d, 1e-6)
	assert.InDelta(t, 20015.5, d, 0.5)
}

func TestDistanceKnownPair(t *testing.T) {
	// Stone Town to Dar es Salaam, due south by about 0.63 degrees.
	d := Distance(Coordinates{Lat: -6.1659, Lon: 39.2026}, Coordinates{Lat: -6.7924, Lon: 39.2083})
	assert.InDelta(t, 70, d, 1)
}

func TestNewCoordinatesRejectsOutOfRange(t *testing.T) {
	cases := []struct {
		lat, lon float64
	}{
		{90.0001, 0},
		{-90.0001, 0},
		{0, 180.0001},
		{0, -180.0001},
		{math.NaN(), 0},
		{0, math.NaN()},
	}

	for _, tc := range cases {
		_, err := NewCoordinates(tc.lat, tc.lon)
		assert.ErrorIsf(t, err, ErrInvalidCoordinate, "NewCoordinates(%v, %v)", tc.lat, tc.lon)
	}

	c, err := NewCoordinates(-90, 180)
	require.NoError(t, err)
	assert.Equal(t, Coordinates{Lat: -90, Lon: 180}, c)
}

func TestRadiusContainmentBoundary(t *testing.T) {
	center := Coordinates{Lat: -6.1599, Lon: 39.1925}
	p := Coordinates{Lat: -6.1869, Lon: 39.1925}
	r := Distance(center, p)

	assert.True(t, RadiusShape(center, r).Contains(p), "point at exactly the radius")
	assert.False(t, RadiusShape(center, r-1e-9).Contains(p), "point just beyond the radius")
	assert.True(t, RadiusShape(center, r).Contains(center), "center")
}

func TestPolygonContainment(t *testing.T) {
	ring := []Coordinates{
		{Lat: 0, Lon: 0},
		{Lat: 0, Lon: 1},
		{Lat: 1, Lon: 1},
		{Lat: 1, Lon: 0},
	}
	shape := PolygonShape(ring)

	cases := []struct {
		name string
		p    Coordinates
		want bool
	}{
		{"interior", Coordinates{Lat: 0.5, Lon: 0.5}, true},
		{"edge", Coordinates{Lat: 0.5, Lon: 0}, true},
		{"vertex", Coordinates{Lat: 1, Lon: 1}, true},
		{"outside east", Coordinates{Lat: 0.5, Lon: 1.5}, false},
		{"just below", Coordinates{Lat: -0.0001, Lon: 0.5}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, shape.Contains(tc.p))
		})
	}

	assert.InDelta(t, 0.5, shape.Center.Lat, 1e-12)
	assert.InDelta(t, 0.5, shape.Center.Lon, 1e-12)
}

func TestPolygonClosedRingCentroid(t *testing.T) {
	ring := []Coordinates{
		{Lat: 0, Lon: 0},
		{Lat: 0, Lon: 2},
		{Lat: 2, Lon: 2},
		{Lat: 2, Lon: 0},
		{Lat: 0, Lon: 0},
	}
	assert.Equal(t, Coordinates{Lat: 1, Lon: 1}, ringCentroid(ring))
}

func TestDegeneratePolygonContainsNothing(t *testing.T) {
	s := Shape{Type: ShapePolygon, Ring: []Coordinates{{Lat: 0, Lon: 0}, {Lat: 1, Lon: 1}}}
	assert.False(t, s.Contains(Coordinates{Lat: 0.5, Lon: 0.5}))
}
