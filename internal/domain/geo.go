package domain

import "math"

// EarthRadiusKm is the mean Earth radius (IUGG) used for great-circle distances.
const EarthRadiusKm = 6371.0088

func toRadians(deg float64) float64 { return deg * math.Pi / 180.0 }

// Distance returns the great-circle distance between a and b in kilometers
// using the haversine formula.
//
// The intermediate term is clamped to [0, 1] so that rounding near antipodal
// points cannot push asin outside its domain.
func Distance(a, b Coordinates) float64 {
	if a == b {
		return 0
	}

	lat1 := toRadians(a.Lat)
	lat2 := toRadians(b.Lat)
	dLat := lat2 - lat1
	dLon := toRadians(b.Lon - a.Lon)

	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)
	h := sinLat*sinLat + math.Cos(lat1)*math.Cos(lat2)*sinLon*sinLon
	h = math.Min(1, math.Max(0, h))

	return 2 * EarthRadiusKm * math.Asin(math.Sqrt(h))
}

// pointInRing reports whether p lies inside or on the boundary of the closed
// ring. Vertices are treated as planar (lon = x, lat = y), which is accurate
// for delivery-zone sized polygons away from the antimeridian.
func pointInRing(p Coordinates, ring []Coordinates) bool {
	n := len(ring)
	if n < 3 {
		return false
	}

	inside := false
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		a, b := ring[j], ring[i]
		if onSegment(p, a, b) {
			return true
		}

		// Ray casting towards +x.
		if (b.Lat > p.Lat) != (a.Lat > p.Lat) {
			xCross := (a.Lon-b.Lon)*(p.Lat-b.Lat)/(a.Lat-b.Lat) + b.Lon
			if p.Lon < xCross {
				inside = !inside
			}
		}
	}
	return inside
}

const segmentEpsilon = 1e-12

func onSegment(p, a, b Coordinates) bool {
	cross := (b.Lon-a.Lon)*(p.Lat-a.Lat) - (b.Lat-a.Lat)*(p.Lon-a.Lon)
	if math.Abs(cross) > segmentEpsilon {
		return false
	}
	return p.Lon >= math.Min(a.Lon, b.Lon)-segmentEpsilon &&
		p.Lon <= math.Max(a.Lon, b.Lon)+segmentEpsilon &&
		p.Lat >= math.Min(a.Lat, b.Lat)-segmentEpsilon &&
		p.Lat <= math.Max(a.Lat, b.Lat)+segmentEpsilon
}

// ringCentroid returns the vertex average of the ring, dropping a closing
// vertex that repeats the first one.
func ringCentroid(ring []Coordinates) Coordinates {
	pts := ring
	if len(pts) > 1 && pts[0] == pts[len(pts)-1] {
		pts = pts[:len(pts)-1]
	}
	if len(pts) == 0 {
		return Coordinates{}
	}

	var lat, lon float64
	for _, p := range pts {
		lat += p.Lat
		lon += p.Lon
	}
	n := float64(len(pts))
	return Coordinates{Lat: lat / n, Lon: lon / n}
}
