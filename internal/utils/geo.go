package utils

import (
	"math"

	"github.com/mmcloughlin/geohash"
)

const earthRadiusKm = 6371.0

// GeoPoint represents a geographical point with latitude and longitude
type GeoPoint struct {
	Latitude  float64
	Longitude float64
}

// CalculateDistance calculates the distance between two points in kilometers using the Haversine formula
func CalculateDistance(p1, p2 GeoPoint) float64 {
	lat1 := p1.Latitude * math.Pi / 180.0
	lat2 := p2.Latitude * math.Pi / 180.0
	dLat := lat2 - lat1
	dLon := (p2.Longitude - p1.Longitude) * math.Pi / 180.0

	a := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// Encode returns the geohash cell of a point at the given precision
func Encode(p GeoPoint, precision uint) string {
	return geohash.EncodeWithPrecision(p.Latitude, p.Longitude, precision)
}

// CellSize returns the height and width in degrees of a geohash cell at precision
func CellSize(precision uint) (latDeg, lngDeg float64) {
	bits := 5 * precision
	lngBits := (bits + 1) / 2
	latBits := bits / 2
	return 180 / math.Exp2(float64(latBits)), 360 / math.Exp2(float64(lngBits))
}

// BoundingBox returns the lat/lng box enclosing a circle of radiusKm around center
func BoundingBox(center GeoPoint, radiusKm float64) (minLat, minLng, maxLat, maxLng float64) {
	dLat := radiusKm / earthRadiusKm * 180 / math.Pi
	minLat = math.Max(center.Latitude-dLat, -90)
	maxLat = math.Min(center.Latitude+dLat, 90)

	cos := math.Cos(center.Latitude * math.Pi / 180)
	if cos < 1e-6 || minLat == -90 || maxLat == 90 {
		return minLat, -180, maxLat, 180
	}
	dLng := dLat / cos
	if dLng >= 180 {
		return minLat, -180, maxLat, 180
	}
	return minLat, math.Max(center.Longitude-dLng, -180), maxLat, math.Min(center.Longitude+dLng, 180)
}

// CoveringCells returns every geohash cell at precision intersecting the circle's
// bounding box. ok is false when more than limit cells would be needed.
func CoveringCells(center GeoPoint, radiusKm float64, precision uint, limit int) (cells []string, ok bool) {
	minLat, minLng, maxLat, maxLng := BoundingBox(center, radiusKm)
	latStep, lngStep := CellSize(precision)

	rows := int(math.Floor(maxLat/latStep)-math.Floor(minLat/latStep)) + 1
	cols := int(math.Floor(maxLng/lngStep)-math.Floor(minLng/lngStep)) + 1
	if rows*cols > limit {
		return nil, false
	}

	seen := make(map[string]struct{}, rows*cols)
	cells = make([]string, 0, rows*cols)
	for r := 0; r < rows; r++ {
		lat := math.Min(minLat+float64(r)*latStep, maxLat)
		for c := 0; c < cols; c++ {
			lng := math.Min(minLng+float64(c)*lngStep, maxLng)
			h := geohash.EncodeWithPrecision(lat, lng, precision)
			if _, dup := seen[h]; !dup {
				seen[h] = struct{}{}
				cells = append(cells, h)
			}
		}
		// the far edge may fall into one more column than the stepping reached
		h := geohash.EncodeWithPrecision(lat, maxLng, precision)
		if _, dup := seen[h]; !dup {
			seen[h] = struct{}{}
			cells = append(cells, h)
		}
	}
	for c := 0; c <= cols; c++ {
		lng := math.Min(minLng+float64(c)*lngStep, maxLng)
		h := geohash.EncodeWithPrecision(maxLat, lng, precision)
		if _, dup := seen[h]; !dup {
			seen[h] = struct{}{}
			cells = append(cells, h)
		}
	}
	return cells, true
}
