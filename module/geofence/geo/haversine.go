// Package geo holds the spherical geometry used by the geofence monitor.
package geo

import (
	"math"

	"github.com/Runa3012/Volay/module/geofence/domain"
)

const EarthRadiusKm = 6371.0

// HaversineKm returns the great-circle distance between a and b in kilometres.
// Both points must be in range (lat in [-90, 90], lng in [-180, 180]); this is
// not checked.
func HaversineKm(a, b domain.GeoPoint) float64 {
	dLat := toRad(b.Lat - a.Lat)
	dLng := toRad(b.Lng - a.Lng)
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(a.Lat))*math.Cos(toRad(b.Lat))*math.Sin(dLng/2)*math.Sin(dLng/2)
	// rounding can push h past 1 for near-antipodal points
	h = math.Min(1, h)
	return EarthRadiusKm * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
