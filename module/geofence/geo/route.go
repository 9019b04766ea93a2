package geo

import (
	"math"

	"github.com/Runa3012/Volay/module/geofence/domain"
)

// MinDistanceToRoute returns the distance from p to the nearest vertex of r.
// Segments between vertices are not considered.
func MinDistanceToRoute(p domain.GeoPoint, r domain.Route) (float64, error) {
	if r.Len() == 0 {
		return 0, domain.ErrEmptyRoute
	}
	best := math.Inf(1)
	r.Each(func(q domain.GeoPoint) {
		if d := HaversineKm(p, q); d < best {
			best = d
		}
	})
	return best, nil
}

// RouteFromPolyline decodes encoded and rejects an empty result.
func RouteFromPolyline(encoded string) (domain.Route, error) {
	path, err := DecodePolyline(encoded)
	if err != nil {
		return domain.Route{}, err
	}
	return domain.NewRoute(path)
}
