package maps

import (
	"context"

	"github.com/Runa3012/Volay/module/geofence/domain"
)

// DirectionsProvider resolves two free-text addresses to the encoded overview
// polyline of the first route between them.
type DirectionsProvider interface {
	GetRoute(ctx context.Context, origin, destination string) (string, error)
}

type Geocoder interface {
	Geocode(ctx context.Context, address string) (domain.GeoPoint, error)
}
