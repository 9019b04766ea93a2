package domain

import "fmt"

// GeoPoint is a WGS84 latitude/longitude pair in decimal degrees.
type GeoPoint struct {
	Lat float64 `json:"latitude"`
	Lng float64 `json:"longitude"`
}

func (p GeoPoint) String() string {
	return fmt.Sprintf("%.5f,%.5f", p.Lat, p.Lng)
}

// Route is the ordered path of a planned trip. It always holds at least one point.
type Route struct {
	path []GeoPoint
}

func NewRoute(path []GeoPoint) (Route, error) {
	if len(path) == 0 {
		return Route{}, ErrEmptyRoute
	}
	cp := make([]GeoPoint, len(path))
	copy(cp, path)
	return Route{path: cp}, nil
}

// Path returns a copy of the route's points.
func (r Route) Path() []GeoPoint {
	cp := make([]GeoPoint, len(r.path))
	copy(cp, r.path)
	return cp
}

func (r Route) Len() int {
	return len(r.path)
}

// Each calls fn for every point in order without copying the path.
func (r Route) Each(fn func(p GeoPoint)) {
	for _, p := range r.path {
		fn(p)
	}
}
