package domain

import (
	"fmt"
	"math"
)

type TargetKind string

const (
	KindHomeRegion    TargetKind = "home_region"
	KindRouteCorridor TargetKind = "route_corridor"
)

// TargetID names a target within a monitor session.
type TargetID string

const (
	HomeTargetID  TargetID = "home"
	RouteTargetID TargetID = "route"
)

// Target is a reference geometry a patient is checked against. The set of
// implementations is closed: HomeRegion and RouteCorridor.
type Target interface {
	Kind() TargetKind
	ThresholdKm() float64
	isTarget()
}

// HomeRegion is a circle of RadiusKm around a fixed address.
type HomeRegion struct {
	Center   GeoPoint
	RadiusKm float64
	Address  string
}

func NewHomeRegion(center GeoPoint, radiusKm float64, address string) (*HomeRegion, error) {
	if err := validThreshold(radiusKm); err != nil {
		return nil, fmt.Errorf("home region radius: %w", err)
	}
	return &HomeRegion{Center: center, RadiusKm: radiusKm, Address: address}, nil
}

func (h *HomeRegion) Kind() TargetKind     { return KindHomeRegion }
func (h *HomeRegion) ThresholdKm() float64 { return h.RadiusKm }
func (h *HomeRegion) isTarget()            {}

// RouteCorridor is the band of ToleranceKm around a planned route.
type RouteCorridor struct {
	Path        Route
	ToleranceKm float64
	Origin      string
	Destination string
}

func NewRouteCorridor(path Route, toleranceKm float64, origin, destination string) (*RouteCorridor, error) {
	if path.Len() == 0 {
		return nil, ErrEmptyRoute
	}
	if err := validThreshold(toleranceKm); err != nil {
		return nil, fmt.Errorf("route corridor tolerance: %w", err)
	}
	return &RouteCorridor{
		Path:        path,
		ToleranceKm: toleranceKm,
		Origin:      origin,
		Destination: destination,
	}, nil
}

func (c *RouteCorridor) Kind() TargetKind     { return KindRouteCorridor }
func (c *RouteCorridor) ThresholdKm() float64 { return c.ToleranceKm }
func (c *RouteCorridor) isTarget()            {}

func validThreshold(km float64) error {
	if math.IsNaN(km) || km <= 0 {
		return fmt.Errorf("%w: threshold must be positive, got %v", ErrInvalidTarget, km)
	}
	return nil
}
