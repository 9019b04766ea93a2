package monitor

import (
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Runa3012/Volay/module/geofence/domain"
	"github.com/Runa3012/Volay/module/geofence/geo"
)

var (
	origin   = domain.GeoPoint{}
	kmPerDeg = geo.EarthRadiusKm * math.Pi / 180
	t0       = time.Unix(1715003456, 0)
)

// north returns the point d kilometres due north of (0,0).
func north(d float64) domain.GeoPoint {
	return domain.GeoPoint{Lat: d / kmPerDeg}
}

func newHomeSession(t *testing.T, center domain.GeoPoint, radiusKm float64) *Session {
	t.Helper()
	home, err := domain.NewHomeRegion(center, radiusKm, "456 Home Rd, City")
	require.NoError(t, err)
	s := NewSession()
	require.NoError(t, s.AddTarget(domain.HomeTargetID, home))
	return s
}

func feed(s *Session, distances ...float64) [][]domain.AlertEvent {
	out := make([][]domain.AlertEvent, len(distances))
	for i, d := range distances {
		out[i] = s.Evaluate(north(d), t0.Add(time.Duration(i)*time.Second))
	}
	return out
}

func TestEvaluate_SingleBreachCycle(t *testing.T) {
	s := newHomeSession(t, origin, 0.5)

	alerts := feed(s, 0.1, 0.6, 0.7, 0.2)

	assert.Empty(t, alerts[0])
	require.Len(t, alerts[1], 1)
	assert.Empty(t, alerts[2])
	assert.Empty(t, alerts[3])

	a := alerts[1][0]
	assert.Equal(t, domain.HomeTargetID, a.TargetID)
	assert.Equal(t, domain.KindHomeRegion, a.Kind)
	assert.InDelta(t, 0.6, a.DistanceKm, 1e-6)
	assert.Equal(t, 0.5, a.ThresholdKm)
	assert.Equal(t, t0.Add(time.Second), a.Timestamp)
	assert.NotEqual(t, uuid.Nil, a.ID)
	assert.False(t, s.InBreach(domain.HomeTargetID))

	// leaving again after recovery raises a new alert
	again := feed(s, 0.9)
	assert.Len(t, again[0], 1)
}

func TestEvaluate_SustainedBreachAlertsOnce(t *testing.T) {
	s := newHomeSession(t, origin, 0.5)

	alerts := feed(s, 0.6, 0.7, 0.8, 0.9)

	assert.Len(t, alerts[0], 1)
	for _, a := range alerts[1:] {
		assert.Empty(t, a)
	}
	assert.True(t, s.InBreach(domain.HomeTargetID))
}

func TestEvaluate_ThresholdIsExclusive(t *testing.T) {
	p := north(0.5)
	radius := geo.HaversineKm(origin, p)

	// exactly on the boundary is still inside
	s := newHomeSession(t, origin, radius)
	assert.Empty(t, s.Evaluate(p, t0))
	assert.False(t, s.InBreach(domain.HomeTargetID))

	// just above it is a breach
	s = newHomeSession(t, origin, math.Nextafter(radius, 0))
	alerts := s.Evaluate(p, t0)
	require.Len(t, alerts, 1)
	assert.Equal(t, radius, alerts[0].DistanceKm)
}

func TestEvaluate_MumbaiScenario(t *testing.T) {
	center := domain.GeoPoint{Lat: 19.0760, Lng: 72.8777}
	s := newHomeSession(t, center, 0.5)

	assert.Empty(t, s.Evaluate(center, t0))

	alerts := s.Evaluate(domain.GeoPoint{Lat: 19.0850, Lng: 72.8777}, t0.Add(time.Minute))
	require.Len(t, alerts, 1)
	assert.InDelta(t, 1.0, alerts[0].DistanceKm, 0.05)
}

func TestEvaluate_IndependentTargets(t *testing.T) {
	s := newHomeSession(t, origin, 0.5)
	route, err := domain.NewRoute([]domain.GeoPoint{{Lat: 0, Lng: 1}, {Lat: 0, Lng: 1.01}})
	require.NoError(t, err)
	corridor, err := domain.NewRouteCorridor(route, 0.48, "A", "B")
	require.NoError(t, err)
	require.NoError(t, s.AddTarget(domain.RouteTargetID, corridor))

	// far from both home and the route
	alerts := s.Evaluate(domain.GeoPoint{Lat: 1, Lng: 0}, t0)
	require.Len(t, alerts, 2)
	assert.Equal(t, domain.HomeTargetID, alerts[0].TargetID)
	assert.Equal(t, domain.RouteTargetID, alerts[1].TargetID)
	assert.Equal(t, domain.KindRouteCorridor, alerts[1].Kind)

	// back on the route but still away from home: route recovers silently,
	// home stays in breach without a second alert
	assert.Empty(t, s.Evaluate(domain.GeoPoint{Lat: 0, Lng: 1}, t0.Add(time.Second)))
	assert.True(t, s.InBreach(domain.HomeTargetID))
	assert.False(t, s.InBreach(domain.RouteTargetID))

	// route breach again is not suppressed by the ongoing home breach
	alerts = s.Evaluate(domain.GeoPoint{Lat: 0.5, Lng: 1}, t0.Add(2*time.Second))
	require.Len(t, alerts, 1)
	assert.Equal(t, domain.RouteTargetID, alerts[0].TargetID)
}

func TestEvaluate_NoTargets(t *testing.T) {
	s := NewSession()
	assert.Empty(t, s.Evaluate(north(100), t0))

	last, ok := s.LastPosition()
	require.True(t, ok)
	assert.Equal(t, north(100), last)
}

func TestAddTarget_ReplacementStartsInside(t *testing.T) {
	s := newHomeSession(t, origin, 0.5)
	require.Len(t, s.Evaluate(north(1), t0), 1)

	home, err := domain.NewHomeRegion(origin, 0.5, "")
	require.NoError(t, err)
	require.NoError(t, s.AddTarget(domain.HomeTargetID, home))
	assert.False(t, s.InBreach(domain.HomeTargetID))

	// still outside, but the fresh target has not alerted yet
	assert.Len(t, s.Evaluate(north(1), t0.Add(time.Second)), 1)
}

func TestRemoveTarget(t *testing.T) {
	s := newHomeSession(t, origin, 0.5)
	require.Len(t, s.Evaluate(north(1), t0), 1)

	s.RemoveTarget(domain.HomeTargetID)
	_, ok := s.Target(domain.HomeTargetID)
	assert.False(t, ok)
	assert.Empty(t, s.Status())
	assert.Empty(t, s.Evaluate(north(2), t0))
}

func TestAddTarget_Nil(t *testing.T) {
	s := NewSession()
	err := s.AddTarget(domain.HomeTargetID, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidTarget)
	assert.Empty(t, s.Status())
}

func TestStatus(t *testing.T) {
	s := newHomeSession(t, origin, 0.5)
	s.Evaluate(north(1), t0)

	status := s.Status()
	require.Len(t, status, 1)
	assert.Equal(t, domain.TargetStatus{
		ID:          domain.HomeTargetID,
		Kind:        domain.KindHomeRegion,
		ThresholdKm: 0.5,
		InBreach:    true,
	}, status[0])
}
