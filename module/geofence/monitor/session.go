// Package monitor evaluates live positions against geofence targets and
// raises an alert once per continuous excursion.
//
// Each target carries its own breach flag. A flag going inside -> outside emits
// an AlertEvent; outside -> inside clears it silently. A Session is not safe
// for concurrent use: fixes must be fed in arrival order by a single owner.
package monitor

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/Runa3012/Volay/module/geofence/domain"
	"github.com/Runa3012/Volay/module/geofence/geo"
)

type Session struct {
	targets      map[domain.TargetID]domain.Target
	breach       map[domain.TargetID]bool
	lastPosition *domain.GeoPoint
	newID        func() uuid.UUID
}

func NewSession() *Session {
	return &Session{
		targets: make(map[domain.TargetID]domain.Target),
		breach:  make(map[domain.TargetID]bool),
		newID:   uuid.New,
	}
}

// AddTarget installs t under id, replacing any target already there. The new
// target starts inside.
func (s *Session) AddTarget(id domain.TargetID, t domain.Target) error {
	if t == nil {
		return fmt.Errorf("%w: nil target %q", domain.ErrInvalidTarget, id)
	}
	s.targets[id] = t
	s.breach[id] = false
	return nil
}

func (s *Session) RemoveTarget(id domain.TargetID) {
	delete(s.targets, id)
	delete(s.breach, id)
}

func (s *Session) Target(id domain.TargetID) (domain.Target, bool) {
	t, ok := s.targets[id]
	return t, ok
}

func (s *Session) InBreach(id domain.TargetID) bool {
	return s.breach[id]
}

func (s *Session) LastPosition() (domain.GeoPoint, bool) {
	if s.lastPosition == nil {
		return domain.GeoPoint{}, false
	}
	return *s.lastPosition, true
}

// Evaluate checks pos against every target and returns the alerts raised by
// this fix, ordered by target id. at is stamped on each alert.
func (s *Session) Evaluate(pos domain.GeoPoint, at time.Time) []domain.AlertEvent {
	var alerts []domain.AlertEvent

	for _, id := range s.targetIDs() {
		t := s.targets[id]
		dist := distanceKm(pos, t)
		inBreach := dist > t.ThresholdKm()
		wasBreach := s.breach[id]

		switch {
		case inBreach && !wasBreach:
			alerts = append(alerts, domain.AlertEvent{
				ID:          s.newID(),
				TargetID:    id,
				Kind:        t.Kind(),
				DistanceKm:  dist,
				ThresholdKm: t.ThresholdKm(),
				Position:    pos,
				Timestamp:   at,
			})
			s.breach[id] = true
		case !inBreach && wasBreach:
			s.breach[id] = false
		}
	}

	p := pos
	s.lastPosition = &p
	return alerts
}

// Status returns a display snapshot of the installed targets.
func (s *Session) Status() []domain.TargetStatus {
	ids := s.targetIDs()
	out := make([]domain.TargetStatus, 0, len(ids))
	for _, id := range ids {
		t := s.targets[id]
		out = append(out, domain.TargetStatus{
			ID:          id,
			Kind:        t.Kind(),
			ThresholdKm: t.ThresholdKm(),
			InBreach:    s.breach[id],
		})
	}
	return out
}

func (s *Session) targetIDs() []domain.TargetID {
	ids := make([]domain.TargetID, 0, len(s.targets))
	for id := range s.targets {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func distanceKm(pos domain.GeoPoint, t domain.Target) float64 {
	switch t := t.(type) {
	case *domain.HomeRegion:
		return geo.HaversineKm(pos, t.Center)
	case *domain.RouteCorridor:
		// corridors are built from non-empty routes
		d, _ := geo.MinDistanceToRoute(pos, t.Path)
		return d
	default:
		panic(fmt.Sprintf("monitor: unknown target type %T", t))
	}
}
