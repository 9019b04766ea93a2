package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/Runa3012/Volay/module/geofence/domain"
	"github.com/Runa3012/Volay/module/geofence/geo"
	"github.com/Runa3012/Volay/module/geofence/internal/repository/alertlog"
	"github.com/Runa3012/Volay/module/geofence/internal/repository/maps"
	"github.com/Runa3012/Volay/module/geofence/internal/repository/publisher"
	"github.com/Runa3012/Volay/module/geofence/monitor"
)

// PositionSource streams a patient's location fixes. After Unwatch returns no
// further callbacks are made for that patient. onErr reports failures of the
// device; a terminal failure is followed by no more fixes.
type PositionSource interface {
	Watch(patientID string, onFix func(domain.Location), onErr func(error)) error
	Unwatch(patientID string) error
}

type Settings struct {
	HomeRadiusKm     float64
	RouteToleranceKm float64
	RequestTimeout   time.Duration
}

type trackedSession struct {
	mu                  sync.Mutex
	session             *monitor.Session
	locationUnavailable bool
}

// TrackingService owns one monitor session per tracked patient and connects
// it to the position source, the maps backend and the alert sink.
type TrackingService struct {
	source     PositionSource
	directions maps.DirectionsProvider
	geocoder   maps.Geocoder
	sink       publisher.AlertPublisher
	alertLog   alertlog.AlertLog
	settings   Settings

	mu        sync.RWMutex
	sessions  map[string]*trackedSession
	lifecycle map[string]*sync.Mutex
}

// NewTrackingService builds the service. alertLog may be nil.
func NewTrackingService(
	source PositionSource,
	directions maps.DirectionsProvider,
	geocoder maps.Geocoder,
	sink publisher.AlertPublisher,
	alertLog alertlog.AlertLog,
	settings Settings,
) *TrackingService {
	return &TrackingService{
		source:     source,
		directions: directions,
		geocoder:   geocoder,
		sink:       sink,
		alertLog:   alertLog,
		settings:   settings,
		sessions:   make(map[string]*trackedSession),
		lifecycle:  make(map[string]*sync.Mutex),
	}
}

// StartTracking opens a fresh session for patientID and subscribes to its
// fixes. Starting an already tracked patient is a no-op.
func (s *TrackingService) StartTracking(patientID string) error {
	_, err := s.ensureSession(patientID)
	return err
}

func (s *TrackingService) ensureSession(patientID string) (*trackedSession, error) {
	lk := s.lifecycleLock(patientID)
	lk.Lock()
	defer lk.Unlock()
	return s.ensureSessionLocked(patientID)
}

// ensureSessionLocked requires the patient's lifecycle lock.
func (s *TrackingService) ensureSessionLocked(patientID string) (*trackedSession, error) {
	if ts, ok := s.lookup(patientID); ok {
		return ts, nil
	}

	onFix := func(loc domain.Location) {
		if err := s.HandleFix(context.Background(), patientID, loc); err != nil {
			log.Printf("geofence: patient %s: %v", patientID, err)
		}
	}
	onErr := func(err error) {
		s.HandleSourceError(patientID, err)
	}
	// the session only becomes visible once the source is watching
	if err := s.source.Watch(patientID, onFix, onErr); err != nil {
		return nil, fmt.Errorf("watch position: %w", err)
	}

	ts := &trackedSession{session: monitor.NewSession()}
	s.mu.Lock()
	s.sessions[patientID] = ts
	s.mu.Unlock()
	return ts, nil
}

// StopTracking discards the session and unsubscribes from the patient's
// fixes. Fixes already in flight find no session and are dropped. A later
// start gets a new session with fresh breach flags.
func (s *TrackingService) StopTracking(patientID string) error {
	lk := s.lifecycleLock(patientID)
	lk.Lock()
	defer lk.Unlock()

	s.mu.Lock()
	_, ok := s.sessions[patientID]
	delete(s.sessions, patientID)
	s.mu.Unlock()

	if !ok {
		return domain.ErrSessionNotFound
	}
	if err := s.source.Unwatch(patientID); err != nil {
		return fmt.Errorf("unwatch position: %w", err)
	}
	return nil
}

// StopAll stops every tracked patient, used on shutdown.
func (s *TrackingService) StopAll() error {
	s.mu.RLock()
	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	s.mu.RUnlock()

	var errs []error
	for _, id := range ids {
		if err := s.StopTracking(id); err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
			errs = append(errs, fmt.Errorf("stop %s: %w", id, err))
		}
	}
	return errors.Join(errs...)
}

// lifecycleLock serialises starting and stopping one patient, including the
// position source calls. Locks are kept for the life of the service.
func (s *TrackingService) lifecycleLock(patientID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lk, ok := s.lifecycle[patientID]
	if !ok {
		lk = &sync.Mutex{}
		s.lifecycle[patientID] = lk
	}
	return lk
}

// SetHomeAddress geocodes address and installs the home region, starting
// tracking if needed. On failure the existing targets are left as they are.
func (s *TrackingService) SetHomeAddress(ctx context.Context, patientID, address string) (*domain.HomeRegion, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, fmt.Errorf("%w: home address is not set", domain.ErrGeocodeUnavailable)
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	center, err := s.geocoder.Geocode(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("geocode home address: %w", err)
	}

	home, err := domain.NewHomeRegion(center, s.settings.HomeRadiusKm, address)
	if err != nil {
		return nil, err
	}

	if err := s.install(patientID, domain.HomeTargetID, home); err != nil {
		return nil, err
	}
	return home, nil
}

// StartRouteTracking fetches the route between origin and destination and
// installs it as the patient's only route corridor. Nothing is installed if
// the route cannot be fetched or decoded.
func (s *TrackingService) StartRouteTracking(ctx context.Context, patientID, origin, destination string) (*domain.RouteCorridor, error) {
	origin = strings.TrimSpace(origin)
	destination = strings.TrimSpace(destination)
	if origin == "" || destination == "" {
		return nil, fmt.Errorf("%w: start and destination addresses are required", domain.ErrRouteUnavailable)
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	encoded, err := s.directions.GetRoute(ctx, origin, destination)
	if err != nil {
		if errors.Is(err, domain.ErrRouteUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrRouteUnavailable, err)
	}

	route, err := geo.RouteFromPolyline(encoded)
	if err != nil {
		return nil, fmt.Errorf("route %q -> %q: %w", origin, destination, err)
	}

	corridor, err := domain.NewRouteCorridor(route, s.settings.RouteToleranceKm, origin, destination)
	if err != nil {
		return nil, err
	}

	if err := s.install(patientID, domain.RouteTargetID, corridor); err != nil {
		return nil, err
	}
	return corridor, nil
}

func (s *TrackingService) StopRouteTracking(patientID string) error {
	ts, ok := s.lookup(patientID)
	if !ok {
		return domain.ErrSessionNotFound
	}
	ts.mu.Lock()
	ts.session.RemoveTarget(domain.RouteTargetID)
	ts.mu.Unlock()
	return nil
}

// install holds the lifecycle lock so a concurrent stop cannot drop the
// session between creating it and adding the target.
func (s *TrackingService) install(patientID string, id domain.TargetID, t domain.Target) error {
	lk := s.lifecycleLock(patientID)
	lk.Lock()
	defer lk.Unlock()

	ts, err := s.ensureSessionLocked(patientID)
	if err != nil {
		return err
	}
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return ts.session.AddTarget(id, t)
}

// HandleFix evaluates one fix and delivers the alerts it raises. Fixes for
// patients that are not tracked are dropped. Breach flags are updated before
// delivery, so a failed delivery is not retried on the next fix.
func (s *TrackingService) HandleFix(ctx context.Context, patientID string, loc domain.Location) error {
	ts, ok := s.lookup(patientID)
	if !ok {
		return nil
	}

	ts.mu.Lock()
	ts.locationUnavailable = false
	events := ts.session.Evaluate(loc.Point(), loc.Timestamp)
	alerts := make([]*domain.SafetyAlert, 0, len(events))
	for _, ev := range events {
		t, _ := ts.session.Target(ev.TargetID)
		alerts = append(alerts, newSafetyAlert(patientID, ev, t))
	}
	ts.mu.Unlock()

	var errs []error
	for _, alert := range alerts {
		log.Printf("geofence: %s", alert.Message)
		if err := s.sink.PublishAlert(ctx, alert); err != nil {
			errs = append(errs, fmt.Errorf("publish alert %s: %w", alert.ID, err))
			continue
		}
		if s.alertLog != nil {
			if err := s.alertLog.Record(ctx, alert); err != nil {
				errs = append(errs, fmt.Errorf("record alert %s: %w", alert.ID, err))
			}
		}
	}
	return errors.Join(errs...)
}

// HandleSourceError marks the patient's location as unavailable. Targets and
// breach flags are kept.
func (s *TrackingService) HandleSourceError(patientID string, err error) {
	ts, ok := s.lookup(patientID)
	if !ok {
		return
	}
	ts.mu.Lock()
	ts.locationUnavailable = true
	ts.mu.Unlock()
	log.Printf("geofence: patient %s: location unavailable: %v", patientID, err)
}

func (s *TrackingService) Status(patientID string) (*domain.SessionStatus, error) {
	ts, ok := s.lookup(patientID)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}

	ts.mu.Lock()
	defer ts.mu.Unlock()

	status := &domain.SessionStatus{
		PatientID:           patientID,
		LocationUnavailable: ts.locationUnavailable,
		Targets:             ts.session.Status(),
	}
	if p, ok := ts.session.LastPosition(); ok {
		status.LastPosition = &p
	}
	return status, nil
}

// Targets returns the installed home region and route corridor; either may be
// nil. Targets are immutable once built, so the pointers are safe to share.
func (s *TrackingService) Targets(patientID string) (*domain.HomeRegion, *domain.RouteCorridor, error) {
	ts, ok := s.lookup(patientID)
	if !ok {
		return nil, nil, domain.ErrSessionNotFound
	}

	ts.mu.Lock()
	defer ts.mu.Unlock()

	var home *domain.HomeRegion
	var route *domain.RouteCorridor
	if t, ok := ts.session.Target(domain.HomeTargetID); ok {
		home, _ = t.(*domain.HomeRegion)
	}
	if t, ok := ts.session.Target(domain.RouteTargetID); ok {
		route, _ = t.(*domain.RouteCorridor)
	}
	return home, route, nil
}

func (s *TrackingService) Alerts(ctx context.Context, patientID string, limit int64) ([]domain.SafetyAlert, error) {
	if s.alertLog == nil {
		return []domain.SafetyAlert{}, nil
	}
	return s.alertLog.ListByPatient(ctx, patientID, limit)
}

func (s *TrackingService) lookup(patientID string) (*trackedSession, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ts, ok := s.sessions[patientID]
	return ts, ok
}

func (s *TrackingService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.settings.RequestTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.settings.RequestTimeout)
}
