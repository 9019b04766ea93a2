package subscriber

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/Runa3012/Volay/module/geofence/domain"
)

// Devices publish fixes to /volay/patient/{id}/location and geolocation
// failures to /volay/patient/{id}/location/error.
const (
	topicFormat = "/volay/patient/%s/location"
	errorSuffix = "/error"
	qos         = 1
)

type locationService interface {
	SaveLocation(ctx context.Context, pl *domain.PatientLocation) error
}

type locationMessage struct {
	PatientID string  `json:"patient_id"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Timestamp int64   `json:"timestamp"`
}

type errorMessage struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Geolocation error codes reported by patient devices.
const (
	CodePermissionDenied    = "permission_denied"
	CodePositionUnavailable = "position_unavailable"
	CodeTimeout             = "timeout"
)

// PositionError is a failure reported by the patient's device.
type PositionError struct {
	Code    string
	Message string
}

func (e *PositionError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Terminal reports whether the device will stop sending fixes.
func (e *PositionError) Terminal() bool {
	return e.Code == CodePermissionDenied || e.Code == CodePositionUnavailable
}

type watcher struct {
	onFix func(domain.Location)
	onErr func(error)
}

// LocationSubscriber is the MQTT position source. Each watched patient gets
// its own subscription, removed again on Unwatch.
type LocationSubscriber struct {
	client      mqtt.Client
	locationSvc locationService

	// opMu orders Subscribe and Unsubscribe calls. Message handlers never
	// take it, so it may be held while waiting on a broker token.
	opMu sync.Mutex

	mu       sync.Mutex
	watchers map[string]*watcher
}

func NewLocationSubscriber(client mqtt.Client, locationSvc locationService) *LocationSubscriber {
	return &LocationSubscriber{
		client:      client,
		locationSvc: locationSvc,
		watchers:    make(map[string]*watcher),
	}
}

func (s *LocationSubscriber) Watch(patientID string, onFix func(domain.Location), onErr func(error)) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.mu.Lock()
	s.watchers[patientID] = &watcher{onFix: onFix, onErr: onErr}
	s.mu.Unlock()

	filter := topicFilter(patientID)
	token := s.client.Subscribe(filter, qos, func(_ mqtt.Client, msg mqtt.Message) {
		s.handleMessage(patientID, msg)
	})
	token.Wait()
	if err := token.Error(); err != nil {
		s.forget(patientID)
		return fmt.Errorf("subscribe %s: %w", filter, err)
	}
	return nil
}

func (s *LocationSubscriber) Unwatch(patientID string) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.forget(patientID)

	token := s.client.Unsubscribe(topicFilter(patientID))
	token.Wait()
	return token.Error()
}

func (s *LocationSubscriber) forget(patientID string) {
	s.mu.Lock()
	delete(s.watchers, patientID)
	s.mu.Unlock()
}

// forgetIf removes the watcher only if it is still w.
func (s *LocationSubscriber) forgetIf(patientID string, w *watcher) {
	s.mu.Lock()
	if s.watchers[patientID] == w {
		delete(s.watchers, patientID)
	}
	s.mu.Unlock()
}

// dropSubscription unsubscribes after a terminal device error unless the
// patient has been watched again in the meantime.
func (s *LocationSubscriber) dropSubscription(patientID string) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	if _, ok := s.lookup(patientID); ok {
		return
	}
	if token := s.client.Unsubscribe(topicFilter(patientID)); token.Wait() && token.Error() != nil {
		log.Printf("unsubscribe patient %s: %v", patientID, token.Error())
	}
}

func (s *LocationSubscriber) lookup(patientID string) (*watcher, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.watchers[patientID]
	return w, ok
}

func (s *LocationSubscriber) handleMessage(patientID string, msg mqtt.Message) {
	w, ok := s.lookup(patientID)
	if !ok {
		return
	}

	if strings.HasSuffix(msg.Topic(), errorSuffix) {
		s.handleError(patientID, w, msg.Payload())
		return
	}

	var raw locationMessage
	if err := json.Unmarshal(msg.Payload(), &raw); err != nil {
		log.Printf("invalid location message: %v", err)
		return
	}

	if err := validateLocationMessage(&raw, patientID); err != nil {
		log.Printf("validation error: %v", err)
		return
	}

	pl := &domain.PatientLocation{
		PatientID: raw.PatientID,
		Location: domain.Location{
			Lat:       raw.Latitude,
			Lon:       raw.Longitude,
			Timestamp: time.Unix(raw.Timestamp, 0),
		},
	}

	// history is best effort; the geofence check must still run
	if err := s.locationSvc.SaveLocation(context.Background(), pl); err != nil {
		log.Printf("save location error: %v", err)
	}

	w.onFix(pl.Location)
}

func (s *LocationSubscriber) handleError(patientID string, w *watcher, payload []byte) {
	var raw errorMessage
	if err := json.Unmarshal(payload, &raw); err != nil || raw.Code == "" {
		raw = errorMessage{Code: CodePositionUnavailable, Message: "unreadable device error"}
	}

	perr := &PositionError{Code: raw.Code, Message: raw.Message}
	if perr.Terminal() {
		s.forgetIf(patientID, w)
		// waiting on a token inside a message handler blocks the paho router
		go s.dropSubscription(patientID)
	}
	w.onErr(perr)
}

// topicFilter matches the location topic and everything below it.
func topicFilter(patientID string) string {
	return fmt.Sprintf(topicFormat, patientID) + "/#"
}

func validateLocationMessage(msg *locationMessage, patientID string) error {
	if msg.PatientID == "" {
		return fmt.Errorf("patient_id: required")
	}
	if msg.PatientID != patientID {
		return fmt.Errorf("patient_id: %q does not match topic patient %q", msg.PatientID, patientID)
	}
	if msg.Latitude < -90 || msg.Latitude > 90 {
		return fmt.Errorf("latitude: must be between -90 and 90")
	}
	if msg.Longitude < -180 || msg.Longitude > 180 {
		return fmt.Errorf("longitude: must be between -180 and 180")
	}
	if msg.Timestamp <= 0 {
		return fmt.Errorf("timestamp: must be positive")
	}
	return nil
}
