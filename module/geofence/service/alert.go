package service

import (
	"fmt"

	"github.com/Runa3012/Volay/module/geofence/domain"
)

const milesPerKm = 0.621371

func newSafetyAlert(patientID string, ev domain.AlertEvent, t domain.Target) *domain.SafetyAlert {
	return &domain.SafetyAlert{
		ID:         ev.ID.String(),
		PatientID:  patientID,
		TargetID:   ev.TargetID,
		Kind:       ev.Kind,
		Message:    alertMessage(ev, t),
		DistanceKm: ev.DistanceKm,
		Location: domain.Location{
			Lat:       ev.Position.Lat,
			Lon:       ev.Position.Lng,
			Timestamp: ev.Timestamp,
		},
		Timestamp: ev.Timestamp,
	}
}

func alertMessage(ev domain.AlertEvent, t domain.Target) string {
	switch t := t.(type) {
	case *domain.HomeRegion:
		return fmt.Sprintf("Geofencing alert: Patient is %.2f km away from home (%s)!", ev.DistanceKm, t.Address)
	case *domain.RouteCorridor:
		return fmt.Sprintf("Geofencing alert: Patient has deviated %.1f miles from the expected route from %s to %s!",
			ev.DistanceKm*milesPerKm, t.Origin, t.Destination)
	default:
		return fmt.Sprintf("Geofencing alert: Patient is %.2f km outside %s!", ev.DistanceKm, ev.TargetID)
	}
}
