package domain

import (
	"time"

	"github.com/google/uuid"
)

// AlertEvent is raised when a target's breach flag goes from inside to outside.
type AlertEvent struct {
	ID          uuid.UUID
	TargetID    TargetID
	Kind        TargetKind
	DistanceKm  float64
	ThresholdKm float64
	Position    GeoPoint
	Timestamp   time.Time
}

// SafetyAlert is the caregiver-facing notification built from an AlertEvent.
type SafetyAlert struct {
	ID         string     `json:"id" bson:"_id"`
	PatientID  string     `json:"patient_id" bson:"patient_id"`
	TargetID   TargetID   `json:"target_id" bson:"target_id"`
	Kind       TargetKind `json:"kind" bson:"kind"`
	Message    string     `json:"message" bson:"message"`
	DistanceKm float64    `json:"distance_km" bson:"distance_km"`
	Location   Location   `json:"location" bson:"location"`
	Timestamp  time.Time  `json:"timestamp" bson:"timestamp"`
}
