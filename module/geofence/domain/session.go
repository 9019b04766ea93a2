package domain

// TargetStatus is a read-only view of one installed target.
type TargetStatus struct {
	ID          TargetID   `json:"id"`
	Kind        TargetKind `json:"kind"`
	ThresholdKm float64    `json:"threshold_km"`
	InBreach    bool       `json:"in_breach"`
}

// SessionStatus is a snapshot of a patient's tracking session for display.
type SessionStatus struct {
	PatientID           string         `json:"patient_id"`
	LocationUnavailable bool           `json:"location_unavailable"`
	LastPosition        *GeoPoint      `json:"last_position,omitempty"`
	Targets             []TargetStatus `json:"targets"`
}
