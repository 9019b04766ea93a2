package domain

import "time"

type Location struct {
	Lat       float64   `json:"latitude" bson:"latitude"`
	Lon       float64   `json:"longitude" bson:"longitude"`
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
}

func (l Location) Point() GeoPoint {
	return GeoPoint{Lat: l.Lat, Lng: l.Lon}
}

type PatientLocation struct {
	PatientID string   `json:"patient_id"`
	Location  Location `json:"location"`
}

type Patient struct {
	PatientID string `json:"patient_id"`
}

type HistoryQuery struct {
	PatientID string
	Start     time.Time
	End       time.Time
}
