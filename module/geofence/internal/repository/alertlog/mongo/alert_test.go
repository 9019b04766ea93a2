package mongo

import (
	"context"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/Runa3012/Volay/module/geofence/domain"
)

func TestAlertLog(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	ts := time.Unix(1715003456, 0).UTC()
	alert := &domain.SafetyAlert{
		ID:         "3f2b8c1e-0000-4000-8000-000000000001",
		PatientID:  "patient-42",
		TargetID:   domain.HomeTargetID,
		Kind:       domain.KindHomeRegion,
		Message:    "Geofencing alert: Patient is 0.60 km away from home (456 Home Rd)!",
		DistanceKm: 0.6,
		Location:   domain.Location{Lat: 19.08, Lon: 72.88, Timestamp: ts},
		Timestamp:  ts,
	}

	mt.Run("record success", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		if err := NewAlertLog(mt.DB).Record(context.Background(), alert); err != nil {
			mt.Fatalf("unexpected error: %v", err)
		}
	})

	mt.Run("record duplicate", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "duplicate key error",
		}))

		if err := NewAlertLog(mt.DB).Record(context.Background(), alert); err == nil {
			mt.Fatal("expected error")
		}
	})

	mt.Run("list by patient", func(mt *mtest.T) {
		ns := mt.DB.Name() + "." + CollectionName
		first := bson.D{
			{Key: "_id", Value: "a2"},
			{Key: "patient_id", Value: "patient-42"},
			{Key: "target_id", Value: "route"},
			{Key: "kind", Value: "route_corridor"},
			{Key: "message", Value: "route alert"},
			{Key: "distance_km", Value: 0.9},
			{Key: "location", Value: bson.D{{Key: "latitude", Value: 1.0}, {Key: "longitude", Value: 2.0}, {Key: "timestamp", Value: ts}}},
			{Key: "timestamp", Value: ts.Add(time.Minute)},
		}
		second := bson.D{
			{Key: "_id", Value: "a1"},
			{Key: "patient_id", Value: "patient-42"},
			{Key: "target_id", Value: "home"},
			{Key: "kind", Value: "home_region"},
			{Key: "message", Value: "home alert"},
			{Key: "distance_km", Value: 0.6},
			{Key: "timestamp", Value: ts},
		}
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, first, second))

		alerts, err := NewAlertLog(mt.DB).ListByPatient(context.Background(), "patient-42", 10)
		if err != nil {
			mt.Fatalf("unexpected error: %v", err)
		}
		if len(alerts) != 2 {
			mt.Fatalf("expected 2 alerts, got %d", len(alerts))
		}
		if alerts[0].ID != "a2" || alerts[0].TargetID != domain.RouteTargetID {
			mt.Errorf("unexpected first alert %+v", alerts[0])
		}
		if alerts[0].Location.Lat != 1.0 || alerts[0].Location.Lon != 2.0 {
			mt.Errorf("unexpected location %+v", alerts[0].Location)
		}
		if !alerts[1].Timestamp.Equal(ts) {
			mt.Errorf("expected %v, got %v", ts, alerts[1].Timestamp)
		}
	})

	mt.Run("list empty", func(mt *mtest.T) {
		ns := mt.DB.Name() + "." + CollectionName
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		alerts, err := NewAlertLog(mt.DB).ListByPatient(context.Background(), "nobody", 0)
		if err != nil {
			mt.Fatalf("unexpected error: %v", err)
		}
		if alerts == nil || len(alerts) != 0 {
			mt.Fatalf("expected empty non-nil slice, got %#v", alerts)
		}
	})

	mt.Run("list error", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    2,
			Message: "bad query",
		}))

		if _, err := NewAlertLog(mt.DB).ListByPatient(context.Background(), "patient-42", 10); err == nil {
			mt.Fatal("expected error")
		}
	})
}
