package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Runa3012/Volay/module/geofence/domain"
	"github.com/Runa3012/Volay/module/geofence/internal/repository/alertlog"
)

var _ alertlog.AlertLog = (*AlertLog)(nil)

const (
	CollectionName = "safety_alerts"
	defaultLimit   = 50
	maxLimit       = 500
)

type AlertLog struct {
	collection *mongo.Collection
}

func NewAlertLog(db *mongo.Database) *AlertLog {
	return &AlertLog{collection: db.Collection(CollectionName)}
}

// EnsureIndexes creates the index ListByPatient sorts on.
func (r *AlertLog) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "patient_id", Value: 1}, {Key: "timestamp", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("create alert index: %w", err)
	}
	return nil
}

func (r *AlertLog) Record(ctx context.Context, alert *domain.SafetyAlert) error {
	if _, err := r.collection.InsertOne(ctx, alert); err != nil {
		return fmt.Errorf("insert alert: %w", err)
	}
	return nil
}

// ListByPatient returns the patient's most recent alerts, newest first.
func (r *AlertLog) ListByPatient(ctx context.Context, patientID string, limit int64) ([]domain.SafetyAlert, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(limit)

	cursor, err := r.collection.Find(ctx, bson.M{"patient_id": patientID}, opts)
	if err != nil {
		return nil, fmt.Errorf("find alerts: %w", err)
	}
	defer cursor.Close(ctx)

	alerts := []domain.SafetyAlert{}
	if err := cursor.All(ctx, &alerts); err != nil {
		return nil, fmt.Errorf("decode alerts: %w", err)
	}
	return alerts, nil
}
