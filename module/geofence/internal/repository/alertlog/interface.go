package alertlog

import (
	"context"

	"github.com/Runa3012/Volay/module/geofence/domain"
)

type AlertLog interface {
	Record(ctx context.Context, alert *domain.SafetyAlert) error
	ListByPatient(ctx context.Context, patientID string, limit int64) ([]domain.SafetyAlert, error)
}
