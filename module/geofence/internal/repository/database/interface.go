package database

import (
	"context"

	"github.com/Runa3012/Volay/module/geofence/domain"
)

type LocationRepository interface {
	Insert(ctx context.Context, loc *domain.PatientLocation) error
	GetLatest(ctx context.Context, patientID string) (*domain.PatientLocation, error)
	GetHistory(ctx context.Context, query *domain.HistoryQuery) ([]domain.PatientLocation, error)
	GetAllPatients(ctx context.Context) ([]domain.Patient, error)
}
