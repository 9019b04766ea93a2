package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/Runa3012/Volay/module/geofence/domain"
	"github.com/Runa3012/Volay/module/geofence/internal/repository/database"
)

// maxHistoryWindow bounds a single history query.
const maxHistoryWindow = 31 * 24 * time.Hour

// LocationService keeps the patient location history behind the dashboards'
// last-known position and trail views.
type LocationService struct {
	repo database.LocationRepository
}

func NewLocationService(repo database.LocationRepository) *LocationService {
	return &LocationService{repo: repo}
}

func (s *LocationService) SaveLocation(ctx context.Context, pl *domain.PatientLocation) error {
	if err := validateFix(pl); err != nil {
		return err
	}
	return s.repo.Insert(ctx, pl)
}

func (s *LocationService) GetLatest(ctx context.Context, patientID string) (*domain.PatientLocation, error) {
	if strings.TrimSpace(patientID) == "" {
		return nil, domain.ErrLocationNotFound
	}
	return s.repo.GetLatest(ctx, patientID)
}

// GetHistory returns the fixes recorded in [Start, End], oldest first.
func (s *LocationService) GetHistory(ctx context.Context, query *domain.HistoryQuery) ([]domain.PatientLocation, error) {
	if query.End.Before(query.Start) {
		return nil, fmt.Errorf("%w: history window ends before it starts", domain.ErrInvalidLocation)
	}
	if query.End.Sub(query.Start) > maxHistoryWindow {
		return nil, fmt.Errorf("%w: history window exceeds %v", domain.ErrInvalidLocation, maxHistoryWindow)
	}
	return s.repo.GetHistory(ctx, query)
}

func (s *LocationService) GetAllPatients(ctx context.Context) ([]domain.Patient, error) {
	return s.repo.GetAllPatients(ctx)
}

func validateFix(pl *domain.PatientLocation) error {
	switch {
	case strings.TrimSpace(pl.PatientID) == "":
		return fmt.Errorf("%w: patient id is required", domain.ErrInvalidLocation)
	case math.IsNaN(pl.Location.Lat) || pl.Location.Lat < -90 || pl.Location.Lat > 90:
		return fmt.Errorf("%w: latitude %v out of range", domain.ErrInvalidLocation, pl.Location.Lat)
	case math.IsNaN(pl.Location.Lon) || pl.Location.Lon < -180 || pl.Location.Lon > 180:
		return fmt.Errorf("%w: longitude %v out of range", domain.ErrInvalidLocation, pl.Location.Lon)
	case pl.Location.Timestamp.IsZero():
		return fmt.Errorf("%w: timestamp is required", domain.ErrInvalidLocation)
	}
	return nil
}
