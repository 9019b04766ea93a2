package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Runa3012/Volay/module/geofence/domain"
	"github.com/Runa3012/Volay/module/geofence/internal/repository/database"
)

var _ database.LocationRepository = (*LocationRepo)(nil)

type LocationRepo struct {
	db *sql.DB
}

func NewLocationRepo(db *sql.DB) *LocationRepo {
	return &LocationRepo{db: db}
}

func (r *LocationRepo) Insert(ctx context.Context, pl *domain.PatientLocation) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO patient_locations (patient_id, latitude, longitude, recorded_at) VALUES ($1, $2, $3, $4)`,
		pl.PatientID, pl.Location.Lat, pl.Location.Lon, pl.Location.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert patient location: %w", err)
	}
	return nil
}

func (r *LocationRepo) GetLatest(ctx context.Context, patientID string) (*domain.PatientLocation, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT patient_id, latitude, longitude, recorded_at FROM patient_locations WHERE patient_id = $1 ORDER BY recorded_at DESC LIMIT 1`,
		patientID,
	)

	var pl domain.PatientLocation
	if err := row.Scan(&pl.PatientID, &pl.Location.Lat, &pl.Location.Lon, &pl.Location.Timestamp); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrLocationNotFound
		}
		return nil, fmt.Errorf("get latest patient location: %w", err)
	}
	return &pl, nil
}

func (r *LocationRepo) GetHistory(ctx context.Context, query *domain.HistoryQuery) ([]domain.PatientLocation, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT patient_id, latitude, longitude, recorded_at FROM patient_locations WHERE patient_id = $1 AND recorded_at >= $2 AND recorded_at <= $3 ORDER BY recorded_at ASC`,
		query.PatientID, query.Start, query.End,
	)
	if err != nil {
		return nil, fmt.Errorf("query patient history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	results := []domain.PatientLocation{}
	for rows.Next() {
		var pl domain.PatientLocation
		if err := rows.Scan(&pl.PatientID, &pl.Location.Lat, &pl.Location.Lon, &pl.Location.Timestamp); err != nil {
			return nil, err
		}
		results = append(results, pl)
	}
	return results, rows.Err()
}

func (r *LocationRepo) GetAllPatients(ctx context.Context) ([]domain.Patient, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT patient_id FROM patient_locations ORDER BY patient_id`,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	results := []domain.Patient{}
	for rows.Next() {
		var p domain.Patient
		if err := rows.Scan(&p.PatientID); err != nil {
			return nil, err
		}
		results = append(results, p)
	}
	return results, rows.Err()
}
