package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/Runa3012/Volay/module/geofence/domain"
)

var locationColumns = []string{"patient_id", "latitude", "longitude", "recorded_at"}

func newMockRepo(t *testing.T) (*LocationRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewLocationRepo(db), mock
}

func TestInsert_Success(t *testing.T) {
	repo, mock := newMockRepo(t)

	ts := time.Unix(1715003456, 0)
	mock.ExpectExec(`INSERT INTO patient_locations`).
		WithArgs("patient-42", 19.0760, 72.8777, ts).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.Insert(context.Background(), &domain.PatientLocation{
		PatientID: "patient-42",
		Location:  domain.Location{Lat: 19.0760, Lon: 72.8777, Timestamp: ts},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestInsert_Error(t *testing.T) {
	repo, mock := newMockRepo(t)

	ts := time.Unix(1715003456, 0)
	mock.ExpectExec(`INSERT INTO patient_locations`).
		WithArgs("patient-42", 19.0760, 72.8777, ts).
		WillReturnError(sqlmock.ErrCancelled)

	err := repo.Insert(context.Background(), &domain.PatientLocation{
		PatientID: "patient-42",
		Location:  domain.Location{Lat: 19.0760, Lon: 72.8777, Timestamp: ts},
	})
	if !errors.Is(err, sqlmock.ErrCancelled) {
		t.Fatalf("expected wrapped ErrCancelled, got %v", err)
	}
}

func TestGetLatest_Success(t *testing.T) {
	repo, mock := newMockRepo(t)

	ts := time.Unix(1715003456, 0)
	rows := sqlmock.NewRows(locationColumns).AddRow("patient-42", 19.0760, 72.8777, ts)
	mock.ExpectQuery(`SELECT patient_id, latitude, longitude, recorded_at FROM patient_locations WHERE patient_id = (.+) ORDER BY recorded_at DESC LIMIT 1`).
		WithArgs("patient-42").
		WillReturnRows(rows)

	pl, err := repo.GetLatest(context.Background(), "patient-42")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pl.PatientID != "patient-42" {
		t.Errorf("expected patient-42, got %s", pl.PatientID)
	}
	if pl.Location.Lat != 19.0760 || pl.Location.Lon != 72.8777 {
		t.Errorf("unexpected location %+v", pl.Location)
	}
	if !pl.Location.Timestamp.Equal(ts) {
		t.Errorf("expected %v, got %v", ts, pl.Location.Timestamp)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestGetLatest_NotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`SELECT patient_id, latitude, longitude, recorded_at FROM patient_locations WHERE patient_id = (.+)`).
		WithArgs("UNKNOWN").
		WillReturnRows(sqlmock.NewRows(locationColumns))

	_, err := repo.GetLatest(context.Background(), "UNKNOWN")
	if !errors.Is(err, domain.ErrLocationNotFound) {
		t.Fatalf("expected ErrLocationNotFound, got %v", err)
	}
}

func TestGetHistory_Success(t *testing.T) {
	repo, mock := newMockRepo(t)

	start := time.Unix(1715000000, 0)
	end := time.Unix(1715009999, 0)
	rows := sqlmock.NewRows(locationColumns).
		AddRow("patient-42", 19.07, 72.87, time.Unix(1715000000, 0)).
		AddRow("patient-42", 19.08, 72.88, time.Unix(1715005000, 0))

	mock.ExpectQuery(`SELECT patient_id, latitude, longitude, recorded_at FROM patient_locations WHERE patient_id = (.+) AND recorded_at >= (.+) AND recorded_at <= (.+) ORDER BY recorded_at ASC`).
		WithArgs("patient-42", start, end).
		WillReturnRows(rows)

	results, err := repo.GetHistory(context.Background(), &domain.HistoryQuery{
		PatientID: "patient-42",
		Start:     start,
		End:       end,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Location.Lat != 19.07 || results[1].Location.Lat != 19.08 {
		t.Errorf("unexpected order %+v", results)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestGetHistory_Empty(t *testing.T) {
	repo, mock := newMockRepo(t)

	start := time.Unix(1715000000, 0)
	end := time.Unix(1715009999, 0)
	mock.ExpectQuery(`SELECT patient_id, latitude, longitude, recorded_at FROM patient_locations`).
		WithArgs("patient-42", start, end).
		WillReturnRows(sqlmock.NewRows(locationColumns))

	results, err := repo.GetHistory(context.Background(), &domain.HistoryQuery{PatientID: "patient-42", Start: start, End: end})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if results == nil || len(results) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", results)
	}
}

func TestGetHistory_QueryError(t *testing.T) {
	repo, mock := newMockRepo(t)

	start := time.Unix(1715000000, 0)
	end := time.Unix(1715009999, 0)
	mock.ExpectQuery(`SELECT patient_id, latitude, longitude, recorded_at FROM patient_locations`).
		WithArgs("patient-42", start, end).
		WillReturnError(sqlmock.ErrCancelled)

	_, err := repo.GetHistory(context.Background(), &domain.HistoryQuery{PatientID: "patient-42", Start: start, End: end})
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestGetAllPatients(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`SELECT DISTINCT patient_id FROM patient_locations`).
		WillReturnRows(sqlmock.NewRows([]string{"patient_id"}).AddRow("patient-42").AddRow("patient-7"))

	results, err := repo.GetAllPatients(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 patients, got %d", len(results))
	}
	if results[0].PatientID != "patient-42" {
		t.Errorf("expected patient-42, got %s", results[0].PatientID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}
