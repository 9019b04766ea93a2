package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Runa3012/Volay/module/geofence/domain"
)

type locationService interface {
	GetLatest(ctx context.Context, patientID string) (*domain.PatientLocation, error)
	GetHistory(ctx context.Context, query *domain.HistoryQuery) ([]domain.PatientLocation, error)
	GetAllPatients(ctx context.Context) ([]domain.Patient, error)
}

type locationResponse struct {
	PatientID string  `json:"patient_id"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Timestamp int64   `json:"timestamp"`
}

// PatientHandler serves the stored location history of patients.
type PatientHandler struct {
	locationSvc locationService
}

func NewPatientHandler(locationSvc locationService) *PatientHandler {
	return &PatientHandler{locationSvc: locationSvc}
}

func (h *PatientHandler) Register(r *gin.RouterGroup) {
	r.GET("/patients", h.GetAllPatients)
	r.GET("/patients/:patient_id/location", h.GetLatestLocation)
	r.GET("/patients/:patient_id/history", h.GetHistory)
}

func (h *PatientHandler) GetAllPatients(c *gin.Context) {
	patients, err := h.locationSvc.GetAllPatients(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch patients"})
		return
	}

	c.JSON(http.StatusOK, patients)
}

func (h *PatientHandler) GetLatestLocation(c *gin.Context) {
	pl, err := h.locationSvc.GetLatest(c.Request.Context(), c.Param("patient_id"))
	if errors.Is(err, domain.ErrLocationNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "no location for patient"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch location"})
		return
	}

	c.JSON(http.StatusOK, toLocationResponse(pl))
}

func (h *PatientHandler) GetHistory(c *gin.Context) {
	start, err := strconv.ParseInt(c.Query("start"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start parameter"})
		return
	}

	end, err := strconv.ParseInt(c.Query("end"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid end parameter"})
		return
	}
	if end < start {
		c.JSON(http.StatusBadRequest, gin.H{"error": "end must not be before start"})
		return
	}

	locations, err := h.locationSvc.GetHistory(c.Request.Context(), &domain.HistoryQuery{
		PatientID: c.Param("patient_id"),
		Start:     time.Unix(start, 0),
		End:       time.Unix(end, 0),
	})
	if errors.Is(err, domain.ErrInvalidLocation) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch history"})
		return
	}

	results := make([]locationResponse, len(locations))
	for i := range locations {
		results[i] = toLocationResponse(&locations[i])
	}
	c.JSON(http.StatusOK, results)
}

func toLocationResponse(pl *domain.PatientLocation) locationResponse {
	return locationResponse{
		PatientID: pl.PatientID,
		Latitude:  pl.Location.Lat,
		Longitude: pl.Location.Lon,
		Timestamp: pl.Location.Timestamp.Unix(),
	}
}
