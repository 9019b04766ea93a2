package http

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/Runa3012/Volay/module/geofence/domain"
)

type trackingService interface {
	StartTracking(patientID string) error
	StopTracking(patientID string) error
	SetHomeAddress(ctx context.Context, patientID, address string) (*domain.HomeRegion, error)
	StartRouteTracking(ctx context.Context, patientID, origin, destination string) (*domain.RouteCorridor, error)
	StopRouteTracking(patientID string) error
	Status(patientID string) (*domain.SessionStatus, error)
	Targets(patientID string) (*domain.HomeRegion, *domain.RouteCorridor, error)
	Alerts(ctx context.Context, patientID string, limit int64) ([]domain.SafetyAlert, error)
}

type startTrackingRequest struct {
	HomeAddress string `json:"home_address"`
}

type homeRequest struct {
	Address string `json:"address" binding:"required"`
}

type routeRequest struct {
	Origin      string `json:"origin" binding:"required"`
	Destination string `json:"destination" binding:"required"`
}

type homeResponse struct {
	Address   string  `json:"address"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	RadiusKm  float64 `json:"radius_km"`
}

type routeResponse struct {
	Origin      string  `json:"origin"`
	Destination string  `json:"destination"`
	ToleranceKm float64 `json:"tolerance_km"`
	Points      int     `json:"points"`
}

const defaultAlertLimit = 50

// GeofenceHandler drives tracking sessions: targets, status and alerts.
type GeofenceHandler struct {
	trackingSvc trackingService
}

func NewGeofenceHandler(trackingSvc trackingService) *GeofenceHandler {
	return &GeofenceHandler{trackingSvc: trackingSvc}
}

func (h *GeofenceHandler) Register(r *gin.RouterGroup) {
	p := r.Group("/patients/:patient_id")
	p.POST("/tracking", h.StartTracking)
	p.DELETE("/tracking", h.StopTracking)
	p.PUT("/home", h.SetHome)
	p.POST("/route", h.StartRoute)
	p.DELETE("/route", h.StopRoute)
	p.GET("/geofence", h.GetStatus)
	p.GET("/geofence/geojson", h.GetGeoJSON)
	p.GET("/alerts", h.GetAlerts)
}

// StartTracking opens a session. With a home_address in the body the home
// region is installed as well.
func (h *GeofenceHandler) StartTracking(c *gin.Context) {
	patientID := c.Param("patient_id")

	var req startTrackingRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
	}

	created := false
	if req.HomeAddress != "" {
		_, statusErr := h.trackingSvc.Status(patientID)
		created = errors.Is(statusErr, domain.ErrSessionNotFound)
	}

	if err := h.trackingSvc.StartTracking(patientID); err != nil {
		writeError(c, err)
		return
	}
	if req.HomeAddress != "" {
		if _, err := h.trackingSvc.SetHomeAddress(c.Request.Context(), patientID, req.HomeAddress); err != nil {
			// a session opened by this request does not outlive its failure
			if created {
				if stopErr := h.trackingSvc.StopTracking(patientID); stopErr != nil {
					log.Printf("stop tracking %s: %v", patientID, stopErr)
				}
			}
			writeError(c, err)
			return
		}
	}

	status, err := h.trackingSvc.Status(patientID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, status)
}

func (h *GeofenceHandler) StopTracking(c *gin.Context) {
	if err := h.trackingSvc.StopTracking(c.Param("patient_id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *GeofenceHandler) SetHome(c *gin.Context) {
	var req homeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "address is required"})
		return
	}

	home, err := h.trackingSvc.SetHomeAddress(c.Request.Context(), c.Param("patient_id"), req.Address)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, homeResponse{
		Address:   home.Address,
		Latitude:  home.Center.Lat,
		Longitude: home.Center.Lng,
		RadiusKm:  home.RadiusKm,
	})
}

func (h *GeofenceHandler) StartRoute(c *gin.Context) {
	var req routeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "origin and destination are required"})
		return
	}

	corridor, err := h.trackingSvc.StartRouteTracking(c.Request.Context(), c.Param("patient_id"), req.Origin, req.Destination)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, routeResponse{
		Origin:      corridor.Origin,
		Destination: corridor.Destination,
		ToleranceKm: corridor.ToleranceKm,
		Points:      corridor.Path.Len(),
	})
}

func (h *GeofenceHandler) StopRoute(c *gin.Context) {
	if err := h.trackingSvc.StopRouteTracking(c.Param("patient_id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *GeofenceHandler) GetStatus(c *gin.Context) {
	status, err := h.trackingSvc.Status(c.Param("patient_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// GetGeoJSON renders the installed targets for map display: the route as a
// LineString and the home centre as a Point.
func (h *GeofenceHandler) GetGeoJSON(c *gin.Context) {
	home, route, err := h.trackingSvc.Targets(c.Param("patient_id"))
	if err != nil {
		writeError(c, err)
		return
	}

	data, err := targetsFeatureCollection(home, route).MarshalJSON()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to encode geojson"})
		return
	}
	c.Data(http.StatusOK, "application/geo+json", data)
}

func (h *GeofenceHandler) GetAlerts(c *gin.Context) {
	limit := int64(defaultAlertLimit)
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit parameter"})
			return
		}
		limit = n
	}

	alerts, err := h.trackingSvc.Alerts(c.Request.Context(), c.Param("patient_id"), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch alerts"})
		return
	}
	c.JSON(http.StatusOK, alerts)
}

func targetsFeatureCollection(home *domain.HomeRegion, route *domain.RouteCorridor) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	if route != nil {
		line := make(orb.LineString, 0, route.Path.Len())
		route.Path.Each(func(p domain.GeoPoint) {
			line = append(line, orb.Point{p.Lng, p.Lat})
		})

		var g orb.Geometry = line
		// a LineString needs two positions
		if len(line) == 1 {
			g = line[0]
		}
		f := geojson.NewFeature(g)
		f.Properties["target"] = string(domain.RouteTargetID)
		f.Properties["origin"] = route.Origin
		f.Properties["destination"] = route.Destination
		f.Properties["tolerance_km"] = route.ToleranceKm
		fc.Append(f)
	}

	if home != nil {
		f := geojson.NewFeature(orb.Point{home.Center.Lng, home.Center.Lat})
		f.Properties["target"] = string(domain.HomeTargetID)
		f.Properties["address"] = home.Address
		f.Properties["radius_km"] = home.RadiusKm
		fc.Append(f)
	}

	return fc
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "patient is not being tracked"})
	case errors.Is(err, domain.ErrInvalidTarget):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrRouteUnavailable),
		errors.Is(err, domain.ErrGeocodeUnavailable),
		errors.Is(err, domain.ErrMalformedPolyline),
		errors.Is(err, domain.ErrEmptyRoute):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		log.Printf("geofence handler: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
