package geofence

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gin-gonic/gin"
	amqp "github.com/rabbitmq/amqp091-go"
	goredis "github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	handler "github.com/Runa3012/Volay/module/geofence/internal/handler/http"
	"github.com/Runa3012/Volay/module/geofence/internal/handler/subscriber"
	"github.com/Runa3012/Volay/module/geofence/internal/repository/alertlog"
	mongolog "github.com/Runa3012/Volay/module/geofence/internal/repository/alertlog/mongo"
	rediscache "github.com/Runa3012/Volay/module/geofence/internal/repository/cache/redis"
	"github.com/Runa3012/Volay/module/geofence/internal/repository/database/postgres"
	"github.com/Runa3012/Volay/module/geofence/internal/repository/maps"
	"github.com/Runa3012/Volay/module/geofence/internal/repository/maps/googlemaps"
	"github.com/Runa3012/Volay/module/geofence/internal/repository/publisher/rabbitmq"
	"github.com/Runa3012/Volay/module/geofence/service"
)

// Deps are the connections the module runs on. Mongo and Redis are optional.
type Deps struct {
	DB    *sql.DB
	AMQP  *amqp.Connection
	MQTT  mqtt.Client
	Mongo *mongo.Database
	Redis *goredis.Client
}

type Options struct {
	MapsBaseURL     string
	GeocodeCacheTTL time.Duration
	Settings        service.Settings
}

type Module struct {
	LocationSvc *service.LocationService
	TrackingSvc *service.TrackingService

	patientHandler  *handler.PatientHandler
	geofenceHandler *handler.GeofenceHandler
}

func Build(deps Deps, opts Options) (*Module, error) {
	locationRepo := postgres.NewLocationRepo(deps.DB)
	locationSvc := service.NewLocationService(locationRepo)

	alertPub, err := rabbitmq.NewAlertPublisher(deps.AMQP)
	if err != nil {
		return nil, fmt.Errorf("alert publisher: %w", err)
	}

	mapsClient := googlemaps.NewClient(opts.MapsBaseURL, opts.Settings.RequestTimeout)
	var geocoder maps.Geocoder = mapsClient
	if deps.Redis != nil {
		geocoder = rediscache.NewGeocodeCache(deps.Redis, mapsClient, opts.GeocodeCacheTTL)
	}

	var alertLog alertlog.AlertLog
	if deps.Mongo != nil {
		ml := mongolog.NewAlertLog(deps.Mongo)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := ml.EnsureIndexes(ctx); err != nil {
			log.Printf("alert log: %v", err)
		}
		cancel()
		alertLog = ml
	}

	source := subscriber.NewLocationSubscriber(deps.MQTT, locationSvc)
	trackingSvc := service.NewTrackingService(source, mapsClient, geocoder, alertPub, alertLog, opts.Settings)

	return &Module{
		LocationSvc:     locationSvc,
		TrackingSvc:     trackingSvc,
		patientHandler:  handler.NewPatientHandler(locationSvc),
		geofenceHandler: handler.NewGeofenceHandler(trackingSvc),
	}, nil
}

func (m *Module) RegisterRoutes(r *gin.RouterGroup) {
	m.patientHandler.Register(r)
	m.geofenceHandler.Register(r)
}

// Shutdown unsubscribes every tracked patient.
func (m *Module) Shutdown() error {
	return m.TrackingSvc.StopAll()
}
