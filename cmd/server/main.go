package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/Runa3012/Volay/config"
	"github.com/Runa3012/Volay/module/geofence"
	"github.com/Runa3012/Volay/module/geofence/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	db, err := config.NewPostgres(cfg)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer func() { _ = db.Close() }()

	amqpConn, err := config.NewRabbitMQ(cfg)
	if err != nil {
		log.Fatalf("rabbitmq: %v", err)
	}
	defer func() { _ = amqpConn.Close() }()

	mqttClient, err := config.NewMQTT(cfg)
	if err != nil {
		log.Fatalf("mqtt: %v", err)
	}
	defer mqttClient.Disconnect(250)

	redisClient, err := config.NewRedis(cfg)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
	}

	mongoClient, err := config.NewMongo(cfg)
	if err != nil {
		log.Fatalf("mongodb: %v", err)
	}
	var mongoDB *mongo.Database
	if mongoClient != nil {
		defer func() { _ = mongoClient.Disconnect(context.Background()) }()
		mongoDB = mongoClient.Database(cfg.MongoDatabase)
	}

	geofenceModule, err := geofence.Build(geofence.Deps{
		DB:    db,
		AMQP:  amqpConn,
		MQTT:  mqttClient,
		Mongo: mongoDB,
		Redis: redisClient,
	}, geofence.Options{
		MapsBaseURL:     cfg.MapsBaseURL,
		GeocodeCacheTTL: cfg.GeocodeCacheTTL,
		Settings: service.Settings{
			HomeRadiusKm:     cfg.HomeRadiusKm,
			RouteToleranceKm: cfg.RouteToleranceKm,
			RequestTimeout:   cfg.RequestTimeout,
		},
	})
	if err != nil {
		log.Fatalf("geofence module: %v", err)
	}

	r := gin.Default()

	health := config.NewHealthChecker(db, amqpConn, mqttClient, redisClient, mongoClient)
	health.Register(r)

	geofenceModule.RegisterRoutes(&r.RouterGroup)

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("listening on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down")

	// drain HTTP first so no request can start tracking after StopAll
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("server shutdown: %v", err)
	}

	if err := geofenceModule.Shutdown(); err != nil {
		log.Printf("stop tracking: %v", err)
	}
}
