package config

import (
	"database/sql"
	"errors"
	"net/http"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gin-gonic/gin"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

var (
	errConnClosed   = errors.New("connection closed")
	errNotConnected = errors.New("not connected")
)

type HealthChecker struct {
	db       *sql.DB
	amqpConn *amqp.Connection
	mqtt     mqtt.Client
	redis    *redis.Client
	mongo    *mongo.Client
}

// NewHealthChecker reports on the required connections. Redis and Mongo are
// only checked when non-nil.
func NewHealthChecker(db *sql.DB, amqpConn *amqp.Connection, mqttClient mqtt.Client, redisClient *redis.Client, mongoClient *mongo.Client) *HealthChecker {
	return &HealthChecker{db: db, amqpConn: amqpConn, mqtt: mqttClient, redis: redisClient, mongo: mongoClient}
}

func (h *HealthChecker) Register(r *gin.Engine) {
	r.GET("/healthz", h.Handle)
}

func (h *HealthChecker) Handle(c *gin.Context) {
	ctx := c.Request.Context()
	deps := gin.H{}
	healthy := true

	report := func(name string, err error) {
		if err != nil {
			deps[name] = gin.H{"status": "down", "error": err.Error()}
			healthy = false
			return
		}
		deps[name] = gin.H{"status": "up"}
	}

	report("postgres", h.db.PingContext(ctx))

	if h.amqpConn.IsClosed() {
		report("rabbitmq", errConnClosed)
	} else {
		report("rabbitmq", nil)
	}

	if !h.mqtt.IsConnected() {
		report("mqtt", errNotConnected)
	} else {
		report("mqtt", nil)
	}

	if h.redis != nil {
		report("redis", h.redis.Ping(ctx).Err())
	}
	if h.mongo != nil {
		report("mongodb", h.mongo.Ping(ctx, nil))
	}

	status, overall := http.StatusOK, "healthy"
	if !healthy {
		status, overall = http.StatusServiceUnavailable, "unhealthy"
	}

	c.JSON(status, gin.H{
		"status":       overall,
		"dependencies": deps,
	})
}
