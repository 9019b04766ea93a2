package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/Runa3012/Volay/module/geofence/domain"
	"github.com/Runa3012/Volay/module/geofence/internal/repository/publisher"
)

var _ publisher.AlertPublisher = (*AlertPublisher)(nil)

const (
	ExchangeName = "volay.events"
	QueueName    = "safety_alerts"
)

// channel is the part of *amqp.Channel the publisher uses.
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

type AlertPublisher struct {
	ch channel
}

func NewAlertPublisher(conn *amqp.Connection) (*AlertPublisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("rabbitmq channel: %w", err)
	}
	if err := DeclareTopology(ch); err != nil {
		return nil, err
	}
	return &AlertPublisher{ch: ch}, nil
}

// DeclareTopology declares the fanout exchange and the durable safety alert
// queue bound to it. The event listener declares the same topology.
func DeclareTopology(ch *amqp.Channel) error {
	if err := ch.ExchangeDeclare(ExchangeName, "fanout", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}
	if _, err := ch.QueueDeclare(QueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}
	if err := ch.QueueBind(QueueName, "", ExchangeName, false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}
	return nil
}

// AlertMessage is the wire form of a safety alert.
type AlertMessage struct {
	ID         string        `json:"id"`
	PatientID  string        `json:"patient_id"`
	Target     string        `json:"target"`
	Kind       string        `json:"kind"`
	Message    string        `json:"message"`
	DistanceKm float64       `json:"distance_km"`
	Location   AlertLocation `json:"location"`
	Timestamp  int64         `json:"timestamp"`
}

type AlertLocation struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func (p *AlertPublisher) PublishAlert(ctx context.Context, alert *domain.SafetyAlert) error {
	msg := AlertMessage{
		ID:         alert.ID,
		PatientID:  alert.PatientID,
		Target:     string(alert.TargetID),
		Kind:       string(alert.Kind),
		Message:    alert.Message,
		DistanceKm: alert.DistanceKm,
		Location: AlertLocation{
			Latitude:  alert.Location.Lat,
			Longitude: alert.Location.Lon,
		},
		Timestamp: alert.Timestamp.Unix(),
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal alert: %w", err)
	}

	return p.ch.PublishWithContext(ctx, ExchangeName, "", false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    alert.ID,
		Timestamp:    alert.Timestamp,
		Body:         body,
	})
}
