package main

import (
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"os"
	"strconv"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/Runa3012/Volay/module/geofence/domain"
	"github.com/Runa3012/Volay/module/geofence/geo"
)

type locationMessage struct {
	PatientID string  `json:"patient_id"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Timestamp int64   `json:"timestamp"`
}

type errorMessage struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Home and the planned walk north from it, roughly 110 m per step.
var (
	home       = domain.GeoPoint{Lat: 19.0760, Lng: 72.8777}
	stepDeg    = 0.001
	routeSteps = 10
	driftSteps = 6
)

// walk yields the simulated patient's positions: along the route, off it to
// the east, and back again.
func walk() []domain.GeoPoint {
	var pts []domain.GeoPoint
	for i := 0; i <= routeSteps; i++ {
		pts = append(pts, domain.GeoPoint{Lat: home.Lat + float64(i)*stepDeg, Lng: home.Lng})
	}
	end := pts[len(pts)-1]
	for i := 1; i <= driftSteps; i++ {
		pts = append(pts, domain.GeoPoint{Lat: end.Lat, Lng: end.Lng + float64(i)*stepDeg})
	}
	for i := driftSteps - 1; i >= 0; i-- {
		pts = append(pts, domain.GeoPoint{Lat: end.Lat, Lng: end.Lng + float64(i)*stepDeg})
	}
	for i := routeSteps - 1; i >= 0; i-- {
		pts = append(pts, domain.GeoPoint{Lat: home.Lat + float64(i)*stepDeg, Lng: home.Lng})
	}
	return pts
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "usage: %s <interval_seconds> [patient_id]\n", os.Args[0])
		os.Exit(1)
	}

	intervalSec, err := strconv.Atoi(os.Args[1])
	if err != nil || intervalSec <= 0 {
		fmt.Fprintf(os.Stderr, "error: interval must be a positive integer\n")
		os.Exit(1)
	}

	patientID := "patient-42"
	if len(os.Args) > 2 {
		patientID = os.Args[2]
	}

	broker := "tcp://localhost:1883"
	if v := os.Getenv("MQTT_BROKER"); v != "" {
		broker = v
	}

	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID("volay-mock-device-" + patientID)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		log.Fatalf("mqtt connect: %v", token.Error())
	}
	defer client.Disconnect(250)

	path := walk()
	planned := path[:routeSteps+1]
	topic := fmt.Sprintf("/volay/patient/%s/location", patientID)

	log.Printf("connected to %s, publishing every %ds for %s", broker, intervalSec, patientID)
	log.Printf("planned route polyline: %s", geo.EncodePolyline(planned))

	ticker := time.NewTicker(time.Duration(intervalSec) * time.Second)
	defer ticker.Stop()

	for i := 0; ; i++ {
		<-ticker.C

		// an occasional GPS timeout, which the server tolerates
		if rand.Float64() < 0.05 {
			payload, _ := json.Marshal(errorMessage{Code: "timeout", Message: "position fix timed out"})
			client.Publish(topic+"/error", 1, false, payload).Wait()
			log.Printf("published to %s/error: %s", topic, payload)
			continue
		}

		p := path[i%len(path)]
		msg := locationMessage{
			PatientID: patientID,
			Latitude:  p.Lat,
			Longitude: p.Lng,
			Timestamp: time.Now().Unix(),
		}

		payload, _ := json.Marshal(msg)
		token := client.Publish(topic, 1, false, payload)
		token.Wait()

		log.Printf("published to %s: %s (%.2f km from home)", topic, payload, geo.HaversineKm(home, p))
	}
}
