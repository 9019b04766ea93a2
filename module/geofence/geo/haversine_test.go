package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Runa3012/Volay/module/geofence/domain"
)

var samplePoints = []domain.GeoPoint{
	{Lat: 19.0760, Lng: 72.8777},
	{Lat: 19.0850, Lng: 72.8777},
	{Lat: -6.2088, Lng: 106.8456},
	{Lat: 51.5007, Lng: -0.1246},
	{Lat: 40.6892, Lng: -74.0445},
	{Lat: 0, Lng: 0},
	{Lat: -33.8568, Lng: 151.2153},
	{Lat: 89.9, Lng: 179.9},
}

func TestHaversineKm_Identity(t *testing.T) {
	for _, p := range samplePoints {
		assert.Zero(t, HaversineKm(p, p), "point %s", p)
	}
}

func TestHaversineKm_Symmetry(t *testing.T) {
	for _, a := range samplePoints {
		for _, b := range samplePoints {
			assert.InDelta(t, HaversineKm(a, b), HaversineKm(b, a), 1e-9, "%s <-> %s", a, b)
		}
	}
}

func TestHaversineKm_TriangleInequality(t *testing.T) {
	for _, a := range samplePoints {
		for _, b := range samplePoints {
			for _, c := range samplePoints {
				ac := HaversineKm(a, c)
				abc := HaversineKm(a, b) + HaversineKm(b, c)
				assert.LessOrEqual(t, ac, abc+1e-6, "%s %s %s", a, b, c)
			}
		}
	}
}

func TestHaversineKm_KnownDistances(t *testing.T) {
	tests := []struct {
		name  string
		a, b  domain.GeoPoint
		want  float64
		delta float64
	}{
		{"mumbai 0.009 deg north", samplePoints[0], samplePoints[1], 1.0, 0.05},
		{"one degree of longitude at equator", domain.GeoPoint{}, domain.GeoPoint{Lng: 1}, 111.195, 0.01},
		{"london to new york", samplePoints[3], samplePoints[4], 5575, 10},
		{"antipodes", domain.GeoPoint{Lat: 0, Lng: 0}, domain.GeoPoint{Lat: 0, Lng: 180}, 20015.09, 0.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := HaversineKm(tt.a, tt.b)
			assert.InDelta(t, tt.want, d, tt.delta)
			assert.GreaterOrEqual(t, d, 0.0)
		})
	}
}
