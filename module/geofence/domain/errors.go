package domain

import "errors"

var (
	ErrMalformedPolyline  = errors.New("malformed polyline")
	ErrEmptyRoute         = errors.New("empty route")
	ErrRouteUnavailable   = errors.New("route unavailable")
	ErrGeocodeUnavailable = errors.New("geocode unavailable")
	ErrInvalidTarget      = errors.New("invalid geofence target")
	ErrSessionNotFound    = errors.New("tracking session not found")
	ErrLocationNotFound   = errors.New("no location recorded")
	ErrInvalidLocation    = errors.New("invalid location")
)
