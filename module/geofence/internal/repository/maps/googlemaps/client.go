// Package googlemaps talks to the Volay backend's Google Maps proxy
// endpoints, which return the Directions and Geocoding API payloads as is.
package googlemaps

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Runa3012/Volay/module/geofence/domain"
	"github.com/Runa3012/Volay/module/geofence/internal/repository/maps"
)

var (
	_ maps.DirectionsProvider = (*Client)(nil)
	_ maps.Geocoder           = (*Client)(nil)
)

const statusOK = "OK"

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

type directionsResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Routes       []struct {
		OverviewPolyline struct {
			Points string `json:"points"`
		} `json:"overview_polyline"`
	} `json:"routes"`
}

type geocodeResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Results      []struct {
		FormattedAddress string `json:"formatted_address"`
		Geometry         struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

// GetRoute returns the overview polyline of the first route from origin to
// destination. Every failure wraps domain.ErrRouteUnavailable.
func (c *Client) GetRoute(ctx context.Context, origin, destination string) (string, error) {
	q := url.Values{}
	q.Set("origin", origin)
	q.Set("destination", destination)

	var resp directionsResponse
	if err := c.get(ctx, "/api/directions", q, &resp); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrRouteUnavailable, err)
	}
	if resp.Status != statusOK || len(resp.Routes) == 0 {
		return "", fmt.Errorf("%w: no route found between %q and %q (status %s%s)",
			domain.ErrRouteUnavailable, origin, destination, resp.Status, detail(resp.ErrorMessage))
	}
	return resp.Routes[0].OverviewPolyline.Points, nil
}

// Geocode resolves address to the location of its first result. Every
// failure wraps domain.ErrGeocodeUnavailable.
func (c *Client) Geocode(ctx context.Context, address string) (domain.GeoPoint, error) {
	q := url.Values{}
	q.Set("address", address)

	var resp geocodeResponse
	if err := c.get(ctx, "/api/geocode-address", q, &resp); err != nil {
		return domain.GeoPoint{}, fmt.Errorf("%w: %v", domain.ErrGeocodeUnavailable, err)
	}
	if resp.Status != statusOK || len(resp.Results) == 0 {
		return domain.GeoPoint{}, fmt.Errorf("%w: no geocoding results for %q (status %s%s)",
			domain.ErrGeocodeUnavailable, address, resp.Status, detail(resp.ErrorMessage))
	}

	loc := resp.Results[0].Geometry.Location
	p := domain.GeoPoint{Lat: loc.Lat, Lng: loc.Lng}
	if p.Lat < -90 || p.Lat > 90 || p.Lng < -180 || p.Lng > 180 {
		return domain.GeoPoint{}, fmt.Errorf("%w: result %s out of range", domain.ErrGeocodeUnavailable, p)
	}
	return p, nil
}

func (c *Client) get(ctx context.Context, path string, q url.Values, dest any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func detail(msg string) string {
	if msg == "" {
		return ""
	}
	return ": " + msg
}
