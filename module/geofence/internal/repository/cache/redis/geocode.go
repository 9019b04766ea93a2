package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/Runa3012/Volay/module/geofence/domain"
	"github.com/Runa3012/Volay/module/geofence/internal/repository/maps"
)

var _ maps.Geocoder = (*GeocodeCache)(nil)

const keyPrefix = "volay:geocode:"

// GeocodeCache serves repeated home address lookups from Redis. Only
// successful lookups are cached, and Redis failures fall through to the
// wrapped geocoder.
type GeocodeCache struct {
	client *goredis.Client
	next   maps.Geocoder
	ttl    time.Duration
}

func NewGeocodeCache(client *goredis.Client, next maps.Geocoder, ttl time.Duration) *GeocodeCache {
	return &GeocodeCache{client: client, next: next, ttl: ttl}
}

func (c *GeocodeCache) Geocode(ctx context.Context, address string) (domain.GeoPoint, error) {
	key := cacheKey(address)

	var cached domain.GeoPoint
	data, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		if jerr := json.Unmarshal(data, &cached); jerr == nil {
			return cached, nil
		}
		log.Printf("geocode cache: corrupt entry %s", key)
	case !errors.Is(err, goredis.Nil):
		log.Printf("geocode cache get %s: %v", key, err)
	}

	p, err := c.next.Geocode(ctx, address)
	if err != nil {
		return domain.GeoPoint{}, err
	}

	if err := c.set(ctx, key, p); err != nil {
		log.Printf("geocode cache set %s: %v", key, err)
	}
	return p, nil
}

func (c *GeocodeCache) set(ctx context.Context, key string, p domain.GeoPoint) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	return c.client.Set(ctx, key, data, c.ttl).Err()
}

func cacheKey(address string) string {
	return keyPrefix + strings.ToLower(strings.Join(strings.Fields(address), " "))
}
