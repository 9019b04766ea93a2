package geo

import (
	"fmt"
	"math"
	"strings"

	"github.com/Runa3012/Volay/module/geofence/domain"
)

const (
	polylineScale  = 1e5
	polylineOffset = 63
	chunkMask      = 0x1f
	continuation   = 0x20
	// 7 chunks carry 35 bits, more than any in-range coordinate delta needs.
	maxChunks = 7
)

// DecodePolyline decodes a Google encoded polyline into absolute points.
// Any structural problem yields an error wrapping domain.ErrMalformedPolyline
// and no points.
func DecodePolyline(encoded string) ([]domain.GeoPoint, error) {
	points := make([]domain.GeoPoint, 0, len(encoded)/4)
	var lat, lng int64

	for i := 0; i < len(encoded); {
		dLat, next, err := decodeValue(encoded, i)
		if err != nil {
			return nil, err
		}
		if next >= len(encoded) {
			return nil, fmt.Errorf("%w: latitude at byte %d has no longitude", domain.ErrMalformedPolyline, i)
		}
		dLng, next, err := decodeValue(encoded, next)
		if err != nil {
			return nil, err
		}
		i = next

		lat += dLat
		lng += dLng
		points = append(points, domain.GeoPoint{
			Lat: float64(lat) / polylineScale,
			Lng: float64(lng) / polylineScale,
		})
	}
	return points, nil
}

func decodeValue(s string, start int) (int64, int, error) {
	var result uint64
	var shift uint

	for i, chunks := start, 0; i < len(s); i, chunks = i+1, chunks+1 {
		if chunks == maxChunks {
			return 0, 0, fmt.Errorf("%w: value at byte %d overflows", domain.ErrMalformedPolyline, start)
		}
		c := s[i]
		if c < polylineOffset || c > polylineOffset+chunkMask+continuation {
			return 0, 0, fmt.Errorf("%w: invalid byte %q at %d", domain.ErrMalformedPolyline, c, i)
		}
		b := uint64(c - polylineOffset)
		result |= (b & chunkMask) << shift
		shift += 5
		if b&continuation == 0 {
			v := int64(result >> 1)
			if result&1 != 0 {
				v = ^v
			}
			return v, i + 1, nil
		}
	}
	return 0, 0, fmt.Errorf("%w: truncated value at byte %d", domain.ErrMalformedPolyline, start)
}

// EncodePolyline is the inverse of DecodePolyline, rounding to 1e-5 degrees.
func EncodePolyline(points []domain.GeoPoint) string {
	var b strings.Builder
	var prevLat, prevLng int64
	for _, p := range points {
		lat := int64(math.Round(p.Lat * polylineScale))
		lng := int64(math.Round(p.Lng * polylineScale))
		encodeValue(&b, lat-prevLat)
		encodeValue(&b, lng-prevLng)
		prevLat, prevLng = lat, lng
	}
	return b.String()
}

func encodeValue(b *strings.Builder, v int64) {
	u := uint64(v) << 1
	if v < 0 {
		u = ^u
	}
	for u >= continuation {
		b.WriteByte(byte((continuation | (u & chunkMask)) + polylineOffset))
		u >>= 5
	}
	b.WriteByte(byte(u + polylineOffset))
}
