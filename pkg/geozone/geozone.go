// Package geozone matches GPS points against an account's named circular
// zones. Matching is pure in-memory math; the zone list is loaded once per
// run and is small enough that a linear scan beats any index.
package geozone

import (
	"context"
	"math"

	"github.com/SarkarTanzil/OpenGTS/pkg/telemetry"
)

// Zone is one circular region. RadiusM is in meters.
type Zone struct {
	AccountID   string
	ZoneID      string
	Index       int64
	Description string
	Center      telemetry.GeoPoint
	RadiusM     float64
}

const earthRadiusM = 6371000.0

// distanceM returns the great-circle distance between two points.
func distanceM(a, b telemetry.GeoPoint) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusM * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// Contains reports whether the point falls inside the zone.
func (z Zone) Contains(p telemetry.GeoPoint) bool {
	if !p.Valid() || z.RadiusM <= 0 {
		return false
	}
	return distanceM(z.Center, p) <= z.RadiusM
}

// Matcher holds one account's zones and answers point queries.
type Matcher struct {
	zones []Zone
}

// NewMatcher keeps the given zones. The slice is not copied; callers load
// it once and hand it over.
func NewMatcher(zones []Zone) *Matcher {
	return &Matcher{zones: zones}
}

// Match returns the first zone containing the point, in list order. The
// context parameter keeps the signature uniform with networked resolvers;
// the in-memory matcher never blocks.
func (m *Matcher) Match(_ context.Context, p telemetry.GeoPoint) (Zone, bool) {
	for _, z := range m.zones {
		if z.Contains(p) {
			return z, true
		}
	}
	return Zone{}, false
}
