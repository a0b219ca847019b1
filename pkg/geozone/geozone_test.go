package geozone

import (
	"context"
	"testing"

	"github.com/SarkarTanzil/OpenGTS/pkg/telemetry"
)

func TestZoneContains(t *testing.T) {
	yard := Zone{
		ZoneID:  "yard",
		Center:  telemetry.GeoPoint{Lat: 38.58157, Lon: -121.49440},
		RadiusM: 500,
	}

	cases := []struct {
		name string
		p    telemetry.GeoPoint
		want bool
	}{
		{"center", telemetry.GeoPoint{Lat: 38.58157, Lon: -121.49440}, true},
		{"inside 100m", telemetry.GeoPoint{Lat: 38.58247, Lon: -121.49440}, true},
		{"outside 1km", telemetry.GeoPoint{Lat: 38.59057, Lon: -121.49440}, false},
		{"invalid point", telemetry.GeoPoint{}, false},
	}
	for _, c := range cases {
		if got := yard.Contains(c.p); got != c.want {
			t.Errorf("%s: Contains = %v, want %v", c.name, got, c.want)
		}
	}
}

func TestZeroRadiusNeverMatches(t *testing.T) {
	z := Zone{Center: telemetry.GeoPoint{Lat: 1, Lon: 1}}
	if z.Contains(telemetry.GeoPoint{Lat: 1, Lon: 1}) {
		t.Error("zero-radius zone matched its own center")
	}
}

func TestMatcherFirstMatchWins(t *testing.T) {
	p := telemetry.GeoPoint{Lat: 38.58157, Lon: -121.49440}
	m := NewMatcher([]Zone{
		{ZoneID: "outer", Index: 1, Center: p, RadiusM: 2000},
		{ZoneID: "inner", Index: 2, Center: p, RadiusM: 100},
	})

	z, ok := m.Match(context.Background(), p)
	if !ok {
		t.Fatal("no match inside both zones")
	}
	if z.ZoneID != "outer" {
		t.Errorf("matched %q, want first zone in list order", z.ZoneID)
	}

	if _, ok := m.Match(context.Background(), telemetry.GeoPoint{Lat: -38, Lon: 121}); ok {
		t.Error("matched a point far outside every zone")
	}
}
