package store

import (
	"context"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/SarkarTanzil/OpenGTS/pkg/geozone"
	"github.com/SarkarTanzil/OpenGTS/pkg/telemetry"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(Config{Driver: "sqlite", Path: ":memory:"})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	if err := s.InitSchema(); err != nil {
		t.Fatalf("InitSchema: %v", err)
	}
	return s
}

func seedFleet(t *testing.T, s *Store) {
	t.Helper()
	ctx := context.Background()
	account := &telemetry.Account{
		AccountID:    "demo",
		Description:  "Demo Fleet",
		TimeZone:     "UTC",
		GeocoderMode: telemetry.GeocoderFull,
	}
	if err := s.SaveAccount(ctx, account); err != nil {
		t.Fatalf("SaveAccount: %v", err)
	}
	for _, id := range []string{"truck1", "truck2"} {
		dev := &telemetry.Device{AccountID: "demo", DeviceID: id, Description: "Truck " + id}
		if err := s.SaveDevice(ctx, dev); err != nil {
			t.Fatalf("SaveDevice %s: %v", id, err)
		}
	}
	base := int64(1700000000)
	for i := 0; i < 5; i++ {
		ev := telemetry.Event{
			AccountID:  "demo",
			DeviceID:   "truck1",
			Timestamp:  base + int64(i*60),
			StatusCode: 0xF020,
			Point:      telemetry.GeoPoint{Lat: 39.0 + float64(i)*0.01, Lon: -121.5},
			SpeedKPH:   float64(10 * i),
		}
		if i == 2 {
			// Event without a usable fix.
			ev.Point = telemetry.GeoPoint{}
		}
		if err := s.InsertEvent(ctx, ev); err != nil {
			t.Fatalf("InsertEvent %d: %v", i, err)
		}
	}
}

func TestAccountRoundTrip(t *testing.T) {
	s := openTestStore(t)
	seedFleet(t, s)

	a, err := s.Account(context.Background(), "demo")
	if err != nil {
		t.Fatalf("Account: %v", err)
	}
	if a.Description != "Demo Fleet" || a.TimeZone != "UTC" {
		t.Errorf("account = %+v", a)
	}
	if a.GeocoderMode != telemetry.GeocoderFull {
		t.Errorf("geocoder mode = %v", a.GeocoderMode)
	}

	if _, err := s.Account(context.Background(), "nope"); err == nil {
		t.Error("missing account did not fail")
	}
}

func TestDeviceIDsSorted(t *testing.T) {
	s := openTestStore(t)
	seedFleet(t, s)

	ids, err := s.DeviceIDs(context.Background(), "demo")
	if err != nil {
		t.Fatalf("DeviceIDs: %v", err)
	}
	if len(ids) != 2 || ids[0] != "truck1" || ids[1] != "truck2" {
		t.Errorf("ids = %v", ids)
	}
}

func TestEventsRangeAndLimit(t *testing.T) {
	s := openTestStore(t)
	seedFleet(t, s)
	ctx := context.Background()

	evs, err := s.Events(ctx, RangeQuery{
		AccountID: "demo", DeviceID: "truck1",
		From: 1700000000, To: 1700000000 + 4*60,
	})
	if err != nil {
		t.Fatalf("Events: %v", err)
	}
	if len(evs) != 5 {
		t.Fatalf("got %d events, want 5", len(evs))
	}
	for i := 1; i < len(evs); i++ {
		if evs[i].Timestamp < evs[i-1].Timestamp {
			t.Fatal("events not ascending")
		}
	}

	evs, err = s.Events(ctx, RangeQuery{
		AccountID: "demo", DeviceID: "truck1",
		Limit: 2, Descending: true,
	})
	if err != nil {
		t.Fatalf("Events descending: %v", err)
	}
	if len(evs) != 2 {
		t.Fatalf("got %d events, want 2", len(evs))
	}
	// Newest two, returned in chronological order.
	if evs[0].Timestamp != 1700000000+3*60 || evs[1].Timestamp != 1700000000+4*60 {
		t.Errorf("timestamps = %d, %d", evs[0].Timestamp, evs[1].Timestamp)
	}
}

func TestEventsValidGPSFilter(t *testing.T) {
	s := openTestStore(t)
	seedFleet(t, s)

	evs, err := s.Events(context.Background(), RangeQuery{
		AccountID: "demo", DeviceID: "truck1", ValidGPS: true,
	})
	if err != nil {
		t.Fatalf("Events: %v", err)
	}
	if len(evs) != 4 {
		t.Fatalf("got %d events, want 4 with a usable fix", len(evs))
	}
	for _, ev := range evs {
		if !ev.Point.Valid() {
			t.Errorf("event @%d has no fix", ev.Timestamp)
		}
	}
}

func TestInsertEventIdempotent(t *testing.T) {
	s := openTestStore(t)
	seedFleet(t, s)
	ctx := context.Background()

	ev := telemetry.Event{
		AccountID: "demo", DeviceID: "truck1",
		Timestamp: 1700000000, StatusCode: 0xF020,
	}
	if err := s.InsertEvent(ctx, ev); err != nil {
		t.Fatalf("duplicate insert: %v", err)
	}
	evs, err := s.Events(ctx, RangeQuery{AccountID: "demo", DeviceID: "truck1"})
	if err != nil {
		t.Fatalf("Events: %v", err)
	}
	if len(evs) != 5 {
		t.Errorf("duplicate insert changed row count: %d", len(evs))
	}
}

func TestUpdateEnrichment(t *testing.T) {
	s := openTestStore(t)
	seedFleet(t, s)
	ctx := context.Background()

	ev := telemetry.Event{
		AccountID: "demo", DeviceID: "truck1",
		Timestamp: 1700000000, StatusCode: 0xF020,
		GeozoneID: "yard", GeozoneIndex: 3,
		Address: "Depot Yard", City: "Sacramento", PostalCode: "95814",
	}
	if err := s.UpdateEnrichment(ctx, ev); err != nil {
		t.Fatalf("UpdateEnrichment: %v", err)
	}

	evs, err := s.Events(ctx, RangeQuery{
		AccountID: "demo", DeviceID: "truck1",
		From: 1700000000, To: 1700000000,
	})
	if err != nil {
		t.Fatalf("Events: %v", err)
	}
	if len(evs) != 1 {
		t.Fatalf("got %d events", len(evs))
	}
	got := evs[0]
	if got.GeozoneID != "yard" || got.GeozoneIndex != 3 || got.Address != "Depot Yard" {
		t.Errorf("enrichment not persisted: %+v", got)
	}
	if got.City != "Sacramento" || got.PostalCode != "95814" {
		t.Errorf("city/postal not persisted: %+v", got)
	}
}

func TestGeozonesRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	zones := []geozone.Zone{
		{AccountID: "demo", ZoneID: "yard", Index: 2, Description: "Depot Yard",
			Center: telemetry.GeoPoint{Lat: 38.58, Lon: -121.49}, RadiusM: 500},
		{AccountID: "demo", ZoneID: "gate", Index: 1,
			Center: telemetry.GeoPoint{Lat: 38.60, Lon: -121.50}, RadiusM: 100},
	}
	for _, z := range zones {
		if err := s.SaveGeozone(ctx, z); err != nil {
			t.Fatalf("SaveGeozone %s: %v", z.ZoneID, err)
		}
	}

	got, err := s.Geozones(ctx, "demo")
	if err != nil {
		t.Fatalf("Geozones: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d zones", len(got))
	}
	// Ordered by sort index.
	if got[0].ZoneID != "gate" || got[1].ZoneID != "yard" {
		t.Errorf("order = %s, %s", got[0].ZoneID, got[1].ZoneID)
	}
	if got[1].Description != "Depot Yard" || got[1].RadiusM != 500 {
		t.Errorf("zone = %+v", got[1])
	}
}

func TestStreamEventsCancel(t *testing.T) {
	s := openTestStore(t)
	seedFleet(t, s)

	ctx, cancel := context.WithCancel(context.Background())
	evs, errCh := s.StreamEvents(ctx, RangeQuery{AccountID: "demo", DeviceID: "truck1"})
	<-evs
	cancel()
	for range evs {
	}
	// The error channel reports cancellation or closes cleanly if the scan
	// finished before cancel landed.
	if err := <-errCh; err != nil && err != context.Canceled {
		t.Errorf("unexpected stream error: %v", err)
	}
}
