package geocode

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/SarkarTanzil/OpenGTS/pkg/telemetry"
)

func TestReverseGeocode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/reverse" {
			http.NotFound(w, r)
			return
		}
		if got := r.URL.Query().Get("lat"); got != "38.58157" {
			t.Errorf("lat = %q", got)
		}
		w.Write([]byte(`{
			"display_name": "1000 K St, Sacramento, CA 95814",
			"address": {"city": "Sacramento", "postcode": "95814"}
		}`))
	}))
	defer srv.Close()

	r := &Resolver{BaseURL: srv.URL}
	addr, err := r.ReverseGeocode(context.Background(), telemetry.GeoPoint{Lat: 38.58157, Lon: -121.49440})
	if err != nil {
		t.Fatalf("ReverseGeocode: %v", err)
	}
	if addr.Full != "1000 K St, Sacramento, CA 95814" {
		t.Errorf("Full = %q", addr.Full)
	}
	if addr.City != "Sacramento" || addr.PostalCode != "95814" {
		t.Errorf("city/postal = %q / %q", addr.City, addr.PostalCode)
	}
}

func TestReverseGeocodeTownFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"display_name": "x", "address": {"town": "Davis"}}`))
	}))
	defer srv.Close()

	r := &Resolver{BaseURL: srv.URL}
	addr, err := r.ReverseGeocode(context.Background(), telemetry.GeoPoint{Lat: 1, Lon: 1})
	if err != nil {
		t.Fatalf("ReverseGeocode: %v", err)
	}
	if addr.City != "Davis" {
		t.Errorf("City = %q, want town fallback", addr.City)
	}
}

func TestReverseGeocodeSlowProvider(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	r := &Resolver{BaseURL: srv.URL, Budget: 30 * time.Millisecond}
	_, err := r.ReverseGeocode(context.Background(), telemetry.GeoPoint{Lat: 1, Lon: 1})
	if !errors.Is(err, ErrSlowOperation) {
		t.Fatalf("err = %v, want ErrSlowOperation", err)
	}
}

func TestReverseGeocodeInvalidPoint(t *testing.T) {
	r := &Resolver{BaseURL: "http://unused.invalid"}
	if _, err := r.ReverseGeocode(context.Background(), telemetry.GeoPoint{}); err == nil {
		t.Fatal("invalid point accepted")
	}
}

func TestReverseGeocodeHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "over quota", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	r := &Resolver{BaseURL: srv.URL}
	_, err := r.ReverseGeocode(context.Background(), telemetry.GeoPoint{Lat: 1, Lon: 1})
	if err == nil || errors.Is(err, ErrSlowOperation) {
		t.Fatalf("err = %v, want hard provider error", err)
	}
}
