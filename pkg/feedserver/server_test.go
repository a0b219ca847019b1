package feedserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/SarkarTanzil/OpenGTS/pkg/store"
	"github.com/SarkarTanzil/OpenGTS/pkg/telemetry"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	s, err := store.Open(store.Config{Driver: "sqlite", Path: ":memory:"})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	if err := s.InitSchema(); err != nil {
		t.Fatalf("init schema: %v", err)
	}

	ctx := context.Background()
	account := &telemetry.Account{AccountID: "demo", Description: "Demo Fleet", TimeZone: "UTC"}
	if err := s.SaveAccount(ctx, account); err != nil {
		t.Fatalf("save account: %v", err)
	}
	dev := &telemetry.Device{AccountID: "demo", DeviceID: "truck1", Description: "Truck #1"}
	if err := s.SaveDevice(ctx, dev); err != nil {
		t.Fatalf("save device: %v", err)
	}
	for i := 0; i < 3; i++ {
		ev := telemetry.Event{
			AccountID: "demo", DeviceID: "truck1",
			Timestamp:  1700000000 + int64(i*60),
			StatusCode: 0xF020,
			Point:      telemetry.GeoPoint{Lat: 39.1, Lon: -121.5},
			SpeedKPH:   25,
		}
		if err := s.InsertEvent(ctx, ev); err != nil {
			t.Fatalf("insert event: %v", err)
		}
	}

	srv := &Server{Store: s, Logf: t.Logf}
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func get(t *testing.T, url string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	var sb strings.Builder
	buf := make([]byte, 32*1024)
	for {
		n, err := resp.Body.Read(buf)
		sb.Write(buf[:n])
		if err != nil {
			break
		}
	}
	return resp, sb.String()
}

func TestEventsCSV(t *testing.T) {
	ts := newTestServer(t)
	resp, body := get(t, ts.URL+"/events.csv?a=demo")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("content type = %q", ct)
	}
	lines := strings.Split(strings.TrimRight(body, "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("got %d lines, want header + 3 rows:\n%s", len(lines), body)
	}
	if !strings.HasPrefix(lines[0], "DeviceID,") {
		t.Errorf("header = %q", lines[0])
	}
}

func TestEventsJSON(t *testing.T) {
	ts := newTestServer(t)
	resp, body := get(t, ts.URL+"/events.json?a=demo&d=truck1")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var doc struct {
		Account    string
		DeviceList []struct {
			Device    string
			EventData []map[string]any
		}
	}
	if err := json.Unmarshal([]byte(body), &doc); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, body)
	}
	if doc.Account != "demo" || len(doc.DeviceList) != 1 || len(doc.DeviceList[0].EventData) != 3 {
		t.Errorf("document = %+v", doc)
	}
}

func TestEventsUnsupportedFormat(t *testing.T) {
	ts := newTestServer(t)
	resp, _ := get(t, ts.URL+"/events.pdf?a=demo")
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestEventsUnknownAccount(t *testing.T) {
	ts := newTestServer(t)
	resp, _ := get(t, ts.URL+"/events.csv?a=nope")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestMapFeed(t *testing.T) {
	ts := newTestServer(t)
	resp, body := get(t, ts.URL+"/mapfeed?a=demo&d=truck1")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	lines := strings.Split(strings.TrimRight(body, "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d records, want 3:\n%s", len(lines), body)
	}
	if !strings.HasPrefix(lines[0], "truck1|") {
		t.Errorf("record = %q", lines[0])
	}
}

func TestMapFeedJS(t *testing.T) {
	ts := newTestServer(t)
	resp, body := get(t, ts.URL+"/mapfeed.js")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if !strings.Contains(body, "function mapFeedParseRecord") {
		t.Errorf("parser body missing:\n%s", body)
	}
}

func TestQRCode(t *testing.T) {
	ts := newTestServer(t)
	resp, body := get(t, ts.URL+"/qr.png?u=https://example.org/mapfeed")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if !strings.HasPrefix(body, "\x89PNG") {
		t.Error("response is not a PNG")
	}
}

func TestServerHeader(t *testing.T) {
	ts := newTestServer(t)
	resp, _ := get(t, ts.URL+"/mapfeed.js")
	if got := resp.Header.Get("Server"); !strings.HasPrefix(got, "opengts-export/") {
		t.Errorf("Server header = %q", got)
	}
}
