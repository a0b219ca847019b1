package export

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/SarkarTanzil/OpenGTS/pkg/telemetry"
)

func TestJSONDocumentParses(t *testing.T) {
	ev2 := testEvent()
	ev2.Timestamp += 60
	var buf strings.Builder
	x := &Exporter{Format: FormatJSON}
	if err := x.Write(&buf, testAccount(), []telemetry.Device{testDevice(testEvent(), ev2)}); err != nil {
		t.Fatalf("Write: %v", err)
	}

	var doc struct {
		Account     string
		AccountDesc string `json:"Account_desc"`
		TimeZone    string
		DeviceList  []struct {
			Device     string
			DeviceDesc string `json:"Device_desc"`
			EventData  []map[string]any
		}
	}
	if err := json.Unmarshal([]byte(buf.String()), &doc); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, buf.String())
	}
	if doc.Account != "demo" || doc.TimeZone != "UTC" {
		t.Errorf("account header = %+v", doc)
	}
	if len(doc.DeviceList) != 1 || len(doc.DeviceList[0].EventData) != 2 {
		t.Fatalf("device/event counts wrong: %+v", doc.DeviceList)
	}

	first := doc.DeviceList[0].EventData[0]
	if first["Device"] != "truck1" {
		t.Errorf("Device = %v", first["Device"])
	}
	if first["Timestamp"] != float64(1700000000) {
		t.Errorf("Timestamp = %v (must be an unquoted number)", first["Timestamp"])
	}
	if first["Timestamp_date"] != "2023/11/14" || first["Timestamp_time"] != "22:13:20" {
		t.Errorf("date/time = %v / %v", first["Timestamp_date"], first["Timestamp_time"])
	}
	if first["StatusCode_hex"] != "0xF020" || first["StatusCode_desc"] != "Location" {
		t.Errorf("status = %v / %v", first["StatusCode_hex"], first["StatusCode_desc"])
	}
	if first["GPSPoint"] != "39.12345,-121.54321" {
		t.Errorf("GPSPoint = %v", first["GPSPoint"])
	}
	if first["GPSPoint_lat"] != float64(39.12345) {
		t.Errorf("GPSPoint_lat = %v (must be an unquoted number)", first["GPSPoint_lat"])
	}
	if first["Speed"] != float64(48.2) || first["Speed_units"] != "kph" {
		t.Errorf("speed = %v %v", first["Speed"], first["Speed_units"])
	}
	if first["Heading_desc"] != "E" {
		t.Errorf("Heading_desc = %v", first["Heading_desc"])
	}
	if first["Index"] != float64(0) {
		t.Errorf("Index = %v", first["Index"])
	}
	if doc.DeviceList[0].EventData[1]["Index"] != float64(1) {
		t.Errorf("second Index = %v", doc.DeviceList[0].EventData[1]["Index"])
	}

	// GPSPoint_age and GPSPoint_accuracy are omitted when zero.
	if _, ok := first["GPSPoint_age"]; ok {
		t.Error("GPSPoint_age present for zero age")
	}
	if _, ok := first["GPSPoint_accuracy"]; ok {
		t.Error("GPSPoint_accuracy present for zero accuracy")
	}
}

func TestJSONIndexIsLastKey(t *testing.T) {
	var buf strings.Builder
	x := &Exporter{Format: FormatJSON}
	if err := x.Write(&buf, testAccount(), []telemetry.Device{testDevice(testEvent())}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	out := buf.String()
	idx := strings.Index(out, `"Index"`)
	if idx < 0 {
		t.Fatalf("no Index key:\n%s", out)
	}
	rest := out[idx:]
	closing := strings.Index(rest, "}")
	if closing < 0 || strings.Contains(rest[:closing], ",") {
		t.Errorf("Index is not the final event member:\n%s", rest)
	}
}

func TestJSONCityQuotesBecomeApostrophes(t *testing.T) {
	ev := testEvent()
	ev.City = `St. "Old Town" Pass`
	var buf strings.Builder
	x := &Exporter{Format: FormatJSON}
	if err := x.Write(&buf, testAccount(), []telemetry.Device{testDevice(ev)}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if !strings.Contains(buf.String(), `"City": "St. 'Old Town' Pass"`) {
		t.Errorf("city quotes not rewritten:\n%s", buf.String())
	}
}

func TestJSONMismatchedDeviceSkipped(t *testing.T) {
	stray := telemetry.Device{AccountID: "other", DeviceID: "stray", Events: []telemetry.Event{testEvent()}}
	var buf strings.Builder
	x := &Exporter{Format: FormatJSON}
	if err := x.Write(&buf, testAccount(), []telemetry.Device{testDevice(testEvent()), stray}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if !json.Valid([]byte(buf.String())) {
		t.Fatalf("document not valid JSON after skipping a device:\n%s", buf.String())
	}
	if strings.Contains(buf.String(), "stray") {
		t.Error("stray device leaked into the document")
	}
}

func TestBMLPointList(t *testing.T) {
	var buf strings.Builder
	x := &Exporter{Format: FormatBML}
	if err := x.Write(&buf, testAccount(), []telemetry.Device{testDevice(testEvent())}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, "<lbs>\n") || !strings.HasSuffix(out, "</lbs>\n") {
		t.Errorf("missing lbs envelope:\n%s", out)
	}
	want := `<location lon="-121.54321" lat="39.12345" label="truck1" description="123 Main St, Sacramento"/>`
	if !strings.Contains(out, want) {
		t.Errorf("missing location element:\n%s", out)
	}
}
