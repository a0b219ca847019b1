package mapfeed

import (
	"strconv"
	"strings"

	"github.com/SarkarTanzil/OpenGTS/pkg/telemetry"
)

// Record is one decoded feed line. It mirrors what the generated
// JavaScript parser produces, so Go consumers and the browser agree on
// every derived value.
type Record struct {
	DeviceID   string
	DeviceDesc string
	Timestamp  int64
	DateText   string
	TimeText   string
	TimeZone   string
	StatusDesc string
	IconIndex  int
	Point      telemetry.GeoPoint
	Accuracy   float64
	SatCount   int
	CellTower  bool
	SpeedKPH   float64
	Heading    float64
	Compass    string
	Altitude   float64
	OdomKM     float64
	Address    string
	ValidGPS   bool

	// Extra holds provider fields trailing the fixed layout.
	Extra []string
}

// DecodeRecord parses one feed line. Short records are tolerated: missing
// trailing fields decode to zero values, matching the browser parser which
// indexes past the end of the split array without failing.
func DecodeRecord(line string) Record {
	fields := strings.Split(line, string(Separator))
	at := func(i int) string {
		if i < len(fields) {
			return fields[i]
		}
		return ""
	}
	atInt := func(i int) int {
		n, _ := strconv.Atoi(strings.TrimSpace(at(i)))
		return n
	}
	atFloat := func(i int) float64 {
		f, _ := strconv.ParseFloat(strings.TrimSpace(at(i)), 64)
		return f
	}

	var r Record
	r.DeviceID = at(fieldDeviceID)
	r.DeviceDesc = at(fieldDeviceDesc)
	r.Timestamp, _ = strconv.ParseInt(strings.TrimSpace(at(fieldEpoch)), 10, 64)
	r.DateText = at(fieldDate)
	r.TimeText = at(fieldTime)
	r.TimeZone = at(fieldTimeZone)
	r.StatusDesc = at(fieldStatusDesc)
	r.IconIndex = atInt(fieldIconIndex)
	r.Point.Lat = atFloat(fieldLatitude)
	r.Point.Lon = atFloat(fieldLongitude)

	r.Accuracy = atFloat(fieldAccuracy)
	if r.Accuracy < 0 {
		r.Accuracy = 0
	}

	// A negative satellite count marks a cell-tower derived fix.
	r.SatCount = atInt(fieldSatCount)
	if r.SatCount < 0 {
		r.CellTower = true
		r.SatCount = 0
	}

	r.SpeedKPH = atFloat(fieldSpeedKPH)
	r.Heading = atFloat(fieldHeading)
	r.Compass = telemetry.HeadingText(r.Heading)
	r.Altitude = atFloat(fieldAltitude)
	r.OdomKM = atFloat(fieldOdomKM)
	r.Address = strings.Trim(at(fieldAddress), `"`)
	r.ValidGPS = r.Point.Valid()

	if len(fields) > fieldCount {
		r.Extra = fields[fieldCount:]
	}
	return r
}
