package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/SarkarTanzil/OpenGTS/pkg/telemetry"
)

const jsonDateLayout = "2006/01/02"
const jsonTimeLayout = "15:04:05"

// jsonDoc emits an indented JSON document one member at a time. Commas are
// placed by tracking whether the current object or array already has a
// member, so the encoder never needs to buffer a sibling list.
type jsonDoc struct {
	w      io.Writer
	err    error
	depth  int
	hasOne []bool
}

func newJSONDoc(w io.Writer) *jsonDoc {
	return &jsonDoc{w: w, hasOne: make([]bool, 1, 8)}
}

func (j *jsonDoc) print(s string) {
	if j.err != nil {
		return
	}
	_, j.err = io.WriteString(j.w, s)
}

func (j *jsonDoc) comma() {
	if j.hasOne[len(j.hasOne)-1] {
		j.print(",")
	}
	j.hasOne[len(j.hasOne)-1] = true
	j.print("\n" + strings.Repeat("   ", j.depth))
}

func (j *jsonDoc) open(name, bracket string) {
	j.comma()
	if name != "" {
		j.print("\"" + name + "\": ")
	}
	j.print(bracket)
	j.depth++
	j.hasOne = append(j.hasOne, false)
}

func (j *jsonDoc) close(bracket string) {
	j.depth--
	j.hasOne = j.hasOne[:len(j.hasOne)-1]
	j.print("\n" + strings.Repeat("   ", j.depth) + bracket)
}

func (j *jsonDoc) str(name, value string) {
	j.comma()
	j.print("\"" + name + "\": \"" + jsonEscape(value) + "\"")
}

func (j *jsonDoc) raw(name, value string) {
	j.comma()
	j.print("\"" + name + "\": " + value)
}

// writeJSON emits the map-service document. Numeric members are unquoted;
// the per-event member order is fixed and ends with the zero-based Index.
func (x *Exporter) writeJSON(w io.Writer, account *telemetry.Account, devices []telemetry.Device) error {
	j := newJSONDoc(w)
	j.print("{")
	j.depth++
	j.hasOne = append(j.hasOne, false)

	j.str("Account", account.AccountID)
	j.str("Account_desc", account.Description)
	j.str("TimeZone", account.TimeZoneName())

	j.open("DeviceList", "[")
	for _, dev := range sameAccount(account, devices) {
		j.open("", "{")
		j.str("Device", dev.DeviceID)
		j.str("Device_desc", dev.Description)
		j.open("EventData", "[")
		for i, ev := range dev.Events {
			x.writeJSONEvent(j, account, dev, ev, i)
		}
		j.close("]")
		j.close("}")
	}
	j.close("]")

	j.depth--
	j.hasOne = j.hasOne[:len(j.hasOne)-1]
	j.print("\n}\n")
	return j.err
}

func (x *Exporter) writeJSONEvent(j *jsonDoc, account *telemetry.Account, dev telemetry.Device, ev telemetry.Event, index int) {
	includeAll := x.Profile.includeAll()
	schema := x.Schema
	loc := x.displayLocation(account)

	j.open("", "{")
	j.str("Device", ev.DeviceID)

	if Include(FieldTimestamp, ev, includeAll, schema) {
		ts := time.Unix(ev.Timestamp, 0).In(loc)
		j.raw("Timestamp", fmt.Sprintf("%d", ev.Timestamp))
		j.str("Timestamp_date", ts.Format(jsonDateLayout))
		j.str("Timestamp_time", ts.Format(jsonTimeLayout))
	}

	j.raw("StatusCode", fmt.Sprintf("%d", ev.StatusCode))
	j.str("StatusCode_hex", telemetry.StatusCodeHex(ev.StatusCode))
	j.str("StatusCode_desc", telemetry.StatusText(ev.StatusCode))

	if includeAll || ev.Point.Valid() {
		j.str("GPSPoint", fmt.Sprintf(fmtLatLon+","+fmtLatLon, ev.Point.Lat, ev.Point.Lon))
		j.raw("GPSPoint_lat", fmt.Sprintf(fmtLatLon, ev.Point.Lat))
		j.raw("GPSPoint_lon", fmt.Sprintf(fmtLatLon, ev.Point.Lon))
		if ev.GpsAge > 0 {
			j.raw("GPSPoint_age", fmt.Sprintf("%d", ev.GpsAge))
		}
		if ev.Accuracy > 0 {
			j.raw("GPSPoint_accuracy", fmt.Sprintf("%.1f", ev.Accuracy))
		}
	}

	if Include(FieldSpeed, ev, includeAll, schema) {
		j.raw("Speed", fmt.Sprintf(fmtSpeed, account.SpeedUnits.FromKPH(ev.SpeedKPH)))
		j.str("Speed_units", account.SpeedUnits.Label())
	}

	if Include(FieldHeading, ev, includeAll, schema) {
		j.raw("Heading", fmt.Sprintf(fmtHeading, ev.Heading))
		j.str("Heading_desc", telemetry.HeadingText(ev.Heading))
	}

	if Include(FieldAltitude, ev, includeAll, schema) {
		alt, units := account.DistanceUnits.AltitudeFromMeters(ev.Altitude)
		j.raw("Altitude", fmt.Sprintf("%d", int64(alt)))
		j.str("Altitude_units", units)
	}

	odomKM := ev.OdometerKM + dev.OdometerOffsetKM
	if includeAll || odomKM > 0 {
		j.raw("Odometer", fmt.Sprintf(fmtOdometerJSON, account.DistanceUnits.FromKM(odomKM)))
		j.str("Odometer_units", account.DistanceUnits.Label())
	}

	if Include(FieldGeozoneID, ev, includeAll, schema) {
		j.str("Geozone", ev.GeozoneID)
		j.raw("Geozone_index", fmt.Sprintf("%d", ev.GeozoneIndex))
	}

	if Include(FieldAddress, ev, includeAll, schema) {
		j.str("Address", ev.Address)
	}
	if Include(FieldCity, ev, includeAll, schema) {
		// Embedded double quotes become apostrophes so downstream map
		// widgets can splice the value into attribute strings.
		j.str("City", strings.ReplaceAll(ev.City, `"`, "'"))
	}
	if Include(FieldPostalCode, ev, includeAll, schema) {
		j.str("PostalCode", ev.PostalCode)
	}

	if Include(FieldInputMask, ev, includeAll, schema) {
		j.raw("DigitalInputMask", fmt.Sprintf("%d", ev.InputMask))
		j.str("DigitalInputMask_hex", fmt.Sprintf("0x%X", ev.InputMask))
	}

	if Include(FieldDriverID, ev, includeAll, schema) {
		j.str("DriverID", ev.DriverID)
	}
	if Include(FieldDriverMessage, ev, includeAll, schema) {
		j.str("DriverMessage", ev.DriverMessage)
	}
	if Include(FieldEngineRPM, ev, includeAll, schema) {
		j.raw("EngineRPM", fmt.Sprintf("%d", ev.EngineRPM))
	}
	if Include(FieldEngineHours, ev, includeAll, schema) {
		j.raw("EngineHours", fmt.Sprintf(fmtHoursJSON, ev.EngineHours))
	}
	if Include(FieldBatteryVolts, ev, includeAll, schema) {
		j.raw("VehicleBatteryVolts", fmt.Sprintf(fmtVolts, ev.BatteryVolts))
	}
	if Include(FieldCoolantLevel, ev, includeAll, schema) {
		j.raw("EngineCoolantLevel", fmt.Sprintf(fmtCoolantPct, ev.CoolantLevel*100.0))
	}
	if Include(FieldCoolantTemp, ev, includeAll, schema) && ev.CoolantTempC > 0 {
		j.raw("EngineCoolantTemperature",
			fmt.Sprintf(fmtCoolantTemp, account.TemperatureUnits.FromC(ev.CoolantTempC)))
	}
	if Include(FieldFuelTotal, ev, includeAll, schema) && ev.FuelTotalL > 0 {
		j.raw("EngineFuelUsed", fmt.Sprintf(fmtFuel, account.VolumeUnits.FromLiters(ev.FuelTotalL)))
	}

	j.raw("Index", fmt.Sprintf("%d", index))
	j.close("}")
}
