package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/SarkarTanzil/OpenGTS/pkg/telemetry"
)

// The current schema nests Account > Device > EventData with Description
// children; the legacy schema flattens to a top-level EventData element
// holding Event records and drops the Device wrapper. Free-text leaves are
// carried in CDATA rather than attribute-escaped.
const xmlTimestampLayout = "2006/01/02 15:04:05 MST"

type xmlWriter struct {
	w   io.Writer
	err error
}

func (xw *xmlWriter) print(s string) {
	if xw.err != nil {
		return
	}
	_, xw.err = io.WriteString(xw.w, s)
}

func (xw *xmlWriter) printf(format string, v ...any) {
	if xw.err != nil {
		return
	}
	_, xw.err = fmt.Fprintf(xw.w, format, v...)
}

func attr(key, value string) string {
	return " " + key + "=\"" + xmlAttrEscape(value) + "\""
}

func indent(level int) string {
	return strings.Repeat("  ", level)
}

func (x *Exporter) writeXML(w io.Writer, account *telemetry.Account, devices []telemetry.Device, oldFormat bool) error {
	xw := &xmlWriter{w: w}
	topTag := "Account"
	if oldFormat {
		topTag = "EventData"
	}

	xw.print("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n")
	xw.print("<" + topTag +
		attr("account", account.AccountID) +
		attr("timezone", account.TimeZoneName()) + ">\n")
	xw.print(indent(1) + "<Description>" + cdata(account.Description) + "</Description>\n")

	for _, dev := range sameAccount(account, devices) {
		if len(dev.Events) == 0 {
			continue
		}
		if !oldFormat {
			xw.print(indent(1) + "<Device" + attr("id", dev.DeviceID) + ">\n")
			xw.print(indent(2) + "<Description>" + cdata(dev.Description) + "</Description>\n")
		}
		for _, ev := range dev.Events {
			x.writeXMLEvent(xw, account, dev, ev, oldFormat)
		}
		if !oldFormat {
			xw.print(indent(1) + "</Device>\n")
		}
	}

	xw.print("</" + topTag + ">\n")
	return xw.err
}

func (x *Exporter) writeXMLEvent(xw *xmlWriter, account *telemetry.Account, dev telemetry.Device, ev telemetry.Event, oldFormat bool) {
	includeAll := x.Profile.includeAll()
	schema := x.Schema
	eventTag := "EventData"
	if oldFormat {
		eventTag = "Event"
	}
	pfx1 := indent(2)
	pfx2 := indent(3)

	xw.print(pfx1 + "<" + eventTag + attr("device", ev.DeviceID) + ">\n")

	if Include(FieldTimestamp, ev, includeAll, schema) {
		loc := x.displayLocation(account)
		ts := time.Unix(ev.Timestamp, 0).In(loc)
		xw.printf("%s<Timestamp%s>%s</Timestamp>\n",
			pfx2, attr("epoch", fmt.Sprintf("%d", ev.Timestamp)), ts.Format(xmlTimestampLayout))
	}

	xw.print(pfx2 + "<StatusCode" + attr("code", telemetry.StatusCodeHex(ev.StatusCode)) + ">" +
		cdata(telemetry.StatusText(ev.StatusCode)) + "</StatusCode>\n")

	if includeAll || ev.Point.Valid() {
		age := ""
		if includeAll || ev.GpsAge > 0 {
			age = attr("age", fmt.Sprintf("%d", ev.GpsAge))
		}
		xw.printf("%s<GPSPoint%s>"+fmtLatLon+","+fmtLatLon+"</GPSPoint>\n",
			pfx2, age, ev.Point.Lat, ev.Point.Lon)
	}

	if Include(FieldSpeed, ev, includeAll, schema) {
		speed := account.SpeedUnits.FromKPH(ev.SpeedKPH)
		xw.printf("%s<Speed%s>"+fmtSpeed+"</Speed>\n",
			pfx2, attr("units", account.SpeedUnits.Label()), speed)
	}

	if Include(FieldHeading, ev, includeAll, schema) {
		xw.printf("%s<Heading%s>%s</Heading>\n",
			pfx2, attr("degrees", fmt.Sprintf(fmtHeading, ev.Heading)),
			cdata(telemetry.HeadingText(ev.Heading)))
	}

	if Include(FieldAltitude, ev, includeAll, schema) {
		alt, units := account.DistanceUnits.AltitudeFromMeters(ev.Altitude)
		xw.printf("%s<Altitude%s>"+fmtAltitude+"</Altitude>\n",
			pfx2, attr("units", units), alt)
	}

	odomKM := ev.OdometerKM + dev.OdometerOffsetKM
	if includeAll || odomKM > 0 {
		odom := account.DistanceUnits.FromKM(odomKM)
		xw.printf("%s<Odometer%s>"+fmtOdometerXML+"</Odometer>\n",
			pfx2, attr("units", account.DistanceUnits.Label()), odom)
	}

	if Include(FieldGeozoneID, ev, includeAll, schema) {
		xw.printf("%s<Geozone%s>%s</Geozone>\n",
			pfx2, attr("index", fmt.Sprintf("%d", ev.GeozoneIndex)), xmlAttrEscape(ev.GeozoneID))
	}

	if Include(FieldAddress, ev, includeAll, schema) {
		xw.print(pfx2 + "<Address>" + cdata(ev.Address) + "</Address>\n")
	}
	if Include(FieldCity, ev, includeAll, schema) {
		xw.print(pfx2 + "<City>" + cdata(ev.City) + "</City>\n")
	}
	if Include(FieldPostalCode, ev, includeAll, schema) {
		xw.print(pfx2 + "<PostalCode>" + cdata(ev.PostalCode) + "</PostalCode>\n")
	}

	if Include(FieldInputMask, ev, includeAll, schema) {
		xw.printf("%s<DigitalInputMask>0x%X</DigitalInputMask>\n", pfx2, ev.InputMask)
	}

	if Include(FieldDriverID, ev, includeAll, schema) {
		xw.print(pfx2 + "<DriverID>" + cdata(ev.DriverID) + "</DriverID>\n")
	}
	if Include(FieldDriverMessage, ev, includeAll, schema) {
		xw.print(pfx2 + "<DriverMessage>" + cdata(ev.DriverMessage) + "</DriverMessage>\n")
	}
	if Include(FieldEngineRPM, ev, includeAll, schema) {
		xw.printf("%s<EngineRPM>%d</EngineRPM>\n", pfx2, ev.EngineRPM)
	}
	if Include(FieldEngineHours, ev, includeAll, schema) {
		xw.printf("%s<EngineHours>"+fmtHoursXML+"</EngineHours>\n", pfx2, ev.EngineHours)
	}
	if Include(FieldBatteryVolts, ev, includeAll, schema) {
		xw.printf("%s<VehicleBatteryVolts>"+fmtVolts+"</VehicleBatteryVolts>\n", pfx2, ev.BatteryVolts)
	}
	if Include(FieldCoolantLevel, ev, includeAll, schema) {
		xw.printf("%s<EngineCoolantLevel%s>"+fmtCoolantPct+"</EngineCoolantLevel>\n",
			pfx2, attr("units", "percent"), ev.CoolantLevel*100.0)
	}
	if Include(FieldCoolantTemp, ev, includeAll, schema) {
		body := ""
		if ev.CoolantTempC > 0 {
			body = fmt.Sprintf(fmtCoolantTemp, account.TemperatureUnits.FromC(ev.CoolantTempC))
		}
		xw.printf("%s<EngineCoolantTemperature%s>%s</EngineCoolantTemperature>\n",
			pfx2, attr("units", account.TemperatureUnits.Label()), body)
	}
	if Include(FieldFuelTotal, ev, includeAll, schema) {
		body := ""
		if ev.FuelTotalL > 0 {
			body = fmt.Sprintf(fmtFuel, account.VolumeUnits.FromLiters(ev.FuelTotalL))
		}
		xw.printf("%s<EngineFuelUsed%s>%s</EngineFuelUsed>\n",
			pfx2, attr("units", account.VolumeUnits.Label()), body)
	}

	xw.print(pfx1 + "</" + eventTag + ">\n")
}
