package export

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/SarkarTanzil/OpenGTS/pkg/telemetry"
)

// writeCSV emits the tabular report: one header row, then one row per
// event. Columns come from the profile's field list filtered by schema
// presence; values stay in canonical storage units, which keeps the report
// comparable across accounts with different display preferences.
func (x *Exporter) writeCSV(w io.Writer, account *telemetry.Account, devices []telemetry.Device) error {
	sep := x.separator()
	fields := csvFieldsMinimal
	if x.Profile == ProfileAllTags {
		fields = csvFieldsAll
	}
	present := make([]FieldID, 0, len(fields))
	for _, f := range fields {
		if x.Schema.Has(f) {
			present = append(present, f)
		}
	}

	if !x.OmitHeader {
		if _, err := io.WriteString(w, x.csvHeader(present, sep)+"\n"); err != nil {
			return err
		}
	}

	loc := x.displayLocation(account)
	for _, dev := range sameAccount(account, devices) {
		for _, ev := range dev.Events {
			row := x.csvRow(account, dev, ev, present, sep, loc)
			if _, err := io.WriteString(w, row+"\n"); err != nil {
				return err
			}
		}
	}
	return nil
}

func (x *Exporter) csvHeader(fields []FieldID, sep rune) string {
	var b strings.Builder
	for _, f := range fields {
		if b.Len() > 0 {
			b.WriteRune(sep)
		}
		if f == FieldTimestamp {
			// The timestamp expands into two columns sharing the separator.
			b.WriteString("Date")
			b.WriteRune(sep)
			b.WriteString("Time")
			continue
		}
		b.WriteString(csvLabel(f))
	}
	return b.String()
}

func (x *Exporter) csvRow(account *telemetry.Account, dev telemetry.Device, ev telemetry.Event, fields []FieldID, sep rune, loc *time.Location) string {
	var b strings.Builder
	emit := func(v string) {
		if b.Len() > 0 {
			b.WriteRune(sep)
		}
		b.WriteString(v)
	}
	for _, f := range fields {
		switch f {
		case FieldDeviceID:
			emit(csvSanitize(ev.DeviceID, sep))
		case FieldDeviceDesc:
			emit(csvSanitize(dev.Description, sep))
		case FieldTimestamp:
			emit(account.FormatDate(ev.Timestamp, loc))
			emit(account.FormatTime(ev.Timestamp, loc))
		case FieldStatusCode:
			emit(telemetry.StatusText(ev.StatusCode))
		case FieldLatitude:
			emit(fmt.Sprintf(fmtLatLon, ev.Point.Lat))
		case FieldLongitude:
			emit(fmt.Sprintf(fmtLatLon, ev.Point.Lon))
		case FieldSpeed:
			emit(fmt.Sprintf(fmtSpeed, ev.SpeedKPH))
		case FieldHeading:
			emit(fmt.Sprintf(fmtHeading, ev.Heading))
		case FieldAltitude:
			emit(fmt.Sprintf(fmtAltitude, ev.Altitude))
		case FieldAddress:
			// The address is always quoted regardless of content.
			emit(quoteString(strings.ReplaceAll(ev.Address, string(sep), " ")))
		case FieldGpsAge:
			emit(strconv.FormatInt(ev.GpsAge, 10))
		case FieldSatelliteCount:
			emit(strconv.Itoa(ev.SatelliteCount))
		case FieldInputMask:
			emit(strconv.FormatInt(ev.InputMask, 10))
		case FieldOdometer:
			emit(fmt.Sprintf(fmtOdometerXML, ev.OdometerKM+dev.OdometerOffsetKM))
		case FieldGeozoneID:
			emit(csvSanitize(ev.GeozoneID, sep))
		case FieldDriverID:
			emit(csvSanitize(ev.DriverID, sep))
		case FieldDriverMessage:
			emit(csvSanitize(ev.DriverMessage, sep))
		case FieldFuelTotal:
			emit(fmt.Sprintf(fmtFuel, ev.FuelTotalL))
		case FieldEngineRPM:
			emit(strconv.FormatInt(ev.EngineRPM, 10))
		case FieldEngineHours:
			emit(fmt.Sprintf(fmtHoursXML, ev.EngineHours))
		case FieldBatteryVolts:
			emit(fmt.Sprintf(fmtVolts, ev.BatteryVolts))
		case FieldCoolantLevel:
			emit(fmt.Sprintf("%.2f", ev.CoolantLevel))
		case FieldCoolantTemp:
			emit(fmt.Sprintf(fmtCoolantTemp, ev.CoolantTempC))
		}
	}
	return b.String()
}

// csvSanitize replaces the active separator with a space and quotes the
// value only when whitespace or quote characters remain.
func csvSanitize(v string, sep rune) string {
	v = strings.ReplaceAll(v, string(sep), " ")
	if strings.ContainsAny(v, " \t\"") {
		return quoteString(v)
	}
	return v
}
