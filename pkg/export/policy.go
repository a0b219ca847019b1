package export

import (
	"fmt"

	"github.com/SarkarTanzil/OpenGTS/pkg/telemetry"
)

// FieldID identifies one exportable event field. Encoders never branch on
// field names; the policy table below is the single place that knows which
// fields exist, when they are present, and how their numbers are printed.
type FieldID int

const (
	FieldDeviceID FieldID = iota
	FieldDeviceDesc
	FieldTimestamp
	FieldStatusCode
	FieldLatitude
	FieldLongitude
	FieldSpeed
	FieldHeading
	FieldAltitude
	FieldAddress
	FieldCity
	FieldPostalCode
	FieldGpsAge
	FieldSatelliteCount
	FieldInputMask
	FieldOdometer
	FieldGeozoneID
	FieldDriverID
	FieldDriverMessage
	FieldFuelTotal
	FieldEngineRPM
	FieldEngineHours
	FieldBatteryVolts
	FieldCoolantLevel
	FieldCoolantTemp
)

// Fixed decimal policy, identical across formats unless a format is noted.
// Keeping these as untyped format strings makes the table easy to audit
// against the documented contract.
const (
	fmtLatLon       = "%.5f"
	fmtSpeed        = "%.1f"
	fmtHeading      = "%.1f"
	fmtAltitude     = "%.0f"
	fmtOdometerXML  = "%.1f"
	fmtOdometerJSON = "%.3f"
	fmtHoursXML     = "%.1f"
	fmtHoursJSON    = "%.2f"
	fmtVolts        = "%.1f"
	fmtCoolantPct   = "%.1f"
	fmtCoolantTemp  = "%.1f"
	fmtFuel         = "%.1f"
)

// FieldSet records which columns the underlying event schema declares.
// Installations without engine-bus hardware drop those columns entirely,
// and the encoders must not invent empty values for them.
type FieldSet map[FieldID]bool

// DefaultSchema declares every known column present.
func DefaultSchema() FieldSet {
	s := make(FieldSet)
	for f := FieldDeviceID; f <= FieldCoolantTemp; f++ {
		s[f] = true
	}
	return s
}

// Has reports whether the schema declares the column. A nil FieldSet
// behaves like DefaultSchema so callers rarely need to build one.
func (s FieldSet) Has(f FieldID) bool {
	if s == nil {
		return true
	}
	return s[f]
}

// Include decides whether a field is emitted for the given event. With
// includeAll every field passes; otherwise the field's presence predicate
// applies. Engine telemetry and driver fields are gated by includeAll and
// schema presence only, never by value.
func Include(f FieldID, ev telemetry.Event, includeAll bool, schema FieldSet) bool {
	switch f {
	case FieldDriverID, FieldDriverMessage,
		FieldFuelTotal, FieldEngineRPM, FieldEngineHours,
		FieldBatteryVolts, FieldCoolantLevel, FieldCoolantTemp:
		return includeAll && schema.Has(f)
	}
	if includeAll {
		return true
	}
	switch f {
	case FieldTimestamp:
		return ev.Timestamp > 0
	case FieldLatitude, FieldLongitude:
		return ev.Point.Valid()
	case FieldSpeed:
		return ev.SpeedKPH >= 0
	case FieldHeading:
		return ev.SpeedKPH > 0
	case FieldAltitude:
		return ev.Altitude > 0
	case FieldOdometer:
		return ev.OdometerKM > 0
	case FieldGeozoneID:
		return ev.GeozoneID != "" || ev.GeozoneIndex > 0
	case FieldAddress:
		return ev.Address != ""
	case FieldCity:
		return ev.City != ""
	case FieldPostalCode:
		return ev.PostalCode != ""
	case FieldInputMask:
		return ev.InputMask != 0
	default:
		// Identity and status fields are always present.
		return true
	}
}

// csvLabel returns the CSV header cell for a field. The timestamp label is
// handled by the encoder because it expands into two columns.
func csvLabel(f FieldID) string {
	switch f {
	case FieldDeviceID:
		return "DeviceID"
	case FieldDeviceDesc:
		return "DeviceDesc"
	case FieldStatusCode:
		return "Code"
	case FieldLatitude:
		return "Latitude"
	case FieldLongitude:
		return "Longitude"
	case FieldSpeed:
		return "Speed"
	case FieldHeading:
		return "Heading"
	case FieldAltitude:
		return "Altitude"
	case FieldAddress:
		return "Address"
	case FieldGpsAge:
		return "gpsAge"
	case FieldSatelliteCount:
		return "satelliteCount"
	case FieldInputMask:
		return "inputMask"
	case FieldOdometer:
		return "odometerKM"
	case FieldGeozoneID:
		return "geozoneID"
	case FieldDriverID:
		return "driverID"
	case FieldDriverMessage:
		return "driverMessage"
	case FieldFuelTotal:
		return "fuelTotal"
	case FieldEngineRPM:
		return "engineRpm"
	case FieldEngineHours:
		return "engineHours"
	case FieldBatteryVolts:
		return "vBatteryVolts"
	case FieldCoolantLevel:
		return "coolantLevel"
	case FieldCoolantTemp:
		return "coolantTemp"
	default:
		return fmt.Sprintf("field%d", int(f))
	}
}

// csvFieldsAll is the all-tags column order; csvFieldsMinimal is the short
// set used when the caller asks for the compact report.
var csvFieldsAll = []FieldID{
	FieldDeviceID,
	FieldTimestamp,
	FieldStatusCode,
	FieldLatitude,
	FieldLongitude,
	FieldSpeed,
	FieldHeading,
	FieldAltitude,
	FieldAddress,
	FieldGpsAge,
	FieldSatelliteCount,
	FieldInputMask,
	FieldOdometer,
	FieldGeozoneID,
	FieldDriverID,
	FieldDriverMessage,
	FieldFuelTotal,
	FieldEngineRPM,
	FieldEngineHours,
	FieldBatteryVolts,
	FieldCoolantLevel,
	FieldCoolantTemp,
}

var csvFieldsMinimal = []FieldID{
	FieldDeviceID,
	FieldTimestamp,
	FieldStatusCode,
	FieldLatitude,
	FieldLongitude,
	FieldSpeed,
	FieldHeading,
	FieldAltitude,
	FieldAddress,
}
