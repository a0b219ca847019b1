// Package telemetry holds the data model shared by the export encoders,
// the map feed and the enrichment pipeline: events, devices, accounts and
// the account-level display preferences (timezone, date layouts, units).
package telemetry

import (
	"strings"
	"time"
)

// GeoPoint is a latitude/longitude pair in decimal degrees.
// A point where both fields are zero is treated as invalid; devices that
// lose GPS fix report 0/0 and such events must never be drawn at the
// origin.
type GeoPoint struct {
	Lat float64
	Lon float64
}

// Valid reports whether the point carries a usable fix.
func (p GeoPoint) Valid() bool {
	return p.Lat != 0 || p.Lon != 0
}

// Event is one telemetry sample recorded by a device. Events are
// read-only for the export side; only the enrichment pipeline may write
// back, and only the GeozoneID and Address fields, through
// Store.UpdateEnrichment.
type Event struct {
	AccountID  string
	DeviceID   string
	Timestamp  int64 // epoch seconds, UTC
	StatusCode int

	Point          GeoPoint
	GpsAge         int64   // seconds since the fix was acquired
	Accuracy       float64 // horizontal accuracy, meters
	SatelliteCount int     // negative means cell-tower derived location

	SpeedKPH   float64 // negative means unknown
	Heading    float64 // degrees, meaningful only while moving
	Altitude   float64 // meters
	OdometerKM float64 // device-relative, add Device.OdometerOffsetKM
	InputMask  int64

	GeozoneID    string
	GeozoneIndex int64

	Address    string
	City       string
	PostalCode string

	DriverID      string
	DriverMessage string

	EngineRPM    int64
	EngineHours  float64
	BatteryVolts float64
	CoolantLevel float64 // fraction 0..1
	CoolantTempC float64
	FuelTotalL   float64
}

// Device is a tracked asset owned by exactly one account. Events is the
// working set bound for the duration of a single export call; it is not a
// durable attribute of the device.
type Device struct {
	AccountID        string
	DeviceID         string
	Description      string
	OdometerOffsetKM float64

	Events []Event
}

// GeocoderMode mirrors the account-level reverse-geocoding policy.
type GeocoderMode int

const (
	GeocoderNone    GeocoderMode = iota // geocoding disabled for the account
	GeocoderGeozone                     // only geozone descriptions, no provider
	GeocoderPartial                     // provider used when the zone match fails
	GeocoderFull                        // provider used for every event
)

// OKPartial reports whether the mode permits calling an external provider.
func (m GeocoderMode) OKPartial() bool { return m >= GeocoderPartial }

// Account is the owning tenant context: timezone, display layouts and
// unit preferences are account-wide, never per-device.
type Account struct {
	AccountID   string
	Description string

	TimeZone   string // IANA name; empty or unknown falls back to UTC
	DateFormat string // Go reference layout, e.g. "2006/01/02"
	TimeFormat string // Go reference layout, e.g. "15:04:05"

	SpeedUnits       SpeedUnits
	DistanceUnits    DistanceUnits
	VolumeUnits      VolumeUnits
	TemperatureUnits TemperatureUnits

	GeocoderMode GeocoderMode
}

const (
	defaultDateFormat = "2006/01/02"
	defaultTimeFormat = "15:04:05"
)

// Location resolves the account timezone, falling back to UTC so a
// misconfigured account still produces deterministic output.
func (a *Account) Location() *time.Location {
	if a == nil || strings.TrimSpace(a.TimeZone) == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(a.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// TimeZoneName returns the configured timezone name or "UTC".
func (a *Account) TimeZoneName() string {
	if a == nil || strings.TrimSpace(a.TimeZone) == "" {
		return "UTC"
	}
	return a.TimeZone
}

// DateLayout returns the account date layout or the fleet default.
func (a *Account) DateLayout() string {
	if a == nil || a.DateFormat == "" {
		return defaultDateFormat
	}
	return a.DateFormat
}

// TimeLayout returns the account time layout or the fleet default.
func (a *Account) TimeLayout() string {
	if a == nil || a.TimeFormat == "" {
		return defaultTimeFormat
	}
	return a.TimeFormat
}

// FormatDate renders an epoch timestamp as a date in the given location
// using the account layout. A nil location uses the account timezone.
func (a *Account) FormatDate(epoch int64, loc *time.Location) string {
	if loc == nil {
		loc = a.Location()
	}
	return time.Unix(epoch, 0).In(loc).Format(a.DateLayout())
}

// FormatTime renders an epoch timestamp as a time-of-day string.
func (a *Account) FormatTime(epoch int64, loc *time.Location) string {
	if loc == nil {
		loc = a.Location()
	}
	return time.Unix(epoch, 0).In(loc).Format(a.TimeLayout())
}
