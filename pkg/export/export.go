// Package export turns an account's device event working sets into the
// external document formats: tabular CSV, the current and legacy XML
// schemas, JSON and the BML point list. Encoders write incrementally to an
// io.Writer and share one field policy table, so field ordering, presence
// rules and decimal formatting stay identical across formats.
package export

import (
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/SarkarTanzil/OpenGTS/pkg/telemetry"
)

// Format is the closed set of output dialects.
type Format int

const (
	FormatUnknown Format = iota
	FormatCSV
	FormatKML
	FormatXML
	FormatXMLOld
	FormatTXT
	FormatGPX
	FormatJSON
	FormatJSONX
	FormatBML
)

// ParseFormat maps a caller-supplied token to a Format. Matching is
// case-insensitive and unrecognized tokens fall back to dft, so URL and
// CLI callers can omit the parameter entirely.
func ParseFormat(token string, dft Format) Format {
	switch strings.ToLower(strings.TrimSpace(token)) {
	case "csv":
		return FormatCSV
	case "kml":
		return FormatKML
	case "xml":
		return FormatXML
	case "xmlold":
		return FormatXMLOld
	case "txt":
		return FormatTXT
	case "gpx":
		return FormatGPX
	case "json":
		return FormatJSON
	case "jsonx":
		return FormatJSONX
	case "bml":
		return FormatBML
	default:
		return dft
	}
}

// String returns the canonical token for a format.
func (f Format) String() string {
	switch f {
	case FormatCSV:
		return "csv"
	case FormatKML:
		return "kml"
	case FormatXML:
		return "xml"
	case FormatXMLOld:
		return "xmlold"
	case FormatTXT:
		return "txt"
	case FormatGPX:
		return "gpx"
	case FormatJSON:
		return "json"
	case FormatJSONX:
		return "jsonx"
	case FormatBML:
		return "bml"
	default:
		return "unknown"
	}
}

// FieldProfile selects between the compact report column set and the full
// all-tags set. It replaces the pair of boolean toggles (allTags, old XML
// schema) that used to thread through every call.
type FieldProfile int

const (
	ProfileMinimal FieldProfile = iota
	ProfileAllTags
)

func (p FieldProfile) includeAll() bool { return p == ProfileAllTags }

// OptionalFieldProvider supplies extra per-event columns appended to the
// map feed and available to encoders. At most one provider is active per
// Exporter; it is injected configuration, never process-wide state.
type OptionalFieldProvider interface {
	Count(fleet bool) int
	Title(i int, fleet bool) string
	Value(i int, fleet bool, dev telemetry.Device, ev telemetry.Event) string
}

// ErrNoAccount is returned when an encoder is invoked without a tenant
// context. Every format requires one.
var ErrNoAccount = errors.New("export: account required")

// ErrFormatNotWired is returned for formats that are recognized tokens but
// have no encoder behind them (the KML/GPX family is produced elsewhere).
var ErrFormatNotWired = errors.New("export: format has no encoder")

// Exporter drives one encoder across the devices of a single account.
type Exporter struct {
	Format  Format
	Profile FieldProfile

	// TimeZone overrides the display timezone; nil means the account's.
	TimeZone *time.Location

	// CSVSeparator defaults to ','. OmitHeader suppresses the CSV header
	// row; the map feed never has one regardless.
	CSVSeparator rune
	OmitHeader   bool

	// Schema declares which columns the event store carries. nil means
	// every known column.
	Schema FieldSet

	// Optional supplies trailing provider fields; may be nil.
	Optional OptionalFieldProvider

	// Logf receives diagnostics; defaults to log.Printf.
	Logf func(format string, v ...any)
}

func (x *Exporter) logf(format string, v ...any) {
	if x.Logf != nil {
		x.Logf(format, v...)
		return
	}
	log.Printf(format, v...)
}

func (x *Exporter) separator() rune {
	if x.CSVSeparator == 0 {
		return ','
	}
	return x.CSVSeparator
}

// displayLocation resolves the timezone used for date/time rendering.
func (x *Exporter) displayLocation(account *telemetry.Account) *time.Location {
	if x.TimeZone != nil {
		return x.TimeZone
	}
	return account.Location()
}

// Write streams a complete document for the account's devices. Devices or
// events owned by a different account are skipped silently; the encoders
// re-validate tenant ownership even though callers should pre-filter. Any
// write failure aborts the document, which is then partial by design.
func (x *Exporter) Write(w io.Writer, account *telemetry.Account, devices []telemetry.Device) error {
	if account == nil {
		return ErrNoAccount
	}
	switch x.Format {
	case FormatCSV, FormatTXT:
		return x.writeCSV(w, account, devices)
	case FormatXML, FormatXMLOld:
		return x.writeXML(w, account, devices, x.Format == FormatXMLOld)
	case FormatJSON, FormatJSONX:
		return x.writeJSON(w, account, devices)
	case FormatBML:
		return x.writeBML(w, account, devices)
	default:
		x.logf("unrecognized data format: %s", x.Format)
		return fmt.Errorf("%w: %s", ErrFormatNotWired, x.Format)
	}
}

// sameAccount filters the working set down to devices and events that
// actually belong to the requested account. The skip is silent: a
// mismatched tenant id is a caller bug, not an export error.
func sameAccount(account *telemetry.Account, devices []telemetry.Device) []telemetry.Device {
	out := make([]telemetry.Device, 0, len(devices))
	for _, dev := range devices {
		if dev.AccountID != account.AccountID {
			continue
		}
		if dev.Events != nil {
			events := make([]telemetry.Event, 0, len(dev.Events))
			for _, ev := range dev.Events {
				if ev.AccountID != account.AccountID {
					continue
				}
				events = append(events, ev)
			}
			dev.Events = events
		}
		out = append(out, dev)
	}
	return out
}
