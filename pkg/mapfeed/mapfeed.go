// Package mapfeed produces the compact positional record stream consumed by
// the browser map page, plus the matching JavaScript parser. Records are
// pipe-separated single lines; every field passes through a conservative
// text encoder so the stream can be spliced into a script block verbatim.
package mapfeed

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/SarkarTanzil/OpenGTS/pkg/export"
	"github.com/SarkarTanzil/OpenGTS/pkg/telemetry"
)

// Separator between record fields. The encoder turns any occurrence inside
// a field value into a space, so positions stay stable.
const Separator = '|'

// Fixed positional layout. Provider fields, when configured, follow
// FieldAddress in order.
const (
	fieldDeviceID = iota
	fieldDeviceDesc
	fieldEpoch
	fieldDate
	fieldTime
	fieldTimeZone
	fieldStatusDesc
	fieldIconIndex
	fieldLatitude
	fieldLongitude
	fieldAccuracy
	fieldSatCount
	fieldSpeedKPH
	fieldHeading
	fieldAltitude
	fieldOdomKM
	fieldAddress
	fieldCount
)

// IconResolver maps an event to the index of the pushpin shown for it.
// A nil resolver uses index 0 for everything.
type IconResolver func(ev telemetry.Event) int

// Formatter encodes events into feed records.
type Formatter struct {
	// TimeZone overrides the account timezone for date/time fields.
	TimeZone *time.Location

	// Icon selects the pushpin index per event; may be nil.
	Icon IconResolver

	// Optional appends provider-specific trailing fields; may be nil.
	Optional export.OptionalFieldProvider

	// Fleet marks a multi-device feed; it is passed through to the
	// optional provider, which may title fields differently per mode.
	Fleet bool
}

func (f *Formatter) location(account *telemetry.Account) *time.Location {
	if f.TimeZone != nil {
		return f.TimeZone
	}
	return account.Location()
}

// WriteEvents emits one record line per event across the given devices.
func (f *Formatter) WriteEvents(w io.Writer, account *telemetry.Account, devices []telemetry.Device) error {
	for _, dev := range devices {
		if dev.AccountID != account.AccountID {
			continue
		}
		for _, ev := range dev.Events {
			if ev.AccountID != account.AccountID {
				continue
			}
			if _, err := io.WriteString(w, f.EncodeRecord(account, dev, ev)+"\n"); err != nil {
				return err
			}
		}
	}
	return nil
}

// EncodeRecord renders a single event as one feed line.
func (f *Formatter) EncodeRecord(account *telemetry.Account, dev telemetry.Device, ev telemetry.Event) string {
	loc := f.location(account)
	ts := time.Unix(ev.Timestamp, 0).In(loc)

	icon := 0
	if f.Icon != nil {
		icon = f.Icon(ev)
	}

	fields := make([]string, 0, fieldCount+4)
	fields = append(fields,
		ev.DeviceID,
		dev.Description,
		strconv.FormatInt(ev.Timestamp, 10),
		account.FormatDate(ev.Timestamp, loc),
		account.FormatTime(ev.Timestamp, loc),
		ts.Format("MST"),
		telemetry.StatusText(ev.StatusCode),
		strconv.Itoa(icon),
		fmt.Sprintf("%.5f", ev.Point.Lat),
		fmt.Sprintf("%.5f", ev.Point.Lon),
		fmt.Sprintf("%.0f", ev.Accuracy),
		strconv.Itoa(ev.SatelliteCount),
		fmt.Sprintf("%.1f", ev.SpeedKPH),
		fmt.Sprintf("%.1f", ev.Heading),
		fmt.Sprintf("%.0f", ev.Altitude),
		fmt.Sprintf("%.1f", ev.OdometerKM+dev.OdometerOffsetKM),
		ev.Address,
	)
	if f.Optional != nil {
		n := f.Optional.Count(f.Fleet)
		for i := 0; i < n; i++ {
			fields = append(fields, f.Optional.Value(i, f.Fleet, dev, ev))
		}
	}

	for i, v := range fields {
		fields[i] = EncodeText(v)
	}
	return strings.Join(fields, string(Separator))
}

// EncodeText sanitizes one field value for the feed. Control characters
// (tabs included) and quotes are dropped, the separator becomes a space,
// characters that could close a script or tag are rewritten to harmless
// lookalikes, and anything above ASCII becomes a \uXXXX escape the
// JavaScript parser understands natively.
func EncodeText(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r < 0x20 || r == 0x7F, r == '"', r == '\'':
			// dropped
		case r == Separator, r == ' ':
			b.WriteByte(' ')
		case r == '\\':
			b.WriteByte('/')
		case r == '<':
			b.WriteByte('(')
		case r == '>':
			b.WriteByte(')')
		case r >= '0' && r <= '9', r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z':
			b.WriteRune(r)
		case r == '%':
			b.WriteByte('%')
		case strings.ContainsRune("!#$()*+,-.:;=[]^_{}?~@/", r):
			b.WriteRune(r)
		case r > 0x7E:
			b.WriteString(fmt.Sprintf("\\u%04X", r))
		default:
			b.WriteByte(' ')
		}
	}
	return b.String()
}
