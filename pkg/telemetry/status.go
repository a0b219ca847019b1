package telemetry

import (
	"fmt"
	"math"
)

// statusText maps the well-known tracker status codes to their short
// descriptions. Codes outside the table render as hex so unknown device
// firmware never produces an empty status column.
var statusText = map[int]string{
	0xF010: "InMotion",
	0xF011: "Start",
	0xF012: "InMotion",
	0xF013: "Stop",
	0xF014: "Dormant",
	0xF020: "Location",
	0xF030: "Waypoint",
	0xF111: "GeozoneArrive",
	0xF116: "GeozoneDepart",
	0xF401: "IgnitionOn",
	0xF403: "IgnitionOff",
	0xF441: "EngineStart",
	0xF442: "EngineStop",
	0xF711: "Speeding",
	0xF841: "LowBattery",
}

// StatusText returns the human-readable description of a status code,
// falling back to the hex form for unknown codes.
func StatusText(code int) string {
	if s, ok := statusText[code]; ok {
		return s
	}
	return StatusCodeHex(code)
}

// StatusCodeHex renders a status code as the canonical 0xXXXX form.
func StatusCodeHex(code int) string {
	return fmt.Sprintf("0x%04X", code)
}

// compassPoints are the eight compass sectors used for heading display.
var compassPoints = [8]string{"N", "NE", "E", "SE", "S", "SW", "W", "NW"}

// HeadingText converts a heading in degrees to the nearest 45° compass
// point. The remote map client applies the same rounding when it decodes
// the feed, so both sides agree on the sector boundaries.
func HeadingText(degrees float64) string {
	idx := int(math.Round(degrees/45.0)) % 8
	if idx < 0 {
		idx += 8
	}
	return compassPoints[idx]
}
