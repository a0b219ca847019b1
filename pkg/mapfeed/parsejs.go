package mapfeed

import (
	"fmt"
	"io"

	"github.com/SarkarTanzil/OpenGTS/pkg/export"
)

// WriteParserJS emits the JavaScript record parser served alongside the
// feed. The field indices are generated from the same constants the Go
// encoder uses, so the two sides cannot drift apart.
func WriteParserJS(w io.Writer, optional export.OptionalFieldProvider, fleet bool) error {
	var err error
	p := func(format string, v ...any) {
		if err != nil {
			return
		}
		_, err = fmt.Fprintf(w, format+"\n", v...)
	}

	p("// generated feed record parser")
	p("var COMPASS = ['N','NE','E','SE','S','SW','W','NW'];")
	p("function mapFeedParseRecord(line) {")
	p("  var f = line.split('%c');", Separator)
	p("  var at = function(i) { return (i < f.length)? f[i] : ''; };")
	p("  var ev = {};")
	p("  ev.device      = at(%d);", fieldDeviceID)
	p("  ev.deviceDesc  = at(%d);", fieldDeviceDesc)
	p("  ev.timestamp   = parseInt(at(%d),10) || 0;", fieldEpoch)
	p("  ev.dateText    = at(%d);", fieldDate)
	p("  ev.timeText    = at(%d);", fieldTime)
	p("  ev.timeZone    = at(%d);", fieldTimeZone)
	p("  ev.statusDesc  = at(%d);", fieldStatusDesc)
	p("  ev.iconIndex   = parseInt(at(%d),10) || 0;", fieldIconIndex)
	p("  ev.latitude    = parseFloat(at(%d)) || 0.0;", fieldLatitude)
	p("  ev.longitude   = parseFloat(at(%d)) || 0.0;", fieldLongitude)
	p("  ev.accuracy    = parseFloat(at(%d)) || 0.0;", fieldAccuracy)
	p("  if (ev.accuracy < 0.0) { ev.accuracy = 0.0; }")
	p("  ev.satCount    = parseInt(at(%d),10) || 0;", fieldSatCount)
	p("  ev.cellTower   = (ev.satCount < 0);")
	p("  if (ev.cellTower) { ev.satCount = 0; }")
	p("  ev.speedKPH    = parseFloat(at(%d)) || 0.0;", fieldSpeedKPH)
	p("  ev.heading     = parseFloat(at(%d)) || 0.0;", fieldHeading)
	p("  ev.compass     = COMPASS[Math.round(ev.heading / 45.0) %% 8];")
	p("  ev.altitude    = parseFloat(at(%d)) || 0.0;", fieldAltitude)
	p("  ev.odomKM      = parseFloat(at(%d)) || 0.0;", fieldOdomKM)
	p("  ev.address     = at(%d).replace(/^\"|\"$/g, '');", fieldAddress)
	p("  ev.validGPS    = (ev.latitude != 0.0) || (ev.longitude != 0.0);")
	if optional != nil {
		n := optional.Count(fleet)
		p("  ev.optional    = {};")
		for i := 0; i < n; i++ {
			p("  ev.optional[%q] = at(%d);", optional.Title(i, fleet), fieldCount+i)
		}
	}
	p("  return ev;")
	p("}")
	return err
}
