package export

import (
	"fmt"
	"io"

	"github.com/SarkarTanzil/OpenGTS/pkg/telemetry"
)

// writeBML emits the flat point list consumed by basic location browsers:
// one self-closing location element per event with lon/lat, the device id
// as the label and the address as the description. The description value is
// written verbatim, matching the documents existing consumers accept.
func (x *Exporter) writeBML(w io.Writer, account *telemetry.Account, devices []telemetry.Device) error {
	write := func(s string) error {
		_, err := io.WriteString(w, s)
		return err
	}
	if err := write("<lbs>\n"); err != nil {
		return err
	}
	for _, dev := range sameAccount(account, devices) {
		for _, ev := range dev.Events {
			line := fmt.Sprintf("<location lon=\""+fmtLatLon+"\" lat=\""+fmtLatLon+"\" label=\"%s\" description=\"%s\"/>\n",
				ev.Point.Lon, ev.Point.Lat, xmlAttrEscape(ev.DeviceID), ev.Address)
			if err := write(line); err != nil {
				return err
			}
		}
	}
	return write("</lbs>\n")
}
