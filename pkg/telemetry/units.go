package telemetry

// Conversion constants shared by the unit enums. Altitude follows the
// distance preference: accounts measuring miles see feet.
const (
	MilesPerKilometer = 0.621371192237334
	KnotsPerKPH       = 1.0 / 1.852
	FeetPerMeter      = 3.2808399
	GallonsPerLiter   = 0.264172052
)

// SpeedUnits is the account speed display preference. The zero value is
// km/h, matching the canonical storage unit.
type SpeedUnits int

const (
	SpeedKPH SpeedUnits = iota
	SpeedMPH
	SpeedKnots
)

// FromKPH converts a canonical km/h value into the display unit.
func (u SpeedUnits) FromKPH(kph float64) float64 {
	switch u {
	case SpeedMPH:
		return kph * MilesPerKilometer
	case SpeedKnots:
		return kph * KnotsPerKPH
	default:
		return kph
	}
}

// Label is the display label attached to converted speed values. The
// labels are the account-declared unit strings, not locale constants, so
// JSON consumers see exactly what the account was configured with.
func (u SpeedUnits) Label() string {
	switch u {
	case SpeedMPH:
		return "mph"
	case SpeedKnots:
		return "knots"
	default:
		return "kph"
	}
}

// DistanceUnits covers odometer and altitude display.
type DistanceUnits int

const (
	DistanceKM DistanceUnits = iota
	DistanceMiles
)

// FromKM converts kilometers into the display unit.
func (u DistanceUnits) FromKM(km float64) float64 {
	if u == DistanceMiles {
		return km * MilesPerKilometer
	}
	return km
}

// IsMiles reports whether the account measures in miles, which also
// switches altitude from meters to feet.
func (u DistanceUnits) IsMiles() bool { return u == DistanceMiles }

func (u DistanceUnits) Label() string {
	if u == DistanceMiles {
		return "miles"
	}
	return "km"
}

// AltitudeFromMeters applies the altitude half of the distance
// preference and returns the converted value with its label.
func (u DistanceUnits) AltitudeFromMeters(m float64) (float64, string) {
	if u.IsMiles() {
		return m * FeetPerMeter, "feet"
	}
	return m, "meters"
}

// VolumeUnits covers fuel totals.
type VolumeUnits int

const (
	VolumeLiters VolumeUnits = iota
	VolumeGallons
)

// FromLiters converts liters into the display unit.
func (u VolumeUnits) FromLiters(l float64) float64 {
	if u == VolumeGallons {
		return l * GallonsPerLiter
	}
	return l
}

func (u VolumeUnits) Label() string {
	if u == VolumeGallons {
		return "gallons"
	}
	return "liters"
}

// TemperatureUnits covers engine coolant temperature.
type TemperatureUnits int

const (
	TemperatureC TemperatureUnits = iota
	TemperatureF
)

// FromC converts degrees Celsius into the display unit.
func (u TemperatureUnits) FromC(c float64) float64 {
	if u == TemperatureF {
		return c*9.0/5.0 + 32.0
	}
	return c
}

func (u TemperatureUnits) Label() string {
	if u == TemperatureF {
		return "F"
	}
	return "C"
}
