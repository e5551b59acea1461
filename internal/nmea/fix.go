package nmea

import "time"

// UnknownDOP is the dilution-of-precision value used before any receiver report.
const UnknownDOP = 99.0

// Fix is the record populated by Decode. Each sentence type writes only the
// fields it carries; everything else keeps its previous value.
type Fix struct {
	Valid bool `json:"valid"`

	// Packed NMEA form: DDMM.MMMM / DDDMM.MMMM.
	Latitude  float64 `json:"latitude"`
	North     bool    `json:"north"`
	Longitude float64 `json:"longitude"`
	East      bool    `json:"east"`

	AltitudeM  float64 `json:"altitude_m"`
	SpeedKph   float64 `json:"speed_kph"`
	HeadingDeg float64 `json:"heading_deg"`

	HDOP float64 `json:"hdop"`
	VDOP float64 `json:"vdop"`

	Satellites uint `json:"satellites"`

	// Timestamp is seconds since the Unix epoch, built from the RMC time and date fields.
	Timestamp int64 `json:"timestamp"`
}

// NewFix returns a Fix with the receiver defaults.
func NewFix() Fix {
	return Fix{
		North: true,
		East:  true,
		HDOP:  UnknownDOP,
		VDOP:  UnknownDOP,
	}
}

// Reset restores the defaults returned by NewFix.
func (f *Fix) Reset() {
	*f = NewFix()
}

// LatitudeDeg returns the latitude in signed decimal degrees (south negative).
func (f Fix) LatitudeDeg() float64 {
	v := PackedToDecimal(f.Latitude)
	if !f.North {
		v = -v
	}
	return v
}

// LongitudeDeg returns the longitude in signed decimal degrees (west negative).
func (f Fix) LongitudeDeg() float64 {
	v := PackedToDecimal(f.Longitude)
	if !f.East {
		v = -v
	}
	return v
}

// Time returns Timestamp as a UTC time, or the zero time when unset.
func (f Fix) Time() time.Time {
	if f.Timestamp == 0 {
		return time.Time{}
	}
	return time.Unix(f.Timestamp, 0).UTC()
}
