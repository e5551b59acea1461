package nmea

import "math"

const kphPerKnot = 1.852

// KnotsToKph converts a speed in knots to km/h.
func KnotsToKph(v float64) float64 {
	return v * kphPerKnot
}

// PackedToDecimal converts a packed DDMM.MMMM angle to decimal degrees.
func PackedToDecimal(v float64) float64 {
	deg := math.Trunc(v / 100.0)
	mins := math.Mod(v, 100.0) / 60.0
	return deg + mins
}

// DecimalToPacked converts decimal degrees back to the packed DDMM.MMMM form.
// It is the approximate inverse of PackedToDecimal.
func DecimalToPacked(v float64) float64 {
	deg := math.Trunc(v) * 100.0
	mins := math.Mod(v, 1.0) * 60.0
	return deg + mins
}
