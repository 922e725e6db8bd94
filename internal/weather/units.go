package weather

import "math"

// MsToKmh converts a wind speed in meters per second to whole km/h.
func MsToKmh(ms float64) int {
	return int(math.Round(ms * 3.6))
}

// RoundInt rounds a float to the nearest integer for display.
func RoundInt(v float64) int {
	return int(math.Round(v))
}
