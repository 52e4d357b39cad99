package util

// RoundedPercent returns round(100*part/whole) with halves rounded up,
// or 0 when whole is not positive.
func RoundedPercent(part, whole int) int {
	if whole <= 0 {
		return 0
	}
	if part < 0 {
		part = 0
	}
	// integer form of floor(100*part/whole + 0.5)
	return (200*part + whole) / (2 * whole)
}

// RoundHalfUp rounds a non-negative float to the nearest int, halves rounded up.
func RoundHalfUp(v float64) int {
	if v < 0 {
		return 0
	}
	return int(v + 0.5)
}
