package util

import (
	"math"
	"strconv"
)

// ParseFloatDefault parses string to float64 or returns default if empty/invalid.
// Feed payloads carry numbers as strings; malformed fields coerce instead of failing.
func ParseFloatDefault(s string, def float64) float64 {
	if s == "" {
		return def
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return def
	}
	return v
}

// Round4 rounds to 4 decimal places. Used for spread percentages.
func Round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

// ParseIntDefault parses string to int or returns default if empty/invalid.
func ParseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}
