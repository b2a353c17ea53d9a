package model

import (
	"math"
	"strconv"
	"strings"
)

// ParseFloat converts a raw table value to float64. Empty, malformed or
// non-finite input yields fallback.
func ParseFloat(raw string, fallback float64) float64 {
	s := strings.TrimSpace(raw)
	if s == "" {
		return fallback
	}
	s = strings.ReplaceAll(s, ",", "")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return fallback
	}
	return v
}

// ParseInt converts a raw table value to int. Values written as floats
// ("3.0") are truncated.
func ParseInt(raw string, fallback int) int {
	s := strings.TrimSpace(raw)
	if s == "" {
		return fallback
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	f := ParseFloat(s, math.NaN())
	if math.IsNaN(f) {
		return fallback
	}
	return int(f)
}
