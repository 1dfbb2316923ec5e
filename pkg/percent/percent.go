// Package percent handles commission percentages stored as fixed-point
// decimal strings. Values are parsed to float64 only for comparison and
// arithmetic; the persisted representation stays a string.
package percent

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

var ErrInvalid = errors.New("invalid_percent")

// Parse converts a stored percent string to a float64. Empty input parses
// to zero.
func Parse(value string) (float64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, nil
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, ErrInvalid
	}
	// ParseFloat accepts "NaN" and "Inf"; neither is a rate.
	if math.IsNaN(parsed) || math.IsInf(parsed, 0) {
		return 0, ErrInvalid
	}
	return parsed, nil
}

// Format renders a percent with two fixed decimal places.
func Format(value float64) string {
	return strconv.FormatFloat(value, 'f', 2, 64)
}

// Normalize re-formats a percent string to the canonical fixed-point form,
// validating bounds [0, 100].
func Normalize(value string) (string, error) {
	parsed, err := Parse(value)
	if err != nil {
		return "", err
	}
	if parsed < 0 || parsed > 100 {
		return "", ErrInvalid
	}
	return Format(parsed), nil
}

// Equal compares two stored percent strings by numeric value.
func Equal(a, b string) bool {
	pa, errA := Parse(a)
	pb, errB := Parse(b)
	if errA != nil || errB != nil {
		return false
	}
	return pa == pb
}
