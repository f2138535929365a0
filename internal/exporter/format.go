package exporter

import (
	"strconv"
	"time"
)

// formatFloat formats a float64 value for CSV output with exactly 2 decimal places
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}

// formatInt formats an int value for CSV output
func formatInt(i int) string {
	return strconv.Itoa(i)
}

// formatOptionalFloat renders a missing value as an empty cell
func formatOptionalFloat(f *float64) string {
	if f == nil {
		return ""
	}
	return formatFloat(*f)
}

// formatCoordinate keeps full precision for latitude and longitude
func formatCoordinate(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
