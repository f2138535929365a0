package dataprocessing

import (
	"math"
	"strconv"
	"strings"
)

// CoerceNumber converts a cell to float64. Empty cells, NaN and anything
// that does not parse become 0. Strings use '.' as the decimal separator, so
// "3,5" and "1,234" both coerce to 0.
func CoerceNumber(c Cell) float64 {
	var f float64

	switch v := c.(type) {
	case nil:
		return 0
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int64:
		f = float64(v)
	case int32:
		f = float64(v)
	case uint:
		f = float64(v)
	case uint64:
		f = float64(v)
	case bool:
		if v {
			return 1
		}
		return 0
	case string:
		var ok bool
		if f, ok = parseNumericString(v); !ok {
			return 0
		}
	default:
		return 0
	}

	if math.IsNaN(f) {
		return 0
	}
	return f
}

func parseNumericString(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
