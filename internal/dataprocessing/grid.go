package dataprocessing

import (
	"math"
	"strconv"
)

// Cell is a single spreadsheet value: nil, string, a number or a bool
type Cell = any

// RawGrid is a rectangular-ish table of cells indexed row then column.
// Rows may be shorter than their neighbours; missing cells read as nil.
type RawGrid [][]Cell

func cellAt(row []Cell, col int) Cell {
	if col < 0 || col >= len(row) {
		return nil
	}
	return row[col]
}

// isEmptyCell reports cells a spreadsheet would show as blank
func isEmptyCell(c Cell) bool {
	switch v := c.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case float64:
		return math.IsNaN(v)
	case float32:
		return math.IsNaN(float64(v))
	}
	return false
}

// CellString renders a cell the way a spreadsheet displays its raw value
func CellString(c Cell) string {
	switch v := c.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case bool:
		if v {
			return "True"
		}
		return "False"
	case interface{ String() string }:
		return v.String()
	}
	return ""
}
