package dataprocessing

import (
	"log/slog"
	"strings"

	"seafoodpulse/pkg/contracts/domain"
)

// Layout of the weekly statistics sheet. Columns are zero-based.
const (
	labelColumn      = 2
	firstValueColumn = 3
	valueColumnCount = 8

	// TotalSentinel marks the total row that opens the per-market section
	TotalSentinel = "TOTALT"
)

// ExtractMarketRecords turns a raw weekly statistics grid into market records.
//
// The data section starts at the first row whose label column contains
// TotalSentinel. From there on every row with a usable label yields one
// record, with columns 3..10 read positionally as the eight numbers. The
// exclusion check against the sentinel is exact and untrimmed while the
// emitted label is trimmed, so " TOTALT " becomes a market named "TOTALT".
//
// Malformed input never fails: a grid without a data section yields an
// empty slice and unparseable numbers become zero.
func ExtractMarketRecords(grid RawGrid, week int, category domain.Category) []domain.MarketRecord {
	start := findDataStart(grid)
	if start < 0 {
		slog.Debug("no data section in grid",
			slog.Int("week", week),
			slog.String("category", string(category)),
			slog.Int("rows", len(grid)))
		return []domain.MarketRecord{}
	}

	records := make([]domain.MarketRecord, 0, len(grid)-start)
	for _, row := range grid[start:] {
		label, ok := marketLabel(row)
		if !ok {
			continue
		}

		var v [valueColumnCount]float64
		for i := range v {
			v[i] = CoerceNumber(cellAt(row, firstValueColumn+i))
		}

		records = append(records, domain.MarketRecord{
			Week:             week,
			Category:         category,
			Market:           label,
			CurrentVolume:    v[0],
			CurrentPrice:     v[1],
			PriorVolume:      v[2],
			PriorPrice:       v[3],
			YTDCurrentVolume: v[4],
			YTDCurrentPrice:  v[5],
			YTDPriorVolume:   v[6],
			YTDPriorPrice:    v[7],
		})
	}

	return records
}

func findDataStart(grid RawGrid) int {
	for i, row := range grid {
		cell := cellAt(row, labelColumn)
		if isEmptyCell(cell) {
			continue
		}
		if strings.Contains(CellString(cell), TotalSentinel) {
			return i
		}
	}
	return -1
}

// marketLabel returns the trimmed label of a data row, or false when the
// row carries no market.
func marketLabel(row []Cell) (string, bool) {
	cell := cellAt(row, labelColumn)
	if isEmptyCell(cell) {
		return "", false
	}

	raw := CellString(cell)
	if raw == TotalSentinel {
		return "", false
	}

	label := strings.TrimSpace(raw)
	if label == "" || label == "nan" {
		return "", false
	}
	return label, true
}
