package exporter

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	apperrors "seafoodpulse/internal/errors"
	"seafoodpulse/pkg/contracts/domain"
)

// MarketHeaders is the column layout of the combined seafood table
var MarketHeaders = []string{
	"Week",
	"Category",
	"Market",
	"Current_Week_Volume",
	"Current_Week_Price",
	"Previous_Year_Volume",
	"Previous_Year_Price",
	"YTD_Current_Volume",
	"YTD_Current_Price",
	"YTD_Previous_Volume",
	"YTD_Previous_Price",
	"Volume_Growth_Percent",
	"Price_Change_Percent",
}

// MarketRecordRows renders enriched records in MarketHeaders order
func MarketRecordRows(records []domain.EnrichedRecord) [][]string {
	rows := make([][]string, len(records))
	for i, r := range records {
		rows[i] = []string{
			formatInt(r.Week),
			string(r.Category),
			r.Market,
			formatFloat(r.CurrentVolume),
			formatFloat(r.CurrentPrice),
			formatFloat(r.PriorVolume),
			formatFloat(r.PriorPrice),
			formatFloat(r.YTDCurrentVolume),
			formatFloat(r.YTDCurrentPrice),
			formatFloat(r.YTDPriorVolume),
			formatFloat(r.YTDPriorPrice),
			formatFloat(r.VolumeGrowthPercent),
			formatFloat(r.PriceChangePercent),
		}
	}
	return rows
}

// WriteMarketRecords writes the combined table to filePath
func (w *CSVWriter) WriteMarketRecords(filePath string, records []domain.EnrichedRecord) error {
	return w.WriteCSV(filePath, WriteOptions{
		Headers: MarketHeaders,
		Records: MarketRecordRows(records),
	})
}

// ReadMarketRecords loads a combined table written by WriteMarketRecords.
// Columns are located by header name so extra columns are tolerated.
func ReadMarketRecords(filePath string) ([]domain.MarketRecord, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, apperrors.NewFileError(filePath, err)
	}
	defer f.Close()

	return DecodeMarketRecords(f)
}

// DecodeMarketRecords parses the combined table from r
func DecodeMarketRecords(r io.Reader) ([]domain.MarketRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return []domain.MarketRecord{}, nil
		}
		return nil, apperrors.NewParsingError("read header", err)
	}

	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.TrimPrefix(strings.TrimSpace(h), string(utf8BOM))] = i
	}
	for _, required := range MarketHeaders[:11] {
		if _, ok := index[required]; !ok {
			return nil, apperrors.NewParsingError(fmt.Sprintf("missing column %s", required), nil)
		}
	}

	var records []domain.MarketRecord
	line := 1
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, apperrors.NewParsingError(fmt.Sprintf("line %d", line), err)
		}

		get := func(col string) string {
			i := index[col]
			if i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}
		num := func(col string) float64 {
			v, err := strconv.ParseFloat(get(col), 64)
			if err != nil {
				return 0
			}
			return v
		}

		week, err := strconv.Atoi(get("Week"))
		if err != nil {
			return nil, apperrors.NewParsingError(fmt.Sprintf("line %d: invalid week %q", line, get("Week")), err)
		}

		records = append(records, domain.MarketRecord{
			Week:             week,
			Category:         domain.Category(get("Category")),
			Market:           get("Market"),
			CurrentVolume:    num("Current_Week_Volume"),
			CurrentPrice:     num("Current_Week_Price"),
			PriorVolume:      num("Previous_Year_Volume"),
			PriorPrice:       num("Previous_Year_Price"),
			YTDCurrentVolume: num("YTD_Current_Volume"),
			YTDCurrentPrice:  num("YTD_Current_Price"),
			YTDPriorVolume:   num("YTD_Previous_Volume"),
			YTDPriorPrice:    num("YTD_Previous_Price"),
		})
	}

	if records == nil {
		records = []domain.MarketRecord{}
	}
	return records, nil
}
