// Package exporter writes processed seafood data out of the process.
//
// CSVWriter handles plain CSV files plus the typed tables: the combined
// market table (MarketHeaders, numbers with two decimals) and the fishing
// event, port visit and port summary tables. JSONWriter writes indented
// JSON through a temp file and rename. TableRenderer prints aggregate
// views to the console and SheetsPublisher mirrors the combined table into
// a Google spreadsheet when enabled.
//
//	w := exporter.NewCSVWriter(paths)
//	err := w.WriteMarketRecords(paths.CombinedDataCSV, dataprocessing.EnrichRecords(records))
package exporter
