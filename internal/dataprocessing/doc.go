// Package dataprocessing turns weekly seafood export workbooks into flat
// market records and the aggregate views built from them.
//
// # Extraction
//
// ExtractMarketRecords is a pure function over a RawGrid. The data section
// starts at the first row whose label column (index 2) contains "TOTALT";
// every following row with a usable label becomes one MarketRecord whose
// eight numbers are read positionally from columns 3 to 10. Week and
// category are never read from the sheet: ParseFileTags derives them from
// the source file name.
//
//	grid, _ := dataprocessing.NewExcelReader("").Read(path)
//	records := dataprocessing.ExtractMarketRecords(grid.Grid, 36, domain.CategorySalmonTrout)
//
// # Processing
//
// Processor walks a directory of workbooks, skipping lock files and names
// without tags, and concatenates the extracted records in (category, week,
// name) order.
//
// # Analytics
//
// The aggregation helpers (WeeklyTotals, CategorySummaries, MarketGrowths,
// PriceTrends, ComputeInsights) are pure. Summarizer bundles them into a
// domain.AnalysisReport and CheckQuality produces a domain.QualityReport.
//
// Growth is (current - prior) / prior * 100 and is 0 whenever the prior
// value is zero or negative.
package dataprocessing
