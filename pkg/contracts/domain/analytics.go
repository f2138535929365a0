package domain

import (
	"time"
)

// WeeklyTotal aggregates current and prior-year volume for one week
type WeeklyTotal struct {
	Week                int     `json:"week"`
	CurrentVolume       float64 `json:"current_week_volume"`
	PriorVolume         float64 `json:"previous_year_volume"`
	VolumeGrowthPercent float64 `json:"volume_growth_percent"`
}

// CategorySummary aggregates one product category across all weeks
type CategorySummary struct {
	Category           Category `json:"category"`
	CurrentVolume      float64  `json:"current_week_volume"`
	AvgPrice           float64  `json:"current_week_price"`
	VolumeSharePercent float64  `json:"volume_share_percent"`
	Records            int      `json:"records"`
}

// MarketSummary aggregates one destination market across all categories
type MarketSummary struct {
	Market        string  `json:"market"`
	CurrentVolume float64 `json:"current_week_volume"`
	AvgPrice      float64 `json:"current_week_price"`
}

// MarketGrowth compares a market's summed volume against the prior year
type MarketGrowth struct {
	Market        string  `json:"market"`
	CurrentVolume float64 `json:"current_week_volume"`
	PriorVolume   float64 `json:"previous_year_volume"`
	GrowthPercent float64 `json:"growth_percent"`
}

// PriceTrend is the mean current-week price of one category in one week
type PriceTrend struct {
	Week     int      `json:"week"`
	Category Category `json:"category"`
	AvgPrice float64  `json:"avg_price"`
}

// Insights is the headline summary written alongside each processing run
type Insights struct {
	TotalVolume         float64        `json:"total_volume"`
	TotalPreviousVolume float64        `json:"total_previous_volume"`
	VolumeGrowthPercent float64        `json:"volume_growth_percent"`
	AvgPrice            float64        `json:"avg_price"`
	AvgPreviousPrice    float64        `json:"avg_previous_price"`
	PriceChangePercent  float64        `json:"price_change_percent"`
	ProcessingDate      time.Time      `json:"processing_date"`
	TotalRecords        int            `json:"total_records"`
	Categories          int            `json:"categories"`
	Markets             int            `json:"markets"`
	Weeks               int            `json:"weeks"`
	TopMarket           *MarketSummary `json:"top_market,omitempty"`
	HighestPriceMarket  *MarketSummary `json:"highest_price_market,omitempty"`
	FastestGrowing      []MarketGrowth `json:"fastest_growing,omitempty"`
}

// AnalysisReport bundles every aggregate produced from one combined dataset
type AnalysisReport struct {
	WeeklyTotals        []WeeklyTotal     `json:"weekly_totals"`
	AverageWeeklyGrowth float64           `json:"average_weekly_growth"`
	Categories          []CategorySummary `json:"categories"`
	Markets             []MarketSummary   `json:"markets"`
	SignificantGrowth   []MarketGrowth    `json:"significant_growth"`
	PriceTrends         []PriceTrend      `json:"price_trends"`
	Insights            Insights          `json:"insights"`
}

// QualityReport summarizes data-quality signals of a combined dataset
type QualityReport struct {
	TotalRecords        int            `json:"total_records"`
	DuplicateRecords    int            `json:"duplicate_records"`
	ZeroValueRecords    int            `json:"zero_value_records"`
	TotalRowsAsMarkets  int            `json:"total_rows_as_markets"`
	SimilarMarketLabels []SimilarLabel `json:"similar_market_labels,omitempty"`
}

// SimilarLabel flags two distinct market labels that are likely the same market
type SimilarLabel struct {
	A     string  `json:"a"`
	B     string  `json:"b"`
	Score float64 `json:"score"`
}
