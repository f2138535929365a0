package dataprocessing

import (
	"context"
	"log/slog"
	"time"

	"seafoodpulse/pkg/contracts/domain"
)

// SummarizerConfig holds the thresholds used by the growth views.
type SummarizerConfig struct {
	TopMarkets        int     // Markets kept in the top-by-volume list
	FastestGrowing    int     // Markets kept in the fastest growing list
	SignificantVolume float64 // Minimum current volume for growth rankings
	MaxGrowthPercent  float64 // Growth at or above this magnitude is treated as noise
}

// DefaultSummarizerConfig returns the thresholds used by the weekly reports
func DefaultSummarizerConfig() SummarizerConfig {
	return SummarizerConfig{
		TopMarkets:        DefaultTopMarkets,
		FastestGrowing:    DefaultFastestGrowing,
		SignificantVolume: SignificantVolume,
		MaxGrowthPercent:  MaxPlausibleGrowthPercent,
	}
}

// Summarizer turns a combined record set into an AnalysisReport.
type Summarizer struct {
	logger *slog.Logger
	cfg    SummarizerConfig
}

// NewSummarizer creates a summarizer. Zero thresholds fall back to the defaults.
func NewSummarizer(logger *slog.Logger, cfg SummarizerConfig) *Summarizer {
	if logger == nil {
		logger = slog.Default()
	}

	def := DefaultSummarizerConfig()
	if cfg.TopMarkets <= 0 {
		cfg.TopMarkets = def.TopMarkets
	}
	if cfg.FastestGrowing <= 0 {
		cfg.FastestGrowing = def.FastestGrowing
	}
	if cfg.SignificantVolume <= 0 {
		cfg.SignificantVolume = def.SignificantVolume
	}
	if cfg.MaxGrowthPercent <= 0 {
		cfg.MaxGrowthPercent = def.MaxGrowthPercent
	}

	return &Summarizer{
		logger: logger.With(slog.String("component", "summarizer")),
		cfg:    cfg,
	}
}

// Analyze computes every aggregate view. The market list is truncated to
// the configured top-N; the insights are computed on the full set.
func (s *Summarizer) Analyze(ctx context.Context, records []domain.MarketRecord, now time.Time) domain.AnalysisReport {
	s.logger.InfoContext(ctx, "analyzing market records", slog.Int("records", len(records)))

	weekly, avgGrowth := WeeklyTotals(records)
	growths := MarketGrowths(records)

	report := domain.AnalysisReport{
		WeeklyTotals:        weekly,
		AverageWeeklyGrowth: avgGrowth,
		Categories:          CategorySummaries(records),
		Markets:             TopMarkets(MarketSummaries(records), s.cfg.TopMarkets),
		SignificantGrowth:   SignificantGrowth(growths, s.cfg.SignificantVolume, s.cfg.MaxGrowthPercent),
		PriceTrends:         PriceTrends(records),
		Insights:            s.Insights(records, now),
	}

	if report.SignificantGrowth == nil {
		report.SignificantGrowth = []domain.MarketGrowth{}
	}

	s.logger.DebugContext(ctx, "analysis complete",
		slog.Int("weeks", len(report.WeeklyTotals)),
		slog.Int("categories", len(report.Categories)),
		slog.Int("significant_growth", len(report.SignificantGrowth)))

	return report
}

// Insights computes the headline figures with this summarizer's thresholds
func (s *Summarizer) Insights(records []domain.MarketRecord, now time.Time) domain.Insights {
	ins := ComputeInsights(records, now)
	if len(records) > 0 {
		ins.FastestGrowing = FastestGrowing(MarketGrowths(records), s.cfg.SignificantVolume, s.cfg.FastestGrowing)
	}
	return ins
}
