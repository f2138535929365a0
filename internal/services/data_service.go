package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"seafoodpulse/internal/config"
	"seafoodpulse/internal/dataprocessing"
	apperrors "seafoodpulse/internal/errors"
	"seafoodpulse/internal/exporter"
	"seafoodpulse/internal/files"
	"seafoodpulse/pkg/contracts/domain"
)

// MarketStore is the read side of the store used by DataService
type MarketStore interface {
	MarketRecords(ctx context.Context, filter domain.MarketFilter) ([]domain.EnrichedRecord, error)
	Weeks(ctx context.Context) ([]int, error)
	Categories(ctx context.Context) ([]domain.Category, error)
	PortSummaries(ctx context.Context) ([]domain.PortSummary, error)
}

// WeeklySummary is the week-by-week volume view
type WeeklySummary struct {
	Weeks               []domain.WeeklyTotal `json:"weeks"`
	AverageWeeklyGrowth float64              `json:"average_weekly_growth"`
}

// GrowthSummary lists the markets with notable year-over-year growth
type GrowthSummary struct {
	Significant    []domain.MarketGrowth `json:"significant_growth"`
	FastestGrowing []domain.MarketGrowth `json:"fastest_growing"`
}

// DataService answers read queries over the combined market table
type DataService struct {
	store      MarketStore
	summarizer *dataprocessing.Summarizer
	paths      *config.Paths
	logger     *slog.Logger
	now        func() time.Time
}

// NewDataService creates a data service. A nil summarizer uses the default
// thresholds.
func NewDataService(store MarketStore, summarizer *dataprocessing.Summarizer, paths *config.Paths, logger *slog.Logger) *DataService {
	if logger == nil {
		logger = slog.Default()
	}
	if summarizer == nil {
		summarizer = dataprocessing.NewSummarizer(logger, dataprocessing.DefaultSummarizerConfig())
	}
	return &DataService{
		store:      store,
		summarizer: summarizer,
		paths:      paths,
		logger:     logger.With(slog.String("component", "data_service")),
		now:        time.Now,
	}
}

// Records returns the stored records matching filter
func (s *DataService) Records(ctx context.Context, filter domain.MarketFilter) ([]domain.EnrichedRecord, error) {
	records, err := s.store.MarketRecords(ctx, filter)
	if err != nil {
		s.logger.ErrorContext(ctx, "record query failed",
			slog.Int("week", filter.Week),
			slog.String("category", string(filter.Category)),
			slog.String("error", err.Error()))
		return nil, err
	}
	return records, nil
}

// Weeks lists the weeks present in the store
func (s *DataService) Weeks(ctx context.Context) ([]int, error) {
	return s.store.Weeks(ctx)
}

// Categories lists the categories present in the store
func (s *DataService) Categories(ctx context.Context) ([]domain.Category, error) {
	return s.store.Categories(ctx)
}

// WeeklySummary totals volume per week
func (s *DataService) WeeklySummary(ctx context.Context) (WeeklySummary, error) {
	records, err := s.marketRecords(ctx)
	if err != nil {
		return WeeklySummary{}, err
	}
	weeks, avg := dataprocessing.WeeklyTotals(records)
	return WeeklySummary{Weeks: weeks, AverageWeeklyGrowth: avg}, nil
}

// CategorySummary aggregates volume and price per category
func (s *DataService) CategorySummary(ctx context.Context) ([]domain.CategorySummary, error) {
	records, err := s.marketRecords(ctx)
	if err != nil {
		return nil, err
	}
	return dataprocessing.CategorySummaries(records), nil
}

// MarketSummary returns the top markets by current volume. limit <= 0
// returns every market.
func (s *DataService) MarketSummary(ctx context.Context, limit int) ([]domain.MarketSummary, error) {
	records, err := s.marketRecords(ctx)
	if err != nil {
		return nil, err
	}
	summaries := dataprocessing.MarketSummaries(records)
	if limit > 0 {
		summaries = dataprocessing.TopMarkets(summaries, limit)
	}
	return summaries, nil
}

// Growth returns the significant and fastest growing markets
func (s *DataService) Growth(ctx context.Context) (GrowthSummary, error) {
	records, err := s.marketRecords(ctx)
	if err != nil {
		return GrowthSummary{}, err
	}
	report := s.summarizer.Analyze(ctx, records, s.now())

	fastest := report.Insights.FastestGrowing
	if fastest == nil {
		fastest = []domain.MarketGrowth{}
	}
	return GrowthSummary{Significant: report.SignificantGrowth, FastestGrowing: fastest}, nil
}

// Insights returns the newest insights file written by the analysis step.
// Without one the insights are computed from the store.
func (s *DataService) Insights(ctx context.Context) (domain.Insights, error) {
	ins, err := s.latestInsights()
	if err == nil {
		return ins, nil
	}
	s.logger.DebugContext(ctx, "computing insights from store", slog.String("reason", err.Error()))

	records, err := s.marketRecords(ctx)
	if err != nil {
		return domain.Insights{}, err
	}
	return s.summarizer.Insights(records, s.now()), nil
}

func (s *DataService) latestInsights() (domain.Insights, error) {
	if s.paths == nil {
		return domain.Insights{}, ErrInsightsNotFound
	}
	pattern := fmt.Sprintf(config.InsightsFilePattern, "*")
	found, err := files.NewDiscovery("").FindFilesByPattern(s.paths.SummaryReportsDir, pattern)
	if err != nil || len(found) == 0 {
		return domain.Insights{}, ErrInsightsNotFound
	}

	// names carry a sortable timestamp
	sort.Slice(found, func(i, j int) bool { return found[i].Name > found[j].Name })

	var ins domain.Insights
	if err := exporter.ReadJSON(found[0].Path, &ins); err != nil {
		return domain.Insights{}, fmt.Errorf("%w: %v", ErrInsightsNotFound, err)
	}
	return ins, nil
}

// Ports returns the persisted fishing port summaries
func (s *DataService) Ports(ctx context.Context) ([]domain.PortSummary, error) {
	ports, err := s.store.PortSummaries(ctx)
	if err != nil {
		return nil, err
	}
	if len(ports) == 0 {
		return nil, fmt.Errorf("port summaries: %w", ErrNoData)
	}
	return ports, nil
}

// marketRecords loads every stored record, failing with ErrNoData when the
// store is empty
func (s *DataService) marketRecords(ctx context.Context) ([]domain.MarketRecord, error) {
	enriched, err := s.store.MarketRecords(ctx, domain.MarketFilter{})
	if err != nil {
		if apperrors.IsType(err, apperrors.ErrTypeNotFound) {
			return nil, fmt.Errorf("market records: %w", ErrNoData)
		}
		return nil, err
	}
	if len(enriched) == 0 {
		return nil, fmt.Errorf("market records: %w", ErrNoData)
	}

	records := make([]domain.MarketRecord, len(enriched))
	for i, r := range enriched {
		records[i] = r.MarketRecord
	}
	return records, nil
}
