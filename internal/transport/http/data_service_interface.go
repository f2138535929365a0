package http

import (
	"context"

	"seafoodpulse/internal/services"
	"seafoodpulse/pkg/contracts/domain"
)

// DataServiceInterface defines the read side of the market dataset
type DataServiceInterface interface {
	Records(ctx context.Context, filter domain.MarketFilter) ([]domain.EnrichedRecord, error)
	Weeks(ctx context.Context) ([]int, error)
	Categories(ctx context.Context) ([]domain.Category, error)
	WeeklySummary(ctx context.Context) (services.WeeklySummary, error)
	CategorySummary(ctx context.Context) ([]domain.CategorySummary, error)
	MarketSummary(ctx context.Context, limit int) ([]domain.MarketSummary, error)
	Growth(ctx context.Context) (services.GrowthSummary, error)
	Insights(ctx context.Context) (domain.Insights, error)
	Ports(ctx context.Context) ([]domain.PortSummary, error)
}
