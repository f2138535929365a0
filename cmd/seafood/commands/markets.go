package commands

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"seafoodpulse/internal/app"
	"seafoodpulse/internal/dataprocessing"
	"seafoodpulse/internal/exporter"
	"seafoodpulse/internal/services"
	"seafoodpulse/pkg/contracts/domain"
)

type marketsOptions struct {
	limit    int
	week     int
	category string
}

var marketsOpts marketsOptions

func init() {
	marketsCmd.Flags().IntVar(&marketsOpts.limit, "limit", dataprocessing.DefaultTopMarkets, "Number of markets to list")
	marketsCmd.Flags().IntVar(&marketsOpts.week, "week", 0, "List the raw records of one ISO week instead of the summary")
	marketsCmd.Flags().StringVar(&marketsOpts.category, "category", "", "Restrict --week records to one product category")
	rootCmd.AddCommand(marketsCmd)
}

var marketsCmd = &cobra.Command{
	Use:   "markets",
	Short: "Prints top markets and year-over-year growth from the stored market table.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.Application) error {
			return runMarkets(ctx, cmd.OutOrStdout(), a.DataService, marketsOpts)
		}, keepStdout)
	},
}

func runMarkets(ctx context.Context, out io.Writer, data *services.DataService, opts marketsOptions) error {
	if opts.limit <= 0 {
		return fmt.Errorf("--limit must be positive, got %d", opts.limit)
	}
	r := exporter.NewTableRenderer(out)

	if opts.week > 0 {
		filter := domain.MarketFilter{Week: opts.week, Limit: opts.limit}
		if opts.category != "" {
			c, ok := domain.ParseCategory(opts.category)
			if !ok {
				return fmt.Errorf("unknown category %q", opts.category)
			}
			filter.Category = c
		}
		enriched, err := data.Records(ctx, filter)
		if err != nil {
			return noDataHint(err)
		}
		records := make([]domain.MarketRecord, 0, len(enriched))
		for _, e := range enriched {
			records = append(records, e.MarketRecord)
		}
		r.Records(records)
		return nil
	}

	markets, err := data.MarketSummary(ctx, opts.limit)
	if err != nil {
		return noDataHint(err)
	}
	growth, err := data.Growth(ctx)
	if err != nil {
		return noDataHint(err)
	}
	r.Markets("Top markets", markets)
	r.Growth("Fastest growing markets", growth.FastestGrowing)
	return nil
}

// renderReport prints every aggregate view of the stored market table
func renderReport(ctx context.Context, out io.Writer, a *app.Application) error {
	data := a.DataService
	weekly, err := data.WeeklySummary(ctx)
	if err != nil {
		return noDataHint(err)
	}
	categories, err := data.CategorySummary(ctx)
	if err != nil {
		return noDataHint(err)
	}

	r := exporter.NewTableRenderer(out)
	r.WeeklyTotals(weekly.Weeks, weekly.AverageWeeklyGrowth)
	r.Categories(categories)
	return runMarkets(ctx, out, data, marketsOptions{limit: dataprocessing.DefaultTopMarkets})
}

func noDataHint(err error) error {
	if errors.Is(err, services.ErrNoData) {
		return fmt.Errorf("%w: run `seafood process` first", err)
	}
	return err
}
