package dataprocessing

import (
	"math"
	"sort"
	"time"

	"seafoodpulse/pkg/contracts/domain"
)

// Defaults used by the market growth views
const (
	DefaultTopMarkets         = 15
	DefaultFastestGrowing     = 3
	SignificantVolume         = 1000.0
	MaxPlausibleGrowthPercent = 1000.0
)

// Round2 rounds half away from zero to two decimals
func Round2(x float64) float64 {
	return math.Round(x*100) / 100
}

// GrowthPercent is (current - prior) / prior * 100, or 0 when prior <= 0
func GrowthPercent(current, prior float64) float64 {
	if prior <= 0 {
		return 0
	}
	return (current - prior) / prior * 100
}

// EnrichRecords adds the year-over-year volume and price change columns
func EnrichRecords(records []domain.MarketRecord) []domain.EnrichedRecord {
	out := make([]domain.EnrichedRecord, len(records))
	for i, r := range records {
		out[i] = domain.EnrichedRecord{
			MarketRecord:        r,
			VolumeGrowthPercent: Round2(GrowthPercent(r.CurrentVolume, r.PriorVolume)),
			PriceChangePercent:  Round2(GrowthPercent(r.CurrentPrice, r.PriorPrice)),
		}
	}
	return out
}

// WeeklyTotals sums current and prior-year volume per week, sorted by week,
// and returns the mean of the weekly growth figures.
func WeeklyTotals(records []domain.MarketRecord) ([]domain.WeeklyTotal, float64) {
	byWeek := make(map[int]*domain.WeeklyTotal)
	for _, r := range records {
		wt, ok := byWeek[r.Week]
		if !ok {
			wt = &domain.WeeklyTotal{Week: r.Week}
			byWeek[r.Week] = wt
		}
		wt.CurrentVolume += r.CurrentVolume
		wt.PriorVolume += r.PriorVolume
	}

	totals := make([]domain.WeeklyTotal, 0, len(byWeek))
	var growthSum float64
	for _, wt := range byWeek {
		wt.VolumeGrowthPercent = Round2(GrowthPercent(wt.CurrentVolume, wt.PriorVolume))
		wt.CurrentVolume = Round2(wt.CurrentVolume)
		wt.PriorVolume = Round2(wt.PriorVolume)
		growthSum += wt.VolumeGrowthPercent
		totals = append(totals, *wt)
	}
	sort.Slice(totals, func(i, j int) bool { return totals[i].Week < totals[j].Week })

	if len(totals) == 0 {
		return totals, 0
	}
	return totals, Round2(growthSum / float64(len(totals)))
}

// CategorySummaries aggregates volume, mean price and volume share per
// category, largest volume first.
func CategorySummaries(records []domain.MarketRecord) []domain.CategorySummary {
	type acc struct {
		volume, priceSum float64
		n                int
	}
	byCat := make(map[domain.Category]*acc)
	var total float64
	for _, r := range records {
		a, ok := byCat[r.Category]
		if !ok {
			a = &acc{}
			byCat[r.Category] = a
		}
		a.volume += r.CurrentVolume
		a.priceSum += r.CurrentPrice
		a.n++
		total += r.CurrentVolume
	}

	out := make([]domain.CategorySummary, 0, len(byCat))
	for cat, a := range byCat {
		share := 0.0
		if total != 0 {
			share = a.volume / total * 100
		}
		out = append(out, domain.CategorySummary{
			Category:           cat,
			CurrentVolume:      Round2(a.volume),
			AvgPrice:           Round2(a.priceSum / float64(a.n)),
			VolumeSharePercent: Round2(share),
			Records:            a.n,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CurrentVolume != out[j].CurrentVolume {
			return out[i].CurrentVolume > out[j].CurrentVolume
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// MarketSummaries aggregates volume and mean price per market, largest
// volume first.
func MarketSummaries(records []domain.MarketRecord) []domain.MarketSummary {
	type acc struct {
		volume, priceSum float64
		n                int
	}
	byMarket := make(map[string]*acc)
	for _, r := range records {
		a, ok := byMarket[r.Market]
		if !ok {
			a = &acc{}
			byMarket[r.Market] = a
		}
		a.volume += r.CurrentVolume
		a.priceSum += r.CurrentPrice
		a.n++
	}

	out := make([]domain.MarketSummary, 0, len(byMarket))
	for m, a := range byMarket {
		out = append(out, domain.MarketSummary{
			Market:        m,
			CurrentVolume: Round2(a.volume),
			AvgPrice:      Round2(a.priceSum / float64(a.n)),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CurrentVolume != out[j].CurrentVolume {
			return out[i].CurrentVolume > out[j].CurrentVolume
		}
		return out[i].Market < out[j].Market
	})
	return out
}

// TopMarkets returns the first n summaries, DefaultTopMarkets when n <= 0
func TopMarkets(summaries []domain.MarketSummary, n int) []domain.MarketSummary {
	if n <= 0 {
		n = DefaultTopMarkets
	}
	if len(summaries) < n {
		n = len(summaries)
	}
	return summaries[:n]
}

// MarketGrowths compares each market's summed volume with the prior year,
// ordered by market name.
func MarketGrowths(records []domain.MarketRecord) []domain.MarketGrowth {
	byMarket := make(map[string]*domain.MarketGrowth)
	for _, r := range records {
		g, ok := byMarket[r.Market]
		if !ok {
			g = &domain.MarketGrowth{Market: r.Market}
			byMarket[r.Market] = g
		}
		g.CurrentVolume += r.CurrentVolume
		g.PriorVolume += r.PriorVolume
	}

	out := make([]domain.MarketGrowth, 0, len(byMarket))
	for _, g := range byMarket {
		g.GrowthPercent = Round2(GrowthPercent(g.CurrentVolume, g.PriorVolume))
		g.CurrentVolume = Round2(g.CurrentVolume)
		g.PriorVolume = Round2(g.PriorVolume)
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Market < out[j].Market })
	return out
}

// SignificantGrowth keeps markets above minVolume with a prior-year
// baseline and |growth| below maxAbsGrowth, fastest growth first.
func SignificantGrowth(growths []domain.MarketGrowth, minVolume, maxAbsGrowth float64) []domain.MarketGrowth {
	var out []domain.MarketGrowth
	for _, g := range growths {
		if g.CurrentVolume > minVolume && g.PriorVolume > 0 && math.Abs(g.GrowthPercent) < maxAbsGrowth {
			out = append(out, g)
		}
	}
	sortByGrowth(out)
	return out
}

// FastestGrowing returns the n markets above minVolume with the largest
// growth against a non-zero prior year.
func FastestGrowing(growths []domain.MarketGrowth, minVolume float64, n int) []domain.MarketGrowth {
	if n <= 0 {
		n = DefaultFastestGrowing
	}
	var out []domain.MarketGrowth
	for _, g := range growths {
		if g.CurrentVolume > minVolume && g.PriorVolume > 0 {
			out = append(out, g)
		}
	}
	sortByGrowth(out)
	if len(out) > n {
		out = out[:n]
	}
	return out
}

func sortByGrowth(g []domain.MarketGrowth) {
	sort.Slice(g, func(i, j int) bool {
		if g[i].GrowthPercent != g[j].GrowthPercent {
			return g[i].GrowthPercent > g[j].GrowthPercent
		}
		return g[i].Market < g[j].Market
	})
}

// PriceTrends is the mean current-week price per (week, category)
func PriceTrends(records []domain.MarketRecord) []domain.PriceTrend {
	type key struct {
		week int
		cat  domain.Category
	}
	type acc struct {
		sum float64
		n   int
	}
	groups := make(map[key]*acc)
	for _, r := range records {
		k := key{r.Week, r.Category}
		a, ok := groups[k]
		if !ok {
			a = &acc{}
			groups[k] = a
		}
		a.sum += r.CurrentPrice
		a.n++
	}

	out := make([]domain.PriceTrend, 0, len(groups))
	for k, a := range groups {
		out = append(out, domain.PriceTrend{Week: k.week, Category: k.cat, AvgPrice: Round2(a.sum / float64(a.n))})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Week != out[j].Week {
			return out[i].Week < out[j].Week
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// ComputeInsights derives the headline figures for a combined dataset
func ComputeInsights(records []domain.MarketRecord, now time.Time) domain.Insights {
	ins := domain.Insights{
		ProcessingDate: now,
		TotalRecords:   len(records),
	}
	if len(records) == 0 {
		return ins
	}

	categories := make(map[domain.Category]struct{})
	markets := make(map[string]struct{})
	weeks := make(map[int]struct{})
	var priceSum, priorPriceSum float64

	for _, r := range records {
		ins.TotalVolume += r.CurrentVolume
		ins.TotalPreviousVolume += r.PriorVolume
		priceSum += r.CurrentPrice
		priorPriceSum += r.PriorPrice
		categories[r.Category] = struct{}{}
		markets[r.Market] = struct{}{}
		weeks[r.Week] = struct{}{}
	}

	n := float64(len(records))
	ins.AvgPrice = priceSum / n
	ins.AvgPreviousPrice = priorPriceSum / n
	ins.VolumeGrowthPercent = GrowthPercent(ins.TotalVolume, ins.TotalPreviousVolume)
	ins.PriceChangePercent = GrowthPercent(ins.AvgPrice, ins.AvgPreviousPrice)
	ins.Categories = len(categories)
	ins.Markets = len(markets)
	ins.Weeks = len(weeks)

	summaries := MarketSummaries(records)
	top := summaries[0]
	ins.TopMarket = &top

	highest := summaries[0]
	for _, s := range summaries[1:] {
		if s.AvgPrice > highest.AvgPrice || (s.AvgPrice == highest.AvgPrice && s.Market < highest.Market) {
			highest = s
		}
	}
	ins.HighestPriceMarket = &highest

	ins.FastestGrowing = FastestGrowing(MarketGrowths(records), SignificantVolume, DefaultFastestGrowing)
	return ins
}
