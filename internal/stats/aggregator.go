// Package stats folds a market's canonical product set into a market-level
// statistical summary: distributions, liquidity aggregates, corporate-action
// totals, suspension rates, and yearly evolution.
package stats

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"europulse/internal/mic"
	"europulse/pkg/contracts/domain"
)

// Aggregator computes MarketStats from ProcessedProduct sets. Aside from
// the FetchedAt timestamp, aggregation is deterministic.
type Aggregator struct {
	logger *slog.Logger
	now    func() time.Time
}

// NewAggregator creates a stats aggregator.
func NewAggregator(logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{logger: logger, now: time.Now}
}

// SetClock overrides the timestamp source. Used by tests.
func (a *Aggregator) SetClock(now func() time.Time) {
	a.now = now
}

// AggregateMarket folds the full canonical product set for one market into
// a MarketStats summary. An empty product set yields zero totals and empty
// distributions, not an error.
func (a *Aggregator) AggregateMarket(ctx context.Context, market domain.Market, products []domain.ProcessedProduct) (*domain.MarketStats, error) {
	stats := &domain.MarketStats{
		MarketID:     market.ID,
		MarketName:   market.Name,
		Country:      mic.CountryName(market.MIC),
		ProductCount: len(products),
		FetchedAt:    a.now(),
	}
	if stats.MarketName == "" {
		stats.MarketName = mic.MarketName(market.MIC)
	}

	for _, p := range products {
		// Undefined market caps arrive as 0 and still count toward
		// ProductCount.
		stats.TotalMarketCap += p.MarketCap
	}

	stats.SectorDistribution = distribution(products, func(p domain.ProcessedProduct) string { return p.Sector })
	stats.SubsectorDistribution = distribution(products, func(p domain.ProcessedProduct) string { return p.Subsector })
	stats.CountryDistribution = distribution(products, func(p domain.ProcessedProduct) string { return p.Country })

	stats.Liquidity = aggregateLiquidity(products)
	stats.CorporateActions = summarizeCorporateActions(products)
	stats.Suspension = suspensionStats(products)
	stats.YearlyEvolution = yearlyEvolution(products)

	a.logger.InfoContext(ctx, "market aggregated",
		slog.String("market", market.ID),
		slog.Int("products", stats.ProductCount),
		slog.Float64("total_market_cap", stats.TotalMarketCap),
		slog.Int("suspended", stats.Suspension.SuspendedCount),
	)

	return stats, nil
}

// distribution groups products by a classification dimension. Products with
// no usable value for the dimension are excluded from the buckets and from
// both percentage denominators; "Other" is itself a valid bucket. Buckets
// sort by market cap descending, then product count descending, then label
// ascending for determinism.
func distribution(products []domain.ProcessedProduct, label func(domain.ProcessedProduct) string) []domain.DistributionEntry {
	type bucket struct {
		count     int
		marketCap float64
	}

	buckets := make(map[string]*bucket)
	totalCount := 0
	totalCap := 0.0
	for _, p := range products {
		value := label(p)
		if value == "" {
			continue
		}
		b := buckets[value]
		if b == nil {
			b = &bucket{}
			buckets[value] = b
		}
		b.count++
		b.marketCap += p.MarketCap
		totalCount++
		totalCap += p.MarketCap
	}

	if totalCount == 0 {
		return nil
	}

	entries := make([]domain.DistributionEntry, 0, len(buckets))
	for value, b := range buckets {
		entry := domain.DistributionEntry{
			Label:             value,
			ProductCount:      b.count,
			MarketCap:         b.marketCap,
			PercentageByCount: float64(b.count) / float64(totalCount) * 100,
		}
		if totalCap > 0 {
			entry.PercentageByValue = b.marketCap / totalCap * 100
		}
		entries = append(entries, entry)
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].MarketCap != entries[j].MarketCap {
			return entries[i].MarketCap > entries[j].MarketCap
		}
		if entries[i].ProductCount != entries[j].ProductCount {
			return entries[i].ProductCount > entries[j].ProductCount
		}
		return entries[i].Label < entries[j].Label
	})

	return entries
}

// aggregateLiquidity sums turnover and volume over every product and
// averages the per-product figures over products that report a non-zero
// liquidity record, so untraded products don't understate market activity.
func aggregateLiquidity(products []domain.ProcessedProduct) domain.LiquidityAggregate {
	var agg domain.LiquidityAggregate
	active := 0

	for _, p := range products {
		agg.TotalTurnover += p.Liquidity.Turnover
		agg.TotalVolume += p.Liquidity.Volume
		if p.Liquidity.IsZero() {
			continue
		}
		active++
		agg.AverageDailyTurnover += p.Liquidity.AvgDailyTurnover
		agg.AverageTradingDaysRatio += p.Liquidity.TradingDaysRatio
		agg.AverageTurnoverVelocity += p.Liquidity.TurnoverVelocity
	}

	if active > 0 {
		agg.AverageDailyTurnover /= float64(active)
		agg.AverageTradingDaysRatio /= float64(active)
		agg.AverageTurnoverVelocity /= float64(active)
	}

	return agg
}

// summarizeCorporateActions counts dated events per bucket across all
// products: a product with three dividend dates contributes 3.
func summarizeCorporateActions(products []domain.ProcessedProduct) domain.CorporateActionsSummary {
	var s domain.CorporateActionsSummary
	for _, p := range products {
		ca := p.CorporateActions
		s.Splits += len(ca.Splits)
		s.ReverseSplits += len(ca.ReverseSplits)
		s.Dividends += len(ca.Dividends)
		s.CapitalIncreases += len(ca.CapitalIncreases)
		s.CapitalDecreases += len(ca.CapitalDecreases)
		s.FreeAllocations += len(ca.FreeAllocations)
		s.Listings += len(ca.Listings)
		s.Delistings += len(ca.Delistings)
		s.NameChanges += len(ca.NameChanges)
		s.MarketChanges += len(ca.MarketChanges)
		s.Takeovers += len(ca.Takeovers)
		s.Suspensions += len(ca.Suspensions)
		s.Resumptions += len(ca.Resumptions)
	}
	return s
}

func suspensionStats(products []domain.ProcessedProduct) domain.SuspensionStats {
	var s domain.SuspensionStats
	for _, p := range products {
		if p.IsSuspended {
			s.SuspendedCount++
		}
	}
	if len(products) > 0 {
		s.SuspendedPercentage = float64(s.SuspendedCount) / float64(len(products)) * 100
	}
	return s
}

// yearlyEvolution groups yearly history entries across all products by
// year, ascending.
func yearlyEvolution(products []domain.ProcessedProduct) []domain.YearlyEvolutionEntry {
	type yearBucket struct {
		count    int
		totalCap float64
	}

	years := make(map[int]*yearBucket)
	for _, p := range products {
		for _, entry := range p.YearlyHistory {
			b := years[entry.Year]
			if b == nil {
				b = &yearBucket{}
				years[entry.Year] = b
			}
			b.count++
			b.totalCap += entry.MarketCap
		}
	}

	if len(years) == 0 {
		return nil
	}

	evolution := make([]domain.YearlyEvolutionEntry, 0, len(years))
	for year, b := range years {
		evolution = append(evolution, domain.YearlyEvolutionEntry{
			Year:             year,
			ProductCount:     b.count,
			TotalMarketCap:   b.totalCap,
			AverageMarketCap: b.totalCap / float64(b.count),
		})
	}

	sort.Slice(evolution, func(i, j int) bool {
		return evolution[i].Year < evolution[j].Year
	})

	return evolution
}
