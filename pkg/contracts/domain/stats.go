package domain

import (
	"time"
)

// MarketStats is the market-level summary folded from one market's full
// canonical product set.
type MarketStats struct {
	MarketID       string  `json:"market_id"`
	MarketName     string  `json:"market_name,omitempty"`
	Country        string  `json:"country,omitempty"`
	ProductCount   int     `json:"product_count"`
	TotalMarketCap float64 `json:"total_market_cap"`

	SectorDistribution    []DistributionEntry `json:"sector_distribution"`
	SubsectorDistribution []DistributionEntry `json:"subsector_distribution"`
	CountryDistribution   []DistributionEntry `json:"country_distribution"`

	Liquidity        LiquidityAggregate      `json:"liquidity"`
	CorporateActions CorporateActionsSummary `json:"corporate_actions"`
	Suspension       SuspensionStats         `json:"suspension"`
	YearlyEvolution  []YearlyEvolutionEntry  `json:"yearly_evolution"`

	FetchedAt time.Time `json:"fetched_at"`
}

// DistributionEntry is one bucket of a sector/subsector/country
// distribution. Percentages are relative to the products that carry a value
// for the dimension; "Other" is a real bucket, absent values are excluded.
type DistributionEntry struct {
	Label             string  `json:"label"`
	ProductCount      int     `json:"product_count"`
	MarketCap         float64 `json:"market_cap"`
	PercentageByCount float64 `json:"percentage_by_count"`
	PercentageByValue float64 `json:"percentage_by_value"`
}

// LiquidityAggregate holds market-level liquidity totals and per-product
// averages. Averages run over products with a non-zero liquidity record;
// totals include every product.
type LiquidityAggregate struct {
	TotalTurnover           float64 `json:"total_turnover"`
	TotalVolume             float64 `json:"total_volume"`
	AverageDailyTurnover    float64 `json:"average_daily_turnover"`
	AverageTradingDaysRatio float64 `json:"average_trading_days_ratio"`
	AverageTurnoverVelocity float64 `json:"average_turnover_velocity"`
}

// CorporateActionsSummary counts dated events per bucket across all
// products in the market. A product with three dividend dates contributes 3.
type CorporateActionsSummary struct {
	Splits           int `json:"splits"`
	ReverseSplits    int `json:"reverse_splits"`
	Dividends        int `json:"dividends"`
	CapitalIncreases int `json:"capital_increases"`
	CapitalDecreases int `json:"capital_decreases"`
	FreeAllocations  int `json:"free_allocations"`
	Listings         int `json:"listings"`
	Delistings       int `json:"delistings"`
	NameChanges      int `json:"name_changes"`
	MarketChanges    int `json:"market_changes"`
	Takeovers        int `json:"takeovers"`
	Suspensions      int `json:"suspensions"`
	Resumptions      int `json:"resumptions"`
}

// SuspensionStats summarizes trading suspensions across the market.
type SuspensionStats struct {
	SuspendedCount      int     `json:"suspended_count"`
	SuspendedPercentage float64 `json:"suspended_percentage"`
}

// YearlyEvolutionEntry aggregates the products reporting a given year in
// their market-cap history.
type YearlyEvolutionEntry struct {
	Year             int     `json:"year"`
	ProductCount     int     `json:"product_count"`
	TotalMarketCap   float64 `json:"total_market_cap"`
	AverageMarketCap float64 `json:"average_market_cap"`
}
