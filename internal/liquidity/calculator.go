// Package liquidity derives per-product liquidity figures from one calendar
// year of daily price observations. All figures are simple reductions: no
// smoothing, no calendar-gap interpolation.
package liquidity

import (
	"time"

	"europulse/pkg/contracts/domain"
)

// PriceObservation is one daily price record from a product's price
// history. Volume and Turnover are optional in the source data; absent
// values arrive as zero.
type PriceObservation struct {
	Date     time.Time `json:"date"`
	Close    float64   `json:"close"`
	Volume   float64   `json:"volume,omitempty"`
	Turnover float64   `json:"turnover,omitempty"`
}

// DayTurnover returns the observation's turnover: the reported turnover if
// present, else close*volume when both are present, else 0.
func (o PriceObservation) DayTurnover() float64 {
	if o.Turnover > 0 {
		return o.Turnover
	}
	if o.Close > 0 && o.Volume > 0 {
		return o.Close * o.Volume
	}
	return 0
}

// Compute folds a year's price observations into the product's Liquidity
// record. marketDays is the number of calendar days in the year's
// trading-eligible window; averageMarketCap is the product's average market
// capitalization for the year, derived from its yearly history by the
// caller. A zero or unavailable average market cap reports turnover
// velocity as 0 rather than dividing by zero. An empty observation sequence
// yields an all-zero Liquidity, not an error.
func Compute(observations []PriceObservation, marketDays int, averageMarketCap float64) domain.Liquidity {
	var liq domain.Liquidity
	if len(observations) == 0 {
		return liq
	}

	tradingDays := 0
	for _, obs := range observations {
		liq.Volume += obs.Volume
		liq.Turnover += obs.DayTurnover()
		if obs.Volume > 0 {
			tradingDays++
		}
	}

	if marketDays > 0 {
		// A venue can publish more trading days than the configured
		// window; the ratio stays within [0,1].
		if tradingDays > marketDays {
			tradingDays = marketDays
		}
		liq.TradingDaysRatio = float64(tradingDays) / float64(marketDays)
		liq.AvgDailyTurnover = liq.Turnover / float64(marketDays)
	}
	if averageMarketCap > 0 {
		liq.TurnoverVelocity = liq.Turnover / averageMarketCap
	}

	return liq
}

// AverageMarketCap returns the mean market capitalization across a
// product's yearly history entries, ignoring zero-cap years. Used to feed
// the turnover velocity denominator.
func AverageMarketCap(history []domain.YearlyEntry) float64 {
	total := 0.0
	count := 0
	for _, entry := range history {
		if entry.MarketCap > 0 {
			total += entry.MarketCap
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return total / float64(count)
}
