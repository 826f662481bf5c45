package liquidity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"europulse/pkg/contracts/domain"
)

func day(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
}

func TestDayTurnover(t *testing.T) {
	tests := []struct {
		name string
		obs  PriceObservation
		want float64
	}{
		{"reported turnover wins", PriceObservation{Close: 10, Volume: 100, Turnover: 1234}, 1234},
		{"derived from close and volume", PriceObservation{Close: 10, Volume: 100}, 1000},
		{"volume without close", PriceObservation{Volume: 100}, 0},
		{"close without volume", PriceObservation{Close: 10}, 0},
		{"empty observation", PriceObservation{}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.obs.DayTurnover())
		})
	}
}

func TestCompute(t *testing.T) {
	t.Run("sums volume and turnover over the year", func(t *testing.T) {
		observations := []PriceObservation{
			{Date: day(2), Close: 10, Volume: 100, Turnover: 1000},
			{Date: day(3), Close: 11, Volume: 200},
			{Date: day(4), Close: 12},
		}

		liq := Compute(observations, 250, 100_000)

		assert.Equal(t, 300.0, liq.Volume)
		assert.Equal(t, 3200.0, liq.Turnover) // 1000 reported + 11*200 derived
		assert.InDelta(t, 3200.0/250, liq.AvgDailyTurnover, 1e-9)
		assert.InDelta(t, 2.0/250, liq.TradingDaysRatio, 1e-9)
		assert.InDelta(t, 3200.0/100_000, liq.TurnoverVelocity, 1e-9)
	})

	t.Run("empty observations yield zero liquidity", func(t *testing.T) {
		liq := Compute(nil, 250, 100_000)
		assert.True(t, liq.IsZero())
	})

	t.Run("zero market days skips the ratio figures", func(t *testing.T) {
		liq := Compute([]PriceObservation{{Date: day(2), Close: 10, Volume: 5}}, 0, 100_000)
		assert.Equal(t, 0.0, liq.AvgDailyTurnover)
		assert.Equal(t, 0.0, liq.TradingDaysRatio)
		assert.Equal(t, 50.0, liq.Turnover)
	})

	t.Run("zero average cap skips turnover velocity", func(t *testing.T) {
		liq := Compute([]PriceObservation{{Date: day(2), Close: 10, Volume: 5}}, 250, 0)
		assert.Equal(t, 0.0, liq.TurnoverVelocity)
		assert.Greater(t, liq.Turnover, 0.0)
	})

	t.Run("trading days ratio capped at one", func(t *testing.T) {
		// More volume-positive days than the configured window.
		observations := make([]PriceObservation, 260)
		for i := range observations {
			observations[i] = PriceObservation{Date: day(1).AddDate(0, 0, i), Close: 10, Volume: 100}
		}

		liq := Compute(observations, 254, 100_000)
		assert.Equal(t, 1.0, liq.TradingDaysRatio)
	})

	t.Run("figures never go negative", func(t *testing.T) {
		observations := []PriceObservation{
			{Date: day(2), Close: 1, Volume: 1},
			{Date: day(3)},
		}

		liq := Compute(observations, 250, 1_000_000)
		assert.GreaterOrEqual(t, liq.Volume, 0.0)
		assert.GreaterOrEqual(t, liq.Turnover, 0.0)
		assert.GreaterOrEqual(t, liq.AvgDailyTurnover, 0.0)
		assert.GreaterOrEqual(t, liq.TradingDaysRatio, 0.0)
		assert.GreaterOrEqual(t, liq.TurnoverVelocity, 0.0)
	})
}

func TestAverageMarketCap(t *testing.T) {
	tests := []struct {
		name    string
		history []domain.YearlyEntry
		want    float64
	}{
		{"mean over entries", []domain.YearlyEntry{{Year: 2022, MarketCap: 100}, {Year: 2023, MarketCap: 300}}, 200},
		{"zero-cap years ignored", []domain.YearlyEntry{{Year: 2022, MarketCap: 0}, {Year: 2023, MarketCap: 300}}, 300},
		{"all zero", []domain.YearlyEntry{{Year: 2022}, {Year: 2023}}, 0},
		{"empty history", nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AverageMarketCap(tt.history))
		})
	}
}
