package pipeline

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"europulse/internal/exporter"
	"europulse/internal/normalize"
	"europulse/internal/stats"
	"europulse/internal/storage"
	"europulse/pkg/contracts/domain"
)

var runnerMarkets = []domain.Market{
	{
		ID: "bme-growth", Name: "BME Growth", Family: domain.FamilyBMEAlternative,
		MIC: "MABX", MarketDays: 254,
		RequiredFields: domain.RequiredFieldSet{"isin", "name", "ticker", "sector", "currency", "marketCap"},
	},
	{
		ID: "portfolio", Name: "Portfolio Stock Exchange", Family: domain.FamilyPortfolio,
		MIC: "PORT", MarketDays: 250,
		RequiredFields: domain.RequiredFieldSet{"isin", "companyName", "ticker", "sector", "currency"},
	},
}

func writeRawBatch(t *testing.T, dataDir, marketID string, batch map[string]any) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Join(dataDir, "raw"), 0755))
	data, err := json.Marshal(batch)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, "raw", marketID+".json"), data, 0644))
}

func newTestRunner(t *testing.T, dataDir, reportsDir string) *Runner {
	t.Helper()

	unifier, err := normalize.NewTaxonomyUnifier("", nil)
	require.NoError(t, err)
	resolver := normalize.NewMigrationResolver(runnerMarkets, nil)
	normalizer := normalize.NewNormalizer(unifier, resolver, nil)

	store := storage.NewManager(dataDir, nil)
	aggregator := stats.NewAggregator(nil)
	reports := exporter.NewReportWriter(reportsDir, nil)
	productsCSV := exporter.NewCSVWriter(reportsDir, nil)

	return NewRunner(store, normalizer, aggregator, reports, productsCSV, nil, 2)
}

func TestRunnerEndToEnd(t *testing.T) {
	dataDir := t.TempDir()
	reportsDir := t.TempDir()

	writeRawBatch(t, dataDir, "bme-growth", map[string]any{
		"market_id": "bme-growth",
		"family":    "bme-alternative",
		"records": []map[string]any{
			{
				"isin": "ES0100000001", "name": "Growth One", "ticker": "GRO",
				"sector": "SOCIMI", "currency": "EUR", "marketCap": 120_000_000.0,
				"priceHistory": []map[string]any{
					{"date": "2024-03-04", "close": 12.0, "volume": 4000.0},
				},
			},
			{
				"isin": "ES0100000002", "name": "Growth Two", "ticker": "GRT",
				"sector": "Tecnología", "currency": "EUR", "marketCap": 80_000_000.0,
			},
		},
	})
	writeRawBatch(t, dataDir, "portfolio", map[string]any{
		"market_id": "portfolio",
		"family":    "portfolio",
		"records": []map[string]any{
			{
				"isin": "ES0105622009", "companyName": "Doalca", "ticker": "DOALCA",
				"sector": "REIT", "currency": "EUR", "marketCap": 250_000_000.0,
			},
		},
	})

	runner := newTestRunner(t, dataDir, reportsDir)
	report, err := runner.Run(context.Background(), runnerMarkets)
	require.NoError(t, err)

	require.NotEmpty(t, report.RunID)
	require.Len(t, report.Markets, 2)
	assert.Empty(t, report.Failed())

	byID := make(map[string]MarketOutcome, len(report.Markets))
	for _, outcome := range report.Markets {
		byID[outcome.MarketID] = outcome
	}
	assert.Equal(t, 2, byID["bme-growth"].Products)
	assert.Equal(t, 1, byID["portfolio"].Products)

	// Products, stats, and reports all persisted.
	store := storage.NewManager(dataDir, nil)
	result, err := store.LoadProducts(context.Background(), "bme-growth")
	require.NoError(t, err)
	assert.Len(t, result.Products, 2)
	assert.Equal(t, "Real Estate", result.Products[0].Sector)

	marketStats, err := store.LoadStats(context.Background(), "bme-growth")
	require.NoError(t, err)
	assert.Equal(t, 2, marketStats.ProductCount)
	assert.Equal(t, 200_000_000.0, marketStats.TotalMarketCap)

	assert.FileExists(t, filepath.Join(reportsDir, "bme-growth_stats.xlsx"))
	assert.FileExists(t, filepath.Join(reportsDir, "bme-growth_products.csv"))
	assert.FileExists(t, filepath.Join(reportsDir, "portfolio_stats.xlsx"))
}

func TestRunnerMarketFailureDoesNotCancelSiblings(t *testing.T) {
	dataDir := t.TempDir()
	reportsDir := t.TempDir()

	// Only the portfolio batch exists; bme-growth has no raw data.
	writeRawBatch(t, dataDir, "portfolio", map[string]any{
		"market_id": "portfolio",
		"family":    "portfolio",
		"records": []map[string]any{
			{
				"isin": "ES0105622009", "companyName": "Doalca", "ticker": "DOALCA",
				"sector": "REIT", "currency": "EUR", "marketCap": 250_000_000.0,
			},
		},
	})

	runner := newTestRunner(t, dataDir, reportsDir)
	report, err := runner.Run(context.Background(), runnerMarkets)
	require.NoError(t, err)

	failed := report.Failed()
	require.Len(t, failed, 1)
	assert.Equal(t, "bme-growth", failed[0].MarketID)
	require.Error(t, failed[0].Err)

	byID := make(map[string]MarketOutcome, len(report.Markets))
	for _, outcome := range report.Markets {
		byID[outcome.MarketID] = outcome
	}
	assert.NoError(t, byID["portfolio"].Err)
	assert.Equal(t, 1, byID["portfolio"].Products)
}

func TestRunnerEmptyBatchFails(t *testing.T) {
	dataDir := t.TempDir()

	writeRawBatch(t, dataDir, "portfolio", map[string]any{
		"market_id": "portfolio",
		"family":    "portfolio",
		"records":   []map[string]any{},
	})

	runner := newTestRunner(t, dataDir, t.TempDir())
	report, err := runner.Run(context.Background(), runnerMarkets[1:])
	require.NoError(t, err)

	failed := report.Failed()
	require.Len(t, failed, 1)
	assert.Equal(t, "portfolio", failed[0].MarketID)
}
