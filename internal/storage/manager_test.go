package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"europulse/internal/errors"
	"europulse/pkg/contracts/domain"
)

func newTestManager(t *testing.T) (*Manager, string) {
	t.Helper()
	dir := t.TempDir()
	return NewManager(dir, nil), dir
}

func writeRawBatch(t *testing.T, dir, marketID, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "raw"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "raw", marketID+".json"), []byte(content), 0644))
}

func TestLoadRawBatch(t *testing.T) {
	ctx := context.Background()

	t.Run("records tagged with the batch family", func(t *testing.T) {
		m, dir := newTestManager(t)
		writeRawBatch(t, dir, "bme-growth", `{
			"market_id": "bme-growth",
			"family": "bme-alternative",
			"records": [
				{"isin": "ES0100000001", "name": "First"},
				{"isin": "ES0100000002", "name": "Second"}
			]
		}`)

		records, err := m.LoadRawBatch(ctx, "bme-growth")
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, domain.FamilyBMEAlternative, records[0].Family)
		assert.Equal(t, "First", records[0].Data["name"])
	})

	t.Run("missing batch is a not-found error", func(t *testing.T) {
		m, _ := newTestManager(t)

		_, err := m.LoadRawBatch(ctx, "nowhere")
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrTypeNotFound))
	})

	t.Run("malformed JSON is a parsing error", func(t *testing.T) {
		m, dir := newTestManager(t)
		writeRawBatch(t, dir, "broken", `{"market_id": "broken",`)

		_, err := m.LoadRawBatch(ctx, "broken")
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrTypeParsing))
	})

	t.Run("unknown family is rejected", func(t *testing.T) {
		m, dir := newTestManager(t)
		writeRawBatch(t, dir, "weird", `{"market_id": "weird", "family": "nasdaq", "records": []}`)

		_, err := m.LoadRawBatch(ctx, "weird")
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrTypeParsing))
	})
}

func TestProductsRoundTrip(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t)

	result := &domain.NormalizeResult{
		MarketID: "bme-continuo",
		Products: []domain.ProcessedProduct{
			{
				ISIN: "ES0113900J37", Name: "Banco Santander", Sector: "Banks",
				MarketCap: 61_000_000_000, Currency: "EUR",
				ListingDate: time.Date(1987, 7, 29, 0, 0, 0, 0, time.UTC),
			},
		},
		ProductsWithMissingFields: []domain.ProductWarning{
			{Name: "Thin Record", MissingFields: []string{"currency"}},
		},
	}

	require.NoError(t, m.SaveProducts(ctx, result))

	loaded, err := m.LoadProducts(ctx, "bme-continuo")
	require.NoError(t, err)
	assert.Equal(t, result, loaded)
}

func TestStatsRoundTrip(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t)

	stats := &domain.MarketStats{
		MarketID: "euronext-paris", MarketName: "Euronext Paris", Country: "France",
		ProductCount: 2, TotalMarketCap: 1000,
		SectorDistribution: []domain.DistributionEntry{
			{Label: "Banks", ProductCount: 2, MarketCap: 1000, PercentageByCount: 100, PercentageByValue: 100},
		},
		FetchedAt: time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC),
	}

	require.NoError(t, m.SaveStats(ctx, stats))

	loaded, err := m.LoadStats(ctx, "euronext-paris")
	require.NoError(t, err)
	assert.Equal(t, stats, loaded)
}

func TestLoadStatsNotFound(t *testing.T) {
	m, _ := newTestManager(t)

	_, err := m.LoadStats(context.Background(), "nowhere")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeNotFound))
}

func TestListMarketsWithStats(t *testing.T) {
	ctx := context.Background()

	t.Run("sorted identifiers", func(t *testing.T) {
		m, _ := newTestManager(t)
		require.NoError(t, m.SaveStats(ctx, &domain.MarketStats{MarketID: "portfolio"}))
		require.NoError(t, m.SaveStats(ctx, &domain.MarketStats{MarketID: "bme-continuo"}))

		markets, err := m.ListMarketsWithStats(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"bme-continuo", "portfolio"}, markets)
	})

	t.Run("empty when nothing persisted", func(t *testing.T) {
		m, _ := newTestManager(t)

		markets, err := m.ListMarketsWithStats(ctx)
		require.NoError(t, err)
		assert.Empty(t, markets)
	})
}
