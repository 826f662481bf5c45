package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"europulse/pkg/contracts/domain"
)

func writeMarketsFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "markets.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadMarketsEmbeddedDefaults(t *testing.T) {
	markets, err := LoadMarkets("")
	require.NoError(t, err)
	require.NotEmpty(t, markets)

	ids := make(map[string]domain.Market, len(markets))
	for _, m := range markets {
		ids[m.ID] = m
	}

	continuo, ok := ids["bme-continuo"]
	require.True(t, ok)
	assert.Equal(t, domain.FamilyBMEContinuo, continuo.Family)
	assert.Equal(t, "XMAD", continuo.MIC)
	assert.Greater(t, continuo.MarketDays, 0)
	assert.Contains(t, []string(continuo.RequiredFields), "isin")
	assert.Contains(t, []string(continuo.RequiredFields), "tradingInfoBean.currency")

	paris, ok := ids["euronext-paris"]
	require.True(t, ok)
	assert.Equal(t, domain.FamilyEuronext, paris.Family)
	assert.True(t, paris.Family.CrossListed())

	_, ok = ids["portfolio"]
	assert.True(t, ok)
}

func TestLoadMarketsFromFile(t *testing.T) {
	path := writeMarketsFile(t, `
markets:
  - id: test-market
    name: Test Market
    family: euronext
    mic: XPAR
    market_days: 256
    required_fields: [isin, name]
`)

	markets, err := LoadMarkets(path)
	require.NoError(t, err)
	require.Len(t, markets, 1)
	assert.Equal(t, "test-market", markets[0].ID)
	assert.Equal(t, domain.RequiredFieldSet{"isin", "name"}, markets[0].RequiredFields)
}

func TestLoadMarketsRejections(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown family", `
markets:
  - id: test
    name: Test
    family: nasdaq
    mic: XNAS
    market_days: 252
    required_fields: [isin]
`},
		{"duplicate id", `
markets:
  - id: test
    name: Test
    family: euronext
    mic: XPAR
    market_days: 256
    required_fields: [isin]
  - id: test
    name: Test Again
    family: euronext
    mic: XAMS
    market_days: 256
    required_fields: [isin]
`},
		{"no markets", `markets: []`},
		{"invalid yaml", `markets: [`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadMarkets(writeMarketsFile(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestLoadMarketsMissingFile(t *testing.T) {
	_, err := LoadMarkets(filepath.Join(t.TempDir(), "nope.yml"))
	assert.Error(t, err)
}

func TestMarketByID(t *testing.T) {
	markets := []domain.Market{
		{ID: "a", Name: "A", Family: domain.FamilyEuronext, MIC: "XPAR"},
		{ID: "b", Name: "B", Family: domain.FamilyPortfolio, MIC: "PORT"},
	}

	m, ok := MarketByID(markets, "b")
	assert.True(t, ok)
	assert.Equal(t, "B", m.Name)

	_, ok = MarketByID(markets, "c")
	assert.False(t, ok)
}
