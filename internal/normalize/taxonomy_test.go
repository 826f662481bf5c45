package normalize

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"europulse/pkg/contracts/domain"
)

func newTestUnifier(t *testing.T) *TaxonomyUnifier {
	t.Helper()
	unifier, err := NewTaxonomyUnifier("", nil)
	require.NoError(t, err)
	require.Greater(t, unifier.Size(), 0)
	return unifier
}

func TestTaxonomyUnifier(t *testing.T) {
	unifier := newTestUnifier(t)
	ctx := context.Background()

	tests := []struct {
		name      string
		family    domain.MarketFamily
		label     string
		sector    string
		subsector string
	}{
		{"bme banks", domain.FamilyBMEContinuo, "Bancos y Cajas de Ahorro", "Banks", "Commercial Banks"},
		{"bme energy", domain.FamilyBMEContinuo, "Petróleo y Energía", "Energy", "Oil & Gas"},
		{"label trimmed before lookup", domain.FamilyBMEContinuo, "  Seguros  ", "Insurance", "Full Line Insurance"},
		{"euronext technology", domain.FamilyEuronext, "Software & Computer Services", "Technology", "Software & Computer Services"},
		{"bme growth socimi", domain.FamilyBMEAlternative, "SOCIMI", "Real Estate", "REITs"},
		{"portfolio reit", domain.FamilyPortfolio, "REIT", "Real Estate", "REITs"},
		{"unmapped label", domain.FamilyBMEContinuo, "Xyzzy", "Other", "Other"},
		{"label from wrong family", domain.FamilyPortfolio, "Bancos y Cajas de Ahorro", "Other", "Other"},
		{"empty label", domain.FamilyEuronext, "", "Other", "Other"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pair := unifier.Unify(ctx, tt.family, tt.label)
			assert.Equal(t, tt.sector, pair.Sector)
			assert.Equal(t, tt.subsector, pair.Subsector)
		})
	}
}

func TestTaxonomyUnifierDeterminism(t *testing.T) {
	unifier := newTestUnifier(t)
	ctx := context.Background()

	first := unifier.Unify(ctx, domain.FamilyEuronext, "Banks")
	for i := 0; i < 100; i++ {
		assert.Equal(t, first, unifier.Unify(ctx, domain.FamilyEuronext, "Banks"))
	}
}

func TestTaxonomyUnifierRejectsEmptySector(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/taxonomy.yml"
	writeFile(t, path, "families:\n  euronext:\n    \"Banks\": { sector: \"\", subsector: \"x\" }\n")

	_, err := NewTaxonomyUnifier(path, nil)
	assert.Error(t, err)
}
