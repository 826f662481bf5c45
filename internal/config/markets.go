package config

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v2"

	"europulse/pkg/contracts/domain"
)

// defaultMarkets holds the built-in market definitions. A deployment can
// override them with paths.markets_file without rebuilding.
//
//go:embed markets.yml
var defaultMarkets []byte

// marketsFile mirrors the YAML layout of the market definitions file.
type marketsFile struct {
	Markets []domain.Market `yaml:"markets"`
}

// LoadMarkets loads the market definitions from path, or the embedded
// defaults when path is empty. Definitions are validated and must carry
// unique identifiers and known schema families.
func LoadMarkets(path string) ([]domain.Market, error) {
	data := defaultMarkets
	if path != "" {
		fileData, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read markets file: %w", err)
		}
		data = fileData
	}

	var mf marketsFile
	if err := yaml.Unmarshal(data, &mf); err != nil {
		return nil, fmt.Errorf("parse markets file: %w", err)
	}
	if len(mf.Markets) == 0 {
		return nil, fmt.Errorf("markets file defines no markets")
	}

	v := validator.New()
	seen := make(map[string]bool, len(mf.Markets))
	for _, m := range mf.Markets {
		if err := v.Struct(m); err != nil {
			return nil, fmt.Errorf("invalid market definition %q: %w", m.ID, err)
		}
		if !m.Family.IsValid() {
			return nil, fmt.Errorf("market %q has unknown family %q", m.ID, m.Family)
		}
		if seen[m.ID] {
			return nil, fmt.Errorf("duplicate market id %q", m.ID)
		}
		seen[m.ID] = true
	}

	return mf.Markets, nil
}

// MarketByID returns the market with the given identifier.
func MarketByID(markets []domain.Market, id string) (domain.Market, bool) {
	for _, m := range markets {
		if m.ID == id {
			return m, true
		}
	}
	return domain.Market{}, false
}
