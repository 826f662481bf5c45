package domain

// MarketFamily identifies which of the known source schemas a raw record
// was parsed from. The family selects the mapping into the canonical
// ProcessedProduct shape and the taxonomy table to consult.
type MarketFamily string

const (
	FamilyBMEContinuo    MarketFamily = "bme-continuo"
	FamilyBMEAlternative MarketFamily = "bme-alternative"
	FamilyEuronext       MarketFamily = "euronext"
	FamilyPortfolio      MarketFamily = "portfolio"
)

// IsValid reports whether the family is one of the known source schemas.
func (f MarketFamily) IsValid() bool {
	switch f {
	case FamilyBMEContinuo, FamilyBMEAlternative, FamilyEuronext, FamilyPortfolio:
		return true
	}
	return false
}

// CrossListed reports whether listings in this family may legitimately
// reference each other for backfilling. Only the Euronext family qualifies:
// the same issuer can be dual-listed across its segments.
func (f MarketFamily) CrossListed() bool {
	return f == FamilyEuronext
}

// RawDetailRecord is one security-detail record as produced by the
// fetch/parse collaborators. Data is the parsed payload, a nested mapping
// addressed with dot-notation field paths. The record is consumed once by
// the normalization pipeline and never persisted by the core.
type RawDetailRecord struct {
	Family MarketFamily   `json:"family"`
	Data   map[string]any `json:"data"`
}

// RequiredFieldSet is the ordered sequence of dot-notation field paths a
// market requires on each raw record, e.g. "tradingInfoBean.lastTradingPrice".
// Order is significant: validation reports missing fields in this order.
type RequiredFieldSet []string

// Market describes one configured market: its identifier, source schema
// family, venue MIC code, the trading-eligible window used for liquidity
// ratios, and the required field paths for its raw records.
type Market struct {
	ID             string           `json:"id" yaml:"id" validate:"required"`
	Name           string           `json:"name" yaml:"name"`
	Family         MarketFamily     `json:"family" yaml:"family" validate:"required"`
	MIC            string           `json:"mic" yaml:"mic"`
	MarketDays     int              `json:"market_days" yaml:"market_days" validate:"gte=0"`
	RequiredFields RequiredFieldSet `json:"required_fields" yaml:"required_fields"`
}
