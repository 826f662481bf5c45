package domain

import (
	"time"
)

// ProcessedProduct is the canonical security record all four source schemas
// normalize into. ISIN is non-empty and unique within one market's output
// set; YearlyHistory is ascending by year with no duplicates;
// MarketMigrations is ascending by date.
type ProcessedProduct struct {
	// Identity
	ISIN   string `json:"isin"`
	Ticker string `json:"ticker,omitempty"`
	Name   string `json:"name"`
	URL    string `json:"url,omitempty"`

	// Classification (unified taxonomy)
	Sector    string `json:"sector,omitempty"`
	Subsector string `json:"subsector,omitempty"`
	Country   string `json:"country,omitempty"`

	// Economics
	Currency     string  `json:"currency,omitempty"`
	MarketCap    float64 `json:"market_cap"`
	LastPrice    float64 `json:"last_price"`
	Shares       float64 `json:"shares"`
	NominalValue float64 `json:"nominal_value"`

	// Lifecycle
	ListingDate       time.Time `json:"listing_date,omitempty"`
	MarketListingDate time.Time `json:"market_listing_date,omitempty"`
	IsSuspended       bool      `json:"is_suspended"`
	SuspendedDate     time.Time `json:"suspended_date,omitempty"`

	Liquidity        Liquidity         `json:"liquidity"`
	CorporateActions CorporateActions  `json:"corporate_actions"`
	MarketMigrations []MarketMigration `json:"market_migrations,omitempty"`
	YearlyHistory    []YearlyEntry     `json:"yearly_history,omitempty"`
}

// Liquidity holds the per-product liquidity figures derived from one
// calendar year of price history.
type Liquidity struct {
	AvgDailyTurnover float64 `json:"avg_daily_turnover"`
	TurnoverVelocity float64 `json:"turnover_velocity"`
	TradingDaysRatio float64 `json:"trading_days_ratio"`
	Turnover         float64 `json:"turnover"`
	Volume           float64 `json:"volume"`
}

// IsZero reports whether the product recorded no trading activity at all.
// Zero-liquidity products are excluded from market-level liquidity averages.
func (l Liquidity) IsZero() bool {
	return l.AvgDailyTurnover == 0 && l.TurnoverVelocity == 0 &&
		l.TradingDaysRatio == 0 && l.Turnover == 0 && l.Volume == 0
}

// CorporateActions groups a product's dated corporate events into the
// thirteen canonical buckets.
type CorporateActions struct {
	Splits           []time.Time `json:"splits,omitempty"`
	ReverseSplits    []time.Time `json:"reverse_splits,omitempty"`
	Dividends        []time.Time `json:"dividends,omitempty"`
	CapitalIncreases []time.Time `json:"capital_increases,omitempty"`
	CapitalDecreases []time.Time `json:"capital_decreases,omitempty"`
	FreeAllocations  []time.Time `json:"free_allocations,omitempty"`
	Listings         []time.Time `json:"listings,omitempty"`
	Delistings       []time.Time `json:"delistings,omitempty"`
	NameChanges      []time.Time `json:"name_changes,omitempty"`
	MarketChanges    []time.Time `json:"market_changes,omitempty"`
	Takeovers        []time.Time `json:"takeovers,omitempty"`
	Suspensions      []time.Time `json:"suspensions,omitempty"`
	Resumptions      []time.Time `json:"resumptions,omitempty"`
}

// MarketMigration records one transition of a product between market
// segments. From and To are known market identifiers, a closed set of
// legacy segment labels, or "unknown".
type MarketMigration struct {
	Date       time.Time `json:"date"`
	FromMarket string    `json:"from_market"`
	ToMarket   string    `json:"to_market"`
	Name       string    `json:"name,omitempty"`
	Ticker     string    `json:"ticker,omitempty"`
}

// YearlyEntry is one year of a product's market capitalization history.
type YearlyEntry struct {
	Year      int     `json:"year"`
	MarketCap float64 `json:"market_cap"`
}

// ProductWarning surfaces a product that survived normalization with
// required fields still missing after backfill.
type ProductWarning struct {
	Name          string   `json:"name"`
	MissingFields []string `json:"missing_fields"`
}

// ProductError surfaces a raw record rejected from the market's product set,
// with a human-readable reason.
type ProductError struct {
	Name  string `json:"name"`
	Error string `json:"error"`
}

// NormalizeResult is the outcome of normalizing one market's raw batch.
type NormalizeResult struct {
	MarketID                  string             `json:"market_id"`
	Products                  []ProcessedProduct `json:"products"`
	ProductsWithMissingFields []ProductWarning   `json:"products_with_missing_fields,omitempty"`
	ProductsWithError         []ProductError     `json:"products_with_error,omitempty"`
}
