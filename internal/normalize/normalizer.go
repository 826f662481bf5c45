package normalize

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"europulse/internal/errors"
	"europulse/internal/liquidity"
	"europulse/internal/mic"
	"europulse/pkg/contracts/domain"
)

// ProgressEvent reports per-record progress during a market run.
type ProgressEvent struct {
	Name  string
	Index int
	Total int
}

// ProgressFunc receives progress events. The callback is independent of the
// normalization logic itself, so the core stays synchronous and testable
// without a full batch run.
type ProgressFunc func(ProgressEvent)

// Normalizer turns a market's raw record batch into the canonical
// ProcessedProduct set. It holds only immutable lookup tables and is safe
// to share across parallel market runs.
type Normalizer struct {
	taxonomy *TaxonomyUnifier
	resolver *MigrationResolver
	logger   *slog.Logger
	progress ProgressFunc
}

// NewNormalizer creates a normalizer over the given taxonomy tables and
// migration resolver.
func NewNormalizer(taxonomy *TaxonomyUnifier, resolver *MigrationResolver, logger *slog.Logger) *Normalizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Normalizer{
		taxonomy: taxonomy,
		resolver: resolver,
		logger:   logger,
	}
}

// SetProgressFunc registers a progress callback for per-record iteration.
func (n *Normalizer) SetProgressFunc(fn ProgressFunc) {
	n.progress = fn
}

// NormalizeMarket validates, backfills, and maps one market's raw batch
// into canonical products. Records with missing required fields still make
// it into the product set and surface under ProductsWithMissingFields;
// records without usable identity are excluded and surface under
// ProductsWithError. An entirely absent batch is the one hard failure.
func (n *Normalizer) NormalizeMarket(ctx context.Context, market domain.Market, records []domain.RawDetailRecord) (*domain.NormalizeResult, error) {
	if len(records) == 0 {
		return nil, errors.ErrEmptyBatch.WithContext("market", market.ID)
	}

	n.logger.InfoContext(ctx, "normalizing market batch",
		slog.String("market", market.ID),
		slog.Int("records", len(records)),
	)

	outcomes := make([]ValidationOutcome, len(records))
	for i := range records {
		outcomes[i] = ValidateRequired(&records[i], market.RequiredFields)
	}

	if market.Family.CrossListed() {
		BackfillCrossReferences(ctx, outcomes, market.RequiredFields, n.logger)
	}

	result := &domain.NormalizeResult{MarketID: market.ID}
	seenISIN := make(map[string]bool, len(records))

	for i := range outcomes {
		name := displayName(outcomes[i].Record)
		if n.progress != nil {
			n.progress(ProgressEvent{Name: name, Index: i, Total: len(outcomes)})
		}

		product, err := n.mapRecord(ctx, market, outcomes[i])
		if err != nil {
			n.logger.WarnContext(ctx, "record rejected",
				slog.String("market", market.ID),
				slog.String("name", name),
				slog.String("error", err.Error()),
			)
			result.ProductsWithError = append(result.ProductsWithError, domain.ProductError{
				Name:  name,
				Error: err.Error(),
			})
			continue
		}

		if seenISIN[product.ISIN] {
			result.ProductsWithError = append(result.ProductsWithError, domain.ProductError{
				Name:  name,
				Error: fmt.Sprintf("duplicate isin %s", product.ISIN),
			})
			continue
		}
		seenISIN[product.ISIN] = true

		if outcomes[i].HasMissing() {
			result.ProductsWithMissingFields = append(result.ProductsWithMissingFields, domain.ProductWarning{
				Name:          name,
				MissingFields: outcomes[i].MissingFields,
			})
		}

		result.Products = append(result.Products, product)
	}

	n.logger.InfoContext(ctx, "market batch normalized",
		slog.String("market", market.ID),
		slog.Int("products", len(result.Products)),
		slog.Int("with_missing_fields", len(result.ProductsWithMissingFields)),
		slog.Int("rejected", len(result.ProductsWithError)),
	)

	return result, nil
}

// extracted carries the variant-specific pieces of a raw record before the
// family-independent enrichment steps run.
type extracted struct {
	product         domain.ProcessedProduct
	sectorLabel     string
	micCode         string
	priceHistory    []liquidity.PriceObservation
	migrationEvents []RawMigrationEvent
}

// mapRecord maps one validated raw record into a canonical product.
func (n *Normalizer) mapRecord(ctx context.Context, market domain.Market, outcome ValidationOutcome) (domain.ProcessedProduct, error) {
	var ex extracted
	switch outcome.Record.Family {
	case domain.FamilyBMEContinuo:
		ex = extractBMEContinuo(outcome.Record)
	case domain.FamilyBMEAlternative:
		ex = extractBMEAlternative(outcome.Record)
	case domain.FamilyEuronext:
		ex = extractEuronext(outcome.Record)
	case domain.FamilyPortfolio:
		ex = extractPortfolio(outcome.Record)
	default:
		return domain.ProcessedProduct{}, errors.NewParsingError(
			fmt.Sprintf("unknown market family %q", outcome.Record.Family), nil)
	}

	product := ex.product
	if product.ISIN == "" {
		return domain.ProcessedProduct{}, errors.NewValidationError("record has no isin, cannot identify product")
	}
	if product.Name == "" && product.URL == "" {
		return domain.ProcessedProduct{}, errors.NewValidationError("record has no name or url, not enough identity data")
	}

	pair := n.taxonomy.Unify(ctx, outcome.Record.Family, ex.sectorLabel)
	product.Sector = pair.Sector
	product.Subsector = pair.Subsector

	if product.Country == "" {
		code := ex.micCode
		if code == "" {
			code = market.MIC
		}
		product.Country = mic.CountryName(code)
	}

	product.YearlyHistory = sortYearlyHistory(product.YearlyHistory)
	avgCap := liquidity.AverageMarketCap(product.YearlyHistory)
	product.Liquidity = liquidity.Compute(ex.priceHistory, market.MarketDays, avgCap)

	product.MarketMigrations = n.resolver.Resolve(ctx, ex.migrationEvents)

	return product, nil
}

// extractBMEContinuo maps the BME continuous-market schema, which nests
// trading and capital figures under bean sub-objects.
func extractBMEContinuo(record *domain.RawDetailRecord) extracted {
	data := record.Data
	return extracted{
		product: domain.ProcessedProduct{
			ISIN:              rawString(record, "isin"),
			Ticker:            rawString(record, "ticker"),
			Name:              rawString(record, "name"),
			URL:               rawString(record, "url"),
			Currency:          rawString(record, "tradingInfoBean.currency"),
			MarketCap:         getFloat(data, "capitalInfoBean.marketCap"),
			LastPrice:         getFloat(data, "tradingInfoBean.lastTradingPrice"),
			Shares:            getFloat(data, "capitalInfoBean.shares"),
			NominalValue:      getFloat(data, "capitalInfoBean.nominalValue"),
			ListingDate:       getDate(data, "listingDate"),
			MarketListingDate: getDate(data, "marketListingDate"),
			IsSuspended:       getBool(data, "suspended"),
			SuspendedDate:     getDate(data, "suspendedDate"),
			CorporateActions:  extractCorporateActions(data, "corporateActions"),
			YearlyHistory:     extractYearlyHistory(data, "capitalHistory"),
		},
		sectorLabel:     rawString(record, "sector"),
		priceHistory:    extractPriceHistory(data, "priceHistory"),
		migrationEvents: extractMigrationEvents(data, "marketChanges"),
	}
}

// extractBMEAlternative maps the flatter schema shared by BME's alternative
// segments.
func extractBMEAlternative(record *domain.RawDetailRecord) extracted {
	data := record.Data
	return extracted{
		product: domain.ProcessedProduct{
			ISIN:             rawString(record, "isin"),
			Ticker:           rawString(record, "ticker"),
			Name:             rawString(record, "name"),
			URL:              rawString(record, "url"),
			Currency:         rawString(record, "currency"),
			MarketCap:        getFloat(data, "marketCap"),
			LastPrice:        getFloat(data, "lastPrice"),
			Shares:           getFloat(data, "shares"),
			NominalValue:     getFloat(data, "nominalValue"),
			ListingDate:      getDate(data, "listingDate"),
			IsSuspended:      getBool(data, "suspended"),
			SuspendedDate:    getDate(data, "suspendedDate"),
			CorporateActions: extractCorporateActions(data, "corporateActions"),
			YearlyHistory:    extractYearlyHistory(data, "capitalHistory"),
		},
		sectorLabel:     rawString(record, "sector"),
		priceHistory:    extractPriceHistory(data, "priceHistory"),
		migrationEvents: extractMigrationEvents(data, "marketChanges"),
	}
}

// extractEuronext maps the Euronext schema, which identifies products by
// symbol and carries the venue MIC and country on the record itself.
func extractEuronext(record *domain.RawDetailRecord) extracted {
	data := record.Data
	return extracted{
		product: domain.ProcessedProduct{
			ISIN:             rawString(record, "isin"),
			Ticker:           rawString(record, "symbol"),
			Name:             rawString(record, "name"),
			URL:              rawString(record, "url"),
			Country:          rawString(record, "country"),
			Currency:         rawString(record, "currency"),
			MarketCap:        getFloat(data, "marketCap"),
			LastPrice:        getFloat(data, "lastPrice"),
			Shares:           getFloat(data, "sharesOutstanding"),
			ListingDate:      getDate(data, "listingDate"),
			IsSuspended:      getBool(data, "suspended"),
			CorporateActions: extractCorporateActions(data, "corporateEvents"),
			YearlyHistory:    extractYearlyHistory(data, "capitalHistory"),
		},
		sectorLabel:     rawString(record, "industry"),
		micCode:         rawString(record, "micCode"),
		priceHistory:    extractPriceHistory(data, "priceHistory"),
		migrationEvents: extractMigrationEvents(data, "segmentChanges"),
	}
}

// extractPortfolio maps the Portfolio venue schema. The venue publishes no
// price history, so these products carry all-zero liquidity.
func extractPortfolio(record *domain.RawDetailRecord) extracted {
	data := record.Data
	return extracted{
		product: domain.ProcessedProduct{
			ISIN:             rawString(record, "isin"),
			Ticker:           rawString(record, "ticker"),
			Name:             rawString(record, "companyName"),
			URL:              rawString(record, "url"),
			Currency:         rawString(record, "currency"),
			MarketCap:        getFloat(data, "marketCap"),
			LastPrice:        getFloat(data, "lastPrice"),
			Shares:           getFloat(data, "shares"),
			ListingDate:      getDate(data, "admissionDate"),
			IsSuspended:      getBool(data, "suspended"),
			SuspendedDate:    getDate(data, "suspensionDate"),
			CorporateActions: extractCorporateActions(data, "corporateActions"),
		},
		sectorLabel: rawString(record, "sector"),
		micCode:     rawString(record, "micCode"),
	}
}

// displayName picks the best available identity for warning/error entries.
func displayName(record *domain.RawDetailRecord) string {
	if name := rawString(record, "name", "companyName"); name != "" {
		return name
	}
	if ticker := rawString(record, "ticker", "symbol"); ticker != "" {
		return ticker
	}
	if isin := rawString(record, "isin"); isin != "" {
		return isin
	}
	if url := rawString(record, "url"); url != "" {
		return url
	}
	return "unknown"
}

// sortYearlyHistory sorts entries ascending by year and drops duplicate
// years, keeping the first occurrence.
func sortYearlyHistory(history []domain.YearlyEntry) []domain.YearlyEntry {
	if len(history) == 0 {
		return nil
	}
	sort.SliceStable(history, func(i, j int) bool {
		return history[i].Year < history[j].Year
	})
	deduped := history[:0]
	for _, entry := range history {
		if len(deduped) > 0 && deduped[len(deduped)-1].Year == entry.Year {
			continue
		}
		deduped = append(deduped, entry)
	}
	return deduped
}

// corporateActionBuckets lists the raw bucket keys in canonical order.
var corporateActionBuckets = []string{
	"splits", "reverseSplits", "dividends", "capitalIncreases",
	"capitalDecreases", "freeAllocations", "listings", "delistings",
	"nameChanges", "marketChanges", "takeovers", "suspensions", "resumptions",
}

// extractCorporateActions reads the thirteen date-array buckets nested
// under key. Unparseable dates are skipped.
func extractCorporateActions(data map[string]any, key string) domain.CorporateActions {
	value, ok := ResolvePath(data, key)
	if !ok {
		return domain.CorporateActions{}
	}
	buckets, ok := value.(map[string]any)
	if !ok {
		return domain.CorporateActions{}
	}

	parsed := make(map[string][]time.Time, len(corporateActionBuckets))
	for _, bucket := range corporateActionBuckets {
		entries, ok := buckets[bucket].([]any)
		if !ok {
			continue
		}
		for _, entry := range entries {
			raw, ok := entry.(string)
			if !ok {
				continue
			}
			if date, ok := parseEventDate(raw); ok {
				parsed[bucket] = append(parsed[bucket], date)
			}
		}
	}

	return domain.CorporateActions{
		Splits:           parsed["splits"],
		ReverseSplits:    parsed["reverseSplits"],
		Dividends:        parsed["dividends"],
		CapitalIncreases: parsed["capitalIncreases"],
		CapitalDecreases: parsed["capitalDecreases"],
		FreeAllocations:  parsed["freeAllocations"],
		Listings:         parsed["listings"],
		Delistings:       parsed["delistings"],
		NameChanges:      parsed["nameChanges"],
		MarketChanges:    parsed["marketChanges"],
		Takeovers:        parsed["takeovers"],
		Suspensions:      parsed["suspensions"],
		Resumptions:      parsed["resumptions"],
	}
}

// extractPriceHistory reads the daily price observations nested under key.
func extractPriceHistory(data map[string]any, key string) []liquidity.PriceObservation {
	entries := getSlice(data, key)
	if len(entries) == 0 {
		return nil
	}

	observations := make([]liquidity.PriceObservation, 0, len(entries))
	for _, entry := range entries {
		m, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		date, ok := parseEventDate(getString(m, "date"))
		if !ok {
			continue
		}
		observations = append(observations, liquidity.PriceObservation{
			Date:     date,
			Close:    getFloat(m, "close"),
			Volume:   getFloat(m, "volume"),
			Turnover: getFloat(m, "turnover"),
		})
	}
	return observations
}

// extractYearlyHistory reads per-year capitalization entries nested under
// key. Entries without a usable year are skipped.
func extractYearlyHistory(data map[string]any, key string) []domain.YearlyEntry {
	entries := getSlice(data, key)
	if len(entries) == 0 {
		return nil
	}

	history := make([]domain.YearlyEntry, 0, len(entries))
	for _, entry := range entries {
		m, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		year := int(getFloat(m, "year"))
		if year == 0 {
			continue
		}
		history = append(history, domain.YearlyEntry{
			Year:      year,
			MarketCap: getFloat(m, "marketCap"),
		})
	}
	return history
}

// extractMigrationEvents reads raw market-change events nested under key.
func extractMigrationEvents(data map[string]any, key string) []RawMigrationEvent {
	entries := getSlice(data, key)
	if len(entries) == 0 {
		return nil
	}

	events := make([]RawMigrationEvent, 0, len(entries))
	for _, entry := range entries {
		m, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		events = append(events, RawMigrationEvent{
			Date:   getString(m, "date"),
			From:   getString(m, "from"),
			To:     getString(m, "to"),
			Name:   getString(m, "name"),
			Ticker: getString(m, "ticker"),
		})
	}
	return events
}
