package normalize

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"europulse/pkg/contracts/domain"
)

// UnknownMarket labels a segment outside the known set in a migration entry.
const UnknownMarket = "unknown"

// legacySegments is the closed set of legacy/external segment labels that
// may appear in historical market-change data. Codes are matched
// case-insensitively. Discontinued segments keep a display label; segments
// that were renamed resolve to the current market identifier.
var legacySegments = map[string]string{
	"corros":          "Corros",
	"segundo mercado": "Second Market",
	"mab":             "bme-growth",
	"sibe":            "bme-continuo",
	"latibex":         "Latibex",
	"alternext":       "euronext-growth",
	"marche libre":    "euronext-access",
}

// RawMigrationEvent is one market-change event as it appears in the raw
// historical-segment data, before dates are parsed and labels resolved.
type RawMigrationEvent struct {
	Date   string `json:"date"`
	From   string `json:"from"`
	To     string `json:"to"`
	Name   string `json:"name,omitempty"`
	Ticker string `json:"ticker,omitempty"`
}

// MigrationResolver reconstructs a product's history of market/segment
// changes. It tolerates out-of-order or partially-dated source events by
// sorting before collapsing; events with unparseable dates are dropped with
// a warning, never fatally.
type MigrationResolver struct {
	knownMarkets map[string]string
	logger       *slog.Logger
}

// NewMigrationResolver builds a resolver aware of the configured market
// identifiers plus the closed legacy segment set.
func NewMigrationResolver(markets []domain.Market, logger *slog.Logger) *MigrationResolver {
	if logger == nil {
		logger = slog.Default()
	}

	known := make(map[string]string, len(markets)+len(legacySegments))
	for _, m := range markets {
		known[strings.ToLower(m.ID)] = m.ID
		if m.Name != "" {
			known[strings.ToLower(m.Name)] = m.ID
		}
	}
	for code, label := range legacySegments {
		if _, taken := known[code]; !taken {
			known[code] = label
		}
	}

	return &MigrationResolver{knownMarkets: known, logger: logger}
}

// Resolve turns raw market-change events into an ascending migration
// sequence. Adjacent transitions with the same destination collapse into
// one, so no no-op migrations are recorded.
func (r *MigrationResolver) Resolve(ctx context.Context, events []RawMigrationEvent) []domain.MarketMigration {
	if len(events) == 0 {
		return nil
	}

	migrations := make([]domain.MarketMigration, 0, len(events))
	for _, ev := range events {
		date, ok := parseEventDate(ev.Date)
		if !ok {
			r.logger.WarnContext(ctx, "dropping migration event with unparseable date",
				slog.String("date", ev.Date),
				slog.String("to", ev.To),
			)
			continue
		}
		migrations = append(migrations, domain.MarketMigration{
			Date:       date,
			FromMarket: r.resolveLabel(ev.From),
			ToMarket:   r.resolveLabel(ev.To),
			Name:       strings.TrimSpace(ev.Name),
			Ticker:     strings.TrimSpace(ev.Ticker),
		})
	}

	sort.SliceStable(migrations, func(i, j int) bool {
		return migrations[i].Date.Before(migrations[j].Date)
	})

	// Collapse consecutive transitions into the same destination.
	collapsed := migrations[:0]
	for _, m := range migrations {
		if len(collapsed) > 0 && collapsed[len(collapsed)-1].ToMarket == m.ToMarket {
			continue
		}
		collapsed = append(collapsed, m)
	}

	if len(collapsed) == 0 {
		return nil
	}
	return collapsed
}

// resolveLabel maps a raw segment label to a known market identifier or a
// legacy label; anything outside the known set resolves to "unknown".
func (r *MigrationResolver) resolveLabel(raw string) string {
	label := strings.ToLower(strings.TrimSpace(raw))
	if label == "" {
		return UnknownMarket
	}
	if resolved, ok := r.knownMarkets[label]; ok {
		return resolved
	}
	return UnknownMarket
}

// migrationDateLayouts are the date formats seen in historical segment data.
var migrationDateLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"02-01-2006",
	time.RFC3339,
}

func parseEventDate(raw string) (time.Time, bool) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range migrationDateLayouts {
		if date, err := time.Parse(layout, value); err == nil {
			return date, true
		}
	}
	return time.Time{}, false
}
