package normalize

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"europulse/pkg/contracts/domain"
)

// BackfillCrossReferences fills missing required fields on a record using
// other records for the same issuer in the batch. It applies to market
// families whose listings can legitimately cross-reference each other (the
// Euronext family, where an issuer may be dual-listed across segments).
//
// Records are grouped by shared ISIN, or, absent an ISIN, by case-normalized
// name/ticker. Within each group of size >= 2 the first non-missing value in
// original batch order wins. A field missing in the whole group stays
// missing: nothing is fabricated. The operation is idempotent because
// backfilled records no longer report the field as missing.
func BackfillCrossReferences(ctx context.Context, outcomes []ValidationOutcome, required domain.RequiredFieldSet, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}

	groups := groupByRelationKey(outcomes)

	filled := 0
	for _, indices := range groups {
		if len(indices) < 2 {
			continue
		}

		for _, i := range indices {
			if !outcomes[i].HasMissing() {
				continue
			}
			for _, path := range outcomes[i].MissingFields {
				for _, j := range indices {
					if j == i {
						continue
					}
					value, ok := ResolvePath(outcomes[j].Record.Data, path)
					if !ok || IsMissingValue(value) {
						continue
					}
					if SetPath(outcomes[i].Record.Data, path, value) {
						filled++
					}
					break
				}
			}
			// Recompute the outcome so resolved fields stop surfacing
			// as missing.
			outcomes[i] = ValidateRequired(outcomes[i].Record, required)
		}
	}

	if filled > 0 {
		logger.InfoContext(ctx, "backfilled missing fields from cross-listed records",
			slog.Int("fields_filled", filled),
			slog.Int("groups", len(groups)),
		)
	}
}

// groupByRelationKey groups outcome indices by the relation key linking
// cross-listed records: ISIN when present, else case-normalized name or
// ticker. Records with no usable key each form their own group.
func groupByRelationKey(outcomes []ValidationOutcome) map[string][]int {
	groups := make(map[string][]int)
	anonymous := 0

	for i := range outcomes {
		key := relationKey(outcomes[i].Record)
		if key == "" {
			// No identity at all: never merge with anything.
			key = "\x00anon\x00" + strconv.Itoa(anonymous)
			anonymous++
		}
		groups[key] = append(groups[key], i)
	}

	return groups
}

func relationKey(record *domain.RawDetailRecord) string {
	if isin := rawString(record, "isin"); isin != "" {
		return "isin:" + strings.ToUpper(isin)
	}
	if name := rawString(record, "name", "companyName"); name != "" {
		return "name:" + strings.ToLower(name)
	}
	if ticker := rawString(record, "ticker", "symbol"); ticker != "" {
		return "ticker:" + strings.ToLower(ticker)
	}
	return ""
}

// rawString resolves the first of the given paths that holds a non-empty
// string, trimmed.
func rawString(record *domain.RawDetailRecord, paths ...string) string {
	for _, path := range paths {
		if value, ok := ResolvePath(record.Data, path); ok {
			if s, ok := value.(string); ok {
				if trimmed := strings.TrimSpace(s); trimmed != "" {
					return trimmed
				}
			}
		}
	}
	return ""
}
