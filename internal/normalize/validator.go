package normalize

import (
	"europulse/pkg/contracts/domain"
)

// ValidationOutcome is the result of checking one raw record against a
// market's required field paths. Missing fields are a warning condition:
// the record still proceeds through the pipeline with those fields left
// absent in the canonical output.
type ValidationOutcome struct {
	Record        *domain.RawDetailRecord
	PresentFields []string
	MissingFields []string
}

// HasMissing reports whether any required field is still missing.
func (v ValidationOutcome) HasMissing() bool {
	return len(v.MissingFields) > 0
}

// ValidateRequired checks a raw record against the ordered required field
// paths. A path is missing when any segment along the walk is absent or the
// resolved leaf is nil, an empty string, or an empty array. The order of
// MissingFields follows the input set, which keeps the outcome deterministic
// and lets backfill prioritize in a stable order.
func ValidateRequired(record *domain.RawDetailRecord, required domain.RequiredFieldSet) ValidationOutcome {
	outcome := ValidationOutcome{Record: record}

	for _, path := range required {
		value, ok := ResolvePath(record.Data, path)
		if !ok || IsMissingValue(value) {
			outcome.MissingFields = append(outcome.MissingFields, path)
			continue
		}
		outcome.PresentFields = append(outcome.PresentFields, path)
	}

	return outcome
}
