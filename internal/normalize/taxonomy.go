package normalize

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v2"

	"europulse/pkg/contracts/domain"
)

// OtherLabel is the canonical fallback for labels the taxonomy does not
// recognize. Unseen or malformed labels never abort the pipeline.
const OtherLabel = "Other"

// defaultTaxonomy holds the built-in sector/subsector mapping tables. A
// deployment can override them with paths.taxonomy_file without rebuilding.
//
//go:embed taxonomy.yml
var defaultTaxonomy []byte

// TaxonomyPair is one (sector, subsector) tuple from the canonical taxonomy.
type TaxonomyPair struct {
	Sector    string `yaml:"sector"`
	Subsector string `yaml:"subsector"`
}

// taxonomyFile mirrors the YAML layout of the mapping tables: one table of
// raw label -> canonical pair per market family.
type taxonomyFile struct {
	Families map[string]map[string]TaxonomyPair `yaml:"families"`
}

// TaxonomyUnifier maps market-specific free-text sector labels into the
// canonical taxonomy. The table is immutable after loading, so a single
// unifier is safe to share across parallel market runs.
type TaxonomyUnifier struct {
	entries map[string]TaxonomyPair
	logger  *slog.Logger
}

// NewTaxonomyUnifier loads the mapping tables from path, or the embedded
// defaults when path is empty.
func NewTaxonomyUnifier(path string, logger *slog.Logger) (*TaxonomyUnifier, error) {
	if logger == nil {
		logger = slog.Default()
	}

	data := defaultTaxonomy
	if path != "" {
		fileData, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read taxonomy file: %w", err)
		}
		data = fileData
	}

	var tf taxonomyFile
	if err := yaml.Unmarshal(data, &tf); err != nil {
		return nil, fmt.Errorf("parse taxonomy file: %w", err)
	}

	entries := make(map[string]TaxonomyPair)
	for family, table := range tf.Families {
		for label, pair := range table {
			if pair.Sector == "" {
				return nil, fmt.Errorf("taxonomy entry %s/%q has empty sector", family, label)
			}
			if pair.Subsector == "" {
				pair.Subsector = OtherLabel
			}
			entries[taxonomyKey(domain.MarketFamily(family), label)] = pair
		}
	}

	return &TaxonomyUnifier{entries: entries, logger: logger}, nil
}

// Unify resolves a raw sector label for the given market family into a
// canonical (sector, subsector) pair. Lookup is exact-match after trimming
// surrounding whitespace; a miss yields ("Other", "Other") with a warning.
func (t *TaxonomyUnifier) Unify(ctx context.Context, family domain.MarketFamily, rawLabel string) TaxonomyPair {
	label := strings.TrimSpace(rawLabel)
	if label == "" {
		return TaxonomyPair{Sector: OtherLabel, Subsector: OtherLabel}
	}

	if pair, ok := t.entries[taxonomyKey(family, label)]; ok {
		return pair
	}

	t.logger.WarnContext(ctx, "unmapped taxonomy label",
		slog.String("family", string(family)),
		slog.String("label", label),
	)
	return TaxonomyPair{Sector: OtherLabel, Subsector: OtherLabel}
}

// Size returns the number of loaded mapping entries.
func (t *TaxonomyUnifier) Size() int {
	return len(t.entries)
}

func taxonomyKey(family domain.MarketFamily, label string) string {
	return string(family) + "\x00" + strings.TrimSpace(label)
}
