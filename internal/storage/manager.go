// Package storage persists normalized products and market stats as JSON
// under the data directory, and loads the raw record batches produced by
// the fetch/parse collaborators. Writes follow the two-stage pattern:
// products first, stats second, so callers can persist normalized records
// before statistics exist.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"europulse/internal/errors"
	"europulse/pkg/contracts/domain"
)

const (
	rawDir      = "raw"
	productsDir = "products"
	statsDir    = "stats"
)

// Manager provides JSON persistence rooted at the configured data
// directory. Layout: raw/<market>.json, products/<market>.json,
// stats/<market>.json.
type Manager struct {
	baseDir string
	logger  *slog.Logger
}

// NewManager creates a storage manager rooted at baseDir.
func NewManager(baseDir string, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{baseDir: baseDir, logger: logger}
}

// rawBatchFile mirrors the on-disk layout of a fetched raw batch.
type rawBatchFile struct {
	MarketID string              `json:"market_id"`
	Family   domain.MarketFamily `json:"family"`
	Records  []map[string]any    `json:"records"`
}

// LoadRawBatch reads the raw record batch for a market, tagging each record
// with the batch's schema family.
func (m *Manager) LoadRawBatch(ctx context.Context, marketID string) ([]domain.RawDetailRecord, error) {
	path := m.path(rawDir, marketID)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewNotFoundError(fmt.Sprintf("raw batch for market %s", marketID))
		}
		return nil, errors.NewStorageError("failed to read raw batch", err).WithContext("market", marketID)
	}

	var batch rawBatchFile
	if err := json.Unmarshal(data, &batch); err != nil {
		return nil, errors.NewParsingError("failed to parse raw batch", err).WithContext("market", marketID)
	}
	if !batch.Family.IsValid() {
		return nil, errors.NewParsingError(fmt.Sprintf("raw batch has unknown family %q", batch.Family), nil).
			WithContext("market", marketID)
	}

	records := make([]domain.RawDetailRecord, 0, len(batch.Records))
	for _, data := range batch.Records {
		records = append(records, domain.RawDetailRecord{Family: batch.Family, Data: data})
	}

	m.logger.InfoContext(ctx, "loaded raw batch",
		slog.String("market", marketID),
		slog.Int("records", len(records)),
	)

	return records, nil
}

// SaveProducts writes a market's normalization result.
func (m *Manager) SaveProducts(ctx context.Context, result *domain.NormalizeResult) error {
	return m.writeJSON(ctx, m.path(productsDir, result.MarketID), result)
}

// LoadProducts reads a market's persisted normalization result.
func (m *Manager) LoadProducts(ctx context.Context, marketID string) (*domain.NormalizeResult, error) {
	var result domain.NormalizeResult
	if err := m.readJSON(m.path(productsDir, marketID), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// SaveStats writes a market's aggregated statistics.
func (m *Manager) SaveStats(ctx context.Context, stats *domain.MarketStats) error {
	return m.writeJSON(ctx, m.path(statsDir, stats.MarketID), stats)
}

// LoadStats reads a market's persisted statistics.
func (m *Manager) LoadStats(ctx context.Context, marketID string) (*domain.MarketStats, error) {
	var stats domain.MarketStats
	if err := m.readJSON(m.path(statsDir, marketID), &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// ListMarketsWithStats returns the market identifiers that have persisted
// statistics, sorted for deterministic listings.
func (m *Manager) ListMarketsWithStats(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(m.baseDir, statsDir))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.NewStorageError("failed to list stats directory", err)
	}

	var markets []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		markets = append(markets, strings.TrimSuffix(name, ".json"))
	}
	sort.Strings(markets)
	return markets, nil
}

func (m *Manager) path(subdir, marketID string) string {
	return filepath.Join(m.baseDir, subdir, marketID+".json")
}

func (m *Manager) writeJSON(ctx context.Context, path string, payload any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.NewStorageError("failed to create output directory", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return errors.NewStorageError("failed to create output file", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(payload); err != nil {
		return errors.NewStorageError("failed to encode JSON output", err)
	}

	m.logger.DebugContext(ctx, "wrote JSON file", slog.String("path", path))
	return nil
}

func (m *Manager) readJSON(path string, target any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.NewNotFoundError(path)
		}
		return errors.NewStorageError("failed to read JSON file", err)
	}
	if err := json.Unmarshal(data, target); err != nil {
		return errors.NewParsingError("failed to parse JSON file", err)
	}
	return nil
}
