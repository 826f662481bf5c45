package exporter

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"europulse/internal/errors"
	"europulse/pkg/contracts/domain"
)

// CSVWriter exports product sets as CSV alongside the spreadsheet reports.
type CSVWriter struct {
	outputDir string
	logger    *slog.Logger
}

// NewCSVWriter creates a CSV writer rooted at outputDir.
func NewCSVWriter(outputDir string, logger *slog.Logger) *CSVWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVWriter{outputDir: outputDir, logger: logger}
}

// WriteProducts writes one market's canonical products to
// <market>_products.csv. Returns the written file path.
func (w *CSVWriter) WriteProducts(ctx context.Context, marketID string, products []domain.ProcessedProduct) (string, error) {
	if err := os.MkdirAll(w.outputDir, 0755); err != nil {
		return "", errors.NewStorageError("failed to create reports directory", err)
	}

	path := filepath.Join(w.outputDir, fmt.Sprintf("%s_products.csv", marketID))
	file, err := os.Create(path)
	if err != nil {
		return "", errors.NewStorageError("failed to create products CSV", err).WithContext("market", marketID)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{
		"ISIN", "Ticker", "Name", "Sector", "Subsector", "Country",
		"Currency", "MarketCap", "LastPrice", "Shares",
		"Turnover", "Volume", "TradingDaysRatio", "Suspended",
	}
	if err := writer.Write(header); err != nil {
		return "", errors.NewStorageError("failed to write CSV header", err)
	}

	for _, p := range products {
		row := []string{
			p.ISIN,
			p.Ticker,
			p.Name,
			p.Sector,
			p.Subsector,
			p.Country,
			p.Currency,
			strconv.FormatFloat(p.MarketCap, 'f', 2, 64),
			strconv.FormatFloat(p.LastPrice, 'f', 4, 64),
			strconv.FormatFloat(p.Shares, 'f', 0, 64),
			strconv.FormatFloat(p.Liquidity.Turnover, 'f', 2, 64),
			strconv.FormatFloat(p.Liquidity.Volume, 'f', 0, 64),
			strconv.FormatFloat(p.Liquidity.TradingDaysRatio, 'f', 4, 64),
			strconv.FormatBool(p.IsSuspended),
		}
		if err := writer.Write(row); err != nil {
			return "", errors.NewStorageError("failed to write CSV row", err)
		}
	}

	w.logger.InfoContext(ctx, "wrote products CSV",
		slog.String("market", marketID),
		slog.Int("products", len(products)),
		slog.String("path", path),
	)

	return path, nil
}
