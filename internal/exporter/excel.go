// Package exporter renders market statistics and product sets into report
// files (spreadsheets and CSV) under the reports directory.
package exporter

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"europulse/internal/errors"
	"europulse/pkg/contracts/domain"
)

// ReportWriter generates spreadsheet reports from aggregated market stats.
type ReportWriter struct {
	outputDir string
	logger    *slog.Logger
}

// NewReportWriter creates a report writer rooted at outputDir.
func NewReportWriter(outputDir string, logger *slog.Logger) *ReportWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReportWriter{outputDir: outputDir, logger: logger}
}

// WriteMarketReport renders one market's stats into an .xlsx workbook with
// a summary sheet, one sheet per distribution dimension, and the yearly
// evolution. Returns the written file path.
func (w *ReportWriter) WriteMarketReport(ctx context.Context, stats *domain.MarketStats) (string, error) {
	if err := os.MkdirAll(w.outputDir, 0755); err != nil {
		return "", errors.NewStorageError("failed to create reports directory", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := w.writeSummarySheet(f, stats); err != nil {
		return "", err
	}
	if err := w.writeDistributionSheet(f, "Sectors", stats.SectorDistribution); err != nil {
		return "", err
	}
	if err := w.writeDistributionSheet(f, "Subsectors", stats.SubsectorDistribution); err != nil {
		return "", err
	}
	if err := w.writeDistributionSheet(f, "Countries", stats.CountryDistribution); err != nil {
		return "", err
	}
	if err := w.writeYearlySheet(f, stats.YearlyEvolution); err != nil {
		return "", err
	}

	path := filepath.Join(w.outputDir, fmt.Sprintf("%s_stats.xlsx", stats.MarketID))
	if err := f.SaveAs(path); err != nil {
		return "", errors.NewStorageError("failed to save market report", err).WithContext("market", stats.MarketID)
	}

	w.logger.InfoContext(ctx, "wrote market report",
		slog.String("market", stats.MarketID),
		slog.String("path", path),
	)

	return path, nil
}

func (w *ReportWriter) writeSummarySheet(f *excelize.File, stats *domain.MarketStats) error {
	const sheet = "Summary"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return errors.NewStorageError("failed to rename summary sheet", err)
	}

	rows := [][]any{
		{"Market", stats.MarketName},
		{"Market ID", stats.MarketID},
		{"Country", stats.Country},
		{"Products", stats.ProductCount},
		{"Total market cap", stats.TotalMarketCap},
		{"Total turnover", stats.Liquidity.TotalTurnover},
		{"Total volume", stats.Liquidity.TotalVolume},
		{"Avg daily turnover", stats.Liquidity.AverageDailyTurnover},
		{"Avg trading days ratio", stats.Liquidity.AverageTradingDaysRatio},
		{"Avg turnover velocity", stats.Liquidity.AverageTurnoverVelocity},
		{"Suspended products", stats.Suspension.SuspendedCount},
		{"Suspended %", stats.Suspension.SuspendedPercentage},
		{"Dividends", stats.CorporateActions.Dividends},
		{"Splits", stats.CorporateActions.Splits},
		{"Capital increases", stats.CorporateActions.CapitalIncreases},
		{"Takeovers", stats.CorporateActions.Takeovers},
		{"Fetched at", stats.FetchedAt.Format("2006-01-02 15:04:05")},
	}

	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return errors.NewStorageError("failed to write summary row", err)
		}
	}
	return nil
}

func (w *ReportWriter) writeDistributionSheet(f *excelize.File, sheet string, entries []domain.DistributionEntry) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return errors.NewStorageError("failed to create sheet "+sheet, err)
	}

	header := []any{"Label", "Products", "Market cap", "% by count", "% by value"}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return errors.NewStorageError("failed to write header for "+sheet, err)
	}

	for i, entry := range entries {
		row := []any{entry.Label, entry.ProductCount, entry.MarketCap, entry.PercentageByCount, entry.PercentageByValue}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return errors.NewStorageError("failed to write row for "+sheet, err)
		}
	}
	return nil
}

func (w *ReportWriter) writeYearlySheet(f *excelize.File, evolution []domain.YearlyEvolutionEntry) error {
	const sheet = "Yearly Evolution"
	if _, err := f.NewSheet(sheet); err != nil {
		return errors.NewStorageError("failed to create yearly evolution sheet", err)
	}

	header := []any{"Year", "Products", "Total market cap", "Average market cap"}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return errors.NewStorageError("failed to write yearly evolution header", err)
	}

	for i, entry := range evolution {
		row := []any{entry.Year, entry.ProductCount, entry.TotalMarketCap, entry.AverageMarketCap}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return errors.NewStorageError("failed to write yearly evolution row", err)
		}
	}
	return nil
}
