// Command pipeline runs the normalization-and-aggregation batch for the
// configured markets against the raw record snapshots under the data
// directory.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"europulse/internal/config"
	"europulse/internal/exporter"
	"europulse/internal/infrastructure"
	"europulse/internal/normalize"
	"europulse/internal/pipeline"
	"europulse/internal/stats"
	"europulse/internal/storage"
	"europulse/pkg/contracts/domain"
)

func main() {
	marketFilter := flag.String("markets", "", "comma-separated market ids to process (default: all configured)")
	dataDir := flag.String("data", "", "data directory (overrides config)")
	concurrency := flag.Int("concurrency", 0, "parallel market runs (overrides config)")
	flag.Parse()

	// Optional .env for local runs; absence is not an error.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	if *dataDir != "" {
		cfg.Paths.DataDir = *dataDir
	}
	if *concurrency > 0 {
		cfg.Pipeline.Concurrency = *concurrency
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Error("failed to initialize logger", "error", err)
		os.Exit(1)
	}

	markets, err := config.LoadMarkets(cfg.Paths.MarketsFile)
	if err != nil {
		logger.Error("failed to load market definitions", "error", err)
		os.Exit(1)
	}
	markets = filterMarkets(markets, *marketFilter)
	if len(markets) == 0 {
		logger.Error("no markets selected", "filter", *marketFilter)
		os.Exit(1)
	}

	taxonomy, err := normalize.NewTaxonomyUnifier(cfg.Paths.TaxonomyFile, logger)
	if err != nil {
		logger.Error("failed to load taxonomy tables", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := storage.NewManager(cfg.Paths.DataDir, logger)
	resolver := normalize.NewMigrationResolver(markets, logger)
	normalizer := normalize.NewNormalizer(taxonomy, resolver, logger)
	normalizer.SetProgressFunc(func(ev normalize.ProgressEvent) {
		logger.DebugContext(ctx, "normalizing product",
			slog.String("name", ev.Name),
			slog.Int("index", ev.Index),
			slog.Int("total", ev.Total),
		)
	})
	aggregator := stats.NewAggregator(logger)
	reports := exporter.NewReportWriter(cfg.Paths.ReportsDir, logger)
	productsCSV := exporter.NewCSVWriter(cfg.Paths.ReportsDir, logger)

	runner := pipeline.NewRunner(store, normalizer, aggregator, reports, productsCSV, logger, cfg.Pipeline.Concurrency)

	report, err := runner.Run(ctx, markets)
	if err != nil {
		logger.Error("pipeline run failed", "error", err)
		os.Exit(1)
	}

	for _, outcome := range report.Markets {
		if outcome.Err != nil {
			logger.Error("market failed",
				"market", outcome.MarketID,
				"error", outcome.Err.Error(),
			)
			continue
		}
		logger.Info("market completed",
			"market", outcome.MarketID,
			"products", outcome.Products,
			"with_missing_fields", outcome.MissingFields,
			"rejected", outcome.Rejected,
			"duration", outcome.Duration,
		)
	}

	if len(report.Failed()) > 0 {
		os.Exit(1)
	}
}

// filterMarkets keeps the markets named in the comma-separated filter, or
// all markets when the filter is empty.
func filterMarkets(markets []domain.Market, filter string) []domain.Market {
	if strings.TrimSpace(filter) == "" {
		return markets
	}
	wanted := make(map[string]bool)
	for _, id := range strings.Split(filter, ",") {
		wanted[strings.TrimSpace(id)] = true
	}
	var selected []domain.Market
	for _, m := range markets {
		if wanted[m.ID] {
			selected = append(selected, m)
		}
	}
	return selected
}
