// Package pipeline orchestrates the per-market batch flow: load raw
// records, normalize, persist products, aggregate, persist stats, export
// reports. Markets are independent and run in parallel; each run shares
// only immutable lookup tables.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"europulse/internal/exporter"
	"europulse/internal/infrastructure"
	"europulse/internal/metrics"
	"europulse/internal/normalize"
	"europulse/internal/stats"
	"europulse/internal/storage"
	"europulse/pkg/contracts/domain"
)

// MarketOutcome summarizes one market's run for the batch report.
type MarketOutcome struct {
	MarketID      string        `json:"market_id"`
	Products      int           `json:"products"`
	MissingFields int           `json:"missing_fields"`
	Rejected      int           `json:"rejected"`
	Duration      time.Duration `json:"duration"`
	Err           error         `json:"-"`
}

// RunReport is the outcome of one batch run across markets.
type RunReport struct {
	RunID    string          `json:"run_id"`
	Markets  []MarketOutcome `json:"markets"`
	Started  time.Time       `json:"started"`
	Finished time.Time       `json:"finished"`
}

// Failed returns the outcomes of markets whose run failed.
func (r *RunReport) Failed() []MarketOutcome {
	var failed []MarketOutcome
	for _, m := range r.Markets {
		if m.Err != nil {
			failed = append(failed, m)
		}
	}
	return failed
}

// Runner wires the pipeline stages together.
type Runner struct {
	store       *storage.Manager
	normalizer  *normalize.Normalizer
	aggregator  *stats.Aggregator
	reports     *exporter.ReportWriter
	productsCSV *exporter.CSVWriter
	logger      *slog.Logger
	concurrency int
}

// NewRunner creates a pipeline runner. concurrency bounds the number of
// markets processed in parallel.
func NewRunner(store *storage.Manager, normalizer *normalize.Normalizer, aggregator *stats.Aggregator,
	reports *exporter.ReportWriter, productsCSV *exporter.CSVWriter, logger *slog.Logger, concurrency int) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	if concurrency < 1 {
		concurrency = 1
	}
	return &Runner{
		store:       store,
		normalizer:  normalizer,
		aggregator:  aggregator,
		reports:     reports,
		productsCSV: productsCSV,
		logger:      logger,
		concurrency: concurrency,
	}
}

// Run executes the pipeline for the given markets. Per-market failures do
// not cancel sibling markets; they surface in the report. Cancellation is
// all-or-nothing per market: a canceled context stops scheduling new
// markets and the report omits the unstarted ones.
func (r *Runner) Run(ctx context.Context, markets []domain.Market) (*RunReport, error) {
	report := &RunReport{
		RunID:   uuid.NewString(),
		Started: time.Now(),
		Markets: make([]MarketOutcome, len(markets)),
	}
	ctx = infrastructure.WithRunID(ctx, report.RunID)

	r.logger.InfoContext(ctx, "starting pipeline run",
		slog.Int("markets", len(markets)),
		slog.Int("concurrency", r.concurrency),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)

	for i, market := range markets {
		i, market := i, market
		g.Go(func() error {
			report.Markets[i] = r.runMarket(gctx, market)
			// Market failures are reported, not propagated: one bad
			// batch must not cancel sibling markets.
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	report.Finished = time.Now()

	r.logger.InfoContext(ctx, "pipeline run finished",
		slog.Int("markets", len(report.Markets)),
		slog.Int("failed", len(report.Failed())),
		slog.Duration("duration", report.Finished.Sub(report.Started)),
	)

	return report, nil
}

// runMarket executes the full flow for a single market.
func (r *Runner) runMarket(ctx context.Context, market domain.Market) MarketOutcome {
	start := time.Now()
	outcome := MarketOutcome{MarketID: market.ID}

	fail := func(err error) MarketOutcome {
		outcome.Err = err
		outcome.Duration = time.Since(start)
		metrics.MarketRuns.WithLabelValues(market.ID, "error").Inc()
		r.logger.ErrorContext(ctx, "market run failed",
			slog.String("market", market.ID),
			slog.String("error", err.Error()),
		)
		return outcome
	}

	records, err := r.store.LoadRawBatch(ctx, market.ID)
	if err != nil {
		return fail(err)
	}

	result, err := r.normalizer.NormalizeMarket(ctx, market, records)
	if err != nil {
		return fail(err)
	}

	// Two-stage write: products are persisted before stats exist.
	if err := r.store.SaveProducts(ctx, result); err != nil {
		return fail(err)
	}

	marketStats, err := r.aggregator.AggregateMarket(ctx, market, result.Products)
	if err != nil {
		return fail(err)
	}
	if err := r.store.SaveStats(ctx, marketStats); err != nil {
		return fail(err)
	}

	if r.reports != nil {
		if _, err := r.reports.WriteMarketReport(ctx, marketStats); err != nil {
			return fail(err)
		}
	}
	if r.productsCSV != nil {
		if _, err := r.productsCSV.WriteProducts(ctx, market.ID, result.Products); err != nil {
			return fail(err)
		}
	}

	outcome.Products = len(result.Products)
	outcome.MissingFields = len(result.ProductsWithMissingFields)
	outcome.Rejected = len(result.ProductsWithError)
	outcome.Duration = time.Since(start)

	metrics.MarketRuns.WithLabelValues(market.ID, "success").Inc()
	metrics.MarketRunDuration.WithLabelValues(market.ID).Observe(outcome.Duration.Seconds())
	metrics.ProductsNormalized.WithLabelValues(market.ID).Add(float64(outcome.Products))
	metrics.ProductsRejected.WithLabelValues(market.ID).Add(float64(outcome.Rejected))
	metrics.ProductsWithMissingFields.WithLabelValues(market.ID).Add(float64(outcome.MissingFields))

	return outcome
}
