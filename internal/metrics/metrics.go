// Package metrics exposes Prometheus instrumentation for pipeline runs.
// Collectors are registered on the default registry and served by the
// stats API's /metrics endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// MarketRuns counts completed per-market pipeline runs by outcome.
	MarketRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "europulse_market_runs_total",
		Help: "Completed per-market pipeline runs by status.",
	}, []string{"market", "status"})

	// MarketRunDuration observes the wall-clock duration of a market run.
	MarketRunDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "europulse_market_run_duration_seconds",
		Help:    "Duration of per-market pipeline runs.",
		Buckets: prometheus.DefBuckets,
	}, []string{"market"})

	// ProductsNormalized counts canonical products produced per market.
	ProductsNormalized = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "europulse_products_normalized_total",
		Help: "Canonical products produced per market.",
	}, []string{"market"})

	// ProductsRejected counts raw records rejected per market.
	ProductsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "europulse_products_rejected_total",
		Help: "Raw records rejected during normalization per market.",
	}, []string{"market"})

	// ProductsWithMissingFields counts products that kept missing required
	// fields after backfill.
	ProductsWithMissingFields = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "europulse_products_missing_fields_total",
		Help: "Products with required fields still missing after backfill.",
	}, []string{"market"})
)
