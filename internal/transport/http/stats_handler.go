// Package http exposes the read-only stats API over the persisted
// normalization and aggregation output.
package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	apperrors "europulse/internal/errors"
	"europulse/internal/storage"
	"europulse/pkg/contracts/domain"
)

// StatsHandler serves persisted market products and statistics.
type StatsHandler struct {
	store   *storage.Manager
	markets []domain.Market
	logger  *slog.Logger
}

// NewStatsHandler creates the stats API handler.
func NewStatsHandler(store *storage.Manager, markets []domain.Market, logger *slog.Logger) *StatsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &StatsHandler{store: store, markets: markets, logger: logger}
}

// NewRouter builds the chi router for the stats API.
func NewRouter(h *StatsHandler) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(h.logger))
	r.Use(middleware.Recoverer)
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/healthz", h.Health)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/markets", h.ListMarkets)
		r.Route("/markets/{marketID}", func(r chi.Router) {
			r.Get("/stats", h.GetStats)
			r.Get("/products", h.GetProducts)
		})
	})

	return r
}

// Health reports service liveness.
func (h *StatsHandler) Health(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{"status": "ok"})
}

// marketListEntry is one entry of the market listing.
type marketListEntry struct {
	ID       string              `json:"id"`
	Name     string              `json:"name,omitempty"`
	Family   domain.MarketFamily `json:"family"`
	MIC      string              `json:"mic,omitempty"`
	HasStats bool                `json:"has_stats"`
}

// ListMarkets returns the configured markets and whether each has
// persisted statistics.
func (h *StatsHandler) ListMarkets(w http.ResponseWriter, r *http.Request) {
	withStats, err := h.store.ListMarketsWithStats(r.Context())
	if err != nil {
		h.renderError(w, r, apperrors.InternalError(err))
		return
	}
	available := make(map[string]bool, len(withStats))
	for _, id := range withStats {
		available[id] = true
	}

	entries := make([]marketListEntry, 0, len(h.markets))
	for _, m := range h.markets {
		entries = append(entries, marketListEntry{
			ID:       m.ID,
			Name:     m.Name,
			Family:   m.Family,
			MIC:      m.MIC,
			HasStats: available[m.ID],
		})
	}

	render.JSON(w, r, map[string]any{"markets": entries, "count": len(entries)})
}

// GetStats returns the persisted MarketStats for one market.
func (h *StatsHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	marketID := chi.URLParam(r, "marketID")
	stats, err := h.store.LoadStats(r.Context(), marketID)
	if err != nil {
		if apperrors.IsType(err, apperrors.ErrTypeNotFound) {
			h.renderError(w, r, apperrors.NotFoundError("stats for market "+marketID))
			return
		}
		h.renderError(w, r, apperrors.InternalError(err))
		return
	}
	render.JSON(w, r, stats)
}

// GetProducts returns the persisted normalization result for one market.
func (h *StatsHandler) GetProducts(w http.ResponseWriter, r *http.Request) {
	marketID := chi.URLParam(r, "marketID")
	result, err := h.store.LoadProducts(r.Context(), marketID)
	if err != nil {
		if apperrors.IsType(err, apperrors.ErrTypeNotFound) {
			h.renderError(w, r, apperrors.NotFoundError("products for market "+marketID))
			return
		}
		h.renderError(w, r, apperrors.InternalError(err))
		return
	}
	render.JSON(w, r, result)
}

// requestLogger emits one structured log line per request.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			logger.InfoContext(r.Context(), "request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.Status()),
				slog.Duration("duration", time.Since(start)),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}

func (h *StatsHandler) renderError(w http.ResponseWriter, r *http.Request, apiErr *apperrors.APIError) {
	if apiErr.StatusCode >= http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "request failed",
			slog.String("path", r.URL.Path),
			slog.String("error", apiErr.Message),
		)
	}
	if err := render.Render(w, r, apiErr); err != nil {
		http.Error(w, apiErr.Message, apiErr.StatusCode)
	}
}
