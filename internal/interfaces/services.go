package interfaces

import (
	"context"

	"github.com/bobmcallan/fairval/internal/models"
)

// CatalogService loads the merged browse-view catalog for a market.
type CatalogService interface {
	// LoadCatalog loads the static catalog, joins the 10-minute price
	// snapshot (refreshing it when stale), and drops empty industries.
	LoadCatalog(ctx context.Context, marketID string) (*models.MarketCatalog, error)

	// Markets lists the supported market descriptors.
	Markets() []models.Market

	// Market resolves a market descriptor by ID.
	Market(marketID string) (models.Market, bool)
}

// ValuationService produces blended fair-value metrics for one symbol.
type ValuationService interface {
	// GetMetrics returns valuation metrics through the 30-minute cache.
	GetMetrics(ctx context.Context, symbol, currency string) (*models.ValuationMetrics, error)
}

// EstimateService produces AI fair-value estimates from already-computed metrics.
type EstimateService interface {
	// GetEstimate returns a cached estimate when the 24-hour record for the
	// metrics' input signature is fresh, otherwise invokes the model once
	// (concurrent callers share a single in-flight invocation).
	GetEstimate(ctx context.Context, symbol string, metrics models.ValuationMetrics) (*models.AIEstimate, error)

	// PeekEstimate returns the fresh cached estimate for the metrics'
	// signature, or nil. It never invokes the model.
	PeekEstimate(ctx context.Context, symbol string, metrics models.ValuationMetrics) *models.AIEstimate
}

// ShareService builds outbound share links for the detail view.
type ShareService interface {
	// ShareLink formats a localized social-share URL for the symbol.
	ShareLink(input models.ShareInput) string
}
