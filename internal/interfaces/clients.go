// Package interfaces defines service contracts for Fairval
package interfaces

import (
	"context"

	"github.com/bobmcallan/fairval/internal/models"
)

// MarketDataClient provides access to the market-data API.
type MarketDataClient interface {
	// GetBatchPrices retrieves current prices for a list of qualified symbols.
	// Batches are issued sequentially and a failed batch contributes no prices;
	// without an API key the result is empty and no requests are made.
	GetBatchPrices(ctx context.Context, symbols []string) map[string]float64

	// GetPrice retrieves the current price for one symbol
	GetPrice(ctx context.Context, symbol string) (float64, error)

	// GetStatistics retrieves valuation statistics for one symbol
	GetStatistics(ctx context.Context, symbol string) (*models.Statistics, error)

	// GetBalanceSheet retrieves the most recent balance sheet figures
	GetBalanceSheet(ctx context.Context, symbol string) (*models.BalanceSheet, error)

	// GetIncomeStatement retrieves the most recent income statement figures
	GetIncomeStatement(ctx context.Context, symbol string) (*models.IncomeStatement, error)

	// HasAPIKey reports whether a credential is configured; false means
	// the client operates in degraded zero-value mode.
	HasAPIKey() bool
}

// CatalogClient loads a market's static catalog resource.
type CatalogClient interface {
	// GetCatalog fetches and decodes the industry-grouped company list,
	// preserving the resource's industry order. Any network, status, or
	// decode failure is a hard load error.
	GetCatalog(ctx context.Context, market models.Market) ([]models.IndustryGroup, error)
}

// GeminiClient provides access to the language model used for fair-value
// estimates. Implementations may construct the underlying engine lazily.
type GeminiClient interface {
	// GenerateContent generates AI content from a prompt
	GenerateContent(ctx context.Context, prompt string) (string, error)

	// ModelID identifies the configured model for cache keying
	ModelID() string
}
