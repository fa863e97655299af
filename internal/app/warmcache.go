package app

import (
	"context"
	"os"
	"time"

	"github.com/bobmcallan/fairval/internal/common"
	"github.com/bobmcallan/fairval/internal/interfaces"
)

// Preference keys mirrored from the REST surface.
const (
	prefMarket    = "market"
	defaultMarket = "us"
)

// warmCache pre-fetches the preferred market's catalog and prices on startup
// so the first browse request is fast, and speculatively constructs the AI
// model engine.
func warmCache(ctx context.Context, catalogService interfaces.CatalogService, model interfaces.GeminiClient, storage interfaces.StorageManager, logger *common.Logger) {
	// Check env var override
	if os.Getenv("FAIRVAL_WARM_CACHE") == "off" {
		logger.Info().Msg("Warm cache: disabled via FAIRVAL_WARM_CACHE=off")
		return
	}

	start := time.Now()

	marketID := storage.Preferences().Get(ctx, prefMarket, defaultMarket)
	if _, ok := catalogService.Market(marketID); !ok {
		marketID = defaultMarket
	}

	logger.Info().Str("market", marketID).Msg("Warm cache: starting")

	// Start the model engine construction in parallel with the catalog load.
	if warmer, ok := model.(interface{ Warm(context.Context) }); ok {
		go warmer.Warm(ctx)
	}

	catalog, err := catalogService.LoadCatalog(ctx, marketID)
	if err != nil {
		logger.Warn().Err(err).Str("market", marketID).Msg("Warm cache: catalog load failed")
		return
	}

	logger.Info().
		Str("market", marketID).
		Int("industries", len(catalog.Industries)).
		Dur("elapsed", time.Since(start)).
		Msg("Warm cache: complete")
}
