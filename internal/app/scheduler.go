package app

import (
	"context"
	"time"

	"github.com/bobmcallan/fairval/internal/common"
	"github.com/bobmcallan/fairval/internal/interfaces"
)

// startPriceScheduler refreshes the preferred market's price snapshot on a
// fixed interval so the browse view rarely pays the fetch cost itself.
func startPriceScheduler(ctx context.Context, catalogService interfaces.CatalogService, storage interfaces.StorageManager, logger *common.Logger, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("Price scheduler: stopped")
			return
		case <-ticker.C:
			refreshPrices(ctx, catalogService, storage, logger)
		}
	}
}

func refreshPrices(ctx context.Context, catalogService interfaces.CatalogService, storage interfaces.StorageManager, logger *common.Logger) {
	start := time.Now()

	marketID := storage.Preferences().Get(ctx, prefMarket, defaultMarket)
	if _, ok := catalogService.Market(marketID); !ok {
		marketID = defaultMarket
	}

	// LoadCatalog refreshes the price snapshot when it has gone stale and
	// is a cache read otherwise.
	catalog, err := catalogService.LoadCatalog(ctx, marketID)
	if err != nil {
		logger.Warn().Err(err).Str("market", marketID).Msg("Price refresh: catalog load failed")
		return
	}

	logger.Info().
		Str("market", marketID).
		Int("industries", len(catalog.Industries)).
		Dur("elapsed", time.Since(start)).
		Msg("Price refresh: complete")
}
