// Package catalog merges static market catalogs with cached live prices
package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/bobmcallan/fairval/internal/common"
	"github.com/bobmcallan/fairval/internal/interfaces"
	"github.com/bobmcallan/fairval/internal/models"
)

// DefaultMarkets returns the two supported market descriptors with catalog
// URLs taken from config.
func DefaultMarkets(config *common.Config) []models.Market {
	return []models.Market{
		{ID: "us", Name: "United States", Suffix: ".US", Currency: "USD", CatalogURL: config.Catalogs.USURL},
		{ID: "tase", Name: "Tel Aviv", Suffix: ".TA", Currency: "ILS", CatalogURL: config.Catalogs.TASEURL},
	}
}

// Service implements CatalogService.
type Service struct {
	storage    interfaces.StorageManager
	marketdata interfaces.MarketDataClient
	catalogs   interfaces.CatalogClient
	markets    []models.Market
	logger     *common.Logger
	now        func() time.Time // injectable clock for testing
}

// NewService creates a new catalog service.
func NewService(
	storage interfaces.StorageManager,
	marketdata interfaces.MarketDataClient,
	catalogs interfaces.CatalogClient,
	markets []models.Market,
	logger *common.Logger,
) *Service {
	return &Service{
		storage:    storage,
		marketdata: marketdata,
		catalogs:   catalogs,
		markets:    markets,
		logger:     logger,
		now:        time.Now,
	}
}

// Markets lists the supported market descriptors.
func (s *Service) Markets() []models.Market {
	return s.markets
}

// Market resolves a market descriptor by ID.
func (s *Service) Market(marketID string) (models.Market, bool) {
	for _, m := range s.markets {
		if m.ID == marketID {
			return m, true
		}
	}
	return models.Market{}, false
}

// LoadCatalog loads the market's static catalog, joins the 10-minute price
// snapshot, and returns the browse-view payload. A catalog load failure is a
// hard error; a price fetch failure only leaves prices absent.
func (s *Service) LoadCatalog(ctx context.Context, marketID string) (*models.MarketCatalog, error) {
	market, ok := s.Market(marketID)
	if !ok {
		return nil, fmt.Errorf("unknown market %q", marketID)
	}

	groups, err := s.catalogs.GetCatalog(ctx, market)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	symbols := qualifiedSymbols(market, groups)
	prices, asOf := s.resolvePrices(ctx, market, symbols)

	// The caller may have switched markets while the fetch was in flight;
	// the result is discarded at this single resumption point.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	catalog := &models.MarketCatalog{
		Market:     market.ID,
		Currency:   market.Currency,
		PricesAsOf: asOf,
	}

	for _, group := range groups {
		if len(group.Entries) == 0 {
			continue
		}
		merged := models.IndustryGroup{
			Industry: group.Industry,
			Entries:  make([]models.CatalogEntry, len(group.Entries)),
		}
		for i, entry := range group.Entries {
			merged.Entries[i] = models.CatalogEntry{
				Ticker:  entry.Ticker,
				Company: entry.Company,
			}
			if price, ok := prices[market.Qualify(entry.Ticker)]; ok {
				p := price
				merged.Entries[i].Price = &p
			}
		}
		catalog.Industries = append(catalog.Industries, merged)
	}

	return catalog, nil
}

// resolvePrices returns the market's price map, reusing the cached snapshot
// when fresh and otherwise fetching and overwriting it wholesale. An empty or
// partially failed fetch still refreshes the snapshot timestamp: no retry
// happens within the TTL window even when prices came back unknown. This is a
// deliberate staleness/availability trade-off.
func (s *Service) resolvePrices(ctx context.Context, market models.Market, symbols []string) (map[string]float64, time.Time) {
	now := s.now()

	snapshot, err := s.storage.PriceCache().GetSnapshot(ctx, market.ID)
	if err != nil {
		s.logger.Warn().Err(err).Str("market", market.ID).Msg("Price cache read failed, refetching")
	}
	if snapshot != nil && common.IsFreshAt(now, snapshot.CapturedAt, common.FreshnessPrices) {
		s.logger.Debug().
			Str("market", market.ID).
			Time("captured_at", snapshot.CapturedAt).
			Msg("Using cached price snapshot")
		return snapshot.Prices, snapshot.CapturedAt
	}

	prices := s.marketdata.GetBatchPrices(ctx, symbols)

	fresh := &models.PriceSnapshot{
		Market:     market.ID,
		CapturedAt: now,
		Prices:     prices,
	}
	if err := s.storage.PriceCache().SaveSnapshot(ctx, fresh); err != nil {
		s.logger.Warn().Err(err).Str("market", market.ID).Msg("Price snapshot write failed")
	}

	s.logger.Info().
		Str("market", market.ID).
		Int("symbols", len(symbols)).
		Int("prices", len(prices)).
		Msg("Price snapshot refreshed")

	return prices, now
}

// qualifiedSymbols derives the exchange-qualified symbol list for the catalog.
func qualifiedSymbols(market models.Market, groups []models.IndustryGroup) []string {
	var symbols []string
	for _, group := range groups {
		for _, entry := range group.Entries {
			symbols = append(symbols, market.Qualify(entry.Ticker))
		}
	}
	return symbols
}

// Ensure Service implements CatalogService
var _ interfaces.CatalogService = (*Service)(nil)
