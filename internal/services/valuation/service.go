// Package valuation computes blended fair-value metrics per symbol
package valuation

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/bobmcallan/fairval/internal/common"
	"github.com/bobmcallan/fairval/internal/interfaces"
	"github.com/bobmcallan/fairval/internal/models"
)

// Service implements ValuationService with a 30-minute read-through cache.
type Service struct {
	storage    interfaces.StorageManager
	marketdata interfaces.MarketDataClient
	logger     *common.Logger
	now        func() time.Time // injectable clock for testing
}

// NewService creates a new valuation service.
func NewService(
	storage interfaces.StorageManager,
	marketdata interfaces.MarketDataClient,
	logger *common.Logger,
) *Service {
	return &Service{
		storage:    storage,
		marketdata: marketdata,
		logger:     logger,
		now:        time.Now,
	}
}

// GetMetrics returns valuation metrics for a qualified symbol. A fresh cache
// record is returned as-is with no network activity. Without an API key the
// result is all-zero with only the currency populated, not an error. Otherwise
// the four payloads are fetched concurrently and any single failure fails the
// whole operation; no partial metrics set is ever derived or cached.
func (s *Service) GetMetrics(ctx context.Context, symbol, currency string) (*models.ValuationMetrics, error) {
	cached, err := s.storage.MetricsCache().GetMetrics(ctx, symbol)
	if err != nil {
		s.logger.Warn().Err(err).Str("symbol", symbol).Msg("Metrics cache read failed, refetching")
	}
	if cached != nil && common.IsFreshAt(s.now(), cached.CapturedAt, common.FreshnessMetrics) {
		data := cached.Data
		return &data, nil
	}

	if !s.marketdata.HasAPIKey() {
		zero := models.ZeroValuation(symbol, currency)
		return &zero, nil
	}

	var (
		price           float64
		statistics      *models.Statistics
		balanceSheet    *models.BalanceSheet
		incomeStatement *models.IncomeStatement
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		price, err = s.marketdata.GetPrice(gctx, symbol)
		return err
	})
	g.Go(func() error {
		var err error
		statistics, err = s.marketdata.GetStatistics(gctx, symbol)
		return err
	})
	g.Go(func() error {
		var err error
		balanceSheet, err = s.marketdata.GetBalanceSheet(gctx, symbol)
		return err
	})
	g.Go(func() error {
		var err error
		incomeStatement, err = s.marketdata.GetIncomeStatement(gctx, symbol)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to fetch valuation data for %s: %w", symbol, err)
	}

	metrics := models.DeriveValuation(symbol, currency, models.ValuationInputs{
		Price:           price,
		Statistics:      *statistics,
		BalanceSheet:    *balanceSheet,
		IncomeStatement: *incomeStatement,
	})

	record := &models.CachedMetrics{
		Symbol:     symbol,
		CapturedAt: s.now(),
		Data:       metrics,
	}
	if err := s.storage.MetricsCache().SaveMetrics(ctx, record); err != nil {
		s.logger.Warn().Err(err).Str("symbol", symbol).Msg("Metrics cache write failed")
	}

	s.logger.Debug().
		Str("symbol", symbol).
		Float64("weighted", metrics.Weighted).
		Msg("Valuation metrics derived")

	return &metrics, nil
}

// Ensure Service implements ValuationService
var _ interfaces.ValuationService = (*Service)(nil)
