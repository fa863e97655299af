package badger

import (
	"context"
	"fmt"

	"github.com/timshannon/badgerhold/v4"

	"github.com/bobmcallan/fairval/internal/common"
	"github.com/bobmcallan/fairval/internal/models"
)

type metricsCacheStorage struct {
	store  *Store
	logger *common.Logger
}

// NewMetricsCacheStorage creates a MetricsCacheStorage backed by BadgerHold.
func NewMetricsCacheStorage(store *Store, logger *common.Logger) *metricsCacheStorage {
	return &metricsCacheStorage{store: store, logger: logger}
}

func (s *metricsCacheStorage) GetMetrics(_ context.Context, symbol string) (*models.CachedMetrics, error) {
	var record models.CachedMetrics
	err := s.store.db.Get(metricsKey(symbol), &record)
	if err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get metrics for '%s': %w", symbol, err)
	}
	return &record, nil
}

func (s *metricsCacheStorage) SaveMetrics(_ context.Context, record *models.CachedMetrics) error {
	if err := s.store.db.Upsert(metricsKey(record.Symbol), record); err != nil {
		return fmt.Errorf("failed to save metrics for '%s': %w", record.Symbol, err)
	}
	s.logger.Debug().Str("symbol", record.Symbol).Msg("Valuation metrics saved")
	return nil
}

func metricsKey(symbol string) string {
	return "metrics:" + symbol
}
