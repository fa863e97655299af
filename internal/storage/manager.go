// Package storage provides the top-level StorageManager coordinating the
// Fairval cache areas: price snapshots, valuation metrics, AI estimates,
// and user preferences, all in one BadgerHold store.
package storage

import (
	"fmt"

	"github.com/bobmcallan/fairval/internal/common"
	"github.com/bobmcallan/fairval/internal/interfaces"
	"github.com/bobmcallan/fairval/internal/storage/badger"
)

// Manager implements interfaces.StorageManager.
type Manager struct {
	store     *badger.Store
	prices    interfaces.PriceCacheStorage
	metrics   interfaces.MetricsCacheStorage
	estimates interfaces.EstimateCacheStorage
	prefs     interfaces.PreferenceStorage
	logger    *common.Logger
}

// NewManager opens the cache store and wires the typed storage areas.
func NewManager(logger *common.Logger, config *common.Config) (*Manager, error) {
	store, err := badger.NewStore(logger, config.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to create cache store: %w", err)
	}

	logger.Info().
		Str("path", config.Storage.Path).
		Msg("Storage manager initialized")

	return &Manager{
		store:     store,
		prices:    badger.NewPriceCacheStorage(store, logger),
		metrics:   badger.NewMetricsCacheStorage(store, logger),
		estimates: badger.NewEstimateCacheStorage(store, logger),
		prefs:     badger.NewPrefStorage(store, logger),
		logger:    logger,
	}, nil
}

func (m *Manager) PriceCache() interfaces.PriceCacheStorage {
	return m.prices
}

func (m *Manager) MetricsCache() interfaces.MetricsCacheStorage {
	return m.metrics
}

func (m *Manager) EstimateCache() interfaces.EstimateCacheStorage {
	return m.estimates
}

func (m *Manager) Preferences() interfaces.PreferenceStorage {
	return m.prefs
}

// Close closes the underlying store.
func (m *Manager) Close() error {
	return m.store.Close()
}

// Ensure Manager implements StorageManager
var _ interfaces.StorageManager = (*Manager)(nil)
