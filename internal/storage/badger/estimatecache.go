package badger

import (
	"context"
	"fmt"

	"github.com/timshannon/badgerhold/v4"

	"github.com/bobmcallan/fairval/internal/common"
	"github.com/bobmcallan/fairval/internal/models"
)

type estimateCacheStorage struct {
	store  *Store
	logger *common.Logger
}

// NewEstimateCacheStorage creates an EstimateCacheStorage backed by BadgerHold.
func NewEstimateCacheStorage(store *Store, logger *common.Logger) *estimateCacheStorage {
	return &estimateCacheStorage{store: store, logger: logger}
}

func (s *estimateCacheStorage) GetEstimate(_ context.Context, key string) (*models.AIEstimate, error) {
	var estimate models.AIEstimate
	err := s.store.db.Get(estimateKey(key), &estimate)
	if err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get estimate '%s': %w", key, err)
	}
	return &estimate, nil
}

func (s *estimateCacheStorage) SaveEstimate(_ context.Context, key string, estimate *models.AIEstimate) error {
	if err := s.store.db.Upsert(estimateKey(key), estimate); err != nil {
		return fmt.Errorf("failed to save estimate '%s': %w", key, err)
	}
	s.logger.Debug().Str("symbol", estimate.Symbol).Msg("AI estimate saved")
	return nil
}

func estimateKey(key string) string {
	return "estimate:" + key
}
