package badger

import (
	"context"
	"fmt"

	"github.com/timshannon/badgerhold/v4"

	"github.com/bobmcallan/fairval/internal/common"
	"github.com/bobmcallan/fairval/internal/models"
)

type priceCacheStorage struct {
	store  *Store
	logger *common.Logger
}

// NewPriceCacheStorage creates a PriceCacheStorage backed by BadgerHold.
func NewPriceCacheStorage(store *Store, logger *common.Logger) *priceCacheStorage {
	return &priceCacheStorage{store: store, logger: logger}
}

func (s *priceCacheStorage) GetSnapshot(_ context.Context, market string) (*models.PriceSnapshot, error) {
	var snapshot models.PriceSnapshot
	err := s.store.db.Get(snapshotKey(market), &snapshot)
	if err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get price snapshot for '%s': %w", market, err)
	}
	return &snapshot, nil
}

func (s *priceCacheStorage) SaveSnapshot(_ context.Context, snapshot *models.PriceSnapshot) error {
	if err := s.store.db.Upsert(snapshotKey(snapshot.Market), snapshot); err != nil {
		return fmt.Errorf("failed to save price snapshot for '%s': %w", snapshot.Market, err)
	}
	s.logger.Debug().
		Str("market", snapshot.Market).
		Int("prices", len(snapshot.Prices)).
		Msg("Price snapshot saved")
	return nil
}

func snapshotKey(market string) string {
	return "prices:" + market
}
