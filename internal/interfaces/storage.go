package interfaces

import (
	"context"

	"github.com/bobmcallan/fairval/internal/models"
)

// PriceCacheStorage persists the per-market batch price snapshots.
// Reads fail soft: a missing or undecodable record returns (nil, nil).
type PriceCacheStorage interface {
	GetSnapshot(ctx context.Context, market string) (*models.PriceSnapshot, error)
	SaveSnapshot(ctx context.Context, snapshot *models.PriceSnapshot) error
}

// MetricsCacheStorage persists per-symbol valuation metrics records.
type MetricsCacheStorage interface {
	GetMetrics(ctx context.Context, symbol string) (*models.CachedMetrics, error)
	SaveMetrics(ctx context.Context, record *models.CachedMetrics) error
}

// EstimateCacheStorage persists AI estimates keyed by model+symbol+signature.
type EstimateCacheStorage interface {
	GetEstimate(ctx context.Context, key string) (*models.AIEstimate, error)
	SaveEstimate(ctx context.Context, key string, estimate *models.AIEstimate) error
}

// PreferenceStorage is a namespaced string KV for user preferences
// (selected market, selected language) and runtime credentials.
// Get never fails: any storage or decode error yields the fallback.
type PreferenceStorage interface {
	Get(ctx context.Context, key, fallback string) string
	Set(ctx context.Context, key, value string) error
}

// StorageManager coordinates the cache store areas.
type StorageManager interface {
	PriceCache() PriceCacheStorage
	MetricsCache() MetricsCacheStorage
	EstimateCache() EstimateCacheStorage
	Preferences() PreferenceStorage
	Close() error
}
