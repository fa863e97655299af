package common

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsFreshAt_PriceBoundary(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	assert.True(t, IsFreshAt(now, now.Add(-9*time.Minute), FreshnessPrices))
	assert.False(t, IsFreshAt(now, now.Add(-11*time.Minute), FreshnessPrices))
	// Exactly at the TTL counts as stale.
	assert.False(t, IsFreshAt(now, now.Add(-FreshnessPrices), FreshnessPrices))
}

func TestIsFreshAt_MetricsBoundary(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	assert.True(t, IsFreshAt(now, now.Add(-29*time.Minute), FreshnessMetrics))
	assert.False(t, IsFreshAt(now, now.Add(-31*time.Minute), FreshnessMetrics))
}

func TestIsFreshAt_EstimateBoundary(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	assert.True(t, IsFreshAt(now, now.Add(-23*time.Hour), FreshnessAIEstimate))
	assert.False(t, IsFreshAt(now, now.Add(-25*time.Hour), FreshnessAIEstimate))
}

func TestIsFreshAt_ZeroTimeNeverFresh(t *testing.T) {
	now := time.Now()
	assert.False(t, IsFreshAt(now, time.Time{}, FreshnessAIEstimate))
}

func TestIsFresh(t *testing.T) {
	assert.True(t, IsFresh(time.Now().Add(-time.Minute), FreshnessPrices))
	assert.False(t, IsFresh(time.Now().Add(-time.Hour), FreshnessPrices))
	assert.False(t, IsFresh(time.Time{}, FreshnessPrices))
}
