// Package common provides shared utilities for Fairval
package common

import "time"

// Freshness TTLs for cached data components
const (
	FreshnessPrices     = 10 * time.Minute // per-market batch price snapshot
	FreshnessMetrics    = 30 * time.Minute // per-symbol valuation metrics
	FreshnessAIEstimate = 24 * time.Hour   // AI fair-value estimates, keyed by input signature
)

// IsFresh returns true if the given timestamp is within the TTL
func IsFresh(updated time.Time, ttl time.Duration) bool {
	if updated.IsZero() {
		return false
	}
	return time.Since(updated) < ttl
}

// IsFreshAt is IsFresh evaluated against an explicit "now", for callers
// with an injected clock.
func IsFreshAt(now, updated time.Time, ttl time.Duration) bool {
	if updated.IsZero() {
		return false
	}
	return now.Sub(updated) < ttl
}
