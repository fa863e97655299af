package models

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// AIEstimate is a model-produced fair-value estimate with its rationale,
// cached per (model, symbol, input signature) for 24 hours.
type AIEstimate struct {
	Symbol     string    `json:"symbol"`
	FairValue  float64   `json:"fair_value"`
	Rationale  string    `json:"rationale"`
	Model      string    `json:"model"`
	Signature  string    `json:"signature"`
	CapturedAt time.Time `json:"captured_at"`
}

// DeltaPct returns the percentage difference of the estimate versus the
// weighted fair value, or 0 when weighted is zero.
func (e *AIEstimate) DeltaPct(weighted float64) float64 {
	if weighted == 0 {
		return 0
	}
	return (e.FairValue - weighted) / weighted * 100
}

// EstimateSignature digests the five numeric inputs the model sees, each
// rounded to 2 decimal places and joined in fixed order. Any change to an
// underlying multiple changes the signature; unrelated fields (margins,
// currency) do not participate.
func EstimateSignature(m ValuationMetrics) string {
	joined := fmt.Sprintf("%.2f|%.2f|%.2f|%.2f|%.2f",
		m.FairEV, m.FairPE, m.FairPS, m.BookValue, m.Price)
	sum := sha256.Sum256([]byte(joined))
	return hex.EncodeToString(sum[:])
}

// EstimateCacheKey builds the cache key for an estimate lookup.
func EstimateCacheKey(model, symbol, signature string) string {
	return fmt.Sprintf("%s:%s:%s", model, symbol, signature)
}
