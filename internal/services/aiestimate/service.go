// Package aiestimate produces model-generated fair-value estimates
package aiestimate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/bobmcallan/fairval/internal/common"
	"github.com/bobmcallan/fairval/internal/interfaces"
	"github.com/bobmcallan/fairval/internal/models"
)

var (
	// ErrModelUnavailable means no model credential is configured; the
	// estimate action is disabled rather than attempted.
	ErrModelUnavailable = errors.New("ai model unavailable")

	// ErrEstimateFailed is the single generic failure surfaced for any
	// invocation or parse problem. No partial result is ever produced.
	ErrEstimateFailed = errors.New("ai estimate failed")
)

// DefaultSlowNotice is how long to wait on the model before logging a
// "taking a while" notice. Presentation only; the call is not cancelled.
const DefaultSlowNotice = 15 * time.Second

// Service implements EstimateService with a 24-hour signature-keyed cache.
type Service struct {
	storage    interfaces.StorageManager
	model      interfaces.GeminiClient // nil disables the estimate action
	logger     *common.Logger
	now        func() time.Time // injectable clock for testing
	group      singleflight.Group
	slowNotice time.Duration
}

// NewService creates a new AI estimate service. model may be nil when no
// credential is configured, in which case every call reports ErrModelUnavailable.
func NewService(
	storage interfaces.StorageManager,
	model interfaces.GeminiClient,
	logger *common.Logger,
) *Service {
	return &Service{
		storage:    storage,
		model:      model,
		logger:     logger,
		now:        time.Now,
		slowNotice: DefaultSlowNotice,
	}
}

// GetEstimate returns the cached estimate for the metrics' input signature
// when younger than 24 hours, otherwise invokes the model. Concurrent calls
// for the same (model, symbol, signature) share a single in-flight
// invocation, so at most one model call per key is active at any time.
func (s *Service) GetEstimate(ctx context.Context, symbol string, metrics models.ValuationMetrics) (*models.AIEstimate, error) {
	if s.model == nil {
		return nil, ErrModelUnavailable
	}

	signature := models.EstimateSignature(metrics)
	key := models.EstimateCacheKey(s.model.ModelID(), symbol, signature)

	if cached := s.freshCached(ctx, key); cached != nil {
		s.logger.Debug().Str("symbol", symbol).Msg("AI estimate cache hit")
		return cached, nil
	}

	result, err, _ := s.group.Do(key, func() (interface{}, error) {
		// A joiner may arrive just after the previous flight cached its result.
		if cached := s.freshCached(ctx, key); cached != nil {
			return cached, nil
		}
		return s.invoke(ctx, symbol, signature, key, metrics)
	})
	if err != nil {
		return nil, err
	}
	return result.(*models.AIEstimate), nil
}

// PeekEstimate returns the fresh cached estimate for the metrics' signature
// without ever invoking the model. Used where an estimate is optional, such
// as share links.
func (s *Service) PeekEstimate(ctx context.Context, symbol string, metrics models.ValuationMetrics) *models.AIEstimate {
	if s.model == nil {
		return nil
	}
	signature := models.EstimateSignature(metrics)
	key := models.EstimateCacheKey(s.model.ModelID(), symbol, signature)
	return s.freshCached(ctx, key)
}

// freshCached returns the cached estimate when present and within TTL.
func (s *Service) freshCached(ctx context.Context, key string) *models.AIEstimate {
	cached, err := s.storage.EstimateCache().GetEstimate(ctx, key)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Estimate cache read failed")
		return nil
	}
	if cached == nil || !common.IsFreshAt(s.now(), cached.CapturedAt, common.FreshnessAIEstimate) {
		return nil
	}
	return cached
}

// invoke calls the model once and writes the parsed estimate through to the
// cache. Any failure collapses to ErrEstimateFailed with no cache write.
func (s *Service) invoke(ctx context.Context, symbol, signature, key string, metrics models.ValuationMetrics) (*models.AIEstimate, error) {
	prompt := buildEstimatePrompt(symbol, metrics)

	slow := time.AfterFunc(s.slowNotice, func() {
		s.logger.Info().Str("symbol", symbol).Msg("AI estimate is taking a while")
	})
	defer slow.Stop()

	start := time.Now()
	text, err := s.model.GenerateContent(ctx, prompt)
	if err != nil {
		s.logger.Warn().Err(err).Str("symbol", symbol).Msg("AI estimate generation failed")
		return nil, fmt.Errorf("%w: %v", ErrEstimateFailed, err)
	}

	fairValue, rationale, err := parseEstimate(text)
	if err != nil {
		s.logger.Warn().Err(err).Str("symbol", symbol).Msg("AI estimate response unparsable")
		return nil, fmt.Errorf("%w: %v", ErrEstimateFailed, err)
	}

	estimate := &models.AIEstimate{
		Symbol:     symbol,
		FairValue:  fairValue,
		Rationale:  rationale,
		Model:      s.model.ModelID(),
		Signature:  signature,
		CapturedAt: s.now(),
	}

	if err := s.storage.EstimateCache().SaveEstimate(ctx, key, estimate); err != nil {
		s.logger.Warn().Err(err).Str("symbol", symbol).Msg("Estimate cache write failed")
	}

	s.logger.Info().
		Str("symbol", symbol).
		Float64("fair_value", fairValue).
		Dur("elapsed", time.Since(start)).
		Msg("AI estimate generated")

	return estimate, nil
}

// buildEstimatePrompt creates the fixed instruction plus the five numeric
// inputs at 2 decimals and the currency code.
func buildEstimatePrompt(symbol string, m models.ValuationMetrics) string {
	return fmt.Sprintf(`You are a stock valuation assistant. Compute a fair value for the stock as:

    fair value = 0.5 * EV + 0.25 * PE + 0.25 * PS

using the per-share multiples below, then sanity-check it against the book value and current price. Respond with ONLY a JSON object of the form {"fv": <number>, "rationale": "<one or two sentences>"} and nothing else.

Inputs for %s (%s):
- EV multiple: %.2f
- PE multiple: %.2f
- PS multiple: %.2f
- Book value: %.2f
- Current price: %.2f
`, symbol, m.Currency, m.FairEV, m.FairPE, m.FairPS, m.BookValue, m.Price)
}

// Ensure Service implements EstimateService
var _ interfaces.EstimateService = (*Service)(nil)
