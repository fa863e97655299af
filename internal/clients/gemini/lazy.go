package gemini

import (
	"context"
	"sync"

	"github.com/bobmcallan/fairval/internal/common"
	"github.com/bobmcallan/fairval/internal/interfaces"
)

// Lazy defers Gemini engine construction until first use. The engine is
// constructed at most once per process; concurrent first calls block on the
// same construction and share its result. A failed construction is final;
// callers see the stored error on every subsequent use.
type Lazy struct {
	model  string
	logger *common.Logger

	once   sync.Once
	client *Client
	err    error
	build  func(ctx context.Context) (*Client, error)
}

// NewLazy creates a lazy handle for a Gemini client with the given key and model.
func NewLazy(apiKey, model string, logger *common.Logger) *Lazy {
	if model == "" {
		model = DefaultModel
	}
	return &Lazy{
		model:  model,
		logger: logger,
		build: func(ctx context.Context) (*Client, error) {
			return NewClient(ctx, apiKey, WithModel(model), WithLogger(logger))
		},
	}
}

// resolve constructs the client on first use.
func (l *Lazy) resolve(ctx context.Context) (*Client, error) {
	l.once.Do(func() {
		l.client, l.err = l.build(ctx)
		if l.err != nil {
			l.logger.Warn().Err(l.err).Msg("Gemini engine construction failed")
		} else {
			l.logger.Debug().Str("model", l.model).Msg("Gemini engine constructed")
		}
	})
	return l.client, l.err
}

// Warm speculatively constructs the engine so the first estimate is fast.
// Errors are swallowed; the stored result is reused either way.
func (l *Lazy) Warm(ctx context.Context) {
	_, _ = l.resolve(ctx)
}

// GenerateContent constructs the engine if needed and generates content.
func (l *Lazy) GenerateContent(ctx context.Context, prompt string) (string, error) {
	client, err := l.resolve(ctx)
	if err != nil {
		return "", err
	}
	return client.GenerateContent(ctx, prompt)
}

// ModelID identifies the configured model without forcing construction.
func (l *Lazy) ModelID() string {
	return l.model
}

// Ensure Lazy implements GeminiClient
var _ interfaces.GeminiClient = (*Lazy)(nil)
