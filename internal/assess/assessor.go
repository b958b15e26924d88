// Package assess turns agreement text into a risk classification using an LLM gateway
package assess

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/theopenlane/privacyguard/internal/chunk"
	"github.com/theopenlane/privacyguard/internal/llm"
	"github.com/theopenlane/privacyguard/internal/retry"
	"github.com/theopenlane/privacyguard/internal/risk"
)

const (
	// DefaultMaxDirectTokens is the estimated token count below which text is classified in one call
	DefaultMaxDirectTokens = 2000
	// DefaultMaxDirectChars is the character count below which text is classified in one call
	DefaultMaxDirectChars = 7000
	// DefaultChunkSize is the maximum size of a section in the chunked path
	DefaultChunkSize = 8000
	// DefaultChunkDelay is the minimum spacing between section calls
	DefaultChunkDelay = 10 * time.Second
)

// Options configures an Assessor
type Options struct {
	maxDirectTokens int
	maxDirectChars  int
	chunkSize       int
	chunkDelay      time.Duration
	retryPolicy     retry.Policy
}

// Option is a functional option for configuring an Assessor
type Option func(*Options)

// WithDirectThresholds sets the token and character limits of the single-call path
func WithDirectThresholds(tokens, chars int) Option {
	return func(o *Options) {
		if tokens > 0 {
			o.maxDirectTokens = tokens
		}

		if chars > 0 {
			o.maxDirectChars = chars
		}
	}
}

// WithChunkSize sets the maximum section size of the chunked path
func WithChunkSize(n int) Option {
	return func(o *Options) {
		if n > 0 {
			o.chunkSize = n
		}
	}
}

// WithChunkDelay sets the minimum spacing between section calls; zero disables the throttle
func WithChunkDelay(d time.Duration) Option {
	return func(o *Options) {
		if d >= 0 {
			o.chunkDelay = d
		}
	}
}

// WithRetryPolicy sets the retry policy applied to every gateway call
func WithRetryPolicy(p retry.Policy) Option {
	return func(o *Options) {
		if p.MaxRetries >= 0 {
			o.retryPolicy = p
		}
	}
}

// Assessor classifies agreement text, splitting it into sections when it is too large
// for a single call
type Assessor struct {
	gateway llm.Gateway
	options *Options
	limiter *rate.Limiter
}

// New creates an Assessor that sends prompts to gateway
func New(gateway llm.Gateway, opts ...Option) (*Assessor, error) {
	if gateway == nil {
		return nil, ErrMissingGateway
	}

	o := &Options{
		maxDirectTokens: DefaultMaxDirectTokens,
		maxDirectChars:  DefaultMaxDirectChars,
		chunkSize:       DefaultChunkSize,
		chunkDelay:      DefaultChunkDelay,
		retryPolicy:     retry.DefaultPolicy(),
	}

	for _, opt := range opts {
		opt(o)
	}

	limit := rate.Inf
	if o.chunkDelay > 0 {
		limit = rate.Every(o.chunkDelay)
	}

	return &Assessor{
		gateway: gateway,
		options: o,
		limiter: rate.NewLimiter(limit, 1),
	}, nil
}

// Direct reports whether text is small enough for the single-call path
func (a *Assessor) Direct(text string) bool {
	return EstimateTokens(text) < a.options.maxDirectTokens && utf8.RuneCountInString(text) < a.options.maxDirectChars
}

// Assess classifies text. The label only appears in logs. Small documents are
// classified in one call and canonicalized; larger ones are split, classified
// section by section under the shared throttle, and merged
func (a *Assessor) Assess(ctx context.Context, text, label string) (risk.Classification, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return risk.Classification{}, ErrEmptyText
	}

	logger := log.With().Str("domain", label).Logger()

	if a.Direct(text) {
		logger.Debug().Int("tokens", EstimateTokens(text)).Int("chars", utf8.RuneCountInString(text)).Msg("classifying document directly")

		c, err := a.classify(ctx, DocumentPrompt(text), label)
		if err != nil {
			return risk.Classification{}, err
		}

		return risk.Canonical(c), nil
	}

	sections := chunk.Split(text, a.options.chunkSize)

	logger.Info().Int("tokens", EstimateTokens(text)).Int("chars", utf8.RuneCountInString(text)).Int("chunks", len(sections)).Msg("classifying document in chunks")

	parts := make([]risk.Classification, 0, len(sections))

	for i, section := range sections {
		if err := a.limiter.Wait(ctx); err != nil {
			return risk.Classification{}, err
		}

		c, err := a.classify(ctx, ChunkPrompt(section, i+1, len(sections)), label)
		if err != nil {
			return risk.Classification{}, fmt.Errorf("%w: chunk %d/%d: %w", ErrChunkFailed, i+1, len(sections), err)
		}

		parts = append(parts, c)
	}

	return risk.Combine(parts), nil
}

// classify sends one prompt with retries and parses the final response. Parse
// failures are not retried
func (a *Assessor) classify(ctx context.Context, prompt, label string) (risk.Classification, error) {
	policy := a.options.retryPolicy
	policy.OnRetry = func(attempt int, wait time.Duration, err error) {
		log.Warn().Err(err).Str("domain", label).Int("attempt", attempt).Dur("wait", wait).Bool("rate_limited", retry.IsRateLimited(err)).Msg("classification call failed, retrying")
	}

	completion, err := retry.Do(ctx, policy, func(ctx context.Context) (llm.Completion, error) {
		return a.gateway.Complete(ctx, prompt)
	})
	if err != nil {
		return risk.Classification{}, err
	}

	return ParseResponse(completion.Text)
}
