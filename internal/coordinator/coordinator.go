// Package coordinator drives domains through locate, dedup, classify, and persist
package coordinator

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/theopenlane/privacyguard/internal/compliance"
	"github.com/theopenlane/privacyguard/internal/domain"
	"github.com/theopenlane/privacyguard/internal/risk"
	"github.com/theopenlane/privacyguard/internal/store"
	"github.com/theopenlane/privacyguard/internal/types"
)

const (
	// DefaultConcurrency bounds concurrently processed domains in a batch
	DefaultConcurrency = 3
	// DefaultBatchLimit caps the pending entries picked up by one batch
	DefaultBatchLimit = 100
)

// Locator finds the agreement published by a domain
type Locator interface {
	Locate(ctx context.Context, domain string) (*compliance.Document, []compliance.Attempt, error)
}

// Assessor classifies agreement text
type Assessor interface {
	Assess(ctx context.Context, text, label string) (risk.Classification, error)
}

// Notifier is told about every finished batch
type Notifier interface {
	NotifyBatch(ctx context.Context, summary types.BatchSummary) error
}

// Result is the outcome of processing one domain
type Result struct {
	Success      bool         `json:"success"`
	Status       types.Status `json:"status"`
	Domain       string       `json:"domain"`
	Copied       bool         `json:"copied,omitempty"`
	SourceDomain string       `json:"source_domain,omitempty"`
	AgreementURL string       `json:"agreement_url,omitempty"`
	RiskLevel    risk.Level   `json:"risk_level,omitempty"`
	Attempted    []string     `json:"attempted_urls,omitempty"`
	Error        string       `json:"error,omitempty"`
}

// Options configures a Coordinator
type Options struct {
	inFlight   *InFlight
	notifier   Notifier
	now        func() time.Time
	batchLimit int
}

// Option is a functional option for configuring a Coordinator
type Option func(*Options)

// WithInFlight shares an in-flight set with other coordinators
func WithInFlight(s *InFlight) Option {
	return func(o *Options) {
		if s != nil {
			o.inFlight = s
		}
	}
}

// WithNotifier sets the batch notifier
func WithNotifier(n Notifier) Option {
	return func(o *Options) {
		if n != nil {
			o.notifier = n
		}
	}
}

// WithClock sets the time source for timestamps
func WithClock(now func() time.Time) Option {
	return func(o *Options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithBatchLimit caps the pending entries picked up by one batch
func WithBatchLimit(n int) Option {
	return func(o *Options) {
		if n > 0 {
			o.batchLimit = n
		}
	}
}

// Coordinator runs the per-domain state machine and batch processing
type Coordinator struct {
	store    store.Store
	locator  Locator
	assessor Assessor
	options  *Options
}

// New creates a Coordinator
func New(st store.Store, locator Locator, assessor Assessor, opts ...Option) (*Coordinator, error) {
	if st == nil || locator == nil || assessor == nil {
		return nil, ErrMissingDependency
	}

	o := &Options{
		inFlight:   NewInFlight(),
		now:        time.Now,
		batchLimit: DefaultBatchLimit,
	}

	for _, opt := range opts {
		opt(o)
	}

	return &Coordinator{
		store:    st,
		locator:  locator,
		assessor: assessor,
		options:  o,
	}, nil
}

// InFlight returns the in-flight set used by the coordinator
func (c *Coordinator) InFlight() *InFlight {
	return c.options.inFlight
}

// ProcessOne normalizes raw and processes it unless another caller already holds
// the domain. The only error is ErrInvalidDomain; processing failures are
// reported in the Result
func (c *Coordinator) ProcessOne(ctx context.Context, raw string) (Result, error) {
	key := domain.Normalize(raw)
	if key == "" {
		return Result{}, ErrInvalidDomain
	}

	if !c.options.inFlight.TryAcquire(key) {
		log.Info().Str("domain", key).Msg("domain already processing")

		return Result{Domain: key, Status: types.StatusAlreadyProcessing}, nil
	}
	defer c.options.inFlight.Release(key)

	return c.process(ctx, key), nil
}

// process runs the state machine for a domain the caller holds in the in-flight set
func (c *Coordinator) process(ctx context.Context, key string) Result {
	logger := log.With().Str("domain", key).Logger()

	if err := c.store.SetPendingStatus(ctx, key, types.StatusProcessing); err != nil {
		return c.fail(ctx, key, err)
	}

	c.audit(ctx, types.ActionProcessingStarted, map[string]any{"url": key})

	if _, err := c.store.GetAssessment(ctx, key); err == nil {
		c.dequeue(ctx, key)
		c.audit(ctx, types.ActionAlreadyAssessed, map[string]any{"url": key})

		logger.Info().Msg("assessment already exists")

		return Result{Success: true, Status: types.StatusAlreadyAssessed, Domain: key}
	} else if !errors.Is(err, store.ErrNotFound) {
		return c.fail(ctx, key, err)
	}

	doc, attempts, err := c.locator.Locate(ctx, key)
	if errors.Is(err, compliance.ErrAgreementNotFound) {
		return c.notFound(ctx, key, attempts)
	}

	if err != nil {
		return c.fail(ctx, key, err)
	}

	hash := doc.ContentHash()

	match, err := c.store.FindAssessmentByContentHash(ctx, hash, key)

	switch {
	case err == nil:
		return c.copyFrom(ctx, key, doc, hash, match)
	case !errors.Is(err, store.ErrNotFound):
		return c.fail(ctx, key, err)
	}

	classification, err := c.assessor.Assess(ctx, doc.Text, key)
	if err != nil {
		return c.fail(ctx, key, err)
	}

	assessment := types.Assessment{
		Domain:         key,
		SourceURL:      doc.URL,
		ContentHash:    hash,
		Classification: classification,
		LastUpdated:    c.options.now().UTC(),
	}

	if err := c.store.UpsertAssessment(ctx, assessment); err != nil {
		return c.fail(ctx, key, err)
	}

	c.dequeue(ctx, key)
	c.audit(ctx, types.ActionCompleted, map[string]any{
		"url":          key,
		"agreementUrl": doc.URL,
		"riskLevel":    string(classification.Overall),
		"pageType":     doc.PageType,
		"pinned":       doc.Pinned,
	})

	logger.Info().Str("risk", string(classification.Overall)).Str("url", doc.URL).Msg("assessment completed")

	return Result{
		Success:      true,
		Status:       types.StatusCompleted,
		Domain:       key,
		AgreementURL: doc.URL,
		RiskLevel:    classification.Overall,
	}
}

// copyFrom stores the verdict of a domain whose agreement text is identical
func (c *Coordinator) copyFrom(ctx context.Context, key string, doc *compliance.Document, hash string, match *types.Assessment) Result {
	assessment := types.Assessment{
		Domain:         key,
		SourceURL:      doc.URL,
		ContentHash:    hash,
		Classification: match.Classification.Clone(),
		LastUpdated:    c.options.now().UTC(),
	}

	if err := c.store.UpsertAssessment(ctx, assessment); err != nil {
		return c.fail(ctx, key, err)
	}

	c.dequeue(ctx, key)
	c.audit(ctx, types.ActionCopied, map[string]any{
		"url":           key,
		"sourceUrl":     match.Domain,
		"agreementHash": hash,
	})

	log.Info().Str("domain", key).Str("source", match.Domain).Msg("assessment copied from identical agreement")

	return Result{
		Success:      true,
		Status:       types.StatusCompleted,
		Domain:       key,
		Copied:       true,
		SourceDomain: match.Domain,
		AgreementURL: doc.URL,
		RiskLevel:    assessment.Classification.Overall,
	}
}

// notFound records that no candidate produced an agreement
func (c *Coordinator) notFound(ctx context.Context, key string, attempts []compliance.Attempt) Result {
	tried := compliance.URLs(attempts)
	bookkeeping := context.WithoutCancel(ctx)

	if err := c.store.SetPendingStatus(bookkeeping, key, types.StatusNotFound); err != nil {
		log.Error().Err(err).Str("domain", key).Msg("failed to record not found status")
	}

	c.audit(bookkeeping, types.ActionNotFound, map[string]any{
		"url":        key,
		"triedPaths": tried,
	})

	log.Info().Str("domain", key).Int("attempts", len(attempts)).Msg("agreement not found")

	return Result{Status: types.StatusNotFound, Domain: key, Attempted: tried}
}

// fail records a processing failure. Bookkeeping survives cancellation of ctx
func (c *Coordinator) fail(ctx context.Context, key string, cause error) Result {
	bookkeeping := context.WithoutCancel(ctx)

	if err := c.store.SetPendingStatus(bookkeeping, key, types.StatusFailed); err != nil {
		log.Error().Err(err).Str("domain", key).Msg("failed to record failed status")
	}

	c.audit(bookkeeping, types.ActionFailed, map[string]any{
		"url":   key,
		"error": cause.Error(),
	})

	log.Error().Err(cause).Str("domain", key).Msg("assessment failed")

	return Result{Status: types.StatusFailed, Domain: key, Error: cause.Error()}
}

// dequeue removes the pending entry; failures leave the entry for a later run
func (c *Coordinator) dequeue(ctx context.Context, key string) {
	if err := c.store.RemovePending(ctx, key); err != nil {
		log.Warn().Err(err).Str("domain", key).Msg("failed to remove pending entry")
	}
}

// audit appends a system audit entry; per-domain audit failures are logged only
func (c *Coordinator) audit(ctx context.Context, action string, details map[string]any) {
	if err := c.appendAudit(ctx, action, details); err != nil {
		log.Warn().Err(err).Str("action", action).Msg("failed to append audit entry")
	}
}

func (c *Coordinator) appendAudit(ctx context.Context, action string, details map[string]any) error {
	return c.store.AppendAuditLog(ctx, types.NewAuditEntry(action, c.options.now(), details))
}
