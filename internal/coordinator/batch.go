package coordinator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/theopenlane/privacyguard/internal/types"
)

// ProcessAll processes the pending queue with at most concurrency domains in flight.
// Domains another caller already holds are skipped. Per-domain failures are counted,
// not returned; only loading the queue or batch audit bookkeeping can fail the batch
func (c *Coordinator) ProcessAll(ctx context.Context, concurrency int) (types.BatchSummary, error) {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	start := c.options.now()

	entries, err := c.store.GetPending(ctx, types.StatusPending, c.options.batchLimit)
	if err != nil {
		return types.BatchSummary{}, c.batchFailed(ctx, fmt.Errorf("loading pending queue: %w", err))
	}

	if err := c.appendAudit(ctx, types.ActionBatchStarted, map[string]any{"count": len(entries)}); err != nil {
		return types.BatchSummary{}, c.batchFailed(ctx, fmt.Errorf("recording batch start: %w", err))
	}

	log.Info().Int("count", len(entries)).Int("concurrency", concurrency).Msg("batch started")

	var (
		mu      sync.Mutex
		summary = types.BatchSummary{Total: len(entries)}
	)

	record := func(r Result) {
		mu.Lock()
		defer mu.Unlock()

		summary.Processed++

		switch {
		case r.Success:
			summary.Successful++
		case r.Status == types.StatusNotFound:
			summary.NotFound++
		case r.Status == types.StatusAlreadyProcessing:
			summary.Skipped++
		default:
			summary.Failed++
		}
	}

	g := new(errgroup.Group)
	g.SetLimit(concurrency)

	for _, entry := range entries {
		key := entry.Domain

		if !c.options.inFlight.TryAcquire(key) {
			log.Info().Str("domain", key).Msg("skipping domain already processing")
			record(Result{Domain: key, Status: types.StatusAlreadyProcessing})

			continue
		}

		g.Go(func() error {
			defer c.options.inFlight.Release(key)

			record(c.process(ctx, key))

			return nil
		})
	}

	_ = g.Wait()

	summary.Duration = c.options.now().Sub(start)

	if err := c.appendAudit(ctx, types.ActionBatchCompleted, map[string]any{"results": summaryDetails(summary)}); err != nil {
		return summary, c.batchFailed(ctx, fmt.Errorf("recording batch completion: %w", err))
	}

	log.Info().
		Int("total", summary.Total).
		Int("successful", summary.Successful).
		Int("failed", summary.Failed).
		Int("not_found", summary.NotFound).
		Int("skipped", summary.Skipped).
		Dur("duration", summary.Duration).
		Msg("batch completed")

	if c.options.notifier != nil {
		if err := c.options.notifier.NotifyBatch(ctx, summary); err != nil {
			log.Warn().Err(err).Msg("failed to send batch notification")
		}
	}

	return summary, nil
}

// batchFailed records a batch level failure and returns err
func (c *Coordinator) batchFailed(ctx context.Context, err error) error {
	if auditErr := c.appendAudit(context.WithoutCancel(ctx), types.ActionBatchFailed, map[string]any{"error": err.Error()}); auditErr != nil {
		log.Error().Err(auditErr).Msg("failed to record batch failure")
	}

	log.Error().Err(err).Msg("batch failed")

	return err
}

// summaryDetails renders a summary for the audit log
func summaryDetails(s types.BatchSummary) map[string]any {
	return map[string]any{
		"total":      s.Total,
		"processed":  s.Processed,
		"successful": s.Successful,
		"failed":     s.Failed,
		"notFound":   s.NotFound,
		"skipped":    s.Skipped,
		"durationMs": s.Duration.Milliseconds(),
	}
}

// Run processes the queue immediately and then every interval until ctx is done.
// Batch errors are logged and never stop the loop
func (c *Coordinator) Run(ctx context.Context, interval time.Duration, concurrency int) {
	runBatch := func() {
		if _, err := c.ProcessAll(ctx, concurrency); err != nil {
			log.Error().Err(err).Msg("scheduled batch failed")
		}
	}

	runBatch()

	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runBatch()
		}
	}
}
