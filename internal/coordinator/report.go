package coordinator

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/theopenlane/privacyguard/internal/domain"
	"github.com/theopenlane/privacyguard/internal/store"
	"github.com/theopenlane/privacyguard/internal/types"
)

// State is the user-visible assessment state of a domain
type State string

const (
	// StateAssessed means an assessment exists
	StateAssessed State = "assessed"
	// StateQueued means the domain waits in the queue
	StateQueued State = "queued"
	// StateProcessing means the domain is being processed right now
	StateProcessing State = "processing"
	// StateFailed means the last attempt failed and the domain will be retried
	StateFailed State = "failed"
	// StateNotFound means no agreement could be located
	StateNotFound State = "not_found"
	// StateUnknown means the domain has never been reported
	StateUnknown State = "unknown"
)

// StatusReport describes where a domain stands
type StatusReport struct {
	Domain     string              `json:"domain"`
	State      State               `json:"state"`
	Assessment *types.Assessment   `json:"assessment,omitempty"`
	Pending    *types.PendingEntry `json:"pending,omitempty"`
}

// ReportResult is the outcome of reporting an unassessed domain
type ReportResult struct {
	Domain   string `json:"domain"`
	Queued   bool   `json:"queued"`
	Assessed bool   `json:"assessed"`
}

// Report records a domain seen without an assessment. The domain is queued only
// when it has neither an assessment nor a queue entry; suggested URLs are merged
// into an existing entry
func (c *Coordinator) Report(ctx context.Context, raw string, suggested []string) (ReportResult, error) {
	key := domain.Normalize(raw)
	if key == "" {
		return ReportResult{}, ErrInvalidDomain
	}

	_, err := c.store.GetAssessment(ctx, key)
	if err == nil {
		return ReportResult{Domain: key, Assessed: true}, nil
	}

	if !errors.Is(err, store.ErrNotFound) {
		return ReportResult{}, err
	}

	created, err := c.store.AddPending(ctx, key, suggested)
	if err != nil {
		return ReportResult{}, err
	}

	if created {
		log.Info().Str("domain", key).Int("suggested", len(suggested)).Msg("domain queued for assessment")
	}

	return ReportResult{Domain: key, Queued: created}, nil
}

// Status looks up the assessment state of a domain
func (c *Coordinator) Status(ctx context.Context, raw string) (StatusReport, error) {
	key := domain.Normalize(raw)
	if key == "" {
		return StatusReport{}, ErrInvalidDomain
	}

	report := StatusReport{Domain: key, State: StateUnknown}

	assessment, err := c.store.GetAssessment(ctx, key)

	switch {
	case err == nil:
		report.State = StateAssessed
		report.Assessment = assessment

		return report, nil
	case !errors.Is(err, store.ErrNotFound):
		return StatusReport{}, err
	}

	entry, err := c.store.GetPendingEntry(ctx, key)

	switch {
	case errors.Is(err, store.ErrNotFound):
	case err != nil:
		return StatusReport{}, err
	default:
		report.Pending = entry
		report.State = stateOf(entry.Status)
	}

	if c.options.inFlight.Contains(key) {
		report.State = StateProcessing
	}

	return report, nil
}

func stateOf(status types.Status) State {
	switch status {
	case types.StatusPending:
		return StateQueued
	case types.StatusProcessing:
		return StateProcessing
	case types.StatusFailed:
		return StateFailed
	case types.StatusNotFound:
		return StateNotFound
	default:
		return StateUnknown
	}
}
