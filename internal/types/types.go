package types

import (
	"time"

	"github.com/google/uuid"

	"github.com/theopenlane/privacyguard/internal/risk"
)

// Status is the processing state of a domain or the outcome of a processing request
type Status string

const (
	// StatusPending marks a queued domain waiting for processing
	StatusPending Status = "Pending"
	// StatusProcessing marks a domain currently being processed
	StatusProcessing Status = "Processing"
	// StatusCompleted marks a domain whose assessment was produced
	StatusCompleted Status = "Completed"
	// StatusFailed marks a domain whose last processing attempt failed
	StatusFailed Status = "Failed"
	// StatusNotFound marks a domain with no locatable agreement
	StatusNotFound Status = "Not Found"
	// StatusAlreadyAssessed is an outcome only; the domain already had an assessment
	StatusAlreadyAssessed Status = "Already Assessed"
	// StatusAlreadyProcessing is an outcome only; another caller holds the domain
	StatusAlreadyProcessing Status = "Already Processing"
)

// Audit action tags
const (
	ActionProcessingStarted = "unassessed_url_processing"
	ActionAlreadyAssessed   = "assessment_already_exists"
	ActionNotFound          = "agreement_not_found"
	ActionCopied            = "assessment_copied"
	ActionCompleted         = "assessment_completed"
	ActionFailed            = "assessment_failed"
	ActionBatchStarted      = "assessment_trigger_started"
	ActionBatchCompleted    = "assessment_trigger_completed"
	ActionBatchFailed       = "assessment_trigger_failed"
)

// PendingEntry is a queued domain awaiting assessment
type PendingEntry struct {
	Domain        string    `json:"domain" example:"example.com" description:"Normalized domain key"`
	FirstSeen     time.Time `json:"first_seen" description:"When the domain was first reported unassessed"`
	Status        Status    `json:"status" example:"Pending" description:"Current processing status"`
	SuggestedURLs []string  `json:"suggested_policy_urls,omitempty" description:"Agreement URLs suggested by reporters, tried first"`
}

// Assessment is the stored verdict for a domain
type Assessment struct {
	Domain         string              `json:"domain" example:"example.com" description:"Normalized domain key"`
	SourceURL      string              `json:"source_url" example:"https://example.com/privacy" description:"URL the agreement text was taken from"`
	ContentHash    string              `json:"content_hash" description:"Hex sha256 of the extracted agreement text"`
	Classification risk.Classification `json:"classification" description:"Per-category and overall risk"`
	LastUpdated    time.Time           `json:"last_updated" description:"When the assessment was written"`
	ManualOverride bool                `json:"manual_override" description:"Set when an administrator edited the assessment"`
}

// RiskLevel returns the overall risk of the assessment
func (a Assessment) RiskLevel() risk.Level {
	return a.Classification.Overall
}

// AuditEntry is an append-only record of a processing event
type AuditEntry struct {
	ID        uuid.UUID      `json:"id" description:"Entry identifier"`
	Action    string         `json:"action" example:"assessment_completed" description:"Action tag"`
	Actor     *string        `json:"actor,omitempty" description:"User that triggered the action, empty for system actions"`
	Timestamp time.Time      `json:"timestamp" description:"When the action happened"`
	Details   map[string]any `json:"details,omitempty" description:"Action specific details"`
}

// NewAuditEntry creates a system audit entry stamped with now
func NewAuditEntry(action string, now time.Time, details map[string]any) AuditEntry {
	return AuditEntry{
		ID:        uuid.New(),
		Action:    action,
		Timestamp: now.UTC(),
		Details:   details,
	}
}

// BatchSummary reports the outcome of one batch run. Processed always equals
// Successful + Failed + NotFound + Skipped
type BatchSummary struct {
	Total      int           `json:"total" example:"10" description:"Pending entries picked up by the batch"`
	Processed  int           `json:"processed" example:"10" description:"Entries that settled"`
	Successful int           `json:"successful" example:"7" description:"Entries assessed, copied, or already assessed"`
	Failed     int           `json:"failed" example:"1" description:"Entries whose processing failed"`
	NotFound   int           `json:"not_found" example:"1" description:"Entries with no locatable agreement"`
	Skipped    int           `json:"skipped" example:"1" description:"Entries already being processed elsewhere"`
	Duration   time.Duration `json:"duration" description:"Wall time of the batch"`
}
