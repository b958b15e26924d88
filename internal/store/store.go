// Package store persists assessments, the pending queue, and the audit log
package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/samber/lo"

	"github.com/theopenlane/privacyguard/internal/types"
)

const (
	// DriverMemory keeps everything in process memory
	DriverMemory = "memory"
	// DriverSQLite stores records in an embedded SQLite file
	DriverSQLite = "sqlite"
	// DriverPostgres stores records in PostgreSQL
	DriverPostgres = "postgres"
)

// Store is the persistence contract of the assessment pipeline. Every method is
// keyed by the normalized domain and upserts are atomic per key
type Store interface {
	// GetAssessment returns the assessment for domain or ErrNotFound
	GetAssessment(ctx context.Context, domain string) (*types.Assessment, error)
	// UpsertAssessment creates or replaces the assessment for a.Domain
	UpsertAssessment(ctx context.Context, a types.Assessment) error
	// FindAssessmentByContentHash returns the most recent assessment with the given
	// content hash whose domain differs from excludeDomain, or ErrNotFound
	FindAssessmentByContentHash(ctx context.Context, hash, excludeDomain string) (*types.Assessment, error)

	// AddPending queues domain when absent and merges suggested URLs into an existing
	// entry. It reports whether a new entry was created
	AddPending(ctx context.Context, domain string, suggested []string) (bool, error)
	// GetPendingEntry returns the queue entry for domain or ErrNotFound
	GetPendingEntry(ctx context.Context, domain string) (*types.PendingEntry, error)
	// GetPending lists queue entries oldest first; an empty status matches all, limit <= 0 is unbounded
	GetPending(ctx context.Context, status types.Status, limit int) ([]types.PendingEntry, error)
	// SetPendingStatus sets the status of domain, creating the entry when absent
	SetPendingStatus(ctx context.Context, domain string, status types.Status) error
	// RemovePending deletes the queue entry for domain; removing an absent entry is not an error
	RemovePending(ctx context.Context, domain string) error
	// GetSuggestedURLs returns the suggested agreement URLs recorded for domain
	GetSuggestedURLs(ctx context.Context, domain string) ([]string, error)

	// AppendAuditLog records an audit entry
	AppendAuditLog(ctx context.Context, entry types.AuditEntry) error
	// ListAuditLog returns audit entries oldest first; limit <= 0 is unbounded
	ListAuditLog(ctx context.Context, limit int) ([]types.AuditEntry, error)

	// Close releases the underlying resources
	Close() error
}

// mergeURLs appends the non-empty URLs of add that are not already in existing
func mergeURLs(existing, add []string) []string {
	out := append([]string{}, existing...)

	for _, u := range add {
		if u = strings.TrimSpace(u); u != "" {
			out = append(out, u)
		}
	}

	return lo.Uniq(out)
}

// Config selects and configures a store backend
type Config struct {
	// Driver is DriverMemory, DriverSQLite or DriverPostgres
	Driver string
	// Path is the SQLite database file
	Path string
	// Postgres configures the Postgres pool
	Postgres PostgresConfig
}

// Open creates the store selected by cfg.Driver
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Driver {
	case DriverMemory:
		return NewMemoryStore(), nil
	case DriverSQLite:
		st, err := OpenSQLite(ctx, cfg.Path)
		if err != nil {
			return nil, err
		}

		return st, nil
	case DriverPostgres:
		st, err := OpenPostgres(ctx, cfg.Postgres)
		if err != nil {
			return nil, err
		}

		return st, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, cfg.Driver)
	}
}
