package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/theopenlane/privacyguard/internal/types"
)

const (
	defaultMaxConns        = 10
	defaultMaxConnLifetime = time.Hour
	defaultMaxConnIdleTime = 30 * time.Minute
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS assessments (
	domain          TEXT PRIMARY KEY,
	source_url      TEXT NOT NULL,
	content_hash    TEXT NOT NULL,
	classification  JSONB NOT NULL,
	last_updated    TIMESTAMPTZ NOT NULL,
	manual_override BOOLEAN NOT NULL DEFAULT FALSE
);
CREATE INDEX IF NOT EXISTS idx_assessments_content_hash ON assessments (content_hash);

CREATE TABLE IF NOT EXISTS pending_urls (
	domain         TEXT PRIMARY KEY,
	first_seen     TIMESTAMPTZ NOT NULL,
	status         TEXT NOT NULL,
	suggested_urls TEXT[] NOT NULL DEFAULT '{}'
);
CREATE INDEX IF NOT EXISTS idx_pending_urls_status ON pending_urls (status, first_seen);

CREATE TABLE IF NOT EXISTS audit_log (
	seq     BIGSERIAL PRIMARY KEY,
	id      UUID NOT NULL UNIQUE,
	action  TEXT NOT NULL,
	actor   TEXT,
	ts      TIMESTAMPTZ NOT NULL,
	details JSONB
);
`

// PostgresConfig holds connection pool settings
type PostgresConfig struct {
	URL             string
	MaxConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// PostgresStore implements Store on PostgreSQL
type PostgresStore struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

// OpenPostgres connects to PostgreSQL, verifies the connection, and ensures the schema exists
func OpenPostgres(ctx context.Context, cfg PostgresConfig) (*PostgresStore, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("%w: parse database url: %v", ErrQuery, err)
	}

	poolConfig.MaxConns = cfg.MaxConns
	if poolConfig.MaxConns <= 0 {
		poolConfig.MaxConns = defaultMaxConns
	}

	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	if poolConfig.MaxConnLifetime <= 0 {
		poolConfig.MaxConnLifetime = defaultMaxConnLifetime
	}

	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime
	if poolConfig.MaxConnIdleTime <= 0 {
		poolConfig.MaxConnIdleTime = defaultMaxConnIdleTime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("%w: create pool: %v", ErrQuery, err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()

		return nil, fmt.Errorf("%w: ping: %v", ErrQuery, err)
	}

	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()

		return nil, fmt.Errorf("%w: %v", ErrSchema, err)
	}

	return &PostgresStore{pool: pool, now: time.Now}, nil
}

// GetAssessment returns the assessment for domain or ErrNotFound
func (s *PostgresStore) GetAssessment(ctx context.Context, domain string) (*types.Assessment, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT domain, source_url, content_hash, classification, last_updated, manual_override
		FROM assessments WHERE domain = $1`, domain)

	return scanPostgresAssessment(row)
}

// UpsertAssessment creates or replaces the assessment for a.Domain
func (s *PostgresStore) UpsertAssessment(ctx context.Context, a types.Assessment) error {
	if a.Domain == "" {
		return ErrEmptyDomain
	}

	classification, err := json.Marshal(a.Classification)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrEncode, err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO assessments (domain, source_url, content_hash, classification, last_updated, manual_override)
		VALUES ($1, $2, $3, $4::jsonb, $5, $6)
		ON CONFLICT (domain) DO UPDATE SET
			source_url = EXCLUDED.source_url,
			content_hash = EXCLUDED.content_hash,
			classification = EXCLUDED.classification,
			last_updated = EXCLUDED.last_updated,
			manual_override = EXCLUDED.manual_override`,
		a.Domain, a.SourceURL, a.ContentHash, string(classification), a.LastUpdated.UTC(), a.ManualOverride)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrQuery, err)
	}

	return nil
}

// FindAssessmentByContentHash returns the newest assessment with hash on a domain other than excludeDomain
func (s *PostgresStore) FindAssessmentByContentHash(ctx context.Context, hash, excludeDomain string) (*types.Assessment, error) {
	if hash == "" {
		return nil, ErrNotFound
	}

	row := s.pool.QueryRow(ctx, `
		SELECT domain, source_url, content_hash, classification, last_updated, manual_override
		FROM assessments WHERE content_hash = $1 AND domain <> $2
		ORDER BY last_updated DESC, domain ASC LIMIT 1`, hash, excludeDomain)

	return scanPostgresAssessment(row)
}

// AddPending queues domain when absent and merges suggested URLs otherwise
func (s *PostgresStore) AddPending(ctx context.Context, domain string, suggested []string) (bool, error) {
	if domain == "" {
		return false, ErrEmptyDomain
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrQuery, err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	tag, err := tx.Exec(ctx, `
		INSERT INTO pending_urls (domain, first_seen, status, suggested_urls) VALUES ($1, $2, $3, $4)
		ON CONFLICT (domain) DO NOTHING`,
		domain, s.now().UTC(), string(types.StatusPending), mergeURLs(nil, suggested))
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrQuery, err)
	}

	created := tag.RowsAffected() == 1

	if !created && len(suggested) > 0 {
		var existing []string

		if err := tx.QueryRow(ctx, `SELECT suggested_urls FROM pending_urls WHERE domain = $1 FOR UPDATE`, domain).Scan(&existing); err != nil {
			return false, fmt.Errorf("%w: %v", ErrQuery, err)
		}

		if _, err := tx.Exec(ctx, `UPDATE pending_urls SET suggested_urls = $2 WHERE domain = $1`,
			domain, mergeURLs(existing, suggested)); err != nil {
			return false, fmt.Errorf("%w: %v", ErrQuery, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("%w: %v", ErrQuery, err)
	}

	return created, nil
}

// GetPendingEntry returns the queue entry for domain or ErrNotFound
func (s *PostgresStore) GetPendingEntry(ctx context.Context, domain string) (*types.PendingEntry, error) {
	var (
		entry  types.PendingEntry
		status string
	)

	err := s.pool.QueryRow(ctx, `
		SELECT domain, first_seen, status, suggested_urls FROM pending_urls WHERE domain = $1`, domain).
		Scan(&entry.Domain, &entry.FirstSeen, &status, &entry.SuggestedURLs)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQuery, err)
	}

	entry.Status = types.Status(status)
	entry.FirstSeen = entry.FirstSeen.UTC()

	return &entry, nil
}

// GetPending lists queue entries oldest first
func (s *PostgresStore) GetPending(ctx context.Context, status types.Status, limit int) ([]types.PendingEntry, error) {
	var limitArg *int
	if limit > 0 {
		limitArg = &limit
	}

	rows, err := s.pool.Query(ctx, `
		SELECT domain, first_seen, status, suggested_urls FROM pending_urls
		WHERE $1 = '' OR status = $1
		ORDER BY first_seen ASC, domain ASC
		LIMIT $2`, string(status), limitArg)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQuery, err)
	}

	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (types.PendingEntry, error) {
		var (
			entry  types.PendingEntry
			status string
		)

		err := row.Scan(&entry.Domain, &entry.FirstSeen, &status, &entry.SuggestedURLs)
		entry.Status = types.Status(status)
		entry.FirstSeen = entry.FirstSeen.UTC()

		return entry, err
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQuery, err)
	}

	return entries, nil
}

// SetPendingStatus sets the status of domain, creating the entry when absent
func (s *PostgresStore) SetPendingStatus(ctx context.Context, domain string, status types.Status) error {
	if domain == "" {
		return ErrEmptyDomain
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO pending_urls (domain, first_seen, status) VALUES ($1, $2, $3)
		ON CONFLICT (domain) DO UPDATE SET status = EXCLUDED.status`,
		domain, s.now().UTC(), string(status))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrQuery, err)
	}

	return nil
}

// RemovePending deletes the queue entry for domain
func (s *PostgresStore) RemovePending(ctx context.Context, domain string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM pending_urls WHERE domain = $1`, domain); err != nil {
		return fmt.Errorf("%w: %v", ErrQuery, err)
	}

	return nil
}

// GetSuggestedURLs returns the suggested agreement URLs recorded for domain
func (s *PostgresStore) GetSuggestedURLs(ctx context.Context, domain string) ([]string, error) {
	entry, err := s.GetPendingEntry(ctx, domain)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	return entry.SuggestedURLs, nil
}

// AppendAuditLog records an audit entry
func (s *PostgresStore) AppendAuditLog(ctx context.Context, entry types.AuditEntry) error {
	details, err := encodeDetails(entry.Details)
	if err != nil {
		return err
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO audit_log (id, action, actor, ts, details) VALUES ($1::uuid, $2, $3, $4, $5::jsonb)`,
		entry.ID.String(), entry.Action, entry.Actor, entry.Timestamp.UTC(), details)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrQuery, err)
	}

	return nil
}

// ListAuditLog returns audit entries oldest first
func (s *PostgresStore) ListAuditLog(ctx context.Context, limit int) ([]types.AuditEntry, error) {
	var limitArg *int
	if limit > 0 {
		limitArg = &limit
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id::text, action, actor, ts, details FROM audit_log ORDER BY seq ASC LIMIT $1`, limitArg)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQuery, err)
	}

	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (types.AuditEntry, error) {
		var (
			entry   types.AuditEntry
			id      string
			details []byte
		)

		if err := row.Scan(&id, &entry.Action, &entry.Actor, &entry.Timestamp, &details); err != nil {
			return entry, err
		}

		parsed, err := uuid.Parse(id)
		if err != nil {
			return entry, err
		}

		entry.ID = parsed
		entry.Timestamp = entry.Timestamp.UTC()

		if len(details) > 0 {
			if err := json.Unmarshal(details, &entry.Details); err != nil {
				return entry, err
			}
		}

		return entry, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQuery, err)
	}

	return entries, nil
}

// Close closes the connection pool
func (s *PostgresStore) Close() error {
	s.pool.Close()

	return nil
}

func scanPostgresAssessment(row pgx.Row) (*types.Assessment, error) {
	var (
		a              types.Assessment
		classification []byte
	)

	err := row.Scan(&a.Domain, &a.SourceURL, &a.ContentHash, &classification, &a.LastUpdated, &a.ManualOverride)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQuery, err)
	}

	if a.Classification, err = decodeClassification(classification); err != nil {
		return nil, err
	}

	a.LastUpdated = a.LastUpdated.UTC()

	return &a, nil
}
