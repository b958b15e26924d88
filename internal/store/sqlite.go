package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // registers the "sqlite" database/sql driver

	"github.com/theopenlane/privacyguard/internal/risk"
	"github.com/theopenlane/privacyguard/internal/types"
)

// sqliteSchema creates the tables used by SQLiteStore. Timestamps are unix nanoseconds
const sqliteSchema = `
CREATE TABLE IF NOT EXISTS assessments (
	domain          TEXT PRIMARY KEY,
	source_url      TEXT NOT NULL,
	content_hash    TEXT NOT NULL,
	classification  TEXT NOT NULL,
	last_updated    INTEGER NOT NULL,
	manual_override INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_assessments_content_hash ON assessments (content_hash);

CREATE TABLE IF NOT EXISTS pending_urls (
	domain         TEXT PRIMARY KEY,
	first_seen     INTEGER NOT NULL,
	status         TEXT NOT NULL,
	suggested_urls TEXT NOT NULL DEFAULT '[]'
);
CREATE INDEX IF NOT EXISTS idx_pending_urls_status ON pending_urls (status, first_seen);

CREATE TABLE IF NOT EXISTS audit_log (
	seq     INTEGER PRIMARY KEY AUTOINCREMENT,
	id      TEXT NOT NULL UNIQUE,
	action  TEXT NOT NULL,
	actor   TEXT,
	ts      INTEGER NOT NULL,
	details TEXT
);
`

// SQLiteStore implements Store on an embedded SQLite database
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// OpenSQLite opens (creating when needed) the SQLite database at path and ensures the schema exists
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQuery, err)
	}

	// a single connection serializes writers and keeps in-memory databases shared
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close() //nolint:errcheck // already failing

		return nil, fmt.Errorf("%w: %v", ErrSchema, err)
	}

	return &SQLiteStore{db: db, now: time.Now}, nil
}

// GetAssessment returns the assessment for domain or ErrNotFound
func (s *SQLiteStore) GetAssessment(ctx context.Context, domain string) (*types.Assessment, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT domain, source_url, content_hash, classification, last_updated, manual_override
		FROM assessments WHERE domain = ?`, domain)

	return scanSQLiteAssessment(row)
}

// UpsertAssessment creates or replaces the assessment for a.Domain
func (s *SQLiteStore) UpsertAssessment(ctx context.Context, a types.Assessment) error {
	if a.Domain == "" {
		return ErrEmptyDomain
	}

	classification, err := json.Marshal(a.Classification)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrEncode, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO assessments (domain, source_url, content_hash, classification, last_updated, manual_override)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(domain) DO UPDATE SET
			source_url = excluded.source_url,
			content_hash = excluded.content_hash,
			classification = excluded.classification,
			last_updated = excluded.last_updated,
			manual_override = excluded.manual_override`,
		a.Domain, a.SourceURL, a.ContentHash, string(classification), a.LastUpdated.UnixNano(), a.ManualOverride)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrQuery, err)
	}

	return nil
}

// FindAssessmentByContentHash returns the newest assessment with hash on a domain other than excludeDomain
func (s *SQLiteStore) FindAssessmentByContentHash(ctx context.Context, hash, excludeDomain string) (*types.Assessment, error) {
	if hash == "" {
		return nil, ErrNotFound
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT domain, source_url, content_hash, classification, last_updated, manual_override
		FROM assessments WHERE content_hash = ? AND domain <> ?
		ORDER BY last_updated DESC, domain ASC LIMIT 1`, hash, excludeDomain)

	return scanSQLiteAssessment(row)
}

// AddPending queues domain when absent and merges suggested URLs otherwise
func (s *SQLiteStore) AddPending(ctx context.Context, domain string, suggested []string) (bool, error) {
	if domain == "" {
		return false, ErrEmptyDomain
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrQuery, err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	var raw string

	err = tx.QueryRowContext(ctx, `SELECT suggested_urls FROM pending_urls WHERE domain = ?`, domain).Scan(&raw)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		urls, err := json.Marshal(mergeURLs(nil, suggested))
		if err != nil {
			return false, fmt.Errorf("%w: %v", ErrEncode, err)
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO pending_urls (domain, first_seen, status, suggested_urls) VALUES (?, ?, ?, ?)`,
			domain, s.now().UnixNano(), string(types.StatusPending), string(urls)); err != nil {
			return false, fmt.Errorf("%w: %v", ErrQuery, err)
		}

		if err := tx.Commit(); err != nil {
			return false, fmt.Errorf("%w: %v", ErrQuery, err)
		}

		return true, nil
	case err != nil:
		return false, fmt.Errorf("%w: %v", ErrQuery, err)
	}

	var existing []string
	if err := json.Unmarshal([]byte(raw), &existing); err != nil {
		return false, fmt.Errorf("%w: %v", ErrEncode, err)
	}

	urls, err := json.Marshal(mergeURLs(existing, suggested))
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrEncode, err)
	}

	if _, err := tx.ExecContext(ctx, `UPDATE pending_urls SET suggested_urls = ? WHERE domain = ?`, string(urls), domain); err != nil {
		return false, fmt.Errorf("%w: %v", ErrQuery, err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("%w: %v", ErrQuery, err)
	}

	return false, nil
}

// GetPendingEntry returns the queue entry for domain or ErrNotFound
func (s *SQLiteStore) GetPendingEntry(ctx context.Context, domain string) (*types.PendingEntry, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT domain, first_seen, status, suggested_urls FROM pending_urls WHERE domain = ?`, domain)

	entry, err := scanSQLitePending(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}

	return entry, err
}

// GetPending lists queue entries oldest first
func (s *SQLiteStore) GetPending(ctx context.Context, status types.Status, limit int) ([]types.PendingEntry, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT domain, first_seen, status, suggested_urls FROM pending_urls
		WHERE ? = '' OR status = ?
		ORDER BY first_seen ASC, domain ASC
		LIMIT ?`, string(status), string(status), limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQuery, err)
	}
	defer rows.Close()

	var out []types.PendingEntry

	for rows.Next() {
		entry, err := scanSQLitePending(rows)
		if err != nil {
			return nil, err
		}

		out = append(out, *entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQuery, err)
	}

	return out, nil
}

// SetPendingStatus sets the status of domain, creating the entry when absent
func (s *SQLiteStore) SetPendingStatus(ctx context.Context, domain string, status types.Status) error {
	if domain == "" {
		return ErrEmptyDomain
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO pending_urls (domain, first_seen, status) VALUES (?, ?, ?)
		ON CONFLICT(domain) DO UPDATE SET status = excluded.status`,
		domain, s.now().UnixNano(), string(status))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrQuery, err)
	}

	return nil
}

// RemovePending deletes the queue entry for domain
func (s *SQLiteStore) RemovePending(ctx context.Context, domain string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM pending_urls WHERE domain = ?`, domain); err != nil {
		return fmt.Errorf("%w: %v", ErrQuery, err)
	}

	return nil
}

// GetSuggestedURLs returns the suggested agreement URLs recorded for domain
func (s *SQLiteStore) GetSuggestedURLs(ctx context.Context, domain string) ([]string, error) {
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
func (s *SQLiteStore) AppendAuditLog(ctx context.Context, entry types.AuditEntry) error {
	details, err := encodeDetails(entry.Details)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO audit_log (id, action, actor, ts, details) VALUES (?, ?, ?, ?, ?)`,
		entry.ID.String(), entry.Action, entry.Actor, entry.Timestamp.UnixNano(), details)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrQuery, err)
	}

	return nil
}

// ListAuditLog returns audit entries oldest first
func (s *SQLiteStore) ListAuditLog(ctx context.Context, limit int) ([]types.AuditEntry, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, action, actor, ts, details FROM audit_log ORDER BY seq ASC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQuery, err)
	}
	defer rows.Close()

	var out []types.AuditEntry

	for rows.Next() {
		var (
			id, action string
			actor      sql.NullString
			ts         int64
			details    sql.NullString
		)

		if err := rows.Scan(&id, &action, &actor, &ts, &details); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrQuery, err)
		}

		entry := types.AuditEntry{Action: action, Timestamp: time.Unix(0, ts).UTC()}

		if entry.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrEncode, err)
		}

		if actor.Valid {
			entry.Actor = &actor.String
		}

		if details.Valid {
			if err := json.Unmarshal([]byte(details.String), &entry.Details); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrEncode, err)
			}
		}

		out = append(out, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQuery, err)
	}

	return out, nil
}

// Close closes the database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// scanner is satisfied by *sql.Row and *sql.Rows
type scanner interface {
	Scan(dest ...any) error
}

func scanSQLiteAssessment(row scanner) (*types.Assessment, error) {
	var (
		a              types.Assessment
		classification string
		updated        int64
	)

	err := row.Scan(&a.Domain, &a.SourceURL, &a.ContentHash, &classification, &updated, &a.ManualOverride)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQuery, err)
	}

	if a.Classification, err = decodeClassification([]byte(classification)); err != nil {
		return nil, err
	}

	a.LastUpdated = time.Unix(0, updated).UTC()

	return &a, nil
}

func scanSQLitePending(row scanner) (*types.PendingEntry, error) {
	var (
		entry     types.PendingEntry
		firstSeen int64
		status    string
		urls      string
	)

	if err := row.Scan(&entry.Domain, &firstSeen, &status, &urls); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}

		return nil, fmt.Errorf("%w: %v", ErrQuery, err)
	}

	if err := json.Unmarshal([]byte(urls), &entry.SuggestedURLs); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncode, err)
	}

	entry.FirstSeen = time.Unix(0, firstSeen).UTC()
	entry.Status = types.Status(status)

	return &entry, nil
}

// decodeClassification reads a stored classification
func decodeClassification(raw []byte) (risk.Classification, error) {
	var c risk.Classification

	if err := json.Unmarshal(raw, &c); err != nil {
		return c, fmt.Errorf("%w: %v", ErrEncode, err)
	}

	return c, nil
}

// encodeDetails renders audit details as JSON, nil when empty
func encodeDetails(details map[string]any) (*string, error) {
	if len(details) == 0 {
		return nil, nil
	}

	raw, err := json.Marshal(details)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncode, err)
	}

	out := string(raw)

	return &out, nil
}
