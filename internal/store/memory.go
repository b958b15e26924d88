package store

import (
	"context"
	"maps"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/theopenlane/privacyguard/internal/types"
)

// MemoryStore keeps every record in process memory
type MemoryStore struct {
	mu          sync.RWMutex
	now         func() time.Time
	assessments map[string]types.Assessment
	pending     map[string]types.PendingEntry
	audit       []types.AuditEntry
}

// NewMemoryStore creates an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		now:         time.Now,
		assessments: make(map[string]types.Assessment),
		pending:     make(map[string]types.PendingEntry),
	}
}

// GetAssessment returns the assessment for domain or ErrNotFound
func (s *MemoryStore) GetAssessment(_ context.Context, domain string) (*types.Assessment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.assessments[domain]
	if !ok {
		return nil, ErrNotFound
	}

	a.Classification = a.Classification.Clone()

	return &a, nil
}

// UpsertAssessment creates or replaces the assessment for a.Domain
func (s *MemoryStore) UpsertAssessment(_ context.Context, a types.Assessment) error {
	if a.Domain == "" {
		return ErrEmptyDomain
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	a.Classification = a.Classification.Clone()
	s.assessments[a.Domain] = a

	return nil
}

// FindAssessmentByContentHash returns the newest assessment with hash on a domain other than excludeDomain
func (s *MemoryStore) FindAssessmentByContentHash(_ context.Context, hash, excludeDomain string) (*types.Assessment, error) {
	if hash == "" {
		return nil, ErrNotFound
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var found *types.Assessment

	for _, domain := range slices.Sorted(maps.Keys(s.assessments)) {
		a := s.assessments[domain]
		if a.ContentHash != hash || a.Domain == excludeDomain {
			continue
		}

		if found == nil || a.LastUpdated.After(found.LastUpdated) {
			match := a
			found = &match
		}
	}

	if found == nil {
		return nil, ErrNotFound
	}

	found.Classification = found.Classification.Clone()

	return found, nil
}

// AddPending queues domain when absent and merges suggested URLs otherwise
func (s *MemoryStore) AddPending(_ context.Context, domain string, suggested []string) (bool, error) {
	if domain == "" {
		return false, ErrEmptyDomain
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.pending[domain]
	if ok {
		entry.SuggestedURLs = mergeURLs(entry.SuggestedURLs, suggested)
		s.pending[domain] = entry

		return false, nil
	}

	s.pending[domain] = types.PendingEntry{
		Domain:        domain,
		FirstSeen:     s.now().UTC(),
		Status:        types.StatusPending,
		SuggestedURLs: mergeURLs(nil, suggested),
	}

	return true, nil
}

// GetPendingEntry returns the queue entry for domain or ErrNotFound
func (s *MemoryStore) GetPendingEntry(_ context.Context, domain string) (*types.PendingEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.pending[domain]
	if !ok {
		return nil, ErrNotFound
	}

	entry.SuggestedURLs = slices.Clone(entry.SuggestedURLs)

	return &entry, nil
}

// GetPending lists queue entries oldest first
func (s *MemoryStore) GetPending(_ context.Context, status types.Status, limit int) ([]types.PendingEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]types.PendingEntry, 0, len(s.pending))

	for _, entry := range s.pending {
		if status != "" && entry.Status != status {
			continue
		}

		entry.SuggestedURLs = slices.Clone(entry.SuggestedURLs)
		out = append(out, entry)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].FirstSeen.Equal(out[j].FirstSeen) {
			return out[i].Domain < out[j].Domain
		}

		return out[i].FirstSeen.Before(out[j].FirstSeen)
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}

	return out, nil
}

// SetPendingStatus sets the status of domain, creating the entry when absent
func (s *MemoryStore) SetPendingStatus(_ context.Context, domain string, status types.Status) error {
	if domain == "" {
		return ErrEmptyDomain
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.pending[domain]
	if !ok {
		entry = types.PendingEntry{Domain: domain, FirstSeen: s.now().UTC()}
	}

	entry.Status = status
	s.pending[domain] = entry

	return nil
}

// RemovePending deletes the queue entry for domain
func (s *MemoryStore) RemovePending(_ context.Context, domain string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.pending, domain)

	return nil
}

// GetSuggestedURLs returns the suggested agreement URLs recorded for domain
func (s *MemoryStore) GetSuggestedURLs(_ context.Context, domain string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Clone(s.pending[domain].SuggestedURLs), nil
}

// AppendAuditLog records an audit entry
func (s *MemoryStore) AppendAuditLog(_ context.Context, entry types.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.audit = append(s.audit, entry)

	return nil
}

// ListAuditLog returns audit entries oldest first
func (s *MemoryStore) ListAuditLog(_ context.Context, limit int) ([]types.AuditEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := slices.Clone(s.audit)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}

	return out, nil
}

// Close is a no-op
func (s *MemoryStore) Close() error {
	return nil
}
