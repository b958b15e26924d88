package coordinator

import "sync"

// InFlight is the set of domains currently being processed. Share one instance
// between every entry point that can start processing
type InFlight struct {
	mu      sync.Mutex
	domains map[string]struct{}
}

// NewInFlight creates an empty set
func NewInFlight() *InFlight {
	return &InFlight{domains: make(map[string]struct{})}
}

// TryAcquire marks domain as in flight, returning false when it already was
func (s *InFlight) TryAcquire(domain string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.domains[domain]; ok {
		return false
	}

	s.domains[domain] = struct{}{}

	return true
}

// Release removes domain from the set
func (s *InFlight) Release(domain string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.domains, domain)
}

// Contains reports whether domain is in flight
func (s *InFlight) Contains(domain string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.domains[domain]

	return ok
}

// Len returns the number of domains in flight
func (s *InFlight) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.domains)
}
