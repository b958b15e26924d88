package coordinator

import "errors"

var (
	// ErrInvalidDomain is returned when the input does not normalize to a domain key
	ErrInvalidDomain = errors.New("input does not contain a domain")
	// ErrMissingDependency is returned when the coordinator is built without a store, locator, or assessor
	ErrMissingDependency = errors.New("coordinator dependency is nil")
)
