package domain

import "errors"

var (
	// ErrEmptyDomain is returned when nothing domain-shaped remains after normalization
	ErrEmptyDomain = errors.New("empty domain")
	// ErrInvalidDomainFormat is returned when the domain format is not valid
	ErrInvalidDomainFormat = errors.New("invalid domain format")
	// ErrUnlistedSuffix is returned when the domain does not end in a known public suffix
	ErrUnlistedSuffix = errors.New("domain suffix is not a listed public suffix")
)
