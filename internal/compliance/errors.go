package compliance

import "errors"

var (
	// ErrInvalidDomain is returned when the provided domain is empty or malformed
	ErrInvalidDomain = errors.New("invalid domain for agreement discovery")
	// ErrAgreementNotFound is returned when no candidate produced a usable agreement
	ErrAgreementNotFound = errors.New("no agreement found")
	// ErrUnexpectedStatus is recorded for a candidate that answered with a non-200 status
	ErrUnexpectedStatus = errors.New("unexpected status code")
	// ErrTextTooShort is recorded for a candidate whose extracted text is below the minimum length
	ErrTextTooShort = errors.New("extracted text too short")
	// ErrInvalidProviders is returned when a provider table cannot be parsed
	ErrInvalidProviders = errors.New("invalid provider table")
)
