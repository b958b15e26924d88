package llm

import "errors"

var (
	// ErrMissingAPIKey is returned when no API key is configured for a hosted endpoint
	ErrMissingAPIKey = errors.New("llm API key is required")
	// ErrEmptyCompletion is returned when the provider answers without any choices
	ErrEmptyCompletion = errors.New("llm returned no completion choices")
)
