// Package llm defines the classification gateway contract and an OpenAI-compatible implementation
package llm

import (
	"context"
	"fmt"
	"net/http"
)

// Gateway sends a single prompt to an external model and returns the raw reply
type Gateway interface {
	Complete(ctx context.Context, prompt string) (Completion, error)
}

// Completion is the raw model reply
type Completion struct {
	Text string
}

// rateLimitCode is the error code providers attach to throttled requests
const rateLimitCode = "rate_limit_exceeded"

// Error is a gateway failure carrying whatever status information the provider returned
type Error struct {
	// StatusCode is the HTTP status of the failed call, zero when none was received
	StatusCode int
	// Code is the provider error code, if any
	Code string
	// Message is the provider error message, if any
	Message string
	// Cause is the underlying error
	Cause error
}

// Error implements the error interface
func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Cause != nil {
		msg = e.Cause.Error()
	}

	if e.StatusCode > 0 {
		return fmt.Sprintf("llm gateway: status %d: %s", e.StatusCode, msg)
	}

	return fmt.Sprintf("llm gateway: %s", msg)
}

// Unwrap returns the underlying cause
func (e *Error) Unwrap() error {
	return e.Cause
}

// RateLimited reports whether the provider throttled the request
func (e *Error) RateLimited() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.Code == rateLimitCode
}
