package fetch

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidURL is returned when a candidate URL cannot be turned into a request
	ErrInvalidURL = errors.New("invalid fetch URL")
	// ErrRequestFailed is returned when the request could not be completed
	ErrRequestFailed = errors.New("fetch request failed")
	// ErrTooManyRedirects is returned when a response redirects more often than allowed
	ErrTooManyRedirects = errors.New("too many redirects")
	// ErrReadBody is returned when the response body cannot be read or decoded
	ErrReadBody = errors.New("failed to read response body")
)

// StatusError reports a server-side failure status that was retried and still failed
type StatusError struct {
	StatusCode int
}

// Error implements the error interface
func (e *StatusError) Error() string {
	return fmt.Sprintf("server responded with status %d", e.StatusCode)
}
