package assess

import "errors"

var (
	// ErrEmptyText is returned when there is no agreement text to assess
	ErrEmptyText = errors.New("no text to assess")
	// ErrMissingGateway is returned when an Assessor is built without a gateway
	ErrMissingGateway = errors.New("classification gateway is required")
	// ErrMalformedResponse is returned when the gateway response holds no parseable JSON object
	ErrMalformedResponse = errors.New("malformed classification response")
	// ErrInvalidResponse is returned when the response JSON does not match the classification schema
	ErrInvalidResponse = errors.New("invalid classification response")
	// ErrChunkFailed is returned when one section of a chunked assessment fails
	ErrChunkFailed = errors.New("chunk classification failed")
)
