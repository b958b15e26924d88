package api

import "errors"

var (
	// ErrInvalidRequestBody is returned when the request body cannot be decoded
	ErrInvalidRequestBody = errors.New("invalid request body")
	// ErrMultipleJSONObjects is returned when the request body contains more than one JSON object
	ErrMultipleJSONObjects = errors.New("request body must contain a single JSON object")
	// ErrAgreementNotFound is reported when no privacy agreement could be located
	ErrAgreementNotFound = errors.New("no privacy agreement found")
	// ErrAlreadyProcessing is reported when the domain is being processed by another caller
	ErrAlreadyProcessing = errors.New("domain is already being processed")
	// ErrAssessmentFailed is reported when classification failed without further detail
	ErrAssessmentFailed = errors.New("assessment failed")
	// ErrLookupFailed is reported when the status lookup hits a store failure
	ErrLookupFailed = errors.New("status lookup failed")
	// ErrReportFailed is reported when queueing a domain hits a store failure
	ErrReportFailed = errors.New("reporting domain failed")
	// ErrBatchRunning is reported when a triggered batch is still running
	ErrBatchRunning = errors.New("a batch is already running")
)
