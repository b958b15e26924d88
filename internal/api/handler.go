// Package api exposes the privacy assessment operations over HTTP
package api

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/theopenlane/privacyguard/internal/coordinator"
	"github.com/theopenlane/privacyguard/internal/domain"
	"github.com/theopenlane/privacyguard/internal/types"
)

// serviceName is reported by the health endpoint
const serviceName = "privacyguard"

// Service is the processing surface the handlers call into
type Service interface {
	ProcessOne(ctx context.Context, raw string) (coordinator.Result, error)
	ProcessAll(ctx context.Context, concurrency int) (types.BatchSummary, error)
	Report(ctx context.Context, raw string, suggested []string) (coordinator.ReportResult, error)
	Status(ctx context.Context, raw string) (coordinator.StatusReport, error)
}

// Handler manages API endpoints
type Handler struct {
	service          Service
	maxBodySize      int64
	processTimeout   time.Duration
	batchConcurrency int
	baseCtx          context.Context
	batchRunning     atomic.Bool
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Timestamp string `json:"timestamp"`
}

// AssessRequest asks for a domain to be assessed now
type AssessRequest struct {
	// Domain is a domain, URL, or email address
	Domain string `json:"domain"`
}

// AssessResponse wraps the outcome of an assessment request
type AssessResponse struct {
	Success bool                `json:"success"`
	Data    *coordinator.Result `json:"data,omitempty"`
	Error   *Error              `json:"error,omitempty"`
}

// StatusResponse wraps a status lookup
type StatusResponse struct {
	Success bool                      `json:"success"`
	Data    *coordinator.StatusReport `json:"data,omitempty"`
	Error   *Error                    `json:"error,omitempty"`
}

// ReportRequest reports a domain seen without an assessment
type ReportRequest struct {
	// Domain is a domain, URL, or email address
	Domain string `json:"domain"`
	// SuggestedURLs are agreement URLs to try before the well-known paths
	SuggestedURLs []string `json:"suggested_policy_urls,omitempty"`
}

// ReportResponse wraps the outcome of reporting a domain
type ReportResponse struct {
	Success bool                      `json:"success"`
	Data    *coordinator.ReportResult `json:"data,omitempty"`
	Error   *Error                    `json:"error,omitempty"`
}

// BatchResponse acknowledges a batch trigger
type BatchResponse struct {
	Success  bool   `json:"success"`
	Accepted bool   `json:"accepted"`
	Error    *Error `json:"error,omitempty"`
}

// handleHealth returns service health status
func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "healthy",
		Service:   serviceName,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// handleAssess processes a single domain and maps its final status to an HTTP status
func (h *Handler) handleAssess(w http.ResponseWriter, r *http.Request) {
	h.limitBody(w, r)

	var req AssessRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, AssessResponse{Error: &Error{Code: errCodeInvalidRequest, Message: ErrInvalidRequestBody.Error()}})
		return
	}

	if _, err := domain.Inspect(req.Domain); err != nil {
		writeJSON(w, http.StatusBadRequest, AssessResponse{Error: &Error{Code: errCodeValidation, Message: err.Error()}})
		return
	}

	ctx := r.Context()

	if h.processTimeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, h.processTimeout)
		defer cancel()
	}

	result, err := h.service.ProcessOne(ctx, req.Domain)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, AssessResponse{Error: &Error{Code: errCodeValidation, Message: err.Error()}})
		return
	}

	resp := AssessResponse{Success: result.Success, Data: &result}

	status := statusCode(result.Status)
	if !result.Success {
		resp.Error = &Error{Code: errorCode(result.Status), Message: errorMessage(result)}
	}

	writeJSON(w, status, resp)
}

// handleStatus looks up where a domain stands
func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.Status(r.Context(), chi.URLParam(r, "domain"))

	switch {
	case errors.Is(err, coordinator.ErrInvalidDomain):
		writeJSON(w, http.StatusBadRequest, StatusResponse{Error: &Error{Code: errCodeValidation, Message: err.Error()}})
		return
	case err != nil:
		log.Error().Err(err).Msg("status lookup failed")
		writeJSON(w, http.StatusInternalServerError, StatusResponse{Error: &Error{Code: errCodeInternal, Message: ErrLookupFailed.Error()}})

		return
	}

	status := http.StatusOK
	if report.State == coordinator.StateUnknown {
		status = http.StatusNotFound
	}

	writeJSON(w, status, StatusResponse{Success: status == http.StatusOK, Data: &report})
}

// handleReport queues a domain that has no assessment yet
func (h *Handler) handleReport(w http.ResponseWriter, r *http.Request) {
	h.limitBody(w, r)

	var req ReportRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, ReportResponse{Error: &Error{Code: errCodeInvalidRequest, Message: ErrInvalidRequestBody.Error()}})
		return
	}

	info, err := domain.Inspect(req.Domain)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ReportResponse{Error: &Error{Code: errCodeValidation, Message: err.Error()}})
		return
	}

	result, err := h.service.Report(r.Context(), info.Key, req.SuggestedURLs)
	if err != nil {
		log.Error().Err(err).Str("domain", info.Key).Msg("reporting domain failed")
		writeJSON(w, http.StatusInternalServerError, ReportResponse{Error: &Error{Code: errCodeInternal, Message: ErrReportFailed.Error()}})

		return
	}

	status := http.StatusOK
	if result.Queued {
		status = http.StatusAccepted
	}

	writeJSON(w, status, ReportResponse{Success: true, Data: &result})
}

// handleBatch starts a batch in the background unless one is already running
func (h *Handler) handleBatch(w http.ResponseWriter, _ *http.Request) {
	if !h.batchRunning.CompareAndSwap(false, true) {
		writeJSON(w, http.StatusConflict, BatchResponse{Error: &Error{Code: errCodeConflict, Message: ErrBatchRunning.Error()}})
		return
	}

	go func() {
		defer h.batchRunning.Store(false)

		if _, err := h.service.ProcessAll(h.baseCtx, h.batchConcurrency); err != nil {
			log.Error().Err(err).Msg("triggered batch failed")
		}
	}()

	writeJSON(w, http.StatusAccepted, BatchResponse{Success: true, Accepted: true})
}

// limitBody caps the request body when a limit is configured
func (h *Handler) limitBody(w http.ResponseWriter, r *http.Request) {
	if h.maxBodySize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)
	}
}

// statusCode maps a final processing status to an HTTP status
func statusCode(status types.Status) int {
	switch status {
	case types.StatusCompleted, types.StatusAlreadyAssessed:
		return http.StatusOK
	case types.StatusNotFound:
		return http.StatusNotFound
	case types.StatusAlreadyProcessing:
		return http.StatusConflict
	default:
		return http.StatusBadGateway
	}
}

func errorCode(status types.Status) string {
	switch status {
	case types.StatusNotFound:
		return errCodeNotFound
	case types.StatusAlreadyProcessing:
		return errCodeConflict
	default:
		return errCodeUpstream
	}
}

func errorMessage(result coordinator.Result) string {
	switch result.Status {
	case types.StatusNotFound:
		return ErrAgreementNotFound.Error()
	case types.StatusAlreadyProcessing:
		return ErrAlreadyProcessing.Error()
	}

	if result.Error != "" {
		return result.Error
	}

	return ErrAssessmentFailed.Error()
}
