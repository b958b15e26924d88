package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/theopenlane/privacyguard/internal/coordinator"
	"github.com/theopenlane/privacyguard/internal/domain"
	"github.com/theopenlane/privacyguard/internal/risk"
	"github.com/theopenlane/privacyguard/internal/types"
)

// mockService records calls and returns canned outcomes
type mockService struct {
	mu sync.Mutex

	result    coordinator.Result
	resultErr error
	report    coordinator.ReportResult
	reportErr error
	status    coordinator.StatusReport
	statusErr error

	processed []string
	reported  []string
	suggested []string
	batches   chan int
	release   chan struct{}
}

func (m *mockService) ProcessOne(_ context.Context, raw string) (coordinator.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.processed = append(m.processed, raw)

	return m.result, m.resultErr
}

func (m *mockService) ProcessAll(_ context.Context, concurrency int) (types.BatchSummary, error) {
	if m.batches != nil {
		m.batches <- concurrency
	}

	if m.release != nil {
		<-m.release
	}

	return types.BatchSummary{}, nil
}

func (m *mockService) Report(_ context.Context, raw string, suggested []string) (coordinator.ReportResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.reported = append(m.reported, raw)
	m.suggested = suggested

	return m.report, m.reportErr
}

func (m *mockService) Status(_ context.Context, raw string) (coordinator.StatusReport, error) {
	if m.statusErr != nil {
		return coordinator.StatusReport{}, m.statusErr
	}

	report := m.status
	report.Domain = raw

	return report, nil
}

func newTestRouter(svc Service) http.Handler {
	return NewRouter(RouterConfig{
		Service:          svc,
		MaxBodySize:      1024,
		ProcessTimeout:   time.Minute,
		BatchConcurrency: 4,
	})
}

func postJSON(t *testing.T, handler http.Handler, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()

	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("failed to marshal payload: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	return w
}

func TestHandleHealth(t *testing.T) {
	handler := newTestRouter(&mockService{})

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}

	var response map[string]string
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if response["status"] != "healthy" {
		t.Errorf("expected status 'healthy', got %s", response["status"])
	}

	if response["service"] != "privacyguard" {
		t.Errorf("expected service 'privacyguard', got %s", response["service"])
	}

	if response["timestamp"] == "" {
		t.Error("expected non-empty timestamp")
	}
}

func TestPingEndpoint(t *testing.T) {
	handler := newTestRouter(&mockService{})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200 for ping endpoint, got %d", w.Code)
	}

	if w.Body.String() != "." {
		t.Errorf("expected ping response '.', got %s", w.Body.String())
	}
}

func TestHandleAssess_StatusMapping(t *testing.T) {
	testCases := []struct {
		name     string
		result   coordinator.Result
		wantCode int
		wantErr  string
	}{
		{
			name:     "completed",
			result:   coordinator.Result{Success: true, Status: types.StatusCompleted, Domain: "example.com", RiskLevel: risk.Low},
			wantCode: http.StatusOK,
		},
		{
			name:     "already assessed",
			result:   coordinator.Result{Success: true, Status: types.StatusAlreadyAssessed, Domain: "example.com"},
			wantCode: http.StatusOK,
		},
		{
			name:     "not found",
			result:   coordinator.Result{Status: types.StatusNotFound, Domain: "example.com"},
			wantCode: http.StatusNotFound,
			wantErr:  errCodeNotFound,
		},
		{
			name:     "already processing",
			result:   coordinator.Result{Status: types.StatusAlreadyProcessing, Domain: "example.com"},
			wantCode: http.StatusConflict,
			wantErr:  errCodeConflict,
		},
		{
			name:     "failed",
			result:   coordinator.Result{Status: types.StatusFailed, Domain: "example.com", Error: "gateway unavailable"},
			wantCode: http.StatusBadGateway,
			wantErr:  errCodeUpstream,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &mockService{result: tc.result}
			w := postJSON(t, newTestRouter(svc), "/api/assessments", AssessRequest{Domain: "https://www.example.com"})

			if w.Code != tc.wantCode {
				t.Fatalf("expected status %d, got %d", tc.wantCode, w.Code)
			}

			var response AssessResponse
			if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}

			if response.Data == nil || response.Data.Status != tc.result.Status {
				t.Fatalf("expected data with status %s, got %+v", tc.result.Status, response.Data)
			}

			if tc.wantErr == "" && response.Error != nil {
				t.Errorf("expected no error, got %+v", response.Error)
			}

			if tc.wantErr != "" && (response.Error == nil || response.Error.Code != tc.wantErr) {
				t.Errorf("expected error code %s, got %+v", tc.wantErr, response.Error)
			}

			if len(svc.processed) != 1 || svc.processed[0] != "https://www.example.com" {
				t.Errorf("expected raw domain passed through, got %v", svc.processed)
			}
		})
	}
}

func TestHandleAssess_FailedMessage(t *testing.T) {
	svc := &mockService{result: coordinator.Result{Status: types.StatusFailed, Error: "malformed classification response"}}
	w := postJSON(t, newTestRouter(svc), "/api/assessments", AssessRequest{Domain: "example.com"})

	var response AssessResponse
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if response.Error.Message != "malformed classification response" {
		t.Errorf("expected classification error message, got %s", response.Error.Message)
	}
}

func TestHandleAssess_InvalidDomain(t *testing.T) {
	testCases := []struct {
		name   string
		domain string
	}{
		{name: "blank", domain: "   "},
		{name: "scheme only", domain: "http://"},
		{name: "single label", domain: "localhost"},
		{name: "unlisted suffix", domain: "intranet.corp"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &mockService{}
			w := postJSON(t, newTestRouter(svc), "/api/assessments", AssessRequest{Domain: tc.domain})

			if w.Code != http.StatusBadRequest {
				t.Fatalf("expected status 400, got %d", w.Code)
			}

			var response AssessResponse
			if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}

			if response.Error == nil || response.Error.Code != errCodeValidation {
				t.Errorf("expected validation error, got %+v", response.Error)
			}

			if len(svc.processed) != 0 {
				t.Errorf("expected no processing, got %v", svc.processed)
			}
		})
	}
}

func TestHandleAssess_ServiceRejectsDomain(t *testing.T) {
	svc := &mockService{resultErr: coordinator.ErrInvalidDomain}
	w := postJSON(t, newTestRouter(svc), "/api/assessments", AssessRequest{Domain: "example.com"})

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", w.Code)
	}
}

func TestHandleAssess_InvalidBody(t *testing.T) {
	testCases := []struct {
		name string
		body string
	}{
		{name: "not json", body: "invalid json"},
		{name: "unknown field", body: `{"domain":"example.com","email":"a@b.c"}`},
		{name: "trailing object", body: `{"domain":"example.com"}{"domain":"other.com"}`},
		{name: "too large", body: `{"domain":"` + strings.Repeat("a", 2048) + `.com"}`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &mockService{}

			req := httptest.NewRequest(http.MethodPost, "/api/assessments", strings.NewReader(tc.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			newTestRouter(svc).ServeHTTP(w, req)

			if w.Code != http.StatusBadRequest {
				t.Errorf("expected status 400, got %d", w.Code)
			}

			if len(svc.processed) != 0 {
				t.Errorf("expected no processing, got %v", svc.processed)
			}
		})
	}
}

func TestHandleAssess_InvalidMethod(t *testing.T) {
	req := httptest.NewRequest(http.MethodPut, "/api/assessments", nil)
	w := httptest.NewRecorder()

	newTestRouter(&mockService{}).ServeHTTP(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected status 405, got %d", w.Code)
	}
}

func TestHandleStatus(t *testing.T) {
	testCases := []struct {
		name     string
		state    coordinator.State
		wantCode int
	}{
		{name: "assessed", state: coordinator.StateAssessed, wantCode: http.StatusOK},
		{name: "queued", state: coordinator.StateQueued, wantCode: http.StatusOK},
		{name: "failed", state: coordinator.StateFailed, wantCode: http.StatusOK},
		{name: "unknown", state: coordinator.StateUnknown, wantCode: http.StatusNotFound},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &mockService{status: coordinator.StatusReport{State: tc.state}}

			req := httptest.NewRequest(http.MethodGet, "/api/assessments/example.com", nil)
			w := httptest.NewRecorder()

			newTestRouter(svc).ServeHTTP(w, req)

			if w.Code != tc.wantCode {
				t.Fatalf("expected status %d, got %d", tc.wantCode, w.Code)
			}

			var response StatusResponse
			if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}

			if response.Data == nil || response.Data.Domain != "example.com" || response.Data.State != tc.state {
				t.Errorf("unexpected status data %+v", response.Data)
			}
		})
	}
}

func TestHandleStatus_StoreFailure(t *testing.T) {
	svc := &mockService{statusErr: errors.New("connection reset")}

	req := httptest.NewRequest(http.MethodGet, "/api/assessments/example.com", nil)
	w := httptest.NewRecorder()

	newTestRouter(svc).ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected status 500, got %d", w.Code)
	}

	if strings.Contains(w.Body.String(), "connection reset") {
		t.Error("expected store error details to stay out of the response")
	}
}

func TestHandleReport(t *testing.T) {
	svc := &mockService{report: coordinator.ReportResult{Domain: "example.com", Queued: true}}
	w := postJSON(t, newTestRouter(svc), "/api/unassessed", ReportRequest{
		Domain:        "user@www.example.com",
		SuggestedURLs: []string{"https://example.com/legal/privacy"},
	})

	if w.Code != http.StatusAccepted {
		t.Fatalf("expected status 202, got %d", w.Code)
	}

	if len(svc.reported) != 1 || svc.reported[0] != "example.com" {
		t.Errorf("expected normalized domain reported, got %v", svc.reported)
	}

	if len(svc.suggested) != 1 {
		t.Errorf("expected suggested urls passed through, got %v", svc.suggested)
	}
}

func TestHandleReport_AlreadyKnown(t *testing.T) {
	svc := &mockService{report: coordinator.ReportResult{Domain: "example.com", Assessed: true}}
	w := postJSON(t, newTestRouter(svc), "/api/unassessed", ReportRequest{Domain: "example.com"})

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var response ReportResponse
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if response.Data == nil || !response.Data.Assessed {
		t.Errorf("expected assessed flag, got %+v", response.Data)
	}
}

func TestHandleReport_RejectsUnlistedSuffix(t *testing.T) {
	svc := &mockService{}
	w := postJSON(t, newTestRouter(svc), "/api/unassessed", ReportRequest{Domain: "intranet.corp"})

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", w.Code)
	}

	if len(svc.reported) != 0 {
		t.Errorf("expected nothing reported, got %v", svc.reported)
	}

	if _, err := domain.Inspect("intranet.corp"); !errors.Is(err, domain.ErrUnlistedSuffix) {
		t.Errorf("expected unlisted suffix error, got %v", err)
	}
}

func TestHandleBatch(t *testing.T) {
	svc := &mockService{batches: make(chan int, 1), release: make(chan struct{})}
	handler := newTestRouter(svc)

	w := postJSON(t, handler, "/api/batch", struct{}{})
	if w.Code != http.StatusAccepted {
		t.Fatalf("expected status 202, got %d", w.Code)
	}

	select {
	case concurrency := <-svc.batches:
		if concurrency != 4 {
			t.Errorf("expected concurrency 4, got %d", concurrency)
		}
	case <-time.After(time.Second):
		t.Fatal("expected batch to start")
	}

	w = postJSON(t, handler, "/api/batch", struct{}{})
	if w.Code != http.StatusConflict {
		t.Errorf("expected status 409 while batch runs, got %d", w.Code)
	}

	close(svc.release)
}
