package slack

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/theopenlane/privacyguard/internal/types"
)

func TestSend_BatchSummaryPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}

		contentType := r.Header.Get("Content-Type")
		if !strings.HasPrefix(contentType, "application/json") {
			t.Errorf("expected Content-Type to start with application/json, got %s", contentType)
		}

		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("failed to decode payload: %v", err)
		}

		blocks, ok := payload["blocks"].([]any)
		if !ok || len(blocks) != 4 {
			t.Fatalf("expected 4 blocks, got %v", payload["blocks"])
		}

		footer, _ := blocks[3].(map[string]any)
		if _, hasText := footer["text"]; hasText {
			t.Errorf("context block must not carry a text object: %v", footer)
		}

		elements, _ := footer["elements"].([]any)
		if len(elements) != 1 {
			t.Errorf("expected one context element, got %v", footer["elements"])
		}

		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client, err := New(server.URL, WithHTTPClient(server.Client()))
	if err != nil {
		t.Fatalf("unexpected error creating client: %v", err)
	}

	msg := BatchMessage(types.BatchSummary{Total: 3, Processed: 3, Successful: 2, NotFound: 1, Duration: 42 * time.Second})

	if err := client.Send(context.Background(), msg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNotifyBatch_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client, err := New(server.URL, WithHTTPClient(server.Client()))
	if err != nil {
		t.Fatalf("unexpected error creating client: %v", err)
	}

	err = client.NotifyBatch(context.Background(), types.BatchSummary{Total: 1, Processed: 1, Failed: 1})
	if !errors.Is(err, ErrUnexpectedStatus) {
		t.Fatalf("expected ErrUnexpectedStatus, got %v", err)
	}
}

func TestNotifyBatch_RequestError(t *testing.T) {
	client, err := New("http://localhost:1/invalid", WithHTTPClient(&http.Client{}))
	if err != nil {
		t.Fatalf("unexpected error creating client: %v", err)
	}

	err = client.NotifyBatch(context.Background(), types.BatchSummary{})
	if !errors.Is(err, ErrNotificationFailed) {
		t.Fatalf("expected ErrNotificationFailed, got %v", err)
	}
}
