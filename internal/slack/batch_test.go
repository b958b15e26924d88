package slack

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/theopenlane/privacyguard/internal/types"
)

func TestBatchMessage(t *testing.T) {
	summary := types.BatchSummary{
		Total:      5,
		Processed:  5,
		Successful: 2,
		Failed:     1,
		NotFound:   1,
		Skipped:    1,
		Duration:   1500 * time.Millisecond,
	}

	msg := BatchMessage(summary)

	if msg.Text != "Privacy assessment batch: 2 of 5 successful" {
		t.Errorf("unexpected fallback text: %s", msg.Text)
	}

	if len(msg.Blocks) != 4 {
		t.Fatalf("expected 4 blocks, got %d", len(msg.Blocks))
	}

	if msg.Blocks[0].Type != "header" {
		t.Errorf("expected header block first, got %s", msg.Blocks[0].Type)
	}

	if len(msg.Blocks[2].Fields) != 5 {
		t.Errorf("expected 5 fields including skipped, got %d", len(msg.Blocks[2].Fields))
	}

	if got := msg.Blocks[3].Elements[0].Text; got != "Duration: 1.5s" {
		t.Errorf("unexpected duration element: %s", got)
	}
}

func TestBatchMessage_NoSkipped(t *testing.T) {
	msg := BatchMessage(types.BatchSummary{Total: 1, Processed: 1, Successful: 1})

	if len(msg.Blocks[2].Fields) != 4 {
		t.Errorf("expected 4 fields, got %d", len(msg.Blocks[2].Fields))
	}
}

func TestNotifyBatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var msg Message
		if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
			t.Fatalf("failed to decode message: %v", err)
		}

		if !strings.Contains(msg.Text, "3 of 4 successful") {
			t.Errorf("unexpected fallback text: %s", msg.Text)
		}

		if msg.Blocks[3].Type != "context" || len(msg.Blocks[3].Elements) != 1 {
			t.Errorf("expected context block with one element, got %+v", msg.Blocks[3])
		}

		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client, err := New(server.URL, WithHTTPClient(server.Client()))
	if err != nil {
		t.Fatalf("unexpected error creating client: %v", err)
	}

	err = client.NotifyBatch(context.Background(), types.BatchSummary{Total: 4, Processed: 4, Successful: 3, Failed: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
