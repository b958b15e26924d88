package slack

import (
	"context"
	"fmt"
	"time"

	"github.com/theopenlane/privacyguard/internal/types"
)

// BatchMessage formats a batch summary into a Block Kit message
func BatchMessage(summary types.BatchSummary) Message {
	headline := fmt.Sprintf("Privacy assessment batch: %d of %d successful", summary.Successful, summary.Total)

	fields := []TextObject{
		{Type: "mrkdwn", Text: fmt.Sprintf("*Processed:*\n%d", summary.Processed)},
		{Type: "mrkdwn", Text: fmt.Sprintf("*Successful:*\n%d", summary.Successful)},
		{Type: "mrkdwn", Text: fmt.Sprintf("*Failed:*\n%d", summary.Failed)},
		{Type: "mrkdwn", Text: fmt.Sprintf("*Not found:*\n%d", summary.NotFound)},
	}

	if summary.Skipped > 0 {
		fields = append(fields, TextObject{Type: "mrkdwn", Text: fmt.Sprintf("*Skipped:*\n%d", summary.Skipped)})
	}

	return Message{
		Text: headline,
		Blocks: []Block{
			{
				Type: "header",
				Text: &TextObject{Type: "plain_text", Text: "Privacy Assessment Batch"},
			},
			{
				Type: "section",
				Text: &TextObject{Type: "mrkdwn", Text: headline},
			},
			{
				Type:   "section",
				Fields: fields,
			},
			{
				Type: "context",
				Elements: []TextObject{
					{Type: "mrkdwn", Text: fmt.Sprintf("Duration: %s", summary.Duration.Round(time.Millisecond))},
				},
			},
		},
	}
}

// NotifyBatch posts the summary of a finished batch
func (c *Client) NotifyBatch(ctx context.Context, summary types.BatchSummary) error {
	return c.Send(ctx, BatchMessage(summary))
}
