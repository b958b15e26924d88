package cloudflare

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/theopenlane/httpsling"

	"github.com/theopenlane/privacyguard/internal/llm"
)

// aiRunPath is the account-scoped Workers AI inference path, followed by the model name
const aiRunPath = "ai/run/"

// chatMessage is a single message in a Workers AI chat request
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// aiRunRequest is the Workers AI text generation request body
type aiRunRequest struct {
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature"`
}

// apiMessage is an error or message entry in a Cloudflare API envelope
type apiMessage struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// aiRunResponse is the Cloudflare API envelope around a text generation result
type aiRunResponse struct {
	Success bool `json:"success"`
	Result  struct {
		Response string `json:"response"`
	} `json:"result"`
	Errors []apiMessage `json:"errors"`
}

// Complete runs prompt through the configured Workers AI model, satisfying llm.Gateway
func (c *Client) Complete(ctx context.Context, prompt string) (llm.Completion, error) {
	body := aiRunRequest{
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	}

	requester, err := httpsling.New(
		httpsling.URL(c.apiURL(aiRunPath+c.model)),
		httpsling.Post(),
		httpsling.BearerAuth(c.apiToken),
		httpsling.JSONBody(body),
		httpsling.WithHTTPClient(c.httpClient),
	)
	if err != nil {
		return llm.Completion{}, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}

	resp, err := requester.SendWithContext(ctx)
	if err != nil {
		return llm.Completion{}, &llm.Error{Cause: fmt.Errorf("%w: %v", ErrRequestFailed, err)}
	}
	defer resp.Body.Close() //nolint:errcheck // response body close error is non-critical

	var out aiRunResponse

	decodeErr := json.NewDecoder(resp.Body).Decode(&out)

	if resp.StatusCode != http.StatusOK {
		gwErr := &llm.Error{
			StatusCode: resp.StatusCode,
			Cause:      fmt.Errorf("%w: status %d", ErrUnexpectedStatus, resp.StatusCode),
		}

		if len(out.Errors) > 0 {
			gwErr.Message = out.Errors[0].Message
		}

		return llm.Completion{}, gwErr
	}

	if decodeErr != nil {
		return llm.Completion{}, &llm.Error{StatusCode: resp.StatusCode, Cause: fmt.Errorf("%w: %v", ErrRequestFailed, decodeErr)}
	}

	if !out.Success {
		return llm.Completion{}, &llm.Error{StatusCode: resp.StatusCode, Cause: ErrInferenceFailed}
	}

	return llm.Completion{Text: out.Result.Response}, nil
}
