package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/sashabaranov/go-openai"
)

const (
	// defaultModel is the chat model used when none is configured
	defaultModel = openai.GPT4oMini
	// defaultTemperature keeps classification output stable across runs
	defaultTemperature = 0.2
	// defaultMaxTokens bounds the size of a classification reply
	defaultMaxTokens = 1500
)

// OpenAIClient is a Gateway backed by any OpenAI-compatible chat completion endpoint
type OpenAIClient struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
}

// OpenAIOption configures the OpenAIClient
type OpenAIOption func(*openAIOptions)

type openAIOptions struct {
	baseURL     string
	model       string
	temperature float32
	maxTokens   int
	httpClient  *http.Client
}

// WithBaseURL points the client at a different OpenAI-compatible endpoint
func WithBaseURL(url string) OpenAIOption {
	return func(o *openAIOptions) {
		if url != "" {
			o.baseURL = strings.TrimSuffix(url, "/")
		}
	}
}

// WithModel sets the chat model
func WithModel(model string) OpenAIOption {
	return func(o *openAIOptions) {
		if model != "" {
			o.model = model
		}
	}
}

// WithTemperature sets the sampling temperature
func WithTemperature(t float32) OpenAIOption {
	return func(o *openAIOptions) {
		if t >= 0 {
			o.temperature = t
		}
	}
}

// WithMaxTokens bounds the reply length
func WithMaxTokens(n int) OpenAIOption {
	return func(o *openAIOptions) {
		if n > 0 {
			o.maxTokens = n
		}
	}
}

// WithHTTPClient sets a custom HTTP client for gateway calls
func WithHTTPClient(client *http.Client) OpenAIOption {
	return func(o *openAIOptions) {
		if client != nil {
			o.httpClient = client
		}
	}
}

// NewOpenAI creates an OpenAI-compatible gateway. An API key is required unless a
// custom base URL is given, since self-hosted endpoints often run without one
func NewOpenAI(apiKey string, opts ...OpenAIOption) (*OpenAIClient, error) {
	o := &openAIOptions{
		model:       defaultModel,
		temperature: defaultTemperature,
		maxTokens:   defaultMaxTokens,
	}

	for _, opt := range opts {
		opt(o)
	}

	if apiKey == "" && o.baseURL == "" {
		return nil, ErrMissingAPIKey
	}

	cfg := openai.DefaultConfig(apiKey)
	if o.baseURL != "" {
		cfg.BaseURL = o.baseURL
	}

	if o.httpClient != nil {
		cfg.HTTPClient = o.httpClient
	}

	return &OpenAIClient{
		client:      openai.NewClientWithConfig(cfg),
		model:       o.model,
		temperature: o.temperature,
		maxTokens:   o.maxTokens,
	}, nil
}

// Complete sends prompt as a single user message and returns the first choice
func (c *OpenAIClient) Complete(ctx context.Context, prompt string) (Completion, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	})
	if err != nil {
		return Completion{}, classifyOpenAIError(err)
	}

	if len(resp.Choices) == 0 {
		return Completion{}, ErrEmptyCompletion
	}

	log.Debug().Str("model", c.model).Int("prompt_tokens", resp.Usage.PromptTokens).Int("completion_tokens", resp.Usage.CompletionTokens).Msg("llm completion received")

	return Completion{Text: resp.Choices[0].Message.Content}, nil
}

// classifyOpenAIError lifts status and code information out of go-openai errors
func classifyOpenAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		code := ""
		if apiErr.Code != nil {
			code = fmt.Sprint(apiErr.Code)
		}

		return &Error{
			StatusCode: apiErr.HTTPStatusCode,
			Code:       code,
			Message:    apiErr.Message,
			Cause:      err,
		}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &Error{
			StatusCode: reqErr.HTTPStatusCode,
			Cause:      err,
		}
	}

	return &Error{Cause: err}
}
