package cloudflare

import (
	"fmt"
	"net/http"
	"time"
)

const (
	// defaultBaseURL is the root endpoint for the Cloudflare API
	defaultBaseURL = "https://api.cloudflare.com/client/v4"
	// defaultRequestTimeout is the default timeout for Workers AI inference requests
	defaultRequestTimeout = 90 * time.Second
	// defaultModel is the Workers AI text generation model used when none is configured
	defaultModel = "@cf/meta/llama-3.1-8b-instruct"
	// defaultMaxTokens bounds the size of a classification reply
	defaultMaxTokens = 1500
	// defaultTemperature keeps classification output stable across runs
	defaultTemperature = 0.2
)

// Client runs classification prompts on Cloudflare Workers AI
type Client struct {
	accountID   string
	apiToken    string
	httpClient  *http.Client
	baseURL     string
	model       string
	maxTokens   int
	temperature float64
}

// Option configures the Client
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client for the Cloudflare client
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the default Cloudflare API base URL
func WithBaseURL(url string) Option {
	return func(c *Client) {
		if url != "" {
			c.baseURL = url
		}
	}
}

// WithModel overrides the Workers AI model
func WithModel(model string) Option {
	return func(c *Client) {
		if model != "" {
			c.model = model
		}
	}
}

// WithMaxTokens bounds the reply length
func WithMaxTokens(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxTokens = n
		}
	}
}

// WithTemperature sets the sampling temperature
func WithTemperature(t float64) Option {
	return func(c *Client) {
		if t >= 0 {
			c.temperature = t
		}
	}
}

// New creates a new Cloudflare client with the provided account ID and API token
func New(accountID, apiToken string, opts ...Option) (*Client, error) {
	if accountID == "" {
		return nil, ErrMissingAccountID
	}

	if apiToken == "" {
		return nil, ErrMissingAPIToken
	}

	client := &Client{
		accountID:   accountID,
		apiToken:    apiToken,
		httpClient:  &http.Client{Timeout: defaultRequestTimeout},
		baseURL:     defaultBaseURL,
		model:       defaultModel,
		maxTokens:   defaultMaxTokens,
		temperature: defaultTemperature,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client, nil
}

// apiURL constructs the full API URL for a given path under this account
func (c *Client) apiURL(path string) string {
	return fmt.Sprintf("%s/accounts/%s/%s", c.baseURL, c.accountID, path)
}
