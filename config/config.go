// Package config loads the privacyguard service configuration
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/mcuadros/go-defaults"
)

const (
	// EnvPrefix is the prefix of every environment variable override
	EnvPrefix = "PRIVACYGUARD_"
	// delimiter separates nested koanf keys
	delimiter = "."
)

// Config holds the complete service configuration
type Config struct {
	// Server configures the HTTP API
	Server Server `json:"server" koanf:"server"`
	// Database selects and configures the store backend
	Database Database `json:"database" koanf:"database"`
	// Fetch configures agreement document retrieval
	Fetch Fetch `json:"fetch" koanf:"fetch"`
	// Locator configures agreement discovery
	Locator Locator `json:"locator" koanf:"locator"`
	// Classifier configures how agreement text is split and classified
	Classifier Classifier `json:"classifier" koanf:"classifier"`
	// LLM configures the classification gateway
	LLM LLM `json:"llm" koanf:"llm"`
	// Scheduler configures periodic batch processing
	Scheduler Scheduler `json:"scheduler" koanf:"scheduler"`
	// Slack configures batch notifications
	Slack Slack `json:"slack" koanf:"slack"`
}

// Server holds HTTP server settings
type Server struct {
	// Listen is the address the API listens on
	Listen string `json:"listen" koanf:"listen" default:":8080"`
	// ReadTimeout bounds reading a request
	ReadTimeout time.Duration `json:"readTimeout" koanf:"readTimeout" default:"30s"`
	// WriteTimeout bounds writing a response and must cover a full assessment
	WriteTimeout time.Duration `json:"writeTimeout" koanf:"writeTimeout" default:"20m"`
	// ShutdownGracePeriod is how long in-flight requests get to finish on shutdown
	ShutdownGracePeriod time.Duration `json:"shutdownGracePeriod" koanf:"shutdownGracePeriod" default:"30s"`
	// MaxBodySize is the maximum request body size in bytes
	MaxBodySize int64 `json:"maxBodySize" koanf:"maxBodySize" default:"102400"`
	// ProcessTimeout bounds a single domain assessment triggered through the API
	ProcessTimeout time.Duration `json:"processTimeout" koanf:"processTimeout" default:"15m"`
	// Debug enables debug logging, set from the command line
	Debug bool `json:"-" koanf:"-"`
	// Pretty enables console logging, set from the command line
	Pretty bool `json:"-" koanf:"-"`
}

// Database selects the store backend
type Database struct {
	// Driver is one of memory, sqlite or postgres
	Driver string `json:"driver" koanf:"driver" default:"sqlite"`
	// Path is the SQLite database file
	Path string `json:"path" koanf:"path" default:"privacyguard.db"`
	// URL is the Postgres connection string
	URL string `json:"url" koanf:"url" sensitive:"true"`
	// MaxConns caps the Postgres pool size
	MaxConns int32 `json:"maxConns" koanf:"maxConns" default:"10"`
	// MaxConnLifetime recycles Postgres connections after this age
	MaxConnLifetime time.Duration `json:"maxConnLifetime" koanf:"maxConnLifetime" default:"1h"`
	// MaxConnIdleTime closes idle Postgres connections after this long
	MaxConnIdleTime time.Duration `json:"maxConnIdleTime" koanf:"maxConnIdleTime" default:"30m"`
}

// Fetch configures the document fetcher
type Fetch struct {
	// Timeout bounds a single document request
	Timeout time.Duration `json:"timeout" koanf:"timeout" default:"15s"`
	// MaxRedirects is the number of redirects followed
	MaxRedirects int `json:"maxRedirects" koanf:"maxRedirects" default:"5"`
	// Retries is the number of retries after a transport failure
	Retries int `json:"retries" koanf:"retries" default:"1"`
	// RetryDelay is the wait between fetch retries
	RetryDelay time.Duration `json:"retryDelay" koanf:"retryDelay" default:"1s"`
	// MaxBodySize caps the bytes read from a document
	MaxBodySize int64 `json:"maxBodySize" koanf:"maxBodySize" default:"4194304"`
	// Headers overrides the browser-like request headers
	Headers map[string]string `json:"headers" koanf:"headers"`
}

// Locator configures agreement discovery
type Locator struct {
	// MinTextLength is the extracted length a page must exceed to count as an agreement
	MinTextLength int `json:"minTextLength" koanf:"minTextLength" default:"500"`
	// ProvidersFile replaces the built-in provider table when set
	ProvidersFile string `json:"providersFile" koanf:"providersFile"`
	// PinnedFallback enables the pinned agreement text of known providers
	PinnedFallback bool `json:"pinnedFallback" koanf:"pinnedFallback" default:"true"`
	// GenericPaths replaces the built-in list of well-known agreement paths when set
	GenericPaths []string `json:"genericPaths" koanf:"genericPaths"`
}

// Classifier configures splitting and classification of agreement text
type Classifier struct {
	// MaxDirectTokens is the estimated token count below which text is classified whole
	MaxDirectTokens int `json:"maxDirectTokens" koanf:"maxDirectTokens" default:"2000"`
	// MaxDirectChars is the character count below which text is classified whole
	MaxDirectChars int `json:"maxDirectChars" koanf:"maxDirectChars" default:"7000"`
	// ChunkSize is the target chunk length in characters
	ChunkSize int `json:"chunkSize" koanf:"chunkSize" default:"8000"`
	// ChunkDelay is the minimum spacing between chunk classifications
	ChunkDelay time.Duration `json:"chunkDelay" koanf:"chunkDelay" default:"10s"`
	// MaxRetries is the number of retries after a failed classification call
	MaxRetries int `json:"maxRetries" koanf:"maxRetries" default:"5"`
	// RetryDelay is the initial wait between classification retries
	RetryDelay time.Duration `json:"retryDelay" koanf:"retryDelay" default:"5s"`
	// MaxRetryDelay caps the rate-limit backoff, zero means uncapped
	MaxRetryDelay time.Duration `json:"maxRetryDelay" koanf:"maxRetryDelay" default:"2m"`
}

// LLM configures the classification gateway
type LLM struct {
	// Provider is openai or cloudflare
	Provider string `json:"provider" koanf:"provider" default:"openai"`
	// APIKey is the OpenAI-compatible API key
	APIKey string `json:"apiKey" koanf:"apiKey" sensitive:"true"`
	// BaseURL points the OpenAI client at a compatible endpoint
	BaseURL string `json:"baseURL" koanf:"baseURL"`
	// AccountID is the Cloudflare account for Workers AI
	AccountID string `json:"accountID" koanf:"accountID"`
	// APIToken is the Cloudflare API token for Workers AI
	APIToken string `json:"apiToken" koanf:"apiToken" sensitive:"true"`
	// Model overrides the provider default model
	Model string `json:"model" koanf:"model"`
	// Temperature is the sampling temperature
	Temperature float64 `json:"temperature" koanf:"temperature" default:"0.2"`
	// MaxTokens bounds the size of a classification reply
	MaxTokens int `json:"maxTokens" koanf:"maxTokens" default:"1500"`
	// RequestTimeout bounds a single gateway call
	RequestTimeout time.Duration `json:"requestTimeout" koanf:"requestTimeout" default:"90s"`
}

// Scheduler configures periodic processing of the queue
type Scheduler struct {
	// Enabled starts the scheduler with the server
	Enabled bool `json:"enabled" koanf:"enabled" default:"true"`
	// Interval is the time between batches
	Interval time.Duration `json:"interval" koanf:"interval" default:"10h"`
	// Concurrency bounds the domains processed at once
	Concurrency int `json:"concurrency" koanf:"concurrency" default:"3"`
	// BatchLimit caps the queue entries picked up by one batch
	BatchLimit int `json:"batchLimit" koanf:"batchLimit" default:"100"`
}

// Slack configures batch notifications
type Slack struct {
	// WebhookURL is the incoming webhook; notifications are off when empty
	WebhookURL string `json:"webhookURL" koanf:"webhookURL" sensitive:"true"`
	// RequestTimeout bounds a webhook call
	RequestTimeout time.Duration `json:"requestTimeout" koanf:"requestTimeout" default:"10s"`
}

// Load builds the configuration from defaults, the optional YAML file at path,
// and PRIVACYGUARD_ environment overrides, in that order
func Load(path *string) (*Config, error) {
	cfg := &Config{}
	defaults.SetDefaults(cfg)

	k := koanf.New(delimiter)

	if path != nil && *path != "" {
		if _, err := os.Stat(*path); err == nil {
			if err := k.Load(file.Provider(*path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("%w: %s: %v", ErrConfigFile, *path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s: %v", ErrConfigFile, *path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, delimiter, func(s string) string { return envKey(k, s) }), nil); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigEnv, err)
	}

	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigUnmarshal, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// envKey maps PRIVACYGUARD_SERVER_READTIMEOUT to server.readtimeout, reusing the
// spelling of a key already loaded from the file so the override replaces it
func envKey(k *koanf.Koanf, s string) string {
	key := strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "_", delimiter)

	for _, existing := range k.Keys() {
		if strings.EqualFold(existing, key) {
			return existing
		}
	}

	return key
}

// Validate checks the settings that select between implementations
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "memory", "sqlite":
	case "postgres":
		if c.Database.URL == "" {
			return fmt.Errorf("%w: database.url is required for postgres", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown database driver %q", ErrInvalidConfig, c.Database.Driver)
	}

	switch c.LLM.Provider {
	case "openai", "cloudflare":
	default:
		return fmt.Errorf("%w: unknown llm provider %q", ErrInvalidConfig, c.LLM.Provider)
	}

	if c.Scheduler.Enabled && c.Scheduler.Interval <= 0 {
		return fmt.Errorf("%w: scheduler.interval must be positive", ErrInvalidConfig)
	}

	return nil
}
