package cmd

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/theopenlane/privacyguard/config"
	"github.com/theopenlane/privacyguard/internal/assess"
	"github.com/theopenlane/privacyguard/internal/cloudflare"
	"github.com/theopenlane/privacyguard/internal/compliance"
	"github.com/theopenlane/privacyguard/internal/coordinator"
	"github.com/theopenlane/privacyguard/internal/fetch"
	"github.com/theopenlane/privacyguard/internal/llm"
	"github.com/theopenlane/privacyguard/internal/retry"
	"github.com/theopenlane/privacyguard/internal/slack"
	"github.com/theopenlane/privacyguard/internal/store"
)

// loadConfig reads the config file named by the --config flag
func loadConfig() (*config.Config, error) {
	cfgPath := k.String("config")

	cfg, err := config.Load(&cfgPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	cfg.Server.Debug = k.Bool("debug")
	cfg.Server.Pretty = k.Bool("pretty")

	return cfg, nil
}

// setupStore opens the configured store backend
func setupStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	st, err := store.Open(ctx, store.Config{
		Driver: cfg.Database.Driver,
		Path:   cfg.Database.Path,
		Postgres: store.PostgresConfig{
			URL:             cfg.Database.URL,
			MaxConns:        cfg.Database.MaxConns,
			MaxConnLifetime: cfg.Database.MaxConnLifetime,
			MaxConnIdleTime: cfg.Database.MaxConnIdleTime,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("opening %s store: %w", cfg.Database.Driver, err)
	}

	log.Info().Str("driver", cfg.Database.Driver).Msg("store opened")

	return st, nil
}

// setupGateway builds the classification gateway for the configured provider
func setupGateway(cfg *config.Config) (llm.Gateway, error) {
	httpClient := &http.Client{Timeout: cfg.LLM.RequestTimeout}

	switch cfg.LLM.Provider {
	case "cloudflare":
		client, err := cloudflare.New(
			cfg.LLM.AccountID,
			cfg.LLM.APIToken,
			cloudflare.WithHTTPClient(httpClient),
			cloudflare.WithModel(cfg.LLM.Model),
			cloudflare.WithMaxTokens(cfg.LLM.MaxTokens),
			cloudflare.WithTemperature(cfg.LLM.Temperature),
		)
		if err != nil {
			return nil, fmt.Errorf("initializing workers ai client: %w", err)
		}

		log.Info().Str("provider", "cloudflare").Msg("classification gateway configured")

		return client, nil
	default:
		client, err := llm.NewOpenAI(
			cfg.LLM.APIKey,
			llm.WithBaseURL(cfg.LLM.BaseURL),
			llm.WithModel(cfg.LLM.Model),
			llm.WithMaxTokens(cfg.LLM.MaxTokens),
			llm.WithTemperature(float32(cfg.LLM.Temperature)),
			llm.WithHTTPClient(httpClient),
		)
		if err != nil {
			return nil, fmt.Errorf("initializing openai client: %w", err)
		}

		log.Info().Str("provider", "openai").Msg("classification gateway configured")

		return client, nil
	}
}

// setupLocator builds the agreement locator on top of the document fetcher
func setupLocator(cfg *config.Config, suggestions compliance.SuggestionSource) (*compliance.Locator, error) {
	fetcher := fetch.New(
		fetch.WithTimeout(cfg.Fetch.Timeout),
		fetch.WithMaxRedirects(cfg.Fetch.MaxRedirects),
		fetch.WithRetries(cfg.Fetch.Retries, cfg.Fetch.RetryDelay),
		fetch.WithMaxBodySize(cfg.Fetch.MaxBodySize),
		fetch.WithHeaders(cfg.Fetch.Headers),
	)

	opts := []compliance.Option{
		compliance.WithMinTextLength(cfg.Locator.MinTextLength),
		compliance.WithGenericPaths(cfg.Locator.GenericPaths),
		compliance.WithPinnedFallback(cfg.Locator.PinnedFallback),
		compliance.WithSuggestionSource(suggestions),
	}

	if cfg.Locator.ProvidersFile != "" {
		providers, err := compliance.LoadProvidersFile(cfg.Locator.ProvidersFile)
		if err != nil {
			return nil, fmt.Errorf("loading providers from %s: %w", cfg.Locator.ProvidersFile, err)
		}

		opts = append(opts, compliance.WithProviders(providers))
	}

	return compliance.NewLocator(fetcher, opts...), nil
}

// setupAssessor builds the assessor with the configured thresholds and retry policy
func setupAssessor(cfg *config.Config, gateway llm.Gateway) (*assess.Assessor, error) {
	policy := retry.Policy{
		MaxRetries:   cfg.Classifier.MaxRetries,
		InitialDelay: cfg.Classifier.RetryDelay,
		MaxDelay:     cfg.Classifier.MaxRetryDelay,
	}

	return assess.New(gateway,
		assess.WithDirectThresholds(cfg.Classifier.MaxDirectTokens, cfg.Classifier.MaxDirectChars),
		assess.WithChunkSize(cfg.Classifier.ChunkSize),
		assess.WithChunkDelay(cfg.Classifier.ChunkDelay),
		assess.WithRetryPolicy(policy),
	)
}

// setupSlack initializes the Slack webhook client from config, returning nil when unconfigured
func setupSlack(cfg *config.Config) *slack.Client {
	if cfg.Slack.WebhookURL == "" {
		log.Info().Msg("slack notifications not configured, skipping")
		return nil
	}

	client, err := slack.New(cfg.Slack.WebhookURL, slack.WithTimeout(cfg.Slack.RequestTimeout))
	if err != nil {
		log.Warn().Err(err).Msg("failed to initialize slack client")
		return nil
	}

	log.Info().Msg("slack notifications configured")

	return client
}

// setupCoordinator wires store, locator, assessor and notifier together
func setupCoordinator(cfg *config.Config, st store.Store) (*coordinator.Coordinator, error) {
	gateway, err := setupGateway(cfg)
	if err != nil {
		return nil, err
	}

	locator, err := setupLocator(cfg, st)
	if err != nil {
		return nil, err
	}

	assessor, err := setupAssessor(cfg, gateway)
	if err != nil {
		return nil, fmt.Errorf("initializing assessor: %w", err)
	}

	opts := []coordinator.Option{coordinator.WithBatchLimit(cfg.Scheduler.BatchLimit)}

	// a nil *slack.Client must not become a non-nil Notifier
	if notifier := setupSlack(cfg); notifier != nil {
		opts = append(opts, coordinator.WithNotifier(notifier))
	}

	return coordinator.New(st, locator, assessor, opts...)
}
