// Package compliance locates the privacy agreement published by a domain
package compliance

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/theopenlane/privacyguard/internal/extract"
	"github.com/theopenlane/privacyguard/internal/fetch"
)

const (
	// DefaultMinTextLength is the extracted text length a candidate must exceed to count as an agreement
	DefaultMinTextLength = 500
	// defaultScheme is the scheme used to build candidate URLs
	defaultScheme = "https"
)

// DefaultGenericPaths are the common agreement locations probed for every domain
var DefaultGenericPaths = []string{
	"/privacy",
	"/terms",
	"/privacy-policy",
	"/legal/privacy-policy",
	"/legal/privacy",
	"/legal/terms",
	"/about/privacy",
	"/about/terms",
	"/privacy-notice",
	"/data-policy",
}

// Getter fetches a single candidate document
type Getter interface {
	Get(ctx context.Context, url string) (*fetch.Response, error)
}

// SuggestionSource returns previously suggested agreement URLs for a domain
type SuggestionSource interface {
	GetSuggestedURLs(ctx context.Context, domain string) ([]string, error)
}

// Document is a located agreement
type Document struct {
	// URL is the candidate URL that produced the agreement
	URL string
	// FinalURL is the URL after redirects
	FinalURL string
	// Title is the page title
	Title string
	// Text is the extracted plain text
	Text string
	// PageType is the regex-determined classification of the page
	PageType string
	// Provider names the matched provider, if any
	Provider string
	// Pinned is true when Text is a bundled fallback rather than a fetched page
	Pinned bool
}

// ContentHash returns the hex sha256 digest of the extracted text
func (d *Document) ContentHash() string {
	sum := sha256.Sum256([]byte(d.Text))

	return hex.EncodeToString(sum[:])
}

// Attempt records the outcome of probing one candidate URL
type Attempt struct {
	// URL is the candidate URL
	URL string
	// StatusCode is the HTTP status, zero when no response arrived
	StatusCode int
	// TextLength is the extracted text length in characters
	TextLength int
	// Err is the reason the candidate was rejected, nil on success
	Err error
}

// OK reports whether the attempt produced an agreement
func (a Attempt) OK() bool {
	return a.Err == nil
}

// URLs returns the candidate URLs of the given attempts in probe order
func URLs(attempts []Attempt) []string {
	return lo.Map(attempts, func(a Attempt, _ int) string { return a.URL })
}

// Options configures a Locator
type Options struct {
	minTextLength  int
	providers      []Provider
	genericPaths   []string
	scheme         string
	suggestions    SuggestionSource
	pinnedFallback bool
}

// Option is a functional option for configuring a Locator
type Option func(*Options)

// WithMinTextLength sets the extracted text length a candidate must exceed
func WithMinTextLength(n int) Option {
	return func(o *Options) {
		if n > 0 {
			o.minTextLength = n
		}
	}
}

// WithProviders replaces the provider table
func WithProviders(providers []Provider) Option {
	return func(o *Options) {
		if providers != nil {
			o.providers = providers
		}
	}
}

// WithGenericPaths replaces the generic path list
func WithGenericPaths(paths []string) Option {
	return func(o *Options) {
		if len(paths) > 0 {
			o.genericPaths = paths
		}
	}
}

// WithScheme sets the scheme used to build candidate URLs
func WithScheme(scheme string) Option {
	return func(o *Options) {
		if scheme != "" {
			o.scheme = scheme
		}
	}
}

// WithSuggestionSource sets where previously suggested URLs are read from
func WithSuggestionSource(s SuggestionSource) Option {
	return func(o *Options) {
		if s != nil {
			o.suggestions = s
		}
	}
}

// WithPinnedFallback toggles the provider fallback text
func WithPinnedFallback(enabled bool) Option {
	return func(o *Options) {
		o.pinnedFallback = enabled
	}
}

// Locator probes candidate URLs until one yields an agreement
type Locator struct {
	fetcher Getter
	options *Options
}

// NewLocator creates a Locator backed by the given fetcher
func NewLocator(fetcher Getter, opts ...Option) *Locator {
	o := &Options{
		minTextLength:  DefaultMinTextLength,
		providers:      DefaultProviders(),
		genericPaths:   DefaultGenericPaths,
		scheme:         defaultScheme,
		pinnedFallback: true,
	}

	for _, opt := range opts {
		opt(o)
	}

	return &Locator{fetcher: fetcher, options: o}
}

// Locate returns the first candidate document whose extracted text exceeds the
// minimum length. Candidates are tried in order: stored suggestions, provider
// paths, generic paths, then the provider canonical URL. A matched provider
// with pinned text never reports not found. Every probe is returned as an Attempt
func (l *Locator) Locate(ctx context.Context, domain string) (*Document, []Attempt, error) {
	domain = strings.ToLower(strings.TrimSpace(domain))
	if domain == "" {
		return nil, nil, ErrInvalidDomain
	}

	provider, special := matchProvider(l.options.providers, domain)

	candidates := lo.Uniq(append(l.suggested(ctx, domain), l.pathURLs(domain, provider)...))
	if special && provider.CanonicalURL != "" {
		candidates = append(lo.Without(candidates, provider.CanonicalURL), provider.CanonicalURL)
	}

	attempts := make([]Attempt, 0, len(candidates))

	for _, candidate := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, attempts, err
		}

		doc, attempt := l.try(ctx, candidate)
		attempts = append(attempts, attempt)

		if doc != nil {
			doc.Provider = provider.Name

			log.Info().Str("domain", domain).Str("url", candidate).Int("length", attempt.TextLength).Str("page_type", doc.PageType).Msg("agreement located")

			return doc, attempts, nil
		}
	}

	if special && l.options.pinnedFallback && provider.FallbackText != "" {
		log.Warn().Str("domain", domain).Str("provider", provider.Name).Msg("using pinned fallback agreement")

		return &Document{
			URL:      provider.CanonicalURL,
			FinalURL: provider.CanonicalURL,
			Text:     provider.FallbackText,
			PageType: PageTypePrivacyPolicy,
			Provider: provider.Name,
			Pinned:   true,
		}, attempts, nil
	}

	log.Info().Str("domain", domain).Int("attempts", len(attempts)).Msg("no agreement found")

	return nil, attempts, ErrAgreementNotFound
}

// suggested reads stored suggestions; lookup failures only cost the candidates
func (l *Locator) suggested(ctx context.Context, domain string) []string {
	if l.options.suggestions == nil {
		return nil
	}

	urls, err := l.options.suggestions.GetSuggestedURLs(ctx, domain)
	if err != nil {
		log.Warn().Err(err).Str("domain", domain).Msg("failed to load suggested agreement urls")

		return nil
	}

	return lo.Filter(urls, func(u string, _ int) bool { return strings.TrimSpace(u) != "" })
}

// pathURLs builds candidate URLs from the provider paths followed by the generic paths
func (l *Locator) pathURLs(domain string, provider Provider) []string {
	paths := append(append([]string{}, provider.Paths...), l.options.genericPaths...)

	return lo.Map(lo.Uniq(paths), func(p string, _ int) string {
		if !strings.HasPrefix(p, "/") {
			p = "/" + p
		}

		return fmt.Sprintf("%s://%s%s", l.options.scheme, domain, p)
	})
}

// try fetches and extracts one candidate
func (l *Locator) try(ctx context.Context, candidate string) (*Document, Attempt) {
	attempt := Attempt{URL: candidate}

	resp, err := l.fetcher.Get(ctx, candidate)
	if err != nil {
		attempt.Err = err

		log.Debug().Str("url", candidate).Err(err).Msg("candidate fetch failed")

		return nil, attempt
	}

	attempt.StatusCode = resp.StatusCode

	if resp.StatusCode != http.StatusOK {
		attempt.Err = fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)

		log.Debug().Str("url", candidate).Int("status", resp.StatusCode).Msg("candidate rejected")

		return nil, attempt
	}

	page := extract.Parse(resp.Body)
	attempt.TextLength = utf8.RuneCountInString(page.Text)

	if attempt.TextLength <= l.options.minTextLength {
		attempt.Err = fmt.Errorf("%w: %d characters", ErrTextTooShort, attempt.TextLength)

		log.Debug().Str("url", candidate).Int("status", resp.StatusCode).Int("length", attempt.TextLength).Msg("candidate text too short")

		return nil, attempt
	}

	finalURL := lo.CoalesceOrEmpty(resp.FinalURL, candidate)

	return &Document{
		URL:      candidate,
		FinalURL: finalURL,
		Title:    page.Title,
		Text:     page.Text,
		PageType: ClassifyPage(finalURL, page.Title, page.Text),
	}, attempt
}
