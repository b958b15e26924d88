// Package fetch retrieves candidate policy documents over HTTP with browser-like headers
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/theopenlane/httpsling"
	"golang.org/x/net/html/charset"

	"github.com/theopenlane/privacyguard/internal/retry"
)

const (
	// DefaultTimeout bounds a single document request
	DefaultTimeout = 15 * time.Second
	// DefaultMaxRedirects is the maximum redirect hops followed per request
	DefaultMaxRedirects = 5
	// defaultRetries is the number of extra attempts for transport errors and 5xx responses
	defaultRetries = 1
	// defaultRetryDelay is the wait between attempts
	defaultRetryDelay = time.Second
	// defaultMaxBodySize is the maximum number of body bytes read (4MB)
	defaultMaxBodySize = 4 << 20
)

// DefaultHeaders is the browser-like header set sent with every request
var DefaultHeaders = map[string]string{
	"User-Agent":      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
	"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8",
	"Accept-Language": "en-US,en;q=0.5",
}

// Response is a fetched document
type Response struct {
	// URL is the requested URL
	URL string
	// FinalURL is the URL after redirects
	FinalURL string
	// StatusCode is the HTTP status of the final response
	StatusCode int
	// ContentType is the Content-Type header of the final response
	ContentType string
	// Body is the response body decoded to UTF-8
	Body string
}

// Options configures a Fetcher
type Options struct {
	timeout      time.Duration
	maxRedirects int
	retries      int
	retryDelay   time.Duration
	maxBodySize  int64
	headers      map[string]string
	transport    http.RoundTripper
}

// Option is a functional option for configuring a Fetcher
type Option func(*Options)

// WithTimeout sets the per-request timeout
func WithTimeout(d time.Duration) Option {
	return func(o *Options) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithMaxRedirects sets the maximum redirect hops
func WithMaxRedirects(n int) Option {
	return func(o *Options) {
		if n >= 0 {
			o.maxRedirects = n
		}
	}
}

// WithRetries sets how many extra attempts a transport error or 5xx response gets
func WithRetries(n int, delay time.Duration) Option {
	return func(o *Options) {
		if n >= 0 {
			o.retries = n
		}

		if delay >= 0 {
			o.retryDelay = delay
		}
	}
}

// WithMaxBodySize caps the number of body bytes read
func WithMaxBodySize(n int64) Option {
	return func(o *Options) {
		if n > 0 {
			o.maxBodySize = n
		}
	}
}

// WithHeaders replaces the default request headers
func WithHeaders(headers map[string]string) Option {
	return func(o *Options) {
		if len(headers) > 0 {
			o.headers = headers
		}
	}
}

// WithTransport sets the round tripper used for requests
func WithTransport(rt http.RoundTripper) Option {
	return func(o *Options) {
		if rt != nil {
			o.transport = rt
		}
	}
}

// Fetcher performs GET requests for candidate documents
type Fetcher struct {
	opts   Options
	client *http.Client
}

// New creates a Fetcher
func New(opts ...Option) *Fetcher {
	o := Options{
		timeout:      DefaultTimeout,
		maxRedirects: DefaultMaxRedirects,
		retries:      defaultRetries,
		retryDelay:   defaultRetryDelay,
		maxBodySize:  defaultMaxBodySize,
		headers:      DefaultHeaders,
	}

	for _, opt := range opts {
		opt(&o)
	}

	maxRedirects := o.maxRedirects

	return &Fetcher{
		opts: o,
		client: &http.Client{
			Timeout:   o.timeout,
			Transport: o.transport,
			CheckRedirect: func(_ *http.Request, via []*http.Request) error {
				if len(via) > maxRedirects {
					return ErrTooManyRedirects
				}

				return nil
			},
		},
	}
}

// Get fetches target. Any HTTP status is returned as a Response; only transport
// failures, or 5xx responses that persist through the retries, are errors
func (f *Fetcher) Get(ctx context.Context, target string) (*Response, error) {
	policy := retry.Policy{
		MaxRetries:   f.opts.retries,
		InitialDelay: f.opts.retryDelay,
		OnRetry: func(attempt int, wait time.Duration, err error) {
			log.Debug().Err(err).Str("url", target).Int("attempt", attempt).Dur("wait", wait).Msg("retrying document fetch")
		},
	}

	resp, err := retry.Do(ctx, policy, func(ctx context.Context) (*Response, error) {
		resp, err := f.get(ctx, target)
		if errors.Is(err, ErrInvalidURL) {
			return nil, retry.Permanent(err)
		}

		return resp, err
	})

	var statusErr *StatusError
	if errors.As(err, &statusErr) && resp != nil {
		return resp, nil
	}

	return resp, err
}

// get performs a single attempt
func (f *Fetcher) get(ctx context.Context, target string) (*Response, error) {
	if u, err := url.Parse(target); err != nil || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidURL, target)
	}

	ctx, cancel := context.WithTimeout(ctx, f.opts.timeout)
	defer cancel()

	opts := []httpsling.Option{
		httpsling.URL(target),
		httpsling.Method(http.MethodGet),
		httpsling.WithHTTPClient(f.client),
	}

	for k, v := range f.opts.headers {
		opts = append(opts, httpsling.Header(k, v))
	}

	requester, err := httpsling.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}

	resp, err := requester.SendWithContext(ctx)
	if err != nil {
		if errors.Is(err, ErrTooManyRedirects) {
			return nil, ErrTooManyRedirects
		}

		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close() //nolint:errcheck // response body close error is non-critical

	contentType := resp.Header.Get("Content-Type")

	reader, err := charset.NewReader(io.LimitReader(resp.Body, f.opts.maxBodySize), contentType)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrReadBody, err)
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrReadBody, err)
	}

	out := &Response{
		URL:         target,
		FinalURL:    resp.Request.URL.String(),
		StatusCode:  resp.StatusCode,
		ContentType: contentType,
		Body:        string(body),
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		return out, &StatusError{StatusCode: resp.StatusCode}
	}

	return out, nil
}
