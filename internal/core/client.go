package core

import (
	"context"
	"io"
	"math"
	"net/http"
	"strconv"
	"time"
)

// Logger is the minimal seam through which this package reports
// non-fatal anomalies (cache read/write failures). It defaults to a no-op
// so callers never have to configure one.
type Logger interface {
	Printf(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Printf(string, ...any) {}

// NopLogger is the default Logger: it discards everything.
var NopLogger Logger = nopLogger{}

// RateLimiter controls request pacing for a single host.
type RateLimiter interface {
	Wait(ctx context.Context) error
	Release(success bool)
}

// RateLimiterFunc resolves the RateLimiter that should govern a request to
// url. It lets one Client multiplex several host buckets (e.g. a shared
// internal/ratelimit.Registry) instead of being pinned to a single
// RateLimiter for every request it issues.
type RateLimiterFunc func(url string) RateLimiter

// HTTPDoer is the seam a caller-supplied test double can substitute for the
// real transport (spec.md §9: "one send-request method", no deep trait
// hierarchy).
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client is the shared HTTP transport: timeout, retry policy, user-agent,
// and an optional per-host RateLimiter. The AUR client in internal/aur
// layers validation, caching, and parsing on top of this.
type Client struct {
	HTTPClient  HTTPDoer
	UserAgent   string
	MaxRetries  int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	RateLimiter RateLimiter
	Logger      Logger

	// RateLimiterFor, when set, picks the RateLimiter per request URL and
	// takes priority over the single RateLimiter above.
	RateLimiterFor RateLimiterFunc
}

func (c *Client) limiterFor(url string) RateLimiter {
	if c.RateLimiterFor != nil {
		return c.RateLimiterFor(url)
	}
	return c.RateLimiter
}

// DefaultClient returns a client configured per spec.md §4.5's defaults:
// 30s request timeout, user agent identifying this library.
func DefaultClient() *Client {
	return &Client{
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		UserAgent:  "archtk/1.0",
		MaxRetries: 3,
		BaseDelay:  200 * time.Millisecond,
		MaxDelay:   10 * time.Second,
		Logger:     NopLogger,
	}
}

// GetBody fetches url and returns the response body, retrying transient
// failures per the table in spec.md §7: Transport/Timeout/HTTPStatus(5xx,
// 429) are retried with exponential backoff; everything else is terminal.
func (c *Client) GetBody(ctx context.Context, url string) ([]byte, error) {
	var lastErr error
	var retryAfter time.Duration // set by a 429 response; overrides the next iteration's computed backoff

	for attempt := 0; attempt <= c.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := retryAfter
			if delay == 0 {
				delay = c.BaseDelay * time.Duration(math.Pow(2, float64(attempt-1)))
				if c.MaxDelay > 0 && delay > c.MaxDelay {
					delay = c.MaxDelay
				}
			}
			retryAfter = 0
			select {
			case <-ctx.Done():
				return nil, NewTimeoutError(ctx.Err())
			case <-time.After(delay):
			}
		}

		rl := c.limiterFor(url)
		if rl != nil {
			if err := rl.Wait(ctx); err != nil {
				return nil, NewTimeoutError(err)
			}
		}

		var body []byte
		var err error
		body, retryAfter, err = c.doRequest(ctx, url)
		if err == nil {
			if rl != nil {
				rl.Release(true)
			}
			return body, nil
		}

		lastErr = err
		if rl != nil {
			rl.Release(false)
		}

		ce, ok := err.(*Error)
		if !ok || !ce.Retryable() {
			return nil, err
		}
	}

	return nil, lastErr
}

func (c *Client) doRequest(ctx context.Context, url string) ([]byte, time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, NewTransportError(err)
	}
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept", "application/json, text/plain, text/html;q=0.9")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, 0, NewTimeoutError(err)
		}
		return nil, 0, NewTransportError(err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, NewTransportError(err)
	}

	if resp.StatusCode >= 400 {
		var retryAfter time.Duration
		if resp.StatusCode == http.StatusTooManyRequests {
			retryAfter = parseRetryAfter(resp.Header.Get("Retry-After"))
		}
		return nil, retryAfter, NewHTTPStatusError(resp.StatusCode, url)
	}

	return body, 0, nil
}

func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(v); err == nil {
		return time.Duration(seconds) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// GetText fetches url and returns the response body as a string. The AUR
// client fetches PKGBUILD/.SRCINFO text through fetch.Fetcher, not this.
func (c *Client) GetText(ctx context.Context, url string) (string, error) {
	body, err := c.GetBody(ctx, url)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// Head sends a HEAD request and returns the status code. The AUR health
// probe does not use it; it issues a GET through GetBody.
func (c *Client) Head(ctx context.Context, url string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return 0, NewTransportError(err)
	}
	req.Header.Set("User-Agent", c.UserAgent)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return 0, NewTimeoutError(err)
		}
		return 0, NewTransportError(err)
	}
	_ = resp.Body.Close()
	return resp.StatusCode, nil
}

// Option configures a Client, following the teacher's functional-options
// builder shape in internal/core/client.go.
type Option func(*Client)

// WithTimeout sets the HTTP request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if hc, ok := c.HTTPClient.(*http.Client); ok {
			hc.Timeout = d
		}
	}
}

// WithMaxRetries sets the retry policy's max_retries.
func WithMaxRetries(n int) Option {
	return func(c *Client) { c.MaxRetries = n }
}

// WithUserAgent sets the HTTP User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.UserAgent = ua }
}

// WithRateLimiter installs a per-host RateLimiter.
func WithRateLimiter(rl RateLimiter) Option {
	return func(c *Client) { c.RateLimiter = rl }
}

// WithLogger installs a Logger for non-fatal anomaly reporting.
func WithLogger(l Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.Logger = l
		}
	}
}

// NewClient builds a Client from DefaultClient plus the given options.
func NewClient(opts ...Option) *Client {
	c := DefaultClient()
	for _, opt := range opts {
		opt(c)
	}
	return c
}
