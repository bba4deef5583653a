// Package apiclient is the HTTP client used by the API suites to talk to the
// market-data platform. It is a thin wrapper over net/http adding the
// platform's authentication header, bounded retries with exponential backoff,
// and client-side rate limiting so that suites stay inside sandbox quotas.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/cryptoqa/market-test-harness/config"
)

const (
	apiKeyHeader     = "X-CMC_PRO_API_KEY"
	defaultUserAgent = "crypto-qa-harness/1.2"
)

// Options configures a Client. Zero values select reasonable defaults; see New.
type Options struct {
	BaseURL string
	APIKey  string

	// Timeout applies to each individual request attempt.
	Timeout time.Duration

	// RetryCount is the total number of attempts per request, including the
	// first one. Transport errors, 429 and 5xx responses are retried.
	RetryCount    int
	RetryDelay    time.Duration
	BackoffFactor float64

	// RateLimit caps outgoing requests per second; zero disables limiting.
	RateLimit float64
	RateBurst int

	// HTTPClient overrides the transport, mainly for tests.
	HTTPClient *http.Client
}

// Client is safe for concurrent use by multiple suites.
type Client struct {
	opts       Options
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *zap.Logger
}

// NewFromConfig builds a Client from the api.* section of the effective
// configuration.
func NewFromConfig(cfg *config.Config, logger *zap.Logger) *Client {
	return New(Options{
		BaseURL:       cfg.GetString("api.base_url", ""),
		APIKey:        cfg.GetString("api.api_key", ""),
		Timeout:       cfg.GetDuration("api.timeout", 30*time.Second),
		RetryCount:    cfg.GetInt("api.retry_count", 3),
		RetryDelay:    cfg.GetDuration("api.retry_delay", time.Second),
		BackoffFactor: cfg.GetFloat("api.backoff_factor", 2),
		RateLimit:     cfg.GetFloat("api.rate_limit.rps", 0),
		RateBurst:     cfg.GetInt("api.rate_limit.burst", 1),
	}, logger)
}

func New(opts Options, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.RetryCount < 1 {
		opts.RetryCount = 1
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = time.Second
	}
	if opts.BackoffFactor < 1 {
		opts.BackoffFactor = 2
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}
	var limiter *rate.Limiter
	if opts.RateLimit > 0 {
		burst := opts.RateBurst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}
	return &Client{
		opts:       opts,
		httpClient: httpClient,
		limiter:    limiter,
		logger:     logger.Named("apiclient"),
	}
}

// BaseURL returns the base URL this client sends requests to.
func (c *Client) BaseURL() string { return c.opts.BaseURL }

// Response is a fully-read HTTP response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// JSON unmarshals the response body.
func (r *Response) JSON(target interface{}) error {
	return json.Unmarshal(r.Body, target)
}

// StatusError is returned when the final attempt yields an HTTP error status.
// The response body is preserved so callers can inspect the platform's error
// envelope.
type StatusError struct {
	StatusCode int
	Body       []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected response status %d", e.StatusCode)
}

// Get performs a GET request against the given endpoint path.
func (c *Client) Get(ctx context.Context, path string, params url.Values) (*Response, error) {
	return c.Do(ctx, http.MethodGet, path, params, nil)
}

// Post performs a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, params url.Values, body interface{}) (*Response, error) {
	return c.Do(ctx, http.MethodPost, path, params, body)
}

// Do performs a request with retries. A response with status >= 400 after the
// final attempt is returned together with a *StatusError, so callers that
// want to inspect error envelopes still can.
func (c *Client) Do(
	ctx context.Context,
	method string,
	path string,
	params url.Values,
	body interface{},
) (*Response, error) {
	requestURL := strings.TrimSuffix(c.opts.BaseURL, "/") + path
	if len(params) > 0 {
		requestURL += "?" + params.Encode()
	}

	var bodyBytes []byte
	if body != nil {
		var err error
		bodyBytes, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("cannot marshal request body: %w", err)
		}
	}

	delay := c.opts.RetryDelay
	var lastErr error
	for attempt := 1; attempt <= c.opts.RetryCount; attempt++ {
		if attempt > 1 {
			c.logger.Warn("retrying request",
				zap.String("url", requestURL),
				zap.Int("attempt", attempt),
				zap.Duration("delay", delay),
				zap.Error(lastErr))
			if err := sleepContext(ctx, delay); err != nil {
				return nil, err
			}
			delay = time.Duration(float64(delay) * c.opts.BackoffFactor)
		}

		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		resp, err := c.attempt(ctx, method, requestURL, bodyBytes)
		if err != nil {
			lastErr = err
			continue
		}
		if retriableStatus(resp.StatusCode) && attempt < c.opts.RetryCount {
			lastErr = &StatusError{StatusCode: resp.StatusCode, Body: resp.Body}
			continue
		}
		c.logger.Debug("request finished",
			zap.String("method", method),
			zap.String("url", requestURL),
			zap.Int("status", resp.StatusCode))
		if resp.StatusCode >= 400 {
			return resp, &StatusError{StatusCode: resp.StatusCode, Body: resp.Body}
		}
		return resp, nil
	}
	return nil, fmt.Errorf("request to %s failed after %d attempts: %w",
		requestURL, c.opts.RetryCount, lastErr)
}

func (c *Client) attempt(ctx context.Context, method, requestURL string, body []byte) (*Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, requestURL, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", defaultUserAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.opts.APIKey != "" {
		req.Header.Set(apiKeyHeader, c.opts.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: data}, nil
}

func retriableStatus(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
