// Package httpx is the outbound HTTP client shared by adapters: pooled transport,
// bounded retries with exponential backoff, JSON helpers.
package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/ozgurerrdem/persona-watch/internal/apperr"
)

const (
	DefaultTimeout             = 30 * time.Second
	DefaultMaxIdleConns        = 100
	DefaultMaxIdleConnsPerHost = 10
	DefaultIdleConnTimeout     = 90 * time.Second
	DefaultTLSHandshakeTimeout = 10 * time.Second

	maxErrorBody = 512
)

type Config struct {
	Timeout   time.Duration
	UserAgent string
	Retry     RetryConfig
	// Transport overrides the pooled default; tests pass httptest transports here.
	Transport http.RoundTripper
}

type Client struct {
	http      *http.Client
	userAgent string
	retry     RetryConfig
}

// StatusError is a non-2xx response that will not be retried.
type StatusError struct {
	Code int
	URL  string
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: unexpected status %d", e.URL, e.Code)
	}
	return fmt.Sprintf("%s: unexpected status %d: %s", e.URL, e.Code, e.Body)
}

func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	transport := cfg.Transport
	if transport == nil {
		transport = &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        DefaultMaxIdleConns,
			MaxIdleConnsPerHost: DefaultMaxIdleConnsPerHost,
			IdleConnTimeout:     DefaultIdleConnTimeout,
			TLSHandshakeTimeout: DefaultTLSHandshakeTimeout,
		}
	}

	return &Client{
		http:      &http.Client{Timeout: timeout, Transport: transport},
		userAgent: cfg.UserAgent,
		retry:     cfg.Retry.withDefaults(),
	}
}

func NewDefault() *Client {
	return New(Config{})
}

// WithRetry returns a client sharing c's transport but retrying per cfg.
// Non-idempotent calls use RetryConfig{MaxAttempts: 1}.
func (c *Client) WithRetry(cfg RetryConfig) *Client {
	cp := *c
	cp.retry = cfg.withDefaults()
	return &cp
}

// Do sends the request built by newReq, rebuilding it for every attempt, and returns
// the response body of the first 2xx answer.
func (c *Client) Do(ctx context.Context, newReq func(ctx context.Context) (*http.Request, error)) ([]byte, error) {
	var body []byte
	err := Retry(ctx, c.retry, func() error {
		req, err := newReq(ctx)
		if err != nil {
			return err
		}
		if c.userAgent != "" && req.Header.Get("User-Agent") == "" {
			req.Header.Set("User-Agent", c.userAgent)
		}

		body, err = c.once(req)
		return err
	})
	return body, err
}

func (c *Client) once(req *http.Request) ([]byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		if req.Context().Err() != nil {
			return nil, req.Context().Err()
		}
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			// query strings carry API tokens
			urlErr.URL = req.URL.Host + req.URL.Path
		}
		return nil, apperr.NewTransient(req.Method+" "+req.URL.Host, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperr.NewTransient("read "+req.URL.Host, err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return body, nil
	}

	statusErr := &StatusError{
		Code: resp.StatusCode,
		URL:  req.Method + " " + req.URL.Host + req.URL.Path,
		Body: string(truncate(body, maxErrorBody)),
	}
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return nil, apperr.NewTransient("status", statusErr)
	}
	return nil, statusErr
}

// GetJSON decodes the JSON body of a GET into out.
func (c *Client) GetJSON(ctx context.Context, rawURL string, out any) error {
	body, err := c.Get(ctx, rawURL, nil)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) Get(ctx context.Context, rawURL string, header http.Header) ([]byte, error) {
	return c.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, err
		}
		for k, values := range header {
			for _, v := range values {
				req.Header.Add(k, v)
			}
		}
		return req, nil
	})
}

// PostJSON sends in as a JSON body and decodes the answer into out when out is not nil.
func (c *Client) PostJSON(ctx context.Context, rawURL string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	body, err := c.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	})
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func truncate(b []byte, n int) []byte {
	if len(b) > n {
		return b[:n]
	}
	return b
}
