// Package apify talks to the Apify actor REST API and plugs it into the shared job poller.
package apify

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/ozgurerrdem/persona-watch/internal/domain"
	"github.com/ozgurerrdem/persona-watch/internal/httpx"
	"github.com/ozgurerrdem/persona-watch/internal/jobpoll"
)

const DefaultBaseURL = "https://api.apify.com"

// Run statuses as reported by the actor-runs endpoint.
const (
	StatusReady     = "READY"
	StatusRunning   = "RUNNING"
	StatusSucceeded = "SUCCEEDED"
	StatusFailed    = "FAILED"
	StatusTimedOut  = "TIMED-OUT"
	StatusAborted   = "ABORTED"
	StatusTimingOut = "TIMING-OUT"
	StatusAborting  = "ABORTING"
)

type runResponse struct {
	Data struct {
		ID               string `json:"id"`
		Status           string `json:"status"`
		DefaultDatasetID string `json:"defaultDatasetId"`
	} `json:"data"`
}

// Client implements jobpoll.Runner against Apify.
type Client struct {
	http *httpx.Client
	// submit never retries: a repeated POST would start a second, billed run.
	submit  *httpx.Client
	baseURL string
	token   string
}

type Option func(*Client)

func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

func NewClient(token string, http *httpx.Client, opts ...Option) (*Client, error) {
	if strings.TrimSpace(token) == "" {
		return nil, errors.New("apify token is empty")
	}
	if http == nil {
		http = httpx.NewDefault()
	}
	c := &Client{
		http:    http,
		submit:  http.WithRetry(httpx.RetryConfig{MaxAttempts: 1}),
		baseURL: DefaultBaseURL,
		token:   token,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) endpoint(path string, query url.Values) string {
	if query == nil {
		query = url.Values{}
	}
	query.Set("token", c.token)
	return c.baseURL + path + "?" + query.Encode()
}

// Submit starts actor spec.JobType with spec.Input as the raw run input.
func (c *Client) Submit(ctx context.Context, spec jobpoll.Spec) (string, error) {
	var resp runResponse
	actor := url.PathEscape(spec.JobType)
	if err := c.submit.PostJSON(ctx, c.endpoint("/v2/acts/"+actor+"/runs", nil), spec.Input, &resp); err != nil {
		return "", err
	}
	if resp.Data.ID == "" {
		return "", fmt.Errorf("actor %s: run id missing in response", spec.JobType)
	}
	return resp.Data.ID, nil
}

func (c *Client) Status(ctx context.Context, runID string) (jobpoll.State, error) {
	var resp runResponse
	if err := c.http.GetJSON(ctx, c.endpoint("/v2/actor-runs/"+url.PathEscape(runID), nil), &resp); err != nil {
		return jobpoll.State{}, err
	}
	return jobpoll.State{
		Status:           MapStatus(resp.Data.Status),
		ResultLocationID: resp.Data.DefaultDatasetID,
	}, nil
}

// FetchItems reads the cleaned items of a dataset into T.
func FetchItems[T any](ctx context.Context, c *Client, datasetID string) ([]T, error) {
	query := url.Values{"clean": {"true"}}
	var items []T
	if err := c.http.GetJSON(ctx, c.endpoint("/v2/datasets/"+url.PathEscape(datasetID)+"/items", query), &items); err != nil {
		return nil, err
	}
	return items, nil
}

// Fetcher adapts FetchItems to jobpoll.Collect.
func Fetcher[T any](c *Client) jobpoll.Fetcher[T] {
	return func(ctx context.Context, datasetID string) ([]T, error) {
		return FetchItems[T](ctx, c, datasetID)
	}
}

func MapStatus(s string) domain.JobStatus {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case StatusSucceeded:
		return domain.JobSucceeded
	case StatusFailed, StatusAborted:
		return domain.JobFailed
	case StatusTimedOut:
		return domain.JobTimedOut
	case StatusRunning, StatusTimingOut, StatusAborting:
		return domain.JobRunning
	default:
		return domain.JobPending
	}
}
