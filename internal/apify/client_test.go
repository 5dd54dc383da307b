package apify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ozgurerrdem/persona-watch/internal/domain"
	"github.com/ozgurerrdem/persona-watch/internal/httpx"
	"github.com/ozgurerrdem/persona-watch/internal/jobpoll"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	Text string `json:"text"`
}

func newFakeApify(t *testing.T, statuses ...string) *httptest.Server {
	t.Helper()
	polls := 0
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v2/acts/{actor}/runs", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "tok", r.URL.Query().Get("token"))
		assert.Equal(t, "actor~x", r.PathValue("actor"))
		var input map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&input))
		assert.Equal(t, "acme", input["searchQuery"])
		_, _ = w.Write([]byte(`{"data":{"id":"run-1","status":"READY"}}`))
	})
	mux.HandleFunc("GET /v2/actor-runs/run-1", func(w http.ResponseWriter, r *http.Request) {
		status := statuses[min(polls, len(statuses)-1)]
		polls++
		_, _ = w.Write([]byte(`{"data":{"id":"run-1","status":"` + status + `","defaultDatasetId":"ds-1"}}`))
	})
	mux.HandleFunc("GET /v2/datasets/ds-1/items", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "true", r.URL.Query().Get("clean"))
		_, _ = w.Write([]byte(`[{"text":"first"},{"text":"second"}]`))
	})
	return httptest.NewServer(mux)
}

func newTestClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	c, err := NewClient("tok", httpx.New(httpx.Config{
		Retry: httpx.RetryConfig{MaxAttempts: 1},
	}), WithBaseURL(srv.URL+"/"))
	require.NoError(t, err)
	return c
}

func TestClient_SubmitPollFetch(t *testing.T) {
	// Arrange
	srv := newFakeApify(t, StatusRunning, StatusSucceeded)
	defer srv.Close()
	client := newTestClient(t, srv)
	poller := jobpoll.NewPoller(jobpoll.WithInterval(time.Millisecond), jobpoll.WithMaxAttempts(5))

	// Act
	items, err := jobpoll.Collect(context.Background(), poller, client,
		jobpoll.Spec{JobType: "actor~x", Input: map[string]any{"searchQuery": "acme"}},
		Fetcher[item](client))

	// Assert
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "first", items[0].Text)
}

func TestClient_FailedRun(t *testing.T) {
	srv := newFakeApify(t, StatusAborted)
	defer srv.Close()
	client := newTestClient(t, srv)

	_, err := jobpoll.NewPoller(jobpoll.WithInterval(time.Millisecond)).
		Run(context.Background(), client, jobpoll.Spec{JobType: "actor~x", Input: map[string]any{"searchQuery": "acme"}})

	assert.ErrorIs(t, err, jobpoll.ErrJobFailed)
}

func TestClient_SubmitIsNotRetried(t *testing.T) {
	// Arrange
	var posts, polls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v2/acts/{actor}/runs", func(w http.ResponseWriter, r *http.Request) {
		posts.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	})
	mux.HandleFunc("GET /v2/actor-runs/run-1", func(w http.ResponseWriter, r *http.Request) {
		if polls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"data":{"id":"run-1","status":"RUNNING"}}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client, err := NewClient("tok", httpx.New(httpx.Config{
		Retry: httpx.RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond},
	}), WithBaseURL(srv.URL))
	require.NoError(t, err)

	// Act
	_, submitErr := client.Submit(context.Background(), jobpoll.Spec{JobType: "actor~x", Input: map[string]any{}})
	state, statusErr := client.Status(context.Background(), "run-1")

	// Assert
	require.Error(t, submitErr)
	assert.Equal(t, int32(1), posts.Load())
	require.NoError(t, statusErr)
	assert.Equal(t, domain.JobRunning, state.Status)
	assert.Equal(t, int32(2), polls.Load())
}

func TestNewClient_RequiresToken(t *testing.T) {
	_, err := NewClient("  ", nil)

	assert.Error(t, err)
}

func TestMapStatus(t *testing.T) {
	assert.Equal(t, domain.JobPending, MapStatus("READY"))
	assert.Equal(t, domain.JobRunning, MapStatus("running"))
	assert.Equal(t, domain.JobSucceeded, MapStatus("SUCCEEDED"))
	assert.Equal(t, domain.JobFailed, MapStatus("FAILED"))
	assert.Equal(t, domain.JobFailed, MapStatus("ABORTED"))
	assert.Equal(t, domain.JobTimedOut, MapStatus("TIMED-OUT"))
	assert.Equal(t, domain.JobPending, MapStatus(""))
}
