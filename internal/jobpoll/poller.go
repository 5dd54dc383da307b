// Package jobpoll drives external async jobs through submit, poll and fetch.
package jobpoll

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ozgurerrdem/persona-watch/internal/apperr"
	"github.com/ozgurerrdem/persona-watch/internal/domain"
)

const (
	DefaultInterval    = 3 * time.Second
	DefaultMaxAttempts = 30
)

var ErrJobFailed = errors.New("job ended without success")

// Spec describes one unit of work for a job runner.
type Spec struct {
	// JobType is the runner-side identifier of what to run (an actor id for Apify).
	JobType string
	Input   any
}

// State is what a runner reports for a job on a single poll.
type State struct {
	Status           domain.JobStatus
	ResultLocationID string
}

type Runner interface {
	Submit(ctx context.Context, spec Spec) (string, error)
	Status(ctx context.Context, jobID string) (State, error)
}

type Poller struct {
	interval    time.Duration
	maxAttempts int
}

type Option func(*Poller)

func WithInterval(d time.Duration) Option {
	return func(p *Poller) {
		if d > 0 {
			p.interval = d
		}
	}
}

func WithMaxAttempts(n int) Option {
	return func(p *Poller) {
		if n > 0 {
			p.maxAttempts = n
		}
	}
}

func NewPoller(opts ...Option) *Poller {
	p := &Poller{
		interval:    DefaultInterval,
		maxAttempts: DefaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run submits spec and polls until the job is terminal or the attempt budget is spent.
// A job that ends failed or timed-out is reported with ErrJobFailed; one that never
// ends is reported as *apperr.PollingExhaustedError. Transient status errors count
// as a spent attempt.
func (p *Poller) Run(ctx context.Context, runner Runner, spec Spec) (domain.JobHandle, error) {
	jobID, err := runner.Submit(ctx, spec)
	if err != nil {
		return domain.JobHandle{}, fmt.Errorf("submit %s: %w", spec.JobType, err)
	}

	handle := domain.JobHandle{JobID: jobID, Status: domain.JobPending}
	slog.Debug("job submitted", "jobType", spec.JobType, "jobId", jobID)

	for handle.Attempts < p.maxAttempts {
		if handle.Attempts > 0 {
			if err := sleep(ctx, p.interval); err != nil {
				return handle, err
			}
		}
		handle.Attempts++

		state, err := runner.Status(ctx, jobID)
		if err != nil {
			if ctx.Err() != nil {
				return handle, ctx.Err()
			}
			if apperr.IsTransient(err) {
				slog.Warn("job status poll failed", "jobId", jobID, "attempt", handle.Attempts, "error", err)
				continue
			}
			return handle, fmt.Errorf("status of job %s: %w", jobID, err)
		}

		handle.Status = state.Status
		handle.ResultLocationID = state.ResultLocationID

		if !state.Status.Terminal() {
			continue
		}
		if state.Status != domain.JobSucceeded {
			return handle, fmt.Errorf("%w: job %s is %s", ErrJobFailed, jobID, state.Status)
		}
		slog.Debug("job succeeded", "jobId", jobID, "attempts", handle.Attempts)
		return handle, nil
	}

	return handle, &apperr.PollingExhaustedError{
		JobID:      jobID,
		LastStatus: string(handle.Status),
		Attempts:   handle.Attempts,
	}
}

// Fetcher reads the result set a succeeded job left at locationID.
type Fetcher[T any] func(ctx context.Context, locationID string) ([]T, error)

// Collect runs spec to completion and fetches its results.
func Collect[T any](ctx context.Context, p *Poller, runner Runner, spec Spec, fetch Fetcher[T]) ([]T, error) {
	handle, err := p.Run(ctx, runner, spec)
	if err != nil {
		return nil, err
	}
	if handle.ResultLocationID == "" {
		return nil, fmt.Errorf("job %s succeeded without a result location", handle.JobID)
	}

	items, err := fetch(ctx, handle.ResultLocationID)
	if err != nil {
		return nil, fmt.Errorf("fetch results of job %s: %w", handle.JobID, err)
	}
	return items, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
