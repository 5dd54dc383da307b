package apperr

import (
	"errors"
	"fmt"
	"strings"
)

type ValidationError struct {
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func NewValidation(msg string) *ValidationError {
	return &ValidationError{Message: msg}
}

func NewValidationWrap(msg string, err error) *ValidationError {
	return &ValidationError{Message: msg, Err: err}
}

// UnknownAdapterError is returned when a caller selects adapters that are not registered.
type UnknownAdapterError struct {
	Names []string
}

func (e *UnknownAdapterError) Error() string {
	return "unknown adapter(s): " + strings.Join(e.Names, ", ")
}

// ConfigurationError signals a missing credential or setting, raised at adapter construction.
type ConfigurationError struct {
	Adapter string
	Key     string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s: missing configuration %q", e.Adapter, e.Key)
}

func NewConfiguration(adapter, key string) *ConfigurationError {
	return &ConfigurationError{Adapter: adapter, Key: key}
}

// AdapterError wraps an unrecoverable failure of a single adapter during a scan.
type AdapterError struct {
	Adapter string
	Err     error
}

func (e *AdapterError) Error() string {
	return e.Adapter + ": " + e.Err.Error()
}

func (e *AdapterError) Unwrap() error {
	return e.Err
}

func NewAdapter(adapter string, err error) *AdapterError {
	return &AdapterError{Adapter: adapter, Err: err}
}

// TransientError marks network, timeout and upstream 5xx failures that may succeed on retry.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

func NewTransient(op string, err error) *TransientError {
	return &TransientError{Op: op, Err: err}
}

func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// PollingExhaustedError is returned when an async job did not reach a terminal state in time.
type PollingExhaustedError struct {
	JobID      string
	LastStatus string
	Attempts   int
}

func (e *PollingExhaustedError) Error() string {
	return fmt.Sprintf("job %s not finished after %d polls (last status %q)", e.JobID, e.Attempts, e.LastStatus)
}
