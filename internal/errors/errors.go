// Package errors provides structured error types for the workbench.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure modes.
var (
	ErrAlreadyLoaded   = errors.New("workspace already loaded")
	ErrNotLoaded       = errors.New("no workspace loaded")
	ErrMalformedBundle = errors.New("malformed project bundle")
	ErrUnknownFile     = errors.New("file not part of the workspace")
	ErrTimeout         = errors.New("operation timed out")
	ErrUnavailable     = errors.New("service unavailable")
)

// TransportError represents a failure talking to an external collaborator
// (bundle fetch, worker session). It propagates unwrapped through the core.
type TransportError struct {
	Service    string
	StatusCode int
	Message    string
	Err        error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s transport error (status %d): %s: %v", e.Service, e.StatusCode, e.Message, e.Err)
	}
	return fmt.Sprintf("%s transport error (status %d): %s", e.Service, e.StatusCode, e.Message)
}

func (e *TransportError) Unwrap() error { return e.Err }

// NewTransportError creates a new transport error.
func NewTransportError(service string, statusCode int, message string) *TransportError {
	return &TransportError{Service: service, StatusCode: statusCode, Message: message}
}

// IsRetryable returns true if the error is likely transient and worth retrying.
// The workspace core never retries; the transport layer may.
func IsRetryable(err error) bool {
	var te *TransportError
	if errors.As(err, &te) {
		switch te.StatusCode {
		case 429, 500, 502, 503, 504:
			return true
		}
	}
	return errors.Is(err, ErrTimeout) || errors.Is(err, ErrUnavailable)
}
