package domain

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrInvalidPayload marks a request body that is not valid JSON.
	ErrInvalidPayload = errors.New("Invalid JSON in request body")
	// ErrMissingCredential is wrapped by ConfigurationError when no provider key is set.
	ErrMissingCredential = errors.New("provider credential is not configured")
	// ErrEmptyCompletion is returned when the provider answers with no content.
	ErrEmptyCompletion = errors.New("no content in provider response")
	// ErrAggregation is wrapped when organizational context cannot be read.
	ErrAggregation = errors.New("failed to gather organizational context")
)

// CallerError is a validation failure caused by the request itself.
type CallerError struct {
	Msg string
}

func (e *CallerError) Error() string { return e.Msg }

// Callerf builds a CallerError.
func Callerf(format string, args ...any) error {
	return &CallerError{Msg: fmt.Sprintf(format, args...)}
}

// ConfigurationError means the service is not set up to handle the request.
type ConfigurationError struct {
	Msg string
	Err error
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil && e.Msg == "" {
		return e.Err.Error()
	}
	return e.Msg
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// ProviderError is a failure talking to the language model backend.
type ProviderError struct {
	Provider   string
	StatusCode int // 0 when no HTTP response was received
	Msg        string
	Err        error
}

func (e *ProviderError) Error() string {
	switch {
	case e.StatusCode != 0:
		return fmt.Sprintf("%s API error: %d %s", e.Provider, e.StatusCode, e.Msg)
	case e.Err != nil:
		return fmt.Sprintf("%s API error: %v", e.Provider, e.Err)
	default:
		return fmt.Sprintf("%s API error: %s", e.Provider, e.Msg)
	}
}

func (e *ProviderError) Unwrap() error { return e.Err }

// Retryable reports whether another attempt could plausibly succeed.
func (e *ProviderError) Retryable() bool {
	return e.StatusCode == 0 || e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// StatusFor maps an error onto the HTTP status a transport should answer with.
func StatusFor(err error) int {
	var callerErr *CallerError
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrInvalidPayload), errors.As(err, &callerErr):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
