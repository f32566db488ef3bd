package api

import (
	"errors"
	"fmt"
)

// ConfigurationError reports an adapter configuration that cannot be used.
// It is returned at construction time and is never retried.
type ConfigurationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("configuration error: %s (field: %s)", e.Message, e.Field)
	}
	return "configuration error: " + e.Message
}

// NewConfigurationError creates a ConfigurationError for the given field.
func NewConfigurationError(field, message string) *ConfigurationError {
	return &ConfigurationError{Field: field, Message: message}
}

// IsConfigurationError reports whether err (or anything it wraps) is a
// ConfigurationError.
func IsConfigurationError(err error) bool {
	var cfgErr *ConfigurationError
	return errors.As(err, &cfgErr)
}

// ErrorKind classifies a failed remote call.
type ErrorKind string

const (
	ErrorKindNetwork        ErrorKind = "network"
	ErrorKindTimeout        ErrorKind = "timeout"
	ErrorKindRateLimited    ErrorKind = "rate_limited"
	ErrorKindServer         ErrorKind = "server"
	ErrorKindAuth           ErrorKind = "auth"
	ErrorKindInvalidRequest ErrorKind = "invalid_request"
	ErrorKindNotFound       ErrorKind = "not_found"
	ErrorKindMalformed      ErrorKind = "malformed"
)

// CallError is a failure of one remote completion call.
type CallError struct {
	Kind       ErrorKind
	StatusCode int
	Message    string
	Err        error
}

// Error implements the error interface.
func (e *CallError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: %s (HTTP %d)", e.Kind, e.Message, e.StatusCode)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause, if any.
func (e *CallError) Unwrap() error {
	return e.Err
}

// Retryable reports whether repeating the same call could plausibly
// succeed. Network failures, timeouts, rate limiting, 5xx responses and
// malformed bodies are retryable; authentication and request errors are not.
func (e *CallError) Retryable() bool {
	switch e.Kind {
	case ErrorKindAuth, ErrorKindInvalidRequest, ErrorKindNotFound:
		return false
	default:
		return true
	}
}

// KindOf returns the ErrorKind of err, or "unknown" when err is not a
// CallError.
func KindOf(err error) string {
	var callErr *CallError
	if errors.As(err, &callErr) {
		return string(callErr.Kind)
	}
	return "unknown"
}
