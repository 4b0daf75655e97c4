package client

import (
	"errors"
	"fmt"
)

// Common errors returned by the client.
var (
	// ErrTransientFetch is matched by every FetchError: the request kept
	// failing until the retry budget ran out.
	ErrTransientFetch = errors.New("transient fetch failure")

	// ErrContextCancelled is returned when the context is cancelled during retry.
	ErrContextCancelled = errors.New("context cancelled")
)

// FetchError is returned once all attempts for a request have failed.
type FetchError struct {
	URL        string
	Attempts   int
	StatusCode int
	ErrorClass ErrorClass
	Err        error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: %s error (status %d) after %d attempts: %v",
			e.URL, e.ErrorClass, e.StatusCode, e.Attempts, e.Err)
	}
	return fmt.Sprintf("fetch %s: %s error after %d attempts: %v",
		e.URL, e.ErrorClass, e.Attempts, e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *FetchError) Unwrap() error {
	return e.Err
}

// Is reports ErrTransientFetch as a match so callers can test the kind
// without unwrapping the concrete type.
func (e *FetchError) Is(target error) bool {
	return target == ErrTransientFetch
}

// StatusError describes a single non-2xx response.
type StatusError struct {
	StatusCode int
	Status     string
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %s", e.Status)
}

// ErrorClass represents a classification of request failures.
type ErrorClass string

const (
	// ErrorClassClient represents 4xx client errors.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx server errors.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassRateLimit represents 429 responses.
	ErrorClassRateLimit ErrorClass = "rate_limit"

	// ErrorClassNetwork represents network/timeout errors.
	ErrorClassNetwork ErrorClass = "network"

	// ErrorClassDecode represents a 2xx body that does not decode into the expected shape.
	ErrorClassDecode ErrorClass = "decode"
)

// classifyStatus maps a non-2xx status code to an ErrorClass.
func classifyStatus(code int) ErrorClass {
	switch {
	case code == 429:
		return ErrorClassRateLimit
	case code >= 400 && code < 500:
		return ErrorClassClient
	case code >= 500:
		return ErrorClassServer
	default:
		// 1xx/3xx that the transport did not resolve
		return ErrorClassServer
	}
}
