package types

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for common failure modes.
var (
	ErrMaxRetries    = errors.New("max retries exceeded")
	ErrEmptyResult   = errors.New("empty extraction result")
	ErrInvalidURL    = errors.New("invalid URL")
	ErrMissingAPIKey = errors.New("extraction API key is not set")
	ErrNoProductURLs = errors.New("no product URLs discovered")
)

// ExtractError wraps errors from the extraction API.
type ExtractError struct {
	URL        string
	StatusCode int
	Err        error
	Retryable  bool
	RetryAfter time.Duration // populated from Retry-After header on HTTP 429
}

func (e *ExtractError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("extract error for %s (status %d): %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("extract error for %s: %v", e.URL, e.Err)
}

func (e *ExtractError) Unwrap() error { return e.Err }

func (e *ExtractError) IsRetryable() bool { return e.Retryable }

// DiscoveryError wraps errors during URL discovery. Discovery failures are
// fatal: the run cannot proceed without a URL list.
type DiscoveryError struct {
	Source string
	Err    error
}

func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("discovery error (source %s): %v", e.Source, e.Err)
}

func (e *DiscoveryError) Unwrap() error { return e.Err }

// StorageError wraps errors that occur during storage/export.
type StorageError struct {
	Backend string
	Err     error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error (%s): %v", e.Backend, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
