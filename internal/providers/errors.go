package providers

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrUnknownProvider    = errors.New("unknown provider")
	ErrPreviewUnsupported = errors.New("preview not supported for this media type")
	ErrNotAFile           = errors.New("not a regular file")
	ErrEmptyDataset       = errors.New("dataset contains no records")
)

// StorageError wraps a storage backend failure with its context
type StorageError struct {
	Provider  string
	Operation string
	Key       string
	Err       error
}

func (e *StorageError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("%s %s failed for %q: %v", e.Provider, e.Operation, e.Key, e.Err)
	}
	return fmt.Sprintf("%s %s failed: %v", e.Provider, e.Operation, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func newStorageError(provider, operation, key string, err error) *StorageError {
	return &StorageError{Provider: provider, Operation: operation, Key: key, Err: err}
}

// APIError is a non-2xx response from the search API
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("search api returned %d", e.StatusCode)
	}
	return fmt.Sprintf("search api returned %d: %s", e.StatusCode, e.Body)
}

func (e *APIError) HTTPStatusCode() int {
	return e.StatusCode
}

// retryableStatus reports whether an HTTP status is worth another attempt
func retryableStatus(code int) bool {
	return code >= 500 || code == 429 || code == 408
}

// retryable classifies transport errors: cancellation is final, an HTTP
// status decides when one is attached, anything else is assumed transient.
func retryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var status interface{ HTTPStatusCode() int }
	if errors.As(err, &status) {
		return retryableStatus(status.HTTPStatusCode())
	}
	return true
}
