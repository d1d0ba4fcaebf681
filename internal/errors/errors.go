// Package errors defines the error taxonomy for the ingestion pipeline.
package errors

import (
	"errors"
	"fmt"
)

// ErrorCategory represents the category of a pipeline error
type ErrorCategory string

const (
	// CategoryTransientFetch represents feed failures expected to resolve on retry
	CategoryTransientFetch ErrorCategory = "transient_fetch"
	// CategoryPermanentFetch represents feed failures that will recur on retry
	CategoryPermanentFetch ErrorCategory = "permanent_fetch"
	// CategoryMalformedPayload represents a feed payload that deviates from the expected shape
	CategoryMalformedPayload ErrorCategory = "malformed_payload"
	// CategoryPersistence represents store failures (unavailable, locked)
	CategoryPersistence ErrorCategory = "persistence"
	// CategoryConfig represents invalid startup configuration
	CategoryConfig ErrorCategory = "config"
)

// PipelineError represents a categorized pipeline error
type PipelineError struct {
	Category ErrorCategory
	Code     string
	Message  string
	Details  map[string]interface{}
	Cause    error
}

// Error implements the error interface
func (e *PipelineError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause
func (e *PipelineError) Unwrap() error {
	return e.Cause
}

// NewTransientFetchError creates a retryable fetch error
func NewTransientFetchError(message string, statusCode int, cause error) *PipelineError {
	return &PipelineError{
		Category: CategoryTransientFetch,
		Code:     "TRANSIENT_FETCH",
		Message:  message,
		Cause:    cause,
		Details: map[string]interface{}{
			"statusCode": statusCode,
		},
	}
}

// NewPermanentFetchError creates a fatal fetch error that aborts the run
func NewPermanentFetchError(message string, statusCode int, cause error) *PipelineError {
	return &PipelineError{
		Category: CategoryPermanentFetch,
		Code:     "PERMANENT_FETCH",
		Message:  message,
		Cause:    cause,
		Details: map[string]interface{}{
			"statusCode": statusCode,
		},
	}
}

// NewRetriesExhaustedError converts a transient failure into a permanent one
// after the retry budget is spent
func NewRetriesExhaustedError(attempts int, cause error) *PipelineError {
	return &PipelineError{
		Category: CategoryPermanentFetch,
		Code:     "RETRIES_EXHAUSTED",
		Message:  fmt.Sprintf("fetch failed after %d attempts", attempts),
		Cause:    cause,
		Details: map[string]interface{}{
			"attempts": attempts,
		},
	}
}

// NewMalformedPayloadError creates a malformed payload error for a missing or
// unparseable field
func NewMalformedPayloadError(field string, cause error) *PipelineError {
	return &PipelineError{
		Category: CategoryMalformedPayload,
		Code:     "MALFORMED_PAYLOAD",
		Message:  fmt.Sprintf("payload field %q missing or invalid", field),
		Cause:    cause,
		Details: map[string]interface{}{
			"field": field,
		},
	}
}

// NewPersistenceError creates a store failure error
func NewPersistenceError(operation string, cause error) *PipelineError {
	return &PipelineError{
		Category: CategoryPersistence,
		Code:     "PERSISTENCE_FAILURE",
		Message:  fmt.Sprintf("store failure during %s", operation),
		Cause:    cause,
		Details: map[string]interface{}{
			"operation": operation,
		},
	}
}

// NewConfigError creates an invalid configuration error
func NewConfigError(field string, reason string) *PipelineError {
	return &PipelineError{
		Category: CategoryConfig,
		Code:     "INVALID_CONFIG",
		Message:  fmt.Sprintf("invalid configuration %q: %s", field, reason),
		Details: map[string]interface{}{
			"field":  field,
			"reason": reason,
		},
	}
}

// CategoryOf returns the category of an error, or empty if it is not a
// PipelineError
func CategoryOf(err error) ErrorCategory {
	var pErr *PipelineError
	if errors.As(err, &pErr) {
		return pErr.Category
	}
	return ""
}

// IsTransient reports whether an error should trigger a retry of the same
// request
func IsTransient(err error) bool {
	return CategoryOf(err) == CategoryTransientFetch
}

// IsPermanent reports whether an error aborts the run
func IsPermanent(err error) bool {
	return CategoryOf(err) == CategoryPermanentFetch
}

// IsMalformedPayload reports whether an error skips only the offending window
func IsMalformedPayload(err error) bool {
	return CategoryOf(err) == CategoryMalformedPayload
}

// IsPersistence reports whether an error came from the store
func IsPersistence(err error) bool {
	return CategoryOf(err) == CategoryPersistence
}
