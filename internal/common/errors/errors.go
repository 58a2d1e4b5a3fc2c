// Package errors provides standardized error handling for the retrieval
// and budgeting engine.
package errors

import (
	"errors"
	"fmt"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// ErrCodeDataLoadFailed: the backing record source was unreadable or
	// malformed. Propagated, never retried inside the core.
	ErrCodeDataLoadFailed ErrorCode = "DATA_LOAD_FAILED"

	// ErrCodeBatchFetchFailed: a coalesced upstream fetch failed; every
	// caller pending in that flush receives it.
	ErrCodeBatchFetchFailed ErrorCode = "BATCH_FETCH_FAILED"

	// ErrCodeAnalysisDegraded: name indexes were unavailable at startup and
	// the analyzer fell back to pattern-only detection. Non-fatal.
	ErrCodeAnalysisDegraded ErrorCode = "ANALYSIS_DEGRADED"

	// ErrCodeLLMCallFailed: the single outbound chat call failed.
	ErrCodeLLMCallFailed ErrorCode = "LLM_CALL_FAILED"

	ErrCodeInvalidRecordKind ErrorCode = "INVALID_RECORD_KIND"
	ErrCodeRecordNotFound    ErrorCode = "RECORD_NOT_FOUND"
)

// Sentinel errors for errors.Is checks across package boundaries.
var (
	ErrDataLoadFailed   = errors.New(string(ErrCodeDataLoadFailed))
	ErrBatchFetchFailed = errors.New(string(ErrCodeBatchFetchFailed))
	ErrAnalysisDegraded = errors.New(string(ErrCodeAnalysisDegraded))
	ErrLLMCallFailed    = errors.New(string(ErrCodeLLMCallFailed))
	ErrRecordNotFound   = errors.New(string(ErrCodeRecordNotFound))
)

// StandardError is a structured application error. Kind and Key carry
// enough context for the caller to decide between a degraded response and
// a hard failure; the engine never decides user-facing messaging.
type StandardError struct {
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	Kind      string    `json:"kind,omitempty"` // offending record kind
	Key       string    `json:"key,omitempty"`  // offending id or cache key
	Retryable bool      `json:"retryable"`
	Timestamp time.Time `json:"timestamp"`
	cause     error
}

func (e *StandardError) Error() string {
	if e.Kind != "" {
		return fmt.Sprintf("StandardError[%s]: %s (kind=%s key=%s)", e.Code, e.Message, e.Kind, e.Key)
	}
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error { return e.cause }

// Is matches the sentinel carrying the same code, so
// errors.Is(err, ErrDataLoadFailed) works on wrapped StandardErrors.
func (e *StandardError) Is(target error) bool {
	return target != nil && target.Error() == string(e.Code)
}

// NewDataLoadError creates the error the Record Store returns when its
// backing source is unreadable or malformed.
func NewDataLoadError(kind string, cause error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDataLoadFailed,
		Message:   "record source unreadable or malformed",
		Kind:      kind,
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
}

// NewBatchFetchError creates the error every caller in a failed coalesced
// flush receives.
func NewBatchFetchError(kind string, cause error) *StandardError {
	return &StandardError{
		Code:      ErrCodeBatchFetchFailed,
		Message:   "coalesced upstream fetch failed",
		Kind:      kind,
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
}

// NewAnalysisDegraded flags pattern-only analyzer mode. Callers treat it as
// an advisory, not a failure.
func NewAnalysisDegraded(cause error) *StandardError {
	return &StandardError{
		Code:      ErrCodeAnalysisDegraded,
		Message:   "name indexes unavailable, analyzer degraded to pattern-only detection",
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
}

// NewLLMCallError wraps a failure of the single outbound chat call.
func NewLLMCallError(cause error) *StandardError {
	return &StandardError{
		Code:      ErrCodeLLMCallFailed,
		Message:   "llm call failed",
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
}

// NewRecordNotFound reports a by-id lookup that resolved to nothing when
// the caller required the record to exist.
func NewRecordNotFound(kind, id string) *StandardError {
	return &StandardError{
		Code:      ErrCodeRecordNotFound,
		Message:   "record not found",
		Kind:      kind,
		Key:       id,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// CodeOf extracts the ErrorCode from err, or "" when err carries none.
func CodeOf(err error) ErrorCode {
	var se *StandardError
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}
