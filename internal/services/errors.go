package services

import (
	"errors"
	"fmt"
	"strings"
)

// APIErrorKind classifies provider errors that stop the fallback walk.
type APIErrorKind string

const (
	KindInvalidKey    APIErrorKind = "invalid_key"
	KindQuotaExceeded APIErrorKind = "quota_exceeded"
	KindSafetyBlocked APIErrorKind = "safety_blocked"
	KindUnknown       APIErrorKind = "unknown"
)

// ErrCancelled is returned when the caller's cancellation fired mid-request.
// It is neutral, not an error condition, and always wins over any other
// classification.
var ErrCancelled = errors.New("gemini: request cancelled")

// ModelUnavailableError means this particular model does not exist or is not
// supported; the fallback walk continues with the next candidate.
type ModelUnavailableError struct {
	Model string
}

func (e *ModelUnavailableError) Error() string {
	return fmt.Sprintf("gemini: model %s not available", e.Model)
}

// APIError is a provider-side failure that is not model-specific; it stops
// the fallback walk.
type APIError struct {
	Kind    APIErrorKind
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gemini: api error (%s): %s", e.Kind, e.Message)
}

// SafetyBlockedError means the prompt was blocked and no candidate content
// was returned.
type SafetyBlockedError struct {
	Reason string
}

func (e *SafetyBlockedError) Error() string {
	return fmt.Sprintf("gemini: prompt blocked by safety filters (%s)", e.Reason)
}

// NoTextError means the response arrived but carried no extractable text.
type NoTextError struct {
	Model string
}

func (e *NoTextError) Error() string {
	return fmt.Sprintf("gemini: model %s returned no usable text", e.Model)
}

// NetworkError is a transport-level failure, including the per-attempt
// timeout.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("gemini: network failure: %v", e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ExhaustedError reports that every candidate model failed, carrying the
// attempted identifiers and the last classified error.
type ExhaustedError struct {
	Attempted []string
	Last      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("gemini: no model produced a response (tried %s): %v",
		strings.Join(e.Attempted, ", "), e.Last)
}

func (e *ExhaustedError) Unwrap() error { return e.Last }
