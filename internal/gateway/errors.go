package gateway

import (
	"errors"
	"fmt"
)

// ErrorClass buckets provider failures into the retry taxonomy consumed by
// the orchestrator and the resolver.
type ErrorClass string

const (
	ClassValidation     ErrorClass = "validation"
	ClassAuthentication ErrorClass = "authentication"
	ClassNotFound       ErrorClass = "not_found"
	ClassRateLimited    ErrorClass = "rate_limited"
	ClassConflict       ErrorClass = "conflict"
	ClassTransient      ErrorClass = "transient"
	ClassFatal          ErrorClass = "fatal"
)

// Retryable reports whether a class is eligible for local retry with backoff.
func (c ErrorClass) Retryable() bool {
	return c == ClassRateLimited || c == ClassTransient
}

// ErrorDetail carries field-level provider feedback.
type ErrorDetail struct {
	Loc string `json:"loc"`
	Msg string `json:"msg"`
}

// errorBody is the provider's structured error envelope.
type errorBody struct {
	Code    string        `json:"code"`
	Message string        `json:"message"`
	Details []ErrorDetail `json:"details,omitempty"`
}

// Error is a classified provider failure.
type Error struct {
	Status  int
	Code    string
	Message string
	Details []ErrorDetail
	Class   ErrorClass
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("wave: %s (%s, http %d)", e.Message, e.Code, e.Status)
	}
	return fmt.Sprintf("wave: %s (http %d)", e.Message, e.Status)
}

// ClassOf extracts the error class from err, defaulting to Fatal for
// anything that is not a provider error.
func ClassOf(err error) ErrorClass {
	if err == nil {
		return ""
	}
	var gerr *Error
	if errors.As(err, &gerr) {
		return gerr.Class
	}
	return ClassFatal
}

// transportError wraps a failed round trip as a Transient provider error.
func transportError(err error) *Error {
	return &Error{
		Code:    "transport_failure",
		Message: err.Error(),
		Class:   ClassTransient,
	}
}

// timeoutError reports a cancelled or expired deadline as Transient.
func timeoutError(err error) *Error {
	return &Error{
		Code:    "timeout",
		Message: err.Error(),
		Class:   ClassTransient,
	}
}

// escalate marks a retryable error whose retry budget is exhausted as Fatal.
func escalate(err *Error) *Error {
	if err == nil || !err.Class.Retryable() {
		return err
	}
	copied := *err
	copied.Class = ClassFatal
	return &copied
}
