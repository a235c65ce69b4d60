// Package errors provides coded domain errors shared by the fetcher, the
// summary cache and the HTTP API.
//
// Usage:
//
//	// In services - return typed errors
//	if record == nil {
//	    return errors.NotFoundf("no summary for app %d", appID)
//	}
//
//	// Anywhere - check with errors.Is, matching is by code
//	if errors.Is(err, errors.ErrFetchFailed) {
//	    ...
//	}
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Re-export standard library functions for convenience.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	Join   = errors.Join
	New    = errors.New
)

// Code represents a machine-readable error code.
type Code string

// Error codes used throughout the application.
const (
	CodeNotFound               Code = "NOT_FOUND"
	CodeValidation             Code = "VALIDATION"
	CodeConflict               Code = "CONFLICT"
	CodeInternal               Code = "INTERNAL"
	CodeRateLimited            Code = "RATE_LIMITED"
	CodeFetchFailed            Code = "FETCH_FAILED"
	CodePersistenceUnavailable Code = "PERSISTENCE_UNAVAILABLE"
	CodeSummarizerFailed       Code = "SUMMARIZER_FAILED"
	CodeNoReviews              Code = "NO_REVIEWS"
)

// HTTPStatus returns the appropriate HTTP status code for an error code.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	case CodeValidation:
		return http.StatusBadRequest
	case CodeRateLimited:
		return http.StatusTooManyRequests
	case CodeFetchFailed, CodeSummarizerFailed:
		return http.StatusBadGateway
	case CodePersistenceUnavailable:
		return http.StatusServiceUnavailable
	case CodeNoReviews:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// Error is a domain error with a code, message, and optional details.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
	cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports whether target matches this error.
// Matches if target is an *Error with the same Code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// HTTPStatus returns the HTTP status code for this error.
func (e *Error) HTTPStatus() int {
	return e.Code.HTTPStatus()
}

// WithDetails returns a new error with additional details.
func (e *Error) WithDetails(details any) *Error {
	return &Error{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		cause:   e.cause,
	}
}

// WithCause wraps an underlying error.
func (e *Error) WithCause(err error) *Error {
	return &Error{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		cause:   err,
	}
}

// Sentinel errors for use with errors.Is().
var (
	ErrNotFound               = &Error{Code: CodeNotFound, Message: "not found"}
	ErrValidation             = &Error{Code: CodeValidation, Message: "validation error"}
	ErrConflict               = &Error{Code: CodeConflict, Message: "conflict"}
	ErrInternal               = &Error{Code: CodeInternal, Message: "internal error"}
	ErrRateLimited            = &Error{Code: CodeRateLimited, Message: "rate limited"}
	ErrFetchFailed            = &Error{Code: CodeFetchFailed, Message: "fetch failed"}
	ErrPersistenceUnavailable = &Error{Code: CodePersistenceUnavailable, Message: "persistence unavailable"}
	ErrSummarizerFailed       = &Error{Code: CodeSummarizerFailed, Message: "summarizer failed"}
	ErrNoReviews              = &Error{Code: CodeNoReviews, Message: "no reviews"}
)

// NotFound creates a not found error.
func NotFound(msg string) *Error {
	return &Error{Code: CodeNotFound, Message: msg}
}

// NotFoundf creates a not found error with formatted message.
func NotFoundf(format string, args ...any) *Error {
	return &Error{Code: CodeNotFound, Message: fmt.Sprintf(format, args...)}
}

// Validation creates a validation error.
func Validation(msg string) *Error {
	return &Error{Code: CodeValidation, Message: msg}
}

// Validationf creates a validation error with formatted message.
func Validationf(format string, args ...any) *Error {
	return &Error{Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}

// ValidationWithDetails creates a validation error with details.
func ValidationWithDetails(msg string, details any) *Error {
	return &Error{Code: CodeValidation, Message: msg, Details: details}
}

// Conflict creates a conflict error.
func Conflict(msg string) *Error {
	return &Error{Code: CodeConflict, Message: msg}
}

// Internal creates an internal error.
func Internal(msg string) *Error {
	return &Error{Code: CodeInternal, Message: msg}
}

// Internalf creates an internal error with formatted message.
func Internalf(format string, args ...any) *Error {
	return &Error{Code: CodeInternal, Message: fmt.Sprintf(format, args...)}
}

// FetchFailed wraps the last upstream failure once the fetcher gives up.
func FetchFailed(err error, format string, args ...any) *Error {
	return &Error{Code: CodeFetchFailed, Message: fmt.Sprintf(format, args...), cause: err}
}

// PersistenceUnavailable wraps a store failure that survived its retry.
func PersistenceUnavailable(err error) *Error {
	return &Error{Code: CodePersistenceUnavailable, Message: "summary store unavailable", cause: err}
}

// SummarizerFailed wraps a summarizer failure.
func SummarizerFailed(err error, msg string) *Error {
	return &Error{Code: CodeSummarizerFailed, Message: msg, cause: err}
}

// Wrap wraps an error with a code and message.
func Wrap(err error, code Code, msg string) *Error {
	return &Error{Code: code, Message: msg, cause: err}
}

// Wrapf wraps an error with a code and formatted message.
func Wrapf(err error, code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), cause: err}
}
