package store

import (
	"fmt"
	"net/http"
)

// Kind classifies store failures independently of their message.
type Kind uint8

const (
	KindNotFound Kind = iota + 1
	KindExists
	KindVersionConflict
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not found"
	case KindExists:
		return "exists"
	case KindVersionConflict:
		return "version conflict"
	default:
		return "unknown"
	}
}

// Error is a classified store error. Errors of the same Kind compare equal
// under errors.Is, so sentinels with custom messages still match.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// HTTPCode maps the kind to the status the API answers with.
func (e *Error) HTTPCode() int {
	switch e.Kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindExists, KindVersionConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// WithMessage returns a copy with msg.
func (e *Error) WithMessage(msg string) *Error {
	return &Error{Kind: e.Kind, Message: msg, Err: e.Err}
}

// WithCause returns a copy wrapping err.
func (e *Error) WithCause(err error) *Error {
	return &Error{Kind: e.Kind, Message: e.Message, Err: err}
}

var (
	ErrNotFound      = &Error{Kind: KindNotFound, Message: "resource not found"}
	ErrAlreadyExists = &Error{Kind: KindExists, Message: "resource already exists"}

	// ErrVersionConflict is returned by conditional replaces when the stored
	// version no longer matches the caller's.
	ErrVersionConflict = &Error{Kind: KindVersionConflict, Message: "record was modified concurrently"}

	ErrSummaryNotFound = ErrNotFound.WithMessage("summary not found")
)
