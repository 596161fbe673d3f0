// Package apperr defines the error taxonomy shared by every route.
package apperr

import (
	"errors"
	"fmt"
	"time"
)

type Kind string

const (
	KindValidation    Kind = "validation_error"
	KindNotFound      Kind = "not_found"
	KindConflict      Kind = "conflict"
	KindQuotaExceeded Kind = "quota_exceeded"
	KindUnauthorized  Kind = "unauthorized"
	KindRateLimited   Kind = "rate_limited"
	KindInternal      Kind = "internal_error"
)

// FieldError is one field-level validation issue.
type FieldError struct {
	Field string `json:"field"`
	Issue string `json:"issue"`
}

// Error is a classified failure. Err keeps the cause for logs and is never sent to clients.
type Error struct {
	Kind    Kind
	Message string
	Fields  []FieldError
	ResetAt time.Time
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error by kind so sentinels declared with New work with errors.Is.
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}
	return other.Kind == e.Kind && (other.Message == "" || other.Message == e.Message)
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Validation(message string, fields ...FieldError) *Error {
	return &Error{Kind: KindValidation, Message: message, Fields: fields}
}

func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

func Conflict(message string) *Error {
	return &Error{Kind: KindConflict, Message: message}
}

func Unauthorized(message string) *Error {
	return &Error{Kind: KindUnauthorized, Message: message}
}

func QuotaExceeded(resetAt time.Time) *Error {
	return &Error{Kind: KindQuotaExceeded, Message: "daily AI operation limit reached", ResetAt: resetAt}
}

func RateLimited(message string, retryAt time.Time) *Error {
	return &Error{Kind: KindRateLimited, Message: message, ResetAt: retryAt}
}

// Internal wraps an unexpected failure.
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Message: "Unexpected server error", Err: err}
}

// KindOf classifies err; unknown errors are internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// As returns the first *Error in err's chain, wrapping unknown errors as internal.
func As(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Internal(err)
}
