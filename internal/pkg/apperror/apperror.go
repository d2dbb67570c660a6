// Package apperror defines the error kinds the HTTP layer knows how to
// render. Handlers and middlewares return *Error values and the echo error
// handler turns them into the JSON failure envelope.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for transport mapping
type Kind int

const (
	KindInternal Kind = iota
	KindMalformedInput
	KindUnauthenticated
	KindForbidden
	KindNotFound
	KindConflict
	KindRateLimited
	KindUnavailable
)

var kindNames = map[Kind]string{
	KindInternal:        "internal",
	KindMalformedInput:  "malformed_input",
	KindUnauthenticated: "unauthenticated",
	KindForbidden:       "forbidden",
	KindNotFound:        "not_found",
	KindConflict:        "conflict",
	KindRateLimited:     "rate_limited",
	KindUnavailable:     "unavailable",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// HTTPStatus maps the kind to its HTTP status code
func (k Kind) HTTPStatus() int {
	switch k {
	case KindMalformedInput:
		return http.StatusBadRequest
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindRateLimited:
		return http.StatusTooManyRequests
	case KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Error is a classified application error. Title is the short label
// rendered as "error", Message the human readable explanation. Err is the
// underlying cause and is never rendered to clients.
type Error struct {
	Kind    Kind
	Title   string
	Message string
	Details interface{}
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

// WithDetails returns a copy of e carrying details
func (e *Error) WithDetails(details interface{}) *Error {
	clone := *e
	clone.Details = details
	return &clone
}

// New creates an error of the given kind
func New(kind Kind, title, message string) *Error {
	return &Error{Kind: kind, Title: title, Message: message}
}

// Wrap creates an error of the given kind around a cause
func Wrap(kind Kind, title, message string, err error) *Error {
	return &Error{Kind: kind, Title: title, Message: message, Err: err}
}

func MalformedInput(title, message string) *Error {
	return New(KindMalformedInput, title, message)
}

func Unauthenticated(title, message string) *Error {
	return New(KindUnauthenticated, title, message)
}

func Forbidden(title, message string) *Error {
	return New(KindForbidden, title, message)
}

func NotFound(title, message string) *Error {
	return New(KindNotFound, title, message)
}

func Conflict(title, message string) *Error {
	return New(KindConflict, title, message)
}

func RateLimited(message string) *Error {
	return New(KindRateLimited, "Too many requests", message)
}

// Internal wraps an unexpected failure. The cause is kept for logging only.
func Internal(message string, err error) *Error {
	return Wrap(KindInternal, "Internal server error", message, err)
}

// As extracts an *Error from err's chain
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// KindOf returns the kind of err, or KindInternal for unclassified errors
func KindOf(err error) Kind {
	if appErr, ok := As(err); ok {
		return appErr.Kind
	}
	return KindInternal
}
