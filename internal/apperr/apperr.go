// Package apperr defines the error taxonomy shared by handlers, services and the router.
// Every error that reaches the HTTP boundary is mapped to a status code through Status.
package apperr

import (
	"errors"
	"net/http"
)

// Kind classifies an error for the HTTP layer.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindAuth
	KindNotFound
	KindMethodNotAllowed
	KindUnavailable
)

// Error is an error carrying a Kind and a client-facing message.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return http.StatusText(e.Status())
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Status returns the HTTP status code for the error kind.
func (e *Error) Status() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindAuth:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	case KindMethodNotAllowed:
		return http.StatusMethodNotAllowed
	case KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Validation reports malformed or missing client input.
func Validation(msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg}
}

// Auth reports a missing, invalid or insufficient credential. cause is kept for errors.Is.
func Auth(msg string, cause error) *Error {
	return &Error{Kind: KindAuth, Message: msg, Err: cause}
}

// NotFound reports an id that does not resolve.
func NotFound(msg string, cause error) *Error {
	return &Error{Kind: KindNotFound, Message: msg, Err: cause}
}

// MethodNotAllowed reports a known resource shape used with an unsupported verb.
func MethodNotAllowed() *Error {
	return &Error{Kind: KindMethodNotAllowed, Message: "Method Not Allowed"}
}

// Unavailable reports a dependency that did not answer in time.
func Unavailable(msg string, cause error) *Error {
	return &Error{Kind: KindUnavailable, Message: msg, Err: cause}
}

// Internal wraps a store or unexpected fault. The underlying message is exposed to the caller.
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Err: err}
}

// Status maps any error to an HTTP status code. Errors outside the taxonomy are 500.
func Status(err error) int {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Status()
	}
	return http.StatusInternalServerError
}

// Is reports whether err is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.Kind == kind
}
