// Package apperr defines the error taxonomy shared by services and the HTTP layer.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Error carries an HTTP status and a client-safe message. Err, when set, is
// the underlying cause and is only exposed outside production.
type Error struct {
	Status  int
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

func newf(status int, format string, args ...any) *Error {
	return &Error{Status: status, Message: fmt.Sprintf(format, args...)}
}

func BadRequest(format string, args ...any) *Error {
	return newf(http.StatusBadRequest, format, args...)
}

func Unauthorized(format string, args ...any) *Error {
	return newf(http.StatusUnauthorized, format, args...)
}

func Forbidden(format string, args ...any) *Error {
	return newf(http.StatusForbidden, format, args...)
}

func NotFound(format string, args ...any) *Error {
	return newf(http.StatusNotFound, format, args...)
}

func Conflict(format string, args ...any) *Error {
	return newf(http.StatusConflict, format, args...)
}

func Unprocessable(format string, args ...any) *Error {
	return newf(http.StatusUnprocessableEntity, format, args...)
}

// Internal wraps an unexpected failure. The message shown to clients is generic.
func Internal(err error) *Error {
	return &Error{Status: http.StatusInternalServerError, Message: "internal server error", Err: err}
}

// Wrap attaches a cause to e and returns e.
func (e *Error) Wrap(err error) *Error {
	e.Err = err
	return e
}

// StatusOf returns the HTTP status for err, defaulting to 500.
func StatusOf(err error) int {
	var ae *Error
	if errors.As(err, &ae) && ae.Status != 0 {
		return ae.Status
	}
	return http.StatusInternalServerError
}

// As extracts an *Error from err, converting unknown errors into Internal.
func As(err error) *Error {
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return Internal(err)
}
