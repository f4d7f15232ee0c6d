// Package errors provides the uniform error type returned by the gateway and the stores.
package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode classifies an Error.
type ErrorCode string

const (
	// Caught before any network call (blank tag name, empty scan path, no search tags).
	ALBUM_VALIDATION ErrorCode = "ALBUM_VALIDATION"

	// Transport and protocol failures share one code on purpose; callers that need to
	// tell them apart have to look at the message.
	ALBUM_GATEWAY ErrorCode = "ALBUM_GATEWAY"

	// Lookup misses reported by the in-memory fixture.
	ALBUM_NOT_FOUND ErrorCode = "ALBUM_NOT_FOUND"

	ALBUM_INTERNAL ErrorCode = "ALBUM_INTERNAL"
)

// Error is the uniform failure value.
type Error struct {
	Code       ErrorCode
	Message    string
	Cause      error
	Body       string // raw response body, truncated, kept for diagnostics
	HTTPStatus int    // 0 when no response was received
}

// New creates a new Error with the specified code and message.
func New(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap creates a gateway Error that keeps cause for errors.Is / errors.As.
func Wrap(cause error, message string) *Error {
	return &Error{Code: ALBUM_GATEWAY, Message: message, Cause: cause}
}

// Validation creates a validation Error.
func Validation(format string, args ...any) *Error {
	return &Error{Code: ALBUM_VALIDATION, Message: fmt.Sprintf(format, args...)}
}

// NotFound creates a not-found Error.
func NotFound(format string, args ...any) *Error {
	return &Error{Code: ALBUM_NOT_FOUND, Message: fmt.Sprintf(format, args...)}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// CodeOf returns the code of the first *Error in err's chain, or ALBUM_INTERNAL.
func CodeOf(err error) ErrorCode {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Code
	}
	return ALBUM_INTERNAL
}

// IsValidation reports whether err was raised before any network call.
func IsValidation(err error) bool {
	return err != nil && CodeOf(err) == ALBUM_VALIDATION
}

// IsNotFound reports whether err is a lookup miss.
func IsNotFound(err error) bool {
	return err != nil && CodeOf(err) == ALBUM_NOT_FOUND
}

// MessageOf returns the human-readable message for display in a store's lastError.
func MessageOf(err error) string {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
