// Package errors provides standardized domain errors with codes for the board icon API.
//
// Usage:
//
//	// In services - return typed errors
//	if title == "" {
//	    return errors.ValidationWithDetails("validation failed", map[string]string{"title": "is required"})
//	}
//
//	// In handlers - check with errors.Is
//	if errors.Is(err, errors.ErrUploadFailed) {
//	    ...
//	}
//
//	// Or use the Code directly for switch statements
//	var domainErr *errors.Error
//	if errors.As(err, &domainErr) {
//	    switch domainErr.Code {
//	    case errors.CodeUploadRejected:
//	        ...
//	    }
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
	CodeNotFound       Code = "NOT_FOUND"
	CodeValidation     Code = "VALIDATION"
	CodeUploadRejected Code = "UPLOAD_REJECTED"
	CodeUploadFailed   Code = "UPLOAD_FAILED"
	CodeConflict       Code = "CONFLICT"
	CodeInternal       Code = "INTERNAL"
)

// HTTPStatus returns the appropriate HTTP status code for an error code.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	case CodeValidation, CodeUploadRejected:
		return http.StatusBadRequest
	case CodeUploadFailed:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Error is a domain error with a code, message, and optional details.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
	cause   error  // unexported, for wrapping
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
	ErrNotFound       = &Error{Code: CodeNotFound, Message: "not found"}
	ErrValidation     = &Error{Code: CodeValidation, Message: "validation error"}
	ErrUploadRejected = &Error{Code: CodeUploadRejected, Message: "upload rejected"}
	ErrUploadFailed   = &Error{Code: CodeUploadFailed, Message: "upload failed"}
	ErrConflict       = &Error{Code: CodeConflict, Message: "conflict"}
	ErrInternal       = &Error{Code: CodeInternal, Message: "internal error"}
)

// Constructor functions for creating errors with custom messages.

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

// ValidationWithDetails creates a validation error with details.
func ValidationWithDetails(msg string, details any) *Error {
	return &Error{Code: CodeValidation, Message: msg, Details: details}
}

// InvalidField creates a validation error scoped to a single form field.
// The details map uses the same shape as validator-produced errors.
func InvalidField(field, reason string) *Error {
	return &Error{
		Code:    CodeValidation,
		Message: "validation failed",
		Details: map[string]string{field: reason},
	}
}

// UploadRejected creates an upload rejected error carrying the rejection reason.
func UploadRejected(reason string) *Error {
	return &Error{Code: CodeUploadRejected, Message: "upload rejected: " + reason, Details: reason}
}

// UploadFailed wraps an I/O failure during copy or rename of an uploaded file.
func UploadFailed(err error) *Error {
	return &Error{Code: CodeUploadFailed, Message: "upload failed", cause: err}
}

// Conflict creates a conflict error.
func Conflict(msg string) *Error {
	return &Error{Code: CodeConflict, Message: msg}
}

// Wrap wraps an error with a code and message.
func Wrap(err error, code Code, msg string) *Error {
	return &Error{Code: code, Message: msg, cause: err}
}
