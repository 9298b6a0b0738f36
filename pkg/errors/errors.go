// Package errors provides structured error types for flowview.
//
// Every error that the diagram core can report carries a machine-readable
// [Code]. Most of them are not fatal: the graph builder, transform engine
// and viewer log them and continue with a placeholder or the previous
// state, so callers usually meet them in diagnostics lists or log output
// rather than as return values.
//
// # Error Codes
//
//   - RESOLUTION_FAILED: a referenced component or member is not in the
//     definitions index
//   - INVALID_SCALE: a scale token is not "none", "auto" or a positive number
//   - DEGENERATE_GEOMETRY: auto-scale was computed against a zero-sized
//     surface or content box
//   - INVALID_*: input validation failures
//   - LAYOUT_FAILED, SUPERSEDED: layout engine outcomes
//
// # Usage
//
//	err := errors.New(errors.ErrCodeResolution, "component %q not found", id)
//	if errors.Is(err, errors.ErrCodeResolution) {
//	    // fall back to a placeholder
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeLayout, origErr, "layout %s", reqID)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Diagram core errors
	ErrCodeResolution         Code = "RESOLUTION_FAILED"
	ErrCodeInvalidScale       Code = "INVALID_SCALE"
	ErrCodeDegenerateGeometry Code = "DEGENERATE_GEOMETRY"

	// Input validation errors
	ErrCodeInvalidInput       Code = "INVALID_INPUT"
	ErrCodeInvalidDefinitions Code = "INVALID_DEFINITIONS"
	ErrCodeInvalidFormat      Code = "INVALID_FORMAT"
	ErrCodeInvalidPath        Code = "INVALID_PATH"

	// Resource not found errors
	ErrCodeNotFound     Code = "NOT_FOUND"
	ErrCodeFileNotFound Code = "FILE_NOT_FOUND"

	// Layout errors
	ErrCodeLayout     Code = "LAYOUT_FAILED"
	ErrCodeSuperseded Code = "SUPERSEDED"
	ErrCodeTimeout    Code = "TIMEOUT"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// Resolution reports a component, member or endpoint reference that could
// not be resolved against the definitions index.
func Resolution(format string, args ...any) *Error {
	return New(ErrCodeResolution, format, args...)
}

// InvalidScale reports a scale token that failed validation.
func InvalidScale(token string) *Error {
	return New(ErrCodeInvalidScale,
		"invalid scale %q: possible values are 'none', 'auto', or a positive float passed as string", token)
}

// DegenerateGeometry reports a fit computation against zero-sized geometry.
func DegenerateGeometry(format string, args ...any) *Error {
	return New(ErrCodeDegenerateGeometry, format, args...)
}
