// Package errors provides structured error types for the scalebar application.
//
// Every failure the overlay workflow can surface carries a machine-readable
// Code so that the CLI, the terminal UI, and the HTTP API can decide how to
// present it:
//
//   - DECODE_ERROR, ENCODE_ERROR: the image codec rejected a file
//   - FONT_UNAVAILABLE: the label typeface could not be located
//   - SETTINGS_PARSE: the settings document is corrupt (recovered with defaults)
//   - PICKER_CANCELLED: the user aborted a selection (not a failure)
//   - PATH_MISSING: a source image vanished between import and use
//   - INVALID_*: rejected user input
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidExtension, "unsupported file: %s", name)
//	if errors.Is(err, errors.ErrCodeInvalidExtension) {
//	    // reject the whole drop
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeDecode, origErr, "decode %s", path)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput         Code = "INVALID_INPUT"
	ErrCodeInvalidExtension     Code = "INVALID_EXTENSION"
	ErrCodeInvalidMagnification Code = "INVALID_MAGNIFICATION"
	ErrCodeInvalidAlignment     Code = "INVALID_ALIGNMENT"
	ErrCodeInvalidPath          Code = "INVALID_PATH"

	// Resource errors
	ErrCodeNotFound    Code = "NOT_FOUND"
	ErrCodePathMissing Code = "PATH_MISSING"

	// Image pipeline errors
	ErrCodeDecode          Code = "DECODE_ERROR"
	ErrCodeEncode          Code = "ENCODE_ERROR"
	ErrCodeFontUnavailable Code = "FONT_UNAVAILABLE"

	// Settings and interaction
	ErrCodeSettingsParse   Code = "SETTINGS_PARSE"
	ErrCodePickerCancelled Code = "PICKER_CANCELLED"

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

// Silent reports whether err represents a user aborting an operation.
// Silent errors abort the current flow without being reported.
func Silent(err error) bool {
	return Is(err, ErrCodePickerCancelled)
}
