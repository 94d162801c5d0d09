// Package errors provides structured error types for the gang sheet engine.
//
// Every failure the engine can produce carries a machine-readable code so
// that callers (CLI, HTTP layer) can map it to an exit status or HTTP status
// without string matching. Geometry and validation failures are request
// scoped and never retryable: the packing math is deterministic, so retrying
// the same input reproduces the same failure.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeAssetTooWide, "design %q is %.1fpt wide", name, w)
//	if errors.Is(err, errors.ErrCodeAssetTooWide) {
//	    // reject the upload
//	}
//
//	// Wrap an underlying failure
//	err := errors.Wrap(errors.ErrCodeAssetLoad, ioErr, "failed to load %s", path)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different failure categories.
const (
	// Asset inspection failures
	ErrCodeDegenerateAsset      Code = "DEGENERATE_ASSET"
	ErrCodeUnsupportedAssetKind Code = "UNSUPPORTED_ASSET_KIND"
	ErrCodeAssetLoad            Code = "ASSET_LOAD_FAILED"

	// Geometry failures
	ErrCodeAssetTooWide Code = "ASSET_TOO_WIDE"
	ErrCodeAssetTooTall Code = "ASSET_TOO_TALL"

	// Caller input failures
	ErrCodeInvalidQuantity   Code = "INVALID_QUANTITY"
	ErrCodeInvalidConstraint Code = "INVALID_CONSTRAINT"
	ErrCodeInvalidTierTable  Code = "INVALID_TIER_TABLE"
	ErrCodeInvalidRequest    Code = "INVALID_REQUEST"

	// Job store failures
	ErrCodeJobNotFound Code = "JOB_NOT_FOUND"

	// Internal failures
	ErrCodePackingStalled Code = "PACKING_STALLED"
	ErrCodeRenderFailed   Code = "RENDER_FAILED"
	ErrCodeInternal       Code = "INTERNAL_ERROR"
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

// IsValidation reports whether err was caused by bad caller input rather
// than an internal fault. HTTP handlers map validation errors to 4xx
// responses and everything else to 5xx.
func IsValidation(err error) bool {
	switch GetCode(err) {
	case ErrCodeDegenerateAsset, ErrCodeUnsupportedAssetKind,
		ErrCodeAssetTooWide, ErrCodeAssetTooTall,
		ErrCodeInvalidQuantity, ErrCodeInvalidConstraint,
		ErrCodeInvalidTierTable, ErrCodeInvalidRequest,
		ErrCodeAssetLoad:
		return true
	}
	return false
}
