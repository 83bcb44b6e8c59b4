// Package errors provides error handling for gridprop.
//
// This package re-exports github.com/cockroachdb/errors, providing:
//   - Stack traces for debugging
//   - Error wrapping and context
//   - Sentinel-based error classification via errors.Is
//
// Usage:
//
//	// Create new error
//	err := errors.New("something went wrong")
//
//	// Wrap with context
//	if err := doSomething(); err != nil {
//	    return errors.Wrap(err, "failed to do something")
//	}
//
//	// Check errors
//	if errors.IsShapeError(err) {
//	    // handle dimension mismatch
//	}
//
// For full documentation see: https://pkg.go.dev/github.com/cockroachdb/errors
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
var (
	New         = crdb.New
	Newf        = crdb.Newf
	Wrap        = crdb.Wrap
	Wrapf       = crdb.Wrapf
	WithStack   = crdb.WithStack
	WithMessage = crdb.WithMessage
	WithHint    = crdb.WithHint
	WithDetail  = crdb.WithDetail
)

// Error inspection
var (
	Is        = crdb.Is
	IsAny     = crdb.IsAny
	As        = crdb.As
	Unwrap    = crdb.Unwrap
	UnwrapAll = crdb.UnwrapAll
	Mark      = crdb.Mark
)

// Sentinel errors for the grid-property error taxonomy.
// Use these with errors.Is() for type-safe error checking.
// Wrap these with errors.Wrap() to add context while preserving the type.
var (
	// ErrShape indicates an array's element count or dimensions do not
	// match the fixed dimensions of a property or geometry.
	ErrShape = New("shape mismatch")

	// ErrFormat indicates a file format could not be determined or is
	// unsupported for the requested operation.
	ErrFormat = New("unknown or unsupported format")

	// ErrPrecondition indicates an operation requires state that is not
	// present (geometry not linked, restart date missing).
	ErrPrecondition = New("precondition not met")

	// ErrDateNotFound indicates the requested date is absent from a
	// restart file.
	ErrDateNotFound = New("date not found")

	// ErrKeywordNotFound indicates the requested keyword is absent from
	// the source file.
	ErrKeywordNotFound = New("keyword not found")

	// ErrKeywordFoundNoDate indicates the requested keyword exists in the
	// restart file but not at the requested date.
	ErrKeywordFoundNoDate = New("keyword found but not at requested date")

	// ErrValue indicates an invalid enumerated option (dtype, operation
	// name, format name) or an out-of-range argument.
	ErrValue = New("invalid value")

	// ErrImportFailed is the generic import failure for codec status codes
	// that have no specific translation. The wrapped message carries the
	// raw code.
	ErrImportFailed = New("import failed")
)

// IsShapeError checks if an error is or wraps ErrShape.
func IsShapeError(err error) bool {
	return err != nil && Is(err, ErrShape)
}

// IsFormatError checks if an error is or wraps ErrFormat.
func IsFormatError(err error) bool {
	return err != nil && Is(err, ErrFormat)
}

// IsPreconditionError checks if an error is or wraps ErrPrecondition.
func IsPreconditionError(err error) bool {
	return err != nil && Is(err, ErrPrecondition)
}

// IsDateNotFoundError checks if an error is or wraps ErrDateNotFound.
func IsDateNotFoundError(err error) bool {
	return err != nil && Is(err, ErrDateNotFound)
}

// IsKeywordNotFoundError checks if an error is or wraps ErrKeywordNotFound.
func IsKeywordNotFoundError(err error) bool {
	return err != nil && Is(err, ErrKeywordNotFound)
}

// IsKeywordFoundNoDateError checks if an error is or wraps ErrKeywordFoundNoDate.
func IsKeywordFoundNoDateError(err error) bool {
	return err != nil && Is(err, ErrKeywordFoundNoDate)
}

// IsValueError checks if an error is or wraps ErrValue.
func IsValueError(err error) bool {
	return err != nil && Is(err, ErrValue)
}

// IsImportFailedError checks if an error is or wraps ErrImportFailed.
func IsImportFailedError(err error) bool {
	return err != nil && Is(err, ErrImportFailed)
}

// NewShapeError creates a shape error with a formatted message.
func NewShapeError(format string, args ...interface{}) error {
	return Wrap(ErrShape, Newf(format, args...).Error())
}

// NewFormatError creates a format error with a formatted message.
func NewFormatError(format string, args ...interface{}) error {
	return Wrap(ErrFormat, Newf(format, args...).Error())
}

// NewPreconditionError creates a precondition error with a formatted message.
func NewPreconditionError(format string, args ...interface{}) error {
	return Wrap(ErrPrecondition, Newf(format, args...).Error())
}

// NewValueError creates a value error with a formatted message.
func NewValueError(format string, args ...interface{}) error {
	return Wrap(ErrValue, Newf(format, args...).Error())
}

// NewDateNotFoundError creates a date-not-found error with a formatted message.
func NewDateNotFoundError(format string, args ...interface{}) error {
	return Wrap(ErrDateNotFound, Newf(format, args...).Error())
}

// NewKeywordNotFoundError creates a keyword-not-found error with a formatted message.
func NewKeywordNotFoundError(format string, args ...interface{}) error {
	return Wrap(ErrKeywordNotFound, Newf(format, args...).Error())
}

// NewKeywordFoundNoDateError creates a keyword-found-but-not-at-date error
// with a formatted message.
func NewKeywordFoundNoDateError(format string, args ...interface{}) error {
	return Wrap(ErrKeywordFoundNoDate, Newf(format, args...).Error())
}

// NewImportFailedError creates a generic import failure carrying the raw
// codec status code.
func NewImportFailedError(code int, format string, args ...interface{}) error {
	return Wrap(ErrImportFailed, Newf("status %d: %s", code, Newf(format, args...).Error()).Error())
}
