// Package errors provides domain-specific error types for atmoforce.
//
// These types carry structured context (operation, file, variable) that
// lets the CLI print a single actionable line before aborting a run, and
// lets callers tell contract violations apart from bad input data.
package errors

import (
	"errors"
	"fmt"
)

// ── Sentinel errors ──────────────────────────────────────────────────

var (
	ErrNotInitialized   = errors.New("model is not initialized")
	ErrLengthMismatch   = errors.New("buffer length does not match report times")
	ErrVariableNotFound = errors.New("variable not found")
	ErrShapeMismatch    = errors.New("field shape does not match grid")
	ErrUnknownModel     = errors.New("unknown atmosphere model")
	ErrDefineMode       = errors.New("output file is not in define mode")
	ErrDataMode         = errors.New("output file is not in data mode")
)

// ── Structured error types ───────────────────────────────────────────

// DataError represents a failure reading or writing a dataset variable.
type DataError struct {
	Op       string // "read", "regrid", "define", "write", "open"
	File     string // dataset path
	Variable string // variable name (empty for file-level failures)
	Err      error  // underlying error
}

func (e *DataError) Error() string {
	if e.Variable == "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.File, e.Err)
	}
	return fmt.Sprintf("%s '%s' from %s: %v", e.Op, e.Variable, e.File, e.Err)
}

func (e *DataError) Unwrap() error { return e.Err }

// ConfigError represents an invalid configuration value.
type ConfigError struct {
	Field   string      // config field name
	Value   interface{} // the invalid value (nil if missing)
	Message string      // human-readable explanation
	Hint    string      // suggestion for the user (optional)
}

func (e *ConfigError) Error() string {
	msg := fmt.Sprintf("config: %s", e.Field)
	if e.Value != nil {
		msg += fmt.Sprintf("=%v", e.Value)
	}
	msg += ": " + e.Message
	if e.Hint != "" {
		msg += "\n  hint: " + e.Hint
	}
	return msg
}

// LengthError reports a caller buffer whose length disagrees with the
// number of requested report times.
type LengthError struct {
	Model string
	Got   int
	Want  int
}

func (e *LengthError) Error() string {
	return fmt.Sprintf("%s: buffer has %d entries, want %d", e.Model, e.Got, e.Want)
}

func (e *LengthError) Unwrap() error { return ErrLengthMismatch }

// ── Constructors ─────────────────────────────────────────────────────

// WrapData creates a DataError.
func WrapData(op, file, variable string, err error) *DataError {
	return &DataError{Op: op, File: file, Variable: variable, Err: err}
}

// NotFound creates a DataError for a variable absent from file.
func NotFound(op, file, variable string) *DataError {
	return &DataError{Op: op, File: file, Variable: variable, Err: ErrVariableNotFound}
}

// NewConfig creates a ConfigError.
func NewConfig(field string, value interface{}, message, hint string) *ConfigError {
	return &ConfigError{Field: field, Value: value, Message: message, Hint: hint}
}

// Length creates a LengthError.
func Length(model string, got, want int) *LengthError {
	return &LengthError{Model: model, Got: got, Want: want}
}

// ── Classification helpers ───────────────────────────────────────────

// IsFatalData reports whether err originated in dataset I/O.  Such
// errors abort the run; nothing in atmoforce retries them.
func IsFatalData(err error) bool {
	var de *DataError
	return errors.As(err, &de)
}

// IsContractViolation reports whether err is a programming-contract
// violation (query before init, buffer length mismatch).
func IsContractViolation(err error) bool {
	return errors.Is(err, ErrNotInitialized) || errors.Is(err, ErrLengthMismatch)
}

// ── Re-exports for convenience ───────────────────────────────────────
//
// These allow callers to use atmoforce/internal/errors as a drop-in
// replacement for the standard library in common operations.

// As is [errors.As].
func As(err error, target interface{}) bool { return errors.As(err, target) }

// Is is [errors.Is].
func Is(err, target error) bool { return errors.Is(err, target) }

// New is [errors.New].
func New(text string) error { return errors.New(text) }

// Unwrap is [errors.Unwrap].
func Unwrap(err error) error { return errors.Unwrap(err) }

// Join is [errors.Join].
func Join(errs ...error) error { return errors.Join(errs...) }
