// Package errors provides custom error types for the nmsdata extraction
// engine. These errors enable programmatic error checking for the few
// conditions that are actually fatal to a run, as opposed to the many
// per-record outcomes that are merely diagnostic.
package errors

import (
	"errors"
	"fmt"
)

// New returns an error that formats as the given text.
// It's an alias for the standard library errors.New for convenience.
var New = errors.New

// Common sentinel errors for the extraction engine
var (
	// ErrNotFound indicates that a requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates that provided input was invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrSourceContract indicates the upstream converter violated the
	// record-stream contract (stream absent or malformed)
	ErrSourceContract = errors.New("source contract violation")

	// ErrIDConflict indicates duplicate ids that the configured dedupe
	// policy cannot resolve
	ErrIDConflict = errors.New("unresolvable id conflict")
)

// SourceError represents a fatal problem with an upstream record stream.
type SourceError struct {
	Table   string
	Path    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *SourceError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("source table %s (%s): %s", e.Table, e.Path, e.Message)
	}
	return fmt.Sprintf("source table %s: %s", e.Table, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *SourceError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *SourceError) Is(target error) bool {
	return target == ErrSourceContract
}

// NewSourceError creates a new SourceError wrapping the underlying cause
func NewSourceError(table, path, message string, err error) *SourceError {
	return &SourceError{Table: table, Path: path, Message: message, Err: err}
}

// ConflictError reports an id that appears in more than one bucket with
// shapes the configured dedupe policy cannot reconcile.
type ConflictError struct {
	ID      string
	Buckets []string
}

// Error implements the error interface
func (e *ConflictError) Error() string {
	if len(e.Buckets) == 2 {
		return fmt.Sprintf("id %s claimed by both %s and %s", e.ID, e.Buckets[0], e.Buckets[1])
	}
	return fmt.Sprintf("id %s claimed by %d buckets", e.ID, len(e.Buckets))
}

// Is implements errors.Is support
func (e *ConflictError) Is(target error) bool {
	return target == ErrIDConflict
}

// ValidationError represents a validation failure
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// Is implements errors.Is support
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewValidationError creates a new ValidationError
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: message}
}

// ConfigError represents a configuration error
type ConfigError struct {
	Component string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("config error in %s: %s: %v", e.Component, e.Message, e.Err)
	}
	return fmt.Sprintf("config error in %s: %s", e.Component, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// IOError wraps filesystem operation failures with context.
type IOError struct {
	Operation string
	Path      string
	Err       error
}

// Error implements the error interface
func (e *IOError) Error() string {
	return fmt.Sprintf("failed to %s %s: %v", e.Operation, e.Path, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *IOError) Unwrap() error {
	return e.Err
}

// WrapIO wraps an I/O error with operation context
func WrapIO(operation, path string, err error) error {
	if err == nil {
		return nil
	}
	return &IOError{Operation: operation, Path: path, Err: err}
}

// IsSourceContract checks if an error is a source contract violation
func IsSourceContract(err error) bool {
	return errors.Is(err, ErrSourceContract)
}

// IsIDConflict checks if an error is an unresolvable id conflict
func IsIDConflict(err error) bool {
	return errors.Is(err, ErrIDConflict)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}
