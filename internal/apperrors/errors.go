// Package apperrors defines the error taxonomy shared by every pipeline stage.
// All of these errors are fatal: the pipeline surfaces them unchanged and stops.
package apperrors

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation matches any *ValidationError via errors.Is.
	ErrValidation = errors.New("validation failed")
	// ErrConfig matches any *ConfigError via errors.Is.
	ErrConfig = errors.New("invalid configuration")
	// ErrInsufficientData matches any *InsufficientDataError via errors.Is.
	ErrInsufficientData = errors.New("insufficient data")
)

// ValidationError indicates a malformed or degenerate input table.
type ValidationError struct {
	Op     string
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	msg := e.Reason
	if e.Op != "" {
		msg = fmt.Sprintf("%s: %s", e.Op, e.Reason)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return "validation error: " + msg
}

func (e *ValidationError) Unwrap() error { return e.Err }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// ConfigError indicates a missing target column or an invalid option value.
type ConfigError struct {
	Key    string
	Reason string
	Err    error
}

func (e *ConfigError) Error() string {
	msg := e.Reason
	if e.Key != "" {
		msg = fmt.Sprintf("%s: %s", e.Key, e.Reason)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return "config error: " + msg
}

func (e *ConfigError) Unwrap() error { return e.Err }

func (e *ConfigError) Is(target error) bool { return target == ErrConfig }

// InsufficientDataError indicates too few samples for the requested operation.
type InsufficientDataError struct {
	Samples int
	Folds   int
	Reason  string
}

func (e *InsufficientDataError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("insufficient data: %s (n_samples=%d)", e.Reason, e.Samples)
	}
	return fmt.Sprintf("insufficient data: n_samples=%d, usable folds=%d", e.Samples, e.Folds)
}

func (e *InsufficientDataError) Is(target error) bool { return target == ErrInsufficientData }

// Validation is a shorthand constructor for *ValidationError.
func Validation(op, format string, args ...any) error {
	return &ValidationError{Op: op, Reason: fmt.Sprintf(format, args...)}
}

// Config is a shorthand constructor for *ConfigError.
func Config(key, format string, args ...any) error {
	return &ConfigError{Key: key, Reason: fmt.Sprintf(format, args...)}
}
