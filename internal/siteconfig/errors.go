package siteconfig

import (
	"errors"
	"fmt"
	"strings"
)

// Config errors. All of them are recoverable by the caller and are meant to
// be rendered as inline field errors.
var (
	// ErrUnknownField is returned when an update targets a path that does not exist.
	ErrUnknownField = errors.New("unknown field")
	// ErrInvalidValue is returned when a value cannot be stored at a path.
	ErrInvalidValue = errors.New("invalid value")
	// ErrValidationFailed is returned when a config is not ready to deploy.
	ErrValidationFailed = errors.New("validation failed")
)

// FieldError describes a rejected update.
type FieldError struct {
	Path   string
	Reason string
	Err    error
}

func (e *FieldError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("%s: %v: %s", e.Path, e.Err, e.Reason)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

func unknownField(path string) error {
	return &FieldError{Path: path, Err: ErrUnknownField}
}

func invalidValue(path, reason string) error {
	return &FieldError{Path: path, Reason: reason, Err: ErrInvalidValue}
}

// ValidationError lists the fields that must be filled before deployment.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%v: missing %s", ErrValidationFailed, strings.Join(e.Missing, ", "))
}

func (e *ValidationError) Unwrap() error {
	return ErrValidationFailed
}
