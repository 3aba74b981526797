package errors

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput indicates invalid input parameters
	ErrInvalidInput = errors.New("invalid input")

	// ErrSourceUnavailable indicates an upstream source could not be reached
	// or answered with a non-success status
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrRateLimited indicates the upstream source throttled the request
	ErrRateLimited = errors.New("rate limited")

	// ErrParse indicates an upstream payload could not be decoded
	ErrParse = errors.New("parse failure")

	// ErrNotFound indicates a resource was not found
	ErrNotFound = errors.New("resource not found")
)

// Wrap wraps an error with a message
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with a formatted message
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is checks if err is or wraps target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// New creates a plain error
func New(text string) error {
	return errors.New(text)
}

// MultiError collects independent failures, such as one per keyword search.
type MultiError struct {
	Errors []error
}

func (m *MultiError) Error() string {
	if len(m.Errors) == 0 {
		return "no errors"
	}
	if len(m.Errors) == 1 {
		return m.Errors[0].Error()
	}
	return fmt.Sprintf("multiple errors (%d): %v", len(m.Errors), m.Errors[0])
}

// Add adds an error to the list
func (m *MultiError) Add(err error) {
	if err != nil {
		m.Errors = append(m.Errors, err)
	}
}

// HasErrors returns true if there are any errors
func (m *MultiError) HasErrors() bool {
	return len(m.Errors) > 0
}

// ToError returns the MultiError as an error, or nil if no errors
func (m *MultiError) ToError() error {
	if !m.HasErrors() {
		return nil
	}
	return m
}

// Unwrap exposes the collected errors to errors.Is / errors.As.
func (m *MultiError) Unwrap() []error {
	return m.Errors
}
