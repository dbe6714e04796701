// Package shared contains common domain types, errors and events that are
// used across all domain packages. This package has zero external dependencies.
package shared

import (
	"errors"
	"fmt"
)

// Base domain errors that can be used for error checking with errors.Is().
var (
	// Entity errors
	ErrNotFound = errors.New("entity not found")

	// Validation errors
	ErrValidation      = errors.New("validation error")
	ErrEmptyValue      = errors.New("value cannot be empty")
	ErrValueOutOfRange = errors.New("value out of range")
	ErrInvalidFormat   = errors.New("invalid format")

	// State errors
	ErrInvalidState  = errors.New("invalid state")
	ErrNoneAvailable = errors.New("no candidate available")

	// External service errors
	ErrExternalService = errors.New("external service error")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "race", "athlete"
	Op      string // Operation that failed, e.g., "StartNext"
	Kind    error  // Base error type for errors.Is() checking
	Message string // Human-readable message
	Err     error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is implements errors.Is() matching.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// NewDomainError creates a new domain error.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
	}
}

// WrapError wraps an existing error with domain context.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// Race-day errors. These are operator errors, not faults: they are returned
// unmodified to the caller and the failed call leaves all state untouched.
var (
	// ErrNoCompetitorsOnCourse is returned by FinishNext and DidNotFinishNext
	// when nobody is ON_COURSE.
	ErrNoCompetitorsOnCourse = NewDomainError("race", "SelectOnCourse", ErrNoneAvailable, "no competitors are currently on course")

	// ErrNoPendingCompetitor is returned by StartNext when nobody is
	// NOT_STARTED.
	ErrNoPendingCompetitor = NewDomainError("race", "SelectNext", ErrNoneAvailable, "no competitors are waiting to start")
)

// Race domain errors
var (
	ErrRaceNotFound  = NewDomainError("race", "Find", ErrNotFound, "race not found")
	ErrInvalidStatus = NewDomainError("race", "ParseStatus", ErrInvalidFormat, "invalid competitor status")
	ErrEmptyRaceName = NewDomainError("race", "Validate", ErrEmptyValue, "race name cannot be empty")

	// ErrFinishBeforeStart rejects a finish time earlier than the start time
	// of the competitor it would apply to.
	ErrFinishBeforeStart = NewDomainError("race", "FinishNext", ErrValueOutOfRange, "finish time is before the start time")
)

// Athlete domain errors
var (
	ErrEmptyAthleteName = NewDomainError("athlete", "Validate", ErrEmptyValue, "athlete name cannot be empty")
	ErrInvalidGender    = NewDomainError("athlete", "ParseGender", ErrInvalidFormat, "invalid gender")
	ErrInvalidCategory  = NewDomainError("athlete", "ParseCategory", ErrInvalidFormat, "invalid category")
	ErrInvalidBirthYear = NewDomainError("athlete", "Validate", ErrValueOutOfRange, "invalid birth year")
)

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsNoneAvailable checks if the error means "nobody to act on": an empty
// start queue or nobody on course.
func IsNoneAvailable(err error) bool {
	return errors.Is(err, ErrNoneAvailable)
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrEmptyValue) ||
		errors.Is(err, ErrValueOutOfRange) ||
		errors.Is(err, ErrInvalidFormat)
}

// IsExternalService checks if the error is from an external service.
func IsExternalService(err error) bool {
	return errors.Is(err, ErrExternalService)
}
