package core

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned when a resource does not exist or belongs to a
// different user. Ownership mismatches deliberately look identical to
// missing rows so the API never confirms another user's data exists.
var ErrNotFound = errors.New("not found")

// ValidationError reports malformed input. Code is machine-readable and
// stable; Message is for humans. Validators return these directly so every
// failure path is visible in the signature.
type ValidationError struct {
	Field   string
	Code    string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// ValidationErrors bundles every field failure from a single input.
type ValidationErrors []*ValidationError

func (e ValidationErrors) Error() string {
	parts := make([]string, len(e))
	for i, v := range e {
		parts[i] = v.Error()
	}
	return strings.Join(parts, "; ")
}

// InvalidAddressError means an address was empty or could not be resolved
// by the geocoding provider. Client-correctable.
type InvalidAddressError struct {
	Message string
}

func (e *InvalidAddressError) Error() string { return e.Message }

// ExternalServiceError wraps any failure of the distance provider: transport
// errors, timeouts, non-OK statuses, missing route. No raw provider error
// crosses this boundary unwrapped.
type ExternalServiceError struct {
	Message string
	Err     error
}

func (e *ExternalServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExternalServiceError) Unwrap() error { return e.Err }

// ConflictError is returned when a report already exists for the requested
// period. It carries the existing report so the caller can return a
// conflict-with-payload response.
type ConflictError struct {
	Existing MonthlyReport
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("report for %d/%02d already exists", e.Existing.Year, e.Existing.Month)
}

// InsufficientDataError means an operation has nothing to work on, e.g.
// generating a report for a month with zero trips. A client error, not a
// server fault.
type InsufficientDataError struct {
	Message string
}

func (e *InsufficientDataError) Error() string { return e.Message }
