// Package util provides logging, shared error types and small parsing helpers.
package util

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors. Callers match them with errors.Is; the typed errors below
// unwrap to one of these.
var (
	ErrInvalidAddressFormat     = errors.New("invalid IP address format")
	ErrOnLinkUnsupported        = errors.New(`operation not valid on "On-link"`)
	ErrInvalidOutputInterface   = errors.New("output interface must be a non-negative integer")
	ErrDuplicateEntryConflict   = errors.New("an entry already exists for the given destination and mask with a different interface or next hop")
	ErrInterfaceNextHopMismatch = errors.New("an interface already exists with a different next hop")
	ErrNoRouteToDestination     = errors.New("no route to destination and no default gateway configured")
	ErrForwardingChanged        = errors.New("forwarding behavior changed")
	ErrValidationFailed         = errors.New("validation failed")
)

// AddressError reports a value that could not be parsed or an operation that
// is not defined for it.
type AddressError struct {
	Op    string
	Input string
	Err   error
}

func (e *AddressError) Error() string {
	if e.Input == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %q: %v", e.Op, e.Input, e.Err)
}

func (e *AddressError) Unwrap() error {
	return e.Err
}

// NewAddressError creates an address error
func NewAddressError(op, input string, err error) *AddressError {
	return &AddressError{Op: op, Input: input, Err: err}
}

// EntryError represents a rejected routing-table insert with the entry that
// caused the rejection and, if any, the existing entry it clashed with.
type EntryError struct {
	Entry    string
	Existing string
	Err      error
}

func (e *EntryError) Error() string {
	msg := fmt.Sprintf("cannot add %s: %v", e.Entry, e.Err)
	if e.Existing != "" {
		msg += " (existing: " + e.Existing + ")"
	}
	return msg
}

func (e *EntryError) Unwrap() error {
	return e.Err
}

// NewEntryError creates an entry error
func NewEntryError(entry, existing string, err error) *EntryError {
	return &EntryError{Entry: entry, Existing: existing, Err: err}
}

// LookupError reports a destination that no entry covers.
type LookupError struct {
	Destination string
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("%s: %v", e.Destination, ErrNoRouteToDestination)
}

func (e *LookupError) Unwrap() error {
	return ErrNoRouteToDestination
}

// ValidationError represents one or more validation failures
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return "validation failed: " + e.Errors[0]
	}
	return fmt.Sprintf("validation failed:\n  - %s", strings.Join(e.Errors, "\n  - "))
}

func (e *ValidationError) Unwrap() error {
	return ErrValidationFailed
}

// NewValidationError creates a validation error from messages
func NewValidationError(messages ...string) *ValidationError {
	return &ValidationError{Errors: messages}
}

// ValidationBuilder helps accumulate validation errors
type ValidationBuilder struct {
	errors []string
}

// Add adds an error message if condition is false
func (v *ValidationBuilder) Add(condition bool, message string) *ValidationBuilder {
	if !condition {
		v.errors = append(v.errors, message)
	}
	return v
}

// AddErrorf adds a formatted error message
func (v *ValidationBuilder) AddErrorf(format string, args ...interface{}) *ValidationBuilder {
	v.errors = append(v.errors, fmt.Sprintf(format, args...))
	return v
}

// HasErrors returns true if there are validation errors
func (v *ValidationBuilder) HasErrors() bool {
	return len(v.errors) > 0
}

// Build returns the validation error or nil if no errors
func (v *ValidationBuilder) Build() error {
	if len(v.errors) == 0 {
		return nil
	}
	return &ValidationError{Errors: v.errors}
}
