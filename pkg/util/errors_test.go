package util

import (
	"errors"
	"strings"
	"testing"
)

func TestAddressError(t *testing.T) {
	err := NewAddressError("parse", "300.1.1.1", ErrInvalidAddressFormat)

	msg := err.Error()
	if !strings.Contains(msg, "300.1.1.1") {
		t.Errorf("Error message should contain the input: %s", msg)
	}
	if !errors.Is(err, ErrInvalidAddressFormat) {
		t.Errorf("AddressError should unwrap to ErrInvalidAddressFormat")
	}

	// On-link errors carry no input text
	err = NewAddressError("prefix-length", "", ErrOnLinkUnsupported)
	if strings.Contains(err.Error(), `""`) {
		t.Errorf("Error message should omit empty input: %s", err.Error())
	}
	if !errors.Is(err, ErrOnLinkUnsupported) {
		t.Errorf("AddressError should unwrap to ErrOnLinkUnsupported")
	}
}

func TestEntryError(t *testing.T) {
	tests := []struct {
		name     string
		existing string
		sentinel error
	}{
		{"invalid interface", "", ErrInvalidOutputInterface},
		{"duplicate", "10.0.0.0/255.0.0.0 via 1.1.1.1 dev 1", ErrDuplicateEntryConflict},
		{"mismatch", "10.0.0.0/255.0.0.0 via 1.1.1.1 dev 1", ErrInterfaceNextHopMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewEntryError("11.0.0.0/255.0.0.0 via 2.2.2.2 dev 1", tt.existing, tt.sentinel)
			if !errors.Is(err, tt.sentinel) {
				t.Errorf("EntryError should unwrap to %v", tt.sentinel)
			}
			msg := err.Error()
			if tt.existing == "" && strings.Contains(msg, "existing") {
				t.Errorf("Error message should not mention existing entry: %s", msg)
			}
			if tt.existing != "" && !strings.Contains(msg, tt.existing) {
				t.Errorf("Error message should contain existing entry: %s", msg)
			}
		})
	}
}

func TestLookupError(t *testing.T) {
	err := &LookupError{Destination: "10.1.1.1"}
	if !errors.Is(err, ErrNoRouteToDestination) {
		t.Errorf("LookupError should unwrap to ErrNoRouteToDestination")
	}
	if !strings.HasPrefix(err.Error(), "10.1.1.1") {
		t.Errorf("Error message should start with destination: %s", err.Error())
	}
}

func TestValidationError(t *testing.T) {
	t.Run("single error", func(t *testing.T) {
		err := NewValidationError("field is required")
		msg := err.Error()
		if !strings.Contains(msg, "field is required") {
			t.Errorf("Error message should contain the error: %s", msg)
		}
		if !errors.Is(err, ErrValidationFailed) {
			t.Errorf("ValidationError should unwrap to ErrValidationFailed")
		}
	})

	t.Run("multiple errors", func(t *testing.T) {
		err := NewValidationError("field1 is required", "field2 is invalid", "field3 out of range")
		msg := err.Error()
		if !strings.Contains(msg, "field1") || !strings.Contains(msg, "field2") || !strings.Contains(msg, "field3") {
			t.Errorf("Error message should contain all errors: %s", msg)
		}
	})
}

func TestValidationBuilder(t *testing.T) {
	t.Run("no errors", func(t *testing.T) {
		v := &ValidationBuilder{}
		v.Add(true, "this should not appear")

		if v.HasErrors() {
			t.Error("Should not have errors when all conditions are true")
		}
		if err := v.Build(); err != nil {
			t.Errorf("Build() should return nil when no errors: %v", err)
		}
	})

	t.Run("accumulates", func(t *testing.T) {
		v := &ValidationBuilder{}
		v.Add(false, "route 0: missing destination")
		v.AddErrorf("route %d: bad interface %d", 3, -1)

		if !v.HasErrors() {
			t.Fatal("Should have errors")
		}
		err := v.Build()
		var ve *ValidationError
		if !errors.As(err, &ve) {
			t.Fatalf("Build() should return *ValidationError, got %T", err)
		}
		if len(ve.Errors) != 2 {
			t.Errorf("expected 2 errors, got %d", len(ve.Errors))
		}
		if !strings.Contains(err.Error(), "bad interface -1") {
			t.Errorf("formatted message missing: %s", err.Error())
		}
	})
}
