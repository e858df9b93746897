package bitwire

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for programmatic error handling.
// Use errors.Is() to check for these error types.
var (
	// ErrDuplicateField indicates the bits field appeared more than once.
	ErrDuplicateField = errors.New("duplicate field")

	// ErrUnknownField indicates a field other than bits was present.
	ErrUnknownField = errors.New("unknown field")

	// ErrMissingField indicates the record ended without a bits field.
	ErrMissingField = errors.New("missing field")

	// ErrInvalidType indicates the input was not a record.
	ErrInvalidType = errors.New("invalid type")
)

// FieldError represents a structural violation of the wire record.
// It wraps a sentinel error with the offending field name.
type FieldError struct {
	Err      error    // Underlying sentinel error (ErrDuplicateField, etc.)
	Field    string   // Field name that triggered the error
	Expected []string // Recognized field names, set for ErrUnknownField
}

func (e *FieldError) Error() string {
	if errors.Is(e.Err, ErrUnknownField) {
		return fmt.Sprintf("%s %q, %s", e.Err.Error(), e.Field, expectedFields(e.Expected))
	}
	return fmt.Sprintf("%s %q", e.Err.Error(), e.Field)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// TypeError represents input of the wrong shape, such as a number or a list
// where a record was required.
type TypeError struct {
	Found    string // Description of what the input contained
	Expected string // Description of the accepted input
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("%s: %s, expected %s", ErrInvalidType.Error(), e.Found, e.Expected)
}

func (e *TypeError) Unwrap() error {
	return ErrInvalidType
}

// expectedFields renders the list of recognized fields.
func expectedFields(fields []string) string {
	switch len(fields) {
	case 0:
		return "there are no fields"
	case 1:
		return fmt.Sprintf("expected %q", fields[0])
	}
	quoted := make([]string, len(fields))
	for i, f := range fields {
		quoted[i] = fmt.Sprintf("%q", f)
	}
	return "expected one of " + strings.Join(quoted, ", ")
}

// newDuplicateField creates a FieldError for a repeated field.
func newDuplicateField(field string) error {
	return &FieldError{Err: ErrDuplicateField, Field: field}
}

// newUnknownField creates a FieldError for an unrecognized field.
func newUnknownField(field string, expected []string) error {
	return &FieldError{Err: ErrUnknownField, Field: field, Expected: expected}
}

// newMissingField creates a FieldError for an absent required field.
func newMissingField(field string) error {
	return &FieldError{Err: ErrMissingField, Field: field}
}
