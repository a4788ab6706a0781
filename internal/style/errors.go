package style

import (
	"errors"
	"fmt"
)

// ErrInvalidInput is returned when bucket data or style configuration is malformed.
var ErrInvalidInput = errors.New("invalid input")

// InputError describes which field of the input was rejected and why.
// It unwraps to ErrInvalidInput.
type InputError struct {
	Field  string
	Reason string
}

func invalid(field, format string, args ...any) error {
	return &InputError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// Error returns "field: reason".
func (e *InputError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", ErrInvalidInput, e.Reason)
	}
	return fmt.Sprintf("%s: %s: %s", ErrInvalidInput, e.Field, e.Reason)
}

// Unwrap returns ErrInvalidInput.
func (e *InputError) Unwrap() error { return ErrInvalidInput }

// IsInvalidInput reports whether err was caused by malformed input.
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}
