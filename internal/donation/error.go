package donation

import "errors"

var ErrInvalidForm = errors.New("invalid payment form")

// ValidationError carries the per-field messages of a rejected form.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return FirstError(e.Fields)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidForm
}
