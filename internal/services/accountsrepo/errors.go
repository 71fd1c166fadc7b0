package accountsrepo

import (
	"errors"
)

const (
	// ValidationError is returned when an account cannot be saved as given.
	ValidationError = constError("invalid account")
)

// IsValidationError checks if the error is a validation error.
func IsValidationError(err error) bool {
	return errors.Is(err, ValidationError)
}

type constError string

func (e constError) Error() string {
	return string(e)
}
