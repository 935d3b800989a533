// Package service holds the recipe catalog and meal-plan operations that sit
// between the HTTP handlers and the stores.
package service

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound means the referenced recipe or plan does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput means the request could not be accepted as given. No
	// write happens when an operation fails with it.
	ErrInvalidInput = errors.New("invalid input")
)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
