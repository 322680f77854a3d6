package tournament

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation covers malformed submissions and requests made in the wrong state.
	ErrValidation = errors.New("validation failed")
	// ErrConflict is returned when earlier matches are still unresolved.
	ErrConflict = errors.New("conflict")
	ErrNotFound = errors.New("not found")
	// ErrInvariant means generation or advancement produced an impossible structure.
	ErrInvariant = errors.New("internal invariant violated")
)

func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func Conflictf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConflict, fmt.Sprintf(format, args...))
}

func NotFoundf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

func Invariantf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvariant, fmt.Sprintf(format, args...))
}
