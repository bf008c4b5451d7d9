package service

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks user-correctable input defects. Never retried.
	ErrValidation = errors.New("validation failed")
	// ErrConflict marks uniqueness violations and lost mutation races.
	ErrConflict = errors.New("conflict")
	// ErrNotFound marks a missing record addressed by id.
	ErrNotFound = errors.New("not found")

	// ErrAmbiguousPattern and ErrConflictingSlotState are data-consistency
	// defects detected during resolution. They are never patched by guessing
	// which source wins; callers surface them as a generic failure.
	ErrAmbiguousPattern     = errors.New("ambiguous schedule pattern")
	ErrConflictingSlotState = errors.New("conflicting slot state")
)

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func conflictf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConflict, fmt.Sprintf(format, args...))
}
