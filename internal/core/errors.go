package core

import (
	"errors"
	"fmt"
)

// Error taxonomy shared by every layer. Callers wrap these with fmt.Errorf("...: %w")
// and test with errors.Is.
var (
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("conflict")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrPreconditionFailed = errors.New("precondition failed")
	ErrStoreFailure       = errors.New("store failure")

	ErrNoFieldsProvided = fmt.Errorf("%w: no fields provided", ErrInvalidArgument)
	ErrInvalidAmount    = fmt.Errorf("%w: amount must be positive", ErrInvalidArgument)
	ErrInvalidDate      = fmt.Errorf("%w: invalid date", ErrInvalidArgument)
	ErrEmptyName        = fmt.Errorf("%w: empty name", ErrInvalidArgument)
	ErrEmptyCategory    = fmt.Errorf("%w: empty category", ErrInvalidArgument)
	ErrInvalidRange     = fmt.Errorf("%w: start date after end date", ErrInvalidArgument)
)

// Invalidf returns an ErrInvalidArgument carrying a formatted detail.
func Invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

// NotFoundf returns an ErrNotFound carrying a formatted detail.
func NotFoundf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}
