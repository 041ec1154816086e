package taskstore

import (
	"errors"
	"fmt"
)

// Sentinel errors for task store operations.
var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("task not found")
	ErrSave       = errors.New("save failed")
)

// SaveError reports a persistence failure after an in-memory mutation was applied.
// The mutation is kept; the caller may retry by issuing another mutation or Close.
type SaveError struct {
	Op  string
	Err error
}

func (e *SaveError) Error() string {
	return fmt.Sprintf("%s: save tasks: %v", e.Op, e.Err)
}

func (e *SaveError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrSave) match any SaveError.
func (e *SaveError) Is(target error) bool { return target == ErrSave }

func validationf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func notFound(id int64) error {
	return fmt.Errorf("%w: id %d", ErrNotFound, id)
}
