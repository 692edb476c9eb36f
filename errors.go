package recordtrail

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation matches every *ValidationError.
	ErrValidation = errors.New("recordtrail: invalid input")
	// ErrStorage matches every *StorageError.
	ErrStorage = errors.New("recordtrail: storage failure")
	// ErrEmptyChange is returned when nothing changed and Config.EmptyChange is EmptyReject.
	ErrEmptyChange error = &ValidationError{Field: "values", Reason: "no attribute changed"}
)

// ValidationError reports input rejected before any transaction was started.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("recordtrail: invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// StorageError wraps a driver failure. A StorageError returned by Writer.Record
// means the transaction was rolled back and nothing was persisted.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("recordtrail: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func (e *StorageError) Is(target error) bool {
	return target == ErrStorage
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
