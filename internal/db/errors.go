package db

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when an id does not resolve.
	ErrNotFound = errors.New("not found")
	// ErrForbidden is returned when the caller may not modify a record.
	ErrForbidden = errors.New("forbidden")
)

// ValidationError reports a missing or invalid input field.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// StorageError wraps an I/O failure while persisting a document.
type StorageError struct {
	Op   string
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
