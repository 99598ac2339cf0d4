package storage

import (
	"errors"
	"fmt"
)

// Common storage errors
var (
	// ErrNotFound indicates the requested object or bucket was not found
	ErrNotFound = errors.New("storage: object not found")

	// ErrInvalidPath indicates an invalid bucket or object name was provided
	ErrInvalidPath = errors.New("storage: invalid path")

	// ErrInvalidRange indicates a byte range outside of the object
	ErrInvalidRange = errors.New("storage: invalid range")

	// ErrPartialContent indicates fewer bytes were retrieved than requested
	ErrPartialContent = errors.New("storage: partial content")
)

// Error represents a storage error with additional context
type Error struct {
	Op   string // Operation that failed
	Path string // Object involved in the operation
	Err  error  // Underlying error
}

// Error returns the string representation of the error
func (e *Error) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("storage: %s failed for %s: %v", e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("storage: %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a new storage error
func NewError(op string, path string, err error) error {
	return &Error{
		Op:   op,
		Path: path,
		Err:  err,
	}
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsPartialContent checks if an error is a short read error
func IsPartialContent(err error) bool {
	return errors.Is(err, ErrPartialContent)
}
