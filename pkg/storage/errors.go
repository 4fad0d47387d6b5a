package storage

import (
	"errors"
	"fmt"
)

// Common sentinel errors
var (
	ErrNotFound       = errors.New("catalog not found")
	ErrInvalidKey     = errors.New("invalid catalog key")
	ErrStoreClosed    = errors.New("store is closed")
	ErrUnknownBackend = errors.New("unknown storage backend")
)

// StorageError provides structured error information for storage operations.
type StorageError struct {
	Op      string // Operation that failed (e.g., "save", "load")
	Backend string // Backend name (e.g., "file", "s3")
	Key     string // Catalog key
	Cause   error  // Underlying error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("%s %s %q: %v", e.Backend, e.Op, e.Key, e.Cause)
	}
	return fmt.Sprintf("%s %s: %v", e.Backend, e.Op, e.Cause)
}

// Unwrap returns the underlying cause for error chain support.
func (e *StorageError) Unwrap() error {
	return e.Cause
}

func opError(backend, op, key string, cause error) error {
	if cause == nil {
		return nil
	}
	return &StorageError{Op: op, Backend: backend, Key: key, Cause: cause}
}

// IsNotFound reports whether err means the catalog does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
