package store

import "fmt"

// StoreError represents an error from the store backend.
type StoreError struct {
	Backend   string // Driver name ("sqlite", "sqlite3")
	Operation string // Operation that failed ("open", "delete_chunk", etc.)
	Cause     error  // Underlying error
	Statement string // SQL statement being run, if known
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	return fmt.Sprintf("store error [backend=%s, operation=%s]: %v", e.Backend, e.Operation, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *StoreError) Unwrap() error {
	return e.Cause
}

// NewStoreError creates a new StoreError.
func NewStoreError(backend, operation string, cause error) *StoreError {
	return &StoreError{
		Backend:   backend,
		Operation: operation,
		Cause:     cause,
	}
}
