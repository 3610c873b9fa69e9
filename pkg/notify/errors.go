package notify

import "fmt"

// NotifyError is returned when the notification service rejects a request
// or cannot be reached.
type NotifyError struct {
	// StatusCode is the HTTP status code (0 if no response was received)
	StatusCode int

	// Message is the response body or a short description
	Message string

	// Cause is the underlying error (if any)
	Cause error
}

// Error implements the error interface.
func (e *NotifyError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("notify error (status %d): %s", e.StatusCode, e.Message)
	}
	if e.Cause != nil {
		return fmt.Sprintf("notify error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("notify error: %s", e.Message)
}

// Unwrap returns the underlying error for error chain support.
func (e *NotifyError) Unwrap() error {
	return e.Cause
}

// Retryable reports whether a later attempt may succeed.
func (e *NotifyError) Retryable() bool {
	return e.StatusCode == 0 || e.StatusCode >= 500
}
