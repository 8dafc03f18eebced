package b2

import (
	"fmt"
	"time"
)

// RetryError is returned when a call chain exhausts its retry budget.
type RetryError struct {
	Operation string
	Attempts  int
	Reason    string
	Elapsed   time.Duration
}

// Error implements the error interface
func (e *RetryError) Error() string {
	return fmt.Sprintf("still failing (%s) after %d attempts (%d seconds), giving up %s",
		e.Reason, e.Attempts, int(e.Elapsed.Seconds()), e.Operation)
}

// ShutdownError is returned once an account has been permanently shut
// down; no further network calls are attempted for it.
type ShutdownError struct {
	AccountID string
}

// Error implements the error interface
func (e *ShutdownError) Error() string {
	return fmt.Sprintf("B2 account %s is shut down for the rest of this process", e.AccountID)
}

// APIError represents a B2 API error the client does not retry.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

// Error implements the error interface
func (e *APIError) Error() string {
	return fmt.Sprintf("b2 API error: status %d (%s): %s", e.StatusCode, e.Code, e.Message)
}

// IsNotFound checks if the error indicates a not found response
func (e *APIError) IsNotFound() bool {
	return e.StatusCode == 404
}

// IsUnauthorized checks if the error indicates an authentication failure
func (e *APIError) IsUnauthorized() bool {
	return e.StatusCode == 401 || e.StatusCode == 403
}
