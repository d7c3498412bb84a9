package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a record does not exist in the store of record.
	ErrNotFound = errors.New("not found")

	// ErrInvalidID is returned when an identifier is not a valid object id.
	ErrInvalidID = errors.New("invalid ID format")

	// ErrInvalidInput is returned when a request fails validation.
	ErrInvalidInput = errors.New("invalid input")

	// ErrMissingAPIKey is returned when an upstream provider has no API key configured.
	ErrMissingAPIKey = errors.New("missing API key")

	// ErrInvalidResponse is returned when an upstream call succeeded but its payload is unusable.
	ErrInvalidResponse = errors.New("invalid response")

	// ErrPolicyDenied is returned when the model policy blocks a request.
	ErrPolicyDenied = errors.New("request denied by model policy")
)

// APIError is returned when an upstream API rejected or failed a request.
type APIError struct {
	StatusCode int
	Message    string
	// Retryable is set for timeouts and transport failures.
	Retryable bool
}

func (e *APIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("API error [%d]: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("API error: %s", e.Message)
}

// InvalidResponse wraps ErrInvalidResponse with a reason.
func InvalidResponse(reason string) error {
	return fmt.Errorf("%w: %s", ErrInvalidResponse, reason)
}

// Invalid wraps ErrInvalidInput with a message.
func Invalid(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, msg)
}
