package transparencia

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors. Use errors.Is() to check.
var (
	// ErrNotFound matches a ValidationError: the search had no results or
	// the filter matched no option.
	ErrNotFound = errors.New("transparencia: not found")
	// ErrUnauthorized matches an APIError with status 401.
	ErrUnauthorized = errors.New("transparencia: unauthorized")
)

// ValidationError is a collection the service answered without data.
// Message is the service text, in Portuguese.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return "transparencia: " + e.Message }

func (e *ValidationError) Unwrap() error { return ErrNotFound }

// APIError is a non-2xx answer.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("transparencia: status %d: %s", e.StatusCode, e.Message)
}

// Is reports ErrUnauthorized for 401 answers.
func (e *APIError) Is(target error) bool {
	return target == ErrUnauthorized && e.StatusCode == http.StatusUnauthorized
}
