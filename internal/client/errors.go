// ABOUTME: Error taxonomy for API calls
// ABOUTME: Sentinels for errors.Is plus typed errors carrying status and cause

package client

import (
	"errors"
	"fmt"
	"net/http"
)

// Error classes. Match them with errors.Is; use errors.As with *APIError or
// *NetworkError for the details.
var (
	ErrValidation     = errors.New("invalid input")
	ErrAuthentication = errors.New("authentication failed")
	ErrUnauthorized   = errors.New("session expired or invalid")
	ErrForbidden      = errors.New("access denied")
	ErrNotFound       = errors.New("not found")
	ErrConflict       = errors.New("already exists")
	ErrTransient      = errors.New("backend unreachable")
	ErrTimeout        = errors.New("request timed out")
)

// APIError is a non-2xx response from the backend
type APIError struct {
	Status  int
	Message string
	Method  string
	Path    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend returned status %d", e.Status)
	}
	return fmt.Sprintf("backend error: %s", e.Message)
}

// Is maps the HTTP status onto the error classes
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized
	case ErrForbidden:
		return e.Status == http.StatusForbidden
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	case ErrConflict:
		return e.Status == http.StatusConflict
	case ErrValidation:
		return e.Status == http.StatusUnprocessableEntity
	}
	return false
}

// NetworkError is a request that never produced a response
type NetworkError struct {
	BaseURL  string
	Timeout  bool
	Canceled bool
	Err      error
}

func (e *NetworkError) Error() string {
	switch {
	case e.Canceled:
		return "request canceled"
	case e.Timeout:
		return "request timed out"
	default:
		return fmt.Sprintf("cannot connect to backend at %s: %v", e.BaseURL, e.Err)
	}
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

func (e *NetworkError) Is(target error) bool {
	switch target {
	case ErrTransient:
		return !e.Canceled
	case ErrTimeout:
		return e.Timeout
	}
	return false
}

// ValidationError is input rejected before any request was sent
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// StatusCode returns the HTTP status behind err, or 0
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}
