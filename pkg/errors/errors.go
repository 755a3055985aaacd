package errors

import (
	"errors"
	"net/http"
)

// APIError is an error reported by the devTinder backend, carrying the HTTP
// status the server answered with and its error message.
type APIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return e.Message
}

// NewAPIError creates a new APIError
func NewAPIError(code int, message string) *APIError {
	return &APIError{
		Code:    code,
		Message: message,
	}
}

// IsAuth reports whether err is an authentication/session failure. These are
// surfaced as login failures; the session stays logged out.
func IsAuth(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusUnauthorized || apiErr.Code == http.StatusForbidden
	}
	return false
}

// IsTransient reports whether err is worth retrying by the user: a network
// failure or a server-side 5xx. Transient failures roll the operation back to
// its pre-attempt state and show a toast; there is no automatic retry.
func IsTransient(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code >= http.StatusInternalServerError
	}
	// Anything that never produced a server response (dial, timeout) counts.
	return err != nil
}

// IsValidation reports whether the server rejected the request payload.
func IsValidation(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusBadRequest
	}
	return false
}
