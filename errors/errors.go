package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// Connection state machine violations.
	ErrInvalidRole      = fmt.Errorf("acting party has the wrong role for this transition")
	ErrAlreadyRequested = fmt.Errorf("a pending request already exists for this pair")
	ErrAlreadyConnected = fmt.Errorf("an accepted connection already exists for this pair")
	ErrNotFound         = fmt.Errorf("no matching connection record")
	ErrForbidden        = fmt.Errorf("acting party may not perform this transition")

	// Messaging violations.
	ErrUnauthorized = fmt.Errorf("not connected with this user")
	ErrEmptyMessage = fmt.Errorf("message requires a body or an attachment")

	ErrUnsupportedAttachment = fmt.Errorf("attachment type is not allowed")

	// Account errors.
	ErrUserAlreadyExists  = fmt.Errorf("user already exists")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")
	ErrInvalidPassword    = fmt.Errorf("password does not meet complexity rules")
	ErrTokenGeneration    = fmt.Errorf("token generation failed")

	// ErrStorage wraps I/O failures from the backing store.
	// Callers may retry at their discretion; nothing here retries.
	ErrStorage = fmt.Errorf("storage failure")

	ErrWorkerPanic = fmt.Errorf("worker panic")
)

// MapToStatusCode translates domain errors to HTTP status codes.
// ErrUnauthorized intentionally maps to 403 without distinguishing
// whether a pending request exists, so that a stranger cannot probe
// relationship state.
func MapToStatusCode(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, ErrForbidden),
		errors.Is(err, ErrInvalidRole),
		errors.Is(err, ErrInvalidCredentials):
		return http.StatusForbidden
	case errors.Is(err, ErrAlreadyRequested),
		errors.Is(err, ErrAlreadyConnected),
		errors.Is(err, ErrEmptyMessage),
		errors.Is(err, ErrUnsupportedAttachment),
		errors.Is(err, ErrUserAlreadyExists),
		errors.Is(err, ErrInvalidPassword):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
