// Package apperror defines the error kinds shared by the service layer and the
// HTTP handlers.
//
// Every failure the API can report falls into one of five kinds. Services
// return an *AppError carrying one of the sentinel errors below plus a message
// that is safe to show to the user verbatim. Handlers map the sentinel to an
// HTTP status in exactly one place (handler.writeError).
package apperror

import "errors"

// Kinds. Compare with errors.Is, never with ==, since callers wrap.
var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation error")
	ErrConflict     = errors.New("conflict")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
)

// AppError pairs a kind with the text a client displays.
type AppError struct {
	Err     error
	Message string
	// Field names the offending input for validation and conflict errors.
	Field string
}

func (e *AppError) Error() string { return e.Message }

func (e *AppError) Unwrap() error { return e.Err }

// Kind returns the sentinel behind err, or nil when err carries no AppError.
func Kind(err error) error {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Err
	}
	return nil
}

func newError(kind error, field, message string) *AppError {
	return &AppError{Err: kind, Message: message, Field: field}
}

// NotFound reports a missing resource, e.g. "Snippet not found.".
func NotFound(message string) *AppError {
	return newError(ErrNotFound, "", message)
}

func ValidationFailed(field, message string) *AppError {
	return newError(ErrValidation, field, message)
}

// Conflict reports a uniqueness violation on field (username, email).
func Conflict(field, message string) *AppError {
	return newError(ErrConflict, field, message)
}

// Forbidden means the caller is signed in but is not the owner of record.
func Forbidden(message string) *AppError {
	return newError(ErrForbidden, "", message)
}

// Unauthorized reports missing or bad credentials. Clients treat the
// resulting 401 as an implicit logout.
func Unauthorized(message string) *AppError {
	return newError(ErrUnauthorized, "", message)
}
