package handler

// RESPONSE HELPERS:
// These functions standardise how we send JSON responses and errors.
//
// CONSISTENT ERROR FORMAT:
// Every error response from our API has the same shape:
//   {"error": "not_found", "message": "Snippet not found."}
//
// Clients show "message" to the user verbatim, so it must never carry
// internal details (SQL, file paths, upstream errors).

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/snippet-vault/internal/apperror"
)

// maxBodyBytes bounds every JSON request body. Snippet code is capped at
// ~100KB by the service, so 1MB leaves room for the envelope.
const maxBodyBytes = 1 << 20

// ErrorResponse is the standard error format returned by all API endpoints.
type ErrorResponse struct {
	Error   string `json:"error"`   // Machine-readable error type (e.g., "not_found")
	Message string `json:"message"` // Human-readable description
}

// MessageResponse is the body of operations that only confirm success.
type MessageResponse struct {
	Message string `json:"message"`
}

// writeJSON sends a JSON response with the given status code.
//
// HEADER ORDER MATTERS:
// Headers and status must be set BEFORE the body is written; once Encode
// writes, header changes are silently ignored.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already sent, we can only log it.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// errorStatus is the single place an error kind becomes an HTTP status.
// ErrUnauthorized gets 401, which clients treat as a logout.
var errorStatus = map[error]struct {
	status int
	name   string
}{
	apperror.ErrValidation:   {http.StatusBadRequest, "validation_error"},
	apperror.ErrUnauthorized: {http.StatusUnauthorized, "unauthorized"},
	apperror.ErrForbidden:    {http.StatusForbidden, "forbidden"},
	apperror.ErrNotFound:     {http.StatusNotFound, "not_found"},
	apperror.ErrConflict:     {http.StatusConflict, "conflict"},
}

// writeError sends err in the standard error shape. Anything that is not an
// *apperror.AppError with a known kind becomes a 500 with a generic message,
// even when wrapped with fmt.Errorf("...: %w").
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		if mapped, ok := errorStatus[apperror.Kind(err)]; ok {
			writeJSON(w, mapped.status, ErrorResponse{Error: mapped.name, Message: appErr.Message})
			return
		}
	}

	// NEVER expose internal error details to the client.
	slog.Error("unhandled error", slog.String("error", err.Error()))
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_error",
		Message: "An internal error occurred",
	})
}

// decodeJSON reads a bounded JSON body into dst and runs struct validation on
// it. Any failure is returned as an apperror.ErrValidation error.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return apperror.ValidationFailed("", "invalid JSON body")
	}
	return validate(dst)
}
