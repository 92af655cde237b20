package handler

// RESPONSE HELPERS:
// Every handler answers through writeJSON or writeError so the API has one
// content type and one error shape.
//
// CONSISTENT ERROR FORMAT:
//
//	{"detail": "You already liked this track."}
//	{"detail": "This field is required.", "field": "tags"}
//
// "field" is present only when one input field is to blame.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/vocalcollab/internal/apperror"
)

// ErrorResponse is the standard error format returned by all API endpoints.
type ErrorResponse struct {
	Detail string `json:"detail"`
	Field  string `json:"field,omitempty"`
}

// DetailResponse is a plain success message.
type DetailResponse struct {
	Detail string `json:"detail"`
}

// writeJSON sends a JSON response with the given status code.
//
// HEADER ORDER MATTERS:
// Headers and status must be set BEFORE the body; once Encode writes, the
// headers are on the wire and later changes are silently ignored.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already sent; all we can do is log.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// statusFor maps a domain error to its HTTP status.
//
// WHY HERE AND NOT IN THE SERVICE?
// Services return apperror sentinels and know nothing about HTTP. The CLI
// reports the very same errors as plain text.
//
// Conflicts (duplicate like, taken username) are answered with 400, not
// 409, because clients of this API treat them as ordinary form errors.
func statusFor(err error) int {
	switch {
	case errors.Is(err, apperror.ErrValidation),
		errors.Is(err, apperror.ErrConflict),
		errors.Is(err, apperror.ErrInvalidOperation):
		return http.StatusBadRequest
	case errors.Is(err, apperror.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperror.ErrUnauthorized):
		return http.StatusUnauthorized
	}
	return http.StatusInternalServerError
}

// writeError maps err to a status code and sends the error envelope.
//
// errors.As walks the wrap chain, so
//
//	fmt.Errorf("liking track 3: %w", apperror.Conflict(...))
//
// still yields the AppError and its user-facing message.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var appErr *apperror.AppError
	status := statusFor(err)

	if status != http.StatusInternalServerError && errors.As(err, &appErr) {
		writeJSON(w, status, ErrorResponse{
			Detail: appErr.Message,
			Field:  appErr.Field,
		})
		return
	}

	// Unknown error: log it in full, tell the client nothing. Raw messages
	// can contain SQL, file paths or bucket names.
	logger.Error("request failed", slog.String("error", err.Error()))
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{
		Detail: "An internal error occurred",
	})
}

// NotFound answers unmatched routes in the same envelope as every other
// error, instead of chi's plain-text default.
func NotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, ErrorResponse{Detail: "Not found."})
}

// MethodNotAllowed answers a known path requested with the wrong verb.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusMethodNotAllowed, ErrorResponse{
		Detail: `Method "` + r.Method + `" not allowed.`,
	})
}
