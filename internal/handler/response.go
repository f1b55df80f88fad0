package handler

// Response helpers shared by every endpoint are kept in one place so the
// wire shapes stay consistent: successes are plain JSON bodies, failures
// are always {"detail": "..."} with a status from the error taxonomy.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/vizbox/internal/apperror"
)

// DetailResponse is the body of every non-2xx API response. The editor
// client parses exactly this shape, so the field name is part of the wire
// contract.
type DetailResponse struct {
	Detail string `json:"detail"`
}

// writeJSON sends a JSON response with the given status code. Headers and
// status must go out before the body; once Encode writes, they are fixed.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already sent; logging is all that's left.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError maps a domain error to its HTTP status and sends the detail
// body. The service layer returns taxonomy errors without knowing about
// HTTP; the translation to status codes happens only here.
//
// Internal faults are deliberately opaque: the cause is logged server-side
// and the client sees a generic message, never file paths or daemon state.
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		slog.Error("unclassified error reached the HTTP layer", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, DetailResponse{Detail: "An internal error occurred"})
		return
	}

	status := http.StatusInternalServerError
	detail := appErr.Message

	switch {
	case errors.Is(err, apperror.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, apperror.ErrTimeout):
		status = http.StatusRequestTimeout
	case errors.Is(err, apperror.ErrResourceLimit):
		// Capacity rejections and memory kills both land here: the client
		// can retry later, possibly with smaller input.
		status = http.StatusTooManyRequests
	case errors.Is(err, apperror.ErrRuntime), errors.Is(err, apperror.ErrNoOutput):
		// The request was well-formed; the submitted code is what failed.
		status = http.StatusUnprocessableEntity
	case errors.Is(err, apperror.ErrOutputTooLarge):
		status = http.StatusRequestEntityTooLarge
	default:
		slog.Error("internal error", slog.String("error", appErr.Message))
		detail = "An internal error occurred"
	}

	writeJSON(w, status, DetailResponse{Detail: detail})
}
