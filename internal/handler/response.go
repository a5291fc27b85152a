package handler

// RESPONSE HELPERS:
// These functions standardise how we send JSON responses and errors.
//
// The two services keep the response shapes the web client already parses:
//   list service:  {"message": "..."} plus, on 500, {"error": "<code>"}
//   proxy:         {"error": "..."}
//
// The "error" code on a 500 comes from apperror.Code: a stable taxonomy
// value like "store_failure". Raw driver / transport errors are logged, never
// sent to the client.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/prince-mali2/Filmpire-backend/internal/apperror"
)

// MessageResponse is the list service's error shape.
type MessageResponse struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// ErrorResponse is the proxy's error shape.
type ErrorResponse struct {
	Error string `json:"error"`
}

// writeJSON sends a JSON response with the given status code.
//
// HEADER ORDER MATTERS:
// Headers and status must be set BEFORE the body is written; once
// Encode writes, later header changes are silently ignored.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already sent; we can only log it.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, MessageResponse{Message: message})
}

// writeFailure sends a 500 with the human message and the taxonomy code of err.
func writeFailure(w http.ResponseWriter, message string, err error) {
	writeJSON(w, http.StatusInternalServerError, MessageResponse{
		Message: message,
		Error:   apperror.Code(err),
	})
}

// validationMessage extracts the client-facing text of a validation error.
func validationMessage(err error) string {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "invalid request"
}
