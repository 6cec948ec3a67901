package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

type errorResponse struct {
	Error string `json:"error"`
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// Error writes a JSON error body. The message is user-facing; internal
// detail stays in the logs.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, errorResponse{Error: message})
}

// BadRequest is the common validation-failure response.
func BadRequest(w http.ResponseWriter, err error) {
	Error(w, http.StatusBadRequest, err.Error())
}

// ServerError logs the underlying error and returns a generic message.
func ServerError(w http.ResponseWriter, err error) {
	slog.Error("request failed", "error", err)
	Error(w, http.StatusInternalServerError, "something went wrong")
}
