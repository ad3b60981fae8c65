package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"joke-browser/internal/jokeapi"
	"joke-browser/pkg/logger"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			logger.Error("Failed to encode JSON response", logger.Err(err))
		}
	}
}

func writeBadRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, ErrorResponse{
		Error:   "bad_request",
		Message: message,
	})
}

// writeError turns gateway failures into 502 with the gateway's message and
// anything else into an opaque 500.
func writeError(w http.ResponseWriter, err error) {
	var apiErr *jokeapi.Error
	if errors.As(err, &apiErr) {
		writeJSON(w, http.StatusBadGateway, ErrorResponse{
			Error:   "upstream_" + apiErr.Kind.String(),
			Message: apiErr.Message,
		})
		return
	}

	logger.Error("Request failed", logger.Err(err))
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_error",
		Message: "An internal error occurred",
	})
}
