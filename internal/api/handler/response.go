package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rahulyhg/trackbook/internal/core/service"
	"github.com/rahulyhg/trackbook/internal/logger"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("failed to encode response", logger.ErrorField(err))
	}
}

// writeError maps service errors onto HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrInvalidDeviceID), errors.Is(err, service.ErrInvalidTrackID):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrNotRecording), errors.Is(err, service.ErrTrackNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrAlreadyRecording):
		status = http.StatusConflict
	default:
		logger.Error("request failed", logger.ErrorField(err))
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
