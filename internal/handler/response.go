package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"webcapture/internal/dto"
	"webcapture/internal/logger"
	"webcapture/internal/service"
	"webcapture/internal/service/camera"
	"webcapture/internal/service/compositor"
	"webcapture/internal/service/location"
)

// writeJSON encodes v as the response body with the given status.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps err onto an HTTP status and a JSON error body.
func writeError(w http.ResponseWriter, logger *logger.Logger, err error) {
	status := statusFor(err)
	message := err.Error()
	var le *location.Error
	if errors.As(err, &le) {
		message = le.Message
	}
	if status >= http.StatusInternalServerError {
		logger.Error("Request failed (%d): %v", status, err)
	}
	writeJSON(w, status, dto.ErrorResponse{Error: http.StatusText(status), Message: message})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, camera.ErrCameraUnavailable),
		errors.Is(err, location.ErrPositionUnavailable),
		errors.Is(err, service.ErrShutdown):
		return http.StatusServiceUnavailable
	case errors.Is(err, camera.ErrPermissionDenied),
		errors.Is(err, location.ErrPermissionDenied):
		return http.StatusForbidden
	case errors.Is(err, camera.ErrDeviceBusy),
		errors.Is(err, camera.ErrNotOpen),
		errors.Is(err, compositor.ErrSourceNotReady),
		errors.Is(err, service.ErrFaceNotDetected),
		errors.Is(err, service.ErrNothingToRetake),
		errors.Is(err, service.ErrCategoryMismatch):
		return http.StatusConflict
	case errors.Is(err, location.ErrGeolocationUnsupported):
		return http.StatusNotImplemented
	case errors.Is(err, location.ErrTimeout),
		errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

// allowMethod answers 405 unless r uses method.
func allowMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method == method {
		return true
	}
	w.Header().Set("Allow", method)
	writeJSON(w, http.StatusMethodNotAllowed, dto.ErrorResponse{
		Error:   http.StatusText(http.StatusMethodNotAllowed),
		Message: "use " + method,
	})
	return false
}

func badRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: http.StatusText(http.StatusBadRequest), Message: message})
}
