package handler

import (
	"encoding/json"
	"net/http"
	"webcapture/internal/config"
	"webcapture/internal/dto"
	"webcapture/internal/logger"
	"webcapture/internal/model"
	"webcapture/internal/service"
)

// deviceClass classifies the caller by User-Agent.
func deviceClass(r *http.Request, cfg *config.Config) model.DeviceClass {
	return model.DeviceClassFromUserAgent(r.UserAgent(), model.DeviceClass(cfg.DefaultDevice))
}

// OpenSessionHandler opens (or reopens) the camera for the requested facing mode and category.
func OpenSessionHandler(manager *service.Manager, cfg *config.Config, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !allowMethod(w, r, http.MethodPost) {
			return
		}

		var req dto.OpenSessionRequest
		if r.ContentLength != 0 {
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				badRequest(w, "invalid JSON body")
				return
			}
		}
		facing, err := model.ParseFacingMode(req.FacingMode)
		if err != nil {
			badRequest(w, err.Error())
			return
		}
		category, err := model.ParseCaptureCategory(req.Category)
		if err != nil {
			badRequest(w, err.Error())
			return
		}

		status, err := manager.Open(r.Context(), facing, deviceClass(r, cfg), category)
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, status)
	}
}

// FlipSessionHandler switches between the front and rear camera.
func FlipSessionHandler(manager *service.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !allowMethod(w, r, http.MethodPost) {
			return
		}
		status, err := manager.Flip(r.Context())
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, status)
	}
}

// CloseSessionHandler stops the camera and detection.
func CloseSessionHandler(manager *service.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !allowMethod(w, r, http.MethodPost) {
			return
		}
		manager.Close()
		writeJSON(w, http.StatusOK, manager.Status())
	}
}

// SessionStatusHandler reports the current session state.
func SessionStatusHandler(manager *service.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !allowMethod(w, r, http.MethodGet) {
			return
		}
		writeJSON(w, http.StatusOK, manager.Status())
	}
}
