package handler

import (
	"encoding/json"
	"fmt"
	"image"
	"net/http"
	"webcapture/internal/dto"
	"webcapture/internal/logger"
	"webcapture/internal/model"
	"webcapture/internal/service"
	"webcapture/internal/service/compositor"
)

// CaptureHandler takes the photo with the overlay values the caller saw on screen.
func CaptureHandler(manager *service.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !allowMethod(w, r, http.MethodPost) {
			return
		}

		var req dto.CaptureRequest
		if r.ContentLength != 0 {
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				badRequest(w, "invalid JSON body")
				return
			}
		}

		if req.DisplayWidth < 0 || req.DisplayHeight < 0 ||
			req.DisplayWidth > compositor.MaxDisplaySide || req.DisplayHeight > compositor.MaxDisplaySide {
			badRequest(w, fmt.Sprintf("display size must be between 0 and %d pixels per side", compositor.MaxDisplaySide))
			return
		}

		var category model.CaptureCategory
		if req.Category != "" {
			c, err := model.ParseCaptureCategory(req.Category)
			if err != nil {
				badRequest(w, err.Error())
				return
			}
			category = c
		}

		overlay := model.OverlayContext{
			Location: req.Location,
			Date:     req.Date,
			Time:     req.Time,
			EndDate:  req.EndDate,
			Category: category,
		}
		artifact, err := manager.Capture(r.Context(), overlay, image.Pt(req.DisplayWidth, req.DisplayHeight))
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, dto.NewCaptureResponse(artifact))
	}
}

// CapturedHandler returns the locked photo as JSON, or its raw bytes with ?raw=1.
func CapturedHandler(manager *service.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !allowMethod(w, r, http.MethodGet) {
			return
		}

		artifact, ok := manager.Captured()
		if !ok {
			writeJSON(w, http.StatusNotFound, dto.ErrorResponse{
				Error:   http.StatusText(http.StatusNotFound),
				Message: "no photo captured",
			})
			return
		}

		if r.URL.Query().Get("raw") != "" {
			w.Header().Set("Content-Type", artifact.MimeType)
			w.Header().Set("Cache-Control", "no-cache")
			w.Write(artifact.Data)
			return
		}
		writeJSON(w, http.StatusOK, dto.NewCaptureResponse(artifact))
	}
}

// RetakeHandler discards the locked photo and reopens the camera.
func RetakeHandler(manager *service.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !allowMethod(w, r, http.MethodPost) {
			return
		}
		status, err := manager.Retake(r.Context())
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, status)
	}
}
