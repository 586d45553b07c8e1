package handler

import (
	"net/http"
	"webcapture/internal/config"
	"webcapture/internal/logger"
	"webcapture/internal/service"
)

// LocationHandler resolves the device position and address. ?cached=1
// returns the last result without a new lookup.
func LocationHandler(manager *service.Manager, cfg *config.Config, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !allowMethod(w, r, http.MethodGet) {
			return
		}

		if r.URL.Query().Get("cached") != "" {
			if last, ok := manager.LastLocation(); ok {
				writeJSON(w, http.StatusOK, last)
				return
			}
		}

		result, err := manager.Resolve(r.Context(), deviceClass(r, cfg))
		if err != nil {
			logger.Warning("Location request failed: %v", err)
			writeError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}
