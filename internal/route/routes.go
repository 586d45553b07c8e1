package route

import (
	"net/http"
	"os"
	"path/filepath"
	"webcapture/internal/config"
	"webcapture/internal/handler"
	"webcapture/internal/logger"
	"webcapture/internal/middleware"
	"webcapture/internal/service"
	"webcapture/internal/service/websocket"
)

// logFiles maps /logs/{name} to the level file.
var logFiles = map[string]string{
	"info":    logger.InfoFile,
	"warning": logger.WarningFile,
	"error":   logger.ErrorFile,
}

// dynamicHTMLHandler serves /path as <static>/path.html if the file exists; otherwise 404.
func dynamicHTMLHandler(staticDir string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path

		if path == "/" {
			path = "/index"
		}

		filePath := filepath.Join(staticDir, filepath.Clean("/"+path)+".html")

		if _, err := os.Stat(filePath); os.IsNotExist(err) {
			http.NotFound(w, r)
			return
		}

		http.ServeFile(w, r, filePath)
	}
}

// SetupRoutes registers the static files, the capture API, the presence
// feed and the log pages, and wraps the mux with request logging.
func SetupRoutes(manager *service.Manager, hub *websocket.HubService, cfg *config.Config, logger *logger.Logger) http.Handler {
	mux := http.NewServeMux()

	// Static files
	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.Dir(cfg.StaticDir))))

	// Camera session
	mux.HandleFunc("/api/session", handler.SessionStatusHandler(manager))
	mux.HandleFunc("/api/session/open", handler.OpenSessionHandler(manager, cfg, logger))
	mux.HandleFunc("/api/session/flip", handler.FlipSessionHandler(manager, logger))
	mux.HandleFunc("/api/session/close", handler.CloseSessionHandler(manager))

	// Capture
	capture := handler.CaptureHandler(manager, logger)
	captured := handler.CapturedHandler(manager)
	mux.HandleFunc("/api/capture", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			captured(w, r)
			return
		}
		capture(w, r)
	})
	mux.HandleFunc("/api/capture/retake", handler.RetakeHandler(manager, logger))

	// Location and presence
	mux.HandleFunc("/api/location", handler.LocationHandler(manager, cfg, logger))
	mux.HandleFunc("/api/presence", handler.PresenceWebsocketHandler(hub, logger))

	// Log endpoints
	for name, file := range logFiles {
		mux.HandleFunc("/logs/"+name, handler.ShowLogsHandler(logger, file))
		mux.HandleFunc("/logs/"+name+"/clear", handler.ClearLogsHandler(logger, file))
	}

	// Automatic HTML handler mapping for example: /settings -> <static>/settings.html
	mux.HandleFunc("/", dynamicHTMLHandler(cfg.StaticDir))

	return middleware.LoggingMiddleware(logger, mux)
}
