package middleware

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"
	"webcapture/internal/logger"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Hijack lets the presence WebSocket upgrade through the recorder.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	return h.Hijack()
}

// LoggingMiddleware logs every /api request with its status and duration.
// Failed requests go to the warning log; static files and log pages are not logged.
func LoggingMiddleware(logger *logger.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/api/") {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		elapsed := time.Since(start).Round(time.Millisecond)
		if rec.status >= http.StatusBadRequest {
			logger.Warning("%s %s -> %d (%v)", r.Method, r.URL.Path, rec.status, elapsed)
			return
		}
		logger.Info("%s %s -> %d (%v)", r.Method, r.URL.Path, rec.status, elapsed)
	})
}
