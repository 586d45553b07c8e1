package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"webcapture/internal/logger"

	"github.com/stretchr/testify/assert"
)

func TestLoggingMiddleware(t *testing.T) {
	var buf bytes.Buffer
	h := LoggingMiddleware(logger.NewWriterLogger(&buf), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/capture" {
			w.WriteHeader(http.StatusConflict)
		}
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/session", nil))
	assert.Contains(t, buf.String(), "INFO")
	assert.Contains(t, buf.String(), "GET /api/session -> 200")

	buf.Reset()
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/capture", nil))
	assert.Contains(t, buf.String(), "WARNING")
	assert.Contains(t, buf.String(), "POST /api/capture -> 409")

	buf.Reset()
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/index.css", nil))
	assert.Empty(t, buf.String())
}
