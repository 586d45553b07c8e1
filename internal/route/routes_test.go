package route

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDynamicHTMLHandler(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>camera</h1>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "capture.html"), []byte("<h1>capture</h1>"), 0o644))

	h := dynamicHTMLHandler(dir)

	cases := map[string]struct {
		status int
		body   string
	}{
		"/":        {http.StatusOK, "<h1>camera</h1>"},
		"/capture": {http.StatusOK, "<h1>capture</h1>"},
		"/missing": {http.StatusNotFound, ""},
	}
	for path, want := range cases {
		rec := httptest.NewRecorder()
		h(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, want.status, rec.Code, path)
		if want.body != "" {
			assert.Equal(t, want.body, rec.Body.String(), path)
		}
	}
}
