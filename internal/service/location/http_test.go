package location

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNominatimGeocoder_Address(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		assert.Equal(t, "-6.2", r.URL.Query().Get("lat"))
		assert.Equal(t, "106.816666", r.URL.Query().Get("lon"))
		assert.Equal(t, "webcapture-test/1.0", r.Header.Get("User-Agent"))
		w.Write([]byte(`{"display_name":"Jakarta, Indonesia"}`))
	}))
	defer srv.Close()

	g := NewNominatimGeocoder(srv.URL+"/reverse", "webcapture-test/1.0", srv.Client())
	addr, err := g.Address(context.Background(), -6.2, 106.816666)
	require.NoError(t, err)
	assert.Equal(t, "Jakarta, Indonesia", addr)
}

func TestNominatimGeocoder_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := NewNominatimGeocoder(srv.URL, "ua", srv.Client()).Address(context.Background(), 0, 0)
	assert.Error(t, err)
}

func TestIPGeolocator(t *testing.T) {
	status := http.StatusOK
	body := `{"status":"success","lat":-6.9,"lon":107.6}`
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	defer srv.Close()

	g := NewIPGeolocator(srv.URL, 5000, srv.Client())
	require.True(t, g.Supported())

	pos, err := g.CurrentPosition(context.Background(), Options{Timeout: time.Second})
	require.NoError(t, err)
	assert.Equal(t, -6.9, pos.Latitude)
	assert.Equal(t, 107.6, pos.Longitude)
	assert.Equal(t, 5000.0, pos.Accuracy)

	// A young enough fix is served from cache.
	_, err = g.CurrentPosition(context.Background(), Options{MaximumAge: time.Minute})
	require.NoError(t, err)
	assert.Equal(t, 1, hits)

	status = http.StatusForbidden
	_, err = g.CurrentPosition(context.Background(), Options{})
	assert.ErrorIs(t, err, ErrPermissionDenied)

	status = http.StatusBadGateway
	_, err = g.CurrentPosition(context.Background(), Options{})
	assert.ErrorIs(t, err, ErrPositionUnavailable)

	status = http.StatusOK
	body = `{"status":"fail","message":"reserved range"}`
	_, err = g.CurrentPosition(context.Background(), Options{})
	assert.ErrorIs(t, err, ErrPositionUnavailable)
}

func TestIPGeolocator_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	g := NewIPGeolocator(srv.URL, 5000, srv.Client())
	_, err := g.CurrentPosition(context.Background(), Options{Timeout: 10 * time.Millisecond})
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestStaticGeolocator(t *testing.T) {
	g := NewStaticGeolocator(1, 2, 3)
	pos, err := g.CurrentPosition(context.Background(), Options{})
	require.NoError(t, err)
	assert.Equal(t, 3.0, pos.Accuracy)
}
