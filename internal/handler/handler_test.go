package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/jpeg"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"webcapture/internal/config"
	"webcapture/internal/dto"
	"webcapture/internal/logger"
	"webcapture/internal/model"
	"webcapture/internal/service"
	"webcapture/internal/service/camera"
	"webcapture/internal/service/compositor"
	"webcapture/internal/service/detection"
	"webcapture/internal/service/location"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stillStream struct{}

func (stillStream) Ready() bool             { return true }
func (stillStream) Dimensions() image.Point { return image.Pt(640, 480) }
func (stillStream) Snapshot() (image.Image, error) {
	return image.NewRGBA(image.Rect(0, 0, 640, 480)), nil
}
func (stillStream) Stop() error { return nil }

type stillDevice struct{ err error }

func (stillDevice) Available() bool { return true }

func (d stillDevice) Acquire(ctx context.Context, c camera.Constraints) (camera.Stream, error) {
	if d.err != nil {
		return nil, d.err
	}
	return stillStream{}, nil
}

type jpegEncoder struct{}

func (jpegEncoder) Encode(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (jpegEncoder) MimeType() string { return "image/jpeg" }

type failingGeolocator struct{ err error }

func (failingGeolocator) Supported() bool { return true }

func (g failingGeolocator) CurrentPosition(ctx context.Context, opts location.Options) (location.Position, error) {
	return location.Position{}, g.err
}

type fixedPlace string

func (p fixedPlace) Address(ctx context.Context, latitude, longitude float64) (string, error) {
	return string(p), nil
}

type fixture struct {
	cfg     *config.Config
	logger  *logger.Logger
	manager *service.Manager
}

func newFixture(t *testing.T, device camera.Device, geo location.Geolocator) *fixture {
	t.Helper()

	log := logger.Discard()
	cfg := &config.Config{DefaultDevice: string(model.DeviceDesktop)}

	session := camera.NewSession(device, map[model.DeviceClass]model.ResolutionProfile{
		model.DeviceDesktop: {Width: 1280, Height: 720},
		model.DeviceMobile:  {Width: 720, Height: 1280},
	}, log)
	f, err := compositor.LoadFont("")
	require.NoError(t, err)
	comp := compositor.NewCompositor(f, jpegEncoder{}, 80, log)
	resolver := location.NewResolver(geo, fixedPlace("Bandung"), location.DefaultSettings(), log)

	m := service.NewManager(session, comp, resolver, &detection.State{}, 30, log)
	t.Cleanup(m.Shutdown)
	return &fixture{cfg: cfg, logger: log, manager: m}
}

func do(t *testing.T, h http.Handler, method, target string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, target, r)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestOpenSession_RearCheckIn(t *testing.T) {
	fx := newFixture(t, stillDevice{}, location.NewStaticGeolocator(0, 0, 10))

	rec := do(t, OpenSessionHandler(fx.manager, fx.cfg, fx.logger), http.MethodPost, "/api/session/open",
		dto.OpenSessionRequest{FacingMode: "environment", Category: "check-in"})
	require.Equal(t, http.StatusOK, rec.Code)

	status := decode[dto.SessionStatus](t, rec)
	assert.True(t, status.Open)
	assert.False(t, status.DetectionRequired)
	assert.True(t, status.Presence)
	assert.Equal(t, model.FacingRear, status.Session.FacingMode)
	assert.Equal(t, model.DeviceDesktop, status.Session.DeviceClass)
}

func TestOpenSession_BadInput(t *testing.T) {
	fx := newFixture(t, stillDevice{}, location.NewStaticGeolocator(0, 0, 10))
	h := OpenSessionHandler(fx.manager, fx.cfg, fx.logger)

	rec := do(t, h, http.MethodPost, "/api/session/open", dto.OpenSessionRequest{Category: "holiday"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/session/open", dto.OpenSessionRequest{FacingMode: "sideways"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/session/open", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, http.MethodPost, rec.Header().Get("Allow"))
}

func TestOpenSession_PermissionDenied(t *testing.T) {
	fx := newFixture(t, stillDevice{err: camera.ErrPermissionDenied}, location.NewStaticGeolocator(0, 0, 10))

	rec := do(t, OpenSessionHandler(fx.manager, fx.cfg, fx.logger), http.MethodPost, "/api/session/open", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestFlip_NoSession(t *testing.T) {
	fx := newFixture(t, stillDevice{}, location.NewStaticGeolocator(0, 0, 10))

	rec := do(t, FlipSessionHandler(fx.manager, fx.logger), http.MethodPost, "/api/session/flip", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCaptureAndRetake(t *testing.T) {
	fx := newFixture(t, stillDevice{}, location.NewStaticGeolocator(0, 0, 10))

	rec := do(t, OpenSessionHandler(fx.manager, fx.cfg, fx.logger), http.MethodPost, "/api/session/open",
		dto.OpenSessionRequest{FacingMode: "rear", Category: "leave"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, CaptureHandler(fx.manager, fx.logger), http.MethodPost, "/api/capture", dto.CaptureRequest{
		Location:      "Bandung",
		Date:          "5 Jan 2026",
		EndDate:       "7 Jan 2026",
		DisplayWidth:  360,
		DisplayHeight: 450,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	res := decode[dto.CaptureResponse](t, rec)
	assert.Equal(t, []string{"Bandung", "5 Jan 2026 – 7 Jan 2026"}, res.OverlayLines)
	assert.Equal(t, 360, res.Width)
	assert.Equal(t, 450, res.Height)
	assert.True(t, strings.HasPrefix(res.DataURL, "data:image/jpeg;base64,"))

	rec = do(t, CapturedHandler(fx.manager), http.MethodGet, "/api/capture?raw=1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/jpeg", rec.Header().Get("Content-Type"))
	_, err := jpeg.Decode(rec.Body)
	require.NoError(t, err)

	rec = do(t, RetakeHandler(fx.manager, fx.logger), http.MethodPost, "/api/capture/retake", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	status := decode[dto.SessionStatus](t, rec)
	assert.True(t, status.Open)
	assert.False(t, status.Captured)

	rec = do(t, CapturedHandler(fx.manager), http.MethodGet, "/api/capture", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCapture_RejectsOversizedDisplay(t *testing.T) {
	fx := newFixture(t, stillDevice{}, location.NewStaticGeolocator(0, 0, 10))

	rec := do(t, OpenSessionHandler(fx.manager, fx.cfg, fx.logger), http.MethodPost, "/api/session/open",
		dto.OpenSessionRequest{FacingMode: "rear", Category: "check-in"})
	require.Equal(t, http.StatusOK, rec.Code)

	for _, req := range []dto.CaptureRequest{
		{DisplayWidth: 40000, DisplayHeight: 40000},
		{DisplayWidth: 1 << 30, DisplayHeight: 500},
		{DisplayWidth: 400, DisplayHeight: -1},
	} {
		rec = do(t, CaptureHandler(fx.manager, fx.logger), http.MethodPost, "/api/capture", req)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "%dx%d", req.DisplayWidth, req.DisplayHeight)
	}
	assert.True(t, fx.manager.Status().Open, "rejected requests leave the camera open")

	rec = do(t, CaptureHandler(fx.manager, fx.logger), http.MethodPost, "/api/capture",
		dto.CaptureRequest{Category: "sick", DisplayWidth: 400, DisplayHeight: 500})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCapture_NoSession(t *testing.T) {
	fx := newFixture(t, stillDevice{}, location.NewStaticGeolocator(0, 0, 10))

	rec := do(t, CaptureHandler(fx.manager, fx.logger), http.MethodPost, "/api/capture", dto.CaptureRequest{Location: "x"})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestLocation_Success(t *testing.T) {
	fx := newFixture(t, stillDevice{}, location.NewStaticGeolocator(-6.9, 107.6, 50))

	rec := do(t, LocationHandler(fx.manager, fx.cfg, fx.logger), http.MethodGet, "/api/location", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	geo := decode[model.GeoResult](t, rec)
	assert.Equal(t, "Bandung", geo.Address)
	assert.Equal(t, "https://www.google.com/maps?q=-6.9,107.6", geo.MapURL)

	rec = do(t, LocationHandler(fx.manager, fx.cfg, fx.logger), http.MethodGet, "/api/location?cached=1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, geo, decode[model.GeoResult](t, rec))
}

func TestLocation_ErrorsByCause(t *testing.T) {
	cases := []struct {
		err     error
		status  int
		message string
	}{
		{location.ErrTimeout, http.StatusGatewayTimeout, "Location request timed out"},
		{location.ErrPermissionDenied, http.StatusForbidden, "Location permission denied"},
		{location.ErrPositionUnavailable, http.StatusServiceUnavailable, "Location unavailable"},
	}
	for _, tc := range cases {
		t.Run(tc.message, func(t *testing.T) {
			fx := newFixture(t, stillDevice{}, failingGeolocator{err: tc.err})

			rec := do(t, LocationHandler(fx.manager, fx.cfg, fx.logger), http.MethodGet, "/api/location", nil)
			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, tc.message, decode[dto.ErrorResponse](t, rec).Message)
		})
	}
}

func TestStatusFor(t *testing.T) {
	cases := map[error]int{
		camera.ErrCameraUnavailable:        http.StatusServiceUnavailable,
		camera.ErrDeviceBusy:               http.StatusConflict,
		compositor.ErrSourceNotReady:       http.StatusConflict,
		compositor.ErrSurfaceUnavailable:   http.StatusInternalServerError,
		service.ErrFaceNotDetected:         http.StatusConflict,
		service.ErrCategoryMismatch:        http.StatusConflict,
		location.ErrGeolocationUnsupported: http.StatusNotImplemented,
		errors.New("boom"):                 http.StatusInternalServerError,
	}
	for err, want := range cases {
		assert.Equal(t, want, statusFor(err), err.Error())
	}
}

func TestLogs_ShowAndClear(t *testing.T) {
	log := logger.NewLogger(&config.Config{LogDirectory: t.TempDir()})
	t.Cleanup(func() { log.Close() })

	log.Info("camera opened")

	rec := do(t, ShowLogsHandler(log, logger.InfoFile), http.MethodGet, "/logs/info", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "camera opened")

	rec = do(t, ClearLogsHandler(log, logger.InfoFile), http.MethodPost, "/logs/info/clear", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, ShowLogsHandler(log, logger.InfoFile), http.MethodGet, "/logs/info", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestLogs_WriterLoggerHasNoFiles(t *testing.T) {
	rec := do(t, ShowLogsHandler(logger.Discard(), logger.ErrorFile), http.MethodGet, "/logs/error", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
