package camera

import (
	"context"
	"errors"
	"image"
	"testing"
	"webcapture/internal/logger"
	"webcapture/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStream struct {
	stopped int
}

func (f *fakeStream) Ready() bool                    { return true }
func (f *fakeStream) Dimensions() image.Point        { return image.Pt(640, 480) }
func (f *fakeStream) Snapshot() (image.Image, error) { return image.NewRGBA(image.Rect(0, 0, 640, 480)), nil }
func (f *fakeStream) Stop() error                    { f.stopped++; return nil }

type fakeDevice struct {
	available bool
	err       error
	streams   []*fakeStream
	requests  []Constraints
}

func (d *fakeDevice) Available() bool { return d.available }

func (d *fakeDevice) Acquire(ctx context.Context, c Constraints) (Stream, error) {
	d.requests = append(d.requests, c)
	if d.err != nil {
		return nil, d.err
	}
	s := &fakeStream{}
	d.streams = append(d.streams, s)
	return s, nil
}

var testProfiles = map[model.DeviceClass]model.ResolutionProfile{
	model.DeviceMobile:  {Width: 720, Height: 1280},
	model.DeviceDesktop: {Width: 1280, Height: 720},
}

func TestSessionOpen_NoDevice(t *testing.T) {
	s := NewSession(&fakeDevice{available: false}, testProfiles, logger.Discard())

	_, err := s.Open(context.Background(), model.FacingFront, model.DeviceDesktop)
	assert.ErrorIs(t, err, ErrCameraUnavailable)

	_, err = s.Source()
	assert.ErrorIs(t, err, ErrNotOpen)
}

func TestSessionOpen_AcquireRejected(t *testing.T) {
	for _, want := range []error{ErrPermissionDenied, ErrDeviceBusy} {
		s := NewSession(&fakeDevice{available: true, err: want}, testProfiles, logger.Discard())
		_, err := s.Open(context.Background(), model.FacingFront, model.DeviceDesktop)
		assert.ErrorIs(t, err, want)
		_, ok := s.Current()
		assert.False(t, ok)
	}
}

func TestSessionOpen_UsesProfile(t *testing.T) {
	dev := &fakeDevice{available: true}
	s := NewSession(dev, testProfiles, logger.Discard())

	cs, err := s.Open(context.Background(), model.FacingRear, model.DeviceMobile)
	require.NoError(t, err)

	assert.NotEmpty(t, cs.ID)
	assert.Equal(t, model.FacingRear, cs.FacingMode)
	require.Len(t, dev.requests, 1)
	assert.Equal(t, Constraints{FacingMode: model.FacingRear, Width: 720, Height: 1280}, dev.requests[0])
}

func TestSessionReopen_StopsPreviousStream(t *testing.T) {
	dev := &fakeDevice{available: true}
	s := NewSession(dev, testProfiles, logger.Discard())

	first, err := s.Open(context.Background(), model.FacingFront, model.DeviceDesktop)
	require.NoError(t, err)
	second, err := s.Open(context.Background(), model.FacingRear, model.DeviceDesktop)
	require.NoError(t, err)

	require.Len(t, dev.streams, 2)
	assert.Equal(t, 1, dev.streams[0].stopped, "previous stream must be stopped before reopening")
	assert.Equal(t, 0, dev.streams[1].stopped)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestSessionClose(t *testing.T) {
	dev := &fakeDevice{available: true}
	s := NewSession(dev, testProfiles, logger.Discard())

	_, err := s.Open(context.Background(), model.FacingFront, model.DeviceDesktop)
	require.NoError(t, err)

	src, err := s.Source()
	require.NoError(t, err)
	assert.True(t, src.Ready())

	s.Close()
	s.Close()

	assert.Equal(t, 1, dev.streams[0].stopped)
	_, err = s.Source()
	assert.True(t, errors.Is(err, ErrNotOpen))
}

func TestSessionOpen_CancelledContextReleasesStream(t *testing.T) {
	dev := &fakeDevice{available: true}
	s := NewSession(dev, testProfiles, logger.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Open(ctx, model.FacingFront, model.DeviceDesktop)
	assert.ErrorIs(t, err, context.Canceled)
	require.Len(t, dev.streams, 1)
	assert.Equal(t, 1, dev.streams[0].stopped)
}
