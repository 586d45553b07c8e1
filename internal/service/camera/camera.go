package camera

import (
	"context"
	"errors"
	"image"
	"webcapture/internal/model"
)

var (
	// ErrCameraUnavailable means there is no capture API or no device to open.
	ErrCameraUnavailable = errors.New("camera not available")
	// ErrPermissionDenied means the device exists but access was refused.
	ErrPermissionDenied = errors.New("camera permission denied")
	// ErrDeviceBusy means the device could not be acquired, usually because another process holds it.
	ErrDeviceBusy = errors.New("camera busy")
	// ErrNotOpen is returned when a frame is requested without a live session.
	ErrNotOpen = errors.New("camera session not open")
)

// FrameSource is the live video sink as seen by detection and capture.
type FrameSource interface {
	// Ready is false until at least one decoded frame is buffered.
	Ready() bool
	// Dimensions returns the intrinsic pixel size of the stream.
	Dimensions() image.Point
	// Snapshot returns a copy of the current frame.
	Snapshot() (image.Image, error)
}

// Stream is an acquired camera stream.
type Stream interface {
	FrameSource
	// Stop releases every hardware handle held by the stream.
	Stop() error
}

// Constraints is what the session asks the device for.
type Constraints struct {
	FacingMode model.FacingMode
	Width      int
	Height     int
}

// Device is the platform capture capability.
type Device interface {
	Available() bool
	Acquire(ctx context.Context, c Constraints) (Stream, error)
}
