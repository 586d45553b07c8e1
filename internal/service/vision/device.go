package vision

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"
	"webcapture/internal/config"
	"webcapture/internal/logger"
	"webcapture/internal/model"
	"webcapture/internal/service/camera"

	"gocv.io/x/gocv"
)

// Device opens V4L2/AVFoundation/DirectShow cameras through OpenCV.
// The front camera and the rear camera are configured device indexes.
type Device struct {
	ids    map[model.FacingMode]int
	logger *logger.Logger
}

// NewDevice creates a Device from the camera ids in config.
func NewDevice(config *config.Config, logger *logger.Logger) *Device {
	return &Device{
		ids: map[model.FacingMode]int{
			model.FacingFront: config.FrontCameraID,
			model.FacingRear:  config.RearCameraID,
		},
		logger: logger,
	}
}

// Available reports whether the platform has any capture device at all.
func (d *Device) Available() bool {
	if runtime.GOOS != "linux" {
		return true
	}
	matches, _ := globVideoNodes()
	return len(matches) > 0
}

// Acquire opens the camera for c.FacingMode and starts buffering frames.
func (d *Device) Acquire(ctx context.Context, c camera.Constraints) (camera.Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	id, ok := d.ids[c.FacingMode]
	if !ok {
		return nil, fmt.Errorf("%w: no device for facing mode %s", camera.ErrCameraUnavailable, c.FacingMode)
	}

	if err := checkNode(id); err != nil {
		return nil, err
	}

	vc, err := gocv.VideoCaptureDevice(id)
	if err != nil {
		return nil, fmt.Errorf("%w: device %d: %v", camera.ErrDeviceBusy, id, err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return nil, fmt.Errorf("%w: device %d did not open", camera.ErrDeviceBusy, id)
	}

	if c.Width > 0 && c.Height > 0 {
		vc.Set(gocv.VideoCaptureFrameWidth, float64(c.Width))
		vc.Set(gocv.VideoCaptureFrameHeight, float64(c.Height))
	}

	s := &stream{
		vc:     vc,
		frame:  gocv.NewMat(),
		done:   make(chan struct{}),
		logger: d.logger,
	}
	readCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	go s.read(readCtx)

	d.logger.Info("Opened camera device %d for %s", id, c.FacingMode)
	return s, nil
}

func globVideoNodes() ([]string, error) {
	return filepath.Glob("/dev/video*")
}

// checkNode maps the Linux device node state onto session errors before OpenCV hides them.
func checkNode(id int) error {
	if runtime.GOOS != "linux" {
		return nil
	}
	node := fmt.Sprintf("/dev/video%d", id)
	f, err := os.OpenFile(node, os.O_RDWR, 0)
	switch {
	case err == nil:
		f.Close()
		return nil
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("%w: %s", camera.ErrCameraUnavailable, node)
	case errors.Is(err, fs.ErrPermission):
		return fmt.Errorf("%w: %s", camera.ErrPermissionDenied, node)
	default:
		return fmt.Errorf("%w: %s: %v", camera.ErrDeviceBusy, node, err)
	}
}

const (
	readRetryDelay  = 10 * time.Millisecond
	readMissWarning = 100
)

// stream keeps the newest decoded frame; readers get copies.
type stream struct {
	vc     *gocv.VideoCapture
	frame  gocv.Mat
	mu     sync.RWMutex
	frames int
	size   image.Point

	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
	logger *logger.Logger
}

func (s *stream) read(ctx context.Context) {
	defer close(s.done)

	img := gocv.NewMat()
	defer img.Close()

	misses := 0
	for ctx.Err() == nil {
		if ok := s.vc.Read(&img); !ok || img.Empty() {
			misses++
			if misses == readMissWarning {
				s.logger.Warning("Camera returned no frames %d times in a row", misses)
			}
			time.Sleep(readRetryDelay)
			continue
		}
		misses = 0
		s.mu.Lock()
		img.CopyTo(&s.frame)
		s.frames++
		s.size = image.Pt(img.Cols(), img.Rows())
		s.mu.Unlock()
	}
}

func (s *stream) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.frames > 0
}

func (s *stream) Dimensions() image.Point {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.size
}

func (s *stream) Snapshot() (image.Image, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.frames == 0 || s.frame.Empty() {
		return nil, errors.New("no frame buffered")
	}
	return s.frame.ToImage()
}

// Stop ends the reader and releases the capture device and buffers.
func (s *stream) Stop() error {
	var err error
	s.once.Do(func() {
		s.cancel()
		<-s.done
		s.mu.Lock()
		defer s.mu.Unlock()
		err = s.vc.Close()
		s.frame.Close()
		s.frames = 0
	})
	return err
}
