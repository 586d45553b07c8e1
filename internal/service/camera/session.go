package camera

import (
	"context"
	"fmt"
	"sync"
	"webcapture/internal/logger"
	"webcapture/internal/model"

	"github.com/google/uuid"
)

// Session owns at most one live camera stream.
type Session struct {
	device   Device
	profiles map[model.DeviceClass]model.ResolutionProfile
	logger   *logger.Logger

	mu      sync.Mutex
	stream  Stream
	sink    FrameSource
	current *model.CameraSession
}

// NewSession creates a Session that opens streams on device using the given per-class profiles.
func NewSession(device Device, profiles map[model.DeviceClass]model.ResolutionProfile, logger *logger.Logger) *Session {
	return &Session{
		device:   device,
		profiles: profiles,
		logger:   logger,
	}
}

// Open stops any previous stream and acquires a new one.
func (s *Session) Open(ctx context.Context, facing model.FacingMode, class model.DeviceClass) (model.CameraSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closeLocked()

	if s.device == nil || !s.device.Available() {
		return model.CameraSession{}, ErrCameraUnavailable
	}

	profile := s.profiles[class]
	stream, err := s.device.Acquire(ctx, Constraints{
		FacingMode: facing,
		Width:      profile.Width,
		Height:     profile.Height,
	})
	if err != nil {
		return model.CameraSession{}, fmt.Errorf("open %s camera: %w", facing, err)
	}

	if ctx.Err() != nil {
		// Acquired after the caller gave up: release it right away.
		stream.Stop()
		return model.CameraSession{}, ctx.Err()
	}

	s.stream = stream
	s.sink = stream
	s.current = &model.CameraSession{
		ID:          uuid.NewString(),
		FacingMode:  facing,
		DeviceClass: class,
		Profile:     profile,
	}
	s.logger.Info("Camera session %s opened (%s, %s, %dx%d)", s.current.ID, facing, class, profile.Width, profile.Height)
	return *s.current, nil
}

// Close stops the stream and detaches the sink. Closing a closed session is a no-op.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeLocked()
}

func (s *Session) closeLocked() {
	if s.stream == nil {
		return
	}
	if err := s.stream.Stop(); err != nil {
		s.logger.Warning("Stopping camera stream: %v", err)
	}
	s.logger.Info("Camera session %s closed", s.current.ID)
	s.stream = nil
	s.sink = nil
	s.current = nil
}

// Current returns the live session description, if any.
func (s *Session) Current() (model.CameraSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return model.CameraSession{}, false
	}
	return *s.current, true
}

// Source returns the attached frame sink or ErrNotOpen.
func (s *Session) Source() (FrameSource, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sink == nil {
		return nil, ErrNotOpen
	}
	return s.sink, nil
}
