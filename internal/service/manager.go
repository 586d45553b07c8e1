package service

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"time"
	"webcapture/internal/dto"
	"webcapture/internal/logger"
	"webcapture/internal/model"
	"webcapture/internal/service/camera"
	"webcapture/internal/service/compositor"
	"webcapture/internal/service/detection"
	"webcapture/internal/service/location"
)

var (
	// ErrShutdown is returned by every operation after Shutdown.
	ErrShutdown = errors.New("manager shut down")
	// ErrFaceNotDetected is returned by Capture while a required face is missing.
	ErrFaceNotDetected = errors.New("no face detected")
	// ErrNothingToRetake is returned by Retake when no photo is locked.
	ErrNothingToRetake = errors.New("no captured photo to retake")
	// ErrCategoryMismatch is returned by Capture when the requested category
	// differs from the one the session was opened (and face-checked) for.
	ErrCategoryMismatch = errors.New("capture category differs from session category")
)

// Manager ties the camera session, presence detection, compositor and
// location resolver together. It owns the session generation: every
// restart bumps it so that late detection results are discarded.
type Manager struct {
	session    *camera.Session
	compositor *compositor.Compositor
	resolver   *location.Resolver
	state      *detection.State
	fps        int
	logger     *logger.Logger
	now        func() time.Time

	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	closed    bool
	estimator detection.Estimator
	loop      *detection.Loop
	gen       uint64
	category  model.CaptureCategory
	facing    model.FacingMode
	class     model.DeviceClass
	required  bool
	captured  *model.CapturedArtifact
}

// NewManager creates a Manager. The face model is installed later with LoadModel.
func NewManager(session *camera.Session, compositor *compositor.Compositor, resolver *location.Resolver, state *detection.State, fps int, logger *logger.Logger) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		session:    session,
		compositor: compositor,
		resolver:   resolver,
		state:      state,
		fps:        fps,
		logger:     logger,
		now:        time.Now,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// LoadModel runs load on its own goroutine and installs the result. The
// returned channel is closed once the load has been handled. A model that
// arrives after Shutdown is closed instead of installed.
func (m *Manager) LoadModel(load func() (detection.Estimator, error)) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)

		started := time.Now()
		est, err := load()
		if err != nil {
			m.logger.Error("Face model load failed: %v", err)
			return
		}

		m.mu.Lock()
		defer m.mu.Unlock()

		if m.closed || m.estimator != nil {
			if err := est.Close(); err != nil {
				m.logger.Warning("Closing unused face model: %v", err)
			}
			return
		}
		m.estimator = est
		m.logger.Info("🧠 Face model ready in %v", time.Since(started).Round(time.Millisecond))

		if _, open := m.session.Current(); open && m.required && m.loop == nil {
			m.startLoopLocked()
		}
	}()
	return done
}

// Open (re)starts the camera for facing and class. Any previous session and
// its detection loop are torn down first and presence drops to false.
func (m *Manager) Open(ctx context.Context, facing model.FacingMode, class model.DeviceClass, category model.CaptureCategory) (dto.SessionStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return dto.SessionStatus{}, ErrShutdown
	}
	if err := m.openLocked(ctx, facing, class, category); err != nil {
		return m.statusLocked(), err
	}
	return m.statusLocked(), nil
}

// Flip switches between the front and rear camera with a full restart.
func (m *Manager) Flip(ctx context.Context) (dto.SessionStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return dto.SessionStatus{}, ErrShutdown
	}
	cur, open := m.session.Current()
	if !open {
		return m.statusLocked(), camera.ErrNotOpen
	}
	if err := m.openLocked(ctx, cur.FacingMode.Toggle(), cur.DeviceClass, m.category); err != nil {
		return m.statusLocked(), err
	}
	return m.statusLocked(), nil
}

// Close stops detection and the camera. The captured photo, if any, stays locked.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closeLocked()
}

// Capture locks overlay and composes the current frame into an artifact.
// The camera is released once the photo is taken; Retake reopens it.
func (m *Manager) Capture(ctx context.Context, overlay model.OverlayContext, display image.Point) (*model.CapturedArtifact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, ErrShutdown
	}
	cur, open := m.session.Current()
	if !open {
		return nil, camera.ErrNotOpen
	}
	if overlay.Category != "" && overlay.Category != m.category {
		return nil, fmt.Errorf("%w: %s session, %s capture", ErrCategoryMismatch, m.category, overlay.Category)
	}
	if m.required && !m.state.Presence() {
		return nil, ErrFaceNotDetected
	}
	src, err := m.session.Source()
	if err != nil {
		return nil, err
	}

	overlay.Category = m.category
	locked := overlay.Lock(m.now())

	artifact, err := m.compositor.Capture(ctx, src, compositor.Request{
		Facing:  cur.FacingMode,
		Overlay: locked,
		Display: display,
	})
	if err != nil {
		return nil, err
	}

	m.captured = artifact
	m.logger.Info("📸 Captured %s (%dx%d, %d bytes, %s)", artifact.ID, artifact.Width, artifact.Height, len(artifact.Data), locked.Category)
	m.closeLocked()
	return artifact, nil
}

// Retake unlocks the captured photo and reopens the camera it was taken with.
func (m *Manager) Retake(ctx context.Context) (dto.SessionStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return dto.SessionStatus{}, ErrShutdown
	}
	if m.captured == nil {
		return m.statusLocked(), ErrNothingToRetake
	}
	m.logger.Info("Retake: discarding %s", m.captured.ID)
	m.captured = nil
	if err := m.openLocked(ctx, m.facing, m.class, m.category); err != nil {
		return m.statusLocked(), err
	}
	return m.statusLocked(), nil
}

// Captured returns the locked artifact, if one is waiting to be submitted.
func (m *Manager) Captured() (*model.CapturedArtifact, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.captured, m.captured != nil
}

// Resolve asks the location resolver for a fresh position. The request is
// also cancelled by Shutdown.
func (m *Manager) Resolve(ctx context.Context, class model.DeviceClass) (model.GeoResult, error) {
	if m.ctx.Err() != nil {
		return model.GeoResult{}, ErrShutdown
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(m.ctx, cancel)
	defer stop()

	return m.resolver.Resolve(ctx, class)
}

// LastLocation returns the cached result of the most recent Resolve.
func (m *Manager) LastLocation() (model.GeoResult, bool) {
	return m.resolver.Last()
}

// Presence returns the current face-presence flag.
func (m *Manager) Presence() bool {
	return m.state.Presence()
}

// Status describes the session and detection state.
func (m *Manager) Status() dto.SessionStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.statusLocked()
}

// Shutdown stops everything and releases the face model. Later calls are no-ops.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return
	}
	m.closed = true
	m.closeLocked()
	m.cancel()

	if m.estimator != nil {
		if err := m.estimator.Close(); err != nil {
			m.logger.Warning("Closing face model: %v", err)
		}
		m.estimator = nil
	}
	m.logger.Info("Manager stopped")
}

func (m *Manager) openLocked(ctx context.Context, facing model.FacingMode, class model.DeviceClass, category model.CaptureCategory) error {
	m.stopLoopLocked()
	m.gen = m.state.Reset()
	m.facing, m.class, m.category = facing, class, category
	m.required = false

	cur, err := m.session.Open(ctx, facing, class)
	if err != nil {
		m.logger.Error("Camera open failed: %v", err)
		return err
	}

	m.required = detection.Required(category, cur.FacingMode)
	if !m.required {
		m.state.Set(m.gen, true)
		return nil
	}
	if m.estimator == nil {
		m.logger.Warning("Face model not loaded yet, detection starts when it is")
		return nil
	}
	m.startLoopLocked()
	return nil
}

func (m *Manager) startLoopLocked() {
	src, err := m.session.Source()
	if err != nil {
		return
	}
	m.loop = detection.NewLoop(src, m.estimator, m.state, m.gen, m.fps, m.logger)
	m.loop.Start(m.ctx)
}

func (m *Manager) stopLoopLocked() {
	if m.loop == nil {
		return
	}
	m.loop.Stop()
	m.loop = nil
}

func (m *Manager) closeLocked() {
	m.stopLoopLocked()
	m.session.Close()
	m.gen = m.state.Reset()
	m.required = false
}

func (m *Manager) statusLocked() dto.SessionStatus {
	status := dto.SessionStatus{
		Category:          m.category,
		DetectionRequired: m.required,
		ModelLoaded:       m.estimator != nil,
		Presence:          m.state.Presence(),
		Captured:          m.captured != nil,
	}
	if cur, open := m.session.Current(); open {
		status.Open = true
		status.Session = &cur
	}
	return status
}
