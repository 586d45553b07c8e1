package detection

import (
	"context"
	"errors"
	"image"
	"time"
	"webcapture/internal/logger"
	"webcapture/internal/service/camera"
	"webcapture/internal/service/compositor"
)

// Estimator is a loaded face model.
type Estimator interface {
	// Estimate returns one box per face found in frame.
	Estimate(ctx context.Context, frame image.Image) ([]image.Rectangle, error)
	Close() error
}

// Loop is one running presence-detection task bound to one session generation.
type Loop struct {
	source    camera.FrameSource
	estimator Estimator
	state     *State
	gen       uint64
	interval  time.Duration
	logger    *logger.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

// NewLoop prepares a loop; call Start to run it.
func NewLoop(source camera.FrameSource, estimator Estimator, state *State, gen uint64, fps int, logger *logger.Logger) *Loop {
	if fps <= 0 {
		fps = 30
	}
	return &Loop{
		source:    source,
		estimator: estimator,
		state:     state,
		gen:       gen,
		interval:  time.Second / time.Duration(fps),
		logger:    logger,
		done:      make(chan struct{}),
	}
}

// Start runs the loop on its own goroutine until Stop or ctx is cancelled.
func (l *Loop) Start(ctx context.Context) {
	ctx, l.cancel = context.WithCancel(ctx)
	go l.run(ctx)
}

// Stop cancels the loop and waits for the current tick to finish.
// No tick runs after Stop returns.
func (l *Loop) Stop() {
	if l.cancel == nil {
		return
	}
	l.cancel()
	<-l.done
}

func (l *Loop) run(ctx context.Context) {
	defer close(l.done)

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	l.logger.Info("Face detection loop started (generation %d, every %v)", l.gen, l.interval)
	for {
		select {
		case <-ctx.Done():
			l.logger.Info("Face detection loop stopped (generation %d)", l.gen)
			return
		case <-ticker.C:
			l.tick(ctx)
		}
	}
}

// tick runs one detection pass. Inference is awaited here, so two calls never overlap.
func (l *Loop) tick(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if !l.source.Ready() {
		return
	}

	frame, err := l.source.Snapshot()
	if err != nil {
		l.logger.Warning("Detection snapshot failed: %v", err)
		return
	}
	region, err := compositor.Crop(frame)
	if err != nil {
		return
	}

	faces, err := l.estimator.Estimate(ctx, region)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			l.logger.Error("Face detection error: %v", err)
		}
		return
	}

	// A result that lands after Stop or a session restart must not leak into the new state.
	if ctx.Err() != nil {
		return
	}
	l.state.Set(l.gen, len(faces) > 0)
}
