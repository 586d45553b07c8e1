package compositor

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"
	"webcapture/internal/logger"
	"webcapture/internal/model"
	"webcapture/internal/service/camera"

	"github.com/google/uuid"
	"golang.org/x/image/font/opentype"
)

var (
	// ErrSourceNotReady is returned when the camera has not produced a frame yet.
	ErrSourceNotReady = errors.New("frame source not ready")
	// ErrSurfaceUnavailable is returned when there is nothing to draw on.
	ErrSurfaceUnavailable = errors.New("drawing surface unavailable")
)

// MaxDisplaySide bounds each side of the output surface in pixels.
const MaxDisplaySide = 4096

// Encoder turns the finished surface into bytes.
type Encoder interface {
	Encode(img image.Image, quality int) ([]byte, error)
	MimeType() string
}

// Request is one capture: which camera, which locked text, and how large the preview was.
type Request struct {
	Facing  model.FacingMode
	Overlay model.LockedOverlay
	// Display is the on-screen preview size. Zero means the crop's own size.
	Display image.Point
}

// Compositor crops, mirrors, captions and encodes a single frame.
type Compositor struct {
	font    *opentype.Font
	encoder Encoder
	quality int
	logger  *logger.Logger
	now     func() time.Time
}

// NewCompositor creates a Compositor encoding at quality (1-100).
func NewCompositor(f *opentype.Font, encoder Encoder, quality int, logger *logger.Logger) *Compositor {
	if quality <= 0 || quality > 100 {
		quality = 80
	}
	return &Compositor{
		font:    f,
		encoder: encoder,
		quality: quality,
		logger:  logger,
		now:     time.Now,
	}
}

// Quality returns the encoding quality as a 0-1 factor.
func (c *Compositor) Quality() float64 {
	return float64(c.quality) / 100
}

// Capture takes the current frame of src and produces the final artifact.
// Any failure returns no artifact at all.
func (c *Compositor) Capture(ctx context.Context, src camera.FrameSource, req Request) (*model.CapturedArtifact, error) {
	if src == nil {
		return nil, camera.ErrNotOpen
	}
	if !src.Ready() {
		return nil, ErrSourceNotReady
	}
	if dims := src.Dimensions(); dims.X <= 0 || dims.Y <= 0 {
		return nil, ErrSourceNotReady
	}
	if req.Display.X > MaxDisplaySide || req.Display.Y > MaxDisplaySide {
		return nil, fmt.Errorf("%w: display %dx%d exceeds %d", ErrSurfaceUnavailable, req.Display.X, req.Display.Y, MaxDisplaySide)
	}

	frame, err := src.Snapshot()
	if err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	if frame == nil {
		return nil, ErrSurfaceUnavailable
	}

	b := frame.Bounds()
	region := CropRegion(b.Dx(), b.Dy())
	out := req.Display
	if out.X <= 0 || out.Y <= 0 {
		out = region.Size()
	}

	surface, err := Render(frame, region, out, req.Facing == model.FacingFront)
	if err != nil {
		return nil, err
	}

	metrics := MetricsFor(out.X)
	face, err := newFace(c.font, metrics.FontSize)
	if err != nil {
		return nil, fmt.Errorf("font face: %w", err)
	}
	defer face.Close()

	block := LayoutOverlay(req.Overlay, out, faceMeasurer{face: face}, metrics, fixedToFloat(face.Metrics().Ascent))
	DrawBlock(surface, block, face)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := c.encoder.Encode(surface, c.quality)
	if err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}

	artifact := &model.CapturedArtifact{
		ID:           uuid.NewString(),
		Data:         data,
		MimeType:     c.encoder.MimeType(),
		Quality:      c.Quality(),
		Width:        out.X,
		Height:       out.Y,
		OverlayLines: block.Texts(),
		Overlay:      req.Overlay,
		CapturedAt:   c.now(),
	}
	c.logger.Info("Captured %dx%d %s (%d bytes, %d overlay lines)", out.X, out.Y, artifact.MimeType, len(data), len(artifact.OverlayLines))
	return artifact, nil
}
