package vision

import (
	"context"
	"fmt"
	"image"
	"path/filepath"
	"sync"
	"webcapture/internal/logger"

	"gocv.io/x/gocv"
)

// Where OpenCV packages usually install the Haar cascades.
var cascadeDirs = []string{
	"/usr/local/share/opencv4/haarcascades",
	"/usr/share/opencv4/haarcascades",
	"/opt/homebrew/share/opencv4/haarcascades",
}

// CascadeEstimator finds frontal faces with a Haar cascade.
type CascadeEstimator struct {
	classifier gocv.CascadeClassifier
	mu         sync.Mutex
	minSize    image.Point
	logger     *logger.Logger
}

// NewCascadeEstimator loads the cascade at path, falling back to the stock OpenCV locations.
func NewCascadeEstimator(path string, logger *logger.Logger) (*CascadeEstimator, error) {
	classifier := gocv.NewCascadeClassifier()

	candidates := []string{path}
	for _, dir := range cascadeDirs {
		candidates = append(candidates, filepath.Join(dir, filepath.Base(path)))
	}

	for _, candidate := range candidates {
		if classifier.Load(candidate) {
			logger.Info("Face cascade loaded from %s", candidate)
			return &CascadeEstimator{
				classifier: classifier,
				minSize:    image.Pt(30, 30),
				logger:     logger,
			}, nil
		}
	}

	classifier.Close()
	return nil, fmt.Errorf("failed to load face cascade %s or any stock copy", path)
}

// Estimate returns the face boxes in frame.
func (e *CascadeEstimator) Estimate(ctx context.Context, frame image.Image) ([]image.Rectangle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mat, err := gocv.ImageToMatRGB(frame)
	if err != nil {
		return nil, fmt.Errorf("failed to convert frame: %v", err)
	}
	defer mat.Close()

	if mat.Empty() {
		return nil, fmt.Errorf("frame is empty")
	}

	// ImageToMatRGB stores pixels in OpenCV's BGR order.
	gray := gocv.NewMat()
	defer gray.Close()
	if err := gocv.CvtColor(mat, &gray, gocv.ColorBGRToGray); err != nil {
		return nil, fmt.Errorf("failed to convert frame to grayscale: %v", err)
	}
	gocv.EqualizeHist(gray, &gray)

	e.mu.Lock()
	defer e.mu.Unlock()
	faces := e.classifier.DetectMultiScaleWithParams(gray, 1.1, 3, 0, e.minSize, image.Point{})
	return faces, nil
}

// Close releases the classifier.
func (e *CascadeEstimator) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.classifier.Close()
}
