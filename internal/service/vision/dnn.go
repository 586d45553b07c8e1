package vision

import (
	"context"
	"fmt"
	"image"
	"os"
	"sync"
	"webcapture/internal/logger"

	"gocv.io/x/gocv"
)

// DNNEstimator runs the OpenCV res10 SSD face detector.
type DNNEstimator struct {
	net        gocv.Net
	mu         sync.Mutex
	modelPath  string
	configPath string
	threshold  float32
	logger     *logger.Logger
}

// NewDNNEstimator loads the Caffe model and prototxt and pins the network to the CPU.
func NewDNNEstimator(modelPath, configPath string, threshold float64, logger *logger.Logger) (*DNNEstimator, error) {
	e := &DNNEstimator{
		modelPath:  modelPath,
		configPath: configPath,
		threshold:  float32(threshold),
		logger:     logger,
	}
	if err := e.initializeNet(); err != nil {
		return nil, err
	}
	return e, nil
}

// initializeNet loads the DNN network and sets backend/target preferences.
func (e *DNNEstimator) initializeNet() error {
	if _, err := os.Stat(e.modelPath); os.IsNotExist(err) {
		return fmt.Errorf("model file not found: %s", e.modelPath)
	}

	if _, err := os.Stat(e.configPath); os.IsNotExist(err) {
		return fmt.Errorf("config file not found: %s", e.configPath)
	}

	net := gocv.ReadNet(e.modelPath, e.configPath)
	if net.Empty() {
		return fmt.Errorf("failed to load network")
	}

	errBackend := net.SetPreferableBackend(gocv.NetBackendDefault)
	errTarget := net.SetPreferableTarget(gocv.NetTargetCPU)
	if errBackend != nil || errTarget != nil {
		net.Close()
		return fmt.Errorf("failed to set preferable backend or target")
	}

	e.net = net
	e.logger.Info("Face detection network initialized successfully")
	return nil
}

// Estimate returns the boxes of faces above the confidence threshold.
func (e *DNNEstimator) Estimate(ctx context.Context, frame image.Image) ([]image.Rectangle, error) {
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

	// res10 takes BGR at 300x300 with its training means subtracted. ImageToMatRGB already yields BGR.
	blob := gocv.BlobFromImage(mat, 1.0, image.Pt(300, 300), gocv.NewScalar(104, 177, 123, 0), false, false)
	defer blob.Close()

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.net.Empty() {
		return nil, fmt.Errorf("detection network not initialized")
	}

	e.net.SetInput(blob, "")
	output := e.net.Forward("")
	defer output.Close()

	// Rows of [batch_id, class_id, confidence, x1, y1, x2, y2], coordinates normalized.
	detections := output.Reshape(1, output.Total()/7)
	defer detections.Close()

	cols, rows := float32(mat.Cols()), float32(mat.Rows())
	var faces []image.Rectangle
	for i := 0; i < detections.Rows(); i++ {
		confidence := detections.GetFloatAt(i, 2)
		if confidence < e.threshold {
			continue
		}
		x1 := int(detections.GetFloatAt(i, 3) * cols)
		y1 := int(detections.GetFloatAt(i, 4) * rows)
		x2 := int(detections.GetFloatAt(i, 5) * cols)
		y2 := int(detections.GetFloatAt(i, 6) * rows)
		faces = append(faces, image.Rect(x1, y1, x2, y2))
	}
	return faces, nil
}

// Close releases the network.
func (e *DNNEstimator) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.net.Close()
}
