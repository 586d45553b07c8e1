package vision

import (
	"fmt"
	"webcapture/internal/config"
	"webcapture/internal/logger"
	"webcapture/internal/service/detection"
)

// LoadEstimator builds the face estimator named by config.FaceDetector.
func LoadEstimator(config *config.Config, logger *logger.Logger) (detection.Estimator, error) {
	switch config.FaceDetector {
	case "", "cascade":
		return NewCascadeEstimator(config.CascadePath, logger)
	case "dnn":
		return NewDNNEstimator(config.FaceModelPath, config.FaceConfigPath, config.FaceConfidence, logger)
	}
	return nil, fmt.Errorf("unknown face detector %q", config.FaceDetector)
}
