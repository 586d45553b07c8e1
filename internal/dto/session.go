package dto

import "webcapture/internal/model"

// OpenSessionRequest is the body of POST /api/session/open.
type OpenSessionRequest struct {
	FacingMode string `json:"facingMode"`
	Category   string `json:"category"`
}

// SessionStatus describes the camera session and its detection state.
type SessionStatus struct {
	Open              bool                  `json:"open"`
	Session           *model.CameraSession  `json:"session,omitempty"`
	Category          model.CaptureCategory `json:"category,omitempty"`
	DetectionRequired bool                  `json:"detectionRequired"`
	ModelLoaded       bool                  `json:"modelLoaded"`
	Presence          bool                  `json:"presence"`
	Captured          bool                  `json:"captured"`
}
