package dto

import (
	"encoding/base64"
	"webcapture/internal/model"
)

// CaptureRequest is the body of POST /api/capture. Date and Time are the
// values the user saw on screen; empty ones are locked from the server clock.
type CaptureRequest struct {
	Location      string `json:"location"`
	Date          string `json:"date"`
	Time          string `json:"time"`
	EndDate       string `json:"endDate"`
	Category      string `json:"category"`
	DisplayWidth  int    `json:"displayWidth"`
	DisplayHeight int    `json:"displayHeight"`
}

// CaptureResponse carries the artifact with its bytes as a data URL.
type CaptureResponse struct {
	model.CapturedArtifact
	DataURL string `json:"dataUrl"`
}

// NewCaptureResponse wraps an artifact for JSON output.
func NewCaptureResponse(a *model.CapturedArtifact) CaptureResponse {
	return CaptureResponse{
		CapturedArtifact: *a,
		DataURL:          "data:" + a.MimeType + ";base64," + base64.StdEncoding.EncodeToString(a.Data),
	}
}
