package model

import "time"

// CapturedArtifact is the encoded photo handed back to the caller.
// It is never modified after the compositor returns it.
type CapturedArtifact struct {
	ID           string        `json:"id"`
	Data         []byte        `json:"-"`
	MimeType     string        `json:"mimeType"`
	Quality      float64       `json:"quality"`
	Width        int           `json:"width"`
	Height       int           `json:"height"`
	OverlayLines []string      `json:"overlayLines"`
	Overlay      LockedOverlay `json:"overlay"`
	CapturedAt   time.Time     `json:"capturedAt"`
}
