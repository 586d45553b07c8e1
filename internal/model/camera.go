package model

import (
	"fmt"
	"regexp"
)

// FacingMode selects the physical camera.
type FacingMode string

const (
	FacingFront FacingMode = "user"
	FacingRear  FacingMode = "environment"
)

// ParseFacingMode accepts the browser names ("user", "environment") and "front"/"rear".
func ParseFacingMode(s string) (FacingMode, error) {
	switch s {
	case "", "user", "front":
		return FacingFront, nil
	case "environment", "rear", "back":
		return FacingRear, nil
	}
	return "", fmt.Errorf("unknown facing mode %q", s)
}

// Toggle returns the opposite facing mode.
func (f FacingMode) Toggle() FacingMode {
	if f == FacingFront {
		return FacingRear
	}
	return FacingFront
}

// DeviceClass tells mobile callers apart from desktop ones. It drives the
// camera resolution profile and the geolocation accuracy strategy.
type DeviceClass string

const (
	DeviceMobile  DeviceClass = "mobile"
	DeviceDesktop DeviceClass = "desktop"
)

var mobileAgent = regexp.MustCompile(`(?i)android|iphone|ipad|ipod`)

// DeviceClassFromUserAgent classifies a User-Agent header, falling back to def when it is empty.
func DeviceClassFromUserAgent(userAgent string, def DeviceClass) DeviceClass {
	if userAgent == "" {
		return def
	}
	if mobileAgent.MatchString(userAgent) {
		return DeviceMobile
	}
	return DeviceDesktop
}

// ResolutionProfile is the requested capture size for a device class.
type ResolutionProfile struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// CameraSession describes the one live camera stream.
type CameraSession struct {
	ID          string            `json:"id"`
	FacingMode  FacingMode        `json:"facingMode"`
	DeviceClass DeviceClass       `json:"deviceClass"`
	Profile     ResolutionProfile `json:"profile"`
}
