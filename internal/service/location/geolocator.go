package location

import (
	"context"
	"time"
)

// Options mirror the browser's PositionOptions.
type Options struct {
	HighAccuracy bool
	Timeout      time.Duration
	MaximumAge   time.Duration
}

// Position is one fix. Accuracy is the radius of uncertainty in meters.
type Position struct {
	Latitude  float64
	Longitude float64
	Accuracy  float64
	Timestamp time.Time
}

// Geolocator is the platform position capability. CurrentPosition must
// return an error wrapping ErrPermissionDenied, ErrPositionUnavailable or
// ErrTimeout on failure.
type Geolocator interface {
	Supported() bool
	CurrentPosition(ctx context.Context, opts Options) (Position, error)
}

// ReverseGeocoder turns coordinates into a display address.
type ReverseGeocoder interface {
	Address(ctx context.Context, latitude, longitude float64) (string, error)
}

// StaticGeolocator always reports the configured position. Kiosks bolted to a
// wall use it instead of a network lookup.
type StaticGeolocator struct {
	Latitude  float64
	Longitude float64
	Accuracy  float64
	now       func() time.Time
}

// NewStaticGeolocator creates a StaticGeolocator.
func NewStaticGeolocator(latitude, longitude, accuracy float64) *StaticGeolocator {
	return &StaticGeolocator{Latitude: latitude, Longitude: longitude, Accuracy: accuracy, now: time.Now}
}

func (s *StaticGeolocator) Supported() bool { return true }

func (s *StaticGeolocator) CurrentPosition(ctx context.Context, opts Options) (Position, error) {
	if err := ctx.Err(); err != nil {
		return Position{}, err
	}
	return Position{
		Latitude:  s.Latitude,
		Longitude: s.Longitude,
		Accuracy:  s.Accuracy,
		Timestamp: s.now(),
	}, nil
}
