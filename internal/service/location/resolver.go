package location

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"
	"webcapture/internal/logger"
	"webcapture/internal/model"
)

const (
	// InaccuracyWarning prefixes the address of a fix worse than the accuracy threshold.
	InaccuracyWarning = "⚠ Location may be inaccurate. "
	// UnknownAddress is shown when the lookup succeeds without a name.
	UnknownAddress = "unknown location"
	// LookupFailedAddress is shown when the reverse lookup itself fails.
	LookupFailedAddress = "address lookup failed"
)

// Settings are the resolver timeouts and thresholds.
type Settings struct {
	MobileTimeout     time.Duration // T1 on mobile, high accuracy
	DesktopTimeout    time.Duration // T1 on desktop
	FallbackTimeout   time.Duration // T2, relaxed accuracy retry
	MaximumAge        time.Duration
	AccuracyThreshold float64 // meters
}

// Budget is the longest a Resolve for class can take: the first attempt,
// plus the relaxed retry on mobile.
func (s Settings) Budget(class model.DeviceClass) time.Duration {
	if class == model.DeviceMobile {
		return s.MobileTimeout + s.FallbackTimeout
	}
	return s.DesktopTimeout
}

// DefaultSettings match the browser defaults the attendance form used.
func DefaultSettings() Settings {
	return Settings{
		MobileTimeout:     15 * time.Second,
		DesktopTimeout:    20 * time.Second,
		FallbackTimeout:   20 * time.Second,
		MaximumAge:        60 * time.Second,
		AccuracyThreshold: 300,
	}
}

type state int

const (
	stateRequest state = iota
	stateRetry
	stateSuccess
	stateFail
)

// Resolver turns a device position into a GeoResult.
type Resolver struct {
	geolocator Geolocator
	geocoder   ReverseGeocoder
	settings   Settings
	logger     *logger.Logger

	mu      sync.Mutex
	request uint64
	last    *model.GeoResult
}

// NewResolver creates a Resolver.
func NewResolver(geolocator Geolocator, geocoder ReverseGeocoder, settings Settings, logger *logger.Logger) *Resolver {
	return &Resolver{
		geolocator: geolocator,
		geocoder:   geocoder,
		settings:   settings,
		logger:     logger,
	}
}

// Resolve runs Request -> (Retry) -> Success/Fail. Only a timeout on the
// first attempt from a mobile device is retried, once, without high accuracy.
func (r *Resolver) Resolve(ctx context.Context, class model.DeviceClass) (model.GeoResult, error) {
	if r.geolocator == nil || !r.geolocator.Supported() {
		return model.GeoResult{}, newError(ErrGeolocationUnsupported, nil)
	}

	r.mu.Lock()
	r.request++
	id := r.request
	r.mu.Unlock()

	mobile := class == model.DeviceMobile
	opts := r.requestOptions(mobile)

	var (
		pos     Position
		lastErr error
		st      = stateRequest
	)
	for st == stateRequest || st == stateRetry {
		p, err := r.attempt(ctx, opts)
		switch {
		case err == nil:
			pos = p
			st = stateSuccess
		case errors.Is(ctx.Err(), context.Canceled):
			return model.GeoResult{}, ctx.Err()
		case ctx.Err() != nil:
			// The caller's deadline leaves no time for a retry.
			lastErr = err
			st = stateFail
		case st == stateRequest && mobile && errors.Is(err, ErrTimeout):
			r.logger.Warning("High accuracy location timed out after %v, retrying with low accuracy", opts.Timeout)
			opts = r.retryOptions()
			st = stateRetry
		default:
			lastErr = err
			st = stateFail
		}
	}

	if st == stateFail {
		cause := classify(lastErr)
		r.logger.Error("Location failed: %v", lastErr)
		return model.GeoResult{}, newError(cause, lastErr)
	}

	result := r.buildResult(ctx, pos)

	r.mu.Lock()
	if id == r.request {
		r.last = &result
	}
	r.mu.Unlock()

	return result, nil
}

// Last returns the cached result of the latest successful resolution.
func (r *Resolver) Last() (model.GeoResult, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.last == nil {
		return model.GeoResult{}, false
	}
	return *r.last, true
}

func (r *Resolver) requestOptions(mobile bool) Options {
	timeout := r.settings.DesktopTimeout
	if mobile {
		timeout = r.settings.MobileTimeout
	}
	return Options{HighAccuracy: mobile, Timeout: timeout, MaximumAge: r.settings.MaximumAge}
}

func (r *Resolver) retryOptions() Options {
	return Options{HighAccuracy: false, Timeout: r.settings.FallbackTimeout, MaximumAge: r.settings.MaximumAge}
}

// attempt enforces the timeout even for geolocators that ignore it.
func (r *Resolver) attempt(ctx context.Context, opts Options) (Position, error) {
	attemptCtx := ctx
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	pos, err := r.geolocator.CurrentPosition(attemptCtx, opts)
	if err != nil {
		if !errors.Is(ctx.Err(), context.Canceled) && errors.Is(err, context.DeadlineExceeded) {
			return Position{}, fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return Position{}, err
	}
	return pos, nil
}

func (r *Resolver) buildResult(ctx context.Context, pos Position) model.GeoResult {
	address := UnknownAddress
	if r.geocoder != nil {
		name, err := r.geocoder.Address(ctx, pos.Latitude, pos.Longitude)
		switch {
		case err != nil:
			r.logger.Warning("Reverse geocoding error: %v", err)
			address = LookupFailedAddress
		case name != "":
			address = name
		}
	}

	if pos.Accuracy > r.settings.AccuracyThreshold {
		address = InaccuracyWarning + address
	}

	return model.GeoResult{
		Latitude:  pos.Latitude,
		Longitude: pos.Longitude,
		Address:   address,
		MapURL:    MapURL(pos.Latitude, pos.Longitude),
		Accuracy:  pos.Accuracy,
	}
}

// MapURL links the coordinates on Google Maps.
func MapURL(latitude, longitude float64) string {
	return "https://www.google.com/maps?q=" +
		strconv.FormatFloat(latitude, 'f', -1, 64) + "," +
		strconv.FormatFloat(longitude, 'f', -1, 64)
}
