package location

import (
	"errors"
	"fmt"
)

var (
	ErrGeolocationUnsupported = errors.New("geolocation is not supported")
	ErrPermissionDenied       = errors.New("location permission denied")
	ErrPositionUnavailable    = errors.New("location unavailable")
	ErrTimeout                = errors.New("location request timed out")
)

// Error is a classified geolocation failure. Unwrap yields one of the
// sentinel errors above so callers can use errors.Is.
type Error struct {
	Cause   error
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Cause, e.Err}
	}
	return []error{e.Cause}
}

// messages are the user-facing texts per cause.
var messages = map[error]string{
	ErrGeolocationUnsupported: "Geolocation is not supported on this device",
	ErrPermissionDenied:       "Location permission denied",
	ErrPositionUnavailable:    "Location unavailable",
	ErrTimeout:                "Location request timed out",
}

func newError(cause, err error) *Error {
	msg, ok := messages[cause]
	if !ok {
		msg = "Failed to get location"
	}
	return &Error{Cause: cause, Message: msg, Err: err}
}

// classify maps an arbitrary geolocator error onto a cause.
func classify(err error) error {
	for _, cause := range []error{ErrGeolocationUnsupported, ErrPermissionDenied, ErrTimeout, ErrPositionUnavailable} {
		if errors.Is(err, cause) {
			return cause
		}
	}
	return ErrPositionUnavailable
}

// Message returns the user-facing text for err, or a generic one.
func Message(err error) string {
	var le *Error
	if errors.As(err, &le) {
		return le.Message
	}
	return "Failed to get location"
}
