package location

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// IPGeolocator locates the host through an ip-api.com compatible JSON endpoint.
// IP positions are coarse, so Accuracy is a configured constant.
type IPGeolocator struct {
	url      string
	accuracy float64
	client   *http.Client

	mu     sync.Mutex
	cached *Position
}

// NewIPGeolocator creates an IPGeolocator querying url.
func NewIPGeolocator(url string, accuracy float64, client *http.Client) *IPGeolocator {
	if client == nil {
		client = http.DefaultClient
	}
	return &IPGeolocator{url: url, accuracy: accuracy, client: client}
}

type ipAPIResponse struct {
	Status  string  `json:"status"`
	Message string  `json:"message"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

func (g *IPGeolocator) Supported() bool { return g.url != "" }

// CurrentPosition honours opts.Timeout and serves a cached fix younger than opts.MaximumAge.
func (g *IPGeolocator) CurrentPosition(ctx context.Context, opts Options) (Position, error) {
	if p, ok := g.fresh(opts.MaximumAge); ok {
		return p, nil
	}

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.url, nil)
	if err != nil {
		return Position{}, fmt.Errorf("%w: %v", ErrPositionUnavailable, err)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return Position{}, fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		if errors.Is(err, context.Canceled) {
			return Position{}, err
		}
		return Position{}, fmt.Errorf("%w: %v", ErrPositionUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusUnauthorized:
		return Position{}, fmt.Errorf("%w: status %d", ErrPermissionDenied, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return Position{}, fmt.Errorf("%w: status %d", ErrPositionUnavailable, resp.StatusCode)
	}

	var body ipAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return Position{}, fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return Position{}, fmt.Errorf("%w: decode: %v", ErrPositionUnavailable, err)
	}
	if body.Status != "" && body.Status != "success" {
		return Position{}, fmt.Errorf("%w: %s", ErrPositionUnavailable, body.Message)
	}

	p := Position{Latitude: body.Lat, Longitude: body.Lon, Accuracy: g.accuracy, Timestamp: time.Now()}
	g.mu.Lock()
	g.cached = &p
	g.mu.Unlock()
	return p, nil
}

func (g *IPGeolocator) fresh(maxAge time.Duration) (Position, bool) {
	if maxAge <= 0 {
		return Position{}, false
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.cached == nil || time.Since(g.cached.Timestamp) > maxAge {
		return Position{}, false
	}
	return *g.cached, true
}
