package location

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// NominatimGeocoder reverse-geocodes through an OpenStreetMap Nominatim endpoint.
type NominatimGeocoder struct {
	baseURL   string
	userAgent string
	client    *http.Client
}

// NewNominatimGeocoder creates a geocoder for baseURL (e.g. https://nominatim.openstreetmap.org/reverse).
// Nominatim's usage policy requires an identifying User-Agent.
func NewNominatimGeocoder(baseURL, userAgent string, client *http.Client) *NominatimGeocoder {
	if client == nil {
		client = http.DefaultClient
	}
	return &NominatimGeocoder{baseURL: baseURL, userAgent: userAgent, client: client}
}

type nominatimResponse struct {
	DisplayName string `json:"display_name"`
}

// Address returns Nominatim's display_name, which may be empty.
func (g *NominatimGeocoder) Address(ctx context.Context, latitude, longitude float64) (string, error) {
	u, err := url.Parse(g.baseURL)
	if err != nil {
		return "", fmt.Errorf("geocoder url: %w", err)
	}
	q := u.Query()
	q.Set("format", "json")
	q.Set("lat", strconv.FormatFloat(latitude, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(longitude, 'f', -1, 64))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", g.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("reverse geocoding: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("reverse geocoding failed: status %d", resp.StatusCode)
	}

	var body nominatimResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("reverse geocoding decode: %w", err)
	}
	return body.DisplayName, nil
}
