package model

// GeoResult is one resolved device location.
type GeoResult struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	// Address carries the inaccuracy warning as a prefix when the fix is poor.
	Address  string  `json:"address"`
	MapURL   string  `json:"mapUrl"`
	Accuracy float64 `json:"accuracy"`
}
