package geomodel

// Record is a single row of raw telemetry.
type Record struct {
	Speed     float64 `json:"speed"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}
