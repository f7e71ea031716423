package models

import "time"

// Location represents a geographical location with latitude and longitude
type Location struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Timestamp time.Time `json:"timestamp"`
}

// DriverLocation is the latest position reported by a driver
type DriverLocation struct {
	DriverID  string    `json:"driver_id"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	UpdatedAt time.Time `json:"updated_at"`
	Available bool      `json:"available"`
}

// NearbyDriver is a radius query hit
type NearbyDriver struct {
	DriverID  string    `json:"driver_id"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Distance  float64   `json:"distance_km"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LocationReport is a driver location update received from a client or the location stream
type LocationReport struct {
	DriverID  string    `json:"driver_id"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Available *bool     `json:"available,omitempty"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// IsAvailable defaults to true when the client omits the flag
func (r LocationReport) IsAvailable() bool {
	return r.Available == nil || *r.Available
}

// ValidCoordinates reports whether lat/lng are within WGS84 bounds
func ValidCoordinates(lat, lng float64) bool {
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}
