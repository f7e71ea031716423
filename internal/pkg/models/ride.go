package models

import (
	"time"
)

// RideStatus represents the status of a ride
type RideStatus string

const (
	RideStatusPending   RideStatus = "PENDING"
	RideStatusAccepted  RideStatus = "ACCEPTED"
	RideStatusOngoing   RideStatus = "ONGOING"
	RideStatusCompleted RideStatus = "COMPLETED"
	RideStatusCancelled RideStatus = "CANCELLED"
)

// IsTerminal reports whether no transition can leave the status
func (s RideStatus) IsTerminal() bool {
	return s == RideStatusCompleted || s == RideStatusCancelled
}

// HasDriver reports whether a ride in this status carries an assigned driver
func (s RideStatus) HasDriver() bool {
	return s == RideStatusAccepted || s == RideStatusOngoing || s == RideStatusCompleted
}

// VehicleClass is the kind of vehicle a rider asks for
type VehicleClass string

const (
	VehicleAuto VehicleClass = "auto"
	VehicleCar  VehicleClass = "car"
	VehicleMoto VehicleClass = "moto"
)

// VehicleClasses lists every supported class in quote order
var VehicleClasses = []VehicleClass{VehicleAuto, VehicleCar, VehicleMoto}

// Valid reports whether v is a supported vehicle class
func (v VehicleClass) Valid() bool {
	for _, c := range VehicleClasses {
		if v == c {
			return true
		}
	}
	return false
}

// Place is a coordinate with an optional free-text label
type Place struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Address   string  `json:"address,omitempty"`
}

// Ride represents a ride record. The state machine owns it for its whole lifecycle.
type Ride struct {
	ID            string       `json:"ride_id" db:"id"`
	RiderID       string       `json:"rider_id" db:"rider_id"`
	DriverID      string       `json:"driver_id,omitempty" db:"driver_id"`
	Pickup        Place        `json:"pickup"`
	Destination   Place        `json:"destination"`
	VehicleClass  VehicleClass `json:"vehicle_class" db:"vehicle_class"`
	Fare          float64      `json:"fare" db:"fare"`
	StartCode     string       `json:"start_code,omitempty" db:"start_code"`
	StartCodeUsed bool         `json:"-" db:"start_code_used"`
	Status        RideStatus   `json:"status" db:"status"`
	Version       int64        `json:"version" db:"version"`
	CreatedAt     time.Time    `json:"created_at" db:"created_at"`
	AcceptedAt    *time.Time   `json:"accepted_at,omitempty" db:"accepted_at"`
	StartedAt     *time.Time   `json:"started_at,omitempty" db:"started_at"`
	CompletedAt   *time.Time   `json:"completed_at,omitempty" db:"completed_at"`
	CancelledAt   *time.Time   `json:"cancelled_at,omitempty" db:"cancelled_at"`
}

// Clone returns a deep copy so callers never share timestamp pointers
func (r *Ride) Clone() *Ride {
	if r == nil {
		return nil
	}
	c := *r
	c.AcceptedAt = cloneTime(r.AcceptedAt)
	c.StartedAt = cloneTime(r.StartedAt)
	c.CompletedAt = cloneTime(r.CompletedAt)
	c.CancelledAt = cloneTime(r.CancelledAt)
	return &c
}

// Redacted returns a copy without the start code, for driver-facing payloads
func (r *Ride) Redacted() *Ride {
	c := r.Clone()
	if c != nil {
		c.StartCode = ""
	}
	return c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

// RideDTO flattens a Ride for database operations
type RideDTO struct {
	ID                   string         `db:"id"`
	RiderID              string         `db:"rider_id"`
	DriverID             *string        `db:"driver_id"`
	PickupLatitude       float64        `db:"pickup_latitude"`
	PickupLongitude      float64        `db:"pickup_longitude"`
	PickupAddress        string         `db:"pickup_address"`
	DestinationLatitude  float64        `db:"destination_latitude"`
	DestinationLongitude float64        `db:"destination_longitude"`
	DestinationAddress   string         `db:"destination_address"`
	VehicleClass         VehicleClass   `db:"vehicle_class"`
	Fare                 float64        `db:"fare"`
	StartCode            string         `db:"start_code"`
	StartCodeUsed        bool           `db:"start_code_used"`
	Status               RideStatus     `db:"status"`
	Version              int64          `db:"version"`
	CreatedAt            time.Time      `db:"created_at"`
	AcceptedAt           *time.Time     `db:"accepted_at"`
	StartedAt            *time.Time     `db:"started_at"`
	CompletedAt          *time.Time     `db:"completed_at"`
	CancelledAt          *time.Time     `db:"cancelled_at"`
}

// ToDTO converts a Ride to a RideDTO
func (r *Ride) ToDTO() *RideDTO {
	dto := &RideDTO{
		ID:                   r.ID,
		RiderID:              r.RiderID,
		PickupLatitude:       r.Pickup.Latitude,
		PickupLongitude:      r.Pickup.Longitude,
		PickupAddress:        r.Pickup.Address,
		DestinationLatitude:  r.Destination.Latitude,
		DestinationLongitude: r.Destination.Longitude,
		DestinationAddress:   r.Destination.Address,
		VehicleClass:         r.VehicleClass,
		Fare:                 r.Fare,
		StartCode:            r.StartCode,
		StartCodeUsed:        r.StartCodeUsed,
		Status:               r.Status,
		Version:              r.Version,
		CreatedAt:            r.CreatedAt,
		AcceptedAt:           r.AcceptedAt,
		StartedAt:            r.StartedAt,
		CompletedAt:          r.CompletedAt,
		CancelledAt:          r.CancelledAt,
	}
	if r.DriverID != "" {
		driverID := r.DriverID
		dto.DriverID = &driverID
	}
	return dto
}

// ToRide converts a RideDTO to a Ride
func (dto *RideDTO) ToRide() *Ride {
	ride := &Ride{
		ID:      dto.ID,
		RiderID: dto.RiderID,
		Pickup: Place{
			Latitude:  dto.PickupLatitude,
			Longitude: dto.PickupLongitude,
			Address:   dto.PickupAddress,
		},
		Destination: Place{
			Latitude:  dto.DestinationLatitude,
			Longitude: dto.DestinationLongitude,
			Address:   dto.DestinationAddress,
		},
		VehicleClass:  dto.VehicleClass,
		Fare:          dto.Fare,
		StartCode:     dto.StartCode,
		StartCodeUsed: dto.StartCodeUsed,
		Status:        dto.Status,
		Version:       dto.Version,
		CreatedAt:     dto.CreatedAt,
		AcceptedAt:    dto.AcceptedAt,
		StartedAt:     dto.StartedAt,
		CompletedAt:   dto.CompletedAt,
		CancelledAt:   dto.CancelledAt,
	}
	if dto.DriverID != nil {
		ride.DriverID = *dto.DriverID
	}
	return ride
}

// CreateRideRequest carries the resolved inputs of a new ride
type CreateRideRequest struct {
	RiderID      string
	Pickup       Place
	Destination  Place
	VehicleClass VehicleClass
	Fare         float64
}

// PlaceInput is a place as sent by a client: coordinates, an address to
// geocode, or both. Coordinates win when present.
type PlaceInput struct {
	Latitude  *float64 `json:"latitude,omitempty" query:"lat"`
	Longitude *float64 `json:"longitude,omitempty" query:"lng"`
	Address   string   `json:"address,omitempty" query:"address"`
}

// Resolved returns the place when both coordinates are supplied
func (p PlaceInput) Resolved() (Place, bool) {
	if p.Latitude == nil || p.Longitude == nil {
		return Place{}, false
	}
	return Place{Latitude: *p.Latitude, Longitude: *p.Longitude, Address: p.Address}, true
}

// RideRequest is the rider's request before geocoding and quoting
type RideRequest struct {
	Pickup       PlaceInput   `json:"pickup"`
	Destination  PlaceInput   `json:"destination"`
	VehicleClass VehicleClass `json:"vehicle_class"`
}

// RideActionRequest carries a driver or rider action on an existing ride
type RideActionRequest struct {
	RideID string `json:"ride_id"`
	Code   string `json:"code,omitempty"`
}

// RideLifecycleEvent is published for downstream consumers after each transition
type RideLifecycleEvent struct {
	RideID     string     `json:"ride_id"`
	RiderID    string     `json:"rider_id"`
	DriverID   string     `json:"driver_id,omitempty"`
	Status     RideStatus `json:"status"`
	Fare       float64    `json:"fare"`
	Version    int64      `json:"version"`
	OccurredAt time.Time  `json:"occurred_at"`
}
