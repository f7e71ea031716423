package models

// Event types pushed to clients
const (
	EventRideOffered     = "ride.offered"
	EventRideConfirmed   = "ride.confirmed"
	EventRideOfferClosed = "ride.offer_closed"
	EventRideStarted     = "ride.started"
	EventRideEnded       = "ride.ended"
	EventRideCancelled   = "ride.cancelled"
)

// RideEvent is the payload of every ride notification
type RideEvent struct {
	EventType string `json:"event_type"`
	Ride      *Ride  `json:"ride"`
}

// DeliveryOutcome is the result of pushing an event to one handle
type DeliveryOutcome string

const (
	DeliveryDelivered     DeliveryOutcome = "delivered"
	DeliveryFailed        DeliveryOutcome = "failed"
	DeliveryNoLiveSession DeliveryOutcome = "no_live_session"
)

// Delivery reports what happened to one event on one handle.
// SessionID is empty for DeliveryNoLiveSession.
type Delivery struct {
	ParticipantID string          `json:"participant_id"`
	SessionID     string          `json:"session_id,omitempty"`
	Outcome       DeliveryOutcome `json:"outcome"`
	Error         string          `json:"error,omitempty"`
}

// Delivered reports whether at least one handle received the event
func Delivered(ds []Delivery) bool {
	for _, d := range ds {
		if d.Outcome == DeliveryDelivered {
			return true
		}
	}
	return false
}
