package constants

// WebSocket client event types
const (
	EventError = "error"
	EventPing  = "ping"
	EventPong  = "pong"
	EventAck   = "ack"

	EventLocationUpdate = "location_update"
	EventRideAccept     = "ride_accept"
	EventRideStart      = "ride_start"
	EventRideEnd        = "ride_end"
	EventRideCancel     = "ride_cancel"
)

// WebSocket error codes
const (
	ErrorInvalidFormat       = "invalid_format"
	ErrorValidationFailed    = "validation_failed"
	ErrorUnauthorized        = "unauthorized"
	ErrorForbidden           = "forbidden"
	ErrorInternalError       = "internal_error"
	ErrorUnknownEvent        = "unknown_event"
	ErrorRideNotFound        = "ride_not_found"
	ErrorInvalidTransition   = "invalid_transition"
	ErrorAlreadyAccepted     = "already_accepted"
	ErrorNotAssignedDriver   = "not_assigned_driver"
	ErrorInvalidCode         = "invalid_code"
	ErrorUpstreamUnavailable = "upstream_unavailable"
)
