package constants

// NATS Subjects
const (
	// Location stream published by driver apps and other services
	SubjectLocationUpdate = "location.update"

	// Ride lifecycle, one subject per status: rides.lifecycle.{status}
	SubjectRideLifecyclePrefix = "rides.lifecycle."
	SubjectRideLifecycleAll    = "rides.lifecycle.>"

	// Queue group shared by dispatch replicas consuming the location stream
	QueueDispatch = "dispatch"
)
