package dispatch

import (
	"context"

	"github.com/piresc/nebengjek-dispatch/internal/pkg/models"
)

// DispatchUC orchestrates matching, ride transitions and client notifications
// go:generate mockgen -destination=mocks/mock_usecase.go -package=mocks github.com/piresc/nebengjek-dispatch/services/dispatch DispatchUC
type DispatchUC interface {
	RequestRide(ctx context.Context, riderID string, req models.RideRequest) (*models.Ride, error)
	RespondAccept(ctx context.Context, rideID, driverID string) (*models.Ride, error)
	StartRide(ctx context.Context, rideID, driverID, code string) (*models.Ride, error)
	EndRide(ctx context.Context, rideID, driverID string) (*models.Ride, error)
	CancelRide(ctx context.Context, rideID, actorID string) (*models.Ride, error)
	GetRide(ctx context.Context, principal models.Principal, rideID string) (*models.Ride, error)
	QuoteFares(ctx context.Context, pickup, destination models.PlaceInput) (*models.FareQuote, error)
	SuggestPlaces(ctx context.Context, input string) ([]string, error)

	ReportLocation(ctx context.Context, report models.LocationReport) error
	Join(ctx context.Context, principal models.Principal, handle models.SessionHandle) *models.Session
	Leave(ctx context.Context, principal models.Principal, handle models.SessionHandle)
}

// Presence resolves participants to live sessions
type Presence interface {
	Join(participantID string, role models.Role, handle models.SessionHandle) *models.Session
	Leave(handle models.SessionHandle) (participantID string, offline bool)
	SessionsFor(participantID string) []models.Session
}

// Notifier pushes events to participants
type Notifier interface {
	Publish(ctx context.Context, participantID, eventType string, payload interface{}) []models.Delivery
	PublishMany(ctx context.Context, participantIDs []string, eventType string, payload interface{}) map[string][]models.Delivery
}
