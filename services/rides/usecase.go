package rides

import (
	"context"

	"github.com/piresc/nebengjek-dispatch/internal/pkg/models"
)

// RideUC defines the ride state machine
// go:generate mockgen -destination=mocks/mock_usecase.go -package=mocks github.com/piresc/nebengjek-dispatch/services/rides RideUC
type RideUC interface {
	Create(ctx context.Context, req models.CreateRideRequest) (*models.Ride, error)
	Accept(ctx context.Context, rideID, driverID string) (*models.Ride, error)
	Start(ctx context.Context, rideID, driverID, code string) (*models.Ride, error)
	End(ctx context.Context, rideID, driverID string) (*models.Ride, error)
	// Cancel also returns the driver released by the cancellation, if any.
	Cancel(ctx context.Context, rideID, actorID string) (*models.Ride, string, error)
	Get(ctx context.Context, rideID string) (*models.Ride, error)
}
