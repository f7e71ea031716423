package rides

import (
	"context"

	"github.com/piresc/nebengjek-dispatch/internal/pkg/models"
)

// RideRepo defines the interface for ride data access operations
// go:generate mockgen -destination=mocks/mock_repository.go -package=mocks github.com/piresc/nebengjek-dispatch/services/rides RideRepo
type RideRepo interface {
	CreateRide(ctx context.Context, ride *models.Ride) error
	GetRide(ctx context.Context, rideID string) (*models.Ride, error)
	// UpdateRide writes ride only if the stored record still has expectedStatus and
	// expectedVersion, otherwise it returns models.ErrStatusConflict.
	UpdateRide(ctx context.Context, ride *models.Ride, expectedStatus models.RideStatus, expectedVersion int64) error
}
