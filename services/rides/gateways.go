package rides

import (
	"context"

	"github.com/piresc/nebengjek-dispatch/internal/pkg/models"
)

// RideGW defines the interface for ride gateway operations
// go:generate mockgen -destination=mocks/mock_gateway.go -package=mocks github.com/piresc/nebengjek-dispatch/services/rides RideGW
type RideGW interface {
	PublishRideLifecycle(ctx context.Context, event models.RideLifecycleEvent) error
}
