package usecase

import (
	"time"

	"github.com/piresc/nebengjek-dispatch/internal/pkg/keylock"
	"github.com/piresc/nebengjek-dispatch/internal/pkg/models"
	"github.com/piresc/nebengjek-dispatch/services/rides"
)

// RideUC implements the ride state machine
type RideUC struct {
	rideRepo rides.RideRepo
	rideGW   rides.RideGW
	locks    *keylock.Locker
	now      func() time.Time
}

// NewRideUC creates a new ride use case
func NewRideUC(
	rideRepo rides.RideRepo,
	rideGW rides.RideGW,
) *RideUC {
	return &RideUC{
		rideRepo: rideRepo,
		rideGW:   rideGW,
		locks:    keylock.New(),
		now:      models.Now,
	}
}
