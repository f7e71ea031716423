package usecase

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math"
	"math/big"
	"strings"

	"github.com/google/uuid"
	"github.com/piresc/nebengjek-dispatch/internal/pkg/logger"
	"github.com/piresc/nebengjek-dispatch/internal/pkg/metrics"
	"github.com/piresc/nebengjek-dispatch/internal/pkg/models"
)

const (
	startCodeDigits = 6
	// A ride has at most four transitions, so a conflict can only repeat a few times.
	maxCASAttempts = 8
)

var startCodeSpace = big.NewInt(1_000_000)

// Create stores a new PENDING ride with a fresh start code. The fare is kept in
// whole cents so the stored ride reads back exactly as returned.
func (uc *RideUC) Create(ctx context.Context, req models.CreateRideRequest) (*models.Ride, error) {
	if err := validateCreate(req); err != nil {
		return nil, err
	}

	code, err := generateStartCode()
	if err != nil {
		return nil, fmt.Errorf("failed to generate start code: %w", err)
	}

	ride := &models.Ride{
		ID:           uuid.New().String(),
		RiderID:      req.RiderID,
		Pickup:       req.Pickup,
		Destination:  req.Destination,
		VehicleClass: req.VehicleClass,
		Fare:         math.Round(req.Fare*100) / 100,
		StartCode:    code,
		Status:       models.RideStatusPending,
		Version:      1,
		CreatedAt:    uc.now(),
	}
	if err := uc.rideRepo.CreateRide(ctx, ride); err != nil {
		return nil, fmt.Errorf("failed to create ride: %w", err)
	}

	metrics.RideTransitions.WithLabelValues(string(ride.Status)).Inc()
	uc.publish(ctx, ride)
	logger.InfoCtx(ctx, "Ride created",
		logger.RideID(ride.ID),
		logger.String("rider_id", ride.RiderID),
		logger.String("vehicle_class", string(ride.VehicleClass)),
		logger.Float64("fare", ride.Fare))
	return ride.Clone(), nil
}

// Accept assigns driverID to a PENDING ride. Exactly one concurrent caller wins;
// the rest get models.ErrAlreadyAccepted.
func (uc *RideUC) Accept(ctx context.Context, rideID, driverID string) (*models.Ride, error) {
	if driverID == "" {
		return nil, models.ErrInvalidRequest
	}
	ride, err := uc.transition(ctx, rideID, func(r *models.Ride) error {
		switch r.Status {
		case models.RideStatusPending:
		case models.RideStatusAccepted, models.RideStatusOngoing:
			return models.ErrAlreadyAccepted
		default:
			return models.ErrInvalidTransition
		}
		now := uc.now()
		r.DriverID = driverID
		r.Status = models.RideStatusAccepted
		r.AcceptedAt = &now
		return nil
	})

	switch {
	case err == nil:
		metrics.AcceptOutcomes.WithLabelValues("won").Inc()
	case errors.Is(err, models.ErrAlreadyAccepted):
		metrics.AcceptOutcomes.WithLabelValues("already_accepted").Inc()
	default:
		metrics.AcceptOutcomes.WithLabelValues("rejected").Inc()
	}
	return ride, err
}

// Start moves an ACCEPTED ride to ONGOING. The code is consumed on success.
func (uc *RideUC) Start(ctx context.Context, rideID, driverID, code string) (*models.Ride, error) {
	return uc.transition(ctx, rideID, func(r *models.Ride) error {
		if r.Status != models.RideStatusAccepted {
			return models.ErrInvalidTransition
		}
		if r.DriverID != driverID {
			return models.ErrNotAssignedDriver
		}
		if r.StartCodeUsed || !codeMatches(r.StartCode, code) {
			return models.ErrInvalidCode
		}
		now := uc.now()
		r.Status = models.RideStatusOngoing
		r.StartedAt = &now
		r.StartCode = ""
		r.StartCodeUsed = true
		return nil
	})
}

// End completes an ONGOING ride
func (uc *RideUC) End(ctx context.Context, rideID, driverID string) (*models.Ride, error) {
	return uc.transition(ctx, rideID, func(r *models.Ride) error {
		if r.Status != models.RideStatusOngoing {
			return models.ErrInvalidTransition
		}
		if r.DriverID != driverID {
			return models.ErrNotAssignedDriver
		}
		now := uc.now()
		r.Status = models.RideStatusCompleted
		r.CompletedAt = &now
		return nil
	})
}

// Cancel cancels a PENDING or ACCEPTED ride on behalf of its rider or assigned
// driver. The driver is released so a cancelled ride carries none.
func (uc *RideUC) Cancel(ctx context.Context, rideID, actorID string) (*models.Ride, string, error) {
	var released string
	ride, err := uc.transition(ctx, rideID, func(r *models.Ride) error {
		if actorID == "" || (actorID != r.RiderID && actorID != r.DriverID) {
			return models.ErrNotParticipant
		}
		if r.Status != models.RideStatusPending && r.Status != models.RideStatusAccepted {
			return models.ErrInvalidTransition
		}
		now := uc.now()
		released = r.DriverID
		r.DriverID = ""
		r.Status = models.RideStatusCancelled
		r.CancelledAt = &now
		return nil
	})
	if err != nil {
		return nil, "", err
	}
	return ride, released, nil
}

// Get returns the current ride snapshot
func (uc *RideUC) Get(ctx context.Context, rideID string) (*models.Ride, error) {
	ride, err := uc.rideRepo.GetRide(ctx, rideID)
	if err != nil {
		return nil, err
	}
	return ride, nil
}

// transition serialises mutations of one ride in-process and relies on the
// repository compare-and-set against writers in other processes. On a conflict
// the ride is reloaded and apply decides again against the newer state.
func (uc *RideUC) transition(ctx context.Context, rideID string, apply func(r *models.Ride) error) (*models.Ride, error) {
	if rideID == "" {
		return nil, models.ErrInvalidRequest
	}

	unlock := uc.locks.Lock(rideID)
	defer unlock()

	for attempt := 0; attempt < maxCASAttempts; attempt++ {
		ride, err := uc.rideRepo.GetRide(ctx, rideID)
		if err != nil {
			return nil, err
		}

		from, version := ride.Status, ride.Version
		if err := apply(ride); err != nil {
			logTransitionRejected(ctx, ride, err)
			return nil, err
		}
		ride.Version = version + 1

		err = uc.rideRepo.UpdateRide(ctx, ride, from, version)
		if errors.Is(err, models.ErrStatusConflict) {
			logger.DebugCtx(ctx, "Ride changed concurrently, retrying",
				logger.RideID(rideID),
				logger.Int("attempt", attempt+1))
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to update ride: %w", err)
		}

		metrics.RideTransitions.WithLabelValues(string(ride.Status)).Inc()
		uc.publish(ctx, ride)
		logger.InfoCtx(ctx, "Ride transitioned",
			logger.RideID(ride.ID),
			logger.String("from", string(from)),
			logger.String("to", string(ride.Status)),
			logger.DriverID(ride.DriverID))
		return ride.Clone(), nil
	}
	return nil, fmt.Errorf("ride %s: %w", rideID, models.ErrStatusConflict)
}

// publish emits the lifecycle record. Failure never rolls back the transition.
func (uc *RideUC) publish(ctx context.Context, ride *models.Ride) {
	if uc.rideGW == nil {
		return
	}
	event := models.RideLifecycleEvent{
		RideID:     ride.ID,
		RiderID:    ride.RiderID,
		DriverID:   ride.DriverID,
		Status:     ride.Status,
		Fare:       ride.Fare,
		Version:    ride.Version,
		OccurredAt: uc.now(),
	}
	if err := uc.rideGW.PublishRideLifecycle(ctx, event); err != nil {
		logger.WarnCtx(ctx, "Failed to publish ride lifecycle event",
			logger.RideID(ride.ID),
			logger.String("status", string(ride.Status)),
			logger.Err(err))
	}
}

// Losing an accept race is the common case in a fan-out, not an anomaly.
func logTransitionRejected(ctx context.Context, ride *models.Ride, err error) {
	fields := []logger.Field{
		logger.RideID(ride.ID),
		logger.String("status", string(ride.Status)),
		logger.Err(err),
	}
	if errors.Is(err, models.ErrAlreadyAccepted) {
		logger.DebugCtx(ctx, "Ride already accepted", fields...)
		return
	}
	logger.InfoCtx(ctx, "Ride transition rejected", fields...)
}

func validateCreate(req models.CreateRideRequest) error {
	switch {
	case strings.TrimSpace(req.RiderID) == "":
		return fmt.Errorf("%w: rider id is required", models.ErrInvalidRequest)
	case !req.VehicleClass.Valid():
		return fmt.Errorf("%w: unknown vehicle class %q", models.ErrInvalidRequest, req.VehicleClass)
	case !models.ValidCoordinates(req.Pickup.Latitude, req.Pickup.Longitude):
		return fmt.Errorf("%w: invalid pickup coordinates", models.ErrInvalidRequest)
	case !models.ValidCoordinates(req.Destination.Latitude, req.Destination.Longitude):
		return fmt.Errorf("%w: invalid destination coordinates", models.ErrInvalidRequest)
	case req.Fare < 0:
		return fmt.Errorf("%w: fare must not be negative", models.ErrInvalidRequest)
	}
	return nil
}

func generateStartCode() (string, error) {
	n, err := rand.Int(rand.Reader, startCodeSpace)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", startCodeDigits, n.Int64()), nil
}

func codeMatches(want, got string) bool {
	return want != "" && subtle.ConstantTimeCompare([]byte(want), []byte(got)) == 1
}
