package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/piresc/nebengjek-dispatch/internal/pkg/logger"
	"github.com/piresc/nebengjek-dispatch/internal/pkg/metrics"
	"github.com/piresc/nebengjek-dispatch/internal/pkg/models"
	nrpkg "github.com/piresc/nebengjek-dispatch/internal/pkg/newrelic"
)

// RequestRide prices and creates a ride, then offers it to the nearest online
// drivers. It returns once the offers are sent; acceptance arrives separately.
func (uc *DispatchUC) RequestRide(ctx context.Context, riderID string, req models.RideRequest) (*models.Ride, error) {
	if riderID == "" {
		return nil, fmt.Errorf("%w: rider id is required", models.ErrInvalidRequest)
	}
	if !req.VehicleClass.Valid() {
		return nil, fmt.Errorf("%w: unknown vehicle class %q", models.ErrInvalidRequest, req.VehicleClass)
	}

	var pickup, destination models.Place
	err := nrpkg.WithSegment(ctx, "Dispatch.ResolvePlaces", func() error {
		var err error
		if pickup, err = uc.resolve(ctx, req.Pickup); err != nil {
			return fmt.Errorf("pickup: %w", err)
		}
		if destination, err = uc.resolve(ctx, req.Destination); err != nil {
			return fmt.Errorf("destination: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var fare float64
	err = nrpkg.WithSegment(ctx, "Dispatch.PriceQuote", func() error {
		var err error
		fare, err = uc.quoter.Quote(ctx, pickup, destination, req.VehicleClass)
		return upstreamErr("price quote", err)
	})
	if err != nil {
		return nil, err
	}

	ride, err := uc.rideUC.Create(ctx, models.CreateRideRequest{
		RiderID:      riderID,
		Pickup:       pickup,
		Destination:  destination,
		VehicleClass: req.VehicleClass,
		Fare:         fare,
	})
	if err != nil {
		return nil, err
	}
	metrics.RidesRequested.Inc()

	_ = nrpkg.WithSegment(ctx, "Dispatch.FanOut", func() error {
		uc.offerRide(ctx, ride)
		return nil
	})
	return ride, nil
}

// offerRide queries the index around the pickup and offers the ride to up to
// MaxFanout drivers. When RadiusSteps > 1 and no driver was reached, the radius
// grows by RadiusGrowth and only newly found drivers are offered.
func (uc *DispatchUC) offerRide(ctx context.Context, ride *models.Ride) {
	uc.offers.open(ride.ID)
	payload := rideEvent(models.EventRideOffered, ride.Redacted())

	radius := uc.cfg.SearchRadiusKm
	offered, reached := 0, 0
	for step := 0; step < uc.cfg.RadiusSteps && offered < uc.cfg.MaxFanout; step++ {
		if step > 0 {
			radius *= uc.cfg.RadiusGrowth
		}

		candidates, err := uc.index.Query(ctx, ride.Pickup.Latitude, ride.Pickup.Longitude, radius)
		if err != nil {
			// the ride exists and stays PENDING; its rider can cancel and retry
			logger.ErrorCtx(ctx, "Failed to query nearby drivers",
				logger.RideID(ride.ID),
				logger.Float64("radius_km", radius),
				logger.Err(err))
			break
		}

		ids := make([]string, 0, len(candidates))
		for _, c := range candidates {
			ids = append(ids, c.DriverID)
		}
		fresh := uc.offers.add(ride.ID, ids)
		if room := uc.cfg.MaxFanout - offered; len(fresh) > room {
			fresh = fresh[:room]
		}
		if len(fresh) == 0 {
			continue
		}
		// an accept or cancel may have landed before the set was opened
		if current, err := uc.rideUC.Get(ctx, ride.ID); err == nil && current.Status != models.RideStatusPending {
			uc.offers.close(ride.ID)
			logger.InfoCtx(ctx, "Ride left PENDING before it was offered",
				logger.RideID(ride.ID),
				logger.String("status", string(current.Status)))
			break
		}
		offered += len(fresh)

		for _, ds := range uc.notifier.PublishMany(ctx, fresh, models.EventRideOffered, payload) {
			if models.Delivered(ds) {
				reached++
			}
		}
		if reached > 0 {
			break
		}
	}

	metrics.OffersSent.Observe(float64(reached))
	logger.InfoCtx(ctx, "Ride offered",
		logger.RideID(ride.ID),
		logger.Int("candidates", offered),
		logger.Int("reached", reached),
		logger.Float64("radius_km", radius))
}

// RespondAccept locks the ride to driverID. The rider and the winner get
// ride.confirmed and every other offered driver gets ride.offer_closed. A driver
// that lost the race gets ride.offer_closed and models.ErrAlreadyAccepted; the
// winner accepting again just gets the ride back.
func (uc *DispatchUC) RespondAccept(ctx context.Context, rideID, driverID string) (*models.Ride, error) {
	ride, err := uc.rideUC.Accept(ctx, rideID, driverID)
	if errors.Is(err, models.ErrAlreadyAccepted) {
		current, getErr := uc.rideUC.Get(ctx, rideID)
		if getErr == nil && current.DriverID == driverID {
			// a repeated accept from the assigned driver, e.g. a frame resent after reconnect
			logger.DebugCtx(ctx, "Repeated accept from assigned driver",
				logger.RideID(rideID),
				logger.DriverID(driverID))
			if current.Status == models.RideStatusAccepted {
				return current.Redacted(), nil
			}
			return nil, err
		}
		closed := &models.Ride{ID: rideID}
		if getErr == nil {
			closed = current.Redacted()
		}
		uc.notifier.Publish(ctx, driverID, models.EventRideOfferClosed, rideEvent(models.EventRideOfferClosed, closed))
		return nil, err
	}
	if err != nil {
		return nil, err
	}

	uc.notifier.Publish(ctx, ride.RiderID, models.EventRideConfirmed, rideEvent(models.EventRideConfirmed, ride))
	uc.notifier.Publish(ctx, driverID, models.EventRideConfirmed, rideEvent(models.EventRideConfirmed, ride.Redacted()))

	others := without(uc.offers.close(rideID), driverID)
	if len(others) > 0 {
		uc.notifier.PublishMany(ctx, others, models.EventRideOfferClosed, rideEvent(models.EventRideOfferClosed, ride.Redacted()))
	}
	return ride.Redacted(), nil
}

// StartRide checks the rider's code and tells the rider the ride has started
func (uc *DispatchUC) StartRide(ctx context.Context, rideID, driverID, code string) (*models.Ride, error) {
	ride, err := uc.rideUC.Start(ctx, rideID, driverID, code)
	if err != nil {
		return nil, err
	}
	uc.notifyRider(ctx, ride, models.EventRideStarted)
	return ride, nil
}

// EndRide completes the ride and tells the rider
func (uc *DispatchUC) EndRide(ctx context.Context, rideID, driverID string) (*models.Ride, error) {
	ride, err := uc.rideUC.End(ctx, rideID, driverID)
	if err != nil {
		return nil, err
	}
	uc.notifyRider(ctx, ride, models.EventRideEnded)
	return ride, nil
}

// CancelRide cancels on behalf of the rider or the assigned driver. Outstanding
// offers are closed before it returns, and the other party gets ride.cancelled.
func (uc *DispatchUC) CancelRide(ctx context.Context, rideID, actorID string) (*models.Ride, error) {
	ride, released, err := uc.rideUC.Cancel(ctx, rideID, actorID)
	if err != nil {
		return nil, err
	}

	pending := without(uc.offers.close(rideID), released)
	if len(pending) > 0 {
		uc.notifier.PublishMany(ctx, pending, models.EventRideOfferClosed, rideEvent(models.EventRideOfferClosed, ride.Redacted()))
	}

	switch actorID {
	case ride.RiderID:
		if released != "" {
			uc.notifier.Publish(ctx, released, models.EventRideCancelled, rideEvent(models.EventRideCancelled, ride.Redacted()))
		}
	default:
		uc.notifier.Publish(ctx, ride.RiderID, models.EventRideCancelled, rideEvent(models.EventRideCancelled, ride))
	}
	return ride, nil
}

// GetRide returns the ride to its rider, its driver, or a driver it is offered to.
// Drivers never see the start code.
func (uc *DispatchUC) GetRide(ctx context.Context, principal models.Principal, rideID string) (*models.Ride, error) {
	ride, err := uc.rideUC.Get(ctx, rideID)
	if err != nil {
		return nil, err
	}
	switch {
	case principal.ID == ride.RiderID:
		return ride, nil
	case principal.ID == ride.DriverID:
		return ride.Redacted(), nil
	case principal.Role == models.RoleDriver && ride.Status == models.RideStatusPending && uc.offers.contains(rideID, principal.ID):
		return ride.Redacted(), nil
	}
	return nil, models.ErrNotParticipant
}

// notifyRider is best-effort: the ride record stays the source of truth
func (uc *DispatchUC) notifyRider(ctx context.Context, ride *models.Ride, eventType string) {
	ds := uc.notifier.Publish(ctx, ride.RiderID, eventType, rideEvent(eventType, ride))
	if !models.Delivered(ds) {
		logger.InfoCtx(ctx, "Rider not reachable, event not delivered",
			logger.RideID(ride.ID),
			logger.String("rider_id", ride.RiderID),
			logger.String("event", eventType))
	}
}

func (uc *DispatchUC) resolve(ctx context.Context, in models.PlaceInput) (models.Place, error) {
	if place, ok := in.Resolved(); ok {
		if !models.ValidCoordinates(place.Latitude, place.Longitude) {
			return models.Place{}, fmt.Errorf("%w: invalid coordinates", models.ErrInvalidRequest)
		}
		return place, nil
	}
	if in.Address == "" {
		return models.Place{}, fmt.Errorf("%w: coordinates or address required", models.ErrInvalidRequest)
	}
	place, err := uc.geocoder.Geocode(ctx, in.Address)
	if err != nil {
		return models.Place{}, upstreamErr("geocode", err)
	}
	return place, nil
}

// upstreamErr keeps caller mistakes as they are and turns everything else into
// models.ErrUpstreamUnavailable.
func upstreamErr(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, models.ErrInvalidRequest), errors.Is(err, models.ErrUpstreamUnavailable):
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, models.ErrUpstreamUnavailable, err)
}

func rideEvent(eventType string, ride *models.Ride) models.RideEvent {
	return models.RideEvent{EventType: eventType, Ride: ride}
}

func without(ids []string, exclude string) []string {
	out := ids[:0]
	for _, id := range ids {
		if id != exclude {
			out = append(out, id)
		}
	}
	return out
}
