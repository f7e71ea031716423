package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piresc/nebengjek-dispatch/internal/pkg/models"
	"github.com/piresc/nebengjek-dispatch/services/dispatch/mocks"
	locmocks "github.com/piresc/nebengjek-dispatch/services/location/mocks"
	locrepo "github.com/piresc/nebengjek-dispatch/services/location/repository"
	"github.com/piresc/nebengjek-dispatch/services/notification"
	"github.com/piresc/nebengjek-dispatch/services/presence"
	ridemocks "github.com/piresc/nebengjek-dispatch/services/rides/mocks"
	riderepo "github.com/piresc/nebengjek-dispatch/services/rides/repository"
	ridesuc "github.com/piresc/nebengjek-dispatch/services/rides/usecase"
)

// roughly one kilometre of latitude
const kmNorth = 0.0089932

type sent struct {
	event   string
	payload interface{}
}

type recordingHandle struct {
	id string

	mu     sync.Mutex
	events []sent
}

func (h *recordingHandle) ID() string { return h.id }

func (h *recordingHandle) Send(_ context.Context, event string, payload interface{}) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, sent{event: event, payload: payload})
	return nil
}

func (h *recordingHandle) names() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, 0, len(h.events))
	for _, e := range h.events {
		out = append(out, e.event)
	}
	return out
}

// last returns the ride carried by the most recent event of the given type
func (h *recordingHandle) last(t *testing.T, event string) *models.Ride {
	t.Helper()
	h.mu.Lock()
	defer h.mu.Unlock()
	for i := len(h.events) - 1; i >= 0; i-- {
		if h.events[i].event == event {
			ev, ok := h.events[i].payload.(models.RideEvent)
			require.True(t, ok, "payload is %T", h.events[i].payload)
			assert.Equal(t, event, ev.EventType)
			return ev.Ride
		}
	}
	t.Fatalf("no %s event received", event)
	return nil
}

type harness struct {
	uc       *DispatchUC
	rides    *ridesuc.RideUC
	index    *locrepo.GridIndex
	registry *presence.Registry
	geocoder *mocks.MockGeocoder
	quoter   *mocks.MockPriceQuoter
}

func newHarness(t *testing.T, match models.MatchConfig) *harness {
	ctrl := gomock.NewController(t)
	rideGW := ridemocks.NewMockRideGW(ctrl)
	rideGW.EXPECT().PublishRideLifecycle(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	h := &harness{
		rides:    ridesuc.NewRideUC(riderepo.NewMemoryRepo(), rideGW),
		index:    locrepo.NewGridIndex(models.LocationConfig{}),
		registry: presence.NewRegistry(),
		geocoder: mocks.NewMockGeocoder(ctrl),
		quoter:   mocks.NewMockPriceQuoter(ctrl),
	}
	bus := notification.NewBus(h.registry, models.NotifyConfig{WriteTimeout: time.Second})
	h.uc = NewDispatchUC(&models.Config{Match: match}, h.rides, h.index, h.registry, bus, h.geocoder, h.quoter)
	return h
}

func defaultMatch() models.MatchConfig {
	return models.MatchConfig{SearchRadiusKm: 5, MaxFanout: 20}
}

func (h *harness) online(t *testing.T, id string, role models.Role) *recordingHandle {
	t.Helper()
	handle := &recordingHandle{id: id + "-conn"}
	h.uc.Join(context.Background(), models.Principal{ID: id, Role: role}, handle)
	return handle
}

func (h *harness) driverAt(t *testing.T, id string, kmAway float64) {
	t.Helper()
	require.NoError(t, h.uc.ReportLocation(context.Background(), models.LocationReport{
		DriverID:  id,
		Latitude:  kmAway * kmNorth,
		Longitude: 0,
		Timestamp: time.Now(),
	}))
}

func coords(lat, lng float64) models.PlaceInput {
	return models.PlaceInput{Latitude: &lat, Longitude: &lng}
}

func rideRequest() models.RideRequest {
	return models.RideRequest{
		Pickup:       coords(0, 0),
		Destination:  coords(0.05, 0.05),
		VehicleClass: models.VehicleCar,
	}
}

func TestRequestRide_FullLifecycle(t *testing.T) {
	h := newHarness(t, defaultMatch())
	ctx := context.Background()
	h.quoter.EXPECT().Quote(gomock.Any(), gomock.Any(), gomock.Any(), models.VehicleCar).Return(120.0, nil)

	rider := h.online(t, "rider-r", models.RoleRider)
	driverA := h.online(t, "driver-a", models.RoleDriver)
	h.driverAt(t, "driver-a", 1)
	h.driverAt(t, "driver-b", 2) // indexed but no live session

	ride, err := h.uc.RequestRide(ctx, "rider-r", rideRequest())
	require.NoError(t, err)
	assert.Equal(t, models.RideStatusPending, ride.Status)
	assert.Equal(t, 120.0, ride.Fare)
	require.Len(t, ride.StartCode, 6)

	assert.Equal(t, []string{models.EventRideOffered}, driverA.names())
	offered := driverA.last(t, models.EventRideOffered)
	assert.Equal(t, ride.ID, offered.ID)
	assert.Empty(t, offered.StartCode)

	accepted, err := h.uc.RespondAccept(ctx, ride.ID, "driver-a")
	require.NoError(t, err)
	assert.Equal(t, models.RideStatusAccepted, accepted.Status)
	assert.Equal(t, "driver-a", accepted.DriverID)
	assert.Empty(t, accepted.StartCode)

	confirmed := rider.last(t, models.EventRideConfirmed)
	assert.Equal(t, "driver-a", confirmed.DriverID)
	assert.Equal(t, ride.StartCode, confirmed.StartCode)
	assert.Empty(t, driverA.last(t, models.EventRideConfirmed).StartCode)

	wrong := "000000"
	if ride.StartCode == wrong {
		wrong = "111111"
	}
	_, err = h.uc.StartRide(ctx, ride.ID, "driver-a", wrong)
	assert.ErrorIs(t, err, models.ErrInvalidCode)
	current, err := h.rides.Get(ctx, ride.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RideStatusAccepted, current.Status)

	started, err := h.uc.StartRide(ctx, ride.ID, "driver-a", ride.StartCode)
	require.NoError(t, err)
	assert.Equal(t, models.RideStatusOngoing, started.Status)
	rider.last(t, models.EventRideStarted)

	ended, err := h.uc.EndRide(ctx, ride.ID, "driver-a")
	require.NoError(t, err)
	assert.Equal(t, models.RideStatusCompleted, ended.Status)
	assert.Equal(t, models.RideStatusCompleted, rider.last(t, models.EventRideEnded).Status)

	assert.Equal(t, []string{models.EventRideConfirmed, models.EventRideStarted, models.EventRideEnded}, rider.names())
}

func TestRespondAccept_ClosesOtherOffers(t *testing.T) {
	h := newHarness(t, defaultMatch())
	ctx := context.Background()
	h.quoter.EXPECT().Quote(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(80.0, nil)

	h.online(t, "rider-r", models.RoleRider)
	driverA := h.online(t, "driver-a", models.RoleDriver)
	driverB := h.online(t, "driver-b", models.RoleDriver)
	h.driverAt(t, "driver-a", 1)
	h.driverAt(t, "driver-b", 2)

	ride, err := h.uc.RequestRide(ctx, "rider-r", rideRequest())
	require.NoError(t, err)
	assert.Equal(t, []string{models.EventRideOffered}, driverB.names())

	_, err = h.uc.RespondAccept(ctx, ride.ID, "driver-a")
	require.NoError(t, err)

	assert.Equal(t, []string{models.EventRideOffered, models.EventRideConfirmed}, driverA.names())
	assert.Equal(t, []string{models.EventRideOffered, models.EventRideOfferClosed}, driverB.names())
	closed := driverB.last(t, models.EventRideOfferClosed)
	assert.Equal(t, models.RideStatusAccepted, closed.Status)
	assert.Empty(t, closed.StartCode)

	// the loser's late accept is rejected and its offer closed again
	_, err = h.uc.RespondAccept(ctx, ride.ID, "driver-b")
	assert.ErrorIs(t, err, models.ErrAlreadyAccepted)
	assert.Equal(t, []string{models.EventRideOffered, models.EventRideOfferClosed, models.EventRideOfferClosed}, driverB.names())
	assert.Empty(t, driverB.last(t, models.EventRideOfferClosed).StartCode)
}

func TestRespondAccept_RepeatedByWinner(t *testing.T) {
	h := newHarness(t, defaultMatch())
	ctx := context.Background()
	h.quoter.EXPECT().Quote(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(80.0, nil)

	h.online(t, "rider-r", models.RoleRider)
	driverA := h.online(t, "driver-a", models.RoleDriver)
	h.driverAt(t, "driver-a", 1)

	ride, err := h.uc.RequestRide(ctx, "rider-r", rideRequest())
	require.NoError(t, err)
	_, err = h.uc.RespondAccept(ctx, ride.ID, "driver-a")
	require.NoError(t, err)

	again, err := h.uc.RespondAccept(ctx, ride.ID, "driver-a")
	require.NoError(t, err)
	assert.Equal(t, models.RideStatusAccepted, again.Status)
	assert.Equal(t, "driver-a", again.DriverID)
	assert.Empty(t, again.StartCode)
	assert.Equal(t, []string{models.EventRideOffered, models.EventRideConfirmed}, driverA.names())

	_, err = h.uc.StartRide(ctx, ride.ID, "driver-a", ride.StartCode)
	require.NoError(t, err)
	_, err = h.uc.RespondAccept(ctx, ride.ID, "driver-a")
	assert.ErrorIs(t, err, models.ErrAlreadyAccepted)
	assert.NotContains(t, driverA.names(), models.EventRideOfferClosed)
}

func TestRespondAccept_ConcurrentDrivers(t *testing.T) {
	h := newHarness(t, defaultMatch())
	ctx := context.Background()
	h.quoter.EXPECT().Quote(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(80.0, nil)

	const drivers = 30
	ids := make([]string, drivers)
	for i := range ids {
		ids[i] = "driver-" + string(rune('a'+i%26)) + string(rune('0'+i/26))
		h.online(t, ids[i], models.RoleDriver)
		h.driverAt(t, ids[i], 0.1*float64(i+1))
	}

	ride, err := h.uc.RequestRide(ctx, "rider-r", rideRequest())
	require.NoError(t, err)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		winners []string
		losers  int
	)
	start := make(chan struct{})
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			<-start
			_, err := h.uc.RespondAccept(ctx, ride.ID, id)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				winners = append(winners, id)
			case errors.Is(err, models.ErrAlreadyAccepted):
				losers++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(id)
	}
	close(start)
	wg.Wait()

	require.Len(t, winners, 1)
	assert.Equal(t, drivers-1, losers)

	current, err := h.rides.Get(ctx, ride.ID)
	require.NoError(t, err)
	assert.Equal(t, winners[0], current.DriverID)
}

func TestRequestRide_Validation(t *testing.T) {
	h := newHarness(t, defaultMatch())
	ctx := context.Background()

	tests := []struct {
		name    string
		riderID string
		mutate  func(*models.RideRequest)
	}{
		{name: "missing rider", riderID: ""},
		{name: "unknown vehicle class", riderID: "r", mutate: func(r *models.RideRequest) { r.VehicleClass = "bus" }},
		{name: "no pickup", riderID: "r", mutate: func(r *models.RideRequest) { r.Pickup = models.PlaceInput{} }},
		{name: "invalid destination", riderID: "r", mutate: func(r *models.RideRequest) { r.Destination = coords(91, 0) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := rideRequest()
			if tt.mutate != nil {
				tt.mutate(&req)
			}
			_, err := h.uc.RequestRide(ctx, tt.riderID, req)
			assert.ErrorIs(t, err, models.ErrInvalidRequest)
		})
	}
}

func TestRequestRide_GeocodesAddresses(t *testing.T) {
	h := newHarness(t, defaultMatch())
	ctx := context.Background()

	monas := models.Place{Latitude: -6.1754, Longitude: 106.8272, Address: "Monas"}
	h.geocoder.EXPECT().Geocode(gomock.Any(), "Monas").Return(monas, nil)
	h.quoter.EXPECT().Quote(gomock.Any(), monas, gomock.Any(), models.VehicleMoto).Return(25.0, nil)

	req := models.RideRequest{
		Pickup:       models.PlaceInput{Address: "Monas"},
		Destination:  coords(-6.2, 106.81),
		VehicleClass: models.VehicleMoto,
	}
	ride, err := h.uc.RequestRide(ctx, "rider-r", req)

	require.NoError(t, err)
	assert.Equal(t, monas, ride.Pickup)
	assert.Equal(t, 25.0, ride.Fare)
}

func TestRequestRide_UpstreamFailures(t *testing.T) {
	ctx := context.Background()

	t.Run("geocoder down", func(t *testing.T) {
		h := newHarness(t, defaultMatch())
		h.geocoder.EXPECT().Geocode(gomock.Any(), "Monas").Return(models.Place{}, errors.New("dial tcp: refused"))

		req := rideRequest()
		req.Pickup = models.PlaceInput{Address: "Monas"}
		_, err := h.uc.RequestRide(ctx, "rider-r", req)

		assert.ErrorIs(t, err, models.ErrUpstreamUnavailable)
	})

	t.Run("address not found", func(t *testing.T) {
		h := newHarness(t, defaultMatch())
		h.geocoder.EXPECT().Geocode(gomock.Any(), "nowhere").
			Return(models.Place{}, errors.Join(models.ErrInvalidRequest, errors.New("no match")))

		req := rideRequest()
		req.Destination = models.PlaceInput{Address: "nowhere"}
		_, err := h.uc.RequestRide(ctx, "rider-r", req)

		assert.ErrorIs(t, err, models.ErrInvalidRequest)
		assert.NotErrorIs(t, err, models.ErrUpstreamUnavailable)
	})

	t.Run("pricing down creates no ride", func(t *testing.T) {
		h := newHarness(t, defaultMatch())
		driverA := h.online(t, "driver-a", models.RoleDriver)
		h.driverAt(t, "driver-a", 1)
		h.quoter.EXPECT().Quote(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(0.0, errors.New("timeout"))

		ride, err := h.uc.RequestRide(ctx, "rider-r", rideRequest())

		assert.Nil(t, ride)
		assert.ErrorIs(t, err, models.ErrUpstreamUnavailable)
		assert.Empty(t, driverA.names())
	})
}

func TestRequestRide_IndexFailureLeavesRidePending(t *testing.T) {
	ctrl := gomock.NewController(t)
	rideGW := ridemocks.NewMockRideGW(ctrl)
	rideGW.EXPECT().PublishRideLifecycle(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	index := locmocks.NewMockIndex(ctrl)
	quoter := mocks.NewMockPriceQuoter(ctrl)
	registry := presence.NewRegistry()

	uc := NewDispatchUC(&models.Config{Match: defaultMatch()},
		ridesuc.NewRideUC(riderepo.NewMemoryRepo(), rideGW),
		index, registry, notification.NewBus(registry, models.NotifyConfig{}),
		mocks.NewMockGeocoder(ctrl), quoter)

	quoter.EXPECT().Quote(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(50.0, nil)
	index.EXPECT().Query(gomock.Any(), 0.0, 0.0, 5.0).Return(nil, errors.New("redis: connection refused"))

	ride, err := uc.RequestRide(context.Background(), "rider-r", rideRequest())

	require.NoError(t, err)
	assert.Equal(t, models.RideStatusPending, ride.Status)
}

func TestOfferRide_ExpandsRadius(t *testing.T) {
	h := newHarness(t, models.MatchConfig{SearchRadiusKm: 1, MaxFanout: 20, RadiusSteps: 3, RadiusGrowth: 2.5})
	h.quoter.EXPECT().Quote(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(50.0, nil)

	near := h.online(t, "driver-near", models.RoleDriver)
	far := h.online(t, "driver-far", models.RoleDriver)
	h.driverAt(t, "driver-near", 2)
	h.driverAt(t, "driver-far", 5)

	_, err := h.uc.RequestRide(context.Background(), "rider-r", rideRequest())
	require.NoError(t, err)

	// 1 km finds nobody, 2.5 km reaches the near driver and the search stops
	assert.Equal(t, []string{models.EventRideOffered}, near.names())
	assert.Empty(t, far.names())
}

func TestOfferRide_ExpansionSkipsUnreachableDrivers(t *testing.T) {
	h := newHarness(t, models.MatchConfig{SearchRadiusKm: 1, MaxFanout: 20, RadiusSteps: 2, RadiusGrowth: 3})
	h.quoter.EXPECT().Quote(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(50.0, nil)

	h.driverAt(t, "driver-offline", 0.5)
	far := h.online(t, "driver-far", models.RoleDriver)
	h.driverAt(t, "driver-far", 2.5)

	_, err := h.uc.RequestRide(context.Background(), "rider-r", rideRequest())
	require.NoError(t, err)

	assert.Equal(t, []string{models.EventRideOffered}, far.names())
}

func TestOfferRide_SkipsRideThatLeftPending(t *testing.T) {
	ctrl := gomock.NewController(t)
	rideUC := ridemocks.NewMockRideUC(ctrl)
	quoter := mocks.NewMockPriceQuoter(ctrl)
	registry := presence.NewRegistry()
	index := locrepo.NewGridIndex(models.LocationConfig{})
	bus := notification.NewBus(registry, models.NotifyConfig{WriteTimeout: time.Second})
	uc := NewDispatchUC(&models.Config{Match: defaultMatch()}, rideUC, index, registry, bus, mocks.NewMockGeocoder(ctrl), quoter)
	ctx := context.Background()

	driver := &recordingHandle{id: "driver-a-conn"}
	uc.Join(ctx, models.Principal{ID: "driver-a", Role: models.RoleDriver}, driver)
	require.NoError(t, uc.ReportLocation(ctx, models.LocationReport{DriverID: "driver-a", Latitude: kmNorth, Timestamp: time.Now()}))

	pending := &models.Ride{ID: "ride-1", RiderID: "rider-r", Status: models.RideStatusPending}
	accepted := &models.Ride{ID: "ride-1", RiderID: "rider-r", DriverID: "driver-b", Status: models.RideStatusAccepted}
	quoter.EXPECT().Quote(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(80.0, nil)
	rideUC.EXPECT().Create(gomock.Any(), gomock.Any()).Return(pending, nil)
	// accepted by another driver between Create and the fan-out
	rideUC.EXPECT().Get(gomock.Any(), "ride-1").Return(accepted, nil)

	_, err := uc.RequestRide(ctx, "rider-r", rideRequest())
	require.NoError(t, err)
	assert.Empty(t, driver.names())
	assert.Zero(t, uc.offers.size())
}

func TestOfferRide_CapsFanout(t *testing.T) {
	h := newHarness(t, models.MatchConfig{SearchRadiusKm: 5, MaxFanout: 2})
	h.quoter.EXPECT().Quote(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(50.0, nil)

	handles := map[string]*recordingHandle{}
	for i, id := range []string{"d1", "d2", "d3", "d4"} {
		handles[id] = h.online(t, id, models.RoleDriver)
		h.driverAt(t, id, float64(i+1))
	}

	_, err := h.uc.RequestRide(context.Background(), "rider-r", rideRequest())
	require.NoError(t, err)

	assert.Len(t, handles["d1"].names(), 1)
	assert.Len(t, handles["d2"].names(), 1)
	assert.Empty(t, handles["d3"].names())
	assert.Empty(t, handles["d4"].names())
}

func TestCancelRide(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*harness, *models.Ride, *recordingHandle, *recordingHandle, *recordingHandle) {
		h := newHarness(t, defaultMatch())
		h.quoter.EXPECT().Quote(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(50.0, nil)
		rider := h.online(t, "rider-r", models.RoleRider)
		driverA := h.online(t, "driver-a", models.RoleDriver)
		driverB := h.online(t, "driver-b", models.RoleDriver)
		h.driverAt(t, "driver-a", 1)
		h.driverAt(t, "driver-b", 2)
		ride, err := h.uc.RequestRide(ctx, "rider-r", rideRequest())
		require.NoError(t, err)
		return h, ride, rider, driverA, driverB
	}

	t.Run("rider cancels pending ride", func(t *testing.T) {
		h, ride, rider, driverA, driverB := setup(t)

		cancelled, err := h.uc.CancelRide(ctx, ride.ID, "rider-r")
		require.NoError(t, err)
		assert.Equal(t, models.RideStatusCancelled, cancelled.Status)

		assert.Equal(t, []string{models.EventRideOffered, models.EventRideOfferClosed}, driverA.names())
		assert.Equal(t, []string{models.EventRideOffered, models.EventRideOfferClosed}, driverB.names())
		assert.Empty(t, rider.names())

		_, err = h.uc.RespondAccept(ctx, ride.ID, "driver-a")
		assert.ErrorIs(t, err, models.ErrInvalidTransition)
	})

	t.Run("rider cancels accepted ride", func(t *testing.T) {
		h, ride, _, driverA, driverB := setup(t)
		_, err := h.uc.RespondAccept(ctx, ride.ID, "driver-a")
		require.NoError(t, err)

		cancelled, err := h.uc.CancelRide(ctx, ride.ID, "rider-r")
		require.NoError(t, err)
		assert.Empty(t, cancelled.DriverID)

		assert.Equal(t, []string{models.EventRideOffered, models.EventRideConfirmed, models.EventRideCancelled}, driverA.names())
		assert.Empty(t, driverA.last(t, models.EventRideCancelled).StartCode)
		assert.Equal(t, []string{models.EventRideOffered, models.EventRideOfferClosed}, driverB.names())
	})

	t.Run("driver cancels accepted ride", func(t *testing.T) {
		h, ride, rider, driverA, _ := setup(t)
		_, err := h.uc.RespondAccept(ctx, ride.ID, "driver-a")
		require.NoError(t, err)

		_, err = h.uc.CancelRide(ctx, ride.ID, "driver-a")
		require.NoError(t, err)

		assert.Equal(t, []string{models.EventRideConfirmed, models.EventRideCancelled}, rider.names())
		assert.Equal(t, []string{models.EventRideOffered, models.EventRideConfirmed}, driverA.names())
	})

	t.Run("stranger cannot cancel", func(t *testing.T) {
		h, ride, _, _, _ := setup(t)

		_, err := h.uc.CancelRide(ctx, ride.ID, "driver-b")
		assert.ErrorIs(t, err, models.ErrNotParticipant)
	})

	t.Run("ongoing ride cannot be cancelled", func(t *testing.T) {
		h, ride, _, _, _ := setup(t)
		_, err := h.uc.RespondAccept(ctx, ride.ID, "driver-a")
		require.NoError(t, err)
		_, err = h.uc.StartRide(ctx, ride.ID, "driver-a", ride.StartCode)
		require.NoError(t, err)

		_, err = h.uc.CancelRide(ctx, ride.ID, "rider-r")
		assert.ErrorIs(t, err, models.ErrInvalidTransition)
	})
}

func TestGetRide_Access(t *testing.T) {
	h := newHarness(t, defaultMatch())
	ctx := context.Background()
	h.quoter.EXPECT().Quote(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(50.0, nil)
	h.online(t, "driver-a", models.RoleDriver)
	h.online(t, "driver-b", models.RoleDriver)
	h.driverAt(t, "driver-a", 1)
	h.driverAt(t, "driver-b", 1.5)

	ride, err := h.uc.RequestRide(ctx, "rider-r", rideRequest())
	require.NoError(t, err)

	rider := models.Principal{ID: "rider-r", Role: models.RoleRider}
	driverA := models.Principal{ID: "driver-a", Role: models.RoleDriver}
	driverB := models.Principal{ID: "driver-b", Role: models.RoleDriver}
	stranger := models.Principal{ID: "driver-z", Role: models.RoleDriver}

	got, err := h.uc.GetRide(ctx, rider, ride.ID)
	require.NoError(t, err)
	assert.Equal(t, ride.StartCode, got.StartCode)

	got, err = h.uc.GetRide(ctx, driverB, ride.ID)
	require.NoError(t, err, "offered driver may view a pending ride")
	assert.Empty(t, got.StartCode)

	_, err = h.uc.GetRide(ctx, stranger, ride.ID)
	assert.ErrorIs(t, err, models.ErrNotParticipant)

	_, err = h.uc.RespondAccept(ctx, ride.ID, "driver-a")
	require.NoError(t, err)

	got, err = h.uc.GetRide(ctx, driverA, ride.ID)
	require.NoError(t, err)
	assert.Empty(t, got.StartCode)

	_, err = h.uc.GetRide(ctx, driverB, ride.ID)
	assert.ErrorIs(t, err, models.ErrNotParticipant)

	_, err = h.uc.GetRide(ctx, rider, "missing")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestLeave_DriverGoesOfflineAndLeavesIndex(t *testing.T) {
	h := newHarness(t, defaultMatch())
	ctx := context.Background()
	principal := models.Principal{ID: "driver-a", Role: models.RoleDriver}

	phone := &recordingHandle{id: "phone"}
	tablet := &recordingHandle{id: "tablet"}
	h.uc.Join(ctx, principal, phone)
	h.uc.Join(ctx, principal, tablet)
	h.driverAt(t, "driver-a", 1)

	h.uc.Leave(ctx, principal, phone)
	nearby, err := h.index.Query(ctx, 0, 0, 5)
	require.NoError(t, err)
	assert.Len(t, nearby, 1, "one session remains")

	h.uc.Leave(ctx, principal, tablet)
	nearby, err = h.index.Query(ctx, 0, 0, 5)
	require.NoError(t, err)
	assert.Empty(t, nearby)
	assert.False(t, h.registry.IsOnline("driver-a"))

	// leaving twice is harmless
	h.uc.Leave(ctx, principal, tablet)
}

func TestLeave_RiderKeepsIndexUntouched(t *testing.T) {
	h := newHarness(t, defaultMatch())
	ctx := context.Background()
	h.driverAt(t, "driver-a", 1)

	handle := &recordingHandle{id: "c1"}
	rider := models.Principal{ID: "rider-r", Role: models.RoleRider}
	h.uc.Join(ctx, rider, handle)
	h.uc.Leave(ctx, rider, handle)

	nearby, err := h.index.Query(ctx, 0, 0, 5)
	require.NoError(t, err)
	assert.Len(t, nearby, 1)
}

func TestReportLocation(t *testing.T) {
	h := newHarness(t, defaultMatch())
	ctx := context.Background()
	unavailable := false

	tests := []struct {
		name    string
		report  models.LocationReport
		wantErr error
	}{
		{name: "missing driver", report: models.LocationReport{Latitude: 1}, wantErr: models.ErrInvalidRequest},
		{name: "bad latitude", report: models.LocationReport{DriverID: "d", Latitude: -91}, wantErr: models.ErrInvalidRequest},
		{name: "bad longitude", report: models.LocationReport{DriverID: "d", Longitude: 181}, wantErr: models.ErrInvalidRequest},
		{name: "valid", report: models.LocationReport{DriverID: "d", Latitude: kmNorth, Timestamp: time.Now()}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := h.uc.ReportLocation(ctx, tt.report)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}

	nearby, err := h.index.Query(ctx, 0, 0, 2)
	require.NoError(t, err)
	require.Len(t, nearby, 1)

	require.NoError(t, h.uc.ReportLocation(ctx, models.LocationReport{
		DriverID: "d", Latitude: kmNorth, Available: &unavailable, Timestamp: time.Now().Add(time.Second),
	}))
	nearby, err = h.index.Query(ctx, 0, 0, 2)
	require.NoError(t, err)
	assert.Empty(t, nearby)
}

func TestQuoteFares(t *testing.T) {
	h := newHarness(t, defaultMatch())
	ctx := context.Background()

	fares := map[models.VehicleClass]float64{models.VehicleAuto: 60, models.VehicleCar: 95, models.VehicleMoto: 35}
	for class, fare := range fares {
		h.quoter.EXPECT().Quote(gomock.Any(), gomock.Any(), gomock.Any(), class).Return(fare, nil)
	}

	quote, err := h.uc.QuoteFares(ctx, coords(0, 0), coords(10*kmNorth, 0))

	require.NoError(t, err)
	assert.Equal(t, fares, quote.Fares)
	assert.InDelta(t, 10, quote.DistanceKm, 0.01)
}

func TestQuoteFares_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("missing place", func(t *testing.T) {
		h := newHarness(t, defaultMatch())
		_, err := h.uc.QuoteFares(ctx, models.PlaceInput{}, coords(0, 0))
		assert.ErrorIs(t, err, models.ErrInvalidRequest)
	})

	t.Run("pricing down", func(t *testing.T) {
		h := newHarness(t, defaultMatch())
		h.quoter.EXPECT().Quote(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(0.0, models.ErrUpstreamUnavailable)
		_, err := h.uc.QuoteFares(ctx, coords(0, 0), coords(0.01, 0))
		assert.ErrorIs(t, err, models.ErrUpstreamUnavailable)
	})
}

func TestSuggestPlaces(t *testing.T) {
	h := newHarness(t, defaultMatch())
	ctx := context.Background()

	_, err := h.uc.SuggestPlaces(ctx, "   ")
	assert.ErrorIs(t, err, models.ErrInvalidRequest)

	h.geocoder.EXPECT().Suggest(gomock.Any(), "Mon").Return([]string{"Monas, Jakarta"}, nil)
	got, err := h.uc.SuggestPlaces(ctx, " Mon ")
	require.NoError(t, err)
	assert.Equal(t, []string{"Monas, Jakarta"}, got)

	h.geocoder.EXPECT().Suggest(gomock.Any(), "Mon").Return(nil, errors.New("connection reset"))
	_, err = h.uc.SuggestPlaces(ctx, "Mon")
	assert.ErrorIs(t, err, models.ErrUpstreamUnavailable)
}
