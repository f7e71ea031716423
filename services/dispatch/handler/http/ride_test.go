package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piresc/nebengjek-dispatch/internal/pkg/middleware"
	"github.com/piresc/nebengjek-dispatch/internal/pkg/models"
	"github.com/piresc/nebengjek-dispatch/internal/utils"
	"github.com/piresc/nebengjek-dispatch/services/dispatch/mocks"
)

var (
	rider  = models.Principal{ID: "rider-1", Role: models.RoleRider}
	driver = models.Principal{ID: "driver-1", Role: models.RoleDriver}
)

func newContext(method, target, body string, p *models.Principal) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if p != nil {
		middleware.SetPrincipal(c, *p)
	}
	return c, rec
}

func withRide(c echo.Context, rideID string) {
	c.SetParamNames("rideID")
	c.SetParamValues(rideID)
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) utils.ErrorResponse {
	t.Helper()
	var resp utils.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestRequestRide(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockUC := mocks.NewMockDispatchUC(ctrl)
	h := NewRideHandler(mockUC)

	lat, lng := 0.0, 0.0
	want := models.RideRequest{
		Pickup:       models.PlaceInput{Latitude: &lat, Longitude: &lng},
		Destination:  models.PlaceInput{Address: "Sudirman"},
		VehicleClass: models.VehicleCar,
	}
	mockUC.EXPECT().RequestRide(gomock.Any(), "rider-1", want).
		Return(&models.Ride{ID: "ride-1", Status: models.RideStatusPending, StartCode: "123456"}, nil)

	c, rec := newContext(http.MethodPost, "/v1/rides",
		`{"pickup":{"latitude":0,"longitude":0},"destination":{"address":"Sudirman"},"vehicle_class":"car"}`, &rider)

	require.NoError(t, h.RequestRide(c))
	assert.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		Success bool        `json:"success"`
		Data    models.Ride `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "ride-1", resp.Data.ID)
	assert.Equal(t, "123456", resp.Data.StartCode)
}

func TestRequestRide_Denied(t *testing.T) {
	ctrl := gomock.NewController(t)
	h := NewRideHandler(mocks.NewMockDispatchUC(ctrl))

	c, rec := newContext(http.MethodPost, "/v1/rides", `{}`, nil)
	require.NoError(t, h.RequestRide(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	c, rec = newContext(http.MethodPost, "/v1/rides", `{}`, &driver)
	require.NoError(t, h.RequestRide(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, decodeError(t, rec).Error, "rider required")
}

func TestAcceptRide_MapsDomainErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantReason string
	}{
		{name: "lost the race", err: models.ErrAlreadyAccepted, wantStatus: http.StatusConflict, wantReason: "already_accepted"},
		{name: "cancelled ride", err: models.ErrInvalidTransition, wantStatus: http.StatusConflict, wantReason: "invalid_transition"},
		{name: "unknown ride", err: models.ErrNotFound, wantStatus: http.StatusNotFound, wantReason: "ride_not_found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			mockUC := mocks.NewMockDispatchUC(ctrl)
			h := NewRideHandler(mockUC)
			mockUC.EXPECT().RespondAccept(gomock.Any(), "ride-1", "driver-1").Return(nil, tt.err)

			c, rec := newContext(http.MethodPost, "/", "", &driver)
			withRide(c, "ride-1")

			require.NoError(t, h.AcceptRide(c))
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantReason, decodeError(t, rec).Reason)
		})
	}
}

func TestStartRide(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockUC := mocks.NewMockDispatchUC(ctrl)
	h := NewRideHandler(mockUC)

	t.Run("missing code", func(t *testing.T) {
		c, rec := newContext(http.MethodPost, "/", `{}`, &driver)
		withRide(c, "ride-1")
		require.NoError(t, h.StartRide(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("wrong code", func(t *testing.T) {
		mockUC.EXPECT().StartRide(gomock.Any(), "ride-1", "driver-1", "000000").Return(nil, models.ErrInvalidCode)
		c, rec := newContext(http.MethodPost, "/", `{"code":"000000"}`, &driver)
		withRide(c, "ride-1")
		require.NoError(t, h.StartRide(c))
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Equal(t, "invalid_code", decodeError(t, rec).Reason)
	})

	t.Run("started", func(t *testing.T) {
		mockUC.EXPECT().StartRide(gomock.Any(), "ride-1", "driver-1", "123456").
			Return(&models.Ride{ID: "ride-1", Status: models.RideStatusOngoing}, nil)
		c, rec := newContext(http.MethodPost, "/", `{"code":"123456"}`, &driver)
		withRide(c, "ride-1")
		require.NoError(t, h.StartRide(c))
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestEndRide(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockUC := mocks.NewMockDispatchUC(ctrl)
	h := NewRideHandler(mockUC)
	mockUC.EXPECT().EndRide(gomock.Any(), "ride-1", "driver-1").Return(nil, models.ErrNotAssignedDriver)

	c, rec := newContext(http.MethodPost, "/", "", &driver)
	withRide(c, "ride-1")

	require.NoError(t, h.EndRide(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "not_assigned_driver", decodeError(t, rec).Reason)
}

func TestCancelRide_DriverNeverSeesCode(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockUC := mocks.NewMockDispatchUC(ctrl)
	h := NewRideHandler(mockUC)
	mockUC.EXPECT().CancelRide(gomock.Any(), "ride-1", "driver-1").
		Return(&models.Ride{ID: "ride-1", Status: models.RideStatusCancelled, StartCode: "123456"}, nil)

	c, rec := newContext(http.MethodPost, "/", "", &driver)
	withRide(c, "ride-1")

	require.NoError(t, h.CancelRide(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "123456")
}

func TestGetRide(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockUC := mocks.NewMockDispatchUC(ctrl)
	h := NewRideHandler(mockUC)
	mockUC.EXPECT().GetRide(gomock.Any(), driver, "ride-1").Return(nil, models.ErrNotParticipant)

	c, rec := newContext(http.MethodGet, "/", "", &driver)
	withRide(c, "ride-1")

	require.NoError(t, h.GetRide(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestQuoteFares(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockUC := mocks.NewMockDispatchUC(ctrl)
	h := NewRideHandler(mockUC)

	t.Run("bad number", func(t *testing.T) {
		c, rec := newContext(http.MethodGet, "/v1/fares?pickup_lat=north", "", &rider)
		require.NoError(t, h.QuoteFares(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, decodeError(t, rec).Error, "pickup_lat")
	})

	t.Run("coordinates and address", func(t *testing.T) {
		mockUC.EXPECT().QuoteFares(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ interface{}, pickup, destination models.PlaceInput) (*models.FareQuote, error) {
				place, ok := pickup.Resolved()
				assert.True(t, ok)
				assert.Equal(t, -6.2, place.Latitude)
				assert.Equal(t, 106.8, place.Longitude)
				assert.Equal(t, "Blok M", destination.Address)
				return &models.FareQuote{Fares: map[models.VehicleClass]float64{models.VehicleCar: 90}}, nil
			})

		c, rec := newContext(http.MethodGet,
			"/v1/fares?pickup_lat=-6.2&pickup_lng=106.8&destination_address=Blok+M", "", &rider)
		require.NoError(t, h.QuoteFares(c))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"car":90`)
	})

	t.Run("pricing down", func(t *testing.T) {
		mockUC.EXPECT().QuoteFares(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, models.ErrUpstreamUnavailable)
		c, rec := newContext(http.MethodGet, "/v1/fares?pickup_address=a&destination_address=b", "", &rider)
		require.NoError(t, h.QuoteFares(c))
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}

func TestSuggestPlaces(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockUC := mocks.NewMockDispatchUC(ctrl)
	h := NewRideHandler(mockUC)

	mockUC.EXPECT().SuggestPlaces(gomock.Any(), "Blok M").Return([]string{"Blok M Square"}, nil)
	c, rec := newContext(http.MethodGet, "/v1/places/suggest?input=Blok+M", "", &rider)
	require.NoError(t, h.SuggestPlaces(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"Blok M Square"`)

	mockUC.EXPECT().SuggestPlaces(gomock.Any(), "").Return(nil, models.ErrInvalidRequest)
	c, rec = newContext(http.MethodGet, "/v1/places/suggest", "", &rider)
	require.NoError(t, h.SuggestPlaces(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReportLocation(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockUC := mocks.NewMockDispatchUC(ctrl)
	h := NewRideHandler(mockUC)

	mockUC.EXPECT().ReportLocation(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ interface{}, report models.LocationReport) error {
			assert.Equal(t, "driver-1", report.DriverID, "driver id comes from the token")
			assert.Equal(t, 1.5, report.Latitude)
			assert.False(t, report.Timestamp.IsZero())
			assert.True(t, report.IsAvailable())
			return nil
		})

	c, rec := newContext(http.MethodPost, "/v1/drivers/location",
		`{"driver_id":"someone-else","latitude":1.5,"longitude":2}`, &driver)
	require.NoError(t, h.ReportLocation(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	c, rec = newContext(http.MethodPost, "/v1/drivers/location", `{"latitude":1}`, &rider)
	require.NoError(t, h.ReportLocation(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
