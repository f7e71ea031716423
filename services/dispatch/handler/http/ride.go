package http

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/piresc/nebengjek-dispatch/internal/pkg/metrics"
	"github.com/piresc/nebengjek-dispatch/internal/pkg/middleware"
	"github.com/piresc/nebengjek-dispatch/internal/pkg/models"
	"github.com/piresc/nebengjek-dispatch/internal/utils"
	"github.com/piresc/nebengjek-dispatch/services/dispatch"
)

// RideHandler handles HTTP requests for ride operations
type RideHandler struct {
	dispatchUC dispatch.DispatchUC
}

// NewRideHandler creates a new ride HTTP handler
func NewRideHandler(dispatchUC dispatch.DispatchUC) *RideHandler {
	return &RideHandler{
		dispatchUC: dispatchUC,
	}
}

// RegisterRoutes registers the ride routes on an authenticated group
func (h *RideHandler) RegisterRoutes(g *echo.Group) {
	rides := g.Group("/rides")
	rides.POST("", h.RequestRide)
	rides.GET("/:rideID", h.GetRide)
	rides.POST("/:rideID/accept", h.AcceptRide)
	rides.POST("/:rideID/start", h.StartRide)
	rides.POST("/:rideID/end", h.EndRide)
	rides.POST("/:rideID/cancel", h.CancelRide)

	g.GET("/fares", h.QuoteFares)
	g.GET("/places/suggest", h.SuggestPlaces)
	g.POST("/drivers/location", h.ReportLocation)
}

// StartRideRequest carries the rider's start code
type StartRideRequest struct {
	Code string `json:"code"`
}

// RequestRide creates a ride for the calling rider and offers it to nearby drivers
func (h *RideHandler) RequestRide(c echo.Context) error {
	p, err := principalWithRole(c, models.RoleRider)
	if err != nil {
		return deny(c, err)
	}

	var req models.RideRequest
	if err := c.Bind(&req); err != nil {
		return utils.BadRequestResponse(c, "Invalid request body")
	}

	ride, err := h.dispatchUC.RequestRide(c.Request().Context(), p.ID, req)
	if err != nil {
		return utils.DomainErrorResponse(c, err)
	}
	return utils.SuccessResponse(c, http.StatusCreated, "Ride requested", ride)
}

// GetRide returns a ride the caller takes part in
func (h *RideHandler) GetRide(c echo.Context) error {
	p, ok := middleware.GetPrincipal(c)
	if !ok {
		return utils.UnauthorizedResponse(c, "Unauthorized")
	}

	ride, err := h.dispatchUC.GetRide(c.Request().Context(), p, c.Param("rideID"))
	if err != nil {
		return utils.DomainErrorResponse(c, err)
	}
	return utils.SuccessResponse(c, http.StatusOK, "Ride retrieved", ride)
}

// AcceptRide assigns the calling driver
func (h *RideHandler) AcceptRide(c echo.Context) error {
	p, err := principalWithRole(c, models.RoleDriver)
	if err != nil {
		return deny(c, err)
	}

	ride, err := h.dispatchUC.RespondAccept(c.Request().Context(), c.Param("rideID"), p.ID)
	if err != nil {
		return utils.DomainErrorResponse(c, err)
	}
	return utils.SuccessResponse(c, http.StatusOK, "Ride accepted", ride)
}

// StartRide verifies the start code and starts the trip
func (h *RideHandler) StartRide(c echo.Context) error {
	p, err := principalWithRole(c, models.RoleDriver)
	if err != nil {
		return deny(c, err)
	}

	var req StartRideRequest
	if err := c.Bind(&req); err != nil {
		return utils.BadRequestResponse(c, "Invalid request body")
	}
	if req.Code == "" {
		return utils.BadRequestResponse(c, "Start code is required")
	}

	ride, err := h.dispatchUC.StartRide(c.Request().Context(), c.Param("rideID"), p.ID, req.Code)
	if err != nil {
		return utils.DomainErrorResponse(c, err)
	}
	return utils.SuccessResponse(c, http.StatusOK, "Ride started", ride)
}

// EndRide completes the trip
func (h *RideHandler) EndRide(c echo.Context) error {
	p, err := principalWithRole(c, models.RoleDriver)
	if err != nil {
		return deny(c, err)
	}

	ride, err := h.dispatchUC.EndRide(c.Request().Context(), c.Param("rideID"), p.ID)
	if err != nil {
		return utils.DomainErrorResponse(c, err)
	}
	return utils.SuccessResponse(c, http.StatusOK, "Ride completed", ride)
}

// CancelRide cancels on behalf of either participant
func (h *RideHandler) CancelRide(c echo.Context) error {
	p, ok := middleware.GetPrincipal(c)
	if !ok {
		return utils.UnauthorizedResponse(c, "Unauthorized")
	}

	ride, err := h.dispatchUC.CancelRide(c.Request().Context(), c.Param("rideID"), p.ID)
	if err != nil {
		return utils.DomainErrorResponse(c, err)
	}
	if p.Role == models.RoleDriver {
		ride = ride.Redacted()
	}
	return utils.SuccessResponse(c, http.StatusOK, "Ride cancelled", ride)
}

// QuoteFares prices a trip for every vehicle class.
// Query: pickup_lat, pickup_lng or pickup_address, and the same for destination.
func (h *RideHandler) QuoteFares(c echo.Context) error {
	pickup, err := placeFromQuery(c, "pickup")
	if err != nil {
		return utils.BadRequestResponse(c, err.Error())
	}
	destination, err := placeFromQuery(c, "destination")
	if err != nil {
		return utils.BadRequestResponse(c, err.Error())
	}

	quote, err := h.dispatchUC.QuoteFares(c.Request().Context(), pickup, destination)
	if err != nil {
		return utils.DomainErrorResponse(c, err)
	}
	return utils.SuccessResponse(c, http.StatusOK, "Fares quoted", quote)
}

// SuggestPlaces completes an address typed into the pickup or destination field
func (h *RideHandler) SuggestPlaces(c echo.Context) error {
	suggestions, err := h.dispatchUC.SuggestPlaces(c.Request().Context(), c.QueryParam("input"))
	if err != nil {
		return utils.DomainErrorResponse(c, err)
	}
	return utils.SuccessResponse(c, http.StatusOK, "Suggestions fetched", suggestions)
}

// ReportLocation records the calling driver's position
func (h *RideHandler) ReportLocation(c echo.Context) error {
	p, err := principalWithRole(c, models.RoleDriver)
	if err != nil {
		return deny(c, err)
	}

	var report models.LocationReport
	if err := c.Bind(&report); err != nil {
		return utils.BadRequestResponse(c, "Invalid request body")
	}
	report.DriverID = p.ID
	if report.Timestamp.IsZero() {
		report.Timestamp = time.Now()
	}

	if err := h.dispatchUC.ReportLocation(c.Request().Context(), report); err != nil {
		return utils.DomainErrorResponse(c, err)
	}
	metrics.LocationUpdates.WithLabelValues("http").Inc()
	return utils.SuccessResponse(c, http.StatusOK, "Location updated", nil)
}

var (
	errNoPrincipal = errors.New("unauthorized")
	errWrongRole   = errors.New("not allowed for this role")
)

func principalWithRole(c echo.Context, role models.Role) (models.Principal, error) {
	p, ok := middleware.GetPrincipal(c)
	if !ok {
		return p, errNoPrincipal
	}
	if p.Role != role {
		return p, fmt.Errorf("%w: %s required", errWrongRole, strings.ToLower(string(role)))
	}
	return p, nil
}

func deny(c echo.Context, err error) error {
	if errors.Is(err, errNoPrincipal) {
		return utils.UnauthorizedResponse(c, "Unauthorized")
	}
	return utils.ErrorResponseHandler(c, http.StatusForbidden, err.Error())
}

func placeFromQuery(c echo.Context, prefix string) (models.PlaceInput, error) {
	in := models.PlaceInput{Address: c.QueryParam(prefix + "_address")}
	for _, f := range []struct {
		key string
		dst **float64
	}{
		{prefix + "_lat", &in.Latitude},
		{prefix + "_lng", &in.Longitude},
	} {
		raw := c.QueryParam(f.key)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return in, fmt.Errorf("%s must be a number", f.key)
		}
		*f.dst = &v
	}
	return in, nil
}
