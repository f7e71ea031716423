package handler

import (
	"github.com/labstack/echo/v4"
	"github.com/newrelic/go-agent/v3/newrelic"

	"github.com/piresc/nebengjek-dispatch/internal/pkg/middleware"
	"github.com/piresc/nebengjek-dispatch/internal/pkg/models"
	wspkg "github.com/piresc/nebengjek-dispatch/internal/pkg/websocket"
	"github.com/piresc/nebengjek-dispatch/services/dispatch"
	httpHandler "github.com/piresc/nebengjek-dispatch/services/dispatch/handler/http"
	natsHandler "github.com/piresc/nebengjek-dispatch/services/dispatch/handler/nats"
	wsHandler "github.com/piresc/nebengjek-dispatch/services/dispatch/handler/websocket"
)

// Handler combines all handlers for the dispatch service
type Handler struct {
	rideHTTP     *httpHandler.RideHandler
	ws           *wsHandler.Handler
	locationNATS *natsHandler.LocationHandler
	jwtConfig    models.JWTConfig
}

// NewHandler creates a new combined handler
func NewHandler(
	cfg *models.Config,
	dispatchUC dispatch.DispatchUC,
	subscriber natsHandler.Subscriber,
	nrApp *newrelic.Application,
) *Handler {
	return &Handler{
		rideHTTP:     httpHandler.NewRideHandler(dispatchUC),
		ws:           wsHandler.NewHandler(wspkg.NewManager(cfg.JWT, cfg.Notify.WriteTimeout), dispatchUC, nrApp),
		locationNATS: natsHandler.NewLocationHandler(dispatchUC, subscriber, nrApp),
		jwtConfig:    cfg.JWT,
	}
}

// RegisterRoutes registers the websocket endpoint and the authenticated API
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	// the websocket manager authenticates on its own so browsers can pass ?token=
	h.ws.RegisterRoutes(e)

	v1 := e.Group("/v1", middleware.JWTAuthMiddleware(h.jwtConfig))
	h.rideHTTP.RegisterRoutes(v1)
}

// InitNATSConsumers initializes all NATS consumers
func (h *Handler) InitNATSConsumers() error {
	return h.locationNATS.InitNATSConsumers()
}
