package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/newrelic/go-agent/v3/newrelic"

	"github.com/piresc/nebengjek-dispatch/internal/pkg/constants"
	"github.com/piresc/nebengjek-dispatch/internal/pkg/logger"
	"github.com/piresc/nebengjek-dispatch/internal/pkg/metrics"
	"github.com/piresc/nebengjek-dispatch/internal/pkg/models"
	nrpkg "github.com/piresc/nebengjek-dispatch/internal/pkg/newrelic"
	wspkg "github.com/piresc/nebengjek-dispatch/internal/pkg/websocket"
	"github.com/piresc/nebengjek-dispatch/internal/utils"
	"github.com/piresc/nebengjek-dispatch/services/dispatch"
)

// eventHandler turns one client event into a reply payload
type eventHandler func(ctx context.Context, p models.Principal, data json.RawMessage) (interface{}, error)

var (
	errBadPayload = errors.New("invalid payload")
	errForbidden  = errors.New("event not allowed for this role")
)

// Handler serves the client socket: connect joins, disconnect leaves, and every
// frame in between is routed to an event handler whose result goes back as an ack.
type Handler struct {
	manager    *wspkg.Manager
	dispatchUC dispatch.DispatchUC
	nrApp      *newrelic.Application
	events     map[string]eventHandler
}

// NewHandler creates the websocket handler
func NewHandler(manager *wspkg.Manager, dispatchUC dispatch.DispatchUC, nrApp *newrelic.Application) *Handler {
	h := &Handler{
		manager:    manager,
		dispatchUC: dispatchUC,
		nrApp:      nrApp,
	}
	h.events = map[string]eventHandler{
		constants.EventLocationUpdate: h.handleLocationUpdate,
		constants.EventRideAccept:     h.handleRideAccept,
		constants.EventRideStart:      h.handleRideStart,
		constants.EventRideEnd:        h.handleRideEnd,
		constants.EventRideCancel:     h.handleRideCancel,
	}
	return h
}

// RegisterRoutes registers the websocket endpoint
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/ws", h.HandleWebSocket)
}

// HandleWebSocket upgrades the request and serves it until the client goes away
func (h *Handler) HandleWebSocket(c echo.Context) error {
	return h.manager.HandleConnection(c, h.serve)
}

func (h *Handler) serve(p models.Principal, conn *wspkg.Conn) error {
	ctx := context.Background()
	h.dispatchUC.Join(ctx, p, conn)
	defer h.dispatchUC.Leave(ctx, p, conn)

	for {
		msg, err := conn.ReadMessage()
		if err != nil {
			if wspkg.IsInvalidFrame(err) {
				_ = conn.SendError(ctx, "", constants.ErrorInvalidFormat, "Frames must be {event, data} objects")
				continue
			}
			if wspkg.IsUnexpectedClose(err) {
				logger.Warn("WebSocket closed unexpectedly",
					logger.ParticipantID(p.ID),
					logger.Err(err))
			}
			return nil
		}
		h.handleMessage(ctx, p, conn, msg)
	}
}

func (h *Handler) handleMessage(ctx context.Context, p models.Principal, conn *wspkg.Conn, msg models.WSMessage) {
	if msg.Event == constants.EventPing {
		_ = conn.Send(ctx, constants.EventPong, models.WSAck{Event: msg.Event, OK: true})
		return
	}

	handle, ok := h.events[msg.Event]
	if !ok {
		_ = conn.SendError(ctx, msg.Event, constants.ErrorUnknownEvent, fmt.Sprintf("Unknown event %q", msg.Event))
		return
	}

	txnCtx, end := nrpkg.StartBackgroundTransaction(ctx, h.nrApp, "WS "+msg.Event)
	defer end()

	result, err := handle(txnCtx, p, msg.Data)
	if err != nil {
		code, message := errorCode(err)
		if code == constants.ErrorInternalError {
			logger.ErrorCtx(txnCtx, "WebSocket event failed",
				logger.String("event", msg.Event),
				logger.ParticipantID(p.ID),
				logger.Err(err))
		}
		_ = conn.SendError(txnCtx, msg.Event, code, message)
		return
	}
	_ = conn.Send(txnCtx, constants.EventAck, models.WSAck{Event: msg.Event, OK: true, Data: result})
}

func (h *Handler) handleLocationUpdate(ctx context.Context, p models.Principal, data json.RawMessage) (interface{}, error) {
	if p.Role != models.RoleDriver {
		return nil, errForbidden
	}
	var report models.LocationReport
	if err := decode(data, &report); err != nil {
		return nil, err
	}
	report.DriverID = p.ID
	if report.Timestamp.IsZero() {
		report.Timestamp = time.Now()
	}
	if err := h.dispatchUC.ReportLocation(ctx, report); err != nil {
		return nil, err
	}
	metrics.LocationUpdates.WithLabelValues("websocket").Inc()
	return nil, nil
}

func (h *Handler) handleRideAccept(ctx context.Context, p models.Principal, data json.RawMessage) (interface{}, error) {
	req, err := rideAction(p, data, models.RoleDriver)
	if err != nil {
		return nil, err
	}
	return h.dispatchUC.RespondAccept(ctx, req.RideID, p.ID)
}

func (h *Handler) handleRideStart(ctx context.Context, p models.Principal, data json.RawMessage) (interface{}, error) {
	req, err := rideAction(p, data, models.RoleDriver)
	if err != nil {
		return nil, err
	}
	if req.Code == "" {
		return nil, fmt.Errorf("%w: code is required", models.ErrInvalidRequest)
	}
	return h.dispatchUC.StartRide(ctx, req.RideID, p.ID, req.Code)
}

func (h *Handler) handleRideEnd(ctx context.Context, p models.Principal, data json.RawMessage) (interface{}, error) {
	req, err := rideAction(p, data, models.RoleDriver)
	if err != nil {
		return nil, err
	}
	return h.dispatchUC.EndRide(ctx, req.RideID, p.ID)
}

func (h *Handler) handleRideCancel(ctx context.Context, p models.Principal, data json.RawMessage) (interface{}, error) {
	req, err := rideAction(p, data, "")
	if err != nil {
		return nil, err
	}
	ride, err := h.dispatchUC.CancelRide(ctx, req.RideID, p.ID)
	if err != nil {
		return nil, err
	}
	if p.Role == models.RoleDriver {
		return ride.Redacted(), nil
	}
	return ride, nil
}

// rideAction decodes a ride action; an empty role allows any participant
func rideAction(p models.Principal, data json.RawMessage, role models.Role) (models.RideActionRequest, error) {
	var req models.RideActionRequest
	if role != "" && p.Role != role {
		return req, errForbidden
	}
	if err := decode(data, &req); err != nil {
		return req, err
	}
	if req.RideID == "" {
		return req, fmt.Errorf("%w: ride_id is required", models.ErrInvalidRequest)
	}
	return req, nil
}

func decode(data json.RawMessage, v interface{}) error {
	if len(data) == 0 {
		return fmt.Errorf("%w: missing data", errBadPayload)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %v", errBadPayload, err)
	}
	return nil
}

// errorCode maps an event failure to the code and message sent to the client
func errorCode(err error) (string, string) {
	switch {
	case errors.Is(err, errBadPayload):
		return constants.ErrorInvalidFormat, err.Error()
	case errors.Is(err, errForbidden):
		return constants.ErrorForbidden, err.Error()
	}
	status, code := utils.ErrorStatus(err)
	if status == http.StatusInternalServerError {
		return code, "Internal server error"
	}
	return code, err.Error()
}
