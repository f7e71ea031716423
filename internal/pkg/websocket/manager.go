package websocket

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	jwtpkg "github.com/piresc/nebengjek-dispatch/internal/pkg/jwt"
	"github.com/piresc/nebengjek-dispatch/internal/pkg/logger"
	"github.com/piresc/nebengjek-dispatch/internal/pkg/models"
)

// Manager authenticates and upgrades websocket connections
type Manager struct {
	cfg          models.JWTConfig
	upgrader     websocket.Upgrader
	writeTimeout time.Duration
}

// NewManager creates a new WebSocket manager
func NewManager(jwtConfig models.JWTConfig, writeTimeout time.Duration) *Manager {
	return &Manager{
		cfg: jwtConfig,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		writeTimeout: writeTimeout,
	}
}

// HandleConnection authenticates the request, upgrades it and runs handle until it returns.
// The connection is closed afterwards.
func (m *Manager) HandleConnection(c echo.Context, handle func(models.Principal, *Conn) error) error {
	p, err := m.authenticate(c)
	if err != nil {
		return err
	}

	ws, err := m.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		logger.Warn("WebSocket upgrade failed", logger.Err(err))
		return nil
	}
	conn := NewConn(ws, m.writeTimeout)
	defer conn.Close()

	return handle(*p, conn)
}

// authenticate accepts the bearer header, or a token query parameter for browser clients
func (m *Manager) authenticate(c echo.Context) (*models.Principal, error) {
	token, err := jwtpkg.BearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
	if err != nil {
		token = c.QueryParam("token")
	}
	if token == "" {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "Authorization header is required")
	}

	p, err := jwtpkg.ParsePrincipal(token, m.cfg.Secret)
	if err != nil {
		logger.Warn("Token validation failed", logger.Err(err))
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
	}
	return p, nil
}
