package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/piresc/nebengjek-dispatch/internal/pkg/constants"
	"github.com/piresc/nebengjek-dispatch/internal/pkg/models"
)

const (
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	maxMessage = 64 << 10
)

// ErrClosed is returned by Send once the connection is closed
var ErrClosed = errors.New("websocket connection closed")

// Conn is one live client socket. Writes are serialised; gorilla allows a single concurrent writer.
type Conn struct {
	id           string
	ws           *websocket.Conn
	writeTimeout time.Duration

	writeMu sync.Mutex
	closed  bool
	done    chan struct{}
	once    sync.Once
}

// NewConn wraps ws and starts the keepalive pinger
func NewConn(ws *websocket.Conn, writeTimeout time.Duration) *Conn {
	if writeTimeout <= 0 {
		writeTimeout = 5 * time.Second
	}
	c := &Conn{
		id:           uuid.NewString(),
		ws:           ws,
		writeTimeout: writeTimeout,
		done:         make(chan struct{}),
	}
	ws.SetReadLimit(maxMessage)
	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})
	go c.keepalive()
	return c
}

// ID identifies this connection for the presence registry
func (c *Conn) ID() string {
	return c.id
}

// Send writes an {event, data} frame. ctx bounds the write deadline.
func (c *Conn) Send(ctx context.Context, event string, payload interface{}) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("error marshaling message data: %w", err)
	}
	return c.writeJSON(ctx, models.WSMessage{Event: event, Data: raw})
}

// SendError reports a failed client event on this socket
func (c *Conn) SendError(ctx context.Context, event, code, message string) error {
	return c.Send(ctx, constants.EventError, models.WSErrorMessage{Code: code, Message: message, Event: event})
}

func (c *Conn) writeJSON(ctx context.Context, v interface{}) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if c.closed {
		return ErrClosed
	}

	deadline := time.Now().Add(c.writeTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := c.ws.SetWriteDeadline(deadline); err != nil {
		return err
	}
	return c.ws.WriteJSON(v)
}

// ReadMessage blocks for the next client frame
func (c *Conn) ReadMessage() (models.WSMessage, error) {
	var msg models.WSMessage
	_, data, err := c.ws.ReadMessage()
	if err != nil {
		return msg, err
	}
	if err := json.Unmarshal(data, &msg); err != nil {
		return msg, fmt.Errorf("%w: %v", errInvalidFrame, err)
	}
	return msg, nil
}

var errInvalidFrame = errors.New("invalid frame")

// IsInvalidFrame reports whether err came from a frame that was not an {event, data} object
func IsInvalidFrame(err error) bool {
	return errors.Is(err, errInvalidFrame)
}

// IsUnexpectedClose reports whether err is an abnormal disconnect worth logging
func IsUnexpectedClose(err error) bool {
	return websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure)
}

func (c *Conn) keepalive() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.writeMu.Lock()
			if c.closed {
				c.writeMu.Unlock()
				return
			}
			err := c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(c.writeTimeout))
			c.writeMu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

// Close stops the pinger and closes the socket. Safe to call more than once.
func (c *Conn) Close() error {
	var err error
	c.once.Do(func() {
		close(c.done)
		c.writeMu.Lock()
		c.closed = true
		c.writeMu.Unlock()
		err = c.ws.Close()
	})
	return err
}
