package models

import (
	"encoding/json"

	"github.com/golang-jwt/jwt/v4"
)

// WSMessage represents a WebSocket message structure
type WSMessage struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// WSErrorMessage represents an error message sent over WebSocket
type WSErrorMessage struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Event   string `json:"event,omitempty"` // client event that failed
}

// WSAck acknowledges a client event that produced no payload of its own
type WSAck struct {
	Event string      `json:"event"`
	OK    bool        `json:"ok"`
	Data  interface{} `json:"data,omitempty"`
}

// WebSocketClaims are the JWT claims accepted on the websocket and HTTP boundary
type WebSocketClaims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}
