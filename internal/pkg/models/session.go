package models

import (
	"context"
	"strings"
	"time"
)

// Role is the side a participant plays in a ride
type Role string

const (
	RoleRider  Role = "RIDER"
	RoleDriver Role = "DRIVER"
)

// ParseRole maps the role claim to a Role. "user"/"passenger" and "captain" are accepted aliases.
func ParseRole(s string) (Role, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "rider", "user", "passenger":
		return RoleRider, true
	case "driver", "captain":
		return RoleDriver, true
	}
	return "", false
}

// Principal is the authenticated caller handed over by the identity boundary
type Principal struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
}

// SessionHandle is a live transport endpoint able to push events to one client.
// ID must be stable and unique for the lifetime of the connection.
type SessionHandle interface {
	ID() string
	Send(ctx context.Context, event string, payload interface{}) error
}

// Session binds a participant to one live handle
type Session struct {
	ID            string        `json:"session_id"`
	ParticipantID string        `json:"participant_id"`
	Role          Role          `json:"role"`
	Handle        SessionHandle `json:"-"`
	ConnectedAt   time.Time     `json:"connected_at"`
}
