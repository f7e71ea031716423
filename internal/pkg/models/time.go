package models

import (
	"time"
)

// Now returns the current time in UTC
func Now() time.Time {
	return time.Now().UTC()
}

// TimePtr returns a pointer to t, for the nullable ride timestamps
func TimePtr(t time.Time) *time.Time {
	return &t
}
