package logger

import (
	"time"

	"go.uber.org/zap"
)

// Field aliases zap.Field so callers never import zap directly
type Field = zap.Field

func String(key, val string) Field {
	return zap.String(key, val)
}

func Strings(key string, val []string) Field {
	return zap.Strings(key, val)
}

func Err(err error) Field {
	return zap.Error(err)
}

func Int(key string, val int) Field {
	return zap.Int(key, val)
}

func Int64(key string, val int64) Field {
	return zap.Int64(key, val)
}

func Uint32(key string, val uint32) Field {
	return zap.Uint32(key, val)
}

func Float64(key string, val float64) Field {
	return zap.Float64(key, val)
}

func Bool(key string, val bool) Field {
	return zap.Bool(key, val)
}

func Duration(key string, val time.Duration) Field {
	return zap.Duration(key, val)
}

func Any(key string, val interface{}) Field {
	return zap.Any(key, val)
}

// Ride and participant identifiers appear on most dispatch log lines.

func RideID(id string) Field {
	return zap.String("ride_id", id)
}

func ParticipantID(id string) Field {
	return zap.String("participant_id", id)
}

func DriverID(id string) Field {
	return zap.String("driver_id", id)
}
