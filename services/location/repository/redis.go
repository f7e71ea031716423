package repository

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/piresc/nebengjek-dispatch/internal/pkg/constants"
	"github.com/piresc/nebengjek-dispatch/internal/pkg/database"
	"github.com/piresc/nebengjek-dispatch/internal/pkg/keylock"
	"github.com/piresc/nebengjek-dispatch/internal/pkg/logger"
	"github.com/piresc/nebengjek-dispatch/internal/pkg/models"
)

// RedisIndex keeps positions in a Redis GEO set with a per-driver hash holding
// the report time and availability. The hash expires with the staleness TTL, so
// drivers that stop reporting drop out even if they never disconnect cleanly.
type RedisIndex struct {
	redisClient *database.RedisClient
	staleTTL    time.Duration
	now         func() time.Time
	locks       *keylock.Locker
}

// NewRedisIndex creates a Redis backed index
func NewRedisIndex(redisClient *database.RedisClient, cfg models.LocationConfig) *RedisIndex {
	return &RedisIndex{
		redisClient: redisClient,
		staleTTL:    cfg.StaleTTL,
		now:         models.Now,
		locks:       keylock.New(),
	}
}

// Upsert stores a driver location update in Redis
func (r *RedisIndex) Upsert(ctx context.Context, loc models.DriverLocation) error {
	if loc.DriverID == "" || !models.ValidCoordinates(loc.Latitude, loc.Longitude) {
		return models.ErrInvalidRequest
	}
	// a client clock running ahead must not pin the entry
	if now := r.now(); loc.UpdatedAt.IsZero() || loc.UpdatedAt.After(now) {
		loc.UpdatedAt = now
	}

	unlock := r.locks.Lock(loc.DriverID)
	defer unlock()

	key := fmt.Sprintf(constants.KeyDriverLocation, loc.DriverID)
	stored, err := r.redisClient.HGetAll(ctx, key)
	if err != nil {
		return fmt.Errorf("failed to read driver location: %w", err)
	}
	if ts, ok := parseTimestamp(stored); ok && ts.After(loc.UpdatedAt) {
		return nil
	}

	if err := r.redisClient.GeoAdd(ctx, constants.KeyDriverGeo, loc.Longitude, loc.Latitude, loc.DriverID); err != nil {
		return fmt.Errorf("failed to add driver to geo set: %w", err)
	}

	fields := map[string]interface{}{
		constants.FieldLatitude:  strconv.FormatFloat(loc.Latitude, 'f', -1, 64),
		constants.FieldLongitude: strconv.FormatFloat(loc.Longitude, 'f', -1, 64),
		constants.FieldTimestamp: strconv.FormatInt(loc.UpdatedAt.UnixNano(), 10),
		constants.FieldAvailable: strconv.FormatBool(loc.Available),
	}
	if err := r.redisClient.HSet(ctx, key, fields); err != nil {
		return fmt.Errorf("failed to store driver location: %w", err)
	}
	if r.staleTTL > 0 {
		if err := r.redisClient.Expire(ctx, key, r.staleTTL); err != nil {
			return fmt.Errorf("failed to set location TTL: %w", err)
		}
	}
	return nil
}

// Remove deletes a driver from the geo set and drops its hash
func (r *RedisIndex) Remove(ctx context.Context, driverID string) error {
	unlock := r.locks.Lock(driverID)
	defer unlock()

	if err := r.redisClient.GeoRemove(ctx, constants.KeyDriverGeo, driverID); err != nil {
		return fmt.Errorf("failed to remove driver from geo set: %w", err)
	}
	if err := r.redisClient.Delete(ctx, fmt.Sprintf(constants.KeyDriverLocation, driverID)); err != nil {
		return fmt.Errorf("failed to delete driver location: %w", err)
	}
	return nil
}

// Query runs GEORADIUS and filters the hits by availability and freshness
func (r *RedisIndex) Query(ctx context.Context, lat, lng, radiusKm float64) ([]models.NearbyDriver, error) {
	if !models.ValidCoordinates(lat, lng) || radiusKm < 0 {
		return nil, models.ErrInvalidRequest
	}

	hits, err := r.redisClient.GeoRadius(ctx, constants.KeyDriverGeo, lng, lat, radiusKm)
	if err != nil {
		return nil, fmt.Errorf("failed to query nearby drivers: %w", err)
	}

	now := r.now()
	result := make([]models.NearbyDriver, 0, len(hits))
	var expired []string
	for _, hit := range hits {
		stored, err := r.redisClient.HGetAll(ctx, fmt.Sprintf(constants.KeyDriverLocation, hit.Name))
		if err != nil {
			return nil, fmt.Errorf("failed to read driver location: %w", err)
		}
		ts, ok := parseTimestamp(stored)
		if !ok {
			expired = append(expired, hit.Name)
			continue
		}
		if stored[constants.FieldAvailable] != "true" || isStale(now, ts, r.staleTTL) {
			continue
		}
		result = append(result, models.NearbyDriver{
			DriverID:  hit.Name,
			Latitude:  hit.Latitude,
			Longitude: hit.Longitude,
			Distance:  hit.Dist,
			UpdatedAt: ts,
		})
	}

	// The hash has expired, so the geo member is garbage.
	if len(expired) > 0 {
		if err := r.redisClient.GeoRemove(ctx, constants.KeyDriverGeo, expired...); err != nil {
			logger.WarnCtx(ctx, "Failed to prune expired drivers",
				logger.Strings("driver_ids", expired),
				logger.Err(err))
		}
	}

	sortNearby(result)
	return result, nil
}

func parseTimestamp(stored map[string]string) (time.Time, bool) {
	raw, ok := stored[constants.FieldTimestamp]
	if !ok {
		return time.Time{}, false
	}
	ns, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	return time.Unix(0, ns).UTC(), true
}
