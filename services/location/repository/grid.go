package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/piresc/nebengjek-dispatch/internal/pkg/keylock"
	"github.com/piresc/nebengjek-dispatch/internal/pkg/models"
	"github.com/piresc/nebengjek-dispatch/internal/utils"
)

const (
	DefaultPrecision = 6
	// Queries needing more cells than this scan every bucket instead.
	DefaultCellLimit = 1024
)

type bucket struct {
	mu      sync.RWMutex
	drivers map[string]models.DriverLocation
}

// GridIndex is an in-memory geohash bucket grid. Each bucket has its own lock and
// writes for one driver are serialised by a per-driver lock, so unrelated drivers
// never contend.
type GridIndex struct {
	precision uint
	staleTTL  time.Duration
	cellLimit int
	now       func() time.Time

	buckets sync.Map // cell -> *bucket
	cells   sync.Map // driverID -> cell
	locks   *keylock.Locker
}

// NewGridIndex creates a grid index. A non-positive staleTTL disables staleness filtering.
func NewGridIndex(cfg models.LocationConfig) *GridIndex {
	precision := cfg.Precision
	if precision == 0 || precision > 12 {
		precision = DefaultPrecision
	}
	return &GridIndex{
		precision: precision,
		staleTTL:  cfg.StaleTTL,
		cellLimit: DefaultCellLimit,
		now:       models.Now,
		locks:     keylock.New(),
	}
}

func (g *GridIndex) bucket(cell string) *bucket {
	if b, ok := g.buckets.Load(cell); ok {
		return b.(*bucket)
	}
	b, _ := g.buckets.LoadOrStore(cell, &bucket{drivers: make(map[string]models.DriverLocation)})
	return b.(*bucket)
}

// Upsert stores the driver's position, moving it between buckets when its cell changes
func (g *GridIndex) Upsert(_ context.Context, loc models.DriverLocation) error {
	if loc.DriverID == "" || !models.ValidCoordinates(loc.Latitude, loc.Longitude) {
		return models.ErrInvalidRequest
	}
	// a client clock running ahead must not pin the entry
	if now := g.now(); loc.UpdatedAt.IsZero() || loc.UpdatedAt.After(now) {
		loc.UpdatedAt = now
	}

	unlock := g.locks.Lock(loc.DriverID)
	defer unlock()

	cell := utils.Encode(utils.GeoPoint{Latitude: loc.Latitude, Longitude: loc.Longitude}, g.precision)

	if prev, ok := g.cells.Load(loc.DriverID); ok {
		old := g.bucket(prev.(string))
		old.mu.Lock()
		if cur, found := old.drivers[loc.DriverID]; found && cur.UpdatedAt.After(loc.UpdatedAt) {
			old.mu.Unlock()
			return nil
		}
		if prev.(string) != cell {
			delete(old.drivers, loc.DriverID)
		}
		old.mu.Unlock()
	}

	b := g.bucket(cell)
	b.mu.Lock()
	b.drivers[loc.DriverID] = loc
	b.mu.Unlock()
	g.cells.Store(loc.DriverID, cell)
	return nil
}

// Remove drops a driver from the index
func (g *GridIndex) Remove(_ context.Context, driverID string) error {
	unlock := g.locks.Lock(driverID)
	defer unlock()

	prev, ok := g.cells.LoadAndDelete(driverID)
	if !ok {
		return nil
	}
	b := g.bucket(prev.(string))
	b.mu.Lock()
	delete(b.drivers, driverID)
	b.mu.Unlock()
	return nil
}

// Query returns matching drivers from the cells covering the radius. Very large
// radii fall back to a scan of every bucket.
func (g *GridIndex) Query(_ context.Context, lat, lng, radiusKm float64) ([]models.NearbyDriver, error) {
	if !models.ValidCoordinates(lat, lng) || radiusKm < 0 {
		return nil, models.ErrInvalidRequest
	}
	center := utils.GeoPoint{Latitude: lat, Longitude: lng}
	now := g.now()

	var result []models.NearbyDriver
	collect := func(b *bucket) {
		b.mu.RLock()
		defer b.mu.RUnlock()
		for _, loc := range b.drivers {
			if hit, ok := g.match(center, radiusKm, now, loc); ok {
				result = append(result, hit)
			}
		}
	}

	cells, ok := utils.CoveringCells(center, radiusKm, g.precision, g.cellLimit)
	if ok {
		for _, cell := range cells {
			if b, found := g.buckets.Load(cell); found {
				collect(b.(*bucket))
			}
		}
	} else {
		g.buckets.Range(func(_, b interface{}) bool {
			collect(b.(*bucket))
			return true
		})
	}

	sortNearby(result)
	return result, nil
}

func (g *GridIndex) match(center utils.GeoPoint, radiusKm float64, now time.Time, loc models.DriverLocation) (models.NearbyDriver, bool) {
	if !loc.Available || isStale(now, loc.UpdatedAt, g.staleTTL) {
		return models.NearbyDriver{}, false
	}
	d := utils.CalculateDistance(center, utils.GeoPoint{Latitude: loc.Latitude, Longitude: loc.Longitude})
	if d > radiusKm {
		return models.NearbyDriver{}, false
	}
	return models.NearbyDriver{
		DriverID:  loc.DriverID,
		Latitude:  loc.Latitude,
		Longitude: loc.Longitude,
		Distance:  d,
		UpdatedAt: loc.UpdatedAt,
	}, true
}

func isStale(now, updatedAt time.Time, ttl time.Duration) bool {
	return ttl > 0 && now.Sub(updatedAt) > ttl
}

// sortNearby orders by distance, then most recent update, then id
func sortNearby(drivers []models.NearbyDriver) {
	sort.Slice(drivers, func(i, j int) bool {
		a, b := drivers[i], drivers[j]
		if a.Distance != b.Distance {
			return a.Distance < b.Distance
		}
		if !a.UpdatedAt.Equal(b.UpdatedAt) {
			return a.UpdatedAt.After(b.UpdatedAt)
		}
		return a.DriverID < b.DriverID
	})
}
