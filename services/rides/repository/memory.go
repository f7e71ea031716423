package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/piresc/nebengjek-dispatch/internal/pkg/models"
)

type record struct {
	mu   sync.Mutex
	ride *models.Ride
}

// MemoryRepo keeps rides in process memory with one lock per record.
// Rides do not survive a restart.
type MemoryRepo struct {
	rides sync.Map // ride id -> *record
}

// NewMemoryRepo creates an empty in-memory ride repository
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{}
}

// CreateRide stores a new ride
func (r *MemoryRepo) CreateRide(_ context.Context, ride *models.Ride) error {
	if _, loaded := r.rides.LoadOrStore(ride.ID, &record{ride: ride.Clone()}); loaded {
		return fmt.Errorf("ride %s already exists", ride.ID)
	}
	return nil
}

// GetRide returns a copy of the stored ride
func (r *MemoryRepo) GetRide(_ context.Context, rideID string) (*models.Ride, error) {
	v, ok := r.rides.Load(rideID)
	if !ok {
		return nil, fmt.Errorf("ride %s: %w", rideID, models.ErrNotFound)
	}
	rec := v.(*record)
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return rec.ride.Clone(), nil
}

// UpdateRide replaces the ride if status and version still match
func (r *MemoryRepo) UpdateRide(_ context.Context, ride *models.Ride, expectedStatus models.RideStatus, expectedVersion int64) error {
	v, ok := r.rides.Load(ride.ID)
	if !ok {
		return fmt.Errorf("ride %s: %w", ride.ID, models.ErrNotFound)
	}
	rec := v.(*record)
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.ride.Status != expectedStatus || rec.ride.Version != expectedVersion {
		return models.ErrStatusConflict
	}
	rec.ride = ride.Clone()
	return nil
}
