package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/piresc/nebengjek-dispatch/internal/pkg/models"
)

const rideColumns = `id, rider_id, driver_id,
		pickup_latitude, pickup_longitude, pickup_address,
		destination_latitude, destination_longitude, destination_address,
		vehicle_class, fare, start_code, start_code_used, status, version,
		created_at, accepted_at, started_at, completed_at, cancelled_at`

// PostgresRepo stores rides in the rides table
type PostgresRepo struct {
	db *sqlx.DB
}

// NewPostgresRepo creates a new ride repository
func NewPostgresRepo(db *sqlx.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

// CreateRide creates a new ride in the database
func (r *PostgresRepo) CreateRide(ctx context.Context, ride *models.Ride) error {
	dto := ride.ToDTO()
	query := `
		INSERT INTO rides (` + rideColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
	`

	_, err := r.db.ExecContext(ctx, query,
		dto.ID,
		dto.RiderID,
		dto.DriverID,
		dto.PickupLatitude,
		dto.PickupLongitude,
		dto.PickupAddress,
		dto.DestinationLatitude,
		dto.DestinationLongitude,
		dto.DestinationAddress,
		dto.VehicleClass,
		dto.Fare,
		dto.StartCode,
		dto.StartCodeUsed,
		dto.Status,
		dto.Version,
		dto.CreatedAt,
		dto.AcceptedAt,
		dto.StartedAt,
		dto.CompletedAt,
		dto.CancelledAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert ride: %w", err)
	}
	return nil
}

// GetRide retrieves a ride by ID
func (r *PostgresRepo) GetRide(ctx context.Context, rideID string) (*models.Ride, error) {
	query := `SELECT ` + rideColumns + ` FROM rides WHERE id = $1`

	var dto models.RideDTO
	if err := r.db.GetContext(ctx, &dto, query, rideID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("ride %s: %w", rideID, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get ride: %w", err)
	}
	return dto.ToRide(), nil
}

// UpdateRide writes the mutable columns guarded by the expected status and version.
// Two processes racing on the same ride are resolved here: only one UPDATE matches.
func (r *PostgresRepo) UpdateRide(ctx context.Context, ride *models.Ride, expectedStatus models.RideStatus, expectedVersion int64) error {
	dto := ride.ToDTO()
	query := `
		UPDATE rides
		SET driver_id = $1, status = $2, version = $3, start_code = $4, start_code_used = $5,
			accepted_at = $6, started_at = $7, completed_at = $8, cancelled_at = $9
		WHERE id = $10 AND status = $11 AND version = $12
	`

	result, err := r.db.ExecContext(ctx, query,
		dto.DriverID,
		dto.Status,
		dto.Version,
		dto.StartCode,
		dto.StartCodeUsed,
		dto.AcceptedAt,
		dto.StartedAt,
		dto.CompletedAt,
		dto.CancelledAt,
		dto.ID,
		expectedStatus,
		expectedVersion,
	)
	if err != nil {
		return fmt.Errorf("failed to update ride: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return models.ErrStatusConflict
	}
	return nil
}
