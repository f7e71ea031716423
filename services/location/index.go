package location

import (
	"context"

	"github.com/piresc/nebengjek-dispatch/internal/pkg/models"
)

// Index keeps the latest driver positions and answers radius queries.
// go:generate mockgen -destination=mocks/mock_index.go -package=mocks github.com/piresc/nebengjek-dispatch/services/location Index
type Index interface {
	// Upsert stores a report. A report older than the stored one is ignored.
	Upsert(ctx context.Context, loc models.DriverLocation) error
	Remove(ctx context.Context, driverID string) error
	// Query returns available, fresh drivers within radiusKm (inclusive),
	// nearest first, ties broken by the most recent update.
	Query(ctx context.Context, lat, lng, radiusKm float64) ([]models.NearbyDriver, error)
}
