package dispatch

import (
	"context"

	"github.com/piresc/nebengjek-dispatch/internal/pkg/models"
)

// Geocoder resolves a free-text address. Failures surface as models.ErrUpstreamUnavailable.
// go:generate mockgen -destination=mocks/mock_gateway.go -package=mocks github.com/piresc/nebengjek-dispatch/services/dispatch Geocoder,PriceQuoter
type Geocoder interface {
	Geocode(ctx context.Context, address string) (models.Place, error)
	// Suggest returns address completions for partial input, best first
	Suggest(ctx context.Context, input string) ([]string, error)
}

// PriceQuoter prices a trip for one vehicle class
type PriceQuoter interface {
	Quote(ctx context.Context, pickup, destination models.Place, class models.VehicleClass) (float64, error)
}
