package gateway

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"strconv"

	httpclient "github.com/piresc/nebengjek-dispatch/internal/pkg/http"
	"github.com/piresc/nebengjek-dispatch/internal/pkg/models"
	"github.com/piresc/nebengjek-dispatch/internal/utils"
)

type quoteResponse struct {
	Fare float64 `json:"fare"`
}

// HTTPPriceQuoter asks a remote pricing service for the fare
type HTTPPriceQuoter struct {
	client *httpclient.Client
}

// NewHTTPPriceQuoter creates a price quoter on top of a resilient HTTP client
func NewHTTPPriceQuoter(client *httpclient.Client) *HTTPPriceQuoter {
	return &HTTPPriceQuoter{client: client}
}

// Quote calls GET /v1/quote
func (q *HTTPPriceQuoter) Quote(ctx context.Context, pickup, destination models.Place, class models.VehicleClass) (float64, error) {
	params := url.Values{}
	params.Set("pickup_lat", formatCoord(pickup.Latitude))
	params.Set("pickup_lng", formatCoord(pickup.Longitude))
	params.Set("destination_lat", formatCoord(destination.Latitude))
	params.Set("destination_lng", formatCoord(destination.Longitude))
	params.Set("vehicle_class", string(class))

	var resp quoteResponse
	if err := q.client.GetJSON(ctx, "/v1/quote?"+params.Encode(), &resp); err != nil {
		return 0, err
	}
	if resp.Fare < 0 || math.IsNaN(resp.Fare) {
		return 0, fmt.Errorf("%w: invalid fare %v", models.ErrUpstreamUnavailable, resp.Fare)
	}
	return resp.Fare, nil
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// RateCardQuoter prices trips locally: base + per km + per minute, with the
// trip time estimated from the straight-line distance at the card's average speed.
type RateCardQuoter struct {
	cards map[models.VehicleClass]models.RateCard
}

const defaultAvgSpeedKmh = 30.0

// NewRateCardQuoter creates a local quoter from the configured rate cards
func NewRateCardQuoter(cards map[models.VehicleClass]models.RateCard) *RateCardQuoter {
	return &RateCardQuoter{cards: cards}
}

// Quote returns the fare rounded to a whole currency unit
func (q *RateCardQuoter) Quote(_ context.Context, pickup, destination models.Place, class models.VehicleClass) (float64, error) {
	card, ok := q.cards[class]
	if !ok {
		return 0, fmt.Errorf("%w: no rate card for %q", models.ErrInvalidRequest, class)
	}
	speed := card.AvgSpeedKmh
	if speed <= 0 {
		speed = defaultAvgSpeedKmh
	}

	km := utils.CalculateDistance(
		utils.GeoPoint{Latitude: pickup.Latitude, Longitude: pickup.Longitude},
		utils.GeoPoint{Latitude: destination.Latitude, Longitude: destination.Longitude},
	)
	minutes := km / speed * 60
	return math.Round(card.Base + card.PerKm*km + card.PerMinute*minutes), nil
}
