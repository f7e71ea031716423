package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/piresc/nebengjek-dispatch/internal/pkg/models"
	"github.com/piresc/nebengjek-dispatch/internal/utils"
)

// QuoteFares prices the trip for every vehicle class
func (uc *DispatchUC) QuoteFares(ctx context.Context, pickupIn, destinationIn models.PlaceInput) (*models.FareQuote, error) {
	pickup, err := uc.resolve(ctx, pickupIn)
	if err != nil {
		return nil, err
	}
	destination, err := uc.resolve(ctx, destinationIn)
	if err != nil {
		return nil, err
	}

	quote := &models.FareQuote{
		Pickup:      pickup,
		Destination: destination,
		DistanceKm: utils.CalculateDistance(
			utils.GeoPoint{Latitude: pickup.Latitude, Longitude: pickup.Longitude},
			utils.GeoPoint{Latitude: destination.Latitude, Longitude: destination.Longitude},
		),
		Fares: make(map[models.VehicleClass]float64, len(models.VehicleClasses)),
	}
	for _, class := range models.VehicleClasses {
		fare, err := uc.quoter.Quote(ctx, pickup, destination, class)
		if err != nil {
			return nil, upstreamErr("price quote", err)
		}
		quote.Fares[class] = fare
	}
	return quote, nil
}

// SuggestPlaces completes a partially typed address for the pickup and destination pickers
func (uc *DispatchUC) SuggestPlaces(ctx context.Context, input string) ([]string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, fmt.Errorf("%w: input is required", models.ErrInvalidRequest)
	}
	suggestions, err := uc.geocoder.Suggest(ctx, input)
	if err != nil {
		return nil, upstreamErr("suggest places", err)
	}
	return suggestions, nil
}
