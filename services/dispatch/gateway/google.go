package gateway

import (
	"context"
	"fmt"
	"strings"

	"googlemaps.github.io/maps"

	"github.com/piresc/nebengjek-dispatch/internal/pkg/circuitbreaker"
	"github.com/piresc/nebengjek-dispatch/internal/pkg/models"
	nrpkg "github.com/piresc/nebengjek-dispatch/internal/pkg/newrelic"
)

const (
	geocodeEndpoint      = "https://maps.googleapis.com/maps/api/geocode/json"
	autocompleteEndpoint = "https://maps.googleapis.com/maps/api/place/autocomplete/json"
)

// GoogleGeocoder resolves addresses with the Google Maps Geocoding API
type GoogleGeocoder struct {
	client  *maps.Client
	breaker *circuitbreaker.CircuitBreaker
}

// NewGoogleGeocoder creates a geocoder for apiKey. Extra options such as
// maps.WithBaseURL are passed to the maps client.
func NewGoogleGeocoder(apiKey string, breaker *circuitbreaker.CircuitBreaker, opts ...maps.ClientOption) (*GoogleGeocoder, error) {
	opts = append([]maps.ClientOption{maps.WithAPIKey(apiKey)}, opts...)
	client, err := maps.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return &GoogleGeocoder{client: client, breaker: breaker}, nil
}

// Geocode returns the first geocoding result for address
func (g *GoogleGeocoder) Geocode(ctx context.Context, address string) (models.Place, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return models.Place{}, fmt.Errorf("%w: empty address", models.ErrInvalidRequest)
	}

	var results []maps.GeocodingResult
	err := g.breaker.Execute(ctx, func(ctx context.Context) error {
		return nrpkg.WithExternalSegment(ctx, "googlemaps", "Geocode", geocodeEndpoint, func() error {
			var err error
			results, err = g.client.Geocode(ctx, &maps.GeocodingRequest{Address: address})
			return err
		})
	})
	if err != nil {
		return models.Place{}, fmt.Errorf("%w: geocoding api: %v", models.ErrUpstreamUnavailable, err)
	}
	if len(results) == 0 {
		return models.Place{}, fmt.Errorf("%w: address %q not found", models.ErrInvalidRequest, address)
	}

	loc := results[0].Geometry.Location
	label := results[0].FormattedAddress
	if label == "" {
		label = address
	}
	return models.Place{Latitude: loc.Lat, Longitude: loc.Lng, Address: label}, nil
}

// Suggest returns Places Autocomplete predictions for input
func (g *GoogleGeocoder) Suggest(ctx context.Context, input string) ([]string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, fmt.Errorf("%w: empty input", models.ErrInvalidRequest)
	}

	var resp maps.AutocompleteResponse
	err := g.breaker.Execute(ctx, func(ctx context.Context) error {
		return nrpkg.WithExternalSegment(ctx, "googlemaps", "PlaceAutocomplete", autocompleteEndpoint, func() error {
			var err error
			resp, err = g.client.PlaceAutocomplete(ctx, &maps.PlaceAutocompleteRequest{Input: input})
			return err
		})
	})
	if err != nil {
		return nil, fmt.Errorf("%w: places autocomplete: %v", models.ErrUpstreamUnavailable, err)
	}

	suggestions := make([]string, 0, len(resp.Predictions))
	for _, p := range resp.Predictions {
		if p.Description != "" {
			suggestions = append(suggestions, p.Description)
		}
	}
	return suggestions, nil
}
