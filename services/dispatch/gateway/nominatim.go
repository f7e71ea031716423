package gateway

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	httpclient "github.com/piresc/nebengjek-dispatch/internal/pkg/http"
	"github.com/piresc/nebengjek-dispatch/internal/pkg/models"
)

const (
	userAgent       = "nebengjek-dispatch"
	suggestionLimit = 5
)

type nominatimResult struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// NominatimGeocoder resolves addresses with an OpenStreetMap Nominatim server
type NominatimGeocoder struct {
	client *httpclient.Client
}

// NewNominatimGeocoder creates a geocoder on top of a resilient HTTP client
func NewNominatimGeocoder(client *httpclient.Client) *NominatimGeocoder {
	client.Headers["User-Agent"] = userAgent
	return &NominatimGeocoder{client: client}
}

// Geocode returns the best match for address
func (g *NominatimGeocoder) Geocode(ctx context.Context, address string) (models.Place, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return models.Place{}, fmt.Errorf("%w: empty address", models.ErrInvalidRequest)
	}

	var results []nominatimResult
	path := "/search?format=json&limit=1&q=" + url.QueryEscape(address)
	if err := g.client.GetJSON(ctx, path, &results); err != nil {
		return models.Place{}, err
	}
	if len(results) == 0 {
		return models.Place{}, fmt.Errorf("%w: address %q not found", models.ErrInvalidRequest, address)
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return models.Place{}, fmt.Errorf("%w: bad latitude %q", models.ErrUpstreamUnavailable, results[0].Lat)
	}
	lng, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return models.Place{}, fmt.Errorf("%w: bad longitude %q", models.ErrUpstreamUnavailable, results[0].Lon)
	}
	return models.Place{Latitude: lat, Longitude: lng, Address: address}, nil
}

// Suggest lists the display names of the top matches for input
func (g *NominatimGeocoder) Suggest(ctx context.Context, input string) ([]string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, fmt.Errorf("%w: empty input", models.ErrInvalidRequest)
	}

	var results []nominatimResult
	path := fmt.Sprintf("/search?format=json&limit=%d&q=%s", suggestionLimit, url.QueryEscape(input))
	if err := g.client.GetJSON(ctx, path, &results); err != nil {
		return nil, err
	}
	suggestions := make([]string, 0, len(results))
	for _, r := range results {
		if r.DisplayName != "" {
			suggestions = append(suggestions, r.DisplayName)
		}
	}
	return suggestions, nil
}
