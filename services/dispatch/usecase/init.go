package usecase

import (
	"time"

	"github.com/piresc/nebengjek-dispatch/internal/pkg/models"
	"github.com/piresc/nebengjek-dispatch/services/dispatch"
	"github.com/piresc/nebengjek-dispatch/services/location"
	"github.com/piresc/nebengjek-dispatch/services/rides"
)

const (
	defaultSearchRadiusKm = 5.0
	defaultMaxFanout      = 20
	defaultOfferTTL       = 15 * time.Minute
)

// DispatchUC implements the dispatch use case interface
type DispatchUC struct {
	cfg      models.MatchConfig
	rideUC   rides.RideUC
	index    location.Index
	presence dispatch.Presence
	notifier dispatch.Notifier
	geocoder dispatch.Geocoder
	quoter   dispatch.PriceQuoter
	offers   *offerBook
}

// NewDispatchUC creates a new dispatch use case
func NewDispatchUC(
	cfg *models.Config,
	rideUC rides.RideUC,
	index location.Index,
	presence dispatch.Presence,
	notifier dispatch.Notifier,
	geocoder dispatch.Geocoder,
	quoter dispatch.PriceQuoter,
) *DispatchUC {
	match := cfg.Match
	if match.SearchRadiusKm <= 0 {
		match.SearchRadiusKm = defaultSearchRadiusKm
	}
	if match.MaxFanout <= 0 {
		match.MaxFanout = defaultMaxFanout
	}
	if match.RadiusSteps <= 0 {
		match.RadiusSteps = 1
	}
	if match.OfferTTL <= 0 {
		match.OfferTTL = defaultOfferTTL
	}
	if match.RadiusGrowth <= 1 {
		match.RadiusGrowth = 2
	}
	return &DispatchUC{
		cfg:      match,
		rideUC:   rideUC,
		index:    index,
		presence: presence,
		notifier: notifier,
		geocoder: geocoder,
		quoter:   quoter,
		offers:   newOfferBook(match.OfferTTL, models.Now),
	}
}
