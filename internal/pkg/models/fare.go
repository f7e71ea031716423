package models

// RateCard prices a trip for one vehicle class
type RateCard struct {
	Base        float64 `json:"base"`
	PerKm       float64 `json:"per_km"`
	PerMinute   float64 `json:"per_minute"`
	AvgSpeedKmh float64 `json:"avg_speed_kmh"`
}

// FareQuote is the price of a trip per vehicle class
type FareQuote struct {
	Pickup      Place                    `json:"pickup"`
	Destination Place                    `json:"destination"`
	DistanceKm  float64                  `json:"distance_km"`
	Fares       map[VehicleClass]float64 `json:"fares"`
}
