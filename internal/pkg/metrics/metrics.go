// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "dispatch"

var (
	RidesRequested = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace, Name: "rides_requested_total", Help: "Ride requests that produced a ride",
	})
	OffersSent = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace, Name: "offers_per_ride", Help: "Candidates offered a ride",
		Buckets: []float64{0, 1, 2, 5, 10, 20, 50},
	})
	RideTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Name: "ride_transitions_total", Help: "Committed ride state transitions",
	}, []string{"status"})
	AcceptOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Name: "accept_outcomes_total", Help: "Ride accept attempts by outcome",
	}, []string{"outcome"})
	Deliveries = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Name: "deliveries_total", Help: "Event deliveries by event type and outcome",
	}, []string{"event", "outcome"})
	OnlineParticipants = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace, Name: "online_participants", Help: "Participants with at least one live session",
	}, []string{"role"})
	UpstreamState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace, Name: "upstream_circuit_state", Help: "Circuit state per upstream (0 closed, 1 open, 2 half-open)",
	}, []string{"upstream"})
	LocationUpdates = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Name: "location_updates_total", Help: "Driver location reports by source",
	}, []string{"source"})
)
