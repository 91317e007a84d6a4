// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	circuitBreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "chouftv_circuit_breaker_state",
		Help: "Circuit breaker state per upstream host (1 for the active state, 0 otherwise)",
	}, []string{"host", "state"})

	circuitBreakerTrips = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chouftv_circuit_breaker_trips_total",
		Help: "Total number of circuit breaker trips (transitions to open state)",
	}, []string{"host", "reason"})
)

var circuitStates = []string{"closed", "half-open", "open"}

// SetCircuitBreakerState records the active state of a host's breaker.
func SetCircuitBreakerState(host, state string) {
	for _, s := range circuitStates {
		value := 0.0
		if s == state {
			value = 1.0
		}
		circuitBreakerState.WithLabelValues(host, s).Set(value)
	}
}

// RecordCircuitBreakerTrip counts transitions to open.
func RecordCircuitBreakerTrip(host, reason string) {
	circuitBreakerTrips.WithLabelValues(host, reason).Inc()
}
