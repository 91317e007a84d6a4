// SPDX-License-Identifier: MIT

// Package metrics holds the Prometheus collectors for upstream fetches,
// source aggregation and the Xtream backend.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// No source URLs or keys in labels: the catalog is operator-defined and
// unbounded.

var (
	// Upstream fetch metrics
	fetchRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chouftv_fetch_requests_total",
		Help: "Outbound playlist and API fetches by outcome",
	}, []string{"outcome"}) // outcome=ok|status|transport|timeout|too_large

	fetchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "chouftv_fetch_duration_seconds",
		Help:    "Outbound fetch latency",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
	}, []string{"outcome"})

	// Reachability
	reachabilityChecksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chouftv_reachability_checks_total",
		Help: "Source reachability probes by result",
	}, []string{"result"}) // result=reachable|unreachable

	// Aggregation metrics
	aggregationSourcesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chouftv_aggregation_sources_total",
		Help: "Sources processed during aggregation by dimension and outcome",
	}, []string{"dimension", "outcome"}) // outcome=success|failure

	aggregationChannels = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "chouftv_aggregation_channels",
		Help: "Channels in the last aggregation by path and stage",
	}, []string{"path", "stage"}) // path=general|sports|combined stage=total|unique

	// Xtream backend
	xtreamAuthAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chouftv_xtream_auth_attempts_total",
		Help: "Xtream authentication attempts by outcome",
	}, []string{"outcome"}) // outcome=success|failure

	xtreamRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chouftv_xtream_requests_total",
		Help: "Xtream player_api calls by action and outcome",
	}, []string{"action", "outcome"})

	liveProbeTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chouftv_live_probe_total",
		Help: "Live stream format probes by selected format",
	}, []string{"format", "fallback"})

	// Operational
	staticRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chouftv_static_requests_total",
		Help: "Static file requests by outcome",
	}, []string{"outcome"}) // outcome=served|not_modified|not_found|forbidden|error

	configReloadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chouftv_config_reloads_total",
		Help: "Configuration reloads by outcome",
	}, []string{"outcome"})
)

// ObserveFetch records one outbound fetch.
func ObserveFetch(outcome string, d time.Duration) {
	fetchRequestsTotal.WithLabelValues(outcome).Inc()
	fetchDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

// RecordReachability records the result of a source probe.
func RecordReachability(ok bool) {
	if ok {
		reachabilityChecksTotal.WithLabelValues("reachable").Inc()
		return
	}
	reachabilityChecksTotal.WithLabelValues("unreachable").Inc()
}

// RecordSource records one processed aggregation source.
func RecordSource(dimension string, ok bool) {
	outcome := "success"
	if !ok {
		outcome = "failure"
	}
	aggregationSourcesTotal.WithLabelValues(dimension, outcome).Inc()
}

// RecordAggregation records totals of the last aggregation on a path.
func RecordAggregation(path string, total, unique int) {
	aggregationChannels.WithLabelValues(path, "total").Set(float64(total))
	aggregationChannels.WithLabelValues(path, "unique").Set(float64(unique))
}

// RecordAuthAttempt records one Xtream authentication attempt.
func RecordAuthAttempt(ok bool) {
	if ok {
		xtreamAuthAttemptsTotal.WithLabelValues("success").Inc()
		return
	}
	xtreamAuthAttemptsTotal.WithLabelValues("failure").Inc()
}

// RecordXtreamRequest records one player_api call.
func RecordXtreamRequest(action string, err error) {
	if action == "" {
		action = "auth"
	}
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	xtreamRequestsTotal.WithLabelValues(action, outcome).Inc()
}

// RecordLiveProbe records which format a live probe settled on.
func RecordLiveProbe(format string, fallback bool) {
	fb := "false"
	if fallback {
		fb = "true"
	}
	liveProbeTotal.WithLabelValues(format, fb).Inc()
}

// RecordConfigReload records a configuration reload attempt.
func RecordConfigReload(ok bool) {
	if ok {
		configReloadsTotal.WithLabelValues("success").Inc()
		return
	}
	configReloadsTotal.WithLabelValues("failure").Inc()
}

// RecordStaticRequest records one static file request.
func RecordStaticRequest(outcome string) {
	staticRequestsTotal.WithLabelValues(outcome).Inc()
}
