// Agora - City Events Ingestion and Reconciliation
// Copyright 2026 Jonas M. (agora-city)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agora-city/agora

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus instrumentation for the harvest pipeline:
// - Per-source record outcomes (added / skipped / errors)
// - Harvest run durations and per-source fetch durations
// - Geocoder outcomes
// - External API circuit breaker state

var (
	// Harvest Metrics
	HarvestRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agora_harvest_runs_total",
			Help: "Total number of harvest runs by result",
		},
		[]string{"result"}, // "ok", "no_sources", "no_cities"
	)

	HarvestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "agora_harvest_duration_seconds",
			Help:    "Wall-clock duration of whole harvest runs in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		},
	)

	HarvestRecords = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agora_harvest_records_total",
			Help: "Total harvested records by source and outcome",
		},
		[]string{"source", "outcome"}, // outcome: "added", "skipped", "error"
	)

	SourceFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "agora_source_fetch_duration_seconds",
			Help:    "Duration of one adapter fetch for one city in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"source"},
	)

	SourceFetchFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agora_source_fetch_failures_total",
			Help: "Total adapter fetches that produced no usable batch",
		},
		[]string{"source"},
	)

	// Geocoder Metrics
	GeocodeRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agora_geocode_requests_total",
			Help: "Total geocode lookups by outcome",
		},
		[]string{"outcome"}, // "ok", "empty", "error"
	)

	// Circuit Breaker Metrics (external providers)
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "agora_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agora_circuit_breaker_transitions_total",
			Help: "Total circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agora_circuit_breaker_requests_total",
			Help: "Total requests through circuit breakers by result",
		},
		[]string{"name", "result"}, // "success", "failure", "rejected"
	)

	// Database Metrics
	DBInserts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agora_db_inserts_total",
			Help: "Total event insert attempts by result",
		},
		[]string{"result"}, // "ok", "error"
	)

	// HTTP API Metrics
	APIRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agora_api_requests_total",
			Help: "Total API requests by method, path and status",
		},
		[]string{"method", "path", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "agora_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "agora_api_active_requests",
			Help: "Number of API requests currently in flight",
		},
	)
)

// RecordAPIRequest records one completed API request.
func RecordAPIRequest(method, path, status string, duration time.Duration) {
	APIRequests.WithLabelValues(method, path, status).Inc()
	APIRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// TrackActiveRequest adjusts the in-flight request gauge.
func TrackActiveRequest(start bool) {
	if start {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}
