// Footfall - Retail Foot-Traffic Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footfall

// Package metrics provides Prometheus instrumentation for the service:
// ingestion throughput, session lifecycle, storage query performance, API
// latency, presence-store activity, and circuit breaker state.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Ingestion metrics
	IngestBatchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_batches_total",
			Help: "Total number of detection batches received",
		},
		[]string{"sensor_id", "result"}, // result: "accepted", "rejected", "rate_limited", "failed"
	)

	IngestSightingsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ingest_sightings_total",
			Help: "Total number of device sightings stored",
		},
	)

	IngestRejectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_rejected_total",
			Help: "Total number of rejected batches by reason",
		},
		[]string{"reason"}, // "validation", "rate_limit", "storage"
	)

	IngestBatchSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ingest_batch_size",
			Help:    "Number of detections per accepted batch",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250, 500},
		},
	)

	// Session lifecycle metrics
	SessionsOpenedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sessions_opened_total",
			Help: "Total number of visit sessions opened",
		},
	)

	SessionsClosedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sessions_closed_total",
			Help: "Total number of visit sessions closed",
		},
		[]string{"cause"}, // "gap", "reaper"
	)

	SessionsOpenGauge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sessions_open",
			Help: "Current number of open visit sessions",
		},
	)

	// Database metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "duckdb_query_duration_seconds",
			Help:    "Duration of DuckDB queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duckdb_query_errors_total",
			Help: "Total number of DuckDB query errors",
		},
		[]string{"operation", "table", "error_type"},
	)

	// API endpoint metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	// Presence store metrics
	PresenceTouchesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "presence_touches_total",
			Help: "Total number of live-presence writes",
		},
	)

	PresenceLiveDevices = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "presence_live_devices",
			Help: "Devices counted live per sensor at last refresh",
		},
		[]string{"sensor_id"},
	)

	PresenceGCRuns = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "presence_gc_runs_total",
			Help: "Total number of presence store value-log GC runs",
		},
	)

	// Insight metrics
	InsightEvaluationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "insight_evaluations_total",
			Help: "Total number of insight rule evaluations",
		},
		[]string{"rule", "fired"},
	)

	// Sensor health metrics
	SensorsByStatus = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "sensors_by_status",
			Help: "Number of sensors in each health status at last poll",
		},
		[]string{"status"}, // "online", "standby", "error", "offline"
	)

	// Circuit breaker metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)
)

// RecordDBQuery records a database query metric
func RecordDBQuery(operation, table string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		errorType := err.Error()
		// Truncate long error messages
		if len(errorType) > 50 {
			errorType = errorType[:50]
		}
		DBQueryErrors.WithLabelValues(operation, table, errorType).Inc()
	}
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordBatchAccepted records a successfully stored batch.
func RecordBatchAccepted(sensorID string, detections int) {
	IngestBatchesTotal.WithLabelValues(sensorID, "accepted").Inc()
	IngestBatchSize.Observe(float64(detections))
	IngestSightingsTotal.Add(float64(detections))
}

// RecordBatchRejected records a rejected batch with the rejection reason.
func RecordBatchRejected(sensorID, reason string) {
	IngestBatchesTotal.WithLabelValues(sensorID, "rejected").Inc()
	IngestRejectedTotal.WithLabelValues(reason).Inc()
}

// RecordInsightEvaluation records one rule evaluation and whether it fired.
func RecordInsightEvaluation(rule string, fired bool) {
	firedLabel := "false"
	if fired {
		firedLabel = "true"
	}
	InsightEvaluationsTotal.WithLabelValues(rule, firedLabel).Inc()
}
