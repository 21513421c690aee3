// Footfall - Retail Foot-Traffic Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footfall

package ingest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/tomtom215/footfall/internal/config"
	"github.com/tomtom215/footfall/internal/database"
	"github.com/tomtom215/footfall/internal/logging"
	"github.com/tomtom215/footfall/internal/metrics"
	"github.com/tomtom215/footfall/internal/models"
	"github.com/tomtom215/footfall/internal/validation"
)

// Store is the persistence surface the processor writes through.
// Satisfied by *database.DB.
type Store interface {
	UpsertSensor(ctx context.Context, sensor *models.Sensor) error
	IncrementSensorErrors(ctx context.Context, sensorID string) error
	InsertDetections(ctx context.Context, sightings []models.DeviceSighting) error
}

// SessionTracker folds sightings into session state.
// Satisfied by *session.Tracker.
type SessionTracker interface {
	Process(ctx context.Context, sighting *models.DeviceSighting) error
}

// PresenceRecorder marks devices live for the real-time occupancy count.
// Satisfied by *presence.Store.
type PresenceRecorder interface {
	Touch(sensorID, deviceKey string) error
}

// Processor runs the full ingestion pipeline for one batch: rate gate,
// validation, normalization, sensor upsert, detection append, session
// tracking and presence touch.
type Processor struct {
	store    Store
	tracker  SessionTracker
	presence PresenceRecorder
	cfg      *config.IngestConfig

	breaker *gobreaker.CircuitBreaker[any]

	// limiters maps sensor ID to its *rate.Limiter.
	limiters sync.Map
}

// NewProcessor creates a processor with a circuit breaker around storage
// writes. Breaker configuration: opens after a 60% failure rate with at
// least 10 requests, 1 minute measurement window, 30s recovery timeout.
func NewProcessor(store Store, tracker SessionTracker, presence PresenceRecorder, cfg *config.IngestConfig) *Processor {
	const breakerName = "ingest-storage"

	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(0) // 0 = closed

	breaker := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= 0.6
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr, toStr := stateToString(from), stateToString(to)
			logging.Warn().
				Str("breaker", name).
				Str("from", fromStr).
				Str("to", toStr).
				Msg("Ingest storage breaker state change")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()
		},
	})

	return &Processor{
		store:    store,
		tracker:  tracker,
		presence: presence,
		cfg:      cfg,
		breaker:  breaker,
	}
}

// ProcessBatch ingests one detection batch and returns the number of
// sightings stored. A heartbeat (empty detections) returns 0 with no error.
//
// Error mapping for callers: ErrRateLimited means 429,
// *validation.RequestValidationError and ErrInvalidBatch mean 400,
// anything else is a storage failure.
func (p *Processor) ProcessBatch(ctx context.Context, batch *models.DetectionBatch) (int, error) {
	if !p.allow(batch.SensorID) {
		metrics.RecordBatchRejected(batch.SensorID, "rate_limited")
		return 0, fmt.Errorf("%w: sensor %s", ErrRateLimited, batch.SensorID)
	}

	if verr := validation.ValidateStruct(batch); verr != nil {
		metrics.RecordBatchRejected(batch.SensorID, "validation")
		return 0, verr
	}
	if err := checkDetections(batch, p.cfg.MaxBatchSize); err != nil {
		metrics.RecordBatchRejected(batch.SensorID, "validation")
		return 0, err
	}

	sightings := Normalize(batch)

	if err := p.writeThrough(ctx, func(ctx context.Context) error {
		return p.store.UpsertSensor(ctx, sensorRow(batch, sightings))
	}); err != nil {
		metrics.RecordBatchRejected(batch.SensorID, "storage")
		return 0, fmt.Errorf("failed to upsert sensor %s: %w", batch.SensorID, err)
	}

	if len(sightings) == 0 {
		logging.Debug().
			Str("sensor_id", batch.SensorID).
			Msg("Heartbeat received")
		metrics.RecordBatchAccepted(batch.SensorID, 0)
		return 0, nil
	}

	if err := p.writeThrough(ctx, func(ctx context.Context) error {
		return p.store.InsertDetections(ctx, sightings)
	}); err != nil {
		metrics.RecordBatchRejected(batch.SensorID, "storage")
		if ierr := p.store.IncrementSensorErrors(ctx, batch.SensorID); ierr != nil {
			logging.Warn().Err(ierr).
				Str("sensor_id", batch.SensorID).
				Msg("Failed to record sensor error count")
		}
		return 0, fmt.Errorf("failed to store detections for %s: %w", batch.SensorID, err)
	}

	for i := range sightings {
		s := &sightings[i]
		if err := p.tracker.Process(ctx, s); err != nil {
			// The sighting row is already stored. Session state heals on
			// the next sighting, so log and continue with the batch.
			logging.Error().Err(err).
				Str("sensor_id", s.SensorID).
				Str("device_key", models.MaskDeviceKey(s.DeviceKey)).
				Msg("Session tracking failed for sighting")
			continue
		}
		if err := p.presence.Touch(s.SensorID, s.DeviceKey); err != nil {
			logging.Warn().Err(err).
				Str("sensor_id", s.SensorID).
				Msg("Presence touch failed")
		}
	}

	metrics.RecordBatchAccepted(batch.SensorID, len(sightings))
	return len(sightings), nil
}

// writeThrough executes a storage write behind the circuit breaker,
// retrying transient failures per the configured attempts and delay.
func (p *Processor) writeThrough(ctx context.Context, write func(context.Context) error) error {
	var err error
	for attempt := 0; attempt <= p.cfg.RetryAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(p.cfg.RetryDelay):
			}
			logging.Debug().
				Int("attempt", attempt).
				Msg("Retrying storage write")
		}

		_, err = p.breaker.Execute(func() (any, error) {
			return nil, write(ctx)
		})
		if err == nil {
			metrics.CircuitBreakerRequests.WithLabelValues("ingest-storage", "success").Inc()
			return nil
		}

		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.CircuitBreakerRequests.WithLabelValues("ingest-storage", "rejected").Inc()
			return err
		}
		metrics.CircuitBreakerRequests.WithLabelValues("ingest-storage", "failure").Inc()

		if !database.IsTransient(err) {
			return err
		}
	}
	return err
}

// allow checks the sensor's token bucket. A non-positive configured rate
// disables the gate.
func (p *Processor) allow(sensorID string) bool {
	if p.cfg.SensorRatePerSecond <= 0 {
		return true
	}
	limiter, ok := p.limiters.Load(sensorID)
	if !ok {
		limiter, _ = p.limiters.LoadOrStore(sensorID,
			rate.NewLimiter(rate.Limit(p.cfg.SensorRatePerSecond), p.cfg.SensorRateBurst))
	}
	return limiter.(*rate.Limiter).Allow()
}

func stateToString(s gobreaker.State) string {
	switch s {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

func stateToFloat(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateOpen:
		return 1
	case gobreaker.StateHalfOpen:
		return 2
	default:
		return -1
	}
}
