// Footfall - Retail Foot-Traffic Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footfall

// Package session maintains continuous-presence sessions per
// (sensor, device) pair.
//
// A session stays open while sightings keep arriving within the idle
// timeout. Expiry is detected lazily, either by the next sighting for the
// same pair or by the background reaper, and a device that reappears after
// the timeout always gets a brand-new session.
package session

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/footfall/internal/database"
	"github.com/tomtom215/footfall/internal/metrics"
	"github.com/tomtom215/footfall/internal/models"
)

// stripeCount is the number of lock stripes. Must be a power of two.
const stripeCount = 64

// Store is the session persistence interface the tracker needs.
// Satisfied by *database.DB.
type Store interface {
	GetOpenSession(ctx context.Context, sensorID, deviceKey string) (*models.Session, error)
	CreateSession(ctx context.Context, sess *models.Session) error
	UpdateSession(ctx context.Context, sess *models.Session) error
	CloseSession(ctx context.Context, sessionID string, endedAt time.Time) error
	ListExpiredOpenSessions(ctx context.Context, cutoff time.Time) ([]models.Session, error)
	CountOpenSessions(ctx context.Context) (int64, error)
}

// Tracker serializes session mutations per (sensor_id, device_key) while
// letting unrelated pairs proceed in parallel. Locking is striped: each
// pair hashes to one of stripeCount mutexes, so there is no global lock
// across sensors and reads never contend with ingestion.
type Tracker struct {
	store   Store
	timeout time.Duration
	stripes [stripeCount]sync.Mutex
}

// NewTracker creates a tracker with the given idle timeout.
func NewTracker(store Store, timeout time.Duration) *Tracker {
	return &Tracker{
		store:   store,
		timeout: timeout,
	}
}

// Timeout returns the configured idle timeout.
func (t *Tracker) Timeout() time.Duration {
	return t.timeout
}

// Process folds one sighting into session state for its pair.
//
// Exactly one of three things happens:
//   - no open session exists: a new one is created starting at the sighting
//   - an open session exists and the gap since its last update is below the
//     timeout: the session is updated in place
//   - the gap reached the timeout: the stale session is closed at its last
//     update time and a new session is created (not a resume)
func (t *Tracker) Process(ctx context.Context, sighting *models.DeviceSighting) error {
	mu := t.stripeFor(sighting.SensorID, sighting.DeviceKey)
	mu.Lock()
	defer mu.Unlock()

	sess, err := t.store.GetOpenSession(ctx, sighting.SensorID, sighting.DeviceKey)
	if errors.Is(err, database.ErrSessionNotFound) {
		return t.openSession(ctx, sighting)
	}
	if err != nil {
		return fmt.Errorf("failed to look up open session: %w", err)
	}

	gap := sighting.ObservedAt.Sub(sess.LastUpdatedAt)
	if gap < t.timeout {
		sess.ApplySighting(sighting)
		err := t.store.UpdateSession(ctx, sess)
		if errors.Is(err, database.ErrSessionNotFound) {
			// The reaper closed it between our read and write. Not an
			// error: the device is back, so it gets a fresh session.
			return t.openSession(ctx, sighting)
		}
		if err != nil {
			return fmt.Errorf("failed to update session %s: %w", sess.ID, err)
		}
		return nil
	}

	// The pair went quiet past the timeout. The old visit ended at its
	// last sighting; the current sighting starts a new one.
	err = t.store.CloseSession(ctx, sess.ID, sess.LastUpdatedAt)
	if err != nil && !errors.Is(err, database.ErrSessionNotFound) {
		return fmt.Errorf("failed to close expired session %s: %w", sess.ID, err)
	}
	if err == nil {
		metrics.SessionsClosedTotal.WithLabelValues("gap").Inc()
	}
	return t.openSession(ctx, sighting)
}

func (t *Tracker) openSession(ctx context.Context, sighting *models.DeviceSighting) error {
	sess := &models.Session{
		ID:            uuid.NewString(),
		SensorID:      sighting.SensorID,
		LocationName:  sighting.LocationName,
		DeviceKey:     sighting.DeviceKey,
		DeviceName:    sighting.DeviceName,
		StartedAt:     sighting.ObservedAt,
		LastUpdatedAt: sighting.ObservedAt,
		MinDistance:   sighting.DistanceMeters,
		MaxDistance:   sighting.DistanceMeters,
		AvgDistance:   sighting.DistanceMeters,
		SightingCount: 1,
	}
	if err := t.store.CreateSession(ctx, sess); err != nil {
		return fmt.Errorf("failed to create session for %s/%s: %w",
			sighting.SensorID, sighting.DeviceKey, err)
	}
	metrics.SessionsOpenedTotal.Inc()
	return nil
}

func (t *Tracker) stripeFor(sensorID, deviceKey string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(sensorID))
	h.Write([]byte{0})
	h.Write([]byte(deviceKey))
	return &t.stripes[h.Sum32()&(stripeCount-1)]
}
