// Footfall - Retail Foot-Traffic Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footfall

package session

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/footfall/internal/metrics"
)

// Reaper sweeps open sessions whose last update is older than the idle
// timeout. Lazy close via the tracker handles devices that come back;
// the reaper handles devices that never do.
type Reaper struct {
	store    Store
	timeout  time.Duration
	interval time.Duration
	logger   zerolog.Logger
	name     string
}

// NewReaper creates a reaper sweeping at the given interval.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewReaper(store Store, timeout, interval time.Duration, logger zerolog.Logger) *Reaper {
	return &Reaper{
		store:    store,
		timeout:  timeout,
		interval: interval,
		logger:   logger.With().Str("service", "session-reaper").Logger(),
		name:     "session-reaper",
	}
}

// Serve implements the suture.Service interface.
func (r *Reaper) Serve(ctx context.Context) error {
	if r.interval <= 0 {
		r.interval = 30 * time.Second
	}

	r.logger.Info().
		Dur("timeout", r.timeout).
		Dur("interval", r.interval).
		Msg("session reaper starting")

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info().Msg("session reaper shutting down")
			return ctx.Err()

		case <-ticker.C:
			if err := r.Sweep(ctx); err != nil {
				r.logger.Warn().Err(err).Msg("session sweep failed")
			}
		}
	}
}

// Sweep closes every open session that has not been updated within the
// timeout. Each closed session ends at its own last update time, so a sweep
// that runs late does not inflate session durations. Sweeping is
// idempotent: a second pass over the same data closes nothing.
func (r *Reaper) Sweep(ctx context.Context) error {
	sweepCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	cutoff := time.Now().Add(-r.timeout)
	expired, err := r.store.ListExpiredOpenSessions(sweepCtx, cutoff)
	if err != nil {
		return err
	}

	closed := 0
	for i := range expired {
		sess := &expired[i]
		if err := r.store.CloseSession(sweepCtx, sess.ID, sess.LastUpdatedAt); err != nil {
			r.logger.Warn().
				Err(err).
				Str("session_id", sess.ID).
				Msg("failed to close expired session")
			continue
		}
		metrics.SessionsClosedTotal.WithLabelValues("reaper").Inc()
		closed++
	}

	if closed > 0 {
		r.logger.Debug().
			Int("closed", closed).
			Time("cutoff", cutoff).
			Msg("closed expired sessions")
	}

	if open, err := r.store.CountOpenSessions(sweepCtx); err == nil {
		metrics.SessionsOpenGauge.Set(float64(open))
	}

	return nil
}

// String returns the service name for logging.
func (r *Reaper) String() string {
	return r.name
}
