// Footfall - Retail Foot-Traffic Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footfall

package presence

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
)

// Janitor periodically runs Badger value-log garbage collection on the
// presence store. It runs as a supervised service.
type Janitor struct {
	store    *Store
	interval time.Duration
	logger   zerolog.Logger
	name     string
}

// NewJanitor creates the GC loop. A zero interval defaults to 5 minutes.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewJanitor(store *Store, interval time.Duration, logger zerolog.Logger) *Janitor {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Janitor{
		store:    store,
		interval: interval,
		logger:   logger.With().Str("service", "presence-janitor").Logger(),
		name:     "presence-janitor",
	}
}

// Serve implements suture.Service.
func (j *Janitor) Serve(ctx context.Context) error {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.logger.Info().Dur("interval", j.interval).Msg("Presence janitor started")

	for {
		select {
		case <-ctx.Done():
			j.logger.Info().Msg("Presence janitor stopping")
			return ctx.Err()
		case <-ticker.C:
			if err := j.store.RunGC(); err != nil {
				if errors.Is(err, ErrStoreClosed) {
					return err
				}
				j.logger.Warn().Err(err).Msg("Presence GC pass failed")
			}
		}
	}
}

// String implements fmt.Stringer for suture's event log.
func (j *Janitor) String() string {
	return j.name
}
