// Footfall - Retail Foot-Traffic Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footfall

package health

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/footfall/internal/metrics"
	"github.com/tomtom215/footfall/internal/models"
)

// Poller refreshes sensor health on an interval and exports per-status
// gauges. Polling is read-only and idempotent: the same registry state
// always produces the same snapshot.
type Poller struct {
	monitor  *Monitor
	interval time.Duration
	logger   zerolog.Logger
	name     string
}

// NewPoller creates a health poller.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewPoller(monitor *Monitor, interval time.Duration, logger zerolog.Logger) *Poller {
	return &Poller{
		monitor:  monitor,
		interval: interval,
		logger:   logger.With().Str("service", "health-poller").Logger(),
		name:     "health-poller",
	}
}

// Serve implements the suture.Service interface.
func (p *Poller) Serve(ctx context.Context) error {
	if p.interval <= 0 {
		p.interval = 15 * time.Second
	}

	p.logger.Info().Dur("interval", p.interval).Msg("health poller starting")

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info().Msg("health poller shutting down")
			return ctx.Err()

		case <-ticker.C:
			if err := p.Poll(ctx); err != nil {
				p.logger.Warn().Err(err).Msg("health poll failed")
			}
		}
	}
}

// Poll snapshots every sensor and refreshes the per-status gauges. Every
// status is written each cycle so a status with no sensors reads zero
// instead of going stale.
func (p *Poller) Poll(ctx context.Context) error {
	pollCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	snapshots, err := p.monitor.SnapshotAll(pollCtx, time.Now())
	if err != nil {
		return err
	}

	byStatus := map[models.HealthStatus]int{
		models.HealthOnline:  0,
		models.HealthStandby: 0,
		models.HealthError:   0,
		models.HealthOffline: 0,
		models.HealthUnknown: 0,
	}
	for i := range snapshots {
		byStatus[snapshots[i].Status]++
	}
	for status, count := range byStatus {
		metrics.SensorsByStatus.WithLabelValues(string(status)).Set(float64(count))
	}

	p.logger.Debug().
		Int("sensors", len(snapshots)).
		Int("online", byStatus[models.HealthOnline]).
		Int("offline", byStatus[models.HealthOffline]).
		Msg("sensor health refreshed")

	return nil
}

// String returns the service name for logging.
func (p *Poller) String() string {
	return p.name
}
