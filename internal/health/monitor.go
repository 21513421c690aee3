// Footfall - Retail Foot-Traffic Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footfall

// Package health classifies sensor liveness from batch recency.
//
// Classification is a pure function of seconds since the sensor's last
// accepted batch. Sensors report every 5-30 seconds, so the thresholds
// leave room for network delays and retries before escalating.
package health

import (
	"context"
	"time"

	"github.com/tomtom215/footfall/internal/models"
)

// Status thresholds in seconds. Half-open partition of [0, infinity):
// online covers [0,120), standby [120,240), error [240,900), offline
// the rest.
const (
	standbyAfter = 120 * time.Second
	errorAfter   = 240 * time.Second
	offlineAfter = 900 * time.Second
)

// Classify maps time-since-last-batch to a health status. Negative values
// (clock skew between sensor and server) clamp to online. Sensors that have
// never reported are handled by Snapshot before classification.
func Classify(sinceLastSeen time.Duration) models.HealthStatus {
	switch {
	case sinceLastSeen < standbyAfter:
		return models.HealthOnline
	case sinceLastSeen < errorAfter:
		return models.HealthStandby
	case sinceLastSeen < offlineAfter:
		return models.HealthError
	default:
		return models.HealthOffline
	}
}

// Snapshot derives the full health view for one sensor at the given time.
// A sensor with no recorded batch gets HealthUnknown rather than a recency
// classification against the zero time.
func Snapshot(sensor *models.Sensor, now time.Time) models.SensorHealth {
	if sensor.LastSeen.IsZero() {
		return models.SensorHealth{
			SensorID:        sensor.SensorID,
			LocationName:    sensor.LocationName,
			Status:          models.HealthUnknown,
			DeviceCount:     sensor.DeviceCount,
			TotalDetections: sensor.TotalDetections,
			WifiRSSI:        sensor.WifiRSSI,
		}
	}

	since := now.Sub(sensor.LastSeen)
	if since < 0 {
		since = 0
	}
	secondsAgo := since.Seconds()

	return models.SensorHealth{
		SensorID:          sensor.SensorID,
		LocationName:      sensor.LocationName,
		Status:            Classify(since),
		LastSeen:          sensor.LastSeen,
		SecondsSinceSeen:  int64(secondsAgo),
		UptimePercent:     uptimePercent(secondsAgo),
		AvgDevicesPerHour: avgDevicesPerHour(sensor.TotalDetections, secondsAgo),
		DeviceCount:       sensor.DeviceCount,
		TotalDetections:   sensor.TotalDetections,
		WifiRSSI:          sensor.WifiRSSI,
	}
}

// uptimePercent is a synthetic availability figure over a rolling day,
// decaying linearly with silence and floored at zero.
func uptimePercent(secondsAgo float64) float64 {
	uptime := 100 - secondsAgo/60/24*100
	if uptime < 0 {
		return 0
	}
	return uptime
}

// avgDevicesPerHour spreads the sensor's total detections over the hours
// since it last reported. A sensor seen just now reports its raw total.
func avgDevicesPerHour(totalDetections int64, secondsAgo float64) float64 {
	hours := secondsAgo / 3600
	if hours <= 0 {
		return float64(totalDetections)
	}
	return float64(totalDetections) / hours
}

// Registry lists the sensors to snapshot. Satisfied by *database.DB.
type Registry interface {
	ListSensors(ctx context.Context) ([]models.Sensor, error)
}

// Monitor produces health snapshots for every registered sensor.
type Monitor struct {
	registry Registry
}

// NewMonitor creates a monitor over the given registry.
func NewMonitor(registry Registry) *Monitor {
	return &Monitor{registry: registry}
}

// SnapshotAll returns the health view for every sensor, in registry order.
func (m *Monitor) SnapshotAll(ctx context.Context, now time.Time) ([]models.SensorHealth, error) {
	sensors, err := m.registry.ListSensors(ctx)
	if err != nil {
		return nil, err
	}
	health := make([]models.SensorHealth, 0, len(sensors))
	for i := range sensors {
		health = append(health, Snapshot(&sensors[i], now))
	}
	return health, nil
}
