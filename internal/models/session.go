// Footfall - Retail Foot-Traffic Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footfall

package models

import (
	"time"
)

// Session is a contiguous visit by one device at one sensor.
//
// EndedAt is nil while the session is open. At most one open session exists
// per (SensorID, DeviceKey) pair. A device returning after the idle timeout
// gets a brand-new session; closed sessions are never reopened.
type Session struct {
	ID                   string     `json:"id"`
	SensorID             string     `json:"sensorId"`
	LocationName         string     `json:"locationName"`
	DeviceKey            string     `json:"deviceKey"`
	DeviceName           string     `json:"deviceName,omitempty"`
	StartedAt            time.Time  `json:"startedAt"`
	EndedAt              *time.Time `json:"endedAt,omitempty"`
	LastUpdatedAt        time.Time  `json:"lastUpdatedAt"`
	TotalDurationSeconds int64      `json:"totalDuration"`
	MinDistance          float64    `json:"minDistance"`
	MaxDistance          float64    `json:"maxDistance"`
	AvgDistance          float64    `json:"avgDistance"`
	SightingCount        int        `json:"sightingCount"`
}

// IsOpen reports whether the session has not been closed.
func (s *Session) IsOpen() bool {
	return s.EndedAt == nil
}

// ApplySighting folds one more sighting into the session. The running
// distance mean is updated incrementally: avg' = (avg*n + d) / (n+1).
func (s *Session) ApplySighting(sighting *DeviceSighting) {
	n := float64(s.SightingCount)
	s.AvgDistance = (s.AvgDistance*n + sighting.DistanceMeters) / (n + 1)
	if sighting.DistanceMeters < s.MinDistance {
		s.MinDistance = sighting.DistanceMeters
	}
	if sighting.DistanceMeters > s.MaxDistance {
		s.MaxDistance = sighting.DistanceMeters
	}
	s.SightingCount++
	s.LastUpdatedAt = sighting.ObservedAt
	s.TotalDurationSeconds = int64(s.LastUpdatedAt.Sub(s.StartedAt).Seconds())
	if sighting.DeviceName != "" {
		s.DeviceName = sighting.DeviceName
	}
}
