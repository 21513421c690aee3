// Footfall - Retail Foot-Traffic Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footfall

package models

import (
	"time"
)

// Sensor is a registry row for a reporting sensor. Every accepted batch,
// including empty heartbeats, refreshes LastSeen.
type Sensor struct {
	SensorID        string    `json:"sensorId"`
	LocationName    string    `json:"locationName"`
	FirstSeen       time.Time `json:"firstSeen"`
	LastSeen        time.Time `json:"lastSeen"`
	WifiRSSI        *int      `json:"wifiRssi,omitempty"`
	DeviceCount     int64     `json:"deviceCount"`
	TotalDetections int64     `json:"totalDetections"`
	ErrorCount      int64     `json:"errorCount"`
}

// HealthStatus classifies how recently a sensor reported.
type HealthStatus string

const (
	HealthOnline  HealthStatus = "online"
	HealthStandby HealthStatus = "standby"
	HealthError   HealthStatus = "error"
	HealthOffline HealthStatus = "offline"

	// HealthUnknown marks a registry row with no recorded batch. Normal
	// ingest always stamps LastSeen, so this only shows up for rows
	// created outside that path.
	HealthUnknown HealthStatus = "unknown"
)

// SensorHealth is a derived health snapshot for one sensor. It is computed
// on read and never persisted.
type SensorHealth struct {
	SensorID          string       `json:"sensorId"`
	LocationName      string       `json:"locationName"`
	Status            HealthStatus `json:"status"`
	LastSeen          time.Time    `json:"lastSeen"`
	SecondsSinceSeen  int64        `json:"secondsSinceSeen"`
	UptimePercent     float64      `json:"uptimePercent"`
	AvgDevicesPerHour float64      `json:"avgDevicesPerHour"`
	DeviceCount       int64        `json:"deviceCount"`
	TotalDetections   int64        `json:"totalDetections"`
	WifiRSSI          *int         `json:"wifiRssi,omitempty"`
}
