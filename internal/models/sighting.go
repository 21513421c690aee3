// Footfall - Retail Foot-Traffic Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footfall

// Package models defines the Footfall domain types: device sightings, visit
// sessions, sensor registry rows, derived analytics, and the API envelope.
package models

import (
	"strconv"
	"strings"
	"time"
)

// DetectionBatch is the wire form of a sensor report.
//
// An empty Detections slice is a valid heartbeat: it refreshes the sensor's
// last_seen without recording any sightings.
type DetectionBatch struct {
	SensorID     string             `json:"sensorId" validate:"required,max=64"`
	LocationName string             `json:"locationName" validate:"required,max=128"`
	Timestamp    time.Time          `json:"timestamp" validate:"required"`
	WifiRSSI     *int               `json:"wifiRssi,omitempty"`
	Detections   []DetectionPayload `json:"detections" validate:"dive"`
}

// DetectionPayload is a single device observation inside a batch.
//
// RSSI is a pointer: an absent reading is not the same as a reading of 0 dBm.
type DetectionPayload struct {
	MACAddress     string  `json:"macAddress" validate:"required,mac"`
	DeviceName     string  `json:"deviceName,omitempty" validate:"max=128"`
	RSSI           *int    `json:"rssi,omitempty"`
	Distance       float64 `json:"distance" validate:"gte=0"`
	FirstSeen      int64   `json:"firstSeen" validate:"required"`
	LastSeen       int64   `json:"lastSeen" validate:"required"`
	Duration       int64   `json:"duration" validate:"gte=0"`
	DetectionCount int     `json:"detectionCount" validate:"gte=1"`
}

// DeviceSighting is a normalized observation ready for storage and session
// tracking. DeviceKey is the canonicalized MAC address.
type DeviceSighting struct {
	ID              int64     `json:"id,omitempty"`
	SensorID        string    `json:"sensorId"`
	LocationName    string    `json:"locationName"`
	DeviceKey       string    `json:"deviceKey"`
	DeviceName      string    `json:"deviceName,omitempty"`
	RSSI            *int      `json:"rssi,omitempty"`
	DistanceMeters  float64   `json:"distance"`
	FirstSeen       time.Time `json:"firstSeen"`
	LastSeen        time.Time `json:"lastSeen"`
	DurationSeconds int64     `json:"duration"`
	DetectionCount  int       `json:"detectionCount"`
	ObservedAt      time.Time `json:"observedAt"`
}

// NormalizeDeviceKey canonicalizes a MAC address: uppercase, colon-separated.
// Accepts dash-separated input from sensors with alternate firmware.
func NormalizeDeviceKey(mac string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(mac), "-", ":"))
}

// Device type labels for the sighting breakdown in AggregatedStats.
const (
	DeviceTypeMobile = "mobile"
	DeviceTypeOther  = "other"
)

// ClassifyDeviceType buckets a device key by its first octet. Universally
// administered MACs read as real hardware and count as mobile devices.
// Locally administered (randomized) and multicast addresses, and keys that
// do not parse, fall into the other bucket.
func ClassifyDeviceType(key string) string {
	if len(key) < 2 {
		return DeviceTypeOther
	}
	octet, err := strconv.ParseUint(key[:2], 16, 8)
	if err != nil || octet&0x03 != 0 {
		return DeviceTypeOther
	}
	return DeviceTypeMobile
}

// MaskDeviceKey returns the display form of a device key: first two octets,
// two masked groups, last octet. "AA:BB:CC:DD:EE:FF" becomes "AA:BB:**:**:FF".
// Keys with fewer than three groups are returned unchanged.
//
// Masking is presentation-only. Stored keys are never masked.
func MaskDeviceKey(key string) string {
	parts := strings.Split(key, ":")
	if len(parts) < 3 {
		return key
	}
	return parts[0] + ":" + parts[1] + ":**:**:" + parts[len(parts)-1]
}
