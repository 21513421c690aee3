// Footfall - Retail Foot-Traffic Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footfall

// Package ingest validates, normalizes and stores sensor detection batches.
//
// A batch is all-or-nothing: any invalid detection rejects the whole batch
// and nothing from it is stored. An empty batch is a heartbeat that only
// refreshes the sensor registry row.
package ingest

import (
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/footfall/internal/models"
)

// ErrInvalidBatch marks batch-level validation failures that the struct
// validator cannot express, such as inverted per-detection timestamps.
var ErrInvalidBatch = errors.New("invalid detection batch")

// ErrRateLimited is returned when a sensor exceeds its ingestion budget.
var ErrRateLimited = errors.New("sensor rate limit exceeded")

// checkDetections enforces the cross-field rules: the batch size cap and
// lastSeen >= firstSeen per detection.
func checkDetections(batch *models.DetectionBatch, maxBatchSize int) error {
	if maxBatchSize > 0 && len(batch.Detections) > maxBatchSize {
		return fmt.Errorf("%w: %d detections exceeds limit of %d",
			ErrInvalidBatch, len(batch.Detections), maxBatchSize)
	}
	for i := range batch.Detections {
		d := &batch.Detections[i]
		if d.LastSeen < d.FirstSeen {
			return fmt.Errorf("%w: detection %d: lastSeen precedes firstSeen",
				ErrInvalidBatch, i)
		}
	}
	return nil
}

// Normalize converts a validated batch into storage-ready sightings.
// MAC addresses are canonicalized into device keys, and the firmware's
// epoch-millisecond timestamps become UTC times. ObservedAt is the batch
// timestamp: the sensor reports when it assembled the batch, not when each
// device was first heard.
func Normalize(batch *models.DetectionBatch) []models.DeviceSighting {
	observedAt := batch.Timestamp.UTC()
	sightings := make([]models.DeviceSighting, 0, len(batch.Detections))
	for i := range batch.Detections {
		d := &batch.Detections[i]
		sightings = append(sightings, models.DeviceSighting{
			SensorID:        batch.SensorID,
			LocationName:    batch.LocationName,
			DeviceKey:       models.NormalizeDeviceKey(d.MACAddress),
			DeviceName:      d.DeviceName,
			RSSI:            d.RSSI,
			DistanceMeters:  d.Distance,
			FirstSeen:       time.UnixMilli(d.FirstSeen).UTC(),
			LastSeen:        time.UnixMilli(d.LastSeen).UTC(),
			DurationSeconds: d.Duration,
			DetectionCount:  d.DetectionCount,
			ObservedAt:      observedAt,
		})
	}
	return sightings
}

// sensorRow builds the registry upsert for a batch. DeviceCount is the
// number of distinct devices in this batch; TotalDetections is the row
// delta the storage layer accumulates.
func sensorRow(batch *models.DetectionBatch, sightings []models.DeviceSighting) *models.Sensor {
	devices := make(map[string]struct{}, len(sightings))
	for i := range sightings {
		devices[sightings[i].DeviceKey] = struct{}{}
	}
	return &models.Sensor{
		SensorID:        batch.SensorID,
		LocationName:    batch.LocationName,
		FirstSeen:       batch.Timestamp.UTC(),
		LastSeen:        batch.Timestamp.UTC(),
		WifiRSSI:        batch.WifiRSSI,
		DeviceCount:     int64(len(devices)),
		TotalDetections: int64(len(sightings)),
	}
}
