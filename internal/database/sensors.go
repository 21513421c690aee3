// Footfall - Retail Foot-Traffic Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footfall

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/footfall/internal/metrics"
	"github.com/tomtom215/footfall/internal/models"
)

// UpsertSensor registers or refreshes a sensor row. Called for every accepted
// batch, including empty heartbeats: last_seen always advances, wifi_rssi is
// kept when the batch carries none, total_detections accumulates, and
// device_count reflects the latest batch.
func (db *DB) UpsertSensor(ctx context.Context, sensor *models.Sensor) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO sensors (sensor_id, location_name, first_seen, last_seen, wifi_rssi, device_count, total_detections, error_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, 0)
		ON CONFLICT (sensor_id) DO UPDATE SET
			location_name    = excluded.location_name,
			last_seen        = excluded.last_seen,
			wifi_rssi        = COALESCE(excluded.wifi_rssi, sensors.wifi_rssi),
			device_count     = excluded.device_count,
			total_detections = sensors.total_detections + excluded.total_detections`,
		sensor.SensorID, sensor.LocationName, sensor.FirstSeen, sensor.LastSeen,
		sensor.WifiRSSI, sensor.DeviceCount, sensor.TotalDetections)
	metrics.RecordDBQuery("upsert", "sensors", time.Since(start), err)

	if err != nil {
		return fmt.Errorf("failed to upsert sensor %s: %w", sensor.SensorID, err)
	}
	return nil
}

// IncrementSensorErrors bumps a sensor's error counter. Missing sensors are
// ignored: a batch that fails validation may name a sensor that never
// registered.
func (db *DB) IncrementSensorErrors(ctx context.Context, sensorID string) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	_, err := db.conn.ExecContext(ctx,
		`UPDATE sensors SET error_count = error_count + 1 WHERE sensor_id = ?`, sensorID)
	metrics.RecordDBQuery("update", "sensors", time.Since(start), err)

	if err != nil {
		return fmt.Errorf("failed to increment error count for sensor %s: %w", sensorID, err)
	}
	return nil
}

// GetSensor returns one registry row.
func (db *DB) GetSensor(ctx context.Context, sensorID string) (*models.Sensor, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	row := db.conn.QueryRowContext(ctx, `
		SELECT sensor_id, location_name, first_seen, last_seen, wifi_rssi, device_count, total_detections, error_count
		FROM sensors WHERE sensor_id = ?`, sensorID)

	sensor, err := scanSensor(row)
	metrics.RecordDBQuery("select", "sensors", time.Since(start), err)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSensorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sensor %s: %w", sensorID, err)
	}
	return sensor, nil
}

// ListSensors returns all registry rows ordered by location then ID.
func (db *DB) ListSensors(ctx context.Context) ([]models.Sensor, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, `
		SELECT sensor_id, location_name, first_seen, last_seen, wifi_rssi, device_count, total_detections, error_count
		FROM sensors ORDER BY location_name, sensor_id`)
	metrics.RecordDBQuery("select", "sensors", time.Since(start), err)

	if err != nil {
		return nil, fmt.Errorf("failed to list sensors: %w", err)
	}
	defer closeWithLog(rows, "sensors rows")

	var sensors []models.Sensor
	for rows.Next() {
		sensor, err := scanSensor(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sensor row: %w", err)
		}
		sensors = append(sensors, *sensor)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sensor row iteration failed: %w", err)
	}

	return sensors, nil
}

// rowScanner covers *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSensor(s rowScanner) (*models.Sensor, error) {
	var sensor models.Sensor
	var rssi sql.NullInt64

	err := s.Scan(&sensor.SensorID, &sensor.LocationName, &sensor.FirstSeen,
		&sensor.LastSeen, &rssi, &sensor.DeviceCount, &sensor.TotalDetections, &sensor.ErrorCount)
	if err != nil {
		return nil, err
	}

	if rssi.Valid {
		v := int(rssi.Int64)
		sensor.WifiRSSI = &v
	}
	return &sensor, nil
}
