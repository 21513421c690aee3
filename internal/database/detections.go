// Footfall - Retail Foot-Traffic Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footfall

package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/tomtom215/footfall/internal/metrics"
	"github.com/tomtom215/footfall/internal/models"
)

// Query limits. Every detection and session query is capped so a filterless
// request cannot stream the whole table.
const (
	defaultQueryLimit = 1000
	maxQueryLimit     = 1000
)

// InsertDetections appends normalized sightings in one transaction.
// The detection log is append-only; rows are never updated or deleted.
func (db *DB) InsertDetections(ctx context.Context, sightings []models.DeviceSighting) error {
	if len(sightings) == 0 {
		return nil
	}

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	err := db.insertDetectionsTx(ctx, sightings)
	metrics.RecordDBQuery("insert", "detections", time.Since(start), err)

	if err != nil {
		return fmt.Errorf("failed to insert %d detections: %w", len(sightings), err)
	}
	return nil
}

func (db *DB) insertDetectionsTx(ctx context.Context, sightings []models.DeviceSighting) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback() // No-op after commit
	}()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO detections (sensor_id, location_name, device_key, device_name, rssi,
			distance, first_seen, last_seen, duration, detection_count, observed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer closeWithLog(stmt, "insert statement")

	for i := range sightings {
		s := &sightings[i]
		if _, err := stmt.ExecContext(ctx, s.SensorID, s.LocationName, s.DeviceKey,
			nullString(s.DeviceName), s.RSSI, s.DistanceMeters, s.FirstSeen, s.LastSeen,
			s.DurationSeconds, s.DetectionCount, s.ObservedAt); err != nil {
			return fmt.Errorf("failed to insert detection for %s: %w", s.DeviceKey, err)
		}
	}

	return tx.Commit()
}

// QueryDetections returns sightings matching the filter, newest first.
func (db *DB) QueryDetections(ctx context.Context, filter QueryFilter) ([]models.DeviceSighting, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	clauses, args := buildFilterClauses(filter, "observed_at")
	limit := clampLimit(filter.Limit, defaultQueryLimit, maxQueryLimit)
	args = append(args, limit)

	query := fmt.Sprintf(`
		SELECT id, sensor_id, location_name, device_key, device_name, rssi,
			distance, first_seen, last_seen, duration, detection_count, observed_at
		FROM detections
		%s
		ORDER BY observed_at DESC
		LIMIT ?`, buildWhereClause(clauses))

	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, query, args...)
	metrics.RecordDBQuery("select", "detections", time.Since(start), err)

	if err != nil {
		return nil, fmt.Errorf("failed to query detections: %w", err)
	}
	defer closeWithLog(rows, "detections rows")

	var sightings []models.DeviceSighting
	for rows.Next() {
		var s models.DeviceSighting
		var deviceName sql.NullString
		var rssi sql.NullInt64

		if err := rows.Scan(&s.ID, &s.SensorID, &s.LocationName, &s.DeviceKey, &deviceName,
			&rssi, &s.DistanceMeters, &s.FirstSeen, &s.LastSeen,
			&s.DurationSeconds, &s.DetectionCount, &s.ObservedAt); err != nil {
			return nil, fmt.Errorf("failed to scan detection row: %w", err)
		}

		if deviceName.Valid {
			s.DeviceName = deviceName.String
		}
		if rssi.Valid {
			v := int(rssi.Int64)
			s.RSSI = &v
		}
		sightings = append(sightings, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("detection row iteration failed: %w", err)
	}

	return sightings, nil
}

// nullString maps "" to NULL so optional text stays NULL in storage.
func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
