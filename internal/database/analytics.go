// Footfall - Retail Foot-Traffic Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footfall

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/footfall/internal/metrics"
	"github.com/tomtom215/footfall/internal/models"
)

// The aggregation layer is pure; these queries are its only inputs. Each one
// reads a single window independently so overlapping windows (today, 7d, 30d)
// never share partial results.

// appendStatsFilter adds the sensor and location conditions shared by the
// aggregation queries. A zero filter leaves the query untouched.
func appendStatsFilter(query string, args []interface{}, filter models.StatsFilter) (string, []interface{}) {
	if filter.SensorID != "" {
		query += ` AND sensor_id = ?`
		args = append(args, filter.SensorID)
	}
	if filter.Location != "" {
		query += ` AND location_name = ?`
		args = append(args, filter.Location)
	}
	return query, args
}

// DistinctDeviceCount returns the number of unique device keys sighted in
// the window, narrowed by the filter.
func (db *DB) DistinctDeviceCount(ctx context.Context, window models.Window, filter models.StatsFilter) (int, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := `SELECT COUNT(DISTINCT device_key) FROM detections WHERE observed_at >= ? AND observed_at < ?`
	args := []interface{}{window.Start, window.End}
	query, args = appendStatsFilter(query, args, filter)

	start := time.Now()
	var count int
	err := db.conn.QueryRowContext(ctx, query, args...).Scan(&count)
	metrics.RecordDBQuery("select", "detections", time.Since(start), err)

	if err != nil {
		return 0, fmt.Errorf("failed to count distinct devices: %w", err)
	}
	return count, nil
}

// DeviceSightingCounts returns the number of sightings per device key in
// the window. The key set feeds the new-vs-returning comparison against the
// preceding window; the counts feed the device type breakdown.
func (db *DB) DeviceSightingCounts(ctx context.Context, window models.Window, filter models.StatsFilter) (map[string]int, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := `SELECT device_key, COUNT(*) FROM detections WHERE observed_at >= ? AND observed_at < ?`
	args := []interface{}{window.Start, window.End}
	query, args = appendStatsFilter(query, args, filter)
	query += ` GROUP BY device_key`

	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, query, args...)
	metrics.RecordDBQuery("select", "detections", time.Since(start), err)

	if err != nil {
		return nil, fmt.Errorf("failed to count device sightings: %w", err)
	}
	defer closeWithLog(rows, "detections rows")

	counts := make(map[string]int)
	for rows.Next() {
		var key string
		var count int
		if err := rows.Scan(&key, &count); err != nil {
			return nil, fmt.Errorf("failed to scan sighting count: %w", err)
		}
		counts[key] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sighting count iteration failed: %w", err)
	}

	return counts, nil
}

// DeviceMaxSessionDurations returns, per device, the longest single session
// that started in the window, in seconds. Open sessions count with their
// running duration. Dwell time is derived from these maxima.
func (db *DB) DeviceMaxSessionDurations(ctx context.Context, window models.Window, filter models.StatsFilter) (map[string]float64, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := `
		SELECT device_key, MAX(total_duration)
		FROM sessions
		WHERE started_at >= ? AND started_at < ?`
	args := []interface{}{window.Start, window.End}
	query, args = appendStatsFilter(query, args, filter)
	query += ` GROUP BY device_key`

	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, query, args...)
	metrics.RecordDBQuery("select", "sessions", time.Since(start), err)

	if err != nil {
		return nil, fmt.Errorf("failed to query session durations: %w", err)
	}
	defer closeWithLog(rows, "sessions rows")

	durations := make(map[string]float64)
	for rows.Next() {
		var key string
		var maxSeconds float64
		if err := rows.Scan(&key, &maxSeconds); err != nil {
			return nil, fmt.Errorf("failed to scan session duration: %w", err)
		}
		durations[key] = maxSeconds
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("session duration iteration failed: %w", err)
	}

	return durations, nil
}

// HourlySightingCounts returns total sightings per hour of day (0-23)
// within the window. Counts are not deduplicated: a device sighted three
// times in one hour contributes three.
//
// Sightings are stored as UTC instants, so hours are bucketed in Go against
// the window's time zone. Grouping by the stored hour would shift every
// bucket by the zone offset; with half-hour zones no SQL hour bucket maps
// to a single local hour at all.
func (db *DB) HourlySightingCounts(ctx context.Context, window models.Window, filter models.StatsFilter) ([24]int, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var counts [24]int

	query := `SELECT observed_at FROM detections WHERE observed_at >= ? AND observed_at < ?`
	args := []interface{}{window.Start, window.End}
	query, args = appendStatsFilter(query, args, filter)

	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, query, args...)
	metrics.RecordDBQuery("select", "detections", time.Since(start), err)

	if err != nil {
		return counts, fmt.Errorf("failed to query hourly counts: %w", err)
	}
	defer closeWithLog(rows, "detections rows")

	loc := window.Start.Location()
	for rows.Next() {
		var observedAt time.Time
		if err := rows.Scan(&observedAt); err != nil {
			return counts, fmt.Errorf("failed to scan sighting time: %w", err)
		}
		counts[observedAt.In(loc).Hour()]++
	}
	if err := rows.Err(); err != nil {
		return counts, fmt.Errorf("hourly count iteration failed: %w", err)
	}

	return counts, nil
}
