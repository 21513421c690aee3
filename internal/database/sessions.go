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

// CreateSession inserts a new visit session row.
func (db *DB) CreateSession(ctx context.Context, sess *models.Session) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO sessions (id, sensor_id, location_name, device_key, device_name,
			started_at, ended_at, last_updated_at, total_duration,
			min_distance, max_distance, avg_distance, sighting_count)
		VALUES (?, ?, ?, ?, ?, ?, NULL, ?, ?, ?, ?, ?, ?)`,
		sess.ID, sess.SensorID, sess.LocationName, sess.DeviceKey, nullString(sess.DeviceName),
		sess.StartedAt, sess.LastUpdatedAt, sess.TotalDurationSeconds,
		sess.MinDistance, sess.MaxDistance, sess.AvgDistance, sess.SightingCount)
	metrics.RecordDBQuery("insert", "sessions", time.Since(start), err)

	if err != nil {
		return fmt.Errorf("failed to create session %s: %w", sess.ID, err)
	}
	return nil
}

// GetOpenSession returns the open session for a (sensor, device) pair, or
// ErrSessionNotFound when none is open. At most one open row can exist per
// pair; the newest wins if storage ever disagrees.
func (db *DB) GetOpenSession(ctx context.Context, sensorID, deviceKey string) (*models.Session, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	row := db.conn.QueryRowContext(ctx, `
		SELECT id, sensor_id, location_name, device_key, device_name,
			started_at, ended_at, last_updated_at, total_duration,
			min_distance, max_distance, avg_distance, sighting_count
		FROM sessions
		WHERE sensor_id = ? AND device_key = ? AND ended_at IS NULL
		ORDER BY started_at DESC
		LIMIT 1`, sensorID, deviceKey)

	sess, err := scanSession(row)
	metrics.RecordDBQuery("select", "sessions", time.Since(start), err)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get open session for %s/%s: %w", sensorID, deviceKey, err)
	}
	return sess, nil
}

// UpdateSession rewrites the mutable fields of an open session. Returns
// ErrSessionNotFound when the row is gone, which callers resolve by creating
// a fresh session.
func (db *DB) UpdateSession(ctx context.Context, sess *models.Session) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	res, err := db.conn.ExecContext(ctx, `
		UPDATE sessions SET
			device_name     = ?,
			last_updated_at = ?,
			total_duration  = ?,
			min_distance    = ?,
			max_distance    = ?,
			avg_distance    = ?,
			sighting_count  = ?
		WHERE id = ? AND ended_at IS NULL`,
		nullString(sess.DeviceName), sess.LastUpdatedAt, sess.TotalDurationSeconds,
		sess.MinDistance, sess.MaxDistance, sess.AvgDistance, sess.SightingCount, sess.ID)
	metrics.RecordDBQuery("update", "sessions", time.Since(start), err)

	if err != nil {
		return fmt.Errorf("failed to update session %s: %w", sess.ID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows for session %s: %w", sess.ID, err)
	}
	if affected == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// CloseSession stamps ended_at on an open session. Closing an already-closed
// session returns ErrSessionNotFound; closed rows are immutable.
func (db *DB) CloseSession(ctx context.Context, sessionID string, endedAt time.Time) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	res, err := db.conn.ExecContext(ctx, `
		UPDATE sessions SET ended_at = ?, total_duration = CAST(date_diff('second', started_at, CAST(? AS TIMESTAMP)) AS BIGINT)
		WHERE id = ? AND ended_at IS NULL`,
		endedAt, endedAt, sessionID)
	metrics.RecordDBQuery("update", "sessions", time.Since(start), err)

	if err != nil {
		return fmt.Errorf("failed to close session %s: %w", sessionID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows for session %s: %w", sessionID, err)
	}
	if affected == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// ListExpiredOpenSessions returns open sessions whose last update is at or
// before the cutoff. The reaper closes these lazily.
func (db *DB) ListExpiredOpenSessions(ctx context.Context, cutoff time.Time) ([]models.Session, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, sensor_id, location_name, device_key, device_name,
			started_at, ended_at, last_updated_at, total_duration,
			min_distance, max_distance, avg_distance, sighting_count
		FROM sessions
		WHERE ended_at IS NULL AND last_updated_at <= ?`, cutoff)
	metrics.RecordDBQuery("select", "sessions", time.Since(start), err)

	if err != nil {
		return nil, fmt.Errorf("failed to list expired sessions: %w", err)
	}
	defer closeWithLog(rows, "sessions rows")

	return collectSessions(rows)
}

// QuerySessions returns sessions matching the filter, newest first.
func (db *DB) QuerySessions(ctx context.Context, filter QueryFilter) ([]models.Session, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	clauses, args := buildFilterClauses(filter, "started_at")
	limit := clampLimit(filter.Limit, defaultQueryLimit, maxQueryLimit)
	args = append(args, limit)

	query := fmt.Sprintf(`
		SELECT id, sensor_id, location_name, device_key, device_name,
			started_at, ended_at, last_updated_at, total_duration,
			min_distance, max_distance, avg_distance, sighting_count
		FROM sessions
		%s
		ORDER BY started_at DESC
		LIMIT ?`, buildWhereClause(clauses))

	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, query, args...)
	metrics.RecordDBQuery("select", "sessions", time.Since(start), err)

	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer closeWithLog(rows, "sessions rows")

	return collectSessions(rows)
}

// CountOpenSessions returns the number of currently open sessions.
func (db *DB) CountOpenSessions(ctx context.Context) (int64, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	var count int64
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sessions WHERE ended_at IS NULL`).Scan(&count)
	metrics.RecordDBQuery("select", "sessions", time.Since(start), err)

	if err != nil {
		return 0, fmt.Errorf("failed to count open sessions: %w", err)
	}
	return count, nil
}

func collectSessions(rows *sql.Rows) ([]models.Session, error) {
	var sessions []models.Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session row: %w", err)
		}
		sessions = append(sessions, *sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("session row iteration failed: %w", err)
	}
	return sessions, nil
}

func scanSession(s rowScanner) (*models.Session, error) {
	var sess models.Session
	var deviceName sql.NullString
	var endedAt sql.NullTime

	err := s.Scan(&sess.ID, &sess.SensorID, &sess.LocationName, &sess.DeviceKey, &deviceName,
		&sess.StartedAt, &endedAt, &sess.LastUpdatedAt, &sess.TotalDurationSeconds,
		&sess.MinDistance, &sess.MaxDistance, &sess.AvgDistance, &sess.SightingCount)
	if err != nil {
		return nil, err
	}

	if deviceName.Valid {
		sess.DeviceName = deviceName.String
	}
	if endedAt.Valid {
		t := endedAt.Time
		sess.EndedAt = &t
	}
	return &sess, nil
}
