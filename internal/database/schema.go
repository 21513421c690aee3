// Footfall - Retail Foot-Traffic Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footfall

package database

import (
	"context"
	"fmt"
	"time"
)

// getTableCreationQueries returns the schema DDL in creation order.
//
// sensors is the registry: one row per sensor, refreshed by every accepted
// batch including empty heartbeats. detections is the append-only sighting
// log. sessions holds visit sessions; ended_at is NULL while a session is
// open and at most one open row exists per (sensor_id, device_key).
func getTableCreationQueries() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS sensors (
			sensor_id        VARCHAR PRIMARY KEY,
			location_name    VARCHAR NOT NULL,
			first_seen       TIMESTAMP NOT NULL,
			last_seen        TIMESTAMP NOT NULL,
			wifi_rssi        INTEGER,
			device_count     BIGINT NOT NULL DEFAULT 0,
			total_detections BIGINT NOT NULL DEFAULT 0,
			error_count      BIGINT NOT NULL DEFAULT 0
		)`,

		`CREATE SEQUENCE IF NOT EXISTS detections_id_seq`,

		`CREATE TABLE IF NOT EXISTS detections (
			id              BIGINT PRIMARY KEY DEFAULT nextval('detections_id_seq'),
			sensor_id       VARCHAR NOT NULL,
			location_name   VARCHAR NOT NULL,
			device_key      VARCHAR NOT NULL,
			device_name     VARCHAR,
			rssi            INTEGER,
			distance        DOUBLE NOT NULL,
			first_seen      TIMESTAMP NOT NULL,
			last_seen       TIMESTAMP NOT NULL,
			duration        BIGINT NOT NULL,
			detection_count INTEGER NOT NULL,
			observed_at     TIMESTAMP NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS sessions (
			id              VARCHAR PRIMARY KEY,
			sensor_id       VARCHAR NOT NULL,
			location_name   VARCHAR NOT NULL,
			device_key      VARCHAR NOT NULL,
			device_name     VARCHAR,
			started_at      TIMESTAMP NOT NULL,
			ended_at        TIMESTAMP,
			last_updated_at TIMESTAMP NOT NULL,
			total_duration  BIGINT NOT NULL DEFAULT 0,
			min_distance    DOUBLE NOT NULL,
			max_distance    DOUBLE NOT NULL,
			avg_distance    DOUBLE NOT NULL,
			sighting_count  INTEGER NOT NULL DEFAULT 1
		)`,
	}
}

// getIndexCreationQueries returns the index DDL. The read side filters by
// sensor, device, and time window; these cover those paths.
func getIndexCreationQueries() []string {
	return []string{
		`CREATE INDEX IF NOT EXISTS idx_detections_observed_at ON detections (observed_at)`,
		`CREATE INDEX IF NOT EXISTS idx_detections_sensor ON detections (sensor_id, observed_at)`,
		`CREATE INDEX IF NOT EXISTS idx_detections_device ON detections (device_key, observed_at)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_open ON sessions (sensor_id, device_key, ended_at)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_started ON sessions (started_at)`,
	}
}

// createTables creates all tables in order
func (db *DB) createTables() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, query := range getTableCreationQueries() {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}
	return nil
}

// createIndexes creates all indexes
func (db *DB) createIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, query := range getIndexCreationQueries() {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}
	return nil
}
