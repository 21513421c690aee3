// Footfall - Retail Foot-Traffic Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footfall

package database

import (
	"strings"
	"time"
)

// QueryFilter narrows detection and session queries.
//
// All fields are optional and combine with AND. Time bounds compare against
// observed_at for detections and started_at for sessions. Limit of 0 means
// "use the configured default"; the storage layer clamps every query to the
// configured maximum so an unbounded scan can never reach the API.
type QueryFilter struct {
	SensorID     string
	LocationName string
	DeviceKey    string
	StartDate    *time.Time
	EndDate      *time.Time
	Limit        int
}

// buildFilterClauses translates a filter into WHERE conditions and args.
// timeColumn is the column the date bounds apply to.
func buildFilterClauses(filter QueryFilter, timeColumn string) ([]string, []interface{}) {
	clauses := make([]string, 0, 5)
	args := make([]interface{}, 0, 5)

	if filter.SensorID != "" {
		clauses = append(clauses, "sensor_id = ?")
		args = append(args, filter.SensorID)
	}
	if filter.LocationName != "" {
		clauses = append(clauses, "location_name = ?")
		args = append(args, filter.LocationName)
	}
	if filter.DeviceKey != "" {
		clauses = append(clauses, "device_key = ?")
		args = append(args, filter.DeviceKey)
	}
	if filter.StartDate != nil {
		clauses = append(clauses, timeColumn+" >= ?")
		args = append(args, *filter.StartDate)
	}
	if filter.EndDate != nil {
		clauses = append(clauses, timeColumn+" <= ?")
		args = append(args, *filter.EndDate)
	}

	return clauses, args
}

// buildWhereClause joins conditions into a WHERE clause, or returns "" when
// there are none.
func buildWhereClause(clauses []string) string {
	if len(clauses) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(clauses, " AND ")
}

// clampLimit applies the default and maximum row caps.
func clampLimit(limit, defaultLimit, maxLimit int) int {
	if limit <= 0 {
		return defaultLimit
	}
	if limit > maxLimit {
		return maxLimit
	}
	return limit
}
