// Footfall - Retail Foot-Traffic Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footfall

package models

import (
	"time"
)

// APIResponse is the standardized response wrapper used by all HTTP endpoints.
//
// Status field values:
//   - "success": request completed, see Data
//   - "error": request failed, see Error
//
// Example successful response:
//
//	{
//	  "status": "success",
//	  "data": {"uniqueToday": 142, ...},
//	  "metadata": {"timestamp": "2026-08-28T12:00:00Z", "query_time_ms": 12}
//	}
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata contains response metadata for observability.
//
// QueryTimeMS is the database query execution time in milliseconds.
// Count is the number of rows in Data for list responses.
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	QueryTimeMS int64     `json:"query_time_ms,omitempty"`
	Count       int       `json:"count,omitempty"`
	RequestID   string    `json:"request_id,omitempty"`
}

// APIError is a structured error payload.
//
// Common codes:
//   - VALIDATION_ERROR: invalid input, the whole batch or query is rejected
//   - QUERY_ERROR: malformed query parameters
//   - RATE_LIMIT_EXCEEDED: too many requests
//   - STORAGE_ERROR: storage failure after retry exhaustion
//   - NOT_FOUND: resource does not exist
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}
