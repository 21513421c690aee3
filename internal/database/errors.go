// Footfall - Retail Foot-Traffic Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footfall

package database

import (
	"errors"
	"io"
	"strings"

	"github.com/tomtom215/footfall/internal/logging"
)

// ErrSessionNotFound is returned when a session update targets a row that no
// longer exists. Callers resolve the race by creating a fresh session.
var ErrSessionNotFound = errors.New("session not found")

// ErrSensorNotFound is returned when a sensor lookup finds no registry row.
var ErrSensorNotFound = errors.New("sensor not found")

// IsTransient reports whether an error is worth retrying: connection drops
// and transaction conflicts, not constraint or syntax failures.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "broken pipe") ||
		strings.Contains(msg, "driver: bad connection") ||
		strings.Contains(msg, "database is closed") ||
		strings.Contains(msg, "Transaction conflict") ||
		strings.Contains(msg, "Conflict on update")
}

// closeWithLog closes a resource and logs any error.
// Use this for cleanup operations where errors should be acknowledged but not fail the operation
func closeWithLog(closer io.Closer, resourceType string) {
	if closer == nil {
		return
	}
	if err := closer.Close(); err != nil {
		logging.Warn().Str("type", resourceType).Err(err).Msg("Failed to close resource")
	}
}

// closeQuietly closes a resource and explicitly ignores any error.
// Use this for cleanup in error paths where Close() errors are not actionable
func closeQuietly(closer io.Closer) {
	if closer != nil {
		_ = closer.Close() // Explicitly ignore error - cleanup is best-effort
	}
}
