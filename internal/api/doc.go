// Footfall - Retail Foot-Traffic Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footfall

// Package api implements the Footfall HTTP surface: detection ingestion,
// session and sensor queries, aggregated stats, insights, sensor health,
// and the service health and metrics endpoints.
//
// Routing uses chi v5. Every response is wrapped in the models.APIResponse
// envelope. Device keys in query responses are masked for display; stored
// keys are never masked.
package api
