// Footfall - Retail Foot-Traffic Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footfall

package models

// InsightSeverity is the severity bucket of a generated insight.
type InsightSeverity string

const (
	InsightWarning InsightSeverity = "warning"
	InsightSuccess InsightSeverity = "success"
	InsightInfo    InsightSeverity = "info"
)

// Insight is one human-readable finding derived from an AggregatedStats
// snapshot. Insights are generated deterministically on read: the same
// snapshot always yields the same insights in the same order.
type Insight struct {
	ID          string          `json:"id"`
	Type        string          `json:"type"`
	Category    string          `json:"category"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Severity    InsightSeverity `json:"severity"`
}
