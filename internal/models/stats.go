// Footfall - Retail Foot-Traffic Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footfall

package models

import (
	"fmt"
	"time"
)

// DateRange selects the aggregation window for stats and insights queries.
type DateRange string

const (
	RangeToday     DateRange = "today"
	RangeYesterday DateRange = "yesterday"
	Range7Days     DateRange = "7days"
	Range30Days    DateRange = "30days"
	RangeCustom    DateRange = "custom"
)

// Valid reports whether the range is one of the supported values.
func (r DateRange) Valid() bool {
	switch r {
	case RangeToday, RangeYesterday, Range7Days, Range30Days, RangeCustom:
		return true
	}
	return false
}

// Window is a half-open time interval [Start, End).
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Duration returns the window length.
func (w Window) Duration() time.Duration {
	return w.End.Sub(w.Start)
}

// Previous returns the window of equal length immediately before this one.
// It is the comparison window for new-vs-returning and period-change math.
func (w Window) Previous() Window {
	return Window{Start: w.Start.Add(-w.Duration()), End: w.Start}
}

// Resolve converts a DateRange into a concrete window relative to now.
// Custom ranges require both start and end.
func (r DateRange) Resolve(now time.Time, start, end *time.Time) (Window, error) {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	switch r {
	case RangeToday:
		return Window{Start: midnight, End: now}, nil
	case RangeYesterday:
		return Window{Start: midnight.AddDate(0, 0, -1), End: midnight}, nil
	case Range7Days:
		return Window{Start: now.AddDate(0, 0, -7), End: now}, nil
	case Range30Days:
		return Window{Start: now.AddDate(0, 0, -30), End: now}, nil
	case RangeCustom:
		if start == nil || end == nil {
			return Window{}, fmt.Errorf("custom range requires start and end")
		}
		if end.Before(*start) {
			return Window{}, fmt.Errorf("custom range end %s before start %s", end, start)
		}
		return Window{Start: *start, End: *end}, nil
	default:
		return Window{}, fmt.Errorf("unknown date range %q", r)
	}
}

// StatsFilter narrows an aggregation to one sensor, one location, or both.
// The zero value spans every sensor. Location matches the location_name
// recorded on each stored row.
type StatsFilter struct {
	SensorID string
	Location string
}

// AggregatedStats is the derived analytics snapshot for one window. It is
// computed from stored rows on every request and never persisted; recomputing
// it from the same rows always yields the same result.
type AggregatedStats struct {
	Period            DateRange `json:"period"`
	Window            Window    `json:"window"`
	UniqueToday       int       `json:"uniqueToday"`
	Unique7Days       int       `json:"unique7days"`
	Unique30Days      int       `json:"unique30days"`
	LiveCount         int       `json:"liveCount"`
	NewVisitors       int       `json:"newVisitors"`
	ReturningVisitors int       `json:"returningVisitors"`
	ReturnRatePct     float64   `json:"returnRate"`
	AvgDwellMinutes   float64   `json:"avgDwellMinutes"`
	PeakHour          int       `json:"peakHour"`
	PeakHourCount     int       `json:"peakHourCount"`
	HourlyCounts      [24]int   `json:"hourlyCounts"`
	EngagementScore   int       `json:"engagementScore"`

	// Sightings in the window grouped by device type, keyed by
	// DeviceTypeMobile and DeviceTypeOther.
	DeviceTypeBreakdown map[string]int `json:"deviceTypeBreakdown"`

	// Percentage change against the window of equal length immediately
	// before this one.
	VisitorChangePct    float64 `json:"visitorChange"`
	DwellChangePct      float64 `json:"dwellChange"`
	EngagementChangePct float64 `json:"engagementChange"`
}
