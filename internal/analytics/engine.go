// Footfall - Retail Foot-Traffic Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footfall

// Package analytics derives visitor statistics from stored sightings and
// sessions.
//
// Compute is a pure function over gathered inputs, so the same rows always
// produce the same AggregatedStats. The Engine is the thin I/O layer that
// gathers those inputs from storage and the presence store.
package analytics

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/tomtom215/footfall/internal/models"
)

// Inputs is the raw material for one stats computation.
type Inputs struct {
	Period models.DateRange
	Window models.Window

	// Fixed-window unique counts, each computed independently.
	UniqueToday  int
	Unique7Days  int
	Unique30Days int

	// Sighting counts per device for the selected window, the comparison
	// window of equal length immediately before it, and the window before
	// that. The earliest window only feeds the comparison window's own
	// return rate.
	CurrentSightings  map[string]int
	PreviousSightings map[string]int
	EarlierSightings  map[string]int

	// Per-device maximum single-session duration in seconds, for
	// sessions started in the selected and comparison windows.
	MaxSessionSeconds     map[string]float64
	PrevMaxSessionSeconds map[string]float64

	// Total sightings per hour of day within the selected window.
	HourlyCounts [24]int

	// Devices live right now, from the presence store.
	LiveCount int
}

// Compute derives the full stats snapshot from gathered inputs.
func Compute(in Inputs) models.AggregatedStats {
	newCount, returning := splitNewReturning(in.CurrentSightings, in.PreviousSightings)
	returnRate := returnRatePct(newCount, returning)
	dwell := avgDwellMinutes(in.MaxSessionSeconds)
	peakHour, peakCount := peakHour(in.HourlyCounts)

	// The comparison window's own metrics, for period-over-period change.
	// Engagement is compared on window-scoped visitor counts so both
	// periods use the same volume basis.
	prevNew, prevReturning := splitNewReturning(in.PreviousSightings, in.EarlierSightings)
	prevDwell := avgDwellMinutes(in.PrevMaxSessionSeconds)
	score := engagementScore(dwell, returnRate, len(in.CurrentSightings))
	prevScore := engagementScore(prevDwell, returnRatePct(prevNew, prevReturning), len(in.PreviousSightings))

	return models.AggregatedStats{
		Period:              in.Period,
		Window:              in.Window,
		UniqueToday:         in.UniqueToday,
		Unique7Days:         in.Unique7Days,
		Unique30Days:        in.Unique30Days,
		LiveCount:           in.LiveCount,
		NewVisitors:         newCount,
		ReturningVisitors:   returning,
		ReturnRatePct:       returnRate,
		AvgDwellMinutes:     dwell,
		PeakHour:            peakHour,
		PeakHourCount:       peakCount,
		HourlyCounts:        in.HourlyCounts,
		EngagementScore:     engagementScore(dwell, returnRate, in.UniqueToday),
		DeviceTypeBreakdown: deviceTypeBreakdown(in.CurrentSightings),
		VisitorChangePct:    periodChangePct(float64(len(in.CurrentSightings)), float64(len(in.PreviousSightings))),
		DwellChangePct:      periodChangePct(dwell, prevDwell),
		EngagementChangePct: periodChangePct(float64(score), float64(prevScore)),
	}
}

// splitNewReturning partitions the current window's devices: returning if
// also seen in the comparison window, new otherwise.
func splitNewReturning(current, previous map[string]int) (newCount, returning int) {
	for key := range current {
		if _, ok := previous[key]; ok {
			returning++
		} else {
			newCount++
		}
	}
	return newCount, returning
}

// deviceTypeBreakdown groups window sightings by device type. Each sighting
// counts once, so a device sighted ten times contributes ten to its bucket.
// Both buckets are always present.
func deviceTypeBreakdown(sightings map[string]int) map[string]int {
	breakdown := map[string]int{
		models.DeviceTypeMobile: 0,
		models.DeviceTypeOther:  0,
	}
	for key, count := range sightings {
		breakdown[models.ClassifyDeviceType(key)] += count
	}
	return breakdown
}

func returnRatePct(newCount, returning int) float64 {
	total := newCount + returning
	if total == 0 {
		return 0
	}
	return float64(returning) / float64(total) * 100
}

// avgDwellMinutes is the mean over devices of each device's longest single
// session, in minutes. Dwell reflects the longest continuous visit, not
// cumulative time across separate visits.
func avgDwellMinutes(maxSessionSeconds map[string]float64) float64 {
	if len(maxSessionSeconds) == 0 {
		return 0
	}
	var total float64
	for _, seconds := range maxSessionSeconds {
		total += seconds
	}
	return total / float64(len(maxSessionSeconds)) / 60
}

// peakHour returns the busiest hour and its sighting count. Ties resolve to
// the lowest hour because the scan is ascending and only strictly greater
// counts win.
func peakHour(counts [24]int) (hour, count int) {
	for h := 0; h < 24; h++ {
		if counts[h] > count {
			hour, count = h, counts[h]
		}
	}
	return hour, count
}

// engagementScore blends dwell (up to 50 points), loyalty (up to 30) and
// volume (up to 20), each capped before summing.
func engagementScore(dwellMinutes, returnRate float64, uniqueToday int) int {
	dwellPts := math.Min(dwellMinutes/30*50, 50)
	loyaltyPts := returnRate / 100 * 30
	volumePts := math.Min(float64(uniqueToday)/200*20, 20)
	return int(math.Round(dwellPts + loyaltyPts + volumePts))
}

// periodChangePct is the percentage change from the previous window's
// value to the current one. Zero when the previous window is empty, not
// infinity.
func periodChangePct(current, previous float64) float64 {
	if previous == 0 {
		return 0
	}
	return (current - previous) / previous * 100
}

// Reader is the storage surface the engine reads. Satisfied by *database.DB.
type Reader interface {
	DistinctDeviceCount(ctx context.Context, window models.Window, filter models.StatsFilter) (int, error)
	DeviceSightingCounts(ctx context.Context, window models.Window, filter models.StatsFilter) (map[string]int, error)
	DeviceMaxSessionDurations(ctx context.Context, window models.Window, filter models.StatsFilter) (map[string]float64, error)
	HourlySightingCounts(ctx context.Context, window models.Window, filter models.StatsFilter) ([24]int, error)
}

// LiveCounter serves the real-time occupancy count.
// Satisfied by *presence.Store.
type LiveCounter interface {
	LiveCount(sensorID string) (int, error)
	LiveCountAll() (int, error)
}

// Engine gathers inputs and computes stats snapshots.
type Engine struct {
	db   Reader
	live LiveCounter
}

// NewEngine creates an analytics engine.
func NewEngine(db Reader, live LiveCounter) *Engine {
	return &Engine{db: db, live: live}
}

// Stats computes the snapshot for one period, optionally filtered to one
// sensor or location. Custom periods require both bounds. Reads run against
// live data; a snapshot one batch behind a concurrent ingest is acceptable.
//
// Live occupancy is tracked per sensor, so a location-only filter leaves
// LiveCount spanning all sensors.
func (e *Engine) Stats(ctx context.Context, period models.DateRange, filter models.StatsFilter, start, end *time.Time) (*models.AggregatedStats, error) {
	now := time.Now()
	window, err := period.Resolve(now, start, end)
	if err != nil {
		return nil, err
	}

	in := Inputs{Period: period, Window: window}

	// The three fixed windows are always computed independently of the
	// selected period: a device counted today is counted this week too.
	fixed := []struct {
		rng  models.DateRange
		dest *int
	}{
		{models.RangeToday, &in.UniqueToday},
		{models.Range7Days, &in.Unique7Days},
		{models.Range30Days, &in.Unique30Days},
	}
	for _, f := range fixed {
		w, err := f.rng.Resolve(now, nil, nil)
		if err != nil {
			return nil, err
		}
		count, err := e.db.DistinctDeviceCount(ctx, w, filter)
		if err != nil {
			return nil, fmt.Errorf("failed to count unique devices for %s: %w", f.rng, err)
		}
		*f.dest = count
	}

	previous := window.Previous()
	if in.CurrentSightings, err = e.db.DeviceSightingCounts(ctx, window, filter); err != nil {
		return nil, fmt.Errorf("failed to load current-window sightings: %w", err)
	}
	if in.PreviousSightings, err = e.db.DeviceSightingCounts(ctx, previous, filter); err != nil {
		return nil, fmt.Errorf("failed to load comparison-window sightings: %w", err)
	}
	if in.EarlierSightings, err = e.db.DeviceSightingCounts(ctx, previous.Previous(), filter); err != nil {
		return nil, fmt.Errorf("failed to load earlier-window sightings: %w", err)
	}
	if in.MaxSessionSeconds, err = e.db.DeviceMaxSessionDurations(ctx, window, filter); err != nil {
		return nil, fmt.Errorf("failed to load session durations: %w", err)
	}
	if in.PrevMaxSessionSeconds, err = e.db.DeviceMaxSessionDurations(ctx, previous, filter); err != nil {
		return nil, fmt.Errorf("failed to load comparison-window session durations: %w", err)
	}
	if in.HourlyCounts, err = e.db.HourlySightingCounts(ctx, window, filter); err != nil {
		return nil, fmt.Errorf("failed to load hourly counts: %w", err)
	}

	if filter.SensorID == "" {
		in.LiveCount, err = e.live.LiveCountAll()
	} else {
		in.LiveCount, err = e.live.LiveCount(filter.SensorID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read live count: %w", err)
	}

	stats := Compute(in)
	return &stats, nil
}
