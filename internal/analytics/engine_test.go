// Footfall - Retail Foot-Traffic Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footfall

package analytics

import (
	"context"
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/tomtom215/footfall/internal/models"
)

// seen builds a sighting map with one sighting per device.
func seen(macs ...string) map[string]int {
	m := make(map[string]int, len(macs))
	for _, mac := range macs {
		m[mac] = 1
	}
	return m
}

func TestSplitNewReturning(t *testing.T) {
	tests := []struct {
		name          string
		current       map[string]int
		previous      map[string]int
		wantNew       int
		wantReturning int
	}{
		{
			name:          "all new when comparison window empty",
			current:       seen("A", "B", "C"),
			previous:      seen(),
			wantNew:       3,
			wantReturning: 0,
		},
		{
			name:          "returning iff seen in prior period",
			current:       seen("A", "B", "C", "D"),
			previous:      seen("B", "D", "E"),
			wantNew:       2,
			wantReturning: 2,
		},
		{
			name:          "empty current",
			current:       seen(),
			previous:      seen("A"),
			wantNew:       0,
			wantReturning: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotNew, gotReturning := splitNewReturning(tt.current, tt.previous)
			if gotNew != tt.wantNew || gotReturning != tt.wantReturning {
				t.Errorf("got new=%d returning=%d, want new=%d returning=%d",
					gotNew, gotReturning, tt.wantNew, tt.wantReturning)
			}
		})
	}
}

func TestReturnRatePct(t *testing.T) {
	if got := returnRatePct(0, 0); got != 0 {
		t.Errorf("no visitors: got %f, want 0", got)
	}
	if got := returnRatePct(3, 1); got != 25 {
		t.Errorf("1 of 4: got %f, want 25", got)
	}
	if got := returnRatePct(0, 5); got != 100 {
		t.Errorf("all returning: got %f, want 100", got)
	}
}

func TestAvgDwellMinutes(t *testing.T) {
	if got := avgDwellMinutes(nil); got != 0 {
		t.Errorf("no devices: got %f, want 0", got)
	}
	// Two devices at 300s and 600s: mean 450s = 7.5 minutes.
	got := avgDwellMinutes(map[string]float64{"A": 300, "B": 600})
	if got != 7.5 {
		t.Errorf("got %f, want 7.5", got)
	}
}

func TestPeakHour(t *testing.T) {
	var counts [24]int
	counts[9] = 12
	counts[14] = 30
	counts[17] = 30

	hour, count := peakHour(counts)
	// 14 and 17 tie at 30; the lower hour wins.
	if hour != 14 || count != 30 {
		t.Errorf("got hour=%d count=%d, want hour=14 count=30", hour, count)
	}

	hour, count = peakHour([24]int{})
	if hour != 0 || count != 0 {
		t.Errorf("empty day: got hour=%d count=%d, want 0/0", hour, count)
	}
}

func TestEngagementScore(t *testing.T) {
	tests := []struct {
		name        string
		dwell       float64
		returnRate  float64
		uniqueToday int
		want        int
	}{
		{"all zero", 0, 0, 0, 0},
		// 15/30*50 + 50/100*30 + 100/200*20 = 25 + 15 + 10
		{"midrange", 15, 50, 100, 50},
		// Each factor capped independently: 50 + 30 + 20
		{"everything maxed", 120, 100, 1000, 100},
		// Dwell capped at 50 even when enormous
		{"dwell cannot dominate", 300, 0, 0, 50},
		// 10/30*50=16.667 + 0 + 0 rounds to 17
		{"rounding", 10, 0, 0, 17},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := engagementScore(tt.dwell, tt.returnRate, tt.uniqueToday); got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestPeriodChangePct(t *testing.T) {
	if got := periodChangePct(50, 0); got != 0 {
		t.Errorf("empty previous window: got %f, want 0 not +Inf", got)
	}
	if got := periodChangePct(150, 100); got != 50 {
		t.Errorf("got %f, want 50", got)
	}
	if got := periodChangePct(75, 100); got != -25 {
		t.Errorf("got %f, want -25", got)
	}
	// Fractional values compare like counts do.
	if got := periodChangePct(7.5, 5); got != 50 {
		t.Errorf("got %f, want 50", got)
	}
}

func TestDeviceTypeBreakdown(t *testing.T) {
	breakdown := deviceTypeBreakdown(map[string]int{
		"A8:51:AB:0C:11:22": 3, // 0xA8: universally administered
		"DC:A6:32:01:02:03": 1, // 0xDC: universally administered
		"DA:55:66:77:88:99": 4, // 0xDA: locally administered (randomized)
		"33:33:00:00:00:01": 2, // 0x33: multicast
	})

	// Each sighting counts, not each device.
	if breakdown[models.DeviceTypeMobile] != 4 {
		t.Errorf("mobile = %d, want 4", breakdown[models.DeviceTypeMobile])
	}
	if breakdown[models.DeviceTypeOther] != 6 {
		t.Errorf("other = %d, want 6", breakdown[models.DeviceTypeOther])
	}

	empty := deviceTypeBreakdown(nil)
	if empty[models.DeviceTypeMobile] != 0 || empty[models.DeviceTypeOther] != 0 {
		t.Errorf("empty window must still carry both buckets, got %v", empty)
	}
	if len(empty) != 2 {
		t.Errorf("expected exactly 2 buckets, got %v", empty)
	}
}

func TestComputeSnapshot(t *testing.T) {
	var hourly [24]int
	hourly[11] = 40

	in := Inputs{
		Period:            models.Range7Days,
		UniqueToday:       80,
		Unique7Days:       300,
		Unique30Days:      900,
		CurrentSightings:  seen("A", "B", "C", "D"),
		PreviousSightings: seen("A", "B"),
		MaxSessionSeconds: map[string]float64{"A": 600, "B": 1200},
		HourlyCounts:      hourly,
		LiveCount:         7,
	}

	stats := Compute(in)

	if stats.NewVisitors != 2 || stats.ReturningVisitors != 2 {
		t.Errorf("got new=%d returning=%d, want 2/2", stats.NewVisitors, stats.ReturningVisitors)
	}
	if stats.ReturnRatePct != 50 {
		t.Errorf("return rate = %f, want 50", stats.ReturnRatePct)
	}
	if stats.AvgDwellMinutes != 15 {
		t.Errorf("dwell = %f, want 15", stats.AvgDwellMinutes)
	}
	if stats.PeakHour != 11 || stats.PeakHourCount != 40 {
		t.Errorf("peak = %d/%d, want 11/40", stats.PeakHour, stats.PeakHourCount)
	}
	// 15/30*50=25 + 50/100*30=15 + 80/200*20=8
	if stats.EngagementScore != 48 {
		t.Errorf("engagement = %d, want 48", stats.EngagementScore)
	}
	// 4 current vs 2 previous
	if stats.VisitorChangePct != 100 {
		t.Errorf("change = %f, want 100", stats.VisitorChangePct)
	}
	// No comparison-window sessions, so dwell change stays 0 not +Inf.
	if stats.DwellChangePct != 0 {
		t.Errorf("dwell change = %f, want 0", stats.DwellChangePct)
	}
	if stats.LiveCount != 7 {
		t.Errorf("live = %d, want 7", stats.LiveCount)
	}
	// Single-letter keys do not parse as MACs and land in the other bucket.
	if stats.DeviceTypeBreakdown[models.DeviceTypeOther] != 4 {
		t.Errorf("breakdown = %v, want 4 other", stats.DeviceTypeBreakdown)
	}
}

func TestComputePeriodChanges(t *testing.T) {
	in := Inputs{
		// Current window: 4 devices, all returning against the previous 2.
		CurrentSightings:  seen("A", "B", "C", "D"),
		PreviousSightings: seen("A", "B"),
		EarlierSightings:  seen("A", "B"),
		// Dwell 15 min now vs 10 min before: +50%.
		MaxSessionSeconds:     map[string]float64{"A": 600, "B": 1200},
		PrevMaxSessionSeconds: map[string]float64{"A": 600, "B": 600},
	}

	stats := Compute(in)

	if stats.DwellChangePct != 50 {
		t.Errorf("dwell change = %f, want 50", stats.DwellChangePct)
	}
	// Current: dwell 15 (25pts) + return rate 50 (15pts) + 4 visitors
	// (0.4pts) = 40. Previous: dwell 10 (16.667pts) + return rate 100
	// (30pts) + 2 visitors (0.2pts) = 47. (40-47)/47*100.
	want := (40.0 - 47.0) / 47.0 * 100
	if math.Abs(stats.EngagementChangePct-want) > 1e-9 {
		t.Errorf("engagement change = %f, want %f", stats.EngagementChangePct, want)
	}

	// An empty comparison window zeroes every change metric.
	quiet := Compute(Inputs{
		CurrentSightings:  seen("A"),
		MaxSessionSeconds: map[string]float64{"A": 300},
	})
	if quiet.VisitorChangePct != 0 || quiet.DwellChangePct != 0 || quiet.EngagementChangePct != 0 {
		t.Errorf("changes = %f/%f/%f, want all 0",
			quiet.VisitorChangePct, quiet.DwellChangePct, quiet.EngagementChangePct)
	}
}

// mockReader serves canned rows in call order, which is enough to exercise
// the engine's plumbing. Sighting maps are returned in window order:
// selected, comparison, earlier. Duration maps: selected, comparison.
type mockReader struct {
	unique     int
	sightings  []map[string]int
	durations  []map[string]float64
	hourly     [24]int
	sightCalls int
	durCalls   int
	lastFilter models.StatsFilter
}

func (m *mockReader) DistinctDeviceCount(_ context.Context, _ models.Window, filter models.StatsFilter) (int, error) {
	m.lastFilter = filter
	return m.unique, nil
}

func (m *mockReader) DeviceSightingCounts(_ context.Context, _ models.Window, filter models.StatsFilter) (map[string]int, error) {
	m.lastFilter = filter
	m.sightCalls++
	if m.sightCalls > len(m.sightings) {
		return map[string]int{}, nil
	}
	return m.sightings[m.sightCalls-1], nil
}

func (m *mockReader) DeviceMaxSessionDurations(_ context.Context, _ models.Window, filter models.StatsFilter) (map[string]float64, error) {
	m.lastFilter = filter
	m.durCalls++
	if m.durCalls > len(m.durations) {
		return map[string]float64{}, nil
	}
	return m.durations[m.durCalls-1], nil
}

func (m *mockReader) HourlySightingCounts(_ context.Context, _ models.Window, filter models.StatsFilter) ([24]int, error) {
	m.lastFilter = filter
	return m.hourly, nil
}

type mockLive struct {
	perSensor int
	all       int
}

func (m *mockLive) LiveCount(string) (int, error) { return m.perSensor, nil }
func (m *mockLive) LiveCountAll() (int, error)    { return m.all, nil }

func TestEngineStats(t *testing.T) {
	reader := &mockReader{
		unique:    42,
		sightings: []map[string]int{seen("A", "B"), seen("A"), seen()},
		durations: []map[string]float64{{"A": 120}, {}},
	}
	live := &mockLive{perSensor: 3, all: 9}
	engine := NewEngine(reader, live)

	stats, err := engine.Stats(context.Background(), models.RangeToday, models.StatsFilter{}, nil, nil)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.UniqueToday != 42 || stats.Unique7Days != 42 || stats.Unique30Days != 42 {
		t.Errorf("unique counts = %d/%d/%d, want 42 each",
			stats.UniqueToday, stats.Unique7Days, stats.Unique30Days)
	}
	if stats.LiveCount != 9 {
		t.Errorf("unfiltered stats must use the all-sensor live count, got %d", stats.LiveCount)
	}

	stats, err = engine.Stats(context.Background(), models.RangeToday, models.StatsFilter{SensorID: "S1"}, nil, nil)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.LiveCount != 3 {
		t.Errorf("sensor-filtered stats must use the per-sensor live count, got %d", stats.LiveCount)
	}
	if reader.lastFilter.SensorID != "S1" {
		t.Errorf("reader saw filter %+v, want sensor S1", reader.lastFilter)
	}
}

func TestEngineStatsLocationFilterReachesQueries(t *testing.T) {
	reader := &mockReader{}
	engine := NewEngine(reader, &mockLive{all: 5})

	stats, err := engine.Stats(context.Background(), models.RangeToday,
		models.StatsFilter{Location: "entrance"}, nil, nil)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if reader.lastFilter.Location != "entrance" {
		t.Errorf("reader saw filter %+v, want location entrance", reader.lastFilter)
	}
	// Presence is tracked per sensor, so a location-only filter keeps the
	// all-sensor live count.
	if stats.LiveCount != 5 {
		t.Errorf("live = %d, want 5", stats.LiveCount)
	}
}

func TestEngineStatsCustomRangeRequiresBounds(t *testing.T) {
	engine := NewEngine(&mockReader{}, &mockLive{})
	if _, err := engine.Stats(context.Background(), models.RangeCustom, models.StatsFilter{}, nil, nil); err == nil {
		t.Error("Expected error for custom range without bounds")
	}

	end := time.Now()
	start := end.Add(-time.Hour)
	if _, err := engine.Stats(context.Background(), models.RangeCustom, models.StatsFilter{}, &start, &end); err != nil {
		t.Errorf("Custom range with bounds failed: %v", err)
	}
}

func TestComputeIsDeterministic(t *testing.T) {
	in := Inputs{
		CurrentSightings:  seen("A", "B", "C"),
		PreviousSightings: seen("B"),
		MaxSessionSeconds: map[string]float64{"A": 90, "B": 200, "C": 45},
	}
	first := Compute(in)
	for i := 0; i < 10; i++ {
		if got := Compute(in); !reflect.DeepEqual(got, first) {
			t.Fatalf("Compute is not deterministic: %+v vs %+v", got, first)
		}
	}
	if math.IsNaN(first.AvgDwellMinutes) || math.IsInf(first.VisitorChangePct, 0) {
		t.Error("Compute must never produce NaN or Inf")
	}
}
