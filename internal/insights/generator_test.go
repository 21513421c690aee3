// Footfall - Retail Foot-Traffic Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footfall

package insights

import (
	"testing"

	"github.com/tomtom215/footfall/internal/models"
)

func TestGenerateQuietStatsFireNothing(t *testing.T) {
	gen := NewGenerator()
	insights := gen.Generate(&models.AggregatedStats{})
	if len(insights) != 0 {
		t.Errorf("Expected no insights for zero stats, got %d", len(insights))
	}
}

// Stats crossing four rule thresholds must produce exactly those four
// insights, in registry order.
func TestGenerateOrderIsStable(t *testing.T) {
	gen := NewGenerator()
	stats := &models.AggregatedStats{
		UniqueToday:     150,
		AvgDwellMinutes: 1.5,
		ReturnRatePct:   35,
		PeakHour:        14,
		PeakHourCount:   12,
		EngagementScore: 75,
	}

	insights := gen.Generate(stats)
	wantIDs := []string{
		"high-traffic-low-dwell",
		"strong-return-rate",
		"peak-hour-identified",
		"high-engagement",
	}
	if len(insights) != len(wantIDs) {
		t.Fatalf("Expected %d insights, got %d", len(wantIDs), len(insights))
	}
	for i, want := range wantIDs {
		if insights[i].ID != want {
			t.Errorf("Position %d: expected %s, got %s", i, want, insights[i].ID)
		}
	}
}

func TestRuleThresholds(t *testing.T) {
	tests := []struct {
		name     string
		stats    models.AggregatedStats
		wantID   string
		severity models.InsightSeverity
	}{
		{
			name:     "high traffic low dwell",
			stats:    models.AggregatedStats{UniqueToday: 101, AvgDwellMinutes: 1.9},
			wantID:   "high-traffic-low-dwell",
			severity: models.InsightWarning,
		},
		{
			name:     "strong return rate",
			stats:    models.AggregatedStats{ReturnRatePct: 30.1},
			wantID:   "strong-return-rate",
			severity: models.InsightSuccess,
		},
		{
			name:     "peak hour",
			stats:    models.AggregatedStats{PeakHour: 9, PeakHourCount: 11},
			wantID:   "peak-hour-identified",
			severity: models.InsightInfo,
		},
		{
			name:     "high engagement",
			stats:    models.AggregatedStats{EngagementScore: 71},
			wantID:   "high-engagement",
			severity: models.InsightSuccess,
		},
		{
			name:     "visitor surge",
			stats:    models.AggregatedStats{VisitorChangePct: 25},
			wantID:   "significant-visitor-change",
			severity: models.InsightSuccess,
		},
		{
			name:     "visitor drop",
			stats:    models.AggregatedStats{VisitorChangePct: -25},
			wantID:   "significant-visitor-change",
			severity: models.InsightWarning,
		},
		{
			name:     "long dwell",
			stats:    models.AggregatedStats{AvgDwellMinutes: 15.1},
			wantID:   "long-dwell-time",
			severity: models.InsightSuccess,
		},
	}

	gen := NewGenerator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			insights := gen.Generate(&tt.stats)
			if len(insights) != 1 {
				t.Fatalf("Expected exactly 1 insight, got %d", len(insights))
			}
			if insights[0].ID != tt.wantID {
				t.Errorf("Expected %s, got %s", tt.wantID, insights[0].ID)
			}
			if insights[0].Severity != tt.severity {
				t.Errorf("Expected severity %s, got %s", tt.severity, insights[0].Severity)
			}
		})
	}
}

func TestRuleBoundariesDoNotFire(t *testing.T) {
	tests := []struct {
		name  string
		stats models.AggregatedStats
	}{
		{"exactly 100 unique", models.AggregatedStats{UniqueToday: 100, AvgDwellMinutes: 1}},
		{"dwell exactly 2", models.AggregatedStats{UniqueToday: 200, AvgDwellMinutes: 2}},
		{"return rate exactly 30", models.AggregatedStats{ReturnRatePct: 30}},
		{"peak count exactly 10", models.AggregatedStats{PeakHourCount: 10}},
		{"engagement exactly 70", models.AggregatedStats{EngagementScore: 70}},
		{"change exactly 20", models.AggregatedStats{VisitorChangePct: 20}},
		{"change exactly -20", models.AggregatedStats{VisitorChangePct: -20}},
		{"dwell exactly 15", models.AggregatedStats{AvgDwellMinutes: 15}},
	}

	gen := NewGenerator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if insights := gen.Generate(&tt.stats); len(insights) != 0 {
				t.Errorf("Expected no insights at the boundary, got %d (%s)",
					len(insights), insights[0].ID)
			}
		})
	}
}

func TestGenerateIsDeterministic(t *testing.T) {
	gen := NewGenerator()
	stats := &models.AggregatedStats{
		UniqueToday:      150,
		AvgDwellMinutes:  1.2,
		ReturnRatePct:    45,
		PeakHourCount:    20,
		EngagementScore:  80,
		VisitorChangePct: -30,
	}

	first := gen.Generate(stats)
	for i := 0; i < 5; i++ {
		again := gen.Generate(stats)
		if len(again) != len(first) {
			t.Fatalf("Run %d: got %d insights, want %d", i, len(again), len(first))
		}
		for j := range again {
			if again[j] != first[j] {
				t.Fatalf("Run %d insight %d differs", i, j)
			}
		}
	}
}
