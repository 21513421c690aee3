// Footfall - Retail Foot-Traffic Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footfall

// Package insights turns a stats snapshot into human-readable findings.
//
// The rule set is a fixed, ordered registry. Rules are independent: each
// fires 0 or 1 times per evaluation and never suppresses another, so the
// output order is always the registry order.
package insights

import (
	"fmt"

	"github.com/tomtom215/footfall/internal/metrics"
	"github.com/tomtom215/footfall/internal/models"
)

// rule is one deterministic insight rule. eval returns nil when the rule
// does not fire.
type rule struct {
	id   string
	eval func(stats *models.AggregatedStats) *models.Insight
}

// Generator evaluates the rule registry against stats snapshots.
type Generator struct {
	rules []rule
}

// NewGenerator creates a generator with the standard rule set.
func NewGenerator() *Generator {
	return &Generator{rules: defaultRules()}
}

// Generate evaluates every rule in registry order and returns the insights
// that fired. It has no side effects beyond per-rule evaluation metrics.
func (g *Generator) Generate(stats *models.AggregatedStats) []models.Insight {
	insights := make([]models.Insight, 0, len(g.rules))
	for _, r := range g.rules {
		insight := r.eval(stats)
		metrics.RecordInsightEvaluation(r.id, insight != nil)
		if insight != nil {
			insights = append(insights, *insight)
		}
	}
	return insights
}

func defaultRules() []rule {
	return []rule{
		{
			id: "high-traffic-low-dwell",
			eval: func(s *models.AggregatedStats) *models.Insight {
				if s.UniqueToday <= 100 || s.AvgDwellMinutes >= 2 {
					return nil
				}
				return &models.Insight{
					ID:       "high-traffic-low-dwell",
					Type:     "traffic",
					Category: "Traffic",
					Title:    "High traffic, low dwell time",
					Description: fmt.Sprintf(
						"%d visitors today but an average dwell time of only %.1f minutes. Consider improving the hook or call to action at your location.",
						s.UniqueToday, s.AvgDwellMinutes),
					Severity: models.InsightWarning,
				}
			},
		},
		{
			id: "strong-return-rate",
			eval: func(s *models.AggregatedStats) *models.Insight {
				if s.ReturnRatePct <= 30 {
					return nil
				}
				return &models.Insight{
					ID:       "strong-return-rate",
					Type:     "engagement",
					Category: "Engagement",
					Title:    "Strong return rate",
					Description: fmt.Sprintf(
						"%.1f%% of your visitors are returning. This indicates strong brand recognition and loyalty.",
						s.ReturnRatePct),
					Severity: models.InsightSuccess,
				}
			},
		},
		{
			id: "peak-hour-identified",
			eval: func(s *models.AggregatedStats) *models.Insight {
				if s.PeakHourCount <= 10 {
					return nil
				}
				return &models.Insight{
					ID:       "peak-hour-identified",
					Type:     "timing",
					Category: "Timing",
					Title:    "Peak hour identified",
					Description: fmt.Sprintf(
						"Peak hour is %d:00 with %d visitors. Schedule extra staff or promotions during this hour to maximize impact.",
						s.PeakHour, s.PeakHourCount),
					Severity: models.InsightInfo,
				}
			},
		},
		{
			id: "high-engagement",
			eval: func(s *models.AggregatedStats) *models.Insight {
				if s.EngagementScore <= 70 {
					return nil
				}
				return &models.Insight{
					ID:       "high-engagement",
					Type:     "engagement",
					Category: "Engagement",
					Title:    "High engagement level",
					Description: fmt.Sprintf(
						"Your engagement score is %d/100. Visitors are spending significant time at your location.",
						s.EngagementScore),
					Severity: models.InsightSuccess,
				}
			},
		},
		{
			id: "significant-visitor-change",
			eval: func(s *models.AggregatedStats) *models.Insight {
				change := s.VisitorChangePct
				if change <= 20 && change >= -20 {
					return nil
				}
				severity := models.InsightSuccess
				direction := "increased"
				if change < 0 {
					severity = models.InsightWarning
					direction = "decreased"
					change = -change
				}
				return &models.Insight{
					ID:       "significant-visitor-change",
					Type:     "traffic",
					Category: "Traffic",
					Title:    "Significant visitor change",
					Description: fmt.Sprintf(
						"Visitors %s %.1f%% compared to the previous period.",
						direction, change),
					Severity: severity,
				}
			},
		},
		{
			id: "long-dwell-time",
			eval: func(s *models.AggregatedStats) *models.Insight {
				if s.AvgDwellMinutes <= 15 {
					return nil
				}
				return &models.Insight{
					ID:       "long-dwell-time",
					Type:     "engagement",
					Category: "Engagement",
					Title:    "Extended dwell time",
					Description: fmt.Sprintf(
						"Average dwell time is %.1f minutes, indicating high visitor interest.",
						s.AvgDwellMinutes),
					Severity: models.InsightSuccess,
				}
			},
		},
	}
}
