// Footfall - Retail Foot-Traffic Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footfall

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/footfall/internal/models"
)

// parseStatsParams extracts the aggregation window and filter parameters
// shared by the stats and insights endpoints.
func parseStatsParams(r *http.Request) (models.DateRange, models.StatsFilter, *time.Time, *time.Time, error) {
	period := models.DateRange(r.URL.Query().Get("range"))
	if period == "" {
		period = models.RangeToday
	}

	filter := models.StatsFilter{
		SensorID: r.URL.Query().Get("sensorId"),
		Location: r.URL.Query().Get("location"),
	}

	start, err := getTimeParam(r, "start")
	if err != nil {
		return "", models.StatsFilter{}, nil, nil, err
	}
	end, err := getTimeParam(r, "end")
	if err != nil {
		return "", models.StatsFilter{}, nil, nil, err
	}

	return period, filter, start, end, nil
}

// HandleStats returns the aggregated stats snapshot for the requested window.
//
// @Summary Aggregated foot-traffic stats
// @Tags Analytics
// @Produce json
// @Param range query string false "today, yesterday, 7days, 30days, or custom" default(today)
// @Param start query string false "Custom range start (RFC3339, required with range=custom)"
// @Param end query string false "Custom range end (RFC3339, required with range=custom)"
// @Param sensorId query string false "Restrict to one sensor"
// @Param location query string false "Restrict to one location"
// @Success 200 {object} models.APIResponse{data=models.AggregatedStats}
// @Failure 400 {object} models.APIResponse "Unknown range or missing custom bounds"
// @Router /api/v1/stats [get]
func (h *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	period, filter, start, end, err := parseStatsParams(r)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, codeQueryError, err.Error(), nil)
		return
	}
	if !period.Valid() {
		respondError(w, r, http.StatusBadRequest, codeQueryError, "range must be one of today, yesterday, 7days, 30days, custom", nil)
		return
	}
	if period == models.RangeCustom && (start == nil || end == nil) {
		respondError(w, r, http.StatusBadRequest, codeQueryError, "custom range requires start and end", nil)
		return
	}

	began := time.Now()
	stats, err := h.stats.Stats(r.Context(), period, filter, start, end)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, codeStorageError, "Failed to compute stats", err)
		return
	}

	respondSuccess(w, r, stats, models.Metadata{
		QueryTimeMS: time.Since(began).Milliseconds(),
	})
}

// HandleInsights derives rule-based insights from the stats snapshot for the
// requested window. Zero fired rules returns an empty list, not an error.
//
// @Summary Rule-based insights for a period
// @Tags Analytics
// @Produce json
// @Param range query string false "today, yesterday, 7days, 30days, or custom" default(today)
// @Param start query string false "Custom range start (RFC3339, required with range=custom)"
// @Param end query string false "Custom range end (RFC3339, required with range=custom)"
// @Param sensorId query string false "Restrict to one sensor"
// @Param location query string false "Restrict to one location"
// @Success 200 {object} models.APIResponse{data=[]models.Insight}
// @Failure 400 {object} models.APIResponse "Unknown range or missing custom bounds"
// @Router /api/v1/insights [get]
func (h *Handler) HandleInsights(w http.ResponseWriter, r *http.Request) {
	period, filter, start, end, err := parseStatsParams(r)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, codeQueryError, err.Error(), nil)
		return
	}
	if !period.Valid() {
		respondError(w, r, http.StatusBadRequest, codeQueryError, "range must be one of today, yesterday, 7days, 30days, custom", nil)
		return
	}
	if period == models.RangeCustom && (start == nil || end == nil) {
		respondError(w, r, http.StatusBadRequest, codeQueryError, "custom range requires start and end", nil)
		return
	}

	began := time.Now()
	stats, err := h.stats.Stats(r.Context(), period, filter, start, end)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, codeStorageError, "Failed to compute stats for insights", err)
		return
	}

	generated := h.insights.Generate(stats)
	if generated == nil {
		generated = []models.Insight{}
	}

	respondSuccess(w, r, generated, models.Metadata{
		Count:       len(generated),
		QueryTimeMS: time.Since(began).Milliseconds(),
	})
}
