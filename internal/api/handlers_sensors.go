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

// HandleListSensors returns the sensor registry.
//
// @Summary List registered sensors
// @Tags Sensors
// @Produce json
// @Success 200 {object} models.APIResponse{data=[]models.Sensor}
// @Router /api/v1/sensors [get]
func (h *Handler) HandleListSensors(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	sensors, err := h.store.ListSensors(r.Context())
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, codeStorageError, "Failed to list sensors", err)
		return
	}

	respondSuccess(w, r, sensors, models.Metadata{
		Count:       len(sensors),
		QueryTimeMS: time.Since(start).Milliseconds(),
	})
}

// HandleSensorHealth returns the derived health snapshot for every sensor.
// Health is computed at request time from last_seen, never persisted.
//
// @Summary Sensor health snapshot
// @Tags Sensors
// @Produce json
// @Success 200 {object} models.APIResponse{data=[]models.SensorHealth}
// @Router /api/v1/sensors/health [get]
func (h *Handler) HandleSensorHealth(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	snapshots, err := h.health.SnapshotAll(r.Context(), time.Now())
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, codeStorageError, "Failed to compute sensor health", err)
		return
	}

	respondSuccess(w, r, snapshots, models.Metadata{
		Count:       len(snapshots),
		QueryTimeMS: time.Since(start).Milliseconds(),
	})
}
