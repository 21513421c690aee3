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

// HandleListSessions returns visit sessions, newest first. Device keys are
// masked for display.
//
// @Summary Query visit sessions
// @Tags Query
// @Produce json
// @Param sensorId query string false "Filter by sensor ID"
// @Param location query string false "Filter by location name"
// @Param deviceKey query string false "Filter by device MAC (any accepted form)"
// @Param start query string false "Lower time bound on session start (RFC3339)"
// @Param end query string false "Upper time bound on session start (RFC3339)"
// @Param limit query int false "Row cap, clamped to the configured maximum"
// @Success 200 {object} models.APIResponse{data=[]models.Session}
// @Failure 400 {object} models.APIResponse "Malformed query parameter"
// @Router /api/v1/sessions [get]
func (h *Handler) HandleListSessions(w http.ResponseWriter, r *http.Request) {
	filter, err := h.parseQueryFilter(r)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, codeQueryError, err.Error(), nil)
		return
	}

	start := time.Now()
	sessions, err := h.store.QuerySessions(r.Context(), filter)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, codeStorageError, "Failed to query sessions", err)
		return
	}

	for i := range sessions {
		sessions[i].DeviceKey = models.MaskDeviceKey(sessions[i].DeviceKey)
	}

	respondSuccess(w, r, sessions, models.Metadata{
		Count:       len(sessions),
		QueryTimeMS: time.Since(start).Milliseconds(),
	})
}
